// Package sqlxrepos implements the repositories on top of jmoiron/sqlx.
// Queries use ? placeholders and are rebound to the driver's bind type, so they run on
// postgres and sqlite alike.
package sqlxrepos

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// stringList is a []string stored as a JSON array.
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

func (l *stringList) Scan(src interface{}) error {
	return scanJSON(src, (*[]string)(l))
}

// intList is a []int stored as a JSON array.
type intList []int

func (l intList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(l))
	return string(b), err
}

func (l *intList) Scan(src interface{}) error {
	return scanJSON(src, (*[]int)(l))
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	case nil:
		return nil
	default:
		return fmt.Errorf("cannot scan %T into a JSON list", src)
	}
}

// inTx runs fn in a transaction, committed when fn returns nil.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
