package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/speakwell/academy/core"
)

var (
	orderingParam = "ordering"

	errBadOrdering = errors.New("invalid ordering")
)

// Ordering is bound from a query param like ?ordering=level,-title; "-" sorts descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind parses the ordering param. Fields missing from allowed are rejected,
// all of them in a single validation error.
func (ord *Ordering) Bind(ctx echo.Context, allowed map[string]string) error {
	val := strings.TrimSpace(ctx.QueryParam(orderingParam))
	if val == "" {
		return nil
	}

	var unknown []string
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if _, ok := allowed[strings.ToLower(field)]; !ok {
			unknown = append(unknown, field)
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}

	if unknown != nil {
		ord.Orderings = nil
		return core.NewValidationError(errBadOrdering, core.FieldError{
			Field: orderingParam,
			Error: "unknown field: " + strings.Join(unknown, ", "),
		})
	}
	return nil
}
