package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/speakwell/academy/core/account"
)

const profileColumns = "id, display_name, email, native_language, level, daily_goal_minutes, email_notifications, created_at, updated_at"

type profileRow struct {
	ID                 string    `db:"id"`
	DisplayName        string    `db:"display_name"`
	Email              string    `db:"email"`
	NativeLanguage     string    `db:"native_language"`
	Level              string    `db:"level"`
	DailyGoalMinutes   int       `db:"daily_goal_minutes"`
	EmailNotifications bool      `db:"email_notifications"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func newProfileRow(p account.Profile) profileRow {
	return profileRow(p)
}

func (r profileRow) toProfile() account.Profile {
	p := account.Profile(r)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) account.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfile(ctx context.Context, id string) (account.Profile, error) {
	var row profileRow
	q := repo.db.Rebind("SELECT " + profileColumns + " FROM profiles WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return account.Profile{}, account.ErrNotFound
		}
		return account.Profile{}, errors.Wrap(err, "selecting profile")
	}
	return row.toProfile(), nil
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p account.Profile) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (:id, :display_name, :email, :native_language, :level, :daily_goal_minutes, :email_notifications, :created_at, :updated_at)
		ON CONFLICT (id) DO NOTHING`,
		newProfileRow(p),
	)
	return errors.Wrap(err, "inserting profile")
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, p account.Profile) error {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE profiles SET
			display_name = :display_name,
			email = :email,
			native_language = :native_language,
			level = :level,
			daily_goal_minutes = :daily_goal_minutes,
			email_notifications = :email_notifications,
			updated_at = :updated_at
		WHERE id = :id`,
		newProfileRow(p),
	)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (repo *profileRepository) CountProfiles(ctx context.Context) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM profiles")
	return n, errors.Wrap(err, "counting profiles")
}
