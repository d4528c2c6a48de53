package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/course"
)

const (
	courseColumns = "id, slug, title, description, level, published, position, created_at, updated_at"
	moduleColumns = "id, course_id, title, position"
	lessonColumns = "id, module_id, course_id, title, kind, body, media_url, duration_seconds, position"
)

type (
	courseRow struct {
		ID          string    `db:"id"`
		Slug        string    `db:"slug"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		Level       string    `db:"level"`
		Published   bool      `db:"published"`
		Position    int       `db:"position"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	moduleRow struct {
		ID       string `db:"id"`
		CourseID string `db:"course_id"`
		Title    string `db:"title"`
		Position int    `db:"position"`
	}

	lessonRow struct {
		ID              string      `db:"id"`
		ModuleID        string      `db:"module_id"`
		CourseID        string      `db:"course_id"`
		Title           string      `db:"title"`
		Kind            string      `db:"kind"`
		Body            string      `db:"body"`
		MediaURL        null.String `db:"media_url"`
		DurationSeconds int         `db:"duration_seconds"`
		Position        int         `db:"position"`
	}

	progressRow struct {
		LearnerID   string    `db:"learner_id"`
		LessonID    string    `db:"lesson_id"`
		CourseID    string    `db:"course_id"`
		CompletedAt time.Time `db:"completed_at"`
	}
)

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Description: r.Description,
		Level:       r.Level,
		Published:   r.Published,
		Position:    r.Position,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (r lessonRow) toLesson() course.Lesson {
	return course.Lesson{
		ID:              r.ID,
		ModuleID:        r.ModuleID,
		CourseID:        r.CourseID,
		Title:           r.Title,
		Kind:            r.Kind,
		Body:            r.Body,
		MediaURL:        r.MediaURL.String,
		DurationSeconds: r.DurationSeconds,
		Position:        r.Position,
	}
}

func (r progressRow) toProgress() course.Progress {
	return course.Progress{
		LearnerID:   r.LearnerID,
		LessonID:    r.LessonID,
		CourseID:    r.CourseID,
		CompletedAt: r.CompletedAt.UTC(),
	}
}

type courseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter, orderings ...core.DBOrdering) ([]course.Course, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Search != "" {
		s := "%" + strings.ToLower(filter.Search) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, s, s)
	}
	if filter.Level != "" {
		where = append(where, "level = ?")
		args = append(args, filter.Level)
	}
	if filter.Published != nil {
		where = append(where, "published = ?")
		args = append(args, *filter.Published)
	}

	q := "SELECT " + courseColumns + " FROM courses"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderBy(core.FilterOrderings(orderings, course.Orderings), "position ASC, title ASC")

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

func orderBy(orderings []core.DBOrdering, fallback string) string {
	if len(orderings) == 0 {
		return fallback
	}
	cols := make([]string, 0, len(orderings)+1)
	for _, ord := range orderings {
		cols = append(cols, ord.String())
	}
	// stable pages
	cols = append(cols, "id ASC")
	return strings.Join(cols, ", ")
}

func (repo *courseRepository) GetCourse(ctx context.Context, idOrSlug string) (course.Course, error) {
	var row courseRow
	q := repo.db.Rebind("SELECT " + courseColumns + " FROM courses WHERE id = ? OR slug = ?")
	if err := repo.db.GetContext(ctx, &row, q, idOrSlug, idOrSlug); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrCourseNotFound
		}
		return course.Course{}, errors.Wrap(err, "selecting course")
	}
	c := row.toCourse()

	var modules []moduleRow
	q = repo.db.Rebind("SELECT " + moduleColumns + " FROM modules WHERE course_id = ? ORDER BY position")
	if err := repo.db.SelectContext(ctx, &modules, q, c.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "selecting modules")
	}
	var lessons []lessonRow
	q = repo.db.Rebind("SELECT " + lessonColumns + " FROM lessons WHERE course_id = ? ORDER BY position")
	if err := repo.db.SelectContext(ctx, &lessons, q, c.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "selecting lessons")
	}

	byModule := make(map[string][]course.Lesson, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l.toLesson())
	}
	for _, m := range modules {
		c.Modules = append(c.Modules, course.Module{
			ID:       m.ID,
			CourseID: m.CourseID,
			Title:    m.Title,
			Position: m.Position,
			Lessons:  byModule[m.ID],
		})
	}
	return c, nil
}

func (repo *courseRepository) GetModule(ctx context.Context, id string) (course.Module, error) {
	var row moduleRow
	q := repo.db.Rebind("SELECT " + moduleColumns + " FROM modules WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Module{}, course.ErrModuleNotFound
		}
		return course.Module{}, errors.Wrap(err, "selecting module")
	}
	return course.Module{ID: row.ID, CourseID: row.CourseID, Title: row.Title, Position: row.Position}, nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id string) (course.Lesson, error) {
	var row lessonRow
	q := repo.db.Rebind("SELECT " + lessonColumns + " FROM lessons WHERE id = ?")
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Lesson{}, course.ErrLessonNotFound
		}
		return course.Lesson{}, errors.Wrap(err, "selecting lesson")
	}
	return row.toLesson(), nil
}

func (repo *courseRepository) SaveCourse(ctx context.Context, c course.Course) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO courses (`+courseColumns+`)
			VALUES (:id, :slug, :title, :description, :level, :published, :position, :created_at, :updated_at)
			ON CONFLICT (id) DO UPDATE SET
				slug = excluded.slug,
				title = excluded.title,
				description = excluded.description,
				level = excluded.level,
				published = excluded.published,
				position = excluded.position,
				updated_at = excluded.updated_at`,
			courseRow{
				ID:          c.ID,
				Slug:        c.Slug,
				Title:       c.Title,
				Description: c.Description,
				Level:       c.Level,
				Published:   c.Published,
				Position:    c.Position,
				CreatedAt:   c.CreatedAt,
				UpdatedAt:   c.UpdatedAt,
			},
		)
		if err != nil {
			return errors.Wrap(err, "upserting course")
		}

		if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM lessons WHERE course_id = ?"), c.ID); err != nil {
			return errors.Wrap(err, "deleting lessons")
		}
		if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM modules WHERE course_id = ?"), c.ID); err != nil {
			return errors.Wrap(err, "deleting modules")
		}

		for _, m := range c.Modules {
			_, err = tx.NamedExecContext(ctx,
				"INSERT INTO modules ("+moduleColumns+") VALUES (:id, :course_id, :title, :position)",
				moduleRow{ID: m.ID, CourseID: c.ID, Title: m.Title, Position: m.Position},
			)
			if err != nil {
				return errors.Wrap(err, "inserting module")
			}
			for _, l := range m.Lessons {
				_, err = tx.NamedExecContext(ctx, `
					INSERT INTO lessons (`+lessonColumns+`)
					VALUES (:id, :module_id, :course_id, :title, :kind, :body, :media_url, :duration_seconds, :position)`,
					lessonRow{
						ID:              l.ID,
						ModuleID:        m.ID,
						CourseID:        c.ID,
						Title:           l.Title,
						Kind:            l.Kind,
						Body:            l.Body,
						MediaURL:        null.NewString(l.MediaURL, l.MediaURL != ""),
						DurationSeconds: l.DurationSeconds,
						Position:        l.Position,
					},
				)
				if err != nil {
					return errors.Wrap(err, "inserting lesson")
				}
			}
		}
		return nil
	})
}

func (repo *courseRepository) CreateProgress(ctx context.Context, p course.Progress) (course.Progress, error) {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO progress (learner_id, lesson_id, course_id, completed_at)
		VALUES (:learner_id, :lesson_id, :course_id, :completed_at)
		ON CONFLICT (learner_id, lesson_id) DO NOTHING`,
		progressRow{LearnerID: p.LearnerID, LessonID: p.LessonID, CourseID: p.CourseID, CompletedAt: p.CompletedAt},
	)
	if err != nil {
		return course.Progress{}, errors.Wrap(err, "inserting progress")
	}

	var row progressRow
	q := repo.db.Rebind("SELECT learner_id, lesson_id, course_id, completed_at FROM progress WHERE learner_id = ? AND lesson_id = ?")
	if err = repo.db.GetContext(ctx, &row, q, p.LearnerID, p.LessonID); err != nil {
		return course.Progress{}, errors.Wrap(err, "selecting progress")
	}
	return row.toProgress(), nil
}

func (repo *courseRepository) QueryProgress(ctx context.Context, learnerID string) ([]course.Progress, error) {
	var rows []progressRow
	q := repo.db.Rebind("SELECT learner_id, lesson_id, course_id, completed_at FROM progress WHERE learner_id = ? ORDER BY completed_at")
	if err := repo.db.SelectContext(ctx, &rows, q, learnerID); err != nil {
		return nil, errors.Wrap(err, "selecting progress")
	}
	progress := make([]course.Progress, 0, len(rows))
	for _, r := range rows {
		progress = append(progress, r.toProgress())
	}
	return progress, nil
}

func (repo *courseRepository) CountProgress(ctx context.Context) (int, error) {
	var n int
	err := repo.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM progress")
	return n, errors.Wrap(err, "counting progress")
}
