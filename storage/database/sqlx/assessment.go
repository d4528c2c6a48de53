package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/speakwell/academy/core/assessment"
)

const (
	assessmentColumns = "id, module_id, title, passing_score, created_at, updated_at"
	questionColumns   = "id, assessment_id, prompt, options, correct_option, explanation, position"
	attemptColumns    = "id, assessment_id, learner_id, answers, correct, total, percentage, passed, submitted_at"
)

type (
	assessmentRow struct {
		ID           string    `db:"id"`
		ModuleID     string    `db:"module_id"`
		Title        string    `db:"title"`
		PassingScore int       `db:"passing_score"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
	}

	questionRow struct {
		ID            string      `db:"id"`
		AssessmentID  string      `db:"assessment_id"`
		Prompt        string      `db:"prompt"`
		Options       stringList  `db:"options"`
		CorrectOption int         `db:"correct_option"`
		Explanation   null.String `db:"explanation"`
		Position      int         `db:"position"`
	}

	attemptRow struct {
		ID           string    `db:"id"`
		AssessmentID string    `db:"assessment_id"`
		LearnerID    string    `db:"learner_id"`
		Answers      intList   `db:"answers"`
		Correct      int       `db:"correct"`
		Total        int       `db:"total"`
		Percentage   int       `db:"percentage"`
		Passed       bool      `db:"passed"`
		SubmittedAt  time.Time `db:"submitted_at"`
	}
)

func (r attemptRow) toAttempt() assessment.Attempt {
	return assessment.Attempt{
		ID:           r.ID,
		AssessmentID: r.AssessmentID,
		LearnerID:    r.LearnerID,
		Answers:      []int(r.Answers),
		Score:        assessment.Score{Correct: r.Correct, Total: r.Total, Percentage: r.Percentage},
		Passed:       r.Passed,
		SubmittedAt:  r.SubmittedAt.UTC(),
	}
}

type assessmentRepository struct {
	db *sqlx.DB
}

func NewAssessmentRepository(db *sqlx.DB) assessment.Repository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) get(ctx context.Context, where string, arg string) (assessment.Assessment, error) {
	var row assessmentRow
	q := repo.db.Rebind("SELECT " + assessmentColumns + " FROM assessments WHERE " + where + " = ?")
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return assessment.Assessment{}, assessment.ErrNotFound
		}
		return assessment.Assessment{}, errors.Wrap(err, "selecting assessment")
	}

	var questions []questionRow
	q = repo.db.Rebind("SELECT " + questionColumns + " FROM questions WHERE assessment_id = ? ORDER BY position")
	if err := repo.db.SelectContext(ctx, &questions, q, row.ID); err != nil {
		return assessment.Assessment{}, errors.Wrap(err, "selecting questions")
	}

	a := assessment.Assessment{
		ID:           row.ID,
		ModuleID:     row.ModuleID,
		Title:        row.Title,
		PassingScore: row.PassingScore,
		Questions:    make([]assessment.Question, 0, len(questions)),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	for _, qr := range questions {
		a.Questions = append(a.Questions, assessment.Question{
			ID:            qr.ID,
			Prompt:        qr.Prompt,
			Options:       []string(qr.Options),
			CorrectOption: qr.CorrectOption,
			Explanation:   qr.Explanation.String,
			Position:      qr.Position,
		})
	}
	return a, nil
}

func (repo *assessmentRepository) GetAssessment(ctx context.Context, id string) (assessment.Assessment, error) {
	return repo.get(ctx, "id", id)
}

func (repo *assessmentRepository) GetModuleAssessment(ctx context.Context, moduleID string) (assessment.Assessment, error) {
	return repo.get(ctx, "module_id", moduleID)
}

func (repo *assessmentRepository) SaveAssessment(ctx context.Context, a assessment.Assessment) error {
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO assessments (`+assessmentColumns+`)
			VALUES (:id, :module_id, :title, :passing_score, :created_at, :updated_at)
			ON CONFLICT (id) DO UPDATE SET
				module_id = excluded.module_id,
				title = excluded.title,
				passing_score = excluded.passing_score,
				updated_at = excluded.updated_at`,
			assessmentRow{
				ID:           a.ID,
				ModuleID:     a.ModuleID,
				Title:        a.Title,
				PassingScore: a.PassingScore,
				CreatedAt:    a.CreatedAt,
				UpdatedAt:    a.UpdatedAt,
			},
		)
		if err != nil {
			return errors.Wrap(err, "upserting assessment")
		}

		if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM questions WHERE assessment_id = ?"), a.ID); err != nil {
			return errors.Wrap(err, "deleting questions")
		}
		for _, qu := range a.Questions {
			_, err = tx.NamedExecContext(ctx, `
				INSERT INTO questions (`+questionColumns+`)
				VALUES (:id, :assessment_id, :prompt, :options, :correct_option, :explanation, :position)`,
				questionRow{
					ID:            qu.ID,
					AssessmentID:  a.ID,
					Prompt:        qu.Prompt,
					Options:       stringList(qu.Options),
					CorrectOption: qu.CorrectOption,
					Explanation:   null.NewString(qu.Explanation, qu.Explanation != ""),
					Position:      qu.Position,
				},
			)
			if err != nil {
				return errors.Wrap(err, "inserting question")
			}
		}
		return nil
	})
}

func (repo *assessmentRepository) CreateAttempt(ctx context.Context, at assessment.Attempt) error {
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO attempts (`+attemptColumns+`)
		VALUES (:id, :assessment_id, :learner_id, :answers, :correct, :total, :percentage, :passed, :submitted_at)`,
		attemptRow{
			ID:           at.ID,
			AssessmentID: at.AssessmentID,
			LearnerID:    at.LearnerID,
			Answers:      intList(at.Answers),
			Correct:      at.Score.Correct,
			Total:        at.Score.Total,
			Percentage:   at.Score.Percentage,
			Passed:       at.Passed,
			SubmittedAt:  at.SubmittedAt,
		},
	)
	return errors.Wrap(err, "inserting attempt")
}

func (repo *assessmentRepository) QueryAttempts(ctx context.Context, learnerID, assessmentID string) ([]assessment.Attempt, error) {
	var rows []attemptRow
	q := repo.db.Rebind("SELECT " + attemptColumns + " FROM attempts WHERE learner_id = ? AND assessment_id = ? ORDER BY submitted_at DESC")
	if err := repo.db.SelectContext(ctx, &rows, q, learnerID, assessmentID); err != nil {
		return nil, errors.Wrap(err, "selecting attempts")
	}
	attempts := make([]assessment.Attempt, 0, len(rows))
	for _, r := range rows {
		attempts = append(attempts, r.toAttempt())
	}
	return attempts, nil
}

func (repo *assessmentRepository) GetStats(ctx context.Context) (assessment.Stats, error) {
	var st struct {
		Assessments int `db:"assessments"`
		Attempts    int `db:"attempts"`
		Passed      int `db:"passed"`
	}
	err := repo.db.GetContext(ctx, &st, `
		SELECT
			(SELECT COUNT(*) FROM assessments) AS assessments,
			COUNT(*) AS attempts,
			COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) AS passed
		FROM attempts`)
	if err != nil {
		return assessment.Stats{}, errors.Wrap(err, "selecting stats")
	}
	return assessment.Stats{Assessments: st.Assessments, Attempts: st.Attempts, Passed: st.Passed}, nil
}
