package inmemdb

import (
	"context"
	"sort"

	"github.com/speakwell/academy/core/assessment"
)

type assessmentRepository struct {
	db *assessmentTable
}

func NewAssessmentRepository(db *DB) assessment.Repository {
	return &assessmentRepository{db: db.assessment}
}

func copyAssessment(a assessment.Assessment) assessment.Assessment {
	out := a
	out.Questions = make([]assessment.Question, 0, len(a.Questions))
	for _, q := range a.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions = append(out.Questions, q)
	}
	return out
}

func (repo *assessmentRepository) GetAssessment(_ context.Context, id string) (assessment.Assessment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return copyAssessment(*a), nil
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) GetModuleAssessment(_ context.Context, moduleID string) (assessment.Assessment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, a := range repo.db.table {
		if a.ModuleID == moduleID {
			return copyAssessment(*a), nil
		}
	}
	return assessment.Assessment{}, assessment.ErrNotFound
}

func (repo *assessmentRepository) SaveAssessment(_ context.Context, a assessment.Assessment) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	saved := copyAssessment(a)
	repo.db.table[a.ID] = &saved
	return nil
}

func (repo *assessmentRepository) CreateAttempt(_ context.Context, at assessment.Attempt) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	at.Answers = append([]int(nil), at.Answers...)
	repo.db.attempts = append(repo.db.attempts, at)
	return nil
}

func (repo *assessmentRepository) QueryAttempts(_ context.Context, learnerID, assessmentID string) ([]assessment.Attempt, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	attempts := make([]assessment.Attempt, 0)
	for _, at := range repo.db.attempts {
		if at.LearnerID == learnerID && at.AssessmentID == assessmentID {
			attempts = append(attempts, at)
		}
	}
	sort.SliceStable(attempts, func(i, j int) bool { return attempts[i].SubmittedAt.After(attempts[j].SubmittedAt) })
	return attempts, nil
}

func (repo *assessmentRepository) GetStats(_ context.Context) (assessment.Stats, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	st := assessment.Stats{Assessments: len(repo.db.table), Attempts: len(repo.db.attempts)}
	for _, at := range repo.db.attempts {
		if at.Passed {
			st.Passed++
		}
	}
	return st, nil
}
