package assessment_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/account"
	"github.com/speakwell/academy/core/assessment"
	"github.com/speakwell/academy/core/course"
	emailsvc "github.com/speakwell/academy/services/email"
	inmemdb "github.com/speakwell/academy/storage/database/inmem"
	testutil "github.com/speakwell/academy/tests"
)

func setup(t *testing.T) (assessment.Service, assessment.Repository, course.Service) {
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	validate, _ := testutil.NewValidator()
	db := inmemdb.NewDB()
	repo := inmemdb.NewAssessmentRepository(db)
	courses := course.NewService(conf, inmemdb.NewCourseRepository(db), validate, logger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	emailsvc.ClearSentMessages()
	return assessment.NewService(conf, repo, courses, validate, mailSvc), repo, courses
}

// firstModule creates a course and returns the id of its first module.
func firstModule(t *testing.T, courses course.Service, slug string, published bool) string {
	return testutil.CreateCourse(t, courses, slug, published).Modules[0].ID
}

func TestService_Save(t *testing.T) {
	svc, _, courses := setup(t)
	ctx := context.Background()
	moduleID := firstModule(t, courses, "everyday", true)

	a := testutil.SampleAssessment(moduleID)
	a.PassingScore = 0
	a.Questions[0], a.Questions[2] = a.Questions[2], a.Questions[0]

	saved, err := svc.Save(ctx, a)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, 70, saved.PassingScore, "default passing score")
	for i, q := range saved.Questions {
		assert.Equal(t, i+1, q.Position)
		assert.NotEmpty(t, q.ID)
	}

	got, err := svc.GetForModule(ctx, moduleID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, []int{1, 0, 2}, got.CorrectOptions())

	// saving again without a creation time keeps the stored one
	got.CreatedAt = time.Time{}
	got.Title = "Greetings, again"
	resaved, err := svc.Save(ctx, got)
	require.NoError(t, err)
	assert.True(t, saved.CreatedAt.Equal(resaved.CreatedAt))
	assert.Equal(t, "Greetings, again", resaved.Title)
}

func TestService_Save_invalidQuestions(t *testing.T) {
	svc, _, _ := setup(t)

	a := testutil.SampleAssessment("m1")
	a.Questions[0].CorrectOption = 3
	a.Questions[1].Options = []string{"only one"}

	_, err := svc.Save(context.Background(), a)
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "got %v", err)
	assert.ElementsMatch(t, []core.FieldError{
		{Field: "questions[0].correct_option", Error: "correct option is out of range"},
		{Field: "questions[1].options", Error: "a question needs at least 2 options"},
	}, vErr.Fields)
}

func TestService_draftCourse(t *testing.T) {
	svc, repo, courses := setup(t)
	ctx := context.Background()
	moduleID := firstModule(t, courses, "draft", false)
	a := testutil.CreateAssessment(t, svc, moduleID)

	_, err := svc.Get(ctx, a.ID)
	assert.Equal(t, assessment.ErrNotFound, errors.Cause(err))
	_, err = svc.GetForModule(ctx, moduleID)
	assert.Equal(t, assessment.ErrNotFound, errors.Cause(err))
	_, err = svc.Submit(ctx, account.Profile{ID: "u1"}, a.ID, assessment.Submission{Answers: []int{1, 0, 2}})
	assert.Equal(t, assessment.ErrNotFound, errors.Cause(err))
	_, err = svc.Attempts(ctx, "u1", a.ID)
	assert.Equal(t, assessment.ErrNotFound, errors.Cause(err))

	attempts, err := repo.QueryAttempts(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Empty(t, attempts)

	// publishing the course makes the assessment available
	c, err := courses.Get(ctx, "draft")
	require.NoError(t, err)
	c.Published = true
	_, err = courses.Save(ctx, c)
	require.NoError(t, err)

	got, err := svc.GetForModule(ctx, moduleID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestService_Submit(t *testing.T) {
	svc, _, courses := setup(t)
	ctx := context.Background()
	a := testutil.CreateAssessment(t, svc, firstModule(t, courses, "everyday", true))

	learner := account.Profile{ID: "u1", DisplayName: "Ada", Email: "ada@example.com", EmailNotifications: true}
	quiet := account.Profile{ID: "u2", Email: "bob@example.com", EmailNotifications: false}

	tests := []struct {
		name        string
		learner     account.Profile
		answers     []int
		wantScore   assessment.Score
		wantPassed  bool
		wantEmailed bool
	}{
		{name: "fail", learner: learner, answers: []int{0, 0, 0}, wantScore: assessment.Score{Correct: 1, Total: 3, Percentage: 33}},
		{name: "pass", learner: learner, answers: []int{1, 1, 2}, wantScore: assessment.Score{Correct: 2, Total: 3, Percentage: 67}, wantPassed: true, wantEmailed: true},
		{name: "pass with unanswered", learner: learner, answers: []int{1, 0, assessment.Unanswered}, wantScore: assessment.Score{Correct: 2, Total: 3, Percentage: 67}, wantPassed: true, wantEmailed: true},
		{name: "pass without notifications", learner: quiet, answers: []int{1, 0, 2}, wantScore: assessment.Score{Correct: 3, Total: 3, Percentage: 100}, wantPassed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			res, err := svc.Submit(ctx, tt.learner, a.ID, assessment.Submission{Answers: tt.answers})
			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, res.Attempt.Score)
			assert.Equal(t, tt.wantPassed, res.Attempt.Passed)
			assert.Equal(t, tt.learner.ID, res.Attempt.LearnerID)
			assert.Len(t, res.Feedback, 3)
			assert.Equal(t, "'See you' closes a conversation.", res.Feedback[2].Explanation)

			sent := emailsvc.SentMessages()
			if tt.wantEmailed {
				require.Len(t, sent, 1)
				assert.Equal(t, tt.learner.Email, sent[0].To[0].Address)
				assert.Contains(t, sent[0].TextContent, "Greetings check")
			} else {
				assert.Empty(t, sent)
			}
		})
	}

	attempts, err := svc.Attempts(ctx, learner.ID, a.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 3)
	attempts, err = svc.Attempts(ctx, quiet.ID, a.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 1)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, assessment.Stats{Assessments: 1, Attempts: 4, Passed: 3}, st)
}

func TestService_Submit_errors(t *testing.T) {
	svc, repo, courses := setup(t)
	ctx := context.Background()
	a := testutil.CreateAssessment(t, svc, firstModule(t, courses, "everyday", true))
	learner := account.Profile{ID: "u1"}

	_, err := svc.Submit(ctx, learner, "nope", assessment.Submission{Answers: []int{0}})
	assert.Equal(t, assessment.ErrNotFound, errors.Cause(err))

	_, err = svc.Submit(ctx, learner, a.ID, assessment.Submission{Answers: []int{0, 1}})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "got %v", err)
	assert.Equal(t, "answers", vErr.Fields[0].Field)

	_, err = svc.Submit(ctx, learner, a.ID, assessment.Submission{Answers: []int{0, -2, 1}})
	_, ok := errors.Cause(err).(validator.ValidationErrors)
	assert.True(t, ok, "got %v", err)

	_, err = svc.Submit(ctx, learner, a.ID, assessment.Submission{})
	_, ok = errors.Cause(err).(validator.ValidationErrors)
	assert.True(t, ok, "got %v", err)

	attempts, err := repo.QueryAttempts(ctx, learner.ID, a.ID)
	require.NoError(t, err)
	assert.Empty(t, attempts)

	_, err = svc.Attempts(ctx, learner.ID, "nope")
	assert.Equal(t, assessment.ErrNotFound, errors.Cause(err))
}
