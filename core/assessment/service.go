package assessment

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/account"
	"github.com/speakwell/academy/core/course"
)

var (
	ErrNotFound = errors.New("assessment not found")

	errAnswerCount      = errors.New("one answer is required per question")
	errInvalidQuestions = errors.New("invalid questions")
	errNoOptions        = "a question needs at least 2 options"
	errBadCorrect       = "correct option is out of range"

	resultTemplate = "assessment_result"
)

type (
	Repository interface {
		GetAssessment(ctx context.Context, id string) (Assessment, error)
		GetModuleAssessment(ctx context.Context, moduleID string) (Assessment, error)
		// SaveAssessment creates or replaces an assessment and its questions.
		SaveAssessment(ctx context.Context, a Assessment) error
		CreateAttempt(ctx context.Context, at Attempt) error
		// QueryAttempts returns the learner's attempts, most recent first.
		QueryAttempts(ctx context.Context, learnerID, assessmentID string) ([]Attempt, error)
		GetStats(ctx context.Context) (Stats, error)
	}

	Service interface {
		Get(ctx context.Context, id string) (Assessment, error)
		GetForModule(ctx context.Context, moduleID string) (Assessment, error)
		Submit(ctx context.Context, learner account.Profile, id string, sub Submission) (Result, error)
		Attempts(ctx context.Context, learnerID, id string) ([]Attempt, error)
		Save(ctx context.Context, a Assessment) (Assessment, error)
		Stats(ctx context.Context) (Stats, error)
	}

	service struct {
		conf     *core.Config
		repo     Repository
		courses  course.Service
		validate *validator.Validate
		mailSvc  core.EmailService
	}
)

var _ Service = (*service)(nil)

// NewService returns the assessment service. Assessments are only served while
// the course of their module is published; courses answers for that.
func NewService(
	conf *core.Config,
	repo Repository,
	courses course.Service,
	validate *validator.Validate,
	mailSvc core.EmailService,
) Service {
	return &service{
		conf:     conf,
		repo:     repo,
		courses:  courses,
		validate: validate,
		mailSvc:  mailSvc,
	}
}

// visible returns a unless its module is missing or belongs to a draft course.
func (svc *service) visible(ctx context.Context, a Assessment, err error) (Assessment, error) {
	if err != nil {
		return Assessment{}, err
	}
	_, err = svc.courses.Module(ctx, a.ModuleID)
	switch {
	case errors.Cause(err) == course.ErrModuleNotFound:
		return Assessment{}, ErrNotFound
	case err != nil:
		return Assessment{}, errors.Wrap(err, "getting module")
	}
	return a, nil
}

func (svc *service) Get(ctx context.Context, id string) (Assessment, error) {
	a, err := svc.repo.GetAssessment(ctx, id)
	return svc.visible(ctx, a, err)
}

func (svc *service) GetForModule(ctx context.Context, moduleID string) (Assessment, error) {
	a, err := svc.repo.GetModuleAssessment(ctx, moduleID)
	return svc.visible(ctx, a, err)
}

func (svc *service) Submit(ctx context.Context, learner account.Profile, id string, sub Submission) (Result, error) {
	a, err := svc.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if err = sub.Validate(svc.validate, a); err != nil {
		return Result{}, err
	}

	score := Grade(sub.Answers, a.CorrectOptions())
	at := Attempt{
		ID:           uuid.New().String(),
		AssessmentID: a.ID,
		LearnerID:    learner.ID,
		Answers:      sub.Answers,
		Score:        score,
		Passed:       score.Percentage >= a.PassingScore,
		SubmittedAt:  time.Now().UTC(),
	}
	if err = svc.repo.CreateAttempt(ctx, at); err != nil {
		return Result{}, errors.Wrap(err, "creating attempt")
	}

	res := Result{Attempt: at, Feedback: a.Feedback(sub.Answers)}
	if at.Passed && learner.EmailNotifications && learner.Email != "" {
		svc.sendResultMail(learner, a, res)
	}
	return res, nil
}

type resultMailData struct {
	LearnerName string
	Title       string
	Percentage  int
	Correct     int
	Total       int
	Missed      int
	Feedback    []Feedback
}

func (svc *service) sendResultMail(learner account.Profile, a Assessment, res Result) {
	score := res.Attempt.Score
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: learner.DisplayName, Address: learner.Email}},
		Subject:      fmt.Sprintf("You passed %s", a.Title),
		TemplateName: resultTemplate,
		TemplateData: resultMailData{
			LearnerName: learner.Name(),
			Title:       a.Title,
			Percentage:  score.Percentage,
			Correct:     score.Correct,
			Total:       score.Total,
			Missed:      score.Total - score.Correct,
			Feedback:    res.Feedback,
		},
	})
}

func (svc *service) Attempts(ctx context.Context, learnerID, id string) ([]Attempt, error) {
	if _, err := svc.Get(ctx, id); err != nil {
		return nil, err
	}
	return svc.repo.QueryAttempts(ctx, learnerID, id)
}

// Save validates and stores an assessment. Questions are ordered by position.
// Saving over an existing assessment keeps its creation time.
func (svc *service) Save(ctx context.Context, a Assessment) (Assessment, error) {
	a.Title = core.CleanString(a.Title)
	if a.PassingScore <= 0 {
		a.PassingScore = svc.conf.Learning.PassingScore
	}
	if err := a.Validate(); err != nil {
		return Assessment{}, err
	}

	sort.SliceStable(a.Questions, func(i, j int) bool { return a.Questions[i].Position < a.Questions[j].Position })
	for i := range a.Questions {
		q := &a.Questions[i]
		if q.ID == "" {
			q.ID = uuid.New().String()
		}
		q.Prompt = core.CleanString(q.Prompt)
		q.Explanation = core.CleanString(q.Explanation)
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
		if prev, err := svc.repo.GetAssessment(ctx, a.ID); err == nil {
			a.CreatedAt = prev.CreatedAt
		} else if errors.Cause(err) != ErrNotFound {
			return Assessment{}, errors.Wrap(err, "getting assessment")
		}
	}
	a.UpdatedAt = now

	if err := svc.repo.SaveAssessment(ctx, a); err != nil {
		return Assessment{}, errors.Wrap(err, "saving assessment")
	}
	return a, nil
}

func (svc *service) Stats(ctx context.Context) (Stats, error) {
	return svc.repo.GetStats(ctx)
}
