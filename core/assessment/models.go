package assessment

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/speakwell/academy/core"
)

type (
	Assessment struct {
		ID           string     `json:"id"`
		ModuleID     string     `json:"module_id"`
		Title        string     `json:"title"`
		PassingScore int        `json:"passing_score"` // percentage
		Questions    []Question `json:"questions"`
		CreatedAt    time.Time  `json:"created_at"` // UTC
		UpdatedAt    time.Time  `json:"updated_at"` // UTC
	}

	Question struct {
		ID            string   `json:"id"`
		Prompt        string   `json:"prompt"`
		Options       []string `json:"options"`
		CorrectOption int      `json:"correct_option"`
		Explanation   string   `json:"explanation,omitempty"`
		Position      int      `json:"position"`
	}

	// PublicAssessment is what learners see before submitting: no answers.
	PublicAssessment struct {
		ID           string           `json:"id"`
		ModuleID     string           `json:"module_id"`
		Title        string           `json:"title"`
		PassingScore int              `json:"passing_score"`
		Questions    []PublicQuestion `json:"questions"`
	}

	PublicQuestion struct {
		ID       string   `json:"id"`
		Prompt   string   `json:"prompt"`
		Options  []string `json:"options"`
		Position int      `json:"position"`
	}

	Attempt struct {
		ID           string    `json:"id"`
		AssessmentID string    `json:"assessment_id"`
		LearnerID    string    `json:"learner_id"`
		Answers      []int     `json:"answers"`
		Score        Score     `json:"score"`
		Passed       bool      `json:"passed"`
		SubmittedAt  time.Time `json:"submitted_at"` // UTC
	}

	// Submission is a learner's answers, one selected option index per question, in order.
	Submission struct {
		Answers []int `json:"answers" validate:"required,dive,min=-1"`
	}

	Feedback struct {
		QuestionID    string `json:"question_id"`
		Prompt        string `json:"prompt"`
		Selected      int    `json:"selected"`
		CorrectOption int    `json:"correct_option"`
		Correct       bool   `json:"correct"`
		Explanation   string `json:"explanation,omitempty"`
	}

	Result struct {
		Attempt  Attempt    `json:"attempt"`
		Feedback []Feedback `json:"feedback"`
	}

	Stats struct {
		Assessments int `json:"assessments"`
		Attempts    int `json:"attempts"`
		Passed      int `json:"passed"`
	}
)

func (a Assessment) Public() PublicAssessment {
	pub := PublicAssessment{
		ID:           a.ID,
		ModuleID:     a.ModuleID,
		Title:        a.Title,
		PassingScore: a.PassingScore,
		Questions:    make([]PublicQuestion, 0, len(a.Questions)),
	}
	for _, q := range a.Questions {
		pub.Questions = append(pub.Questions, PublicQuestion{
			ID:       q.ID,
			Prompt:   q.Prompt,
			Options:  q.Options,
			Position: q.Position,
		})
	}
	return pub
}

// CorrectOptions returns the correct option index of every question, in order.
func (a Assessment) CorrectOptions() []int {
	correct := make([]int, 0, len(a.Questions))
	for _, q := range a.Questions {
		correct = append(correct, q.CorrectOption)
	}
	return correct
}

// Feedback pairs each question with the learner's answer.
func (a Assessment) Feedback(answers []int) []Feedback {
	fb := make([]Feedback, 0, len(a.Questions))
	for i, q := range a.Questions {
		selected := Unanswered
		if i < len(answers) {
			selected = answers[i]
		}
		fb = append(fb, Feedback{
			QuestionID:    q.ID,
			Prompt:        q.Prompt,
			Selected:      selected,
			CorrectOption: q.CorrectOption,
			Correct:       selected == q.CorrectOption,
			Explanation:   q.Explanation,
		})
	}
	return fb
}

func (sub *Submission) Validate(validate *validator.Validate, a Assessment) error {
	if err := validate.Struct(sub); err != nil {
		return err
	}
	if len(sub.Answers) != len(a.Questions) {
		return core.NewValidationError(
			errAnswerCount,
			core.FieldError{Field: "answers", Error: errAnswerCount.Error()},
		)
	}
	return nil
}

// Validate checks that every question has options and a correct option among them.
func (a Assessment) Validate() error {
	var flds []core.FieldError
	for i, q := range a.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		switch {
		case len(q.Options) < 2:
			flds = append(flds, core.FieldError{Field: field + ".options", Error: errNoOptions})
		case q.CorrectOption < 0 || q.CorrectOption >= len(q.Options):
			flds = append(flds, core.FieldError{Field: field + ".correct_option", Error: errBadCorrect})
		}
	}
	if flds != nil {
		return core.NewValidationError(errInvalidQuestions, flds...)
	}
	return nil
}
