// Package testutil holds fixtures shared by the test suites.
package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/account"
	"github.com/speakwell/academy/core/assessment"
	"github.com/speakwell/academy/core/course"
	logsvc "github.com/speakwell/academy/services/logger"
	"github.com/speakwell/academy/storage/database"
)

// NewValidator returns a validator with every custom tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	return validate, translator
}

// NewLogger returns a logger that reports nothing and prints nothing.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

// PrepareDB returns a migrated in-memory sqlite database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, "up"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// SampleCourse returns a course with 2 modules: 2 text lessons then an audio lesson.
func SampleCourse(slug string, published bool) course.Course {
	return course.Course{
		Slug:        slug,
		Title:       "Everyday English " + slug,
		Description: "Small talk for every day.",
		Level:       "A2",
		Published:   published,
		Modules: []course.Module{
			{
				Title: "Greetings",
				Lessons: []course.Lesson{
					{
						Title:           "Saying hello",
						Kind:            course.KindText,
						Body:            "## Hello\nSay **hello** to *everyone*.\n- Hi\n- Hey",
						DurationSeconds: 300,
					},
					{
						Title:           "Saying goodbye",
						Kind:            course.KindText,
						Body:            "## Goodbye\n> See you later!",
						DurationSeconds: 240,
					},
				},
			},
			{
				Title: "Listening",
				Lessons: []course.Lesson{
					{
						Title:           "At the cafe",
						Kind:            course.KindAudio,
						Body:            "Listen to the [dialogue](https://cdn.example.com/cafe.txt).",
						MediaURL:        "https://cdn.example.com/cafe.mp3",
						DurationSeconds: 90,
					},
				},
			},
		},
	}
}

func CreateCourse(t *testing.T, svc course.Service, slug string, published bool) course.Course {
	c, err := svc.Save(context.Background(), SampleCourse(slug, published))
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

// SampleAssessment returns a 3 question assessment; the correct options are 1, 0 and 2.
func SampleAssessment(moduleID string) assessment.Assessment {
	return assessment.Assessment{
		ModuleID:     moduleID,
		Title:        "Greetings check",
		PassingScore: 60,
		Questions: []assessment.Question{
			{Prompt: "Hello means?", Options: []string{"Goodbye", "Hi", "Thanks"}, CorrectOption: 1, Position: 1},
			{Prompt: "Reply to 'Thank you'", Options: []string{"You're welcome", "Sorry"}, CorrectOption: 0, Position: 2},
			{
				Prompt:        "Said when leaving?",
				Options:       []string{"Hello", "Good morning", "See you"},
				CorrectOption: 2,
				Explanation:   "'See you' closes a conversation.",
				Position:      3,
			},
		},
	}
}

func CreateAssessment(t *testing.T, svc assessment.Service, moduleID string) assessment.Assessment {
	a, err := svc.Save(context.Background(), SampleAssessment(moduleID))
	if err != nil {
		t.Fatalf("CreateAssessment() failed: %v", err)
	}
	return a
}

func CreateProfile(t *testing.T, repo account.Repository, id, name, email string, notify bool) account.Profile {
	now := time.Now().UTC()
	p := account.Profile{
		ID:                 id,
		DisplayName:        name,
		Email:              email,
		Level:              "A2",
		DailyGoalMinutes:   15,
		EmailNotifications: notify,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := repo.CreateProfile(context.Background(), p); err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return p
}
