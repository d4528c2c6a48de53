package course

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/markdown"
)

// Lesson kinds
const (
	KindText  = "text"
	KindAudio = "audio"
	KindVideo = "video"
	KindImage = "image"
)

var (
	LessonKinds = []string{KindText, KindAudio, KindVideo, KindImage}

	// orderings allowed on course queries: {query field: column}
	Orderings = map[string]string{
		"title":      "title",
		"level":      "level",
		"position":   "position",
		"created_at": "created_at",
	}
)

type (
	Course struct {
		ID          string    `json:"id"`
		Slug        string    `json:"slug" validate:"required,slug"`
		Title       string    `json:"title" validate:"required,max=120"`
		Description string    `json:"description"`
		Level       string    `json:"level" validate:"omitempty,cefr"`
		Published   bool      `json:"published"`
		Position    int       `json:"position"`
		Modules     []Module  `json:"modules,omitempty" validate:"dive"`
		CreatedAt   time.Time `json:"created_at"` // UTC
		UpdatedAt   time.Time `json:"updated_at"` // UTC
	}

	Module struct {
		ID       string   `json:"id"`
		CourseID string   `json:"course_id"`
		Title    string   `json:"title" validate:"required,max=120"`
		Position int      `json:"position"`
		Lessons  []Lesson `json:"lessons,omitempty" validate:"dive"`
	}

	Lesson struct {
		ID              string `json:"id"`
		ModuleID        string `json:"module_id"`
		CourseID        string `json:"course_id"`
		Title           string `json:"title" validate:"required,max=120"`
		Kind            string `json:"kind" validate:"required,lessonkind"`
		Body            string `json:"body"` // markdown; the caption of media lessons
		MediaURL        string `json:"media_url,omitempty" validate:"omitempty,url"`
		DurationSeconds int    `json:"duration_seconds" validate:"min=0"`
		Position        int    `json:"position"`
	}

	Progress struct {
		LearnerID   string    `json:"learner_id"`
		LessonID    string    `json:"lesson_id"`
		CourseID    string    `json:"course_id"`
		CompletedAt time.Time `json:"completed_at"` // UTC
	}

	// LessonContent is a lesson ready to be displayed.
	LessonContent struct {
		Lesson    Lesson           `json:"lesson"`
		Blocks    []markdown.Block `json:"blocks"`
		EndMarker string           `json:"end_marker"` // visibility target of the end of the lesson
		Completed bool             `json:"completed"`
	}

	CourseProgress struct {
		Course       Course `json:"course"`
		Completed    int    `json:"completed"`
		Total        int    `json:"total"`
		Percentage   int    `json:"percentage"`
		NextLessonID string `json:"next_lesson_id,omitempty"`
	}

	Stats struct {
		Courses          int           `json:"courses"`
		Published        int           `json:"published"`
		Modules          int           `json:"modules"`
		Lessons          int           `json:"lessons"`
		Duration         time.Duration `json:"duration"`
		CompletedLessons int           `json:"completed_lessons"`
	}

	QueryFilter struct {
		Search    string `query:"search"`
		Level     string `query:"level"`
		Published *bool  `query:"-"`
	}
)

// Lessons returns the lessons of every module, in order.
func (c Course) Lessons() []Lesson {
	var lessons []Lesson
	for _, m := range c.Modules {
		lessons = append(lessons, m.Lessons...)
	}
	return lessons
}

func (l Lesson) IsMedia() bool { return l.Kind != KindText }

func (c *Course) Validate(validate *validator.Validate) error {
	c.Slug = core.CleanString(c.Slug, true /* lower */)
	c.Title = core.CleanString(c.Title)
	c.Description = core.CleanString(c.Description)
	if err := validate.Struct(c); err != nil {
		return err
	}

	var flds []core.FieldError
	for i, m := range c.Modules {
		for j, l := range m.Lessons {
			if l.IsMedia() && l.MediaURL == "" {
				flds = append(flds, core.FieldError{
					Field: fmt.Sprintf("modules[%d].lessons[%d].media_url", i, j),
					Error: errMediaURLText,
				})
			}
		}
	}
	if flds != nil {
		return core.NewValidationError(errMissingMedia, flds...)
	}
	return nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Level = core.CleanString(qf.Level)
}
