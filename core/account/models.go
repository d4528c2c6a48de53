package account

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/speakwell/academy/core"
)

type Profile struct {
	ID                 string    `json:"id"` // data service user id
	DisplayName        string    `json:"display_name"`
	Email              string    `json:"email"`
	NativeLanguage     string    `json:"native_language"`
	Level              string    `json:"level"`
	DailyGoalMinutes   int       `json:"daily_goal_minutes"`
	EmailNotifications bool      `json:"email_notifications"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

// Name is what the learner is called in messages.
func (p Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return "there"
}

// Identity is who the data service says the learner is.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// UpdateProfile defines what information may be provided to modify a Profile.
type UpdateProfile struct {
	DisplayName        *string `json:"display_name" validate:"omitempty,max=60"`
	NativeLanguage     *string `json:"native_language" validate:"omitempty,langcode"`
	Level              *string `json:"level" validate:"omitempty,cefr"`
	DailyGoalMinutes   *int    `json:"daily_goal_minutes" validate:"omitempty,min=5,max=240"`
	EmailNotifications *bool   `json:"email_notifications"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	if up.DisplayName != nil {
		name := core.CleanString(*up.DisplayName)
		up.DisplayName = &name
	}
	if up.NativeLanguage != nil {
		lang := core.CleanString(*up.NativeLanguage, true /* lower */)
		up.NativeLanguage = &lang
	}
	if up.Level != nil {
		lvl := core.CleanString(*up.Level)
		up.Level = &lvl
	}
	return validate.Struct(up)
}

// apply copies the set fields onto p.
func (up UpdateProfile) apply(p *Profile) {
	if up.DisplayName != nil {
		p.DisplayName = *up.DisplayName
	}
	if up.NativeLanguage != nil {
		p.NativeLanguage = *up.NativeLanguage
	}
	if up.Level != nil {
		p.Level = *up.Level
	}
	if up.DailyGoalMinutes != nil {
		p.DailyGoalMinutes = *up.DailyGoalMinutes
	}
	if up.EmailNotifications != nil {
		p.EmailNotifications = *up.EmailNotifications
	}
}
