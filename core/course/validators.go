package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/speakwell/academy/core"
)

var (
	lessonKindTag  = "lessonkind"
	lessonKindText = "must be one of text, audio, video or image"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(lessonKindTag, lessonKindValidation)
	core.RegisterCustomTranslation(validate, translator, lessonKindTag, lessonKindText)
}

// Custom Validators

func lessonKindValidation(fl validator.FieldLevel) bool {
	kind := fl.Field().String()
	for _, k := range LessonKinds {
		if kind == k {
			return true
		}
	}
	return false
}
