package account

import (
	"regexp"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/speakwell/academy/core"
)

var (
	langCodeTag   = "langcode"
	langCodeText  = "must be a two letter ISO 639-1 language code"
	langCodeRegex = regexp.MustCompile(`^[a-z]{2}$`)
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(langCodeTag, langCodeValidation)
	core.RegisterCustomTranslation(validate, translator, langCodeTag, langCodeText)
}

// Custom Validators

func langCodeValidation(fl validator.FieldLevel) bool {
	return langCodeRegex.MatchString(fl.Field().String())
}
