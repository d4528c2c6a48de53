package core

import "strings"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a client error: Err says what was rejected and Fields says where.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// Error reads like "invalid questions: questions[0].options: too few; questions[2].correct_option: out of range".
func (err ValidationError) Error() string {
	var b strings.Builder
	if err.Err != nil {
		b.WriteString(err.Err.Error())
	}
	for i, fld := range err.Fields {
		switch {
		case i > 0:
			b.WriteString("; ")
		case b.Len() > 0:
			b.WriteString(": ")
		}
		b.WriteString(fld.Field + ": " + fld.Error)
	}
	return b.String()
}

func (err ValidationError) Unwrap() error {
	return err.Err
}

// FieldMap returns the field errors keyed by field, or nil when there are none.
// A field reported twice keeps its first error.
func (err ValidationError) FieldMap() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(err.Fields))
	for _, fld := range err.Fields {
		if _, ok := m[fld.Field]; !ok {
			m[fld.Field] = fld.Error
		}
	}
	return m
}
