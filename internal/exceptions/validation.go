package exceptions

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validationMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"min":      "is too short",
	"oneof":    "is not an allowed value",
	"datetime": "is not a valid date and time",
}

// FieldProblem is one failed check on one draft field.
type FieldProblem struct {
	Field string
	Tag   string
}

// ValidationError reports local validation failures. It is returned before
// any request is issued.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msg, ok := validationMessages[p.Tag]
		if !ok {
			msg = "is invalid"
		}
		parts = append(parts, p.Field+" "+msg)
	}
	return strings.Join(parts, ", ")
}

// Fields lists the offending fields in report order.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = p.Field
	}
	return out
}

func (e *ValidationError) Add(field, tag string) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Tag: tag})
}

// AddValidator appends the failures of a validator.Var call for field.
func (e *ValidationError) AddValidator(field string, err error) {
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		e.Add(field, "invalid")
		return
	}
	for _, fe := range verrs {
		e.Add(field, fe.Tag())
	}
}

// OrNil returns nil when no problems were recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Problems) == 0 {
		return nil
	}
	return e
}
