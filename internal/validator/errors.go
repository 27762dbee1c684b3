package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a single rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Rule    string `json:"rule,omitempty"`
}

// ValidationErrors is returned when a save is refused.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s: %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Messages shown to the teacher, keyed by rule.
var messages = map[string]string{
	"required":       "يرجى إدخال إجابة صحيحة لسؤال 'املأ الفراغ'.",
	"required_model": "يرجى إدخال الإجابة النموذجية لسؤال 'الإجابة القصيرة'.",
	"min_options":    "يجب إدخال خيارين على الأقل (نصًا أو صورة) قبل الحفظ.",
	"correct_filled": "يجب اختيار إجابة صحيحة من ضمن الخيارات المعبأة.",
	"min_pairs":      "يجب إدخال زوجين على الأقل للمطابقة.",
	"min_items":      "يجب إدخال عنصرين على الأقل للترتيب.",
}

func toValidationErrors(err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	if msg, ok := messages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	}
	return fmt.Sprintf("failed on %s", fe.Tag())
}
