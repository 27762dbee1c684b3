// Package validator holds the save-time rules of the question editor.
package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"quiz-studio/internal/domain"
)

// Validator checks questions before the editor commits them.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a validator with the per-type rules registered.
func New() *Validator {
	v := validator.New()
	registerQuestionRules(v)
	return &Validator{structValidator: v}
}

// Struct validates plain struct tags, with json names in errors.
func (v *Validator) Struct(s any) error {
	if err := v.structValidator.Struct(s); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// Question runs the editor rules for q's type. A nil error means q may be saved.
func (v *Validator) Question(q domain.Question) error {
	if q == nil {
		return ValidationErrors{{Field: "type", Rule: "required", Message: messages["required"]}}
	}
	if err := v.structValidator.Struct(q); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func registerQuestionRules(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterStructValidation(multipleChoiceRules, domain.MultipleChoice{})
	v.RegisterStructValidation(fillInBlankRules, domain.FillInBlank{})
	v.RegisterStructValidation(shortAnswerRules, domain.ShortAnswer{})
	v.RegisterStructValidation(matchingRules, domain.Matching{})
	v.RegisterStructValidation(connectingRules, domain.ConnectingLines{})
	v.RegisterStructValidation(orderingRules, domain.Ordering{})
}

// At least two options must carry text or an image, and the correct index
// must point at one of them.
func multipleChoiceRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.MultipleChoice)
	filled := 0
	correctFilled := false
	for i, opt := range q.Options {
		if !opt.Usable() {
			continue
		}
		filled++
		if i == q.Correct {
			correctFilled = true
		}
	}
	if filled < 2 {
		sl.ReportError(q.Options, "options", "Options", "min_options", "2")
	}
	if !correctFilled {
		sl.ReportError(q.Correct, "correct", "Correct", "correct_filled", "")
	}
}

func fillInBlankRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.FillInBlank)
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		sl.ReportError(q.CorrectAnswer, "correctAnswer", "CorrectAnswer", "required", "")
	}
}

func shortAnswerRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.ShortAnswer)
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		sl.ReportError(q.CorrectAnswer, "correctAnswer", "CorrectAnswer", "required_model", "")
	}
}

func matchingRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.Matching)
	if usablePairs(q.Prompts, q.Answers) < 2 {
		sl.ReportError(q.Prompts, "prompts", "Prompts", "min_pairs", "2")
	}
}

func connectingRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.ConnectingLines)
	if usablePairs(q.Prompts, q.Answers) < 2 {
		sl.ReportError(q.Prompts, "prompts", "Prompts", "min_pairs", "2")
	}
}

func orderingRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(domain.Ordering)
	n := 0
	for _, item := range q.Items {
		if item.Usable() {
			n++
		}
	}
	if n < 2 {
		sl.ReportError(q.Items, "items", "Items", "min_items", "2")
	}
}

func usablePairs(prompts, answers []domain.ContentItem) int {
	n := 0
	for i := range prompts {
		if i < len(answers) && prompts[i].Usable() && answers[i].Usable() {
			n++
		}
	}
	return n
}

// Compact drops the pairs and items that would not be shown, keeping
// prompts and answers aligned. Multiple-choice keeps its fixed slots.
func Compact(q domain.Question) domain.Question {
	out := domain.Clone(q)
	switch v := out.(type) {
	case *domain.Matching:
		v.Prompts, v.Answers = compactPairs(v.Prompts, v.Answers)
	case *domain.ConnectingLines:
		v.Prompts, v.Answers = compactPairs(v.Prompts, v.Answers)
	case *domain.Ordering:
		items := v.Items[:0]
		for _, item := range v.Items {
			if item.Usable() {
				items = append(items, item)
			}
		}
		v.Items = items
	case *domain.FillInBlank:
		v.CorrectAnswer = strings.TrimSpace(v.CorrectAnswer)
	case *domain.ShortAnswer:
		v.CorrectAnswer = strings.TrimSpace(v.CorrectAnswer)
	}
	return out
}

func compactPairs(prompts, answers []domain.ContentItem) ([]domain.ContentItem, []domain.ContentItem) {
	keptPrompts := make([]domain.ContentItem, 0, len(prompts))
	keptAnswers := make([]domain.ContentItem, 0, len(answers))
	for i := range prompts {
		if i < len(answers) && prompts[i].Usable() && answers[i].Usable() {
			keptPrompts = append(keptPrompts, prompts[i])
			keptAnswers = append(keptAnswers, answers[i])
		}
	}
	return keptPrompts, keptAnswers
}

// IsValidation reports whether err carries editor validation failures.
func IsValidation(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}
