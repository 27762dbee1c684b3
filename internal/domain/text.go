package domain

import "strings"

var easternToWestern = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// MapText returns a copy of q with fn applied to every authored text field.
// Media fields are left untouched.
func MapText(q Question, fn func(string) string) Question {
	out := Clone(q)
	if out == nil {
		return nil
	}
	stem := out.Base()
	stem.Reading.Text = fn(stem.Reading.Text)
	stem.Question.Text = fn(stem.Question.Text)

	mapItems := func(items []ContentItem) {
		for i := range items {
			items[i].Text = fn(items[i].Text)
		}
	}
	switch v := out.(type) {
	case *MultipleChoice:
		mapItems(v.Options)
		v.Feedback = fn(v.Feedback)
	case *FillInBlank:
		v.CorrectAnswer = fn(v.CorrectAnswer)
	case *ShortAnswer:
		v.CorrectAnswer = fn(v.CorrectAnswer)
	case *Matching:
		mapItems(v.Prompts)
		mapItems(v.Answers)
	case *ConnectingLines:
		mapItems(v.Prompts)
		mapItems(v.Answers)
	case *Ordering:
		mapItems(v.Items)
	}
	return out
}

// CleanEasternNumerals rewrites Eastern Arabic digits as Western digits in
// every text field of every question. It reports how many questions changed.
func CleanEasternNumerals(questions []Question) ([]Question, int) {
	out := make([]Question, len(questions))
	changed := 0
	for i, q := range questions {
		cleaned := MapText(q, easternToWestern.Replace)
		if !Equal(cleaned, q) {
			changed++
		}
		out[i] = cleaned
	}
	return out, changed
}

// Equal compares two questions by their canonical JSON form.
func Equal(a, b Question) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	ja, errA := marshalQuestion(a)
	jb, errB := marshalQuestion(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}
