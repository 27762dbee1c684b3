package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Sanitize turns a loosely typed question object into a well-formed question
// of its declared type. It never fails: missing or malformed fields get
// type-appropriate defaults and fields outside the type's allow-list are
// dropped. Sanitize(ToMap(Sanitize(x))) equals Sanitize(x).
func Sanitize(raw map[string]any) Question {
	t := ParseQuestionType(asString(raw["type"]))
	stem := sanitizeStem(raw)

	switch t {
	case TypeFillInBlank:
		return &FillInBlank{Stem: stem, CorrectAnswer: asString(raw["correctAnswer"])}
	case TypeShortAnswer:
		return &ShortAnswer{Stem: stem, CorrectAnswer: asString(raw["correctAnswer"])}
	case TypeTrueFalse:
		answer, ok := raw["correctAnswer"].(bool)
		if !ok {
			answer = true
		}
		return &TrueFalse{Stem: stem, CorrectAnswer: answer}
	case TypeMatching:
		prompts, answers := pairItems(raw["prompts"], raw["answers"])
		return &Matching{Stem: stem, Prompts: prompts, Answers: answers}
	case TypeConnectingLines:
		prompts, answers := pairItems(raw["prompts"], raw["answers"])
		return &ConnectingLines{Stem: stem, Prompts: prompts, Answers: answers}
	case TypeOrdering:
		return &Ordering{Stem: stem, Items: asItems(raw["items"])}
	default:
		options := asItems(raw["options"])
		for len(options) < OptionSlots {
			options = append(options, ContentItem{})
		}
		correct, ok := asIndex(raw["correct"])
		if !ok || correct < 0 || correct >= OptionSlots {
			correct = 0
		}
		return &MultipleChoice{
			Stem:     stem,
			Options:  options,
			Correct:  correct,
			Feedback: asString(raw["feedback"]),
		}
	}
}

// Normalize re-sanitizes an already typed question.
func Normalize(q Question) Question {
	return Sanitize(ToMap(q))
}

// ChangeType narrows q into newType. Fields that newType does not allow are
// discarded; shared fields (reading, question) survive.
func ChangeType(q Question, newType QuestionType) Question {
	m := ToMap(q)
	if q != nil && q.Kind() == newType {
		return Sanitize(m)
	}
	m["type"] = string(newType)
	return Sanitize(m)
}

// AllowedFields returns the top-level keys a question type keeps.
func AllowedFields(t QuestionType) []string {
	common := []string{"type", "reading", "question"}
	switch t {
	case TypeFillInBlank, TypeShortAnswer, TypeTrueFalse:
		return append(common, "correctAnswer")
	case TypeMatching, TypeConnectingLines:
		return append(common, "prompts", "answers")
	case TypeOrdering:
		return append(common, "items")
	default:
		return append(common, "options", "correct", "feedback")
	}
}

func sanitizeStem(raw map[string]any) Stem {
	var stem Stem
	if r, ok := raw["reading"].(map[string]any); ok {
		stem.Reading = Reading{
			Text:  asString(r["text"]),
			Image: asMedia(r["image"]),
			Audio: asMedia(r["audio"]),
		}
	} else if s, ok := raw["reading"].(string); ok {
		stem.Reading.Text = s
	}
	switch q := raw["question"].(type) {
	case map[string]any:
		stem.Question = Prompt{Text: asString(q["text"]), Image: asMedia(q["image"])}
	case string:
		stem.Question.Text = q
	}
	return stem
}

// pairItems keeps prompts and answers the same length so positional
// correspondence holds.
func pairItems(rawPrompts, rawAnswers any) ([]ContentItem, []ContentItem) {
	prompts := asItems(rawPrompts)
	answers := asItems(rawAnswers)
	for len(prompts) < len(answers) {
		prompts = append(prompts, ContentItem{})
	}
	for len(answers) < len(prompts) {
		answers = append(answers, ContentItem{})
	}
	return prompts, answers
}

func asItems(v any) []ContentItem {
	list, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]ContentItem); ok {
			return append([]ContentItem{}, typed...)
		}
		return []ContentItem{}
	}
	out := make([]ContentItem, 0, len(list))
	for _, e := range list {
		out = append(out, asItem(e))
	}
	return out
}

func asItem(v any) ContentItem {
	switch e := v.(type) {
	case map[string]any:
		return ContentItem{Text: asString(e["text"]), Image: asMedia(e["image"])}
	case ContentItem:
		return e
	case nil:
		return ContentItem{}
	default:
		return ContentItem{Text: asString(e)}
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

func asMedia(v any) Media {
	s, ok := v.(string)
	if !ok {
		if m, ok := v.(Media); ok {
			return m
		}
		return ""
	}
	return Media(strings.TrimSpace(s))
}

func asIndex(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
