package domain

import "encoding/json"

// Answer is the normalized form of a submission that is stored for
// redisplay. Its shape depends on the question type.
type Answer interface {
	isAnswer()
}

// ChoiceAnswer is the original index of the picked multiple-choice option.
type ChoiceAnswer int

// TextAnswer is the raw typed answer, kept unmodified for redisplay.
type TextAnswer string

// BoolAnswer is a true/false pick.
type BoolAnswer bool

// Arrangement lists original indices. For matching, arr[prompt] is the answer
// placed in that prompt's slot (-1 for an empty slot). For ordering, it is the
// user's order of the items.
type Arrangement []int

// Connection is one line drawn from a prompt to an answer.
type Connection struct {
	PromptIndex int `json:"promptIndex"`
	AnswerIndex int `json:"answerIndex"`
}

// Connections is the full set of lines drawn for a connecting-lines question.
type Connections []Connection

func (ChoiceAnswer) isAnswer() {}
func (TextAnswer) isAnswer()   {}
func (BoolAnswer) isAnswer()   {}
func (Arrangement) isAnswer()  {}
func (Connections) isAnswer()  {}

// DecodeAnswer reads a stored answer for a question of the given type.
// Anything that does not fit the expected shape decodes to nil.
func DecodeAnswer(t QuestionType, raw json.RawMessage) Answer {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	switch t {
	case TypeMultipleChoice:
		var v float64
		if json.Unmarshal(raw, &v) != nil {
			return nil
		}
		i, ok := asIndex(v)
		if !ok {
			return nil
		}
		return ChoiceAnswer(i)
	case TypeFillInBlank, TypeShortAnswer:
		var v string
		if json.Unmarshal(raw, &v) != nil {
			return nil
		}
		return TextAnswer(v)
	case TypeTrueFalse:
		var v bool
		if json.Unmarshal(raw, &v) != nil {
			return nil
		}
		return BoolAnswer(v)
	case TypeMatching, TypeOrdering:
		var v []*int
		if json.Unmarshal(raw, &v) != nil {
			return nil
		}
		out := make(Arrangement, len(v))
		for i, p := range v {
			if p == nil {
				out[i] = -1
				continue
			}
			out[i] = *p
		}
		return out
	case TypeConnectingLines:
		var v Connections
		if json.Unmarshal(raw, &v) != nil {
			return nil
		}
		return v
	}
	return nil
}

// AnswerFits reports whether a is a possible recorded answer for q: the
// right kind, with every index inside q's lists. A nil answer always fits.
func AnswerFits(q Question, a Answer) bool {
	if a == nil {
		return true
	}
	if q == nil {
		return false
	}
	switch q := q.(type) {
	case *MultipleChoice:
		v, ok := a.(ChoiceAnswer)
		return ok && int(v) >= 0 && int(v) < len(q.Options)
	case *FillInBlank, *ShortAnswer:
		_, ok := a.(TextAnswer)
		return ok
	case *TrueFalse:
		_, ok := a.(BoolAnswer)
		return ok
	case *Matching:
		v, ok := a.(Arrangement)
		return ok && arrangementFits(v, len(q.Prompts), len(q.Answers))
	case *Ordering:
		v, ok := a.(Arrangement)
		return ok && arrangementFits(v, len(q.Items), len(q.Items))
	case *ConnectingLines:
		v, ok := a.(Connections)
		if !ok || len(v) > len(q.Prompts) {
			return false
		}
		for _, c := range v {
			if c.PromptIndex < 0 || c.PromptIndex >= len(q.Prompts) ||
				c.AnswerIndex < 0 || c.AnswerIndex >= len(q.Answers) {
				return false
			}
		}
		return true
	}
	return false
}

// arrangementFits checks length and range; -1 marks an empty slot.
func arrangementFits(arr Arrangement, slots, choices int) bool {
	if len(arr) != slots {
		return false
	}
	for _, v := range arr {
		if v < -1 || v >= choices {
			return false
		}
	}
	return true
}

// EncodeAnswer marshals an answer; nil encodes as JSON null.
func EncodeAnswer(a Answer) json.RawMessage {
	if a == nil {
		return json.RawMessage("null")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}

// CloneAnswer copies slice-backed answers so callers cannot alias session state.
func CloneAnswer(a Answer) Answer {
	switch v := a.(type) {
	case Arrangement:
		return append(Arrangement{}, v...)
	case Connections:
		return append(Connections{}, v...)
	default:
		return a
	}
}
