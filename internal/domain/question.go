package domain

import (
	"encoding/json"
	"strings"
)

// QuestionType is the discriminator of the question union.
type QuestionType string

const (
	TypeMultipleChoice  QuestionType = "multiple-choice"
	TypeFillInBlank     QuestionType = "fill-in-the-blank"
	TypeTrueFalse       QuestionType = "true-false"
	TypeShortAnswer     QuestionType = "short-answer"
	TypeMatching        QuestionType = "matching"
	TypeOrdering        QuestionType = "ordering"
	TypeConnectingLines QuestionType = "connecting-lines"
)

// OptionSlots is the fixed number of multiple-choice option slots.
const OptionSlots = 4

// QuestionTypes lists every supported type in editor order.
var QuestionTypes = []QuestionType{
	TypeMultipleChoice,
	TypeFillInBlank,
	TypeTrueFalse,
	TypeShortAnswer,
	TypeMatching,
	TypeOrdering,
	TypeConnectingLines,
}

// ParseQuestionType normalizes loose spellings ("Multiple_Choice", "true false")
// and falls back to multiple-choice for anything unknown.
func ParseQuestionType(raw string) QuestionType {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", "-", " ", "-").Replace(s)
	for _, t := range QuestionTypes {
		if string(t) == s {
			return t
		}
	}
	if s == "fill-blank" || s == "fill-in-blank" {
		return TypeFillInBlank
	}
	return TypeMultipleChoice
}

// Media holds an inline data URI. It encodes as JSON null when empty.
type Media string

func (m Media) MarshalJSON() ([]byte, error) {
	if m == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}

func (m *Media) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*m = ""
		return nil
	}
	*m = Media(*s)
	return nil
}

// ContentItem is a piece of authored content with an optional image.
type ContentItem struct {
	Text  string `json:"text"`
	Image Media  `json:"image"`
}

// Usable reports whether the item carries any visible content.
func (c ContentItem) Usable() bool {
	return strings.TrimSpace(c.Text) != "" || c.Image != ""
}

// Reading is the optional passage shown above a question.
type Reading struct {
	Text  string `json:"text"`
	Image Media  `json:"image"`
	Audio Media  `json:"audio"`
}

// Empty reports whether nothing would be shown for the reading.
func (r Reading) Empty() bool {
	return strings.TrimSpace(r.Text) == "" && r.Image == "" && r.Audio == ""
}

// Prompt is the question body itself.
type Prompt struct {
	Text  string `json:"text"`
	Image Media  `json:"image"`
}

// Stem carries the fields every question type shares.
type Stem struct {
	Reading  Reading `json:"reading"`
	Question Prompt  `json:"question"`
}

// Question is the sealed union of all question variants.
type Question interface {
	Kind() QuestionType
	Base() *Stem
	sealed()
}

// MultipleChoice has exactly OptionSlots options and one correct index.
type MultipleChoice struct {
	Stem
	Options  []ContentItem `json:"options"`
	Correct  int           `json:"correct"`
	Feedback string        `json:"feedback,omitempty"`
}

// FillInBlank accepts any of the pipe-delimited literal answers.
type FillInBlank struct {
	Stem
	CorrectAnswer string `json:"correctAnswer"`
}

// ShortAnswer is graded by word overlap against pipe-delimited model answers.
type ShortAnswer struct {
	Stem
	CorrectAnswer string `json:"correctAnswer"`
}

// TrueFalse has a boolean key.
type TrueFalse struct {
	Stem
	CorrectAnswer bool `json:"correctAnswer"`
}

// Matching pairs answers[i] with prompts[i]; the pairing is positional.
type Matching struct {
	Stem
	Prompts []ContentItem `json:"prompts"`
	Answers []ContentItem `json:"answers"`
}

// Ordering lists items in their correct order.
type Ordering struct {
	Stem
	Items []ContentItem `json:"items"`
}

// ConnectingLines is matched by drawing lines; correctness is positional like Matching.
type ConnectingLines struct {
	Stem
	Prompts []ContentItem `json:"prompts"`
	Answers []ContentItem `json:"answers"`
}

func (q *MultipleChoice) Kind() QuestionType  { return TypeMultipleChoice }
func (q *FillInBlank) Kind() QuestionType     { return TypeFillInBlank }
func (q *ShortAnswer) Kind() QuestionType     { return TypeShortAnswer }
func (q *TrueFalse) Kind() QuestionType       { return TypeTrueFalse }
func (q *Matching) Kind() QuestionType        { return TypeMatching }
func (q *Ordering) Kind() QuestionType        { return TypeOrdering }
func (q *ConnectingLines) Kind() QuestionType { return TypeConnectingLines }

func (q *MultipleChoice) Base() *Stem  { return &q.Stem }
func (q *FillInBlank) Base() *Stem     { return &q.Stem }
func (q *ShortAnswer) Base() *Stem     { return &q.Stem }
func (q *TrueFalse) Base() *Stem       { return &q.Stem }
func (q *Matching) Base() *Stem        { return &q.Stem }
func (q *Ordering) Base() *Stem        { return &q.Stem }
func (q *ConnectingLines) Base() *Stem { return &q.Stem }

func (*MultipleChoice) sealed()  {}
func (*FillInBlank) sealed()     {}
func (*ShortAnswer) sealed()     {}
func (*TrueFalse) sealed()       {}
func (*Matching) sealed()        {}
func (*Ordering) sealed()        {}
func (*ConnectingLines) sealed() {}

// The marshalers below prepend the type tag. The local alias drops the
// method set so json.Marshal does not recurse.

func (q *MultipleChoice) MarshalJSON() ([]byte, error) {
	type plain MultipleChoice
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		*plain
	}{q.Kind(), (*plain)(q)})
}

func (q *FillInBlank) MarshalJSON() ([]byte, error) {
	type plain FillInBlank
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		*plain
	}{q.Kind(), (*plain)(q)})
}

func (q *ShortAnswer) MarshalJSON() ([]byte, error) {
	type plain ShortAnswer
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		*plain
	}{q.Kind(), (*plain)(q)})
}

func (q *TrueFalse) MarshalJSON() ([]byte, error) {
	type plain TrueFalse
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		*plain
	}{q.Kind(), (*plain)(q)})
}

func (q *Matching) MarshalJSON() ([]byte, error) {
	type plain Matching
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		*plain
	}{q.Kind(), (*plain)(q)})
}

func (q *Ordering) MarshalJSON() ([]byte, error) {
	type plain Ordering
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		*plain
	}{q.Kind(), (*plain)(q)})
}

func (q *ConnectingLines) MarshalJSON() ([]byte, error) {
	type plain ConnectingLines
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		*plain
	}{q.Kind(), (*plain)(q)})
}

// UnmarshalQuestion decodes any JSON value into a well-formed question.
// Malformed input yields a blank multiple-choice question rather than an error.
func UnmarshalQuestion(data []byte) Question {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		raw = nil
	}
	return Sanitize(raw)
}

// QuestionList is a JSON-decodable slice of questions.
type QuestionList []Question

func (l *QuestionList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(QuestionList, 0, len(raws))
	for _, r := range raws {
		out = append(out, UnmarshalQuestion(r))
	}
	*l = out
	return nil
}

// NewQuestion returns a blank, sanitized question of the given type.
func NewQuestion(t QuestionType) Question {
	return Sanitize(map[string]any{"type": string(t)})
}

// Clone deep-copies a question.
func Clone(q Question) Question {
	if q == nil {
		return nil
	}
	return Sanitize(ToMap(q))
}

func marshalQuestion(q Question) ([]byte, error) {
	return json.Marshal(q)
}

// ToMap converts a question into its loosely typed form.
func ToMap(q Question) map[string]any {
	if q == nil {
		return map[string]any{}
	}
	data, err := marshalQuestion(q)
	if err != nil {
		return map[string]any{"type": string(q.Kind())}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"type": string(q.Kind())}
	}
	return m
}
