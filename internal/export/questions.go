// Package export writes and reads question files and renders the
// self-contained student document.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"quiz-studio/internal/domain"
)

// QuestionsFileName is the default name of a saved question file.
const QuestionsFileName = "quiz_questions.json"

// WriteQuestions writes qs as an indented JSON array.
func WriteQuestions(w io.Writer, qs []domain.Question) error {
	if qs == nil {
		qs = []domain.Question{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(qs); err != nil {
		return fmt.Errorf("write questions: %w", err)
	}
	return nil
}

// ReadQuestions reads a JSON array of questions. Each element is
// sanitized; anything other than an array is ErrMalformedImport.
func ReadQuestions(r io.Reader) ([]domain.Question, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return ParseQuestions(data)
}

// ParseQuestions is ReadQuestions over a byte slice.
func ParseQuestions(data []byte) ([]domain.Question, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedImport, err)
	}
	if raws == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", domain.ErrMalformedImport)
	}
	qs := make([]domain.Question, 0, len(raws))
	for _, raw := range raws {
		qs = append(qs, domain.UnmarshalQuestion(raw))
	}
	return qs, nil
}
