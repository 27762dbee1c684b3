package persist

import (
	"encoding/json"
	"fmt"

	"quiz-studio/internal/domain"
)

// sessionRecord is the stored JSON shape of the session.
type sessionRecord struct {
	Questions         []domain.Question `json:"questions"`
	CurrentQuestion   int               `json:"currentQuestion"`
	Score             int               `json:"score"`
	AnsweredQuestions []*bool           `json:"answeredQuestions"`
	LastWrong         []json.RawMessage `json:"lastWrong"`
	ShuffledMaps      [][]int           `json:"shuffledMaps"`
	TimeLeft          int               `json:"timeLeft"`
	QuestionTime      int               `json:"questionTime"`
	NumeralType       string            `json:"numeralType"`
	OptionsLayout     string            `json:"optionsLayout"`
}

// EncodeSession renders the state as its stored JSON. The pause flag is not
// stored; a restored session always starts running.
func EncodeSession(st domain.SessionState) ([]byte, error) {
	rec := sessionRecord{
		Questions:         st.Questions,
		CurrentQuestion:   st.CurrentQuestion,
		Score:             st.Score,
		AnsweredQuestions: st.AnsweredQuestions,
		LastWrong:         make([]json.RawMessage, len(st.LastWrong)),
		ShuffledMaps:      st.ShuffledMaps,
		TimeLeft:          st.TimeLeft,
		QuestionTime:      st.QuestionTime,
		NumeralType:       string(st.NumeralType),
		OptionsLayout:     string(st.OptionsLayout),
	}
	if rec.Questions == nil {
		rec.Questions = []domain.Question{}
	}
	for i, a := range st.LastWrong {
		rec.LastWrong[i] = domain.EncodeAnswer(a)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// DecodeSession reads a stored session field by field. Only a document
// that is not a JSON object is an error; every field that is missing or has
// the wrong shape falls back to its default.
func DecodeSession(data []byte) (domain.SessionState, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return domain.SessionState{}, fmt.Errorf("%w: %v", domain.ErrMalformedImport, err)
	}
	if fields == nil {
		return domain.SessionState{}, fmt.Errorf("%w: session is null", domain.ErrMalformedImport)
	}

	st := domain.NewSessionState()

	var questions domain.QuestionList
	if raw, ok := fields["questions"]; ok && json.Unmarshal(raw, &questions) == nil {
		st.Questions = questions
	}
	n := len(st.Questions)

	st.AnsweredQuestions = make([]*bool, n)
	var answered []json.RawMessage
	if raw, ok := fields["answeredQuestions"]; ok && json.Unmarshal(raw, &answered) == nil && len(answered) == n {
		for i, a := range answered {
			var v *bool
			if json.Unmarshal(a, &v) == nil {
				st.AnsweredQuestions[i] = v
			}
		}
	}

	st.LastWrong = make([]domain.Answer, n)
	var wrong []json.RawMessage
	if raw, ok := fields["lastWrong"]; ok && json.Unmarshal(raw, &wrong) == nil && len(wrong) == n {
		for i, a := range wrong {
			q := st.Questions[i]
			if answer := domain.DecodeAnswer(q.Kind(), a); domain.AnswerFits(q, answer) {
				st.LastWrong[i] = answer
			}
		}
	}

	st.ShuffledMaps = make([][]int, n)
	var maps []json.RawMessage
	if raw, ok := fields["shuffledMaps"]; ok && json.Unmarshal(raw, &maps) == nil && len(maps) == n {
		for i, m := range maps {
			var perm []int
			if json.Unmarshal(m, &perm) == nil && isPermutation(perm) {
				st.ShuffledMaps[i] = perm
			}
		}
	}

	st.CurrentQuestion = clamp(intField(fields, "currentQuestion", 0), 0, max(n-1, 0))
	st.QuestionTime = intField(fields, "questionTime", domain.DefaultQuestionTime)
	if st.QuestionTime < domain.MinQuestionTime || st.QuestionTime > domain.MaxQuestionTime {
		st.QuestionTime = domain.DefaultQuestionTime
	}
	st.TimeLeft = intField(fields, "timeLeft", st.QuestionTime)
	if st.TimeLeft <= 0 || st.TimeLeft > st.QuestionTime {
		st.TimeLeft = st.QuestionTime
	}

	if sys := domain.NumeralSystem(stringField(fields, "numeralType")); sys.Valid() {
		st.NumeralType = sys
	}
	if layout := domain.OptionsLayout(stringField(fields, "optionsLayout")); layout.Valid() {
		st.OptionsLayout = layout
	}

	for _, a := range st.AnsweredQuestions {
		if a != nil && *a {
			st.Score++
		}
	}
	return st, nil
}

// DecodeConfig reads a stored config over the defaults. Empty title and
// instructions keep the default text.
func DecodeConfig(data []byte) (domain.QuizConfig, error) {
	cfg := domain.DefaultQuizConfig()
	var stored struct {
		Title         string          `json:"title"`
		Instructions  string          `json:"instructions"`
		Logo          json.RawMessage `json:"logo"`
		LogoAlt       string          `json:"logoAlt"`
		TeacherFooter string          `json:"teacherFooter"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return cfg, fmt.Errorf("%w: %v", domain.ErrMalformedImport, err)
	}
	if stored.Title != "" {
		cfg.Title = stored.Title
	}
	if stored.Instructions != "" {
		cfg.Instructions = stored.Instructions
	}
	var logo domain.Media
	if len(stored.Logo) > 0 && json.Unmarshal(stored.Logo, &logo) == nil {
		cfg.Logo = logo
	}
	cfg.LogoAlt = stored.LogoAlt
	cfg.TeacherFooterHTML = stored.TeacherFooter
	return cfg, nil
}

func intField(fields map[string]json.RawMessage, name string, def int) int {
	raw, ok := fields[name]
	if !ok {
		return def
	}
	var v float64
	if json.Unmarshal(raw, &v) != nil || v != float64(int(v)) {
		return def
	}
	return int(v)
}

func stringField(fields map[string]json.RawMessage, name string) string {
	var v string
	if raw, ok := fields[name]; ok {
		_ = json.Unmarshal(raw, &v)
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isPermutation(p []int) bool {
	if p == nil {
		return false
	}
	seen := make([]bool, len(p))
	for _, v := range p {
		if v < 0 || v >= len(p) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
