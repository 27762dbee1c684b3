package app

import (
	"encoding/json"
	"math"

	"quiz-studio/internal/certificate"
	"quiz-studio/internal/content"
	"quiz-studio/internal/domain"
)

// ItemView is one rendered option, item or prompt. Index is its authored
// position, which is what answers refer to.
type ItemView struct {
	Index int          `json:"index"`
	HTML  string       `json:"html"`
	Image domain.Media `json:"image,omitempty"`
}

// View is what a presentation layer needs to draw the current moment of
// the quiz. Counters are already localized to the session's numerals.
type View struct {
	Kind         domain.QuestionType  `json:"type,omitempty"`
	Index        int                  `json:"index"`
	Total        int                  `json:"total"`
	Number       string               `json:"number"`
	TotalText    string               `json:"totalText"`
	Score        int                  `json:"score"`
	ScoreText    string               `json:"scoreText"`
	TimeLeft     int                  `json:"timeLeft"`
	TimeText     string               `json:"timeText"`
	QuestionTime int                  `json:"questionTime"`
	Paused       bool                 `json:"paused"`
	Completed    bool                 `json:"completed"`
	NumeralType  domain.NumeralSystem `json:"numeralType"`
	Layout       domain.OptionsLayout `json:"layout"`

	Reading      string       `json:"reading,omitempty"`
	ReadingImage domain.Media `json:"readingImage,omitempty"`
	ReadingAudio domain.Media `json:"readingAudio,omitempty"`
	Prompt       string       `json:"prompt"`
	PromptImage  domain.Media `json:"promptImage,omitempty"`

	// Options are multiple-choice options, matching or connecting answers,
	// or ordering items, in their stable display order.
	Options []ItemView `json:"options,omitempty"`
	// Prompts are matching and connecting-lines prompts in authored order.
	Prompts []ItemView `json:"prompts,omitempty"`

	Answered   *bool           `json:"answered"`
	LastAnswer json.RawMessage `json:"lastAnswer"`
	// Solution and Feedback are only filled once the slot is answered.
	Solution json.RawMessage `json:"solution,omitempty"`
	Feedback string          `json:"feedback,omitempty"`

	Percent             int  `json:"percent"`
	CertificateEligible bool `json:"certificateEligible"`
}

// buildView projects the session. It may draw and cache a display order.
func buildView(s *Session) View {
	st := &s.state
	sys := st.NumeralType
	total := len(st.Questions)

	v := View{
		Index:        st.CurrentQuestion,
		Total:        total,
		Number:       content.FormatNumber(st.CurrentQuestion+1, sys),
		TotalText:    content.FormatNumber(total, sys),
		Score:        st.Score,
		ScoreText:    content.FormatNumber(st.Score, sys),
		TimeLeft:     st.TimeLeft,
		TimeText:     content.FormatNumber(st.TimeLeft, sys),
		QuestionTime: st.QuestionTime,
		Paused:       st.IsPaused,
		Completed:    s.completed,
		NumeralType:  sys,
		Layout:       st.OptionsLayout,
		LastAnswer:   json.RawMessage("null"),
		Percent:      percent(st.Score, total),
	}
	v.CertificateEligible = s.completed && certificate.Eligible(st.Score, total)
	if total == 0 {
		v.Number = content.FormatNumber(0, sys)
		return v
	}

	k := st.CurrentQuestion
	q := st.Questions[k]
	stem := q.Base()
	v.Kind = q.Kind()
	v.Reading = content.Format(stem.Reading.Text, sys)
	v.ReadingImage = stem.Reading.Image
	v.ReadingAudio = stem.Reading.Audio
	v.Prompt = content.Format(stem.Question.Text, sys)
	v.PromptImage = stem.Question.Image
	v.Answered = st.AnsweredQuestions[k]
	v.LastAnswer = domain.EncodeAnswer(st.LastWrong[k])

	order, _ := s.DisplayOrder(k)
	switch q := q.(type) {
	case *domain.MultipleChoice:
		v.Options = ordered(q.Options, order, sys)
	case *domain.Matching:
		v.Prompts = ordered(q.Prompts, nil, sys)
		v.Options = ordered(q.Answers, order, sys)
	case *domain.ConnectingLines:
		v.Prompts = ordered(q.Prompts, nil, sys)
		v.Options = ordered(q.Answers, order, sys)
	case *domain.Ordering:
		v.Options = ordered(q.Items, order, sys)
	}

	if v.Answered != nil {
		v.Solution = solution(q)
		if mc, ok := q.(*domain.MultipleChoice); ok {
			v.Feedback = content.Format(mc.Feedback, sys)
		}
	}
	return v
}

func ordered(items []domain.ContentItem, order []int, sys domain.NumeralSystem) []ItemView {
	if order == nil {
		order = make([]int, len(items))
		for i := range order {
			order[i] = i
		}
	}
	out := make([]ItemView, 0, len(order))
	for _, i := range order {
		if i < 0 || i >= len(items) {
			continue
		}
		out = append(out, ItemView{
			Index: i,
			HTML:  content.Format(items[i].Text, sys),
			Image: items[i].Image,
		})
	}
	return out
}

// solution is the key revealed after answering. Positional types need none.
func solution(q domain.Question) json.RawMessage {
	var key any
	switch q := q.(type) {
	case *domain.MultipleChoice:
		key = q.Correct
	case *domain.FillInBlank:
		key = q.CorrectAnswer
	case *domain.ShortAnswer:
		key = q.CorrectAnswer
	case *domain.TrueFalse:
		key = q.CorrectAnswer
	default:
		return nil
	}
	data, err := json.Marshal(key)
	if err != nil {
		return nil
	}
	return data
}

func percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
