package domain

// NumeralSystem selects which digits are shown to the student.
type NumeralSystem string

const (
	NumeralsArabic  NumeralSystem = "arabic"  // Western Arabic 0-9
	NumeralsEastern NumeralSystem = "eastern" // Eastern Arabic ٠-٩
)

// Valid reports whether n is a known numeral system.
func (n NumeralSystem) Valid() bool {
	return n == NumeralsArabic || n == NumeralsEastern
}

// OptionsLayout is the multiple-choice grid shape.
type OptionsLayout string

const (
	Layout2x2 OptionsLayout = "2x2"
	Layout4x1 OptionsLayout = "4x1"
)

func (l OptionsLayout) Valid() bool {
	return l == Layout2x2 || l == Layout4x1
}

const (
	DefaultQuestionTime = 30
	MinQuestionTime     = 5
	MaxQuestionTime     = 180
)

// SessionState is the whole quiz-taking state. AnsweredQuestions, LastWrong
// and ShuffledMaps are parallel to Questions and always have its length.
type SessionState struct {
	Questions         []Question
	CurrentQuestion   int
	Score             int
	AnsweredQuestions []*bool
	LastWrong         []Answer
	ShuffledMaps      [][]int
	TimeLeft          int
	QuestionTime      int
	IsPaused          bool
	NumeralType       NumeralSystem
	OptionsLayout     OptionsLayout
}

// NewSessionState returns an empty state with default settings.
func NewSessionState() SessionState {
	return SessionState{
		Questions:         []Question{},
		AnsweredQuestions: []*bool{},
		LastWrong:         []Answer{},
		ShuffledMaps:      [][]int{},
		TimeLeft:          DefaultQuestionTime,
		QuestionTime:      DefaultQuestionTime,
		NumeralType:       NumeralsArabic,
		OptionsLayout:     Layout2x2,
	}
}

// Clone deep-copies the state.
func (s SessionState) Clone() SessionState {
	out := s
	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		out.Questions[i] = Clone(q)
	}
	out.AnsweredQuestions = make([]*bool, len(s.AnsweredQuestions))
	for i, a := range s.AnsweredQuestions {
		if a != nil {
			v := *a
			out.AnsweredQuestions[i] = &v
		}
	}
	out.LastWrong = make([]Answer, len(s.LastWrong))
	for i, a := range s.LastWrong {
		out.LastWrong[i] = CloneAnswer(a)
	}
	out.ShuffledMaps = make([][]int, len(s.ShuffledMaps))
	for i, m := range s.ShuffledMaps {
		if m != nil {
			out.ShuffledMaps[i] = append([]int{}, m...)
		}
	}
	return out
}

// QuizConfig is the teacher-facing presentation record, persisted apart
// from the session.
type QuizConfig struct {
	Title             string `json:"title"`
	Instructions      string `json:"instructions"`
	Logo              Media  `json:"logo"`
	LogoAlt           string `json:"logoAlt"`
	TeacherFooterHTML string `json:"teacherFooter"`
}

// DefaultQuizConfig mirrors the stock Arabic UI.
func DefaultQuizConfig() QuizConfig {
	return QuizConfig{
		Title:        "الاختبار التفاعلي",
		Instructions: "اختر الإجابة الصحيحة لكل سؤال",
	}
}

// Bool returns a pointer to b, for AnsweredQuestions entries.
func Bool(b bool) *bool { return &b }
