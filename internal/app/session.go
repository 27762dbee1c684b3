package app

import (
	"fmt"

	"quiz-studio/internal/domain"
)

// Session is the quiz-taking state machine. It is not safe for concurrent
// use; Controller serializes access to it.
type Session struct {
	state     domain.SessionState
	rng       RNG
	completed bool
}

// NewSession takes ownership of a copy of state and brings its per-question
// slots in line with the question list.
func NewSession(state domain.SessionState, rng RNG) *Session {
	if rng == nil {
		rng = NewRNG(0)
	}
	s := &Session{state: state.Clone(), rng: rng}
	s.reconcile()
	return s
}

// State returns a deep copy of the current state.
func (s *Session) State() domain.SessionState {
	return s.state.Clone()
}

func (s *Session) Len() int        { return len(s.state.Questions) }
func (s *Session) Index() int      { return s.state.CurrentQuestion }
func (s *Session) Score() int      { return s.state.Score }
func (s *Session) Completed() bool { return s.completed }

// Question returns the question at k.
func (s *Session) Question(k int) (domain.Question, error) {
	if k < 0 || k >= len(s.state.Questions) {
		return nil, fmt.Errorf("%w: %d", domain.ErrQuestionNotFound, k)
	}
	return s.state.Questions[k], nil
}

// Answered returns the recorded result of slot k, nil when unanswered.
func (s *Session) Answered(k int) *bool {
	if k < 0 || k >= len(s.state.AnsweredQuestions) {
		return nil
	}
	return s.state.AnsweredQuestions[k]
}

// Submit evaluates a for slot k. Slots are write-once: a recorded slot
// returns ErrAlreadyAnswered and nothing changes. Evaluation errors leave
// the state untouched as well.
func (s *Session) Submit(k int, a domain.Answer) (Result, error) {
	q, err := s.Question(k)
	if err != nil {
		return Result{}, err
	}
	if s.completed {
		return Result{}, domain.ErrQuizCompleted
	}
	if s.state.AnsweredQuestions[k] != nil {
		return Result{}, fmt.Errorf("%w: %d", domain.ErrAlreadyAnswered, k)
	}

	res, err := Evaluate(q, a)
	if err != nil {
		return Result{}, err
	}
	s.state.AnsweredQuestions[k] = domain.Bool(res.Correct)
	s.state.LastWrong[k] = res.Answer
	if res.Correct {
		s.state.Score++
	}
	return res, nil
}

// ExpireCurrent records the current slot as incorrect with no answer if it
// is still open. It reports whether anything was recorded.
func (s *Session) ExpireCurrent() bool {
	k := s.state.CurrentQuestion
	if s.completed || k < 0 || k >= len(s.state.Questions) || s.state.AnsweredQuestions[k] != nil {
		return false
	}
	s.state.AnsweredQuestions[k] = domain.Bool(false)
	s.state.LastWrong[k] = nil
	return true
}

// Advance moves to the next question, or completes the quiz from the last
// one. It reports whether the quiz is now completed.
func (s *Session) Advance() (bool, error) {
	if len(s.state.Questions) == 0 {
		return false, domain.ErrNoQuestions
	}
	if s.completed {
		return true, nil
	}
	if s.state.CurrentQuestion >= len(s.state.Questions)-1 {
		s.completed = true
		return true, nil
	}
	s.state.CurrentQuestion++
	s.state.TimeLeft = s.state.QuestionTime
	return false, nil
}

// Retreat moves to the previous question. It is a no-op on the first
// question and after completion; answered slots stay closed.
func (s *Session) Retreat() bool {
	if s.completed || s.state.CurrentQuestion <= 0 {
		return false
	}
	s.state.CurrentQuestion--
	s.state.TimeLeft = s.state.QuestionTime
	return true
}

// Goto views question k without touching answers.
func (s *Session) Goto(k int) error {
	if _, err := s.Question(k); err != nil {
		return err
	}
	s.state.CurrentQuestion = k
	s.state.TimeLeft = s.state.QuestionTime
	s.completed = false
	return nil
}

// Restart reopens every slot and returns to the first question. The
// question list is kept.
func (s *Session) Restart() {
	n := len(s.state.Questions)
	s.state.CurrentQuestion = 0
	s.state.Score = 0
	s.state.AnsweredQuestions = make([]*bool, n)
	s.state.LastWrong = make([]domain.Answer, n)
	s.state.ShuffledMaps = make([][]int, n)
	s.state.TimeLeft = s.state.QuestionTime
	s.state.IsPaused = false
	s.completed = false
}

// DisplayOrder returns the display permutation for question k. It is drawn
// once and cached in the slot, so repeated renders agree. Types without a
// shuffled list return nil.
func (s *Session) DisplayOrder(k int) ([]int, error) {
	q, err := s.Question(k)
	if err != nil {
		return nil, err
	}
	n, ok := shuffledLen(q)
	if !ok {
		return nil, nil
	}
	if cached := s.state.ShuffledMaps[k]; IsPermutation(cached, n) {
		return append([]int{}, cached...), nil
	}
	perm := Shuffle(n, s.rng)
	s.state.ShuffledMaps[k] = perm
	return append([]int{}, perm...), nil
}

// shuffledLen is the length of the list shown in random order for q.
func shuffledLen(q domain.Question) (int, bool) {
	switch q := q.(type) {
	case *domain.MultipleChoice:
		return len(q.Options), true
	case *domain.Matching:
		return len(q.Answers), true
	case *domain.ConnectingLines:
		return len(q.Answers), true
	case *domain.Ordering:
		return len(q.Items), true
	}
	return 0, false
}

// Insert splices q in at index at (append when at is out of range) with an
// empty slot, and views it. It returns the new index.
func (s *Session) Insert(at int, q domain.Question) int {
	if at < 0 || at > len(s.state.Questions) {
		at = len(s.state.Questions)
	}
	s.state.Questions = insertAt(s.state.Questions, at, q)
	s.state.AnsweredQuestions = insertAt(s.state.AnsweredQuestions, at, nil)
	s.state.LastWrong = insertAt(s.state.LastWrong, at, nil)
	s.state.ShuffledMaps = insertAt(s.state.ShuffledMaps, at, nil)
	s.state.CurrentQuestion = at
	s.state.TimeLeft = s.state.QuestionTime
	s.completed = false
	return at
}

// Remove deletes question i and its slot. The only remaining question
// cannot be removed.
func (s *Session) Remove(i int) error {
	if _, err := s.Question(i); err != nil {
		return err
	}
	if len(s.state.Questions) <= 1 {
		return domain.ErrLastQuestion
	}
	s.state.Questions = removeAt(s.state.Questions, i)
	s.state.AnsweredQuestions = removeAt(s.state.AnsweredQuestions, i)
	s.state.LastWrong = removeAt(s.state.LastWrong, i)
	s.state.ShuffledMaps = removeAt(s.state.ShuffledMaps, i)
	if s.state.CurrentQuestion >= len(s.state.Questions) {
		s.state.CurrentQuestion = len(s.state.Questions) - 1
	}
	s.recount()
	return nil
}

// Move relocates question from to index to, carrying its slot along.
func (s *Session) Move(from, to int) error {
	if _, err := s.Question(from); err != nil {
		return err
	}
	if _, err := s.Question(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	s.state.Questions = moveItem(s.state.Questions, from, to)
	s.state.AnsweredQuestions = moveItem(s.state.AnsweredQuestions, from, to)
	s.state.LastWrong = moveItem(s.state.LastWrong, from, to)
	s.state.ShuffledMaps = moveItem(s.state.ShuffledMaps, from, to)
	s.state.CurrentQuestion = to
	return nil
}

// Replace swaps in an edited question. A type change or a resized list
// invalidates the slot's answer and cached order.
func (s *Session) Replace(i int, q domain.Question) error {
	old, err := s.Question(i)
	if err != nil {
		return err
	}
	s.state.Questions[i] = q
	if old.Kind() != q.Kind() {
		s.state.AnsweredQuestions[i] = nil
		s.state.LastWrong[i] = nil
		s.state.ShuffledMaps[i] = nil
		s.recount()
		return nil
	}
	if n, ok := shuffledLen(q); ok && !IsPermutation(s.state.ShuffledMaps[i], n) {
		s.state.ShuffledMaps[i] = nil
	}
	return nil
}

// ReplaceAll installs a new question list and starts over.
func (s *Session) ReplaceAll(questions []domain.Question) {
	s.state.Questions = append([]domain.Question{}, questions...)
	s.Restart()
}

// Clear empties the session entirely.
func (s *Session) Clear() {
	s.ReplaceAll(nil)
}

// SetQuestionTime changes the per-question budget, in seconds.
func (s *Session) SetQuestionTime(seconds int) error {
	if seconds < domain.MinQuestionTime || seconds > domain.MaxQuestionTime {
		return fmt.Errorf("%w: question time %d outside %d..%d", domain.ErrInvalidSetting,
			seconds, domain.MinQuestionTime, domain.MaxQuestionTime)
	}
	s.state.QuestionTime = seconds
	if s.state.TimeLeft > seconds {
		s.state.TimeLeft = seconds
	}
	return nil
}

func (s *Session) SetNumeralType(n domain.NumeralSystem) error {
	if !n.Valid() {
		return fmt.Errorf("%w: numeral type %q", domain.ErrInvalidSetting, n)
	}
	s.state.NumeralType = n
	return nil
}

func (s *Session) SetOptionsLayout(l domain.OptionsLayout) error {
	if !l.Valid() {
		return fmt.Errorf("%w: options layout %q", domain.ErrInvalidSetting, l)
	}
	s.state.OptionsLayout = l
	return nil
}

// setTimeLeft and setPaused are driven by the controller's clock.
func (s *Session) setTimeLeft(seconds int) { s.state.TimeLeft = seconds }
func (s *Session) setPaused(p bool)        { s.state.IsPaused = p }

// reconcile pads or trims the parallel slots to the question list and
// keeps indices and settings in range.
func (s *Session) reconcile() {
	n := len(s.state.Questions)
	s.state.AnsweredQuestions = resize(s.state.AnsweredQuestions, n)
	s.state.LastWrong = resize(s.state.LastWrong, n)
	s.state.ShuffledMaps = resize(s.state.ShuffledMaps, n)
	if s.state.CurrentQuestion < 0 || s.state.CurrentQuestion >= n {
		s.state.CurrentQuestion = 0
	}
	if s.state.QuestionTime < domain.MinQuestionTime || s.state.QuestionTime > domain.MaxQuestionTime {
		s.state.QuestionTime = domain.DefaultQuestionTime
	}
	if s.state.TimeLeft <= 0 || s.state.TimeLeft > s.state.QuestionTime {
		s.state.TimeLeft = s.state.QuestionTime
	}
	if !s.state.NumeralType.Valid() {
		s.state.NumeralType = domain.NumeralsArabic
	}
	if !s.state.OptionsLayout.Valid() {
		s.state.OptionsLayout = domain.Layout2x2
	}
	s.recount()
}

// recount keeps the score equal to the number of correct slots.
func (s *Session) recount() {
	score := 0
	for _, a := range s.state.AnsweredQuestions {
		if a != nil && *a {
			score++
		}
	}
	s.state.Score = score
}

func resize[T any](in []T, n int) []T {
	out := make([]T, n)
	copy(out, in)
	return out
}

func insertAt[T any](in []T, at int, v T) []T {
	out := make([]T, 0, len(in)+1)
	out = append(out, in[:at]...)
	out = append(out, v)
	return append(out, in[at:]...)
}

func removeAt[T any](in []T, i int) []T {
	out := make([]T, 0, len(in)-1)
	out = append(out, in[:i]...)
	return append(out, in[i+1:]...)
}

func moveItem[T any](in []T, from, to int) []T {
	v := in[from]
	out := removeAt(in, from)
	return insertAt(out, to, v)
}
