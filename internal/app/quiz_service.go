package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"quiz-studio/internal/certificate"
	"quiz-studio/internal/content"
	"quiz-studio/internal/domain"
	"quiz-studio/internal/validator"
)

// Persister stores the session and the quiz config. Failures are logged
// by the service and never surface to callers.
type Persister interface {
	SaveSession(ctx context.Context, state domain.SessionState) error
	SaveConfig(ctx context.Context, cfg domain.QuizConfig) error
	Purge(ctx context.Context) error
	PurgeProgress(ctx context.Context) error
}

// Metrics receives quiz activity counters.
type Metrics interface {
	AnswerSubmitted(kind domain.QuestionType, correct bool)
	QuestionExpired(kind domain.QuestionType)
	QuizCompleted()
	PersistFailed(op string)
}

type nopMetrics struct{}

func (nopMetrics) AnswerSubmitted(domain.QuestionType, bool) {}
func (nopMetrics) QuestionExpired(domain.QuestionType)       {}
func (nopMetrics) QuizCompleted()                            {}
func (nopMetrics) PersistFailed(string)                      {}

// ErrNotEligible is returned when a certificate is requested below the pass mark.
var ErrNotEligible = errors.New("score below certificate threshold")

// Options tune a QuizService; zero values pick defaults.
type Options struct {
	Clock       Clock
	Tick        time.Duration
	AutoAdvance time.Duration
	RNG         RNG
	Metrics     Metrics
	Logger      *slog.Logger
	SaveTimeout time.Duration
}

// QuizService contains the quiz use cases: taking the quiz, editing the
// question list and the settings. Every mutation is persisted best-effort.
type QuizService struct {
	ctrl        *Controller
	persister   Persister
	metrics     Metrics
	logger      *slog.Logger
	validate    *validator.Validator
	saveTimeout time.Duration

	mu     sync.RWMutex
	config domain.QuizConfig
}

func NewQuizService(state domain.SessionState, cfg domain.QuizConfig, persister Persister, opts Options) *QuizService {
	s := &QuizService{
		persister:   persister,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		validate:    validator.New(),
		saveTimeout: opts.SaveTimeout,
		config:      cfg,
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.saveTimeout <= 0 {
		s.saveTimeout = 5 * time.Second
	}

	ctrlOpts := []ControllerOption{
		WithTick(opts.Tick),
		WithAutoAdvance(opts.AutoAdvance),
		WithOnChange(s.persistSession),
		WithOnEvent(s.record),
	}
	if opts.Clock != nil {
		ctrlOpts = append(ctrlOpts, WithClock(opts.Clock))
	}
	s.ctrl = NewController(NewSession(state, opts.RNG), ctrlOpts...)
	return s
}

// Start begins the countdown from the restored state.
func (s *QuizService) Start() View { return s.ctrl.Start() }

// Stop cancels the countdown.
func (s *QuizService) Stop() { s.ctrl.Stop() }

// Controller exposes the underlying controller, mainly for tests.
func (s *QuizService) Controller() *Controller { return s.ctrl }

func (s *QuizService) View() View                  { return s.ctrl.View() }
func (s *QuizService) State() domain.SessionState { return s.ctrl.State() }

// Questions returns a copy of the question list.
func (s *QuizService) Questions() []domain.Question {
	return s.ctrl.State().Questions
}

func (s *QuizService) Config() domain.QuizConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Header renders the title, instructions and footer for display.
func (s *QuizService) Header() (title, instructions, footer string) {
	cfg := s.Config()
	sys := s.ctrl.State().NumeralType
	return content.FormatHeader(cfg.Title, sys),
		content.FormatSubheader(cfg.Instructions, sys),
		content.LocalizeDigits(content.Sanitize(cfg.TeacherFooterHTML), sys)
}

// Subscribe returns a channel that receives a View after every change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context) (<-chan View, func()) {
	return s.ctrl.Subscribe()
}

// Submit answers the current question.
func (s *QuizService) Submit(_ context.Context, a domain.Answer) (Result, View, error) {
	return s.ctrl.Submit(a)
}

func (s *QuizService) Next(_ context.Context) (View, error) { return s.ctrl.Next() }
func (s *QuizService) Prev(_ context.Context) View          { return s.ctrl.Prev() }
func (s *QuizService) TogglePause(_ context.Context) View   { return s.ctrl.TogglePause() }
func (s *QuizService) Restart(_ context.Context) View       { return s.ctrl.Restart() }

// AddQuestion inserts a blank question of seed type at index at, or appends
// when at is negative.
func (s *QuizService) AddQuestion(_ context.Context, at int, seed domain.QuestionType) (int, View, error) {
	var idx int
	v, err := s.ctrl.Edit(func(sess *Session) error {
		idx = sess.Insert(at, domain.NewQuestion(seed))
		return nil
	})
	return idx, v, err
}

// DuplicateQuestion inserts a deep copy of question i right after it.
func (s *QuizService) DuplicateQuestion(_ context.Context, i int) (int, View, error) {
	var idx int
	v, err := s.ctrl.Edit(func(sess *Session) error {
		q, err := sess.Question(i)
		if err != nil {
			return err
		}
		idx = sess.Insert(i+1, domain.Clone(q))
		return nil
	})
	return idx, v, err
}

// DeleteQuestion removes question i; the last remaining question stays.
func (s *QuizService) DeleteQuestion(_ context.Context, i int) (View, error) {
	return s.ctrl.Edit(func(sess *Session) error { return sess.Remove(i) })
}

// MoveQuestion reorders the list, carrying answers along.
func (s *QuizService) MoveQuestion(_ context.Context, from, to int) (View, error) {
	return s.ctrl.Edit(func(sess *Session) error { return sess.Move(from, to) })
}

// ChangeType narrows question i into t, discarding fields t does not allow.
func (s *QuizService) ChangeType(_ context.Context, i int, t domain.QuestionType) (View, error) {
	return s.ctrl.Edit(func(sess *Session) error {
		q, err := sess.Question(i)
		if err != nil {
			return err
		}
		return sess.Replace(i, domain.ChangeType(q, t))
	})
}

// SetField writes value at a dotted path ("question.text", "options.2.image",
// "correct") of question i. The first segment must be allowed for the
// question's type; "type" changes the type.
func (s *QuizService) SetField(_ context.Context, i int, path string, value any) (View, error) {
	return s.ctrl.Edit(func(sess *Session) error {
		q, err := sess.Question(i)
		if err != nil {
			return err
		}
		if path == "type" {
			t, ok := value.(string)
			if !ok {
				return fmt.Errorf("%w: type must be a string", domain.ErrInvalidAnswer)
			}
			return sess.Replace(i, domain.ChangeType(q, domain.ParseQuestionType(t)))
		}
		m := domain.ToMap(q)
		if err := setPath(m, q.Kind(), path, value); err != nil {
			return err
		}
		return sess.Replace(i, domain.Sanitize(m))
	})
}

// CommitQuestion validates an edited question and stores it at index i.
// A refused save returns validator.ValidationErrors and changes nothing.
func (s *QuizService) CommitQuestion(_ context.Context, i int, q domain.Question) (View, error) {
	q = domain.Normalize(q)
	if err := s.validate.Question(q); err != nil {
		return s.ctrl.View(), err
	}
	return s.ctrl.Edit(func(sess *Session) error {
		return sess.Replace(i, validator.Compact(q))
	})
}

// ImportQuestions replaces the list with qs and resets progress. An empty
// list is refused.
func (s *QuizService) ImportQuestions(_ context.Context, qs []domain.Question) (View, error) {
	if len(qs) == 0 {
		return s.ctrl.View(), domain.ErrNoQuestions
	}
	clean := make([]domain.Question, len(qs))
	for i, q := range qs {
		clean[i] = domain.Normalize(q)
	}
	v, err := s.ctrl.Edit(func(sess *Session) error {
		sess.ReplaceAll(clean)
		return nil
	})
	if err == nil {
		s.logger.Info("questions imported", "count", len(clean))
	}
	return v, err
}

// ResetQuestions empties the session and purges both stored records.
func (s *QuizService) ResetQuestions(ctx context.Context) View {
	v, _ := s.ctrl.Edit(func(sess *Session) error {
		sess.Clear()
		return nil
	})
	s.ctrl.Stop()
	if err := s.persister.Purge(ctx); err != nil {
		s.persistFailed("purge", err)
	}
	return v
}

// ResetProgress restarts the quiz and drops the stored progress.
func (s *QuizService) ResetProgress(ctx context.Context) View {
	if err := s.persister.PurgeProgress(ctx); err != nil {
		s.persistFailed("purge_progress", err)
	}
	return s.ctrl.Restart()
}

// CleanEasternNumerals rewrites Eastern digits in all questions as Western
// digits and reports how many questions changed.
func (s *QuizService) CleanEasternNumerals(_ context.Context) (int, View, error) {
	var changed int
	v, err := s.ctrl.Update(func(sess *Session) error {
		cleaned, n := domain.CleanEasternNumerals(sess.state.Questions)
		changed = n
		for i, q := range cleaned {
			if err := sess.Replace(i, q); err != nil {
				return err
			}
		}
		return nil
	})
	return changed, v, err
}

func (s *QuizService) SetNumeralType(_ context.Context, n domain.NumeralSystem) (View, error) {
	return s.ctrl.Update(func(sess *Session) error { return sess.SetNumeralType(n) })
}

// SetQuestionTime changes the budget, in seconds, for the next question entered.
func (s *QuizService) SetQuestionTime(_ context.Context, seconds int) (View, error) {
	return s.ctrl.Update(func(sess *Session) error { return sess.SetQuestionTime(seconds) })
}

func (s *QuizService) SetOptionsLayout(_ context.Context, l domain.OptionsLayout) (View, error) {
	return s.ctrl.Update(func(sess *Session) error { return sess.SetOptionsLayout(l) })
}

// UpdateConfig replaces the presentation record and persists it.
func (s *QuizService) UpdateConfig(ctx context.Context, cfg domain.QuizConfig) domain.QuizConfig {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.saveTimeout)
	defer cancel()
	if err := s.persister.SaveConfig(ctx, cfg); err != nil {
		s.persistFailed("save_config", err)
	}
	return cfg
}

// Certificate prepares the certificate for a finished, passing quiz.
func (s *QuizService) Certificate(student, teacher string) (certificate.Certificate, error) {
	v := s.ctrl.View()
	if !v.Completed {
		return certificate.Certificate{}, fmt.Errorf("%w: quiz not completed", ErrNotEligible)
	}
	if !certificate.Eligible(v.Score, v.Total) {
		return certificate.Certificate{}, ErrNotEligible
	}
	title, _, _ := s.Header()
	return certificate.New(student, teacher, v.Score, v.Total, v.NumeralType, title, s.Config())
}

func (s *QuizService) persistSession(state domain.SessionState) {
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()
	if err := s.persister.SaveSession(ctx, state); err != nil {
		s.persistFailed("save_session", err)
	}
}

func (s *QuizService) persistFailed(op string, err error) {
	s.metrics.PersistFailed(op)
	s.logger.Warn("persistence failed, continuing in memory", "op", op, "err", err)
}

func (s *QuizService) record(e Event) {
	switch e.Kind {
	case EventAnswered:
		s.metrics.AnswerSubmitted(e.Question, e.Correct)
		s.logger.Debug("answer recorded", "index", e.Index, "type", e.Question, "correct", e.Correct)
	case EventExpired:
		s.metrics.QuestionExpired(e.Question)
		s.logger.Debug("question expired", "index", e.Index)
	case EventCompleted:
		s.metrics.QuizCompleted()
		s.logger.Info("quiz completed")
	case EventRestarted:
		s.logger.Debug("quiz restarted")
	}
}

// setPath assigns value inside the loose question map. Missing list
// entries are created.
func setPath(m map[string]any, kind domain.QuestionType, path string, value any) error {
	parts := strings.Split(path, ".")
	if !allowed(kind, parts[0]) {
		return fmt.Errorf("%w: %s on %s", domain.ErrUnknownField, parts[0], kind)
	}

	var cur any = m
	for i, part := range parts {
		last := i == len(parts)-1
		switch node := cur.(type) {
		case map[string]any:
			if last {
				node[part] = value
				return nil
			}
			next, ok := node[part]
			if !ok || next == nil {
				next = containerFor(parts[i+1])
				node[part] = next
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx > 64 {
				return fmt.Errorf("%w: bad index %q in %s", domain.ErrUnknownField, part, path)
			}
			for len(node) <= idx {
				node = append(node, nil)
			}
			// The grown slice must be stored back into its parent.
			if err := replaceList(m, parts[:i], node); err != nil {
				return err
			}
			if last {
				node[idx] = value
				return nil
			}
			if node[idx] == nil {
				node[idx] = containerFor(parts[i+1])
			}
			cur = node[idx]
		default:
			return fmt.Errorf("%w: %s", domain.ErrUnknownField, path)
		}
	}
	return nil
}

func allowed(kind domain.QuestionType, key string) bool {
	for _, f := range domain.AllowedFields(kind) {
		if f == key {
			return true
		}
	}
	return false
}

func containerFor(nextPart string) any {
	if _, err := strconv.Atoi(nextPart); err == nil {
		return []any{}
	}
	return map[string]any{}
}

func replaceList(root map[string]any, parents []string, list []any) error {
	var cur any = root
	for i, part := range parents {
		last := i == len(parents)-1
		switch node := cur.(type) {
		case map[string]any:
			if last {
				node[part] = list
				return nil
			}
			cur = node[part]
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return fmt.Errorf("%w: %s", domain.ErrUnknownField, strings.Join(parents, "."))
			}
			if last {
				node[idx] = list
				return nil
			}
			cur = node[idx]
		}
	}
	return nil
}
