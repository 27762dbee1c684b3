package app_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"quiz-studio/internal/app"
	"quiz-studio/internal/domain"
	"quiz-studio/internal/validator"
)

type recordingPersister struct {
	mu       sync.Mutex
	sessions []domain.SessionState
	configs  []domain.QuizConfig
	purged   int
	progress int
	fail     error
}

func (p *recordingPersister) SaveSession(_ context.Context, st domain.SessionState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.sessions = append(p.sessions, st)
	return nil
}

func (p *recordingPersister) SaveConfig(_ context.Context, cfg domain.QuizConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.configs = append(p.configs, cfg)
	return nil
}

func (p *recordingPersister) Purge(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purged++
	return p.fail
}

func (p *recordingPersister) PurgeProgress(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress++
	return p.fail
}

func (p *recordingPersister) saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

type countingMetrics struct {
	answered, correct, expired, completed int
	failures                              []string
}

func (m *countingMetrics) AnswerSubmitted(_ domain.QuestionType, correct bool) {
	m.answered++
	if correct {
		m.correct++
	}
}
func (m *countingMetrics) QuestionExpired(domain.QuestionType) { m.expired++ }
func (m *countingMetrics) QuizCompleted()                      { m.completed++ }
func (m *countingMetrics) PersistFailed(op string)             { m.failures = append(m.failures, op) }

func newTestService(t *testing.T, p app.Persister, m app.Metrics, logs *bytes.Buffer) *app.QuizService {
	t.Helper()
	st := domain.NewSessionState()
	st.Questions = sampleQuestions()
	opts := app.Options{
		Clock:   newFakeClock(),
		RNG:     rand.New(rand.NewSource(5)),
		Metrics: m,
	}
	if logs != nil {
		opts.Logger = slog.New(slog.NewTextHandler(logs, nil))
	}
	svc := app.NewQuizService(st, domain.DefaultQuizConfig(), p, opts)
	t.Cleanup(svc.Stop)
	return svc
}

func TestSubmitPersistsAndCounts(t *testing.T) {
	ctx := context.Background()
	p := &recordingPersister{}
	m := &countingMetrics{}
	svc := newTestService(t, p, m, nil)
	svc.Start()

	res, view, err := svc.Submit(ctx, domain.ChoiceAnswer(2))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if !res.Correct || view.Score != 1 {
		t.Fatalf("expected correct answer and score 1, got %+v score %d", res, view.Score)
	}
	if p.saves() != 1 {
		t.Fatalf("expected one save, got %d", p.saves())
	}
	if m.answered != 1 || m.correct != 1 {
		t.Fatalf("unexpected metrics %+v", m)
	}

	if _, _, err := svc.Submit(ctx, domain.ChoiceAnswer(2)); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}
	if p.saves() != 1 {
		t.Fatalf("refused submit must not save")
	}
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	p := &recordingPersister{fail: errors.New("quota exceeded")}
	m := &countingMetrics{}
	svc := newTestService(t, p, m, &logs)

	_, view, err := svc.Submit(ctx, domain.ChoiceAnswer(2))
	if err != nil {
		t.Fatalf("persistence failure leaked into submit: %v", err)
	}
	if view.Score != 1 {
		t.Fatalf("session should continue in memory, score %d", view.Score)
	}
	if len(m.failures) != 1 || m.failures[0] != "save_session" {
		t.Fatalf("expected a save_session failure, got %v", m.failures)
	}
	if !strings.Contains(logs.String(), "quota exceeded") {
		t.Fatalf("expected failure to be logged, got %q", logs.String())
	}
}

func TestEditorKeepsSlotsInLockstep(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &recordingPersister{}, nil, nil)

	idx, _, err := svc.AddQuestion(ctx, 1, domain.TypeShortAnswer)
	if err != nil || idx != 1 {
		t.Fatalf("add: idx %d err %v", idx, err)
	}
	idx, _, err = svc.DuplicateQuestion(ctx, 0)
	if err != nil || idx != 1 {
		t.Fatalf("duplicate: idx %d err %v", idx, err)
	}
	if _, err := svc.DeleteQuestion(ctx, 3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.MoveQuestion(ctx, 0, 2); err != nil {
		t.Fatalf("move: %v", err)
	}

	st := svc.State()
	n := len(st.Questions)
	if n != 5 || len(st.AnsweredQuestions) != n || len(st.LastWrong) != n || len(st.ShuffledMaps) != n {
		t.Fatalf("slots out of lockstep: %d %d %d %d", n, len(st.AnsweredQuestions), len(st.LastWrong), len(st.ShuffledMaps))
	}
	if !domain.Equal(st.Questions[0], st.Questions[2]) {
		t.Fatalf("duplicate should equal its source")
	}
}

func TestDeleteOnlyQuestionRefused(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &recordingPersister{}, nil, nil)
	if _, err := svc.ImportQuestions(ctx, []domain.Question{domain.NewQuestion(domain.TypeTrueFalse)}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, err := svc.DeleteQuestion(ctx, 0); !errors.Is(err, domain.ErrLastQuestion) {
		t.Fatalf("expected ErrLastQuestion, got %v", err)
	}
}

func TestSetFieldAndChangeType(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &recordingPersister{}, nil, nil)

	if _, err := svc.SetField(ctx, 0, "options.1.text", "بغداد"); err != nil {
		t.Fatalf("set option: %v", err)
	}
	if _, err := svc.SetField(ctx, 0, "correct", 1.0); err != nil {
		t.Fatalf("set correct: %v", err)
	}
	if _, err := svc.SetField(ctx, 0, "question.text", "ما عاصمة العراق؟"); err != nil {
		t.Fatalf("set question: %v", err)
	}
	mc := svc.Questions()[0].(*domain.MultipleChoice)
	if mc.Options[1].Text != "بغداد" || mc.Correct != 1 || mc.Question.Text != "ما عاصمة العراق؟" {
		t.Fatalf("fields not applied: %+v", mc)
	}

	if _, err := svc.SetField(ctx, 0, "items", []any{"x"}); !errors.Is(err, domain.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}

	if _, err := svc.ChangeType(ctx, 0, domain.TypeFillInBlank); err != nil {
		t.Fatalf("change type: %v", err)
	}
	fill, ok := svc.Questions()[0].(*domain.FillInBlank)
	if !ok || fill.Question.Text != "ما عاصمة العراق؟" {
		t.Fatalf("expected fill-in-the-blank keeping the stem, got %#v", svc.Questions()[0])
	}
	if _, err := svc.SetField(ctx, 0, "type", "true_false"); err != nil {
		t.Fatalf("set type: %v", err)
	}
	if svc.Questions()[0].Kind() != domain.TypeTrueFalse {
		t.Fatalf("type not changed")
	}
}

func TestCommitQuestionValidates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &recordingPersister{}, nil, nil)
	before := svc.Questions()[3]

	bad := &domain.Matching{Prompts: items("a", ""), Answers: items("1", "2")}
	_, err := svc.CommitQuestion(ctx, 3, bad)
	if !validator.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !domain.Equal(before, svc.Questions()[3]) {
		t.Fatalf("refused save must not change the question")
	}

	good := &domain.Matching{Prompts: items("a", "", "c"), Answers: items("1", "2", "3")}
	if _, err := svc.CommitQuestion(ctx, 3, good); err != nil {
		t.Fatalf("commit: %v", err)
	}
	m := svc.Questions()[3].(*domain.Matching)
	if len(m.Prompts) != 2 || m.Answers[1].Text != "3" {
		t.Fatalf("expected compacted pairs, got %+v", m)
	}
}

func TestImportResetsProgress(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &recordingPersister{}, nil, nil)
	_, _, _ = svc.Submit(ctx, domain.ChoiceAnswer(2))

	if _, err := svc.ImportQuestions(ctx, nil); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	if svc.State().Score != 1 {
		t.Fatalf("refused import must not touch the session")
	}

	v, err := svc.ImportQuestions(ctx, []domain.Question{domain.NewQuestion(domain.TypeTrueFalse), domain.NewQuestion(domain.TypeOrdering)})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if v.Total != 2 || v.Score != 0 || v.Index != 0 {
		t.Fatalf("unexpected view after import: %+v", v)
	}
}

func TestResetQuestionsPurges(t *testing.T) {
	ctx := context.Background()
	p := &recordingPersister{}
	svc := newTestService(t, p, nil, nil)

	v := svc.ResetQuestions(ctx)
	if v.Total != 0 || p.purged != 1 {
		t.Fatalf("expected empty session and purge, got total %d purged %d", v.Total, p.purged)
	}

	v = svc.ResetProgress(ctx)
	if p.progress != 1 || v.Total != 0 {
		t.Fatalf("expected progress purge, got %d", p.progress)
	}
}

func TestSettingsAndConfig(t *testing.T) {
	ctx := context.Background()
	p := &recordingPersister{}
	svc := newTestService(t, p, nil, nil)

	if _, err := svc.SetQuestionTime(ctx, 200); !errors.Is(err, domain.ErrInvalidSetting) {
		t.Fatalf("expected invalid setting, got %v", err)
	}
	v, err := svc.SetNumeralType(ctx, domain.NumeralsEastern)
	if err != nil || v.Number != "١" {
		t.Fatalf("numerals: %v %q", err, v.Number)
	}

	cfg := domain.DefaultQuizConfig()
	cfg.Title = "اختبار ٣ // الوحدة الأولى"
	svc.UpdateConfig(ctx, cfg)
	if len(p.configs) != 1 {
		t.Fatalf("config not persisted")
	}
	title, _, _ := svc.Header()
	if title != "اختبار ٣<br>الوحدة الأولى" {
		t.Fatalf("unexpected title %q", title)
	}
}

func TestCleanEasternNumerals(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &recordingPersister{}, nil, nil)
	if _, err := svc.SetField(ctx, 1, "question.text", "٢ + ٢ = ٤"); err != nil {
		t.Fatalf("set: %v", err)
	}
	n, _, err := svc.CleanEasternNumerals(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one cleaned question, got %d %v", n, err)
	}
	if got := svc.Questions()[1].Base().Question.Text; got != "2 + 2 = 4" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestCertificateRequiresPassingCompletion(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &recordingPersister{}, nil, nil)

	if _, err := svc.Certificate("Sara", ""); !errors.Is(err, app.ErrNotEligible) {
		t.Fatalf("expected not eligible before completion, got %v", err)
	}

	answers := []domain.Answer{
		domain.ChoiceAnswer(2),
		domain.BoolAnswer(true),
		domain.Arrangement{0, 1, 2},
		domain.Arrangement{0, 1, 2},
	}
	for i, a := range answers {
		if _, _, err := svc.Submit(ctx, a); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if _, err := svc.Next(ctx); err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
	}
	cert, err := svc.Certificate("Sara", "Omar")
	if err != nil {
		t.Fatalf("certificate: %v", err)
	}
	if cert.Percent != 100 || cert.FileName != "شهادة_إنجاز_Sara.png" {
		t.Fatalf("unexpected certificate %+v", cert)
	}
}
