// Package metrics exports quiz activity as Prometheus counters.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quiz-studio/internal/domain"
)

// Metrics implements app.Metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	answers        *prometheus.CounterVec
	expired        *prometheus.CounterVec
	completed      prometheus.Counter
	persistFailure *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		answers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_answers_total",
				Help: "Submitted answers",
			},
			[]string{"type", "correct"},
		),
		expired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_questions_expired_total",
				Help: "Questions whose timer ran out before an answer",
			},
			[]string{"type"},
		),
		completed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "quiz_completed_total",
				Help: "Quiz runs that reached the score board",
			},
		),
		persistFailure: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_persist_failures_total",
				Help: "Storage writes that failed and were skipped",
			},
			[]string{"op"},
		),
	}
}

func (m *Metrics) AnswerSubmitted(kind domain.QuestionType, correct bool) {
	m.answers.WithLabelValues(string(kind), strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) QuestionExpired(kind domain.QuestionType) {
	m.expired.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) QuizCompleted() { m.completed.Inc() }

func (m *Metrics) PersistFailed(op string) {
	m.persistFailure.WithLabelValues(op).Inc()
}

// Registry exposes the underlying registry, for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
