// Package metrics exposes Prometheus counters for tutoring activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_tool_calls_total",
			Help: "Tool calls handled, by tool and outcome (ok, user_error, error).",
		},
		[]string{"tool", "outcome"},
	)

	QuizzesStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_quizzes_started_total",
			Help: "Quizzes started, by domain (\"all\" for the combined pool).",
		},
		[]string{"domain"},
	)

	QuizzesGraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_quizzes_graded_total",
			Help: "Quizzes graded, by score tier.",
		},
		[]string{"tier"},
	)

	AnswersGraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_answers_graded_total",
			Help: "Individual quiz answers graded, by correctness.",
		},
		[]string{"correct"},
	)

	TopicsCovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_topics_rendered_total",
			Help: "Topic renders, by domain and mode.",
		},
		[]string{"domain", "mode"},
	)

	ProgressSaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutor_progress_save_failures_total",
			Help: "Progress records that could not be persisted.",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
