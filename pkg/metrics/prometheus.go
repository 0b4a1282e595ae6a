package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the evaluation pipeline.
type Metrics struct {
	EvaluationsTotal   prometheus.Counter
	EvaluationDuration prometheus.Histogram
	OverallScore       prometheus.Histogram

	BuildsTotal   *prometheus.CounterVec
	BuildDuration prometheus.Histogram

	IterationsTotal         prometheus.Counter
	GeneratorRequestsTotal  *prometheus.CounterVec
	GeneratorPromptTokens   *prometheus.CounterVec
	GeneratorRequestSeconds *prometheus.HistogramVec
}

// New registers the instruments with the given registerer. Tests pass a
// fresh registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EvaluationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lkmbench_evaluations_total",
			Help: "Total number of source evaluations",
		}),
		EvaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lkmbench_evaluation_duration_seconds",
			Help:    "Wall-clock duration of one evaluation",
			Buckets: prometheus.DefBuckets,
		}),
		OverallScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lkmbench_overall_score",
			Help:    "Distribution of overall scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		BuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lkmbench_builds_total",
			Help: "Module build attempts by result",
		}, []string{"result"}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "lkmbench_build_duration_seconds",
			Help:    "Module build duration",
			Buckets: prometheus.DefBuckets,
		}),
		IterationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "lkmbench_training_iterations_total",
			Help: "Total training-loop iterations executed",
		}),
		GeneratorRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lkmbench_generator_requests_total",
			Help: "Code generation requests by model and status",
		}, []string{"model", "status"}),
		GeneratorPromptTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lkmbench_generator_prompt_tokens_total",
			Help: "Prompt tokens sent to the generator",
		}, []string{"model"}),
		GeneratorRequestSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lkmbench_generator_request_seconds",
			Help:    "Generator request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"model"}),
	}
}
