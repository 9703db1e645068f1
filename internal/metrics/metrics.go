// Package metrics holds the Prometheus collectors for the server. They are
// registered on a private registry exposed by Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registry every collector below is registered on.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// RenderAttempts counts HTTP attempts against the render server by
	// format and outcome (ok, retry, permanent, exhausted).
	RenderAttempts = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "c4_render_attempts_total",
		Help: "Render server attempts by format and outcome",
	}, []string{"format", "outcome"})

	// RenderDuration tracks a full render including retries.
	RenderDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "c4_render_duration_seconds",
		Help:    "End-to-end render duration including backoff",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
	}, []string{"format"})

	// Mutations counts diagram mutations by operation and result.
	Mutations = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "c4_diagram_mutations_total",
		Help: "Diagram mutations by operation and result",
	}, []string{"op", "result"})

	// WorkflowRejections counts transitions refused by the state machine.
	WorkflowRejections = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "c4_workflow_rejected_transitions_total",
		Help: "Workflow transitions rejected by the state machine",
	}, []string{"from", "to"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Result labels a mutation outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
