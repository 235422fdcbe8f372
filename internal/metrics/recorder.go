package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/taskbench/internal/task"
)

// Recorder collects per-strategy task metrics on a private registry, so that
// several recorders (one per test, for instance) never collide.
type Recorder struct {
	registry *prometheus.Registry
	tasks    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	inFlight *prometheus.GaugeVec
}

// NewRecorder creates a recorder with its collectors registered, together
// with the Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskbench_tasks_total",
			Help: "Tasks that produced an outcome, by strategy and status.",
		}, []string{"strategy", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskbench_task_duration_seconds",
			Help:    "Time a single task spent running.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		}, []string{"strategy"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskbench_runs_total",
			Help: "Batches run, by strategy.",
		}, []string{"strategy"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "taskbench_tasks_in_flight",
			Help: "Tasks of the current batch that have not reported yet.",
		}, []string{"strategy"}),
	}
	r.registry.MustRegister(
		r.tasks, r.duration, r.runs, r.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// RunStarted records the start of a batch of size n.
func (r *Recorder) RunStarted(strategy string, n int) {
	r.runs.WithLabelValues(strategy).Inc()
	r.inFlight.WithLabelValues(strategy).Add(float64(n))
}

// ObserveOutcome records one delivered outcome.
func (r *Recorder) ObserveOutcome(strategy string, o task.Outcome) {
	status := "success"
	if o.Failed() {
		status = "failure"
	}
	r.tasks.WithLabelValues(strategy, status).Inc()
	r.duration.WithLabelValues(strategy).Observe(o.Duration.Seconds())
	r.inFlight.WithLabelValues(strategy).Dec()
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the recorder's metrics in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
