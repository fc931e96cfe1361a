package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Fleet metrics
	TransportersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_transporters_total",
			Help: "Total number of transporters by status and shift state",
		},
		[]string{"status", "shift"},
	)

	TransporterWorkload = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_transporter_workload",
			Help: "Cumulative workload per transporter",
		},
		[]string{"transporter"},
	)

	// Request metrics
	RequestsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_requests_total",
			Help: "Total number of requests by status",
		},
		[]string{"status"},
	)

	RequestsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_requests_created_total",
			Help: "Total number of requests created",
		},
	)

	RequestsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_requests_completed_total",
			Help: "Total number of requests completed",
		},
	)

	RequestCompletionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_request_completion_seconds",
			Help:    "Simulated seconds from request creation to completion",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Planning metrics
	PlanningLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_planning_latency_seconds",
			Help:    "Wall-clock time taken to produce a plan, by strategy",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	PlansProduced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_plans_produced_total",
			Help: "Total number of plans produced, by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	PlanMakespanSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_plan_makespan_seconds",
			Help: "Estimated makespan of the most recently applied plan",
		},
	)

	// Shift metrics
	RestCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_rest_cycles_total",
			Help: "Total number of rest cycles entered by transporters",
		},
	)
)

func init() {
	prometheus.MustRegister(TransportersTotal)
	prometheus.MustRegister(TransporterWorkload)
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestsCreated)
	prometheus.MustRegister(RequestsCompleted)
	prometheus.MustRegister(RequestCompletionSeconds)
	prometheus.MustRegister(PlanningLatency)
	prometheus.MustRegister(PlansProduced)
	prometheus.MustRegister(PlanMakespanSeconds)
	prometheus.MustRegister(RestCyclesTotal)
}

// Handler returns the Prometheus HTTP handler, for mounting on an HTTP
// mux (dispatchctl serve mounts it at /metrics).
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
