package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics. Recording methods are no-ops on a
// nil *Registry so components can run without metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Pipeline metrics
	signalsProcessed   *prometheus.CounterVec
	stageDuration      *prometheus.HistogramVec
	stageDegradations  *prometheus.CounterVec
	sourceFailures     *prometheus.CounterVec
	adaptiveWeight     prometheus.Histogram
	decisionConfidence prometheus.Histogram
	signalsRouted      *prometheus.CounterVec
	trainingRuns       *prometheus.CounterVec
	jobsActive         *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.signalsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_signals_processed_total",
			Help: "Total number of alerts processed, by final decision",
		},
		[]string{"decision"},
	)
	r.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "augur_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)
	r.stageDegradations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_stage_degradations_total",
			Help: "Stage failures replaced by neutral values",
		},
		[]string{"stage"},
	)
	r.sourceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_sentiment_source_failures_total",
			Help: "Sentiment source failures, by source",
		},
		[]string{"source"},
	)
	r.adaptiveWeight = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "augur_adaptive_weight",
			Help:    "Distribution of computed adaptive weights",
			Buckets: []float64{0.2, 0.4, 0.6, 0.8, 1.0, 1.2, 1.4, 1.6, 1.8, 2.0},
		},
	)
	r.decisionConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "augur_decision_confidence",
			Help:    "Distribution of decision confidence",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		},
	)
	r.signalsRouted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_signals_routed_total",
			Help: "Total number of decisions routed to notifiers",
		},
		[]string{"notifier", "status"},
	)
	r.trainingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_training_runs_total",
			Help: "Total number of training runs",
		},
		[]string{"status"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "augur_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.signalsProcessed)
	reg.MustRegister(r.stageDuration)
	reg.MustRegister(r.stageDegradations)
	reg.MustRegister(r.sourceFailures)
	reg.MustRegister(r.adaptiveWeight)
	reg.MustRegister(r.decisionConfidence)
	reg.MustRegister(r.signalsRouted)
	reg.MustRegister(r.trainingRuns)
	reg.MustRegister(r.jobsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	if r == nil {
		return
	}
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	if r != nil {
		r.httpRequestsInFlight.Inc()
	}
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	if r != nil {
		r.httpRequestsInFlight.Dec()
	}
}

// RecordDecision records a processed alert with its decision, confidence
// and adaptive weight.
func (r *Registry) RecordDecision(decision string, confidence, weight float64) {
	if r == nil {
		return
	}
	r.signalsProcessed.WithLabelValues(decision).Inc()
	r.decisionConfidence.Observe(confidence)
	r.adaptiveWeight.Observe(weight)
}

// ObserveStage records how long a pipeline stage took.
func (r *Registry) ObserveStage(stage string, d time.Duration) {
	if r != nil {
		r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// RecordDegradation records a stage that fell back to neutral values.
func (r *Registry) RecordDegradation(stage string) {
	if r != nil {
		r.stageDegradations.WithLabelValues(stage).Inc()
	}
}

// RecordSourceFailure records a failed sentiment source.
func (r *Registry) RecordSourceFailure(source string) {
	if r != nil {
		r.sourceFailures.WithLabelValues(source).Inc()
	}
}

// RecordSignalRouted records a routed decision.
func (r *Registry) RecordSignalRouted(notifier, status string) {
	if r != nil {
		r.signalsRouted.WithLabelValues(notifier, status).Inc()
	}
}

// RecordTraining records a training run outcome.
func (r *Registry) RecordTraining(status string) {
	if r != nil {
		r.trainingRuns.WithLabelValues(status).Inc()
	}
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	if r != nil {
		r.jobsActive.WithLabelValues(jobType).Set(float64(count))
	}
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
