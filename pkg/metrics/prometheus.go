package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes the service metrics on its own registry.
type Recorder struct {
	registry            *prometheus.Registry
	predictionsTotal    *prometheus.CounterVec
	predictionLatency   *prometheus.HistogramVec
	explanationsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates a recorder with process and Go runtime collectors attached.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		predictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pricing",
				Name:      "predictions_total",
				Help:      "Prediction requests by outcome",
			},
			[]string{"outcome"},
		),
		predictionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pricing",
				Name:      "prediction_duration_seconds",
				Help:      "End to end prediction latency including the explanation call",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		explanationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pricing",
				Name:      "explanations_total",
				Help:      "Explanation lookups by outcome (generated, cached, empty, rate_limited, unavailable, disabled)",
			},
			[]string{"outcome"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
	}
	r.registry.MustRegister(
		r.predictionsTotal,
		r.predictionLatency,
		r.explanationsTotal,
		r.httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObservePrediction records the outcome and latency of a single prediction.
func (r *Recorder) ObservePrediction(outcome string, elapsed time.Duration) {
	r.predictionsTotal.WithLabelValues(outcome).Inc()
	r.predictionLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveExplanation counts explanation outcomes.
func (r *Recorder) ObserveExplanation(outcome string) {
	r.explanationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records a served request. route must be the templated path to keep cardinality low.
func (r *Recorder) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpRequestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
