package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Generations
	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemagen_generations_total",
			Help: "Total number of generations served, by output format",
		},
		[]string{"format"},
	)
	GenerationOptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemagen_generation_options_total",
			Help: "Optional sections requested with a generation",
		},
		[]string{"option"}, // option: routes|erd
	)
	GenerationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "schemagen_generation_duration_seconds",
			Help:    "Histogram of generation durations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 6), // 0.25s..8s
		},
	)
	InFlightGenerations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schemagen_generations_in_flight",
			Help: "Generations currently waiting on the generator",
		},
	)

	// Validation
	ValidationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemagen_validation_failures_total",
			Help: "Rejected requests by offending field",
		},
		[]string{"field"},
	)

	ValidationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemagen_validation_runs_total",
			Help: "Number of output validation runs by validator and result",
		},
		[]string{"validator", "result"}, // result: pass|fail
	)
	ValidationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schemagen_validation_duration_seconds",
			Help:    "Duration of output validation runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"validator"},
	)

	// History / archive storage ops
	StoreOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemagen_store_ops_total",
			Help: "History and archive operations performed",
		},
		[]string{"store", "op"}, // op: get|put|delete|list
	)

	// Websockets
	WebsocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schemagen_ws_connections",
			Help: "Current number of open websocket connections",
		},
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schemagen_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		Generations,
		GenerationOptions,
		GenerationDurationSeconds,
		InFlightGenerations,
		ValidationFailures,
		ValidationRuns,
		ValidationDurationSeconds,
		StoreOps,
		WebsocketConnections,
		Errors,
	)
}

// NewServer returns a standalone server exposing /metrics on addr.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Generations
func IncGeneration(format string) {
	Generations.WithLabelValues(format).Inc()
}

func IncGenerationOption(option string) {
	GenerationOptions.WithLabelValues(option).Inc()
}

func ObserveGenerationDuration(d time.Duration) {
	GenerationDurationSeconds.Observe(d.Seconds())
}

func IncInFlight() {
	InFlightGenerations.Inc()
}

func DecInFlight() {
	InFlightGenerations.Dec()
}

// Validation
func IncValidationFailure(field string) {
	ValidationFailures.WithLabelValues(field).Inc()
}

func IncValidationRun(validator, result string) {
	ValidationRuns.WithLabelValues(validator, result).Inc()
}

func ObserveValidationDuration(validator string, d time.Duration) {
	ValidationDurationSeconds.WithLabelValues(validator).Observe(d.Seconds())
}

// Storage
func IncStoreOp(store, op string) {
	StoreOps.WithLabelValues(store, op).Inc()
}

// Websocket
func IncWSConnections() {
	WebsocketConnections.Inc()
}

func DecWSConnections() {
	WebsocketConnections.Dec()
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
