package internal

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for HTTP requests and inventory operations
type Metrics struct {
	reqTotal     *prometheus.CounterVec
	reqLatency   *prometheus.HistogramVec
	logins       *prometheus.CounterVec
	amortized    *prometheus.CounterVec
	importedRows *prometheus.CounterVec
	registry     *prometheus.Registry
}

// NewMetrics creates a new Metrics instance with a private Prometheus registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	reqTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	reqLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	logins := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"result"},
	)

	amortized := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_amortizations_total",
			Help: "Moves of hardware assets into hw_amortized",
		},
		[]string{"mode", "result"},
	)

	importedRows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_imported_rows_total",
			Help: "Spreadsheet rows processed by resource and outcome",
		},
		[]string{"resource", "result"},
	)

	registry.MustRegister(reqTotal, reqLatency, logins, amortized, importedRows)

	return &Metrics{
		reqTotal:     reqTotal,
		reqLatency:   reqLatency,
		logins:       logins,
		amortized:    amortized,
		importedRows: importedRows,
		registry:     registry,
	}
}

// Middleware returns a Chi middleware that collects metrics
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := routePattern(r)
			status := strconv.Itoa(rw.code)
			m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
			m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

// ObserveLogin counts a login attempt. result is "success", "failed" or "unknown_user".
func (m *Metrics) ObserveLogin(result string) {
	m.logins.WithLabelValues(result).Inc()
}

// ObserveAmortization counts a move by mode (legacy/atomic) and result.
func (m *Metrics) ObserveAmortization(atomic bool, result string) {
	mode := "legacy"
	if atomic {
		mode = "atomic"
	}
	m.amortized.WithLabelValues(mode, result).Inc()
}

// ObserveImport implements handlers.ImportObserver.
func (m *Metrics) ObserveImport(resource string, inserted, failed int) {
	m.importedRows.WithLabelValues(resource, "inserted").Add(float64(inserted))
	m.importedRows.WithLabelValues(resource, "failed").Add(float64(failed))
}

// Handler returns an http.Handler that serves Prometheus metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder captures the HTTP status code for metrics
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}
