package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Codec metrics
	pagesScannedTotal   prometheus.Counter
	packetsDecodedTotal prometheus.Counter
	bytesSkippedTotal   prometheus.Counter
	sequenceGapsTotal   prometheus.Counter
	scanDuration        prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oggmux_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oggmux_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "oggmux_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		pagesScannedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oggmux_pages_scanned_total",
				Help: "Total number of valid pages recovered from inspected streams",
			},
		),

		packetsDecodedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oggmux_packets_decoded_total",
				Help: "Total number of packets reassembled from inspected streams",
			},
		),

		bytesSkippedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oggmux_bytes_skipped_total",
				Help: "Total bytes discarded during resynchronization",
			},
		),

		sequenceGapsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "oggmux_sequence_gaps_total",
				Help: "Total page sequence discontinuities observed",
			},
		),

		scanDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "oggmux_scan_duration_seconds",
				Help:    "Stream scan duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordScan records the outcome of one stream scan
func (m *Metrics) RecordScan(pages, packets, bytesSkipped, gaps int64, duration time.Duration) {
	m.pagesScannedTotal.Add(float64(pages))
	m.packetsDecodedTotal.Add(float64(packets))
	m.bytesSkippedTotal.Add(float64(bytesSkipped))
	m.sequenceGapsTotal.Add(float64(gaps))
	m.scanDuration.Observe(duration.Seconds())
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		// Wrap the response writer to capture the status code.
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		duration := time.Since(start)
		m.RecordHTTPRequest(method, endpoint, rw.statusCode, duration)
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
