// Package metrics provides Prometheus metrics for the explorer client and the
// development API server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Remote port calls made by the client
	portCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_port_calls_total",
			Help: "Total number of remote port calls",
		},
		[]string{"op", "status"},
	)

	portCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_port_call_duration_seconds",
			Help:    "Remote port call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// Navigation
	navigationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_navigation_events_total",
			Help: "Total navigation state changes by kind",
		},
		[]string{"kind"},
	)

	selectionSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_selection_size",
			Help: "Number of selected items in the most recently changed session",
		},
	)

	listingSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_listing_size",
			Help: "Number of entries in the most recently fetched listing",
		},
	)

	selectionPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "explorer_selection_pruned_total",
			Help: "Selected ids dropped because they left the listing",
		},
	)

	// Event subscribers
	subscribersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "explorer_event_subscribers_active",
			Help: "Number of active navigation event subscribers",
		},
	)

	// HTTP server (dev API)
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPortCall records one remote call.
func RecordPortCall(op string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	portCallsTotal.WithLabelValues(op, status).Inc()
	portCallDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordNavigation records a navigation state change.
func RecordNavigation(kind string) {
	navigationEventsTotal.WithLabelValues(kind).Inc()
}

// SetSelectionSize sets the selection size gauge.
func SetSelectionSize(n int) {
	selectionSize.Set(float64(n))
}

// SetListingSize sets the listing size gauge.
func SetListingSize(n int) {
	listingSize.Set(float64(n))
}

// RecordSelectionPruned counts ids dropped from a selection.
func RecordSelectionPruned(n int) {
	selectionPrunedTotal.Add(float64(n))
}

// SetSubscribersActive sets the number of event subscribers.
func SetSubscribersActive(n int) {
	subscribersActive.Set(float64(n))
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// statusWriter wraps http.ResponseWriter to capture status code.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request metrics. route maps a request to a low
// cardinality label; nil uses the raw path.
func Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)
			label := r.URL.Path
			if route != nil {
				label = route(r)
			}
			RecordHTTPRequest(r.Method, label, rw.statusCode, time.Since(start))
		})
	}
}
