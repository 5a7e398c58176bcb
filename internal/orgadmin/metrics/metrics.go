// Package metrics exposes Prometheus collectors for the HTTP layer and the
// domain services.
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
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgadmin_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orgadmin_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	domainOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orgadmin_domain_operations_total",
		Help: "Count of domain write operations by entity, operation and result",
	}, []string{"entity", "operation", "result"})

	employeesTransferred = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orgadmin_employees_transferred_total",
		Help: "Employees reassigned while deleting their department",
	})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveOperation counts a domain write. A nil err is recorded as "ok".
func ObserveOperation(entity, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	domainOperations.WithLabelValues(entity, operation, result).Inc()
}

// ObserveTransfer counts employees moved between departments.
func ObserveTransfer(n int64) {
	if n > 0 {
		employeesTransferred.Add(float64(n))
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMetricsMiddleware instruments requests with Prometheus metrics.
// route maps a request to a low-cardinality label.
func HTTPMetricsMiddleware(next http.Handler, route func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		ObserveHTTPRequest(r.Method, route(r), strconv.Itoa(ww.status), time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
