// Package metrics exposes Prometheus instrumentation for the storefront:
// HTTP request durations, cache effectiveness, and order outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks HTTP request latency by method, route and status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ministore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// CacheHits and CacheMisses track cache effectiveness per query kind.
	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ministore",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total cache hits.",
		},
		[]string{"query"}, // "search" | "detail" | "categories"
	)
	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ministore",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total cache misses.",
		},
		[]string{"query"},
	)

	// OrdersCreated counts committed orders.
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ministore",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Total orders committed.",
	})

	// OrdersRejected counts failed order attempts by reason.
	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ministore",
			Subsystem: "orders",
			Name:      "rejected_total",
			Help:      "Total order attempts rejected.",
		},
		[]string{"reason"}, // "validation" | "not_found" | "stock" | "internal"
	)
)

// Registry holds every collector exported by this package.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	Registry.MustRegister(RequestDuration, CacheHits, CacheMisses, OrdersCreated, OrdersRejected)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records a duration observation for every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rr, r)

		// Label with the route pattern, not the raw path: ids in the URL
		// would otherwise fan out into one label value per product.
		path := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}

		RequestDuration.WithLabelValues(r.Method, path, strconv.Itoa(rr.status)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler serves the metrics page for this package's registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
