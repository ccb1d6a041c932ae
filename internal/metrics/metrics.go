// Package metrics exposes Prometheus instrumentation for the directory
// service. Every Collection owns its registry, so several servers (or
// tests) can run in one process.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "staffdir"

// Collection groups the service metrics. A nil *Collection is valid and
// records nothing.
type Collection struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Mutations       *prometheus.CounterVec
	Imports         *prometheus.CounterVec
	ImportFailures  *prometheus.CounterVec
	ImportedRecords *prometheus.CounterVec
	Exports         *prometheus.CounterVec

	StoredEmployees prometheus.GaugeFunc
	FallbackIDs     prometheus.CounterFunc
}

// New creates a Collection with the Go runtime and process collectors
// registered next to the service metrics.
func New() *Collection {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collection{
		registry: reg,
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "employee_mutations_total",
			Help:      "Successful employee creates, updates and deletes.",
		}, []string{"op"}),
		Imports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Applied bulk imports by payload kind.",
		}, []string{"kind"}),
		ImportFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_failures_total",
			Help:      "Rejected bulk imports by payload kind and error code.",
		}, []string{"kind", "code"}),
		ImportedRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_records_total",
			Help:      "Records processed by applied imports.",
		}, []string{"kind"}),
		Exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Exports served by format.",
		}, []string{"format"}),
	}
}

// WithEmployeeGauge reports the current store size on every scrape.
func (c *Collection) WithEmployeeGauge(f func() float64) {
	if c == nil {
		return
	}
	c.StoredEmployees = promauto.With(c.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "employees",
			Help:      "Employees currently held in the directory.",
		},
		f,
	)
}

// WithFallbackIDCounter reports how many ids were minted without the
// secure random source.
func (c *Collection) WithFallbackIDCounter(f func() float64) {
	if c == nil {
		return
	}
	c.FallbackIDs = promauto.With(c.registry).NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_ids_total",
			Help:      "Employee ids minted by the counter-based fallback.",
		},
		f,
	)
}

// Registry returns the registry backing the collection.
func (c *Collection) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collection in the Prometheus exposition format.
func (c *Collection) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveMutation counts a successful create, update or delete.
func (c *Collection) ObserveMutation(op string) {
	if c == nil {
		return
	}
	c.Mutations.WithLabelValues(op).Inc()
}

// ObserveImport records the outcome of one import request. code is the
// user-facing error code of a failed import and ignored on success.
func (c *Collection) ObserveImport(kind string, count int, code string, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.ImportFailures.WithLabelValues(kind, code).Inc()
		return
	}
	c.Imports.WithLabelValues(kind).Inc()
	c.ImportedRecords.WithLabelValues(kind).Add(float64(count))
}

// ObserveExport counts a served export.
func (c *Collection) ObserveExport(format string) {
	if c == nil {
		return
	}
	c.Exports.WithLabelValues(format).Inc()
}

// Middleware counts requests and their latency, labelled by the chi route
// pattern rather than the raw path to keep cardinality bounded.
func (c *Collection) Middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
