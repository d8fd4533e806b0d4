// Package metrics exposes Prometheus instrumentation for plan imports,
// layout runs, board store mutations and the HTTP API.
//
// All methods are safe to call on a nil *Metrics, so components can be
// constructed without instrumentation in tests and one-shot CLI commands.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Iron-Ham/mindnode/internal/layout"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "mindnode"

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	registry *prometheus.Registry

	imports            *prometheus.CounterVec
	importedNodes      prometheus.Counter
	droppedConnections prometheus.Counter

	layoutDuration *prometheus.HistogramVec
	layoutNodes    prometheus.Histogram

	mutations    *prometheus.CounterVec
	saveDuration prometheus.Histogram
	boards       prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates collectors under namespace and registers them with a fresh
// registry, so several instances can coexist in one process.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_imports_total",
			Help:      "Plan imports by result",
		}, []string{"result"}),
		importedNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_imported_nodes_total",
			Help:      "Nodes created by plan imports",
		}),
		droppedConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_dropped_connections_total",
			Help:      "Plan connections dropped because an endpoint was unknown",
		}),
		layoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time spent computing layouts",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"direction"}),
		layoutNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_nodes",
			Help:      "Number of nodes per layout run",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 6),
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_mutations_total",
			Help:      "Board store mutations by operation and result",
		}, []string{"operation", "result"}),
		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_save_duration_seconds",
			Help:      "Time spent persisting the state document",
			Buckets:   prometheus.DefBuckets,
		}),
		boards: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "boards",
			Help:      "Number of boards in the store",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.imports,
		m.importedNodes,
		m.droppedConnections,
		m.layoutDuration,
		m.layoutNodes,
		m.mutations,
		m.saveDuration,
		m.boards,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveImport records a plan import.
func (m *Metrics) ObserveImport(err error, nodes, dropped int) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.importedNodes.Add(float64(nodes))
		m.droppedConnections.Add(float64(dropped))
	}
}

// ObserveLayout records one layout run.
func (m *Metrics) ObserveLayout(dir layout.Direction, nodes int, d time.Duration) {
	if m == nil {
		return
	}
	m.layoutDuration.WithLabelValues(string(dir)).Observe(d.Seconds())
	m.layoutNodes.Observe(float64(nodes))
}

// ObserveMutation records a store operation.
func (m *Metrics) ObserveMutation(op string, err error) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, result(err)).Inc()
}

// ObserveSave records how long persisting the state took.
func (m *Metrics) ObserveSave(d time.Duration) {
	if m == nil {
		return
	}
	m.saveDuration.Observe(d.Seconds())
}

// SetBoards sets the board count gauge.
func (m *Metrics) SetBoards(n int) {
	if m == nil {
		return
	}
	m.boards.Set(float64(n))
}

// ObserveHTTP records a served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// Engine wraps a layout engine and records every run.
type Engine struct {
	Next    layout.Engine
	Metrics *Metrics
}

// InstrumentEngine returns next wrapped with layout metrics. A nil next uses
// the default layered engine. An engine that is already instrumented is
// returned as is so a run is never recorded twice.
func InstrumentEngine(next layout.Engine, m *Metrics) layout.Engine {
	if next == nil {
		next = layout.New()
	}
	if _, ok := next.(*Engine); ok || m == nil {
		return next
	}
	return &Engine{Next: next, Metrics: m}
}

// Layout implements layout.Engine.
func (e *Engine) Layout(nodes []layout.Node, edges []layout.Edge, dir layout.Direction) layout.Result {
	start := time.Now()
	res := e.Next.Layout(nodes, edges, dir)
	e.Metrics.ObserveLayout(dir, len(nodes), time.Since(start))
	return res
}
