// Package metrics exposes the service's Prometheus collectors on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the service records.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	feedFetches      *prometheus.CounterVec
	feedEvents       *prometheus.GaugeVec
	cacheLookups     *prometheus.CounterVec
	clusterDuration  prometheus.Histogram
	clusterFailures  prometheus.Counter
	markersReturned  prometheus.Histogram
	refreshRequested *prometheus.CounterVec
}

// New registers all collectors under namespace. A nil receiver is a valid no-op Metrics.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "quakemap"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		feedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "fetches_total",
			Help:      "Upstream feed fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		feedEvents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "events",
			Help:      "Events in the latest snapshot of each feed.",
		}, []string{"feed"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		clusterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "build_duration_seconds",
			Help:      "Time spent building markers for one viewport.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
		clusterFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "failures_total",
			Help:      "Marker builds that returned a failure.",
		}),
		markersReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "markers",
			Help:      "Markers returned per viewport.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		refreshRequested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "refresh_requests_total",
			Help:      "Refresh requests by feed and whether they ran or were coalesced.",
		}, []string{"feed", "result"}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.feedFetches,
		m.feedEvents,
		m.cacheLookups,
		m.clusterDuration,
		m.clusterFailures,
		m.markersReturned,
		m.refreshRequested,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) FeedFetched(source string, err error, events int, feed string) {
	if m == nil {
		return
	}
	if err != nil {
		m.feedFetches.WithLabelValues(source, "error").Inc()
		return
	}
	m.feedFetches.WithLabelValues(source, "ok").Inc()
	m.feedEvents.WithLabelValues(feed).Set(float64(events))
}

func (m *Metrics) CacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ClusterBuilt(elapsed time.Duration, markers int, failed bool) {
	if m == nil {
		return
	}
	m.clusterDuration.Observe(elapsed.Seconds())
	if failed {
		m.clusterFailures.Inc()
		return
	}
	m.markersReturned.Observe(float64(markers))
}

func (m *Metrics) RefreshRequested(feed string, ran bool) {
	if m == nil {
		return
	}
	result := "coalesced"
	if ran {
		result = "ran"
	}
	m.refreshRequested.WithLabelValues(feed, result).Inc()
}
