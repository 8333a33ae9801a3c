// Package metrics exposes Prometheus instruments for the feeds, the static
// lookup cache, the fanout and the HTTP layer. A nil *Collector is valid and
// records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	FeedFetches       *prometheus.CounterVec // feed, outcome
	FeedFetchDuration *prometheus.HistogramVec
	LookupCache       *prometheus.CounterVec // kind, result: hit|miss
	FanoutInFlight    prometheus.Gauge
	HTTPDuration      *prometheus.HistogramVec // route, status
	StaticImport      prometheus.Gauge         // seconds
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ntta_feed_fetches_total",
			Help: "Realtime feed fetches by feed and outcome.",
		}, []string{"feed", "outcome"}),
		FeedFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ntta_feed_fetch_duration_seconds",
			Help:    "Duration of realtime feed fetch and decode.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"feed"}),
		LookupCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ntta_lookup_cache_total",
			Help: "Static record lookups by kind and cache result.",
		}, []string{"kind", "result"}),
		FanoutInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ntta_fanout_in_flight",
			Help: "Static lookups currently executing.",
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ntta_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		StaticImport: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ntta_static_import_duration_seconds",
			Help: "Duration of the last static GTFS import.",
		}),
	}

	reg.MustRegister(
		c.FeedFetches, c.FeedFetchDuration,
		c.LookupCache, c.FanoutInFlight,
		c.HTTPDuration, c.StaticImport,
	)
	return c
}

// ObserveFeedFetch records one realtime fetch.
func (c *Collector) ObserveFeedFetch(feed, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.FeedFetches.WithLabelValues(feed, outcome).Inc()
	c.FeedFetchDuration.WithLabelValues(feed).Observe(d.Seconds())
}

// ObserveLookup records a lookup cache hit or miss.
func (c *Collector) ObserveLookup(kind string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.LookupCache.WithLabelValues(kind, result).Inc()
}

func (c *Collector) SetFanoutInFlight(n int) {
	if c == nil {
		return
	}
	c.FanoutInFlight.Set(float64(n))
}

// ObserveHTTPRequest records a served request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveHTTPRequest(route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (c *Collector) SetStaticImportDuration(d time.Duration) {
	if c == nil {
		return
	}
	c.StaticImport.Set(d.Seconds())
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
