// Package metrics exposes Prometheus counters for a geofeed search.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "geofeed"

// Geocode lookup outcomes.
const (
	GeocodeMatched   = "matched"
	GeocodeEmpty     = "empty"
	GeocodeFailed    = "failed"
	GeocodeNoMatch   = "no_match"
	GeocodeDiscarded = "discarded"
)

// Collector holds the counters of one process. A nil *Collector is valid
// and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	streamEvents   *prometheus.CounterVec
	postsIngested  *prometheus.CounterVec
	postsDuplicate *prometheus.CounterVec
	geocodeLookups *prometheus.CounterVec
}

// New creates a Collector registered with reg. When reg is nil a private
// registry is used.
func New(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{
		gatherer: reg,
		streamEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_events_total",
				Help:      "Server-sent events received, by kind and platform",
			},
			[]string{"kind", "platform"},
		),
		postsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posts_ingested_total",
				Help:      "Posts added to the aggregated state",
			},
			[]string{"platform"},
		),
		postsDuplicate: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posts_duplicate_total",
				Help:      "Re-delivered posts dropped by deduplication",
			},
			[]string{"platform"},
		),
		geocodeLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geocode_lookups_total",
				Help:      "Reverse geocoding lookups, by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(c.streamEvents, c.postsIngested, c.postsDuplicate, c.geocodeLookups)
	return c
}

// StreamEvent counts one received event.
func (c *Collector) StreamEvent(kind, platform string) {
	if c == nil {
		return
	}
	c.streamEvents.WithLabelValues(kind, platform).Inc()
}

// Ingested counts the outcome of one merged batch.
func (c *Collector) Ingested(platform string, added, duplicates int) {
	if c == nil {
		return
	}
	c.postsIngested.WithLabelValues(platform).Add(float64(added))
	c.postsDuplicate.WithLabelValues(platform).Add(float64(duplicates))
}

// GeocodeLookup counts one reverse geocoding outcome.
func (c *Collector) GeocodeLookup(outcome string) {
	if c == nil {
		return
	}
	c.geocodeLookups.WithLabelValues(outcome).Inc()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
