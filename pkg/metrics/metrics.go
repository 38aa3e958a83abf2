// Package metrics exposes sync measurements as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kerbaras/mangasync/pkg/data"
)

// Collector records fetch and push outcomes per service and the duration of
// every push phase.
type Collector struct {
	fetches      *prometheus.CounterVec
	pushes       *prometheus.CounterVec
	syncDuration prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mangasync_fetch_total",
			Help: "Snapshot fetches by service and outcome.",
		}, []string{"service", "outcome"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mangasync_push_total",
			Help: "Pushes, deletes and mirror updates by service and outcome.",
		}, []string{"service", "outcome"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mangasync_sync_duration_seconds",
			Help:    "Duration of the push phase of a title sync.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.fetches,
		c.pushes,
		c.syncDuration,
	)

	return c
}

func (c *Collector) RecordFetch(service data.ServiceKey, outcome data.Outcome) {
	c.fetches.WithLabelValues(string(service), outcome.String()).Inc()
}

func (c *Collector) RecordPush(service data.ServiceKey, outcome data.Outcome) {
	c.pushes.WithLabelValues(string(service), outcome.String()).Inc()
}

func (c *Collector) RecordSyncDuration(d time.Duration) {
	c.syncDuration.Observe(d.Seconds())
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
