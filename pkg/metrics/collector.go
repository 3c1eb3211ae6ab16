// Package metrics exports prefs resolution events as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	prefs "github.com/goliatone/go-prefs"
)

const defaultNamespace = "prefs"

// Collector counts resolver operations and observes their latency. Register
// it with a prometheus.Registerer and pass it to prefs.WithLogger.
type Collector struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var (
	_ prefs.ResolutionLogger = (*Collector)(nil)
	_ prometheus.Collector   = (*Collector)(nil)
)

// NewCollector builds a collector under namespace ("prefs" when empty).
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Preference resolver operations by op, category, scope and outcome.",
		}, []string{"op", "category", "scope", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Latency of preference resolver operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"op", "scope"}),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.operations.Describe(ch)
	c.duration.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.operations.Collect(ch)
	c.duration.Collect(ch)
}

func (c *Collector) LogResolution(event prefs.ResolutionEvent) {
	scope := event.Scope.String()
	c.operations.WithLabelValues(event.Op, string(event.Category), scope, string(event.Outcome)).Inc()
	c.duration.WithLabelValues(event.Op, scope).Observe(event.Duration.Seconds())
}
