// Package promstat provides a stats implementation backed by Prometheus
// metrics on a private registry. A batch run has no scrape endpoint, so the
// collected metrics are pushed to a Pushgateway when the run ends.
package promstat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Namespace prefixes every metric name.
const Namespace = "sparkify"

// Collector is a sparkify.Statter which records stats as Prometheus metrics.
// Counts become counters, gauges and timings become gauges and histograms
// become histograms. Dots in stat names become underscores.
type Collector struct {
	Registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// NewCollector gets a Collector with an empty registry.
func NewCollector() *Collector {
	return &Collector{
		Registry:   prometheus.NewRegistry(),
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// MetricName converts a stat name such as "rows.written.song_table" into a
// metric name without the namespace.
func MetricName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}

func (c *Collector) counter(name string) prometheus.Counter {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.counters[name]
	if !ok {
		m = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      MetricName(name) + "_total",
			Help:      "Count of " + name + ".",
		})
		c.Registry.MustRegister(m)
		c.counters[name] = m
	}
	return m
}

func (c *Collector) gauge(name, suffix string) prometheus.Gauge {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.gauges[name]
	if !ok {
		m = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      MetricName(name) + suffix,
			Help:      "Last value of " + name + ".",
		})
		c.Registry.MustRegister(m)
		c.gauges[name] = m
	}
	return m
}

func (c *Collector) histogram(name string) prometheus.Histogram {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.histograms[name]
	if !ok {
		m = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      MetricName(name),
			Help:      "Distribution of " + name + ".",
		})
		c.Registry.MustRegister(m)
		c.histograms[name] = m
	}
	return m
}

// Count implements sparkify.Statter. Negative values are ignored since
// counters only go up.
func (c *Collector) Count(name string, value int64, rate float64, tags ...string) {
	if value < 0 {
		return
	}
	c.counter(name).Add(float64(value))
}

// Gauge implements sparkify.Statter.
func (c *Collector) Gauge(name string, value float64, rate float64, tags ...string) {
	c.gauge(name, "").Set(value)
}

// Histogram implements sparkify.Statter.
func (c *Collector) Histogram(name string, value float64, rate float64, tags ...string) {
	c.histogram(name).Observe(value)
}

// Set does nothing.
func (c *Collector) Set(name string, value string, rate float64, tags ...string) {}

// Timing implements sparkify.Statter. The duration is recorded in seconds.
func (c *Collector) Timing(name string, value time.Duration, rate float64, tags ...string) {
	c.gauge(name, "_seconds").Set(value.Seconds())
}

// Push sends every metric in the registry to the Pushgateway at url under the
// given job name.
func (c *Collector) Push(ctx context.Context, url, job string) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("pushgateway url is required")
	}
	err := push.New(url, job).Gatherer(c.Registry).PushContext(ctx)
	return errors.Wrapf(err, "pushing metrics to %s", url)
}
