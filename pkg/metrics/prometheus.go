package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig holds Prometheus-specific exporter settings.
type PrometheusConfig struct {
	// Registry to register collectors with. Defaults to the default
	// registerer when nil.
	Registry prometheus.Registerer
}

// PrometheusExporter exports cache metrics to a Prometheus registry.
type PrometheusExporter struct {
	config *Config
	names  MetricNames

	hits          *prometheus.GaugeVec
	misses        *prometheus.GaugeVec
	evictions     *prometheus.GaugeVec
	invalidations *prometheus.GaugeVec
	keyCount      *prometheus.GaugeVec
	inFlight      *prometheus.GaugeVec
	hitRate       *prometheus.GaugeVec

	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
	histos   map[string]*prometheus.HistogramVec
	registry prometheus.Registerer
}

// NewPrometheusExporter creates an exporter registered against the
// configured Prometheus registry.
func NewPrometheusExporter(config *Config, promConfig *PrometheusConfig) (*PrometheusExporter, error) {
	if config == nil {
		config = NewDefaultConfig()
	}

	registry := prometheus.Registerer(prometheus.DefaultRegisterer)
	if promConfig != nil && promConfig.Registry != nil {
		registry = promConfig.Registry
	}

	labelKeys := sortedLabelKeys(config.Labels)
	labelKeys = append(labelKeys, "cache_name")

	e := &PrometheusExporter{
		config:   config,
		names:    DefaultMetricNames(),
		counters: make(map[string]*prometheus.CounterVec),
		gauges:   make(map[string]*prometheus.GaugeVec),
		histos:   make(map[string]*prometheus.HistogramVec),
		registry: registry,
	}

	newGauge := func(name, help string) *prometheus.GaugeVec {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labelKeys)
		registry.MustRegister(g)
		return g
	}

	e.hits = newGauge(e.names.CacheHitsTotal, "Total cache hits.")
	e.misses = newGauge(e.names.CacheMissesTotal, "Total cache misses.")
	e.evictions = newGauge(e.names.CacheEvictionsTotal, "Total cache evictions.")
	e.invalidations = newGauge(e.names.CacheInvalidationsTotal, "Total cache invalidations.")
	e.keyCount = newGauge(e.names.CacheKeysCount, "Current number of cached bundles.")
	e.inFlight = newGauge(e.names.CacheInFlightRequests, "Loads currently in flight.")
	e.hitRate = newGauge(e.names.CacheHitRate, "Cache hit rate in [0,1].")

	e.operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: e.names.CacheOperationsTotal,
		Help: "Total cache operations by type.",
	}, append([]string{"operation"}, labelKeys...))
	registry.MustRegister(e.operations)

	e.durations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    e.names.CacheOperationDuration,
		Help:    "Cache operation duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, append([]string{"operation"}, labelKeys...))
	registry.MustRegister(e.durations)

	return e, nil
}

// ExportStats pushes a full stats snapshot as gauges.
func (e *PrometheusExporter) ExportStats(stats Stats, labels Labels) error {
	values := e.labelValues(labels)

	e.hits.WithLabelValues(values...).Set(float64(stats.Hits()))
	e.misses.WithLabelValues(values...).Set(float64(stats.Misses()))
	e.evictions.WithLabelValues(values...).Set(float64(stats.Evictions()))
	e.invalidations.WithLabelValues(values...).Set(float64(stats.Invalidations()))
	e.keyCount.WithLabelValues(values...).Set(float64(stats.KeyCount()))
	e.inFlight.WithLabelValues(values...).Set(float64(stats.InFlight()))
	e.hitRate.WithLabelValues(values...).Set(stats.HitRate())
	return nil
}

// RecordCacheOperation counts one operation and, if detailed timings are
// enabled, observes its duration.
func (e *PrometheusExporter) RecordCacheOperation(op Operation, d time.Duration, labels Labels) error {
	values := append([]string{string(op)}, e.labelValues(labels)...)
	e.operations.WithLabelValues(values...).Inc()
	if e.config.IncludeDetailedTimings {
		e.durations.WithLabelValues(values...).Observe(d.Seconds())
	}
	return nil
}

// IncrementCounter increments an ad hoc named counter, registering it on
// first use.
func (e *PrometheusExporter) IncrementCounter(name string, labels Labels) error {
	e.mu.Lock()
	c, ok := e.counters[name]
	if !ok {
		c = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: name,
			Help: fmt.Sprintf("Counter %s.", name),
		}, e.dynamicLabelKeys())
		if err := e.registry.Register(c); err != nil {
			e.mu.Unlock()
			return err
		}
		e.counters[name] = c
	}
	e.mu.Unlock()

	c.WithLabelValues(e.labelValues(labels)...).Inc()
	return nil
}

// RecordHistogram records a value into an ad hoc named histogram.
func (e *PrometheusExporter) RecordHistogram(name string, value float64, labels Labels) error {
	e.mu.Lock()
	h, ok := e.histos[name]
	if !ok {
		h = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    name,
			Help:    fmt.Sprintf("Histogram %s.", name),
			Buckets: prometheus.DefBuckets,
		}, e.dynamicLabelKeys())
		if err := e.registry.Register(h); err != nil {
			e.mu.Unlock()
			return err
		}
		e.histos[name] = h
	}
	e.mu.Unlock()

	h.WithLabelValues(e.labelValues(labels)...).Observe(value)
	return nil
}

// SetGauge sets an ad hoc named gauge.
func (e *PrometheusExporter) SetGauge(name string, value float64, labels Labels) error {
	e.mu.Lock()
	g, ok := e.gauges[name]
	if !ok {
		g = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: name,
			Help: fmt.Sprintf("Gauge %s.", name),
		}, e.dynamicLabelKeys())
		if err := e.registry.Register(g); err != nil {
			e.mu.Unlock()
			return err
		}
		e.gauges[name] = g
	}
	e.mu.Unlock()

	g.WithLabelValues(e.labelValues(labels)...).Set(value)
	return nil
}

// Close is a no-op; Prometheus collectors stay registered until the
// registry itself is discarded.
func (e *PrometheusExporter) Close() error {
	return nil
}

// dynamicLabelKeys returns the label key set used for every metric: the
// configured static keys plus cache_name, in sorted order.
func (e *PrometheusExporter) dynamicLabelKeys() []string {
	keys := sortedLabelKeys(e.config.Labels)
	return append(keys, "cache_name")
}

// labelValues produces values aligned with dynamicLabelKeys. The static
// config labels provide defaults; the per-call labels override them and
// supply cache_name.
func (e *PrometheusExporter) labelValues(labels Labels) []string {
	keys := sortedLabelKeys(e.config.Labels)
	values := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		v := e.config.Labels[k]
		if override, ok := labels[k]; ok {
			v = override
		}
		values = append(values, v)
	}

	cacheName := labels["cache_name"]
	if cacheName == "" {
		cacheName = "default"
	}
	return append(values, cacheName)
}

func sortedLabelKeys(labels Labels) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		if k == "cache_name" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
