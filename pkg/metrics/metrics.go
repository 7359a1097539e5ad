// Package metrics exports translation cache statistics to external
// monitoring systems. It ships Prometheus and OpenTelemetry exporters, a
// no-op exporter for when metrics are disabled, and a fan-out exporter for
// feeding several backends at once.
package metrics

import (
	"errors"
	"time"
)

// Labels are key/value pairs attached to every exported metric.
type Labels map[string]string

// Operation identifies the cache operation being measured.
type Operation string

const (
	OperationGet        Operation = "get"
	OperationSet        Operation = "set"
	OperationDelete     Operation = "delete"
	OperationInvalidate Operation = "invalidate"
	OperationEvict      Operation = "evict"
	OperationCleanup    Operation = "cleanup"
	OperationPreload    Operation = "preload"
)

// Result classifies the outcome of a measured operation.
type Result string

const (
	ResultHit   Result = "hit"
	ResultMiss  Result = "miss"
	ResultError Result = "error"
)

// Stats is the read-only view of cache statistics an exporter consumes.
type Stats interface {
	Hits() int64
	Misses() int64
	Evictions() int64
	Invalidations() int64
	KeyCount() int64
	InFlight() int64
	HitRate() float64
}

// Exporter sends cache statistics and operation timings to a monitoring
// backend. Implementations must be safe for concurrent use.
type Exporter interface {
	// ExportStats exports a full stats snapshot.
	ExportStats(stats Stats, labels Labels) error

	// RecordCacheOperation records one timed cache operation.
	RecordCacheOperation(operation Operation, duration time.Duration, labels Labels) error

	// IncrementCounter increments a named counter.
	IncrementCounter(name string, labels Labels) error

	// RecordHistogram records a value into a named histogram.
	RecordHistogram(name string, value float64, labels Labels) error

	// SetGauge sets a named gauge.
	SetGauge(name string, value float64, labels Labels) error

	// Close releases exporter resources.
	Close() error
}

// Config controls metrics collection.
type Config struct {
	// Enabled turns metrics export on.
	Enabled bool

	// Namespace prefixes all metric names.
	Namespace string

	// Labels are attached to every metric.
	Labels Labels

	// ReportingInterval is how often the cache pushes a stats snapshot.
	ReportingInterval time.Duration

	// IncludeDetailedTimings enables per-operation duration histograms.
	IncludeDetailedTimings bool

	// IncludeKeyValueSizes enables key/value size histograms.
	IncludeKeyValueSizes bool
}

// NewDefaultConfig returns the default metrics configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:           true,
		Namespace:         "i18ncache",
		Labels:            make(Labels),
		ReportingInterval: 30 * time.Second,
	}
}

// WithNamespace sets the metric name prefix.
func (c *Config) WithNamespace(ns string) *Config {
	c.Namespace = ns
	return c
}

// WithLabels sets the static labels.
func (c *Config) WithLabels(labels Labels) *Config {
	c.Labels = labels
	return c
}

// WithReportingInterval sets the stats push interval.
func (c *Config) WithReportingInterval(d time.Duration) *Config {
	c.ReportingInterval = d
	return c
}

// WithDetailedTimings toggles per-operation duration histograms.
func (c *Config) WithDetailedTimings(enabled bool) *Config {
	c.IncludeDetailedTimings = enabled
	return c
}

// WithKeyValueSizes toggles key/value size histograms.
func (c *Config) WithKeyValueSizes(enabled bool) *Config {
	c.IncludeKeyValueSizes = enabled
	return c
}

// MetricNames holds the full names of all exported metrics.
type MetricNames struct {
	CacheHitsTotal          string
	CacheMissesTotal        string
	CacheEvictionsTotal     string
	CacheInvalidationsTotal string
	CacheOperationsTotal    string
	CacheErrorsTotal        string
	CacheOperationDuration  string
	CacheKeySize            string
	CacheValueSize          string
	CacheKeysCount          string
	CacheInFlightRequests   string
	CacheHitRate            string
}

// DefaultMetricNames returns metric names under the default namespace.
func DefaultMetricNames() MetricNames {
	return MetricNames{
		CacheHitsTotal:          "i18ncache_hits_total",
		CacheMissesTotal:        "i18ncache_misses_total",
		CacheEvictionsTotal:     "i18ncache_evictions_total",
		CacheInvalidationsTotal: "i18ncache_invalidations_total",
		CacheOperationsTotal:    "i18ncache_operations_total",
		CacheErrorsTotal:        "i18ncache_errors_total",
		CacheOperationDuration:  "i18ncache_operation_duration_seconds",
		CacheKeySize:            "i18ncache_key_size_bytes",
		CacheValueSize:          "i18ncache_value_size_bytes",
		CacheKeysCount:          "i18ncache_keys_count",
		CacheInFlightRequests:   "i18ncache_inflight_requests",
		CacheHitRate:            "i18ncache_hit_rate",
	}
}

// NoOpExporter discards everything. Used when metrics are disabled.
type NoOpExporter struct{}

// NewNoOpExporter creates an exporter that discards all metrics.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (*NoOpExporter) ExportStats(Stats, Labels) error { return nil }

func (*NoOpExporter) RecordCacheOperation(Operation, time.Duration, Labels) error { return nil }

func (*NoOpExporter) IncrementCounter(string, Labels) error { return nil }

func (*NoOpExporter) RecordHistogram(string, float64, Labels) error { return nil }

func (*NoOpExporter) SetGauge(string, float64, Labels) error { return nil }

func (*NoOpExporter) Close() error { return nil }

// MultiExporter fans every call out to a list of exporters. All exporters
// are always called; errors are joined rather than short-circuiting.
type MultiExporter struct {
	exporters []Exporter
}

// NewMultiExporter creates an exporter that forwards to all given exporters.
func NewMultiExporter(exporters ...Exporter) *MultiExporter {
	return &MultiExporter{exporters: exporters}
}

func (m *MultiExporter) ExportStats(stats Stats, labels Labels) error {
	var errs []error
	for _, e := range m.exporters {
		if err := e.ExportStats(stats, labels); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiExporter) RecordCacheOperation(op Operation, d time.Duration, labels Labels) error {
	var errs []error
	for _, e := range m.exporters {
		if err := e.RecordCacheOperation(op, d, labels); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiExporter) IncrementCounter(name string, labels Labels) error {
	var errs []error
	for _, e := range m.exporters {
		if err := e.IncrementCounter(name, labels); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiExporter) RecordHistogram(name string, value float64, labels Labels) error {
	var errs []error
	for _, e := range m.exporters {
		if err := e.RecordHistogram(name, value, labels); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiExporter) SetGauge(name string, value float64, labels Labels) error {
	var errs []error
	for _, e := range m.exporters {
		if err := e.SetGauge(name, value, labels); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiExporter) Close() error {
	var errs []error
	for _, e := range m.exporters {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
