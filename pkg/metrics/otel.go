package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelExporter exports cache metrics through an OpenTelemetry meter.
type OTelExporter struct {
	meter metric.Meter

	operations metric.Int64Counter
	durations  metric.Float64Histogram

	hits          metric.Int64Gauge
	misses        metric.Int64Gauge
	evictions     metric.Int64Gauge
	invalidations metric.Int64Gauge
	keyCount      metric.Int64Gauge
	inFlight      metric.Int64Gauge
	hitRate       metric.Float64Gauge

	mu       sync.Mutex
	counters map[string]metric.Int64Counter
	gauges   map[string]metric.Float64Gauge
	histos   map[string]metric.Float64Histogram
}

// NewOTelExporter creates an exporter bound to the given meter provider.
// A nil provider falls back to the global one.
func NewOTelExporter(provider metric.MeterProvider) (*OTelExporter, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter("github.com/vnykmshr/i18ncache-go")

	names := DefaultMetricNames()
	e := &OTelExporter{
		meter:    meter,
		counters: make(map[string]metric.Int64Counter),
		gauges:   make(map[string]metric.Float64Gauge),
		histos:   make(map[string]metric.Float64Histogram),
	}

	var err error
	if e.operations, err = meter.Int64Counter(names.CacheOperationsTotal,
		metric.WithDescription("Total cache operations by type.")); err != nil {
		return nil, err
	}
	if e.durations, err = meter.Float64Histogram(names.CacheOperationDuration,
		metric.WithDescription("Cache operation duration in seconds."),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if e.hits, err = meter.Int64Gauge(names.CacheHitsTotal,
		metric.WithDescription("Total cache hits.")); err != nil {
		return nil, err
	}
	if e.misses, err = meter.Int64Gauge(names.CacheMissesTotal,
		metric.WithDescription("Total cache misses.")); err != nil {
		return nil, err
	}
	if e.evictions, err = meter.Int64Gauge(names.CacheEvictionsTotal,
		metric.WithDescription("Total cache evictions.")); err != nil {
		return nil, err
	}
	if e.invalidations, err = meter.Int64Gauge(names.CacheInvalidationsTotal,
		metric.WithDescription("Total cache invalidations.")); err != nil {
		return nil, err
	}
	if e.keyCount, err = meter.Int64Gauge(names.CacheKeysCount,
		metric.WithDescription("Current number of cached bundles.")); err != nil {
		return nil, err
	}
	if e.inFlight, err = meter.Int64Gauge(names.CacheInFlightRequests,
		metric.WithDescription("Loads currently in flight.")); err != nil {
		return nil, err
	}
	if e.hitRate, err = meter.Float64Gauge(names.CacheHitRate,
		metric.WithDescription("Cache hit rate in [0,1].")); err != nil {
		return nil, err
	}

	return e, nil
}

// ExportStats records a full stats snapshot.
func (e *OTelExporter) ExportStats(stats Stats, labels Labels) error {
	ctx := context.Background()
	attrs := toAttributes(labels)

	e.hits.Record(ctx, stats.Hits(), attrs)
	e.misses.Record(ctx, stats.Misses(), attrs)
	e.evictions.Record(ctx, stats.Evictions(), attrs)
	e.invalidations.Record(ctx, stats.Invalidations(), attrs)
	e.keyCount.Record(ctx, stats.KeyCount(), attrs)
	e.inFlight.Record(ctx, stats.InFlight(), attrs)
	e.hitRate.Record(ctx, stats.HitRate(), attrs)
	return nil
}

// RecordCacheOperation counts one operation and observes its duration.
func (e *OTelExporter) RecordCacheOperation(op Operation, d time.Duration, labels Labels) error {
	ctx := context.Background()
	attrs := metric.WithAttributes(append(attributeList(labels),
		attribute.String("operation", string(op)))...)

	e.operations.Add(ctx, 1, attrs)
	e.durations.Record(ctx, d.Seconds(), attrs)
	return nil
}

// IncrementCounter increments an ad hoc named counter.
func (e *OTelExporter) IncrementCounter(name string, labels Labels) error {
	e.mu.Lock()
	c, ok := e.counters[name]
	if !ok {
		var err error
		c, err = e.meter.Int64Counter(name)
		if err != nil {
			e.mu.Unlock()
			return err
		}
		e.counters[name] = c
	}
	e.mu.Unlock()

	c.Add(context.Background(), 1, toAttributes(labels))
	return nil
}

// RecordHistogram records a value into an ad hoc named histogram.
func (e *OTelExporter) RecordHistogram(name string, value float64, labels Labels) error {
	e.mu.Lock()
	h, ok := e.histos[name]
	if !ok {
		var err error
		h, err = e.meter.Float64Histogram(name)
		if err != nil {
			e.mu.Unlock()
			return err
		}
		e.histos[name] = h
	}
	e.mu.Unlock()

	h.Record(context.Background(), value, toAttributes(labels))
	return nil
}

// SetGauge sets an ad hoc named gauge.
func (e *OTelExporter) SetGauge(name string, value float64, labels Labels) error {
	e.mu.Lock()
	g, ok := e.gauges[name]
	if !ok {
		var err error
		g, err = e.meter.Float64Gauge(name)
		if err != nil {
			e.mu.Unlock()
			return err
		}
		e.gauges[name] = g
	}
	e.mu.Unlock()

	g.Record(context.Background(), value, toAttributes(labels))
	return nil
}

// Close is a no-op; the meter provider owns the instrument lifecycle.
func (e *OTelExporter) Close() error {
	return nil
}

func attributeList(labels Labels) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

func toAttributes(labels Labels) metric.MeasurementOption {
	return metric.WithAttributes(attributeList(labels)...)
}
