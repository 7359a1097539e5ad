package i18ncache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/vnykmshr/i18ncache-go/internal/entry"
	"github.com/vnykmshr/i18ncache-go/internal/eviction"
	"github.com/vnykmshr/i18ncache-go/pkg/cachekey"
	"github.com/vnykmshr/i18ncache-go/pkg/compression"
	"github.com/vnykmshr/i18ncache-go/pkg/events"
	"github.com/vnykmshr/i18ncache-go/pkg/metrics"
)

// Cache is the translation entry store: an in-memory, size-bounded,
// TTL-expiring cache for message bundles, optionally mirrored to a
// persistence store and warmed by a preloader.
type Cache struct {
	config   *Config
	strategy eviction.Strategy
	stats    *Stats
	bus      *events.Bus
	window   *events.StatsWindow
	sf       singleflight.Group
	logger   zerolog.Logger

	compressor compression.Compressor

	metricsExporter metrics.Exporter
	metricsLabels   metrics.Labels
	metricsStop     chan struct{}
	metricsWg       sync.WaitGroup

	cleanupStop chan struct{}
	cleanupWg   sync.WaitGroup

	closeOnce sync.Once
}

// New creates a Cache from the given configuration. Invalid configs are
// rejected wholesale with a ValidationError listing every violation;
// nothing is partially applied.
func New(config *Config) (*Cache, error) {
	if config == nil {
		config = NewDefaultConfig()
	}

	result := validateFull(config)
	if !result.Valid {
		return nil, NewValidationError("invalid cache configuration", map[string]any{
			"errors":   result.Errors,
			"warnings": result.Warnings,
		})
	}

	cache := &Cache{
		config: config,
		strategy: eviction.NewStrategy(eviction.Config{
			Type:     config.EvictionType,
			Capacity: config.MaxSize,
		}),
		stats:  &Stats{},
		bus:    events.NewBus(config.Logger),
		window: events.NewStatsWindow(config.StatsWindow),
		logger: config.Logger,
	}
	cache.window.ObserveBus(cache.bus)

	for _, w := range result.Warnings {
		cache.logger.Warn().Str("warning", w).Msg("cache configuration warning")
	}

	if err := cache.initializeCompression(); err != nil {
		return nil, err
	}
	cache.initializeMetrics()

	if config.EnablePersistence {
		cache.restoreSnapshot()
	}

	if config.CleanupInterval > 0 {
		cache.cleanupStop = make(chan struct{})
		cache.cleanupWg.Add(1)
		go cache.cleanupLoop()
	}

	return cache, nil
}

// NewSimple creates a cache with just a size bound and default TTL.
func NewSimple(maxSize int, defaultTTL time.Duration) (*Cache, error) {
	return New(NewSimpleConfig(maxSize, defaultTTL))
}

// Get retrieves a bundle by key. A hit increments the entry's hit count;
// an entry found expired is removed and reported as a miss. The error is
// non-nil only for malformed keys, never for a plain miss.
func (c *Cache) Get(key string) (any, bool, error) {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationGet, time.Since(start))
	}()

	if !cachekey.Validate(key) {
		return nil, false, NewValidationError("malformed cache key", map[string]any{"key": key})
	}

	e, ok := c.strategy.Peek(key)
	if !ok {
		c.miss(key)
		return nil, false, nil
	}

	if e.IsExpired() {
		// Remove reports false when another goroutine already removed
		// the entry; only the winner records the expiry.
		if c.strategy.Remove(key) {
			c.stats.incExpirations()
			c.updateKeyCount()
			c.bus.Emit(events.Event{Type: events.TypeExpire, Key: key})
		}
		c.miss(key)
		return nil, false, nil
	}

	// Refresh the eviction order now that the entry is known fresh.
	c.strategy.Get(key)
	e.Touch()
	c.stats.incHits()
	c.bus.Emit(events.Event{Type: events.TypeHit, Key: key, Data: e.Data})
	return e.Data, true, nil
}

// Set stores a bundle under key with the given TTL, replacing any
// previous entry. A non-positive ttl falls back to the config default.
// When the insert pushes the cache over its size bound, the eviction
// strategy gives up exactly one victim.
func (c *Cache) Set(key string, data any, ttl time.Duration) error {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationSet, time.Since(start))
	}()

	if !cachekey.Validate(key) {
		return NewValidationError("malformed cache key", map[string]any{"key": key})
	}

	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	evictedKey, evictedEntry, evicted := c.strategy.Add(key, entry.New(data, ttl))
	if evicted {
		c.stats.incEvictions()
		c.bus.Emit(events.Event{
			Type:     events.TypeDelete,
			Key:      evictedKey,
			Data:     evictedEntry.Data,
			Metadata: map[string]any{"reason": "eviction"},
		})
	}

	c.updateKeyCount()
	c.bus.Emit(events.Event{Type: events.TypeSet, Key: key, Data: data})
	c.persistSnapshot()
	return nil
}

// Put stores a bundle using the default TTL.
func (c *Cache) Put(key string, data any) error {
	return c.Set(key, data, c.config.DefaultTTL)
}

// Delete removes a key and reports whether anything was removed.
func (c *Cache) Delete(key string) bool {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationDelete, time.Since(start))
	}()

	if !c.strategy.Remove(key) {
		return false
	}

	c.stats.incInvalidations()
	c.updateKeyCount()
	c.bus.Emit(events.Event{Type: events.TypeDelete, Key: key})
	c.persistSnapshot()
	return true
}

// Clear removes all entries and emits a single clear event regardless of
// how many entries were dropped.
func (c *Cache) Clear() {
	removed := c.strategy.Len()
	c.strategy.Clear()
	if removed > 0 {
		c.stats.incInvalidations()
	}
	c.updateKeyCount()
	c.bus.Emit(events.Event{
		Type:     events.TypeClear,
		Metadata: map[string]any{"removed": removed},
	})
	c.persistSnapshot()
}

// InvalidatePattern removes every key matching a wildcard pattern built
// by cachekey.CreatePattern and returns how many were removed.
func (c *Cache) InvalidatePattern(pattern string) int {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationInvalidate, time.Since(start))
	}()

	removed := 0
	for _, key := range c.strategy.Keys() {
		if !cachekey.MatchPattern(pattern, key) {
			continue
		}
		if c.strategy.Remove(key) {
			removed++
			c.stats.incInvalidations()
			c.bus.Emit(events.Event{
				Type:     events.TypeDelete,
				Key:      key,
				Metadata: map[string]any{"pattern": pattern},
			})
		}
	}

	if removed > 0 {
		c.updateKeyCount()
		c.persistSnapshot()
	}
	return removed
}

// GetOrLoad returns the bundle for a locale and namespace, invoking the
// configured loader on a miss. Concurrent misses for the same key share
// one loader invocation. A loader running past the load timeout fails the
// lookup, and its late result is discarded rather than cached.
func (c *Cache) GetOrLoad(ctx context.Context, locale, namespace string) (Messages, error) {
	key := cachekey.Create(locale, namespace, "")

	data, found, err := c.Get(key)
	if err != nil {
		return nil, err
	}
	if found {
		if msgs, ok := data.(Messages); ok {
			return msgs, nil
		}
	}

	if c.config.Loader == nil {
		return nil, NewValidationError("no loader configured", nil)
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		msgs, loadErr := c.load(ctx, locale, namespace)
		if loadErr != nil {
			return nil, loadErr
		}
		if setErr := c.Set(key, msgs, 0); setErr != nil {
			return nil, setErr
		}
		return msgs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Messages), nil
}

// load runs one loader invocation under the configured timeout. The
// loader runs on its own goroutine so a loader that ignores cancellation
// still cannot stall the caller or pollute the cache with a late result.
func (c *Cache) load(ctx context.Context, locale, namespace string) (Messages, error) {
	if c.config.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.LoadTimeout)
		defer cancel()
	}

	c.stats.incInFlight()
	defer c.stats.decInFlight()

	type loadResult struct {
		msgs Messages
		err  error
	}

	start := time.Now()
	ch := make(chan loadResult, 1)
	go func() {
		msgs, err := c.config.Loader(ctx, locale, namespace)
		ch <- loadResult{msgs: msgs, err: err}
	}()

	select {
	case res := <-ch:
		c.window.ObserveLoad(time.Since(start), res.err)
		return res.msgs, res.err
	case <-ctx.Done():
		c.window.ObserveLoad(time.Since(start), ctx.Err())
		c.logger.Debug().
			Str("locale", locale).
			Str("namespace", namespace).
			Msg("load timed out; late result will be discarded")
		return nil, ctx.Err()
	}
}

// Has checks if a key exists and is not expired.
func (c *Cache) Has(key string) bool {
	e, found := c.strategy.Peek(key)
	return found && !e.IsExpired()
}

// TTL returns the remaining TTL for a key.
func (c *Cache) TTL(key string) (time.Duration, bool) {
	e, ok := c.strategy.Peek(key)
	if ok && !e.IsExpired() {
		return e.Remaining(), true
	}
	return 0, false
}

// Keys returns all current cache keys.
func (c *Cache) Keys() []string {
	return c.strategy.Keys()
}

// Len returns the current number of entries.
func (c *Cache) Len() int {
	return c.strategy.Len()
}

// MaxSize returns the configured entry bound.
func (c *Cache) MaxSize() int {
	return c.config.MaxSize
}

// Stats derives a point-in-time snapshot from the current entry set.
func (c *Cache) Stats() CacheStats {
	var stats CacheStats
	var totalAge time.Duration

	now := time.Now()
	for _, key := range c.strategy.Keys() {
		e, ok := c.strategy.Peek(key)
		if !ok {
			continue
		}
		stats.Size++
		stats.TotalHits += e.Hits()
		totalAge += now.Sub(e.Timestamp)
	}
	if stats.Size > 0 {
		stats.AverageAge = totalAge / time.Duration(stats.Size)
	}
	return stats
}

// Counters returns the cumulative counters since construction.
func (c *Cache) Counters() *Stats {
	c.updateKeyCount()
	return c.stats
}

// WindowStats returns event rates over the sliding stats window.
func (c *Cache) WindowStats() events.WindowStats {
	return c.window.Stats()
}

// Events returns the cache's event bus for external observers.
func (c *Cache) Events() *events.Bus {
	return c.bus
}

// On registers an event listener. Shorthand for Events().On.
func (c *Cache) On(t events.Type, fn events.Listener) events.Subscription {
	return c.bus.On(t, fn)
}

// Off removes an event listener. Shorthand for Events().Off.
func (c *Cache) Off(sub events.Subscription) {
	c.bus.Off(sub)
}

// Cleanup eagerly removes expired entries and returns how many were
// removed. Also runs periodically when a cleanup interval is configured.
func (c *Cache) Cleanup() int {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationCleanup, time.Since(start))
	}()

	removed := 0
	for _, key := range c.strategy.Keys() {
		e, ok := c.strategy.Peek(key)
		if !ok || !e.IsExpired() {
			continue
		}
		if c.strategy.Remove(key) {
			removed++
			c.stats.incExpirations()
			c.bus.Emit(events.Event{Type: events.TypeExpire, Key: key})
		}
	}

	if removed > 0 {
		c.updateKeyCount()
		c.persistSnapshot()
	}
	return removed
}

// Close stops background loops and flushes a final snapshot. The
// persistence store is injected and stays open; its owner closes it.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		if c.cleanupStop != nil {
			close(c.cleanupStop)
			c.cleanupWg.Wait()
		}
		if c.metricsStop != nil {
			close(c.metricsStop)
			c.metricsWg.Wait()
		}
		if c.metricsExporter != nil {
			_ = c.metricsExporter.Close()
		}
		c.persistSnapshot()
	})
	return nil
}

func (c *Cache) miss(key string) {
	c.stats.incMisses()
	c.bus.Emit(events.Event{Type: events.TypeMiss, Key: key})
}

func (c *Cache) updateKeyCount() {
	c.stats.setKeyCount(int64(c.strategy.Len()))
}

func (c *Cache) cleanupLoop() {
	defer c.cleanupWg.Done()

	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Cleanup()
		case <-c.cleanupStop:
			return
		}
	}
}

func (c *Cache) initializeCompression() error {
	if c.config.Compression == nil {
		c.config.Compression = compression.NewDefaultConfig()
	}

	compressor, err := compression.NewCompressor(c.config.Compression)
	if err != nil {
		return NewValidationError("invalid compression configuration", map[string]any{
			"algorithm": string(c.config.Compression.Algorithm),
		})
	}
	c.compressor = compressor
	return nil
}

func (c *Cache) initializeMetrics() {
	if c.config.Metrics == nil || !c.config.Metrics.Enabled || c.config.Metrics.Exporter == nil {
		c.metricsExporter = metrics.NewNoOpExporter()
		return
	}

	c.metricsExporter = c.config.Metrics.Exporter

	c.metricsLabels = make(metrics.Labels)
	if c.config.Metrics.CacheName != "" {
		c.metricsLabels["cache_name"] = c.config.Metrics.CacheName
	} else {
		c.metricsLabels["cache_name"] = "default"
	}
	for k, v := range c.config.Metrics.Labels {
		c.metricsLabels[k] = v
	}

	if c.config.Metrics.ReportingInterval > 0 {
		c.metricsStop = make(chan struct{})
		c.metricsWg.Add(1)
		go c.metricsReporter()
	}
}

func (c *Cache) metricsReporter() {
	defer c.metricsWg.Done()

	ticker := time.NewTicker(c.config.Metrics.ReportingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.exportCurrentStats()
		case <-c.metricsStop:
			// Final stats export before shutting down.
			c.exportCurrentStats()
			return
		}
	}
}

func (c *Cache) exportCurrentStats() {
	c.updateKeyCount()
	if err := c.metricsExporter.ExportStats(c.stats, c.metricsLabels); err != nil {
		c.logger.Warn().Err(err).Msg("metrics export failed")
	}
}

func (c *Cache) recordCacheOperation(operation metrics.Operation, duration time.Duration) {
	if c.metricsExporter == nil {
		return
	}
	if err := c.metricsExporter.RecordCacheOperation(operation, duration, c.metricsLabels); err != nil {
		c.logger.Debug().Err(err).Str("operation", string(operation)).Msg("metrics record failed")
	}
}
