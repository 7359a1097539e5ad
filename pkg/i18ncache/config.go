package i18ncache

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/i18ncache-go/internal/eviction"
	"github.com/vnykmshr/i18ncache-go/pkg/compression"
	"github.com/vnykmshr/i18ncache-go/pkg/metrics"
	"github.com/vnykmshr/i18ncache-go/pkg/persist"
)

// Configuration bounds enforced by the validator.
const (
	MinMaxSize = 10
	MaxMaxSize = 10000
	MinTTL     = time.Second
	MaxTTL     = 24 * time.Hour
)

// Messages is a flat bundle of translated strings for one locale and
// namespace.
type Messages map[string]string

// Loader fetches a message bundle from the translation backend. The cache
// treats any returned error as a load failure. Loaders must be idempotent
// and side-effect-free from the cache's perspective, and should honor
// context cancellation.
type Loader func(ctx context.Context, locale, namespace string) (Messages, error)

// MetricsConfig controls metrics export for one cache instance.
type MetricsConfig struct {
	// Exporter receives stats snapshots and operation timings.
	Exporter metrics.Exporter

	// Enabled turns export on.
	Enabled bool

	// CacheName labels this cache's metrics.
	CacheName string

	// Labels are added to every exported metric.
	Labels metrics.Labels

	// ReportingInterval is how often stats snapshots are pushed.
	// Zero disables the periodic reporter.
	ReportingInterval time.Duration
}

// Config configures a Cache. Build it with NewDefaultConfig and the With
// methods; New validates it and rejects invalid configs wholesale.
// The cache takes a snapshot at construction, so a Config must not be
// mutated after being passed to New.
type Config struct {
	// MaxSize bounds the number of cached bundles, within
	// [MinMaxSize, MaxMaxSize].
	MaxSize int

	// DefaultTTL applies to Set calls without an explicit TTL, within
	// [MinTTL, MaxTTL]. TTLs above MaxTTL validate with a warning only.
	DefaultTTL time.Duration

	// EvictionType selects the eviction strategy. Defaults to LRU.
	EvictionType eviction.Type

	// CleanupInterval enables an eager expiry sweep at this interval.
	// Zero leaves expiry lazy, checked on access.
	CleanupInterval time.Duration

	// EnablePersistence mirrors the entry set to Persistence under
	// StorageKey.
	EnablePersistence bool

	// StorageKey names the persisted snapshot.
	StorageKey string

	// Persistence is the blob store snapshots go to. Required when
	// EnablePersistence is set.
	Persistence persist.Store

	// Loader backs GetOrLoad. Optional.
	Loader Loader

	// LoadTimeout bounds each individual loader invocation.
	LoadTimeout time.Duration

	// StatsWindow is the sliding window for hit-rate and error-rate
	// calculations.
	StatsWindow time.Duration

	// Compression applies to persisted snapshots only.
	Compression *compression.Config

	// Metrics configures export to monitoring backends.
	Metrics *MetricsConfig

	// Logger receives degraded-mode diagnostics. Defaults to a no-op
	// logger.
	Logger zerolog.Logger
}

// NewDefaultConfig returns a config with sensible defaults: 1000 bundles,
// 1 hour TTL, LRU eviction, 5 second load timeout, persistence off.
func NewDefaultConfig() *Config {
	return &Config{
		MaxSize:      1000,
		DefaultTTL:   time.Hour,
		EvictionType: eviction.LRU,
		StorageKey:   "i18ncache",
		LoadTimeout:  5 * time.Second,
		StatsWindow:  5 * time.Minute,
		Logger:       zerolog.Nop(),
	}
}

// NewSimpleConfig returns a minimal config with the given size and TTL.
func NewSimpleConfig(maxSize int, defaultTTL time.Duration) *Config {
	config := NewDefaultConfig()
	config.MaxSize = maxSize
	config.DefaultTTL = defaultTTL
	return config
}

// WithMaxSize sets the entry bound.
func (c *Config) WithMaxSize(n int) *Config {
	c.MaxSize = n
	return c
}

// WithDefaultTTL sets the default entry TTL.
func (c *Config) WithDefaultTTL(ttl time.Duration) *Config {
	c.DefaultTTL = ttl
	return c
}

// WithEvictionType selects the eviction strategy.
func (c *Config) WithEvictionType(t eviction.Type) *Config {
	c.EvictionType = t
	return c
}

// WithCleanupInterval enables the eager expiry sweep.
func (c *Config) WithCleanupInterval(d time.Duration) *Config {
	c.CleanupInterval = d
	return c
}

// WithPersistence enables snapshot mirroring to the given store.
func (c *Config) WithPersistence(store persist.Store, storageKey string) *Config {
	c.EnablePersistence = true
	c.Persistence = store
	if storageKey != "" {
		c.StorageKey = storageKey
	}
	return c
}

// WithLoader sets the loader backing GetOrLoad.
func (c *Config) WithLoader(loader Loader) *Config {
	c.Loader = loader
	return c
}

// WithLoadTimeout bounds each loader invocation.
func (c *Config) WithLoadTimeout(d time.Duration) *Config {
	c.LoadTimeout = d
	return c
}

// WithStatsWindow sets the sliding stats window span.
func (c *Config) WithStatsWindow(d time.Duration) *Config {
	c.StatsWindow = d
	return c
}

// WithCompression configures snapshot compression.
func (c *Config) WithCompression(cfg *compression.Config) *Config {
	c.Compression = cfg
	return c
}

// WithMetrics configures metrics export.
func (c *Config) WithMetrics(cfg *MetricsConfig) *Config {
	c.Metrics = cfg
	return c
}

// WithLogger sets the diagnostics logger.
func (c *Config) WithLogger(logger zerolog.Logger) *Config {
	c.Logger = logger
	return c
}
