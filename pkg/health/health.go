// Package health derives a health verdict for a translation cache from
// its sliding-window statistics and current occupancy. A checker runs on
// a fixed interval independent of request traffic, and can also be asked
// for a report on demand.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/i18ncache-go/pkg/events"
)

// Source is the view of a cache the checker inspects. *i18ncache.Cache
// satisfies it.
type Source interface {
	// WindowStats returns event rates over the sliding stats window.
	WindowStats() events.WindowStats

	// Len returns the current number of entries.
	Len() int

	// MaxSize returns the configured entry bound.
	MaxSize() int
}

// Performance summarizes the rates backing a health verdict.
type Performance struct {
	HitRate         float64
	AverageLoadTime time.Duration
	ErrorRate       float64
}

// Report is one health verdict with its supporting evidence.
type Report struct {
	Healthy         bool
	Issues          []string
	Performance     Performance
	Recommendations []string
	CheckedAt       time.Time
}

// Config tunes the checker's thresholds.
type Config struct {
	// Interval between periodic checks. Defaults to 5 minutes.
	Interval time.Duration

	// HitRateFloor below which the cache is unhealthy, once there has
	// been any lookup traffic. Defaults to 0.5.
	HitRateFloor float64

	// ErrorRateCeiling above which the cache is unhealthy. Defaults
	// to 0.1.
	ErrorRateCeiling float64

	// FullChecks is how many consecutive checks at maximum occupancy
	// count as thrashing. Defaults to 2.
	FullChecks int

	// Logger receives periodic verdicts. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// NewDefaultConfig returns the default health thresholds.
func NewDefaultConfig() *Config {
	return &Config{
		Interval:         5 * time.Minute,
		HitRateFloor:     0.5,
		ErrorRateCeiling: 0.1,
		FullChecks:       2,
		Logger:           zerolog.Nop(),
	}
}

// Checker produces health reports for one cache.
type Checker struct {
	source Source
	config *Config

	mu              sync.Mutex
	consecutiveFull int
	lastReport      *Report
}

// NewChecker creates a checker over the given source.
func NewChecker(source Source, config *Config) *Checker {
	if config == nil {
		config = NewDefaultConfig()
	}
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if config.FullChecks <= 0 {
		config.FullChecks = 2
	}
	return &Checker{source: source, config: config}
}

// Check produces a report on demand.
func (c *Checker) Check() Report {
	stats := c.source.WindowStats()
	size := c.source.Len()
	maxSize := c.source.MaxSize()

	report := Report{
		Healthy: true,
		Performance: Performance{
			HitRate:         stats.HitRate,
			AverageLoadTime: stats.AverageLoadTime,
			ErrorRate:       stats.ErrorRate,
		},
		CheckedAt: time.Now(),
	}

	lookups := stats.Hits + stats.Misses
	if lookups > 0 && stats.HitRate < c.config.HitRateFloor {
		report.Healthy = false
		report.Issues = append(report.Issues,
			fmt.Sprintf("hit rate %.2f is below the %.2f floor", stats.HitRate, c.config.HitRateFloor))
		report.Recommendations = append(report.Recommendations,
			"increase the TTL or preload the locales your users actually request")
	}

	if stats.Loads > 0 && stats.ErrorRate > c.config.ErrorRateCeiling {
		report.Healthy = false
		report.Issues = append(report.Issues,
			fmt.Sprintf("load error rate %.2f is above the %.2f ceiling", stats.ErrorRate, c.config.ErrorRateCeiling))
		report.Recommendations = append(report.Recommendations,
			"check the translation backend; loads are failing")
	}

	c.mu.Lock()
	if maxSize > 0 && size >= maxSize {
		c.consecutiveFull++
	} else {
		c.consecutiveFull = 0
	}
	full := c.consecutiveFull
	c.mu.Unlock()

	if full >= c.config.FullChecks {
		report.Healthy = false
		report.Issues = append(report.Issues,
			fmt.Sprintf("cache has been at its %d-entry bound for %d consecutive checks", maxSize, full))
		report.Recommendations = append(report.Recommendations,
			"raise maxSize or narrow the preloaded locale set; the cache is thrashing")
	}

	c.mu.Lock()
	c.lastReport = &report
	c.mu.Unlock()

	return report
}

// LastReport returns the most recent report, or false when no check has
// run yet.
func (c *Checker) LastReport() (Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastReport == nil {
		return Report{}, false
	}
	return *c.lastReport, true
}

// Run checks on the configured interval until the context is cancelled.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			report := c.Check()
			if report.Healthy {
				c.config.Logger.Debug().Msg("cache healthy")
			} else {
				c.config.Logger.Warn().
					Strs("issues", report.Issues).
					Msg("cache unhealthy")
			}
		case <-ctx.Done():
			return
		}
	}
}
