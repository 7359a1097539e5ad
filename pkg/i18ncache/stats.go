package i18ncache

import (
	"sync/atomic"
	"time"
)

// Stats tracks cumulative cache counters since construction. All methods
// are safe for concurrent use. Stats implements metrics.Stats.
type Stats struct {
	hits          atomic.Int64
	misses        atomic.Int64
	evictions     atomic.Int64
	invalidations atomic.Int64
	expirations   atomic.Int64
	keyCount      atomic.Int64
	inFlight      atomic.Int64
}

func (s *Stats) incHits()          { s.hits.Add(1) }
func (s *Stats) incMisses()        { s.misses.Add(1) }
func (s *Stats) incEvictions()     { s.evictions.Add(1) }
func (s *Stats) incInvalidations() { s.invalidations.Add(1) }
func (s *Stats) incExpirations()   { s.expirations.Add(1) }

func (s *Stats) setKeyCount(n int64) { s.keyCount.Store(n) }
func (s *Stats) incInFlight()        { s.inFlight.Add(1) }
func (s *Stats) decInFlight()        { s.inFlight.Add(-1) }

// Hits returns the total number of cache hits.
func (s *Stats) Hits() int64 { return s.hits.Load() }

// Misses returns the total number of cache misses.
func (s *Stats) Misses() int64 { return s.misses.Load() }

// Evictions returns the number of entries evicted for capacity.
func (s *Stats) Evictions() int64 { return s.evictions.Load() }

// Invalidations returns the number of explicit deletes and clears.
func (s *Stats) Invalidations() int64 { return s.invalidations.Load() }

// Expirations returns the number of entries removed because their TTL
// lapsed.
func (s *Stats) Expirations() int64 { return s.expirations.Load() }

// KeyCount returns the current number of cached bundles.
func (s *Stats) KeyCount() int64 { return s.keyCount.Load() }

// InFlight returns the number of loader invocations currently running.
func (s *Stats) InFlight() int64 { return s.inFlight.Load() }

// HitRate returns hits/(hits+misses) in [0, 1], 0 when there have been no
// lookups.
func (s *Stats) HitRate() float64 {
	hits := s.hits.Load()
	total := hits + s.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// CacheStats is a point-in-time snapshot derived from the current entry
// set. It is recomputed on every call and never persisted.
type CacheStats struct {
	// Size is the current number of cached bundles.
	Size int

	// TotalHits is the sum of hit counts across all current entries.
	TotalHits int64

	// AverageAge is the mean age of current entries, zero for an empty
	// cache.
	AverageAge time.Duration
}
