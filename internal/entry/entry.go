// Package entry defines the cache item type shared by the store and the
// eviction strategies.
package entry

import (
	"math"
	"sync/atomic"
	"time"
)

// Entry is a single cached translation value with its expiry and access
// bookkeeping. Entries are owned by the cache; callers receive copies of
// the data, never the entry itself.
type Entry struct {
	// Data is the cached payload.
	Data any

	// Timestamp is when the entry was created or last replaced.
	Timestamp time.Time

	// TTLValue is how long the entry stays fresh after Timestamp.
	// Zero means the entry never expires.
	TTLValue time.Duration

	// lastAccess is when the entry was last read, as unix nanos.
	// Updated on Get hits only, not on Set, so access ordering
	// reflects reads. Atomic because hits on the same entry race.
	lastAccess atomic.Int64

	// hits counts successful reads of this entry.
	hits atomic.Int64
}

// New creates an entry with the given TTL, timestamped now.
func New(data any, ttl time.Duration) *Entry {
	now := time.Now()
	e := &Entry{
		Data:      data,
		Timestamp: now,
		TTLValue:  ttl,
	}
	e.lastAccess.Store(now.UnixNano())
	return e
}

// NewWithoutTTL creates an entry that never expires.
func NewWithoutTTL(data any) *Entry {
	return New(data, 0)
}

// Restore rebuilds an entry from persisted state, keeping its original
// timestamp and hit count so expiry and LFU ordering survive a restart.
func Restore(data any, timestamp time.Time, ttl time.Duration, hits int64) *Entry {
	e := &Entry{
		Data:      data,
		Timestamp: timestamp,
		TTLValue:  ttl,
	}
	e.lastAccess.Store(timestamp.UnixNano())
	e.hits.Store(hits)
	return e
}

// IsExpired reports whether the entry's age has exceeded its TTL.
// An entry is still fresh at exactly age == TTL and stale one instant after.
func (e *Entry) IsExpired() bool {
	return e.IsExpiredAt(time.Now())
}

// IsExpiredAt reports expiry relative to the given clock reading.
func (e *Entry) IsExpiredAt(now time.Time) bool {
	if e.TTLValue <= 0 {
		return false
	}
	return now.Sub(e.Timestamp) > e.TTLValue
}

// Age returns how long ago the entry was written.
func (e *Entry) Age() time.Duration {
	return time.Since(e.Timestamp)
}

// Remaining returns the time left before expiry. Entries without a TTL
// report the maximum duration so TTL-ordered eviction ranks them last.
func (e *Entry) Remaining() time.Duration {
	return e.RemainingAt(time.Now())
}

// RemainingAt returns the time left before expiry at the given clock reading.
func (e *Entry) RemainingAt(now time.Time) time.Duration {
	if e.TTLValue <= 0 {
		return time.Duration(math.MaxInt64)
	}
	return e.TTLValue - now.Sub(e.Timestamp)
}

// Touch records a successful read: increments the hit counter and moves
// the access time forward. Safe for concurrent hits on the same entry.
func (e *Entry) Touch() {
	e.hits.Add(1)
	e.lastAccess.Store(time.Now().UnixNano())
}

// LastAccess returns when the entry was last read.
func (e *Entry) LastAccess() time.Time {
	return time.Unix(0, e.lastAccess.Load())
}

// Hits returns the number of successful reads of this entry.
func (e *Entry) Hits() int64 {
	return e.hits.Load()
}
