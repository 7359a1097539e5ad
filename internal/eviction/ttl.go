package eviction

import (
	"time"

	"github.com/vnykmshr/i18ncache-go/internal/entry"
)

// TTLStrategy evicts the entry closest to expiry, regardless of access
// pattern. Entries without a TTL rank last.
type TTLStrategy struct {
	*scanStrategy
}

// NewTTLStrategy creates a new TTL-ordered eviction strategy.
func NewTTLStrategy(capacity int) *TTLStrategy {
	return &TTLStrategy{
		scanStrategy: newScanStrategy(capacity, func(now time.Time, candidate, best *entry.Entry) bool {
			return candidate.RemainingAt(now) < best.RemainingAt(now)
		}),
	}
}
