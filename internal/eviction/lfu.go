package eviction

import (
	"time"

	"github.com/vnykmshr/i18ncache-go/internal/entry"
)

// LFUStrategy implements least-frequently-used eviction: the entry with
// the fewest hits goes first, ties broken by the oldest write timestamp.
type LFUStrategy struct {
	*scanStrategy
}

// NewLFUStrategy creates a new LFU eviction strategy.
func NewLFUStrategy(capacity int) *LFUStrategy {
	return &LFUStrategy{
		scanStrategy: newScanStrategy(capacity, func(_ time.Time, candidate, best *entry.Entry) bool {
			ch, bh := candidate.Hits(), best.Hits()
			if ch != bh {
				return ch < bh
			}
			return candidate.Timestamp.Before(best.Timestamp)
		}),
	}
}
