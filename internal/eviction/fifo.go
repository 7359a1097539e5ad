package eviction

import (
	"time"

	"github.com/vnykmshr/i18ncache-go/internal/entry"
)

// FIFOStrategy implements first-in-first-out eviction: the oldest written
// entry goes first, regardless of access history.
type FIFOStrategy struct {
	*scanStrategy
}

// NewFIFOStrategy creates a new FIFO eviction strategy.
func NewFIFOStrategy(capacity int) *FIFOStrategy {
	return &FIFOStrategy{
		scanStrategy: newScanStrategy(capacity, func(_ time.Time, candidate, best *entry.Entry) bool {
			return candidate.Timestamp.Before(best.Timestamp)
		}),
	}
}
