package eviction

import (
	"github.com/vnykmshr/i18ncache-go/internal/entry"
)

// Strategy defines the interface for eviction strategies. A strategy owns
// the entry container: the cache stores entries through it and the strategy
// decides which single entry to give up when capacity is exceeded.
type Strategy interface {
	// Add adds an entry to the strategy's container.
	// Returns the key and entry of the evicted item if capacity was exceeded.
	// At most one entry is evicted per Add.
	Add(key string, e *entry.Entry) (evictKey string, evictedEntry *entry.Entry, evicted bool)

	// Get retrieves an entry and updates its position in the eviction order
	// for strategies that track access recency.
	Get(key string) (*entry.Entry, bool)

	// Remove removes an entry from the container.
	Remove(key string) bool

	// Contains checks if a key exists without affecting eviction order.
	Contains(key string) bool

	// Keys returns all keys currently held.
	Keys() []string

	// Len returns the number of entries currently held.
	Len() int

	// Clear removes all entries.
	Clear()

	// Capacity returns the maximum number of entries this strategy can hold.
	Capacity() int

	// Peek retrieves an entry without updating its eviction order.
	Peek(key string) (*entry.Entry, bool)
}

// Type identifies an eviction strategy.
type Type string

const (
	// LRU evicts the entry with the oldest last access.
	LRU Type = "lru"

	// LFU evicts the entry with the fewest hits, ties broken by age.
	LFU Type = "lfu"

	// FIFO evicts the oldest written entry regardless of access history.
	FIFO Type = "fifo"

	// TTL evicts the entry closest to expiry regardless of access pattern.
	TTL Type = "ttl"
)

// Config holds configuration for eviction strategies.
type Config struct {
	Type     Type
	Capacity int
}

// NewStrategy creates an eviction strategy from the given config.
// An unrecognized type falls back to LRU.
func NewStrategy(config Config) Strategy {
	switch config.Type {
	case LFU:
		return NewLFUStrategy(config.Capacity)
	case FIFO:
		return NewFIFOStrategy(config.Capacity)
	case TTL:
		return NewTTLStrategy(config.Capacity)
	case LRU:
		return NewLRUStrategy(config.Capacity)
	default:
		return NewLRUStrategy(config.Capacity)
	}
}
