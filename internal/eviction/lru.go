package eviction

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vnykmshr/i18ncache-go/internal/entry"
)

// LRUStrategy implements least-recently-used eviction on top of
// hashicorp/golang-lru. Reads mark entries as recently used; a replaced
// entry counts as a fresh write and moves to the recent end, matching the
// rule that a Set recreates the item.
type LRUStrategy struct {
	cache        *lru.Cache[string, *entry.Entry]
	capacity     int
	mutex        sync.RWMutex
	evictedKey   string
	evictedValue *entry.Entry
}

// NewLRUStrategy creates a new LRU eviction strategy.
func NewLRUStrategy(capacity int) *LRUStrategy {
	s := &LRUStrategy{
		capacity: capacity,
	}

	cache, err := lru.NewWithEvict[string, *entry.Entry](capacity, func(key string, value *entry.Entry) {
		// Stash the victim so Add can report it.
		s.evictedKey = key
		s.evictedValue = value
	})
	if err != nil {
		// Capacity is validated by the cache config before this point.
		panic("failed to create LRU cache: " + err.Error())
	}

	s.cache = cache
	return s
}

// Add adds an entry to the LRU tracker.
func (l *LRUStrategy) Add(key string, e *entry.Entry) (string, *entry.Entry, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.evictedKey = ""
	l.evictedValue = nil

	evicted := l.cache.Add(key, e)

	return l.evictedKey, l.evictedValue, evicted
}

// Get retrieves an entry and marks it as recently used.
func (l *LRUStrategy) Get(key string) (*entry.Entry, bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.cache.Get(key)
}

// Remove removes an entry from the LRU tracker.
func (l *LRUStrategy) Remove(key string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.cache.Remove(key)
}

// Contains checks if a key exists in the LRU tracker.
func (l *LRUStrategy) Contains(key string) bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.cache.Contains(key)
}

// Keys returns all keys currently tracked by the LRU strategy.
func (l *LRUStrategy) Keys() []string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.cache.Keys()
}

// Len returns the number of entries currently tracked.
func (l *LRUStrategy) Len() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.cache.Len()
}

// Clear removes all entries from the LRU tracker.
func (l *LRUStrategy) Clear() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.cache.Purge()
}

// Capacity returns the maximum number of entries this strategy can hold.
func (l *LRUStrategy) Capacity() int {
	return l.capacity
}

// Peek retrieves an entry without marking it as recently used.
func (l *LRUStrategy) Peek(key string) (*entry.Entry, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.cache.Peek(key)
}
