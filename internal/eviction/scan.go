package eviction

import (
	"sync"
	"time"

	"github.com/vnykmshr/i18ncache-go/internal/entry"
)

// victimFunc reports whether candidate should be evicted in preference to
// the current best victim. now is a single clock reading for the whole scan.
type victimFunc func(now time.Time, candidate, best *entry.Entry) bool

// scanStrategy is a map-backed container that picks its eviction victim by
// scanning all entries with a policy-specific comparison. Capacities are
// small enough (config caps at 10000) that a linear scan per over-capacity
// insert is cheaper than maintaining a secondary ordering structure.
type scanStrategy struct {
	entries  map[string]*entry.Entry
	capacity int
	worse    victimFunc
	mutex    sync.RWMutex
}

func newScanStrategy(capacity int, worse victimFunc) *scanStrategy {
	return &scanStrategy{
		entries:  make(map[string]*entry.Entry, capacity),
		capacity: capacity,
		worse:    worse,
	}
}

// Add inserts or replaces an entry, evicting exactly one victim when the
// insert would push the container over capacity.
func (s *scanStrategy) Add(key string, e *entry.Entry) (string, *entry.Entry, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, replacing := s.entries[key]
	if !replacing && s.capacity > 0 && len(s.entries) >= s.capacity {
		victimKey, victim := s.selectVictim()
		if victim != nil {
			delete(s.entries, victimKey)
			s.entries[key] = e
			return victimKey, victim, true
		}
	}

	s.entries[key] = e
	return "", nil, false
}

func (s *scanStrategy) selectVictim() (string, *entry.Entry) {
	now := time.Now()
	var bestKey string
	var best *entry.Entry
	for k, e := range s.entries {
		if best == nil || s.worse(now, e, best) {
			bestKey = k
			best = e
		}
	}
	return bestKey, best
}

// Get retrieves an entry. Access bookkeeping lives on the entry itself
// (hit counter, last access), so scan strategies need no reordering here.
func (s *scanStrategy) Get(key string) (*entry.Entry, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	e, ok := s.entries[key]
	return e, ok
}

// Remove removes an entry from the container.
func (s *scanStrategy) Remove(key string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// Contains checks if a key exists in the container.
func (s *scanStrategy) Contains(key string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	_, ok := s.entries[key]
	return ok
}

// Keys returns all keys currently held.
func (s *scanStrategy) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of entries currently held.
func (s *scanStrategy) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.entries)
}

// Clear removes all entries from the container.
func (s *scanStrategy) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.entries = make(map[string]*entry.Entry, s.capacity)
}

// Capacity returns the maximum number of entries this strategy can hold.
func (s *scanStrategy) Capacity() int {
	return s.capacity
}

// Peek retrieves an entry without side effects.
func (s *scanStrategy) Peek(key string) (*entry.Entry, bool) {
	return s.Get(key)
}
