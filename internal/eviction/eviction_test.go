package eviction

import (
	"fmt"
	"testing"
	"time"

	"github.com/vnykmshr/i18ncache-go/internal/entry"
)

func TestNewStrategyDefaultsToLRU(t *testing.T) {
	s := NewStrategy(Config{Type: "unknown", Capacity: 10})
	if _, ok := s.(*LRUStrategy); !ok {
		t.Fatalf("Expected fallback to LRU, got %T", s)
	}
}

func TestFIFOIgnoresAccess(t *testing.T) {
	s := NewFIFOStrategy(2)

	s.Add("en:common", entry.New("v1", time.Hour))
	time.Sleep(time.Millisecond)
	s.Add("de:common", entry.New("v2", time.Hour))

	// Reading the oldest entry must not protect it under FIFO
	if _, ok := s.Get("en:common"); !ok {
		t.Fatal("Expected en:common to be present")
	}

	evictKey, _, evicted := s.Add("fr:common", entry.New("v3", time.Hour))
	if !evicted {
		t.Fatal("Expected an eviction when exceeding capacity")
	}
	if evictKey != "en:common" {
		t.Fatalf("Expected oldest insertion en:common to be evicted, got %s", evictKey)
	}
	if s.Len() != 2 {
		t.Fatalf("Expected size 2 after eviction, got %d", s.Len())
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	s := NewLRUStrategy(2)

	s.Add("en:common", entry.New("v1", time.Hour))
	s.Add("de:common", entry.New("v2", time.Hour))

	// Reading en:common makes de:common the LRU victim
	if _, ok := s.Get("en:common"); !ok {
		t.Fatal("Expected en:common to be present")
	}

	evictKey, _, evicted := s.Add("fr:common", entry.New("v3", time.Hour))
	if !evicted {
		t.Fatal("Expected an eviction when exceeding capacity")
	}
	if evictKey != "de:common" {
		t.Fatalf("Expected de:common to be evicted, got %s", evictKey)
	}
}

func TestLFUEvictsLeastFrequentlyUsed(t *testing.T) {
	s := NewLFUStrategy(2)

	hot := entry.New("v1", time.Hour)
	s.Add("en:common", hot)
	time.Sleep(time.Millisecond)
	s.Add("de:common", entry.New("v2", time.Hour))

	hot.Touch()
	hot.Touch()

	evictKey, evictedEntry, evicted := s.Add("fr:common", entry.New("v3", time.Hour))
	if !evicted {
		t.Fatal("Expected an eviction when exceeding capacity")
	}
	if evictKey != "de:common" {
		t.Fatalf("Expected the zero-hit entry de:common to be evicted, got %s", evictKey)
	}
	if evictedEntry == nil || evictedEntry.Data != "v2" {
		t.Fatal("Expected the evicted entry to be returned")
	}
}

func TestLFUBreaksTiesByAge(t *testing.T) {
	s := NewLFUStrategy(2)

	s.Add("en:common", entry.New("v1", time.Hour))
	time.Sleep(time.Millisecond)
	s.Add("de:common", entry.New("v2", time.Hour))

	// Both have zero hits; the older insertion loses
	evictKey, _, evicted := s.Add("fr:common", entry.New("v3", time.Hour))
	if !evicted {
		t.Fatal("Expected an eviction when exceeding capacity")
	}
	if evictKey != "en:common" {
		t.Fatalf("Expected the older zero-hit entry to be evicted, got %s", evictKey)
	}
}

func TestTTLEvictsClosestToExpiry(t *testing.T) {
	s := NewTTLStrategy(2)

	s.Add("short", entry.New("v1", time.Minute))
	s.Add("long", entry.New("v2", time.Hour))
	s.Add("none", entry.New("v3", 0))

	// "none" never expires and must outrank both limited entries
	if s.Contains("short") {
		t.Fatal("Expected the entry closest to expiry to be evicted first")
	}
	if !s.Contains("long") || !s.Contains("none") {
		t.Fatal("Expected long and none to survive")
	}
}

func TestAddEvictsAtMostOne(t *testing.T) {
	for _, typ := range []Type{LRU, LFU, FIFO, TTL} {
		t.Run(string(typ), func(t *testing.T) {
			s := NewStrategy(Config{Type: typ, Capacity: 3})
			evictions := 0
			for i := 0; i < 20; i++ {
				_, _, evicted := s.Add(fmt.Sprintf("key%d", i), entry.New(i, time.Hour))
				if evicted {
					evictions++
				}
				if s.Len() > 3 {
					t.Fatalf("Size %d exceeded capacity 3", s.Len())
				}
			}
			// The first 3 inserts fit, every later insert evicts exactly one
			if evictions != 17 {
				t.Fatalf("Expected 17 evictions, got %d", evictions)
			}
		})
	}
}

func TestReplaceDoesNotEvict(t *testing.T) {
	for _, typ := range []Type{LRU, LFU, FIFO, TTL} {
		t.Run(string(typ), func(t *testing.T) {
			s := NewStrategy(Config{Type: typ, Capacity: 2})
			s.Add("en:common", entry.New("v1", time.Hour))
			s.Add("de:common", entry.New("v2", time.Hour))

			_, _, evicted := s.Add("en:common", entry.New("v1-updated", time.Hour))
			if evicted {
				t.Fatal("Replacing an existing key must not evict")
			}
			if s.Len() != 2 {
				t.Fatalf("Expected size 2 after replace, got %d", s.Len())
			}
			e, ok := s.Peek("en:common")
			if !ok || e.Data != "v1-updated" {
				t.Fatal("Expected replaced value to be stored")
			}
		})
	}
}

func TestRemoveAndClear(t *testing.T) {
	s := NewLFUStrategy(4)
	s.Add("a", entry.New(1, 0))
	s.Add("b", entry.New(2, 0))

	if !s.Remove("a") {
		t.Fatal("Expected Remove to report true for a present key")
	}
	if s.Remove("a") {
		t.Fatal("Expected Remove to report false for an absent key")
	}

	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Expected empty strategy after Clear, got %d entries", s.Len())
	}
	if len(s.Keys()) != 0 {
		t.Fatal("Expected no keys after Clear")
	}
}

func TestPeekDoesNotPromote(t *testing.T) {
	s := NewLRUStrategy(2)
	s.Add("en:common", entry.New("v1", time.Hour))
	s.Add("de:common", entry.New("v2", time.Hour))

	// Peek must not refresh recency; en:common stays the LRU victim
	if _, ok := s.Peek("en:common"); !ok {
		t.Fatal("Expected Peek to find en:common")
	}

	evictKey, _, evicted := s.Add("fr:common", entry.New("v3", time.Hour))
	if !evicted || evictKey != "en:common" {
		t.Fatalf("Expected en:common to be evicted after Peek, got %q", evictKey)
	}
}
