package i18ncache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/i18ncache-go/internal/eviction"
	"github.com/vnykmshr/i18ncache-go/pkg/cachekey"
	"github.com/vnykmshr/i18ncache-go/pkg/events"
	"github.com/vnykmshr/i18ncache-go/pkg/persist"
)

func TestBasicSetAndGet(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	key := cachekey.Create("en-US", "common", "")
	bundle := Messages{"welcome": "Welcome!", "goodbye": "Goodbye!"}

	if err := cache.Set(key, bundle, TestTTL); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, found, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("Expected a hit")
	}
	msgs, ok := value.(Messages)
	if !ok {
		t.Fatalf("Expected Messages, got %T", value)
	}
	if msgs["welcome"] != "Welcome!" {
		t.Fatalf("Expected welcome message, got %q", msgs["welcome"])
	}
}

func TestGetMalformedKey(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	_, _, err = cache.Get("")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError for empty key, got %v", err)
	}
	if verr.Code != CodeValidation {
		t.Fatalf("Expected code %s, got %s", CodeValidation, verr.Code)
	}
}

func TestExpiredEntryRemovedOnce(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	var expires int32
	cache.On(events.TypeExpire, func(_ events.Event) { atomic.AddInt32(&expires, 1) })

	key := cachekey.Create("en-US", "common", "")
	_ = cache.Set(key, Messages{"k": "v"}, TestShortTTL)

	time.Sleep(3 * TestShortTTL)

	// First access finds the entry expired: removed, one expire event
	_, found, _ := cache.Get(key)
	if found {
		t.Fatal("Expected a miss for an expired entry")
	}
	if atomic.LoadInt32(&expires) != 1 {
		t.Fatalf("Expected 1 expire event, got %d", expires)
	}
	if cache.Counters().Expirations() != 1 {
		t.Fatalf("Expected 1 recorded expiration, got %d", cache.Counters().Expirations())
	}

	// Second access is a plain miss, no second expiry
	_, found, _ = cache.Get(key)
	if found {
		t.Fatal("Expected a miss")
	}
	if atomic.LoadInt32(&expires) != 1 {
		t.Fatalf("Expected still 1 expire event, got %d", expires)
	}
	if cache.Has(key) {
		t.Fatal("Expected Has to be false after expiry")
	}
}

func TestConcurrentExpiryRecordedOnce(t *testing.T) {
	const rounds = 50
	const goroutines = 8

	for round := 0; round < rounds; round++ {
		cache, err := New(NewDefaultConfig())
		if err != nil {
			t.Fatalf("Failed to create cache: %v", err)
		}

		var expires int32
		cache.On(events.TypeExpire, func(_ events.Event) { atomic.AddInt32(&expires, 1) })

		key := cachekey.Create("en-US", "common", "")
		_ = cache.Set(key, Messages{"k": "v"}, TestShortTTL)
		time.Sleep(2 * TestShortTTL)

		// All goroutines find the entry expired at once; only one
		// removal wins and records the expiry
		var wg sync.WaitGroup
		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				cache.Get(key)
			}()
		}
		wg.Wait()

		if got := atomic.LoadInt32(&expires); got > 1 {
			t.Fatalf("Round %d: expected at most 1 expire event, got %d", round, got)
		}
		if got := cache.Counters().Expirations(); got > 1 {
			t.Fatalf("Round %d: expected at most 1 recorded expiration, got %d", round, got)
		}

		cache.Close()
	}
}

func TestConcurrentHitsOnOneKey(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	key := cachekey.Create("en-US", "common", "")
	_ = cache.Set(key, Messages{"k": "v"}, TestTTL)

	var wg sync.WaitGroup
	const goroutines = 2
	const reads = 1000

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < reads; j++ {
				if _, found, _ := cache.Get(key); !found {
					t.Error("Expected a hit on a warm key")
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := cache.Counters().Hits(); got != goroutines*reads {
		t.Fatalf("Expected %d hits, got %d", goroutines*reads, got)
	}
}

func TestEvictionBoundedByMaxSize(t *testing.T) {
	config := NewDefaultConfig().WithMaxSize(MinMaxSize).WithEvictionType(eviction.FIFO)
	cache, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	var evictReasons int32
	cache.On(events.TypeDelete, func(ev events.Event) {
		if ev.Metadata != nil && ev.Metadata["reason"] == "eviction" {
			atomic.AddInt32(&evictReasons, 1)
		}
	})

	for i := 0; i < MinMaxSize+1; i++ {
		key := cachekey.Create("en", fmt.Sprintf("ns%d", i), "")
		if err := cache.Set(key, Messages{"k": "v"}, TestTTL); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if cache.Len() > MinMaxSize {
			t.Fatalf("Size %d exceeded bound %d", cache.Len(), MinMaxSize)
		}
	}

	if cache.Len() != MinMaxSize {
		t.Fatalf("Expected size %d, got %d", MinMaxSize, cache.Len())
	}
	if got := cache.Counters().Evictions(); got != 1 {
		t.Fatalf("Expected exactly 1 eviction, got %d", got)
	}
	if atomic.LoadInt32(&evictReasons) != 1 {
		t.Fatalf("Expected 1 eviction-tagged delete event, got %d", evictReasons)
	}
	// FIFO: the first inserted bundle is the victim
	if cache.Has(cachekey.Create("en", "ns0", "")) {
		t.Fatal("Expected the oldest bundle to be evicted")
	}
}

func TestDelete(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	key := cachekey.Create("en", "common", "")
	_ = cache.Set(key, Messages{"k": "v"}, TestTTL)

	if !cache.Delete(key) {
		t.Fatal("Expected Delete to report true for a present key")
	}
	if cache.Delete(key) {
		t.Fatal("Expected Delete to report false for an absent key")
	}
	if cache.Counters().Invalidations() != 1 {
		t.Fatalf("Expected 1 invalidation, got %d", cache.Counters().Invalidations())
	}
}

func TestClearEmitsOneEvent(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	var clears int32
	cache.On(events.TypeClear, func(_ events.Event) { atomic.AddInt32(&clears, 1) })

	for i := 0; i < 5; i++ {
		_ = cache.Set(cachekey.Create("en", fmt.Sprintf("ns%d", i), ""), Messages{"k": "v"}, TestTTL)
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Fatalf("Expected empty cache, got %d entries", cache.Len())
	}
	if atomic.LoadInt32(&clears) != 1 {
		t.Fatalf("Expected 1 clear event, got %d", clears)
	}

	// Clearing again is a no-op but still reports completion
	cache.Clear()
	if atomic.LoadInt32(&clears) != 2 {
		t.Fatalf("Expected 2 clear events after second Clear, got %d", clears)
	}
}

func TestInvalidatePattern(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	_ = cache.Set("en:common", Messages{"k": "v"}, TestTTL)
	_ = cache.Set("en:errors", Messages{"k": "v"}, TestTTL)
	_ = cache.Set("de:common", Messages{"k": "v"}, TestTTL)

	removed := cache.InvalidatePattern(cachekey.CreatePattern("en", ""))
	if removed != 2 {
		t.Fatalf("Expected 2 invalidated bundles, got %d", removed)
	}
	if !cache.Has("de:common") {
		t.Fatal("Expected de:common to survive")
	}
}

func TestGetOrLoadSharesOneLoad(t *testing.T) {
	var loads int32
	config := NewDefaultConfig().WithLoader(func(_ context.Context, locale, namespace string) (Messages, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(TestSlowLoad)
		return Messages{"locale": locale, "namespace": namespace}, nil
	})

	cache, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	const concurrency = 10
	var wg sync.WaitGroup
	results := make([]Messages, concurrency)
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(i int) {
			defer wg.Done()
			msgs, err := cache.GetOrLoad(context.Background(), "de-DE", "checkout")
			if err != nil {
				t.Errorf("GetOrLoad failed: %v", err)
				return
			}
			results[i] = msgs
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("Expected one shared loader invocation, got %d", got)
	}
	for i, msgs := range results {
		if msgs["locale"] != "de-DE" {
			t.Fatalf("Result %d carries wrong bundle: %v", i, msgs)
		}
	}

	// A later call is a plain hit
	_, err = cache.GetOrLoad(context.Background(), "de-DE", "checkout")
	if err != nil {
		t.Fatalf("GetOrLoad after warm failed: %v", err)
	}
	if got := atomic.LoadInt32(&loads); got != 1 {
		t.Fatalf("Expected no further loads on a warm cache, got %d", got)
	}
}

func TestGetOrLoadTimeoutDiscardsLateResult(t *testing.T) {
	release := make(chan struct{})
	config := NewDefaultConfig().
		WithLoadTimeout(20 * time.Millisecond).
		WithLoader(func(_ context.Context, _, _ string) (Messages, error) {
			<-release
			return Messages{"late": "result"}, nil
		})

	cache, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	_, err = cache.GetOrLoad(context.Background(), "fr-FR", "common")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline error, got %v", err)
	}

	// Let the loader finish late and verify nothing was cached
	close(release)
	time.Sleep(20 * time.Millisecond)
	if cache.Has(cachekey.Create("fr-FR", "common", "")) {
		t.Fatal("Expected late loader result to be discarded, not cached")
	}
}

func TestGetOrLoadPropagatesLoaderError(t *testing.T) {
	loadErr := errors.New("backend unavailable")
	config := NewDefaultConfig().WithLoader(func(_ context.Context, _, _ string) (Messages, error) {
		return nil, loadErr
	})

	cache, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	_, err = cache.GetOrLoad(context.Background(), "ja", "common")
	if !errors.Is(err, loadErr) {
		t.Fatalf("Expected loader error, got %v", err)
	}
	if cache.Has(cachekey.Create("ja", "common", "")) {
		t.Fatal("Expected failed load to cache nothing")
	}
}

func TestGetOrLoadWithoutLoader(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	_, err = cache.GetOrLoad(context.Background(), "en", "common")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError without a loader, got %v", err)
	}
}

func TestHitRate(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	if rate := cache.Counters().HitRate(); rate != 0 {
		t.Fatalf("Expected 0 hit rate on a fresh cache, got %v", rate)
	}

	key := cachekey.Create("en", "common", "")
	_ = cache.Set(key, Messages{"k": "v"}, TestTTL)

	cache.Get(key) // hit
	cache.Get(key) // hit
	cache.Get("en:nonexistent") // miss

	rate := cache.Counters().HitRate()
	want := 2.0 / 3.0
	if rate != want {
		t.Fatalf("Expected hit rate %v, got %v", want, rate)
	}
	if rate < 0 || rate > 1 {
		t.Fatalf("Hit rate %v outside [0, 1]", rate)
	}
}

func TestTTLAndHas(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	key := cachekey.Create("en", "common", "")
	_ = cache.Set(key, Messages{"k": "v"}, TestTTL)

	remaining, ok := cache.TTL(key)
	if !ok {
		t.Fatal("Expected a TTL for a fresh entry")
	}
	if remaining <= 0 || remaining > TestTTL {
		t.Fatalf("Expected remaining TTL in (0, %v], got %v", TestTTL, remaining)
	}

	if _, ok := cache.TTL("en:absent"); ok {
		t.Fatal("Expected no TTL for an absent key")
	}
}

func TestCleanupRemovesExpired(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	_ = cache.Set("en:short", Messages{"k": "v"}, TestShortTTL)
	_ = cache.Set("en:long", Messages{"k": "v"}, TestTTL)

	time.Sleep(3 * TestShortTTL)

	removed := cache.Cleanup()
	if removed != 1 {
		t.Fatalf("Expected 1 expired entry removed, got %d", removed)
	}
	if !cache.Has("en:long") {
		t.Fatal("Expected fresh entry to survive cleanup")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	store := persist.NewMemoryStore()

	config := NewDefaultConfig().WithPersistence(store, "test-snapshot")
	cache, err := New(config)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}

	key := cachekey.Create("sv-SE", "common", "")
	_ = cache.Set(key, Messages{"hello": "Hej"}, TestTTL)
	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A new cache over the same store restores the snapshot
	restoredConfig := NewDefaultConfig().WithPersistence(store, "test-snapshot")
	restored, err := New(restoredConfig)
	if err != nil {
		t.Fatalf("Failed to create restored cache: %v", err)
	}
	defer restored.Close()

	value, found, err := restored.Get(key)
	if err != nil || !found {
		t.Fatalf("Expected restored entry, found=%v err=%v", found, err)
	}
	msgs, ok := value.(Messages)
	if !ok || msgs["hello"] != "Hej" {
		t.Fatalf("Expected restored bundle, got %v", value)
	}
}

func TestPersistenceSkipsExpiredEntries(t *testing.T) {
	store := persist.NewMemoryStore()

	cache, err := New(NewDefaultConfig().WithPersistence(store, "test-snapshot"))
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	_ = cache.Set("en:ephemeral", Messages{"k": "v"}, TestShortTTL)
	_ = cache.Set("en:durable", Messages{"k": "v"}, TestTTL)

	time.Sleep(3 * TestShortTTL)
	_ = cache.Close()

	restored, err := New(NewDefaultConfig().WithPersistence(store, "test-snapshot"))
	if err != nil {
		t.Fatalf("Failed to create restored cache: %v", err)
	}
	defer restored.Close()

	if restored.Has("en:ephemeral") {
		t.Fatal("Expected expired entry not to be restored")
	}
	if !restored.Has("en:durable") {
		t.Fatal("Expected fresh entry to be restored")
	}
}

func TestInvalidConfigRejectedWholesale(t *testing.T) {
	config := NewDefaultConfig().WithMaxSize(1).WithDefaultTTL(time.Millisecond)
	_, err := New(config)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	// Both violations are reported together
	errs, ok := verr.Details["errors"].([]string)
	if !ok || len(errs) != 2 {
		t.Fatalf("Expected 2 accumulated errors, got %v", verr.Details["errors"])
	}
}

func TestListenerReentrancy(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	// A listener reading back from the cache must not deadlock
	done := make(chan struct{})
	cache.On(events.TypeSet, func(ev events.Event) {
		cache.Has(ev.Key)
		close(done)
	})

	_ = cache.Set("en:common", Messages{"k": "v"}, TestTTL)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listener calling back into the cache deadlocked")
	}
}

func TestConcurrentAccess(t *testing.T) {
	cache, err := New(NewDefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	var wg sync.WaitGroup
	const goroutines = 20
	const operations = 100

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				key := cachekey.Create("en", fmt.Sprintf("ns%d", j%10), "")
				switch j % 3 {
				case 0:
					_ = cache.Set(key, Messages{"k": "v"}, TestTTL)
				case 1:
					cache.Get(key)
				case 2:
					cache.Has(key)
				}
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() > cache.MaxSize() {
		t.Fatalf("Size %d exceeded bound %d", cache.Len(), cache.MaxSize())
	}
}
