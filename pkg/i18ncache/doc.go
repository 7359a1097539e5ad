// Package i18ncache provides a thread-safe, in-memory translation cache with
// TTL support, multiple eviction strategies (LRU/LFU/FIFO/TTL), stampede-safe
// loading, event subscriptions, and optional persistence.
//
// # Overview
//
// i18ncache keeps translation bundles keyed by locale, namespace, and key
// close to the application, so that switching locales or rendering views does
// not repeatedly hit the translation backend. Entries expire after their TTL,
// the cache never grows beyond its configured capacity, and misses can be
// filled through a caller-supplied loader with singleflight deduplication.
//
// # Key Features
//
//   - Thread-safe concurrent access with minimal lock contention
//   - Time-to-live (TTL) expiration with automatic cleanup
//   - Multiple eviction strategies: LRU, LFU, FIFO, and TTL
//   - Loader integration with per-call timeout and stampede protection
//   - Event bus for hits, misses, sets, deletes, expirations, and preloads
//   - Built-in counters plus a sliding statistics window
//   - Optional snapshot persistence with compression
//   - Prometheus and OpenTelemetry metrics integration
//
// # Basic Usage
//
// Create a cache and perform basic operations:
//
//	cache, err := i18ncache.New(i18ncache.NewDefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	key := cachekey.Create("en-US", "common", "welcome")
//
//	// Store a bundle with a 1-hour TTL
//	err = cache.Set(key, i18ncache.Messages{"welcome": "Welcome!"}, time.Hour)
//
//	// Retrieve it
//	value, found, err := cache.Get(key)
//	if found {
//	    msgs := value.(i18ncache.Messages)
//	    fmt.Println(msgs["welcome"])
//	}
//
//	// Check statistics
//	fmt.Printf("Hit rate: %.2f\n", cache.Counters().HitRate())
//
// # Loading on Miss
//
// Wire a loader and let the cache fill itself:
//
//	config := i18ncache.NewDefaultConfig().
//	    WithLoader(func(ctx context.Context, locale, namespace string) (i18ncache.Messages, error) {
//	        return fetchBundle(ctx, locale, namespace)
//	    })
//
//	cache, _ := i18ncache.New(config)
//	msgs, err := cache.GetOrLoad(ctx, "de-DE", "checkout")
//
// Concurrent GetOrLoad calls for the same locale and namespace share one
// loader invocation. A loader that outlives its timeout fails the call and
// its late result is discarded.
//
// # Configuration
//
// Customize cache behavior with fluent configuration:
//
//	config := i18ncache.NewDefaultConfig().
//	    WithMaxSize(5000).
//	    WithDefaultTTL(30*time.Minute).
//	    WithCleanupInterval(5*time.Minute).
//	    WithEvictionType(eviction.LFU)
//
//	cache, err := i18ncache.New(config)
//
// Configuration is validated on construction: MaxSize must lie within
// [MinMaxSize, MaxMaxSize], the TTL must be at least one second, and a
// TTL above 24 hours produces a warning.
//
// # Events
//
// Subscribe to cache activity:
//
//	cache.On(events.TypeExpire, func(e events.Event) {
//	    log.Printf("expired: %s", e.Key)
//	})
//
// Listener panics are recovered and logged; a failing listener never
// affects cache operations or other listeners.
//
// # Persistence
//
// Snapshots survive restarts through a persist.Store:
//
//	config := i18ncache.NewDefaultConfig().
//	    WithPersistence(store, "i18ncache").
//	    WithCompression(compression.NewDefaultConfig().WithEnabled(true))
//
// Expired entries are dropped on both save and restore. Persistence
// failures are logged and never fail the triggering operation.
//
// # Metrics Integration
//
// Export metrics to Prometheus:
//
//	exporter, _ := metrics.NewPrometheusExporter(metrics.NewDefaultConfig(), &metrics.PrometheusConfig{
//	    Registry: prometheus.DefaultRegisterer,
//	})
//
//	config := i18ncache.NewDefaultConfig().
//	    WithMetrics(&i18ncache.MetricsConfig{
//	        Exporter:  exporter,
//	        Enabled:   true,
//	        CacheName: "translations",
//	    })
//
// You can also implement custom exporters by implementing the
// metrics.Exporter interface.
//
// # Thread Safety
//
// All cache operations are thread-safe and can be called concurrently from
// multiple goroutines without additional synchronization. Loaders and event
// listeners may call back into the cache.
//
// # Error Handling
//
// The cache degrades gracefully:
//   - Invalid keys and configurations fail fast with typed validation errors
//   - Persistence and metrics problems are logged, never propagated to callers
//   - Listener errors are isolated per listener
package i18ncache
