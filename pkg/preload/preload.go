// Package preload warms a translation cache across locales without
// saturating the network: targets are loaded in bounded-size batches,
// under a global concurrency ceiling, with a delay between batches and a
// timeout per individual load.
package preload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/vnykmshr/i18ncache-go/pkg/cachekey"
	"github.com/vnykmshr/i18ncache-go/pkg/events"
	"github.com/vnykmshr/i18ncache-go/pkg/i18ncache"
)

// DefaultMaxConcurrentLoads is the global ceiling on in-flight loads,
// shared by all runs of one Preloader regardless of batch size.
const DefaultMaxConcurrentLoads = 10

// Loader fetches one bundle. Alias of the cache's loader type so one
// function serves both miss-path loading and preloading.
type Loader = i18ncache.Loader

// Store is where preloaded bundles go. *i18ncache.Cache satisfies it.
type Store interface {
	Set(key string, data any, ttl time.Duration) error
}

// Target is one (locale, namespace) pair to warm.
type Target struct {
	Locale    string
	Namespace string
}

func (t Target) String() string {
	return cachekey.Create(t.Locale, t.Namespace, "")
}

// State describes where a preload run ended up.
type State string

const (
	StateIdle            State = "idle"
	StateRunning         State = "running"
	StateCompleted       State = "completed"
	StatePartiallyFailed State = "partially-failed"
	StateCancelled       State = "cancelled"
)

// TargetError records one failed target with its reason.
type TargetError struct {
	Target Target
	Reason string
}

// Result summarizes one preload run. Loads still in flight when the run
// was cancelled finish on their own but are not counted here.
type Result struct {
	State     State
	Attempted int
	Succeeded int
	Failed    int
	Errors    []TargetError
}

// Config controls preloading.
type Config struct {
	// Enabled gates Warm; Run ignores it and always runs.
	Enabled bool

	// Locales and Namespaces are crossed into the target list used by
	// Warm. An empty Namespaces list warms the default namespace.
	Locales    []string
	Namespaces []string

	// BatchSize is how many targets are dispatched per batch.
	BatchSize int

	// DelayBetweenBatches is awaited after every batch except the last.
	DelayBetweenBatches time.Duration

	// Timeout bounds each individual load. A load exceeding it fails
	// that target only; its late result is discarded.
	Timeout time.Duration

	// MaxConcurrentLoads caps in-flight loads across all concurrent
	// runs. Defaults to DefaultMaxConcurrentLoads.
	MaxConcurrentLoads int

	// TTL applied to preloaded entries. Zero uses the store's default.
	TTL time.Duration

	// Retry enables per-target retries with backoff. Nil disables.
	Retry *RetryConfig

	// Bus receives run-level preload events. Optional.
	Bus *events.Bus

	// Logger receives per-target failures. Defaults to a no-op logger.
	Logger zerolog.Logger
}

// NewDefaultConfig returns defaults: batches of 5, 100ms between batches,
// 5s per load, the default concurrency ceiling.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:             true,
		BatchSize:           5,
		DelayBetweenBatches: 100 * time.Millisecond,
		Timeout:             5 * time.Second,
		MaxConcurrentLoads:  DefaultMaxConcurrentLoads,
		Logger:              zerolog.Nop(),
	}
}

// Preloader warms a Store through a Loader. Safe for concurrent runs;
// all runs share one concurrency ceiling.
type Preloader struct {
	store  Store
	loader Loader
	config *Config
	sem    *semaphore.Weighted
	logger zerolog.Logger

	mu    sync.Mutex
	state State
}

// New creates a preloader. The config is validated up front: a batch size
// or concurrency ceiling below 1 is a configuration error.
func New(store Store, loader Loader, config *Config) (*Preloader, error) {
	if config == nil {
		config = NewDefaultConfig()
	}
	if loader == nil {
		return nil, fmt.Errorf("preload: loader is required")
	}
	if store == nil {
		return nil, fmt.Errorf("preload: store is required")
	}
	if config.BatchSize < 1 {
		return nil, fmt.Errorf("preload: batchSize must be at least 1, got %d", config.BatchSize)
	}
	maxLoads := config.MaxConcurrentLoads
	if maxLoads == 0 {
		maxLoads = DefaultMaxConcurrentLoads
	}
	if maxLoads < 1 {
		return nil, fmt.Errorf("preload: maxConcurrentLoads must be at least 1, got %d", config.MaxConcurrentLoads)
	}

	return &Preloader{
		store:  store,
		loader: loader,
		config: config,
		sem:    semaphore.NewWeighted(int64(maxLoads)),
		logger: config.Logger,
		state:  StateIdle,
	}, nil
}

// State returns the state of the run that most recently changed it.
// With concurrent runs this is last-write-wins; callers tracking an
// individual run should use the Result it returns instead.
func (p *Preloader) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Preloader) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Targets crosses the configured locales and namespaces into an ordered
// target list.
func (p *Preloader) Targets() []Target {
	namespaces := p.config.Namespaces
	if len(namespaces) == 0 {
		namespaces = []string{""}
	}
	targets := make([]Target, 0, len(p.config.Locales)*len(namespaces))
	for _, locale := range p.config.Locales {
		for _, ns := range namespaces {
			targets = append(targets, Target{Locale: locale, Namespace: ns})
		}
	}
	return targets
}

// Warm runs a preload over the configured locales and namespaces. It is
// a no-op returning an idle result when preloading is disabled.
func (p *Preloader) Warm(ctx context.Context) (*Result, error) {
	if !p.config.Enabled {
		return &Result{State: StateIdle}, nil
	}
	return p.Run(ctx, p.Targets())
}

// Run preloads the given targets: consecutive batches of BatchSize, loads
// within a batch issued concurrently under the global ceiling, a delay
// after every batch except the last. A failing target is recorded and
// never aborts the run. Cancellation is checked between batches; loads in
// flight at cancellation time finish but their outcomes are discarded
// from the summary.
func (p *Preloader) Run(ctx context.Context, targets []Target) (*Result, error) {
	p.setState(StateRunning)
	p.emit(events.TypePreloadStart, map[string]any{"targets": len(targets)})

	result := &Result{State: StateRunning}
	cancelled := false

	batches := partition(targets, p.config.BatchSize)

batchLoop:
	for i, batch := range batches {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		outcomes := p.runBatch(ctx, batch)

		if ctx.Err() != nil {
			// Cancelled while the batch was in flight: the loads were
			// allowed to finish, their outcomes are not counted.
			cancelled = true
			break
		}

		for _, o := range outcomes {
			result.Attempted++
			if o.err != nil {
				result.Failed++
				result.Errors = append(result.Errors, TargetError{
					Target: o.target,
					Reason: o.err.Error(),
				})
			} else {
				result.Succeeded++
			}
		}

		if i < len(batches)-1 && p.config.DelayBetweenBatches > 0 {
			select {
			case <-time.After(p.config.DelayBetweenBatches):
			case <-ctx.Done():
				cancelled = true
				break batchLoop
			}
		}
	}

	switch {
	case cancelled:
		result.State = StateCancelled
	case result.Failed > 0:
		result.State = StatePartiallyFailed
	default:
		result.State = StateCompleted
	}
	p.setState(result.State)

	summary := map[string]any{
		"state":     string(result.State),
		"attempted": result.Attempted,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}
	if result.Failed > 0 {
		p.emit(events.TypePreloadError, summary)
	} else {
		p.emit(events.TypePreloadComplete, summary)
	}

	return result, nil
}

type outcome struct {
	target Target
	err    error
}

// runBatch dispatches all loads of one batch concurrently, bounded by the
// global semaphore, and waits for every one of them.
func (p *Preloader) runBatch(ctx context.Context, batch []Target) []outcome {
	outcomes := make([]outcome, len(batch))
	var wg sync.WaitGroup

	for i, target := range batch {
		wg.Add(1)
		go func(i int, target Target) {
			defer wg.Done()

			// The ceiling is acquired outside the run's cancellation so
			// a cancelled run lets already-dispatched loads finish.
			if err := p.sem.Acquire(context.Background(), 1); err != nil {
				outcomes[i] = outcome{target: target, err: err}
				return
			}
			defer p.sem.Release(1)

			outcomes[i] = outcome{target: target, err: p.loadTarget(target)}
		}(i, target)
	}

	wg.Wait()
	return outcomes
}

// loadTarget loads one target under the per-load timeout and stores the
// bundle on success. A timed-out load fails only this target; the late
// result is discarded, never written to the store.
func (p *Preloader) loadTarget(target Target) error {
	load := func() (i18ncache.Messages, error) {
		ctx := context.Background()
		if p.config.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
			defer cancel()
		}

		type loadResult struct {
			msgs i18ncache.Messages
			err  error
		}
		ch := make(chan loadResult, 1)
		go func() {
			msgs, err := p.loader(ctx, target.Locale, target.Namespace)
			ch <- loadResult{msgs: msgs, err: err}
		}()

		select {
		case res := <-ch:
			return res.msgs, res.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var msgs i18ncache.Messages
	var err error
	if p.config.Retry != nil {
		msgs, err = WithRetry(context.Background(), *p.config.Retry, load)
	} else {
		msgs, err = load()
	}
	if err != nil {
		p.logger.Debug().
			Str("locale", target.Locale).
			Str("namespace", target.Namespace).
			Err(err).
			Msg("preload target failed")
		return err
	}

	return p.store.Set(target.String(), msgs, p.config.TTL)
}

func (p *Preloader) emit(t events.Type, metadata map[string]any) {
	if p.config.Bus == nil {
		return
	}
	p.config.Bus.Emit(events.Event{Type: t, Metadata: metadata})
}

func partition(targets []Target, size int) [][]Target {
	if len(targets) == 0 {
		return nil
	}
	batches := make([][]Target, 0, (len(targets)+size-1)/size)
	for start := 0; start < len(targets); start += size {
		end := start + size
		if end > len(targets) {
			end = len(targets)
		}
		batches = append(batches, targets[start:end])
	}
	return batches
}
