package events

import (
	"sync"
	"time"
)

// DefaultRetention caps how many raw events a window keeps for debugging.
const DefaultRetention = 1000

// WindowStats is a snapshot of event activity inside the sliding window.
type WindowStats struct {
	Hits    int64
	Misses  int64
	Loads   int64
	Errors  int64
	ByType  map[Type]int64
	HitRate float64

	// AverageLoadTime is the mean of load durations recorded in the
	// window, zero when none were recorded.
	AverageLoadTime time.Duration

	// ErrorRate is errors divided by loads, zero when no loads happened.
	ErrorRate float64
}

type windowSample struct {
	at       time.Time
	typ      Type
	loadTime time.Duration
	isLoad   bool
	isError  bool
}

// StatsWindow aggregates events over a sliding time window. Samples older
// than the window are excluded from rate calculations; raw samples are
// retained up to a cap for debugging.
type StatsWindow struct {
	mu        sync.Mutex
	window    time.Duration
	retention int
	samples   []windowSample
}

// NewStatsWindow creates a window of the given span with the default
// retention cap. A non-positive span falls back to five minutes.
func NewStatsWindow(span time.Duration) *StatsWindow {
	if span <= 0 {
		span = 5 * time.Minute
	}
	return &StatsWindow{
		window:    span,
		retention: DefaultRetention,
	}
}

// Observe feeds one event into the window. Wire it to a Bus with
// ObserveBus, or call it directly from tests.
func (w *StatsWindow) Observe(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples = append(w.samples, windowSample{at: ev.Timestamp, typ: ev.Type})
	w.trim(time.Now())
}

// ObserveLoad records a loader invocation with its duration and outcome.
// Load timings back the health checker's average-load-time figure.
func (w *StatsWindow) ObserveLoad(d time.Duration, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples = append(w.samples, windowSample{
		at:       time.Now(),
		loadTime: d,
		isLoad:   true,
		isError:  err != nil,
	})
	w.trim(time.Now())
}

// ObserveBus subscribes the window to every cache event type on a bus and
// returns the subscriptions so callers can detach it again.
func (w *StatsWindow) ObserveBus(bus *Bus) []Subscription {
	types := []Type{
		TypeHit, TypeMiss, TypeSet, TypeDelete, TypeClear, TypeExpire,
		TypePreloadStart, TypePreloadComplete, TypePreloadError,
	}
	subs := make([]Subscription, 0, len(types))
	for _, t := range types {
		subs = append(subs, bus.On(t, w.Observe))
	}
	return subs
}

// trim drops samples beyond the retention cap. Samples outside the time
// window stay (up to the cap) for debugging but are excluded from Stats.
func (w *StatsWindow) trim(now time.Time) {
	if over := len(w.samples) - w.retention; over > 0 {
		w.samples = append(w.samples[:0:0], w.samples[over:]...)
	}
	// Drop samples so old they can never re-enter the window.
	cutoff := now.Add(-2 * w.window)
	i := 0
	for i < len(w.samples) && w.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		w.samples = append(w.samples[:0:0], w.samples[i:]...)
	}
}

// Stats computes counts and rates over samples inside the window.
func (w *StatsWindow) Stats() WindowStats {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-w.window)

	stats := WindowStats{ByType: make(map[Type]int64)}
	var loadTotal time.Duration

	for _, s := range w.samples {
		if s.at.Before(cutoff) {
			continue
		}
		if s.isLoad {
			stats.Loads++
			loadTotal += s.loadTime
			if s.isError {
				stats.Errors++
			}
			continue
		}
		stats.ByType[s.typ]++
		switch s.typ {
		case TypeHit:
			stats.Hits++
		case TypeMiss:
			stats.Misses++
		}
	}

	stats.HitRate = CalculateHitRate(stats.Hits, stats.Misses)
	if stats.Loads > 0 {
		stats.AverageLoadTime = loadTotal / time.Duration(stats.Loads)
		stats.ErrorRate = float64(stats.Errors) / float64(stats.Loads)
	}
	return stats
}

// CalculateHitRate returns hits/(hits+misses), or 0 when there have been
// no lookups at all. The result is always within [0, 1].
func CalculateHitRate(hits, misses int64) float64 {
	total := hits + misses
	if total <= 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
