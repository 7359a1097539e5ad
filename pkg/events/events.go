// Package events provides the cache's typed lifecycle event stream: a
// synchronous publish/subscribe bus with isolated listener failures, and a
// sliding-window aggregator used for hit-rate and health reporting.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Type identifies a cache lifecycle event.
type Type string

const (
	TypeHit             Type = "hit"
	TypeMiss            Type = "miss"
	TypeSet             Type = "set"
	TypeDelete          Type = "delete"
	TypeClear           Type = "clear"
	TypeExpire          Type = "expire"
	TypePreloadStart    Type = "preload_start"
	TypePreloadComplete Type = "preload_complete"
	TypePreloadError    Type = "preload_error"
)

// Event is one immutable cache lifecycle record. Metadata carries
// event-specific details such as eviction reasons or preload summaries.
type Event struct {
	Type      Type
	Key       string
	Data      any
	Timestamp time.Time
	Metadata  map[string]any
}

// Listener receives published events. Listeners run synchronously on the
// publishing goroutine; a panicking listener is recovered and logged and
// never prevents other listeners or the publishing operation from
// completing.
type Listener func(Event)

// Subscription identifies a registered listener so it can be removed.
type Subscription struct {
	eventType Type
	id        uint64
}

type registration struct {
	id uint64
	fn Listener
}

// Bus dispatches events to listeners registered per event type, in
// registration order.
type Bus struct {
	mu        sync.RWMutex
	listeners map[Type][]registration
	nextID    uint64
	logger    zerolog.Logger
}

// NewBus creates an event bus. Listener panics are logged through logger.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		listeners: make(map[Type][]registration),
		logger:    logger,
	}
}

// On registers a listener for one event type and returns its subscription.
func (b *Bus) On(t Type, fn Listener) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.listeners[t] = append(b.listeners[t], registration{id: b.nextID, fn: fn})
	return Subscription{eventType: t, id: b.nextID}
}

// Off removes a previously registered listener. Removing an unknown
// subscription is a no-op.
func (b *Bus) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.listeners[sub.eventType]
	for i, r := range regs {
		if r.id == sub.id {
			b.listeners[sub.eventType] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// Emit publishes an event synchronously to all listeners for its type, in
// registration order. A timestamp is filled in if the caller left it zero.
func (b *Bus) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.RLock()
	regs := b.listeners[ev.Type]
	snapshot := make([]registration, len(regs))
	copy(snapshot, regs)
	b.mu.RUnlock()

	for _, r := range snapshot {
		b.dispatch(r, ev)
	}
}

func (b *Bus) dispatch(r registration, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Warn().
				Str("event_type", string(ev.Type)).
				Str("key", ev.Key).
				Interface("panic", rec).
				Msg("event listener panicked")
		}
	}()
	r.fn(ev)
}

// ListenerCount returns the number of listeners registered for a type.
func (b *Bus) ListenerCount(t Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[t])
}
