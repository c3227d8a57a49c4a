// Package eventbus implements the in-process typed pub/sub bus. Listeners
// are registered per event type and invoked in registration order; a
// configured downstream Processor (the hook dispatcher) receives every
// event after local listeners finish.
package eventbus

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/flitsinc/go-hooks/internal/bridge"
	"github.com/flitsinc/go-hooks/internal/event"
	"github.com/flitsinc/go-hooks/internal/idgen"
)

// DefaultMaxListeners bounds per-type registrations to keep a leaky caller
// from growing the registry without bound.
const DefaultMaxListeners = 100

type Bus struct {
	// MaxListeners caps registrations per event type. Registrations beyond
	// the cap are dropped with a diagnostic rather than an error.
	MaxListeners int
	// OnError, when set, observes handler failures in addition to the log.
	OnError ErrorCallback
	// Logf defaults to log.Printf.
	Logf func(format string, args ...any)

	mu        sync.RWMutex
	listeners map[event.Type][]*listener
	processor Processor
	metrics   Metrics
}

func NewBus() *Bus {
	return &Bus{
		MaxListeners: DefaultMaxListeners,
		listeners:    map[event.Type][]*listener{},
		metrics:      Metrics{HandlerCounts: map[event.Type]int64{}},
	}
}

func (b *Bus) logf(format string, args ...any) {
	if b.Logf != nil {
		b.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// On registers handler for t and returns a registration id usable with
// Off. It returns "" when the per-type cap is already reached.
func (b *Bus) On(t event.Type, handler Handler) string {
	return b.add(t, handler, nil, false)
}

// OnFiltered registers handler gated by filter.
func (b *Bus) OnFiltered(t event.Type, handler Handler, filter Filter) string {
	return b.add(t, handler, filter, false)
}

// Once registers handler to fire for at most one event of type t.
func (b *Bus) Once(t event.Type, handler Handler) string {
	return b.add(t, handler, nil, true)
}

func (b *Bus) add(t event.Type, handler Handler, filter Filter, once bool) string {
	if handler == nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	max := b.MaxListeners
	if max <= 0 {
		max = DefaultMaxListeners
	}
	if len(b.listeners[t]) >= max {
		b.logf("event bus: listener cap (%d) reached for %s, registration dropped", max, t)
		return ""
	}
	l := &listener{id: idgen.New(), handler: handler, filter: filter, once: once}
	b.listeners[t] = append(b.listeners[t], l)
	return l.id
}

// Off removes the registration with the given id. It reports whether
// anything was removed.
func (b *Bus) Off(t event.Type, id string) bool {
	if id == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(t, map[string]bool{id: true}) > 0
}

// RemoveAllListeners clears the given types, or every type when none are
// given.
func (b *Bus) RemoveAllListeners(types ...event.Type) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(types) == 0 {
		b.listeners = map[event.Type][]*listener{}
		return
	}
	for _, t := range types {
		delete(b.listeners, t)
	}
}

func (b *Bus) removeLocked(t event.Type, ids map[string]bool) int {
	existing := b.listeners[t]
	if len(existing) == 0 {
		return 0
	}
	kept := existing[:0]
	removed := 0
	for _, l := range existing {
		if ids[l.id] {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == 0 {
		delete(b.listeners, t)
	} else {
		b.listeners[t] = kept
	}
	return removed
}

// ListenerCount reports how many listeners are registered for t.
func (b *Bus) ListenerCount(t event.Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[t])
}

// EventTypes lists the types that currently have listeners.
func (b *Bus) EventTypes() []event.Type {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]event.Type, 0, len(b.listeners))
	for t := range b.listeners {
		out = append(out, t)
	}
	return out
}

// SetProcessor installs the downstream processor that receives every
// emitted event after local listeners run. Pass nil to detach.
func (b *Bus) SetProcessor(p Processor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.processor = p
}

// Emit dispatches msg to every listener registered for its type, in
// registration order, then forwards it downstream. Listener and downstream
// failures are contained; Emit itself only fails on a nil message.
func (b *Bus) Emit(ctx context.Context, msg *event.Message) error {
	if msg == nil {
		return fmt.Errorf("emit: nil message")
	}
	start := time.Now()

	b.mu.RLock()
	snapshot := make([]*listener, len(b.listeners[msg.Type]))
	copy(snapshot, b.listeners[msg.Type])
	processor := b.processor
	b.mu.RUnlock()

	invoked := 0
	var expired map[string]bool
	for _, l := range snapshot {
		if l.filter != nil && !l.filter(msg) {
			continue
		}
		if l.once && !l.fired.CompareAndSwap(false, true) {
			// Another emit already claimed this once listener.
			continue
		}
		if err := b.invoke(ctx, l, msg); err != nil {
			b.mu.Lock()
			b.metrics.ErrorCount++
			b.mu.Unlock()
			b.logf("event bus: handler for %s failed: %v", msg.Type, err)
			if b.OnError != nil {
				b.OnError(err, msg)
			}
		}
		invoked++
		if l.once {
			if expired == nil {
				expired = map[string]bool{}
			}
			expired[l.id] = true
		}
	}

	// Once-listeners are removed in one pass after dispatch; the lock is
	// never held while a handler runs.
	if len(expired) > 0 {
		b.mu.Lock()
		b.removeLocked(msg.Type, expired)
		b.mu.Unlock()
	}

	if processor != nil {
		if err := processor.ProcessEvent(ctx, msg); err != nil {
			b.logf("event bus: downstream processor failed for %s: %v", msg.Type, err)
		}
	}

	b.mu.Lock()
	b.metrics.TotalEvents++
	b.metrics.TotalHandlers += int64(invoked)
	b.metrics.HandlerCounts[msg.Type] += int64(invoked)
	b.metrics.TotalProcessingTime += time.Since(start)
	b.mu.Unlock()
	return nil
}

func (b *Bus) invoke(ctx context.Context, l *listener, msg *event.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return l.handler(ctx, msg)
}

// EmitBlocking is Emit for callers without a context of their own.
func (b *Bus) EmitBlocking(msg *event.Message) error {
	_, err := bridge.Run(func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.Emit(ctx, msg)
	})
	return err
}

// WaitForEvent blocks until an event of type t passing filter is emitted,
// the timeout elapses, or ctx is cancelled. On timeout it returns
// (nil, nil); the temporary listener is removed on every path.
func (b *Bus) WaitForEvent(ctx context.Context, t event.Type, timeout time.Duration, filter Filter) (*event.Message, error) {
	ch := make(chan *event.Message, 1)
	id := b.add(t, func(_ context.Context, msg *event.Message) error {
		select {
		case ch <- msg:
		default:
		}
		return nil
	}, filter, true)
	if id == "" {
		return nil, fmt.Errorf("wait for %s: listener cap reached", t)
	}
	defer b.Off(t, id)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-ch:
		return msg, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WaitForEventBlocking is WaitForEvent without a caller context.
func (b *Bus) WaitForEventBlocking(t event.Type, timeout time.Duration, filter Filter) (*event.Message, error) {
	return bridge.Run(func(ctx context.Context) (*event.Message, error) {
		return b.WaitForEvent(ctx, t, timeout, filter)
	})
}

// Metrics returns a copy of the current counters.
func (b *Bus) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snapshot := b.metrics
	snapshot.HandlerCounts = make(map[event.Type]int64, len(b.metrics.HandlerCounts))
	for t, n := range b.metrics.HandlerCounts {
		snapshot.HandlerCounts[t] = n
	}
	return snapshot
}

// ResetMetrics swaps in a zeroed snapshot.
func (b *Bus) ResetMetrics() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics = Metrics{HandlerCounts: map[event.Type]int64{}}
}
