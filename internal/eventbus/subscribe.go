package eventbus

import (
	"context"
	"sync"

	"github.com/flitsinc/go-hooks/internal/event"
)

const tapBuffer = 64

// tap turns a listener registration into a channel. Sends are
// non-blocking: a slow consumer drops events rather than stalling Emit.
type tap struct {
	mu     sync.Mutex
	closed bool
	ch     chan *event.Message
}

func (s *tap) send(msg *event.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- msg:
	default:
		// Drop if subscriber is slow.
	}
}

func (s *tap) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Subscribe returns a channel receiving every event of the given types
// (all types when none are given) until ctx is cancelled. The channel is
// buffered and lossy for slow consumers, matching the observer use case.
func (b *Bus) Subscribe(ctx context.Context, types ...event.Type) <-chan *event.Message {
	if len(types) == 0 {
		types = event.Types()
	}
	s := &tap{ch: make(chan *event.Message, tapBuffer)}
	handler := func(_ context.Context, msg *event.Message) error {
		s.send(msg)
		return nil
	}

	ids := make(map[event.Type]string, len(types))
	for _, t := range types {
		if id := b.On(t, handler); id != "" {
			ids[t] = id
		}
	}

	go func() {
		<-ctx.Done()
		for t, id := range ids {
			b.Off(t, id)
		}
		s.close()
	}()
	return s.ch
}
