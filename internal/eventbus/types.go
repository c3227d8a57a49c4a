package eventbus

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/flitsinc/go-hooks/internal/event"
)

// Handler receives an emitted event. Errors are isolated per handler:
// a failing handler never stops dispatch to the rest.
type Handler func(ctx context.Context, msg *event.Message) error

// Filter gates a listener. Returning false skips the handler for that
// event without consuming a once-registration.
type Filter func(msg *event.Message) bool

// ErrorCallback observes handler failures. It runs inline during dispatch,
// so implementations should be quick.
type ErrorCallback func(err error, msg *event.Message)

// Processor is the downstream collaborator boundary: anything registered
// via SetProcessor receives every emitted event after local listeners
// finish. Its errors are logged and never propagated to the emitter.
type Processor interface {
	ProcessEvent(ctx context.Context, msg *event.Message) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, msg *event.Message) error

func (f ProcessorFunc) ProcessEvent(ctx context.Context, msg *event.Message) error {
	return f(ctx, msg)
}

type listener struct {
	id      string
	handler Handler
	filter  Filter
	once    bool
	// fired claims a once listener for exactly one dispatch. Concurrent
	// emits both hold a snapshot containing the listener before the
	// deferred removal runs, so removal alone cannot enforce at-most-once.
	fired atomic.Bool
}

// Metrics is a point-in-time snapshot of bus counters. Counters only move
// forward until ResetMetrics swaps in a fresh snapshot.
type Metrics struct {
	TotalEvents         int64                `json:"total_events"`
	TotalHandlers       int64                `json:"total_handlers"`
	ErrorCount          int64                `json:"error_count"`
	TotalProcessingTime time.Duration        `json:"total_processing_time"`
	HandlerCounts       map[event.Type]int64 `json:"handler_counts"`
}
