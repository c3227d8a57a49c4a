// Package dispatch routes emitted events to configured hooks: it loads
// the current hook config, matches each bucket's patterns against the
// event's tool name, and executes every hook of every matching matcher.
// One bad matcher (an invalid regex) only costs its own bucket entry;
// siblings still run.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/flitsinc/go-hooks/internal/bridge"
	"github.com/flitsinc/go-hooks/internal/event"
	"github.com/flitsinc/go-hooks/internal/eventbus"
	"github.com/flitsinc/go-hooks/internal/history"
	"github.com/flitsinc/go-hooks/internal/hookcfg"
	"github.com/flitsinc/go-hooks/internal/hookexec"
)

// Result aggregates one ProcessEvent call.
type Result struct {
	Matched  bool              `json:"matched"`
	Results  []hookexec.Result `json:"results"`
	Errors   []string          `json:"errors"`
	Duration time.Duration     `json:"duration"`
}

type Dispatcher struct {
	Config *hookcfg.Store
	Exec   *hookexec.Executor
	// History, when set, records every execution result. Recording
	// failures are logged and never surfaced to the emitter.
	History *history.Store
	// Logf defaults to log.Printf.
	Logf func(format string, args ...any)
}

func New(config *hookcfg.Store, exec *hookexec.Executor) *Dispatcher {
	return &Dispatcher{Config: config, Exec: exec}
}

func (d *Dispatcher) logf(format string, args ...any) {
	if d.Logf != nil {
		d.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// ProcessEvent resolves and runs every hook configured for msg. It always
// returns a well-formed Result; failures of any kind end up in
// Result.Errors or in non-success entries of Result.Results.
func (d *Dispatcher) ProcessEvent(ctx context.Context, msg *event.Message) *Result {
	start := time.Now()
	res := &Result{Results: []hookexec.Result{}, Errors: []string{}}
	defer func() {
		res.Duration = time.Since(start)
	}()

	cfg, errs := d.Config.Load(ctx)
	if len(errs) > 0 {
		res.Errors = append(res.Errors, errs...)
		return res
	}

	matchers := cfg.Hooks[msg.Type.String()]
	if len(matchers) == 0 {
		// No bucket for this type: nothing configured, not an error.
		return res
	}

	toolName := msg.ToolName()
	for _, m := range matchers {
		re, err := compilePattern(m.Pattern)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("invalid matcher pattern %q: %v", m.Pattern, err))
			continue
		}
		if !re.MatchString(toolName) {
			continue
		}
		res.Matched = true
		outcomes := d.Exec.ExecuteHooks(ctx, m.Hooks, msg)
		res.Results = append(res.Results, outcomes...)
		if d.History != nil {
			for _, outcome := range outcomes {
				if err := d.History.Record(ctx, msg.ID, msg.Type.String(), outcome); err != nil {
					d.logf("hook dispatch: record execution for %s: %v", msg.ID, err)
				}
			}
		}
	}
	return res
}

// ProcessEventBlocking is ProcessEvent for callers without a context.
func (d *Dispatcher) ProcessEventBlocking(msg *event.Message) *Result {
	res, _ := bridge.Run(func(ctx context.Context) (*Result, error) {
		return d.ProcessEvent(ctx, msg), nil
	})
	return res
}

// Processor adapts the dispatcher to the bus's downstream boundary.
func (d *Dispatcher) Processor() eventbus.Processor {
	return eventbus.ProcessorFunc(func(ctx context.Context, msg *event.Message) error {
		res := d.ProcessEvent(ctx, msg)
		for _, e := range res.Errors {
			d.logf("hook dispatch: %s: %s", msg.Type, e)
		}
		return nil
	})
}

// compilePattern anchors the configured pattern at the start of the tool
// name, so "Write.*" matches "WriteFile" but not "FileWrite".
func compilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`\A(?:` + pattern + `)`)
}
