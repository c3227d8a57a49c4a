// Package bridge lets context-based operations be invoked as plain
// blocking calls. Run gives the operation a fresh scope: its own context,
// plus a task group that tracks every helper goroutine spawned through Go.
// Run does not return until the operation and all of its tracked children
// have finished, so a bridged call never leaves orphaned goroutines
// behind, no matter where the caller sits.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type scopeKey struct{}

type scope struct {
	wg sync.WaitGroup
}

// Run invokes op with a background-derived scope and blocks until op and
// every child task it spawned via Go have completed. A panic inside op is
// converted to an error; child failures are swallowed so they never mask
// the primary result.
func Run[T any](op func(ctx context.Context) (T, error)) (T, error) {
	return RunContext(context.Background(), op)
}

// RunTimeout is Run with a deadline on the operation's context.
func RunTimeout[T any](timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return RunContext(ctx, op)
}

// RunContext runs op in its own goroutine under a child scope of parent,
// blocking the caller until the scope is fully drained.
func RunContext[T any](parent context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	sc := &scope{}
	ctx, cancel := context.WithCancel(context.WithValue(parent, scopeKey{}, sc))

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- outcome{value: zero, err: fmt.Errorf("bridged operation panicked: %v", r)}
			}
		}()
		value, err := op(ctx)
		done <- outcome{value: value, err: err}
	}()

	out := <-done
	// Cancel, then drain. Children that are still running get a cancelled
	// context; their errors are dropped so cleanup cannot mask the result.
	cancel()
	sc.wg.Wait()
	return out.value, out.err
}

// Go spawns fn as a child task of the enclosing Run scope. Outside a scope
// it degrades to a plain goroutine whose lifecycle the caller owns. The
// task's error (or recovered panic) is discarded.
func Go(ctx context.Context, fn func(ctx context.Context) error) {
	sc, _ := ctx.Value(scopeKey{}).(*scope)
	if sc != nil {
		sc.wg.Add(1)
	}
	go func() {
		if sc != nil {
			defer sc.wg.Done()
		}
		defer func() {
			_ = recover()
		}()
		_ = fn(ctx)
	}()
}
