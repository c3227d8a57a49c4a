// Package hookexec turns configured hook commands into sandboxed
// subprocess runs: template substitution, shell execution with a merged
// environment and working directory, an independent timeout per command,
// and a structured Result for every outcome. Nothing here returns a Go
// error; failures are encoded in the Result.
package hookexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/flitsinc/go-hooks/internal/bridge"
	"github.com/flitsinc/go-hooks/internal/event"
	"github.com/flitsinc/go-hooks/internal/hookcfg"
)

// DefaultTimeout bounds a single hook command when the executor has none
// configured.
const DefaultTimeout = 60 * time.Second

// Result records one hook execution.
type Result struct {
	Success   bool          `json:"success"`
	Command   string        `json:"command"`
	Stdout    string        `json:"stdout"`
	Stderr    string        `json:"stderr"`
	ExitCode  int           `json:"exit_code"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Err       string        `json:"error,omitempty"`
}

// Executor runs hook commands through the shell.
type Executor struct {
	// WorkDir is the working directory for spawned commands and the value
	// of the {{cwd}} template variable. Empty means the process cwd.
	WorkDir string
	// Env holds extra KEY=VALUE entries appended to the inherited
	// environment.
	Env []string
	// Timeout bounds each command independently. Zero means
	// DefaultTimeout.
	Timeout time.Duration
}

func NewExecutor(workDir string, timeout time.Duration) *Executor {
	return &Executor{WorkDir: workDir, Timeout: timeout}
}

func (e *Executor) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

func (e *Executor) cwd() string {
	if e.WorkDir != "" {
		return e.WorkDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// ExecuteHooks runs hooks strictly sequentially in declaration order and
// returns one Result per hook. A timed-out or failed hook does not stop
// the ones after it.
func (e *Executor) ExecuteHooks(ctx context.Context, hooks []hookcfg.Hook, msg *event.Message) []Result {
	results := make([]Result, 0, len(hooks))
	for _, h := range hooks {
		results = append(results, e.ExecuteHook(ctx, h, msg))
	}
	return results
}

// ExecuteHook substitutes the command template for msg and runs it. Hook
// kinds other than command yield a non-success Result without spawning
// anything.
func (e *Executor) ExecuteHook(ctx context.Context, h hookcfg.Hook, msg *event.Message) Result {
	start := time.Now()
	if h.Kind != hookcfg.KindCommand {
		end := time.Now()
		return Result{
			Success:   false,
			Command:   h.Command,
			ExitCode:  -1,
			StartTime: start,
			EndTime:   end,
			Duration:  end.Sub(start),
			Err:       fmt.Sprintf("unsupported hook type %q", h.Kind),
		}
	}

	command := Substitute(h.Command, Variables(msg, e.cwd()))

	runCtx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", command)
	cmd.Dir = e.WorkDir
	cmd.Env = append(os.Environ(), e.Env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	end := time.Now()

	result := Result{
		Command:   command,
		Stdout:    lenient(stdout.Bytes()),
		Stderr:    lenient(stderr.Bytes()),
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}

	classify(&result, runErr, runCtx.Err(), e.timeout())
	return result
}

// classify fills the outcome fields from the run error and the context
// state. A command that completed cleanly is a success even if the
// deadline fired after it exited; the timeout verdict requires both.
func classify(result *Result, runErr, ctxErr error, timeout time.Duration) {
	switch {
	case runErr == nil:
		result.Success = true
		result.ExitCode = 0
	case ctxErr == context.DeadlineExceeded:
		// CommandContext killed the process and Run waited for it, so the
		// command is dead by the time we get here.
		result.Success = false
		result.ExitCode = -1
		result.Err = fmt.Sprintf("command timed out after %s", timeout)
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.Success = false
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.Success = false
			result.ExitCode = -1
			result.Err = runErr.Error()
		}
	}
}

// ExecuteHookBlocking is ExecuteHook for callers without a context.
func (e *Executor) ExecuteHookBlocking(h hookcfg.Hook, msg *event.Message) Result {
	result, _ := bridge.Run(func(ctx context.Context) (Result, error) {
		return e.ExecuteHook(ctx, h, msg), nil
	})
	return result
}

// lenient decodes process output, replacing invalid UTF-8 instead of
// failing.
func lenient(data []byte) string {
	return strings.ToValidUTF8(string(data), "�")
}
