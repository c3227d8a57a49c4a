package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/flitsinc/go-hooks/internal/history"
	"github.com/flitsinc/go-hooks/internal/hookexec"
	"github.com/flitsinc/go-hooks/internal/testutil"
)

func TestRecordAndList(t *testing.T) {
	db, closeFn := testutil.OpenTestDB(t)
	defer closeFn()

	store := history.NewStore(db)
	ctx := context.Background()

	start := time.Now().UTC().Add(-time.Second)
	result := hookexec.Result{
		Success:   true,
		Command:   "echo WriteFile",
		Stdout:    "WriteFile\n",
		ExitCode:  0,
		StartTime: start,
		EndTime:   start.Add(120 * time.Millisecond),
		Duration:  120 * time.Millisecond,
	}
	if err := store.Record(ctx, "evt-1", "PostToolUse", result); err != nil {
		t.Fatalf("record: %v", err)
	}

	failed := hookexec.Result{
		Success:   false,
		Command:   "sleep 10",
		ExitCode:  -1,
		Err:       "command timed out after 1s",
		StartTime: start,
		EndTime:   start.Add(time.Second),
		Duration:  time.Second,
	}
	if err := store.Record(ctx, "evt-2", "PreToolUse", failed); err != nil {
		t.Fatalf("record failed result: %v", err)
	}

	items, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 executions, got %d", len(items))
	}

	byEvent, err := store.ListForEvent(ctx, "evt-1")
	if err != nil {
		t.Fatalf("list for event: %v", err)
	}
	if len(byEvent) != 1 {
		t.Fatalf("expected 1 execution for evt-1, got %d", len(byEvent))
	}
	got := byEvent[0]
	if !got.Success || got.Command != "echo WriteFile" || got.Stdout != "WriteFile\n" {
		t.Fatalf("unexpected execution: %+v", got)
	}
	if got.DurationMS != 120 {
		t.Fatalf("duration_ms = %d", got.DurationMS)
	}

	timedOut, err := store.ListForEvent(ctx, "evt-2")
	if err != nil {
		t.Fatalf("list evt-2: %v", err)
	}
	if timedOut[0].Success || timedOut[0].ExitCode != -1 || timedOut[0].Err == "" {
		t.Fatalf("failure fields not preserved: %+v", timedOut[0])
	}
}

func TestListLimitDefaults(t *testing.T) {
	db, closeFn := testutil.OpenTestDB(t)
	defer closeFn()

	store := history.NewStore(db)
	if _, err := store.List(context.Background(), 0); err != nil {
		t.Fatalf("list with zero limit: %v", err)
	}
}
