package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flitsinc/go-hooks/internal/hookexec"
	"github.com/flitsinc/go-hooks/internal/idgen"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Execution is one persisted hook run.
type Execution struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Command    string    `json:"command"`
	Success    bool      `json:"success"`
	ExitCode   int       `json:"exit_code"`
	Stdout     string    `json:"stdout,omitempty"`
	Stderr     string    `json:"stderr,omitempty"`
	Err        string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Record persists one execution result for the given event.
func (s *Store) Record(ctx context.Context, eventID, eventType string, r hookexec.Result) error {
	id := idgen.New()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hook_executions (id, event_id, event_type, command, success, exit_code, stdout, stderr, error, started_at, finished_at, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, eventID, eventType, r.Command, boolInt(r.Success), r.ExitCode, r.Stdout, r.Stderr, r.Err,
		r.StartTime.UTC().Format(time.RFC3339Nano), r.EndTime.UTC().Format(time.RFC3339Nano),
		r.Duration.Milliseconds(), now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert hook execution: %w", err)
	}
	return nil
}

// List returns recent executions, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Execution, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, event_type, command, success, exit_code, stdout, stderr, error, started_at, finished_at, duration_ms, created_at
		FROM hook_executions ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list hook executions: %w", err)
	}
	defer rows.Close()

	var out []Execution
	for rows.Next() {
		var e Execution
		var success int
		var stdout, stderr, errMsg sql.NullString
		var startedAtStr, finishedAtStr, createdAtStr string
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventType, &e.Command, &success, &e.ExitCode, &stdout, &stderr, &errMsg, &startedAtStr, &finishedAtStr, &e.DurationMS, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scan hook execution: %w", err)
		}
		e.Success = success != 0
		e.Stdout = stdout.String
		e.Stderr = stderr.String
		e.Err = errMsg.String
		e.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAtStr)
		e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAtStr)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAtStr)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hook executions: %w", err)
	}
	return out, nil
}

// ListForEvent returns executions recorded for one event, oldest first.
func (s *Store) ListForEvent(ctx context.Context, eventID string) ([]Execution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, event_type, command, success, exit_code, stdout, stderr, error, started_at, finished_at, duration_ms, created_at
		FROM hook_executions WHERE event_id = ? ORDER BY created_at ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list hook executions for event: %w", err)
	}
	defer rows.Close()

	var out []Execution
	for rows.Next() {
		var e Execution
		var success int
		var stdout, stderr, errMsg sql.NullString
		var startedAtStr, finishedAtStr, createdAtStr string
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventType, &e.Command, &success, &e.ExitCode, &stdout, &stderr, &errMsg, &startedAtStr, &finishedAtStr, &e.DurationMS, &createdAtStr); err != nil {
			return nil, fmt.Errorf("scan hook execution: %w", err)
		}
		e.Success = success != 0
		e.Stdout = stdout.String
		e.Stderr = stderr.String
		e.Err = errMsg.String
		e.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAtStr)
		e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAtStr)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAtStr)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hook executions: %w", err)
	}
	return out, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
