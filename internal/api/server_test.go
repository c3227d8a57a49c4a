package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flitsinc/go-hooks/internal/dispatch"
	"github.com/flitsinc/go-hooks/internal/event"
	"github.com/flitsinc/go-hooks/internal/eventbus"
	"github.com/flitsinc/go-hooks/internal/history"
	"github.com/flitsinc/go-hooks/internal/hookcfg"
	"github.com/flitsinc/go-hooks/internal/hookexec"
	"github.com/flitsinc/go-hooks/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *eventbus.Bus) {
	t.Helper()
	db, closeFn := testutil.OpenTestDB(t)
	t.Cleanup(closeFn)

	dir := t.TempDir()
	cfgDir := filepath.Join(dir, hookcfg.ConfigDirName)
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	configJSON := `{"hooks": {"PostToolUse": [{"matcher": ".*", "hooks": [{"type": "command", "command": "echo {{tool_name}}"}]}]}}`
	if err := os.WriteFile(filepath.Join(cfgDir, "hooks.json"), []byte(configJSON), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	store := history.NewStore(db)
	disp := dispatch.New(hookcfg.NewStore(filepath.Join(cfgDir, "hooks.json")), hookexec.NewExecutor(dir, 5*time.Second))
	disp.History = store
	disp.Logf = func(string, ...any) {}

	bus := eventbus.NewBus()
	bus.Logf = func(string, ...any) {}
	bus.SetProcessor(disp.Processor())

	return &Server{Bus: bus, History: store, StartedAt: time.Now()}, bus
}

func TestServerHealth(t *testing.T) {
	server, _ := newTestServer(t)
	client := testutil.NewInProcessClient(server.Handler())

	resp := doJSON(t, client, "GET", "/api/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status: %d body=%s", resp.StatusCode, readBody(t, resp))
	}
	var payload map[string]any
	decodeJSONResponse(t, resp, &payload)
	if payload["status"] != "ok" {
		t.Fatalf("unexpected health payload: %v", payload)
	}
}

func TestServerEmitEventRunsHooks(t *testing.T) {
	server, _ := newTestServer(t)
	client := testutil.NewInProcessClient(server.Handler())

	msg := event.NewPostToolUse("WriteFile", map[string]any{"path": "a.txt"}, nil)
	resp := doJSON(t, client, "POST", "/api/events", msg.ToMap())
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("emit status: %d body=%s", resp.StatusCode, readBody(t, resp))
	}
	var payload map[string]any
	decodeJSONResponse(t, resp, &payload)
	if payload["event_id"] != msg.ID {
		t.Fatalf("event_id = %v, want %s", payload["event_id"], msg.ID)
	}

	recorded, err := server.History.ListForEvent(context.Background(), msg.ID)
	if err != nil {
		t.Fatalf("list executions: %v", err)
	}
	if len(recorded) != 1 || !recorded[0].Success {
		t.Fatalf("expected one recorded execution, got %+v", recorded)
	}
}

func TestServerEmitEventRejectsBadPayloads(t *testing.T) {
	server, _ := newTestServer(t)
	client := testutil.NewInProcessClient(server.Handler())

	cases := []map[string]any{
		{"event_type": "PostToolUse", "timestamp": 1.0, "content": map[string]any{}},
		{"event_id": "e1", "event_type": "NotAType", "timestamp": 1.0, "content": map[string]any{}},
		{"event_id": "e1", "event_type": "PostToolUse", "timestamp": "soon", "content": map[string]any{}},
	}
	for _, payload := range cases {
		resp := doJSON(t, client, "POST", "/api/events", payload)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("payload %v: status %d, want 400", payload, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestServerEmitEventMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t)
	client := testutil.NewInProcessClient(server.Handler())

	resp := doJSON(t, client, "GET", "/api/events", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status: %d, want 405", resp.StatusCode)
	}
}

func TestServerExecutions(t *testing.T) {
	server, _ := newTestServer(t)
	client := testutil.NewInProcessClient(server.Handler())

	msg := event.NewPostToolUse("ReadFile", nil, nil)
	resp := doJSON(t, client, "POST", "/api/events", msg.ToMap())
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("emit status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, client, "GET", "/api/executions?limit=10", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("executions status: %d body=%s", resp.StatusCode, readBody(t, resp))
	}
	var items []history.Execution
	decodeJSONResponse(t, resp, &items)
	if len(items) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(items))
	}

	resp = doJSON(t, client, "GET", "/api/executions?event_id="+msg.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("executions by event status: %d", resp.StatusCode)
	}
	var byEvent []history.Execution
	decodeJSONResponse(t, resp, &byEvent)
	if len(byEvent) != 1 || byEvent[0].EventID != msg.ID {
		t.Fatalf("unexpected executions for event: %+v", byEvent)
	}
}

func TestServerMetrics(t *testing.T) {
	server, bus := newTestServer(t)
	client := testutil.NewInProcessClient(server.Handler())

	if err := bus.Emit(context.Background(), event.NewSessionStart("s1")); err != nil {
		t.Fatalf("emit: %v", err)
	}

	resp := doJSON(t, client, "GET", "/api/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status: %d body=%s", resp.StatusCode, readBody(t, resp))
	}
	var metrics eventbus.Metrics
	decodeJSONResponse(t, resp, &metrics)
	if metrics.TotalEvents != 1 {
		t.Fatalf("total_events = %d, want 1", metrics.TotalEvents)
	}
}

func doJSON(t *testing.T, client *http.Client, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, "http://in-process"+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeJSONResponse(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(dest); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return string(data)
}
