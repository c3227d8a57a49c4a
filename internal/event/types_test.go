package event

import (
	"testing"
	"time"
)

func TestParseTypeRejectsUnknown(t *testing.T) {
	if _, err := ParseType("PostToolUse"); err != nil {
		t.Fatalf("parse known type: %v", err)
	}
	if _, err := ParseType("TotallyMadeUp"); err == nil {
		t.Fatalf("expected unknown event type to be rejected")
	}
	if _, err := ParseType(""); err == nil {
		t.Fatalf("expected empty event type to be rejected")
	}
}

func TestNewAssignsUniqueIDs(t *testing.T) {
	first := New(PreToolUse, nil)
	second := New(PreToolUse, nil)
	if first.ID == "" || second.ID == "" {
		t.Fatalf("expected non-empty ids")
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %s twice", first.ID)
	}
	if first.Content == nil {
		t.Fatalf("expected nil content to be replaced with an empty map")
	}
}

func TestWireRoundTrip(t *testing.T) {
	msg := New(PostToolUse, map[string]any{
		"tool_name":  "WriteToFile",
		"tool_input": map[string]any{"path": "/tmp/x"},
	})
	msg = msg.WithContext(&Context{
		AgentID:        "agent-1",
		ConversationID: "conv-9",
		Metadata:       map[string]any{"origin": "test"},
	})

	decoded, err := FromMap(msg.ToMap())
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	if decoded.ID != msg.ID || decoded.Type != msg.Type {
		t.Fatalf("identity not preserved: %+v", decoded)
	}
	if !decoded.Timestamp.Equal(msg.Timestamp) {
		t.Fatalf("timestamp drifted: %v != %v", decoded.Timestamp, msg.Timestamp)
	}
	if decoded.ToolName() != "WriteToFile" {
		t.Fatalf("content not preserved: %+v", decoded.Content)
	}
	if decoded.Context == nil || decoded.Context.AgentID != "agent-1" || decoded.Context.ConversationID != "conv-9" {
		t.Fatalf("context not preserved: %+v", decoded.Context)
	}
	if origin, _ := decoded.Context.Metadata["origin"].(string); origin != "test" {
		t.Fatalf("metadata not preserved: %+v", decoded.Context.Metadata)
	}
}

func TestFromMapFailsClosed(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"event_id":   "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			"event_type": "PreToolUse",
			"timestamp":  1700000000.25,
			"content":    map[string]any{},
		}
	}

	raw := base()
	raw["event_type"] = "NotAThing"
	if _, err := FromMap(raw); err == nil {
		t.Fatalf("expected unknown event_type to be rejected")
	}

	raw = base()
	delete(raw, "event_id")
	if _, err := FromMap(raw); err == nil {
		t.Fatalf("expected missing event_id to be rejected")
	}

	raw = base()
	delete(raw, "timestamp")
	if _, err := FromMap(raw); err == nil {
		t.Fatalf("expected missing timestamp to be rejected")
	}
}

func TestTimestampSecondsRoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 28, 12, 30, 15, 250_000_000, time.UTC)
	back := TimeFromSeconds(TimestampSeconds(at))
	if !back.Equal(at) {
		t.Fatalf("expected %v, got %v", at, back)
	}
}

func TestToolNameAbsent(t *testing.T) {
	msg := New(SessionStart, map[string]any{"session_id": "s"})
	if msg.ToolName() != "" {
		t.Fatalf("expected empty tool name")
	}
}
