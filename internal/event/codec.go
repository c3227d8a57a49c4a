package event

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ToMap renders the message in its wire shape: event_id, event_type,
// timestamp as float seconds, content, and an optional context object.
func (m *Message) ToMap() map[string]any {
	out := map[string]any{
		"event_id":   m.ID,
		"event_type": string(m.Type),
		"timestamp":  TimestampSeconds(m.Timestamp),
		"content":    m.Content,
	}
	if m.Context != nil {
		ctx := map[string]any{}
		if m.Context.AgentID != "" {
			ctx["agent_id"] = m.Context.AgentID
		}
		if m.Context.ConversationID != "" {
			ctx["conversation_id"] = m.Context.ConversationID
		}
		if m.Context.Metadata != nil {
			ctx["metadata"] = m.Context.Metadata
		}
		out["context"] = ctx
	}
	return out
}

// FromMap parses the wire shape back into a Message. Unknown event types
// and missing required fields are rejected.
func FromMap(raw map[string]any) (*Message, error) {
	id, _ := raw["event_id"].(string)
	if id == "" {
		return nil, fmt.Errorf("event missing event_id")
	}
	typeStr, _ := raw["event_type"].(string)
	t, err := ParseType(typeStr)
	if err != nil {
		return nil, err
	}
	seconds, err := asFloat(raw["timestamp"])
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", id, err)
	}
	content, _ := raw["content"].(map[string]any)
	if content == nil {
		content = map[string]any{}
	}
	msg := &Message{
		ID:        id,
		Type:      t,
		Timestamp: TimeFromSeconds(seconds),
		Content:   content,
	}
	if rawCtx, ok := raw["context"].(map[string]any); ok {
		ctx := &Context{}
		ctx.AgentID, _ = rawCtx["agent_id"].(string)
		ctx.ConversationID, _ = rawCtx["conversation_id"].(string)
		ctx.Metadata, _ = rawCtx["metadata"].(map[string]any)
		msg.Context = ctx
	}
	return msg, nil
}

// TimestampSeconds converts a time to the wire's float-seconds form at
// microsecond precision.
func TimestampSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// TimeFromSeconds is the inverse of TimestampSeconds.
func TimeFromSeconds(seconds float64) time.Time {
	micros := int64(math.Round(seconds * 1e6))
	return time.UnixMicro(micros).UTC()
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("missing or invalid timestamp")
	}
}
