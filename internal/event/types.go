// Package event defines the lifecycle event model shared by the bus, the
// hook dispatcher, and the observer API. Every event flowing through the
// system is a Message with a closed Type; ad-hoc event kinds are rejected
// at the wire boundary.
package event

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Type identifies a lifecycle event. The set is closed: unknown values
// fail ParseType rather than defaulting.
type Type string

const (
	PreToolUse       Type = "PreToolUse"
	PostToolUse      Type = "PostToolUse"
	UserPromptSubmit Type = "UserPromptSubmit"
	Stop             Type = "Stop"
	SessionStart     Type = "SessionStart"
	SessionEnd       Type = "SessionEnd"
	ErrorEvent       Type = "Error"
)

// Types lists every valid event type in declaration order.
func Types() []Type {
	return []Type{
		PreToolUse,
		PostToolUse,
		UserPromptSubmit,
		Stop,
		SessionStart,
		SessionEnd,
		ErrorEvent,
	}
}

func (t Type) String() string { return string(t) }

// ParseType validates a wire event type string.
func ParseType(value string) (Type, error) {
	for _, t := range Types() {
		if string(t) == value {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown event type %q", value)
}

// Context carries optional provenance for a Message.
type Context struct {
	AgentID        string         `json:"agent_id,omitempty"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Message is the universal event envelope. It is immutable after emit;
// producers build a fresh Message per occurrence.
type Message struct {
	ID        string         `json:"event_id"`
	Type      Type           `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	Content   map[string]any `json:"content"`
	Context   *Context       `json:"context,omitempty"`
}

// New builds a Message with a fresh ULID and the current time. The
// timestamp is truncated to microseconds so the float-seconds wire form
// round-trips exactly.
func New(t Type, content map[string]any) *Message {
	if content == nil {
		content = map[string]any{}
	}
	return &Message{
		ID:        ulid.Make().String(),
		Type:      t,
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
		Content:   content,
	}
}

// WithContext returns a copy of the message carrying the given context.
func (m *Message) WithContext(ctx *Context) *Message {
	out := *m
	out.Context = ctx
	return &out
}

// ToolName returns content["tool_name"] if present, else "".
func (m *Message) ToolName() string {
	if m == nil || m.Content == nil {
		return ""
	}
	name, _ := m.Content["tool_name"].(string)
	return name
}
