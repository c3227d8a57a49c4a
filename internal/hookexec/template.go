package hookexec

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/flitsinc/go-hooks/internal/event"
)

var tokenPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Substitute replaces {{name}} tokens in template from vars. Tokens with
// no matching variable are left verbatim: templates are best-effort, not
// validated.
func Substitute(template string, vars map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := token[2 : len(token)-2]
		if value, ok := vars[name]; ok {
			return value
		}
		return token
	})
}

// Variables builds the per-event substitution table: the event identity
// fields, tool_name and flattened tool_input keys, context fields, and
// every other scalar top-level content field under its own name.
func Variables(msg *event.Message, cwd string) map[string]string {
	vars := map[string]string{
		"event_type":    msg.Type.String(),
		"event_id":      msg.ID,
		"timestamp":     strconv.FormatFloat(event.TimestampSeconds(msg.Timestamp), 'f', -1, 64),
		"tool_name":     msg.ToolName(),
		"event_content": compactJSON(msg.Content),
		"cwd":           cwd,
	}

	if msg.Context != nil {
		if msg.Context.AgentID != "" {
			vars["agent_id"] = msg.Context.AgentID
		}
		if msg.Context.ConversationID != "" {
			vars["conversation_id"] = msg.Context.ConversationID
		}
		for key, value := range msg.Context.Metadata {
			vars["context_"+key] = formatValue(value)
		}
	}

	if toolInput, ok := msg.Content["tool_input"].(map[string]any); ok {
		for key, value := range toolInput {
			vars["tool_"+key] = formatValue(value)
		}
	}

	for key, value := range msg.Content {
		if key == "tool_name" || key == "tool_input" {
			continue
		}
		if isScalar(value) {
			vars[key] = formatValue(value)
		}
	}
	return vars
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

func formatValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case int32:
		return strconv.FormatInt(int64(value), 10)
	case int64:
		return strconv.FormatInt(value, 10)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return compactJSON(value)
	}
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
