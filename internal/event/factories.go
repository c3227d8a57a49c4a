package event

// Factories for the events the daemon and embedding agents emit. Each is a
// pure builder; none of them touch the bus.

func NewPreToolUse(toolName string, toolInput map[string]any) *Message {
	content := map[string]any{"tool_name": toolName}
	if toolInput != nil {
		content["tool_input"] = toolInput
	}
	return New(PreToolUse, content)
}

func NewPostToolUse(toolName string, toolInput map[string]any, result any) *Message {
	content := map[string]any{"tool_name": toolName}
	if toolInput != nil {
		content["tool_input"] = toolInput
	}
	if result != nil {
		content["result"] = result
	}
	return New(PostToolUse, content)
}

func NewUserPromptSubmit(prompt string) *Message {
	return New(UserPromptSubmit, map[string]any{"prompt": prompt})
}

func NewStop(reason string) *Message {
	return New(Stop, map[string]any{"reason": reason})
}

func NewSessionStart(sessionID string) *Message {
	return New(SessionStart, map[string]any{"session_id": sessionID})
}

func NewSessionEnd(sessionID, reason string) *Message {
	content := map[string]any{"session_id": sessionID}
	if reason != "" {
		content["reason"] = reason
	}
	return New(SessionEnd, content)
}

func NewError(message, source string) *Message {
	content := map[string]any{"message": message}
	if source != "" {
		content["source"] = source
	}
	return New(ErrorEvent, content)
}
