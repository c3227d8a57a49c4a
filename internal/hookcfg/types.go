package hookcfg

// HookKind is a closed tag for hook actions. Only command hooks exist
// today; new kinds get a constant here and a case in the executor.
type HookKind string

const KindCommand HookKind = "command"

// Hook is one configured action under a matcher.
type Hook struct {
	Kind        HookKind `json:"type"`
	Command     string   `json:"command"`
	Description string   `json:"description,omitempty"`
}

// Matcher binds a tool-name regex pattern to an ordered list of hooks.
type Matcher struct {
	Pattern string `json:"matcher"`
	Hooks   []Hook `json:"hooks"`
}

// Config maps event type names to their ordered matcher lists. The keys
// are plain strings: configuration for types the host does not emit is
// inert rather than invalid.
type Config struct {
	Hooks map[string][]Matcher `json:"hooks"`
}
