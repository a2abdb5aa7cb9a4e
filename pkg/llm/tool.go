package llm

// Tool declares a capability the remote model may invoke during generation.
// The name must be unique within one generation request. Parameters is a
// JSON-schema-shaped object consumed by the remote model; it is passed
// through opaquely and never interpreted or validated locally.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolCall is a structured request, emitted by the remote model, to invoke
// an externally-defined capability with specific arguments.
//
// A ToolCall is assembled fragment-by-fragment during streaming and becomes
// immutable once the stream signals completion. Arguments is always non-nil
// on a finalized call; on a degraded argument parse it is an empty map.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Tool-choice policies.
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceRequired = "required"
	ToolChoiceNone     = "none"
)
