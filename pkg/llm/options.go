package llm

// GenerateOptions carries the generation knobs passed through to a vendor
// request. All sampling parameters are optional; nil means "vendor default".
// The core does not interpret any of these beyond pass-through, except Tools
// and ToolChoice which gate whether tool-call assembly is active for the
// stream.
type GenerateOptions struct {
	// Model name (e.g. "gpt-4o", "claude-sonnet-4-20250514", "gemini-2.0-flash")
	Model string `json:"model"`

	// Generation parameters (unified across providers)
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	TopK        *int     `json:"top_k,omitempty"`
	Stop        []string `json:"stop,omitempty"`

	// Tool declarations and choice policy. ToolChoice is one of "auto",
	// "required", "none", or a specific declared tool name.
	Tools      []Tool `json:"tools,omitempty"`
	ToolChoice string `json:"tool_choice,omitempty"`

	// Provider-specific fields that don't map to common parameters
	Extra map[string]any `json:"extra,omitempty"`
}
