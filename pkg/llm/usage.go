package llm

// Usage contains token counts and timing information for one generation
// request. Every field is optional: vendors disagree on which counters they
// report and some emit them incrementally across multiple frames, so usage
// signals are merged field-wise rather than replaced.
type Usage struct {
	// Token counts
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
	TotalTokens  int `json:"total_tokens,omitempty"`

	// Reasoning/thinking token counts (vendors with a reasoning channel)
	ReasoningTokens int `json:"reasoning_tokens,omitempty"`

	// Cache token counts (Anthropic prompt caching)
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`

	// Timing (provider-specific, normalized to nanoseconds where possible)
	TotalDurationNs int64 `json:"total_duration_ns,omitempty"`
}

// Merge folds another usage snapshot into u field-wise. Zero fields in the
// incoming snapshot never clobber previously reported values, so partial
// usage frames arriving across a stream combine into one snapshot.
func (u *Usage) Merge(in *Usage) {
	if in == nil {
		return
	}
	if in.InputTokens != 0 {
		u.InputTokens = in.InputTokens
	}
	if in.OutputTokens != 0 {
		u.OutputTokens = in.OutputTokens
	}
	if in.TotalTokens != 0 {
		u.TotalTokens = in.TotalTokens
	}
	if in.ReasoningTokens != 0 {
		u.ReasoningTokens = in.ReasoningTokens
	}
	if in.CacheCreationInputTokens != 0 {
		u.CacheCreationInputTokens = in.CacheCreationInputTokens
	}
	if in.CacheReadInputTokens != 0 {
		u.CacheReadInputTokens = in.CacheReadInputTokens
	}
	if in.TotalDurationNs != 0 {
		u.TotalDurationNs = in.TotalDurationNs
	}
	if u.TotalTokens == 0 && u.InputTokens > 0 && u.OutputTokens > 0 {
		u.TotalTokens = u.InputTokens + u.OutputTokens
	}
}
