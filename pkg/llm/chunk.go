package llm

// FinishReason is the terminal classification of why generation stopped.
type FinishReason string

const (
	FinishReasonStop    FinishReason = "stop"
	FinishReasonLength  FinishReason = "length"
	FinishReasonToolUse FinishReason = "tool_use"
	FinishReasonError   FinishReason = "error"
)

// StreamChunk is the incremental unit emitted while a generation streams.
//
// Content always holds the full accumulated text so far and Delta the
// increment since the previous chunk; for every chunk n > 0,
// Content(n) == Content(n-1) + Delta(n). The same contract holds for the
// reasoning channel. This accumulation guarantee is upheld by every
// normalizer regardless of the vendor's wire format.
type StreamChunk struct {
	// Content is the full accumulated text so far, monotonically
	// non-decreasing in length across the stream.
	Content string `json:"content"`

	// Delta is the text increment since the previous chunk. Empty for
	// chunks emitted by non-text signals.
	Delta string `json:"delta"`

	// Reasoning mirrors Content/Delta for the separate reasoning channel,
	// present only for vendors/models that expose one.
	Reasoning *Reasoning `json:"reasoning,omitempty"`

	// ToolCalls is present only when tool-call information completed in
	// this chunk. It carries the full set of calls finalized so far this
	// turn, never a half-built fragment.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// FinishReason is set at most once, on the terminal chunk.
	FinishReason FinishReason `json:"finish_reason,omitempty"`

	// Usage is the merged usage snapshot, typically populated only on the
	// terminal chunk.
	Usage *Usage `json:"usage,omitempty"`
}

// Reasoning is the accumulated/delta pair for the reasoning channel.
type Reasoning struct {
	Content string `json:"content"`
	Delta   string `json:"delta"`
}

// StreamResult is the terminal snapshot of a completed stream: the fold of
// its StreamChunk sequence. It is derived, never constructed independently.
type StreamResult struct {
	Content      string       `json:"content"`
	Reasoning    string       `json:"reasoning,omitempty"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
	Usage        *Usage       `json:"usage,omitempty"`
}

// Stream yields StreamChunks in emission order via sequential pull.
// Next returns (nil, nil) once the stream is exhausted. A transport failure
// mid-stream is returned as a non-nil error; chunks already delivered remain
// valid but no partial StreamResult is recoverable through the stream itself.
//
// A Stream is owned by a single consumer and is not safe for concurrent use.
// Abandoning a stream (never calling Next again) is allowed; pull-based
// streams do no background work on the consumer's behalf.
type Stream interface {
	Next() (*StreamChunk, error)
}
