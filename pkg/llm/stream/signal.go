// Package stream implements the normalization and accumulation engine for
// vendor response streams: the internal signal vocabulary every vendor
// normalizer emits, the accumulator state machine that folds signals into
// StreamChunks, the tool-call assembler, and generic chunk-sequence
// consumers.
package stream

import "github.com/chinmaymk/aikit-sub003/pkg/llm"

// SignalKind identifies one of the internal signals a normalizer may emit.
type SignalKind string

const (
	SignalTextDelta        SignalKind = "text_delta"
	SignalReasoningDelta   SignalKind = "reasoning_delta"
	SignalToolCallFragment SignalKind = "tool_call_fragment"
	SignalFinish           SignalKind = "finish"
	SignalUsage            SignalKind = "usage"
)

// Signal is one normalized unit derived from a raw vendor frame. Normalizers
// absorb all vendor quirks (snapshot-vs-delta framing, event naming,
// tool-call representation) and always emit delta-shaped signals; the
// accumulator never sees vendor wire shapes.
type Signal struct {
	Kind SignalKind

	// TextDelta is the text increment (SignalTextDelta).
	TextDelta string

	// ReasoningDelta is the reasoning-channel increment (SignalReasoningDelta).
	ReasoningDelta string

	// ToolCall carries fragmentary tool-call data (SignalToolCallFragment).
	ToolCall *ToolCallFragment

	// FinishReason is the terminal classification (SignalFinish).
	FinishReason llm.FinishReason

	// Usage is a partial usage snapshot to merge (SignalUsage).
	Usage *llm.Usage
}

// ToolCallFragment is one piece of an in-progress tool call. Vendors differ
// widely here: some stream raw JSON argument text across many frames tagged
// only by a slot index, others deliver a complete parsed call in one frame.
type ToolCallFragment struct {
	// Index is the vendor's slot index for this call within the turn. It
	// correlates fragments for vendors that tag the id only on the first
	// frame of a call.
	Index int

	// ID is the call's correlation id, introduced on the first fragment
	// and implied on subsequent ones.
	ID string

	// Name is the tool name, set once on the first fragment for the call.
	Name string

	// ArgumentsDelta is a raw JSON-text fragment to concatenate in arrival
	// order. The accumulated text is parsed only at completion.
	ArgumentsDelta string

	// Arguments is set instead of ArgumentsDelta when the vendor delivers
	// fully parsed arguments in a single frame.
	Arguments map[string]any

	// Complete marks this fragment as the completion marker for the call.
	Complete bool
}

// TextDelta builds a text-delta signal.
func TextDelta(delta string) Signal {
	return Signal{Kind: SignalTextDelta, TextDelta: delta}
}

// ReasoningDelta builds a reasoning-delta signal.
func ReasoningDelta(delta string) Signal {
	return Signal{Kind: SignalReasoningDelta, ReasoningDelta: delta}
}

// Finish builds a finish signal.
func Finish(reason llm.FinishReason) Signal {
	return Signal{Kind: SignalFinish, FinishReason: reason}
}

// UsageSignal builds a usage signal carrying a partial snapshot.
func UsageSignal(usage *llm.Usage) Signal {
	return Signal{Kind: SignalUsage, Usage: usage}
}
