package stream

import (
	"strings"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
)

// Accumulator is the per-stream state machine. It consumes normalized
// signals strictly in arrival order and maintains the running accumulated
// text, reasoning text, in-progress tool-call table, last finish reason and
// merged usage snapshot.
//
// An Accumulator is owned by exactly one stream instance and is never shared
// across concurrent generations.
type Accumulator struct {
	content   strings.Builder
	reasoning strings.Builder
	asm       *assembler

	finishReason llm.FinishReason
	usage        *llm.Usage
	finished     bool
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{asm: newAssembler()}
}

// Apply consumes one signal and returns the chunk to emit, or nil when the
// signal produced no outward-facing change (an incomplete tool-call fragment
// or a usage merge). Chunks are emitted in signal arrival order, never
// buffered or reordered.
func (a *Accumulator) Apply(sig Signal) *llm.StreamChunk {
	switch sig.Kind {
	case SignalTextDelta:
		a.content.WriteString(sig.TextDelta)
		return &llm.StreamChunk{
			Content: a.content.String(),
			Delta:   sig.TextDelta,
		}

	case SignalReasoningDelta:
		a.reasoning.WriteString(sig.ReasoningDelta)
		return &llm.StreamChunk{
			Content: a.content.String(),
			Reasoning: &llm.Reasoning{
				Content: a.reasoning.String(),
				Delta:   sig.ReasoningDelta,
			},
		}

	case SignalToolCallFragment:
		if !a.asm.apply(sig.ToolCall) {
			return nil
		}
		// A call completed: surface the full current finalized set, not
		// just the newest call.
		return &llm.StreamChunk{
			Content:   a.content.String(),
			ToolCalls: a.asm.finalized(),
		}

	case SignalUsage:
		if a.usage == nil {
			a.usage = &llm.Usage{}
		}
		a.usage.Merge(sig.Usage)
		return nil

	case SignalFinish:
		if a.finished {
			// Finish reason is terminal; later finish signals are ignored.
			return nil
		}
		a.finished = true
		a.finishReason = sig.FinishReason

		// A finish arriving while tool calls are still in progress is a
		// vendor inconsistency: force-finalize with whatever argument
		// text has accumulated.
		a.asm.finalizeAll()

		chunk := &llm.StreamChunk{
			Content:      a.content.String(),
			FinishReason: a.finishReason,
			Usage:        a.usage,
		}
		if calls := a.asm.finalized(); len(calls) > 0 {
			chunk.ToolCalls = calls
		}
		if a.reasoning.Len() > 0 {
			chunk.Reasoning = &llm.Reasoning{Content: a.reasoning.String()}
		}
		return chunk
	}

	return nil
}

// Finished reports whether a finish signal has been consumed.
func (a *Accumulator) Finished() bool { return a.finished }

// Result snapshots the accumulator into a StreamResult. A stream that ended
// without an explicit finish signal is normalized to an implicit stop; this
// is best-effort, and callers should not treat a non-error finish reason as
// proof of success on such streams.
func (a *Accumulator) Result() *llm.StreamResult {
	reason := a.finishReason
	if reason == "" {
		reason = llm.FinishReasonStop
	}
	return &llm.StreamResult{
		Content:      a.content.String(),
		Reasoning:    a.reasoning.String(),
		ToolCalls:    a.asm.finalized(),
		FinishReason: reason,
		Usage:        a.usage,
	}
}
