// Package google implements the provider client and stream normalizer for
// Google's Gemini API.
package google

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/stream"
)

// normalizer translates Gemini stream frames into internal signals.
//
// Gemini's serving paths disagree on framing: some return per-frame deltas,
// others whole-candidate snapshots of all text generated so far. The
// normalizer keeps the last seen accumulation per channel and diffs each
// incoming text against it, so downstream always receives delta-shaped
// signals. Function calls arrive fully parsed in a single part; the wire
// carries no call id, so one is synthesized per call.
type normalizer struct {
	seenText      string
	seenReasoning string
	nextSlot      int
	sawToolCall   bool
}

// NewNormalizer creates a single-stream normalizer for Gemini frames.
func NewNormalizer() stream.Normalizer {
	return &normalizer{}
}

func (n *normalizer) Name() string { return "google" }

func (n *normalizer) Normalize(frame []byte) []stream.Signal {
	var parsed googleFrame
	if err := json.Unmarshal(frame, &parsed); err != nil {
		return []stream.Signal{stream.Finish(llm.FinishReasonError)}
	}

	var signals []stream.Signal

	if len(parsed.Candidates) > 0 {
		candidate := parsed.Candidates[0]

		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				if part.Thought {
					if delta, ok := diff(&n.seenReasoning, part.Text); ok {
						signals = append(signals, stream.ReasoningDelta(delta))
					}
				} else if delta, ok := diff(&n.seenText, part.Text); ok {
					signals = append(signals, stream.TextDelta(delta))
				}
			}
			if part.FunctionCall != nil {
				signals = append(signals, n.functionCallSignal(part.FunctionCall))
			}
		}

		if parsed.UsageMetadata != nil {
			signals = append(signals, stream.UsageSignal(convertUsage(parsed.UsageMetadata)))
		}

		if candidate.FinishReason != "" {
			signals = append(signals, stream.Finish(n.mapFinishReason(candidate.FinishReason)))
		}
		return signals
	}

	if parsed.UsageMetadata != nil {
		signals = append(signals, stream.UsageSignal(convertUsage(parsed.UsageMetadata)))
	}
	return signals
}

// diff computes the delta between the accumulated text for a channel and an
// incoming text that may be either a snapshot or a plain delta. A snapshot
// extends what was already seen; anything else is treated as a delta to
// append. An incoming text identical to the accumulation is a duplicate
// snapshot and yields no signal.
func diff(seen *string, incoming string) (string, bool) {
	if strings.HasPrefix(incoming, *seen) {
		delta := incoming[len(*seen):]
		*seen = incoming
		if delta == "" {
			return "", false
		}
		return delta, true
	}
	*seen += incoming
	return incoming, true
}

// functionCallSignal wraps a fully parsed function call as a complete
// tool-call fragment. Each call occupies its own slot and gets a
// synthesized correlation id.
func (n *normalizer) functionCallSignal(call *googleFunctionCall) stream.Signal {
	n.sawToolCall = true
	slot := n.nextSlot
	n.nextSlot++

	args := call.Args
	if args == nil {
		args = map[string]any{}
	}
	return stream.Signal{
		Kind: stream.SignalToolCallFragment,
		ToolCall: &stream.ToolCallFragment{
			Index:     slot,
			ID:        "call_" + uuid.NewString(),
			Name:      call.Name,
			Arguments: args,
			Complete:  true,
		},
	}
}

// mapFinishReason maps Gemini finish reasons. Gemini reports STOP even for
// turns that requested tool execution, so a turn that emitted function
// calls finishes as tool_use.
func (n *normalizer) mapFinishReason(reason string) llm.FinishReason {
	switch reason {
	case "STOP":
		if n.sawToolCall {
			return llm.FinishReasonToolUse
		}
		return llm.FinishReasonStop
	case "MAX_TOKENS":
		return llm.FinishReasonLength
	default:
		return llm.FinishReasonStop
	}
}

func convertUsage(u *googleUsage) *llm.Usage {
	return &llm.Usage{
		InputTokens:     u.PromptTokenCount,
		OutputTokens:    u.CandidatesTokenCount,
		TotalTokens:     u.TotalTokenCount,
		ReasoningTokens: u.ThoughtsTokenCount,
	}
}
