// Package openai implements the provider client and stream normalizer for
// OpenAI's Chat Completions API.
package openai

import (
	"bytes"
	"encoding/json"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/stream"
)

// doneSentinel terminates an OpenAI SSE stream after the final chunk.
var doneSentinel = []byte("[DONE]")

// normalizer translates OpenAI stream chunks into internal signals. OpenAI
// frames carry pure deltas, so no snapshot diffing is needed; tool-call
// argument fragments are keyed by the wire's tool index and complete only
// when the finish reason arrives.
type normalizer struct{}

// NewNormalizer creates a single-stream normalizer for OpenAI chunks.
func NewNormalizer() stream.Normalizer {
	return &normalizer{}
}

func (n *normalizer) Name() string { return "openai" }

func (n *normalizer) Normalize(frame []byte) []stream.Signal {
	frame = bytes.TrimSpace(frame)
	if len(frame) == 0 || bytes.Equal(frame, doneSentinel) {
		return nil
	}

	var chunk openaiChunk
	if err := json.Unmarshal(frame, &chunk); err != nil {
		return []stream.Signal{stream.Finish(llm.FinishReasonError)}
	}

	var signals []stream.Signal

	if len(chunk.Choices) > 0 {
		choice := chunk.Choices[0]

		if choice.Delta.ReasoningContent != "" {
			signals = append(signals, stream.ReasoningDelta(choice.Delta.ReasoningContent))
		}
		if choice.Delta.Content != "" {
			signals = append(signals, stream.TextDelta(choice.Delta.Content))
		}
		for _, tc := range choice.Delta.ToolCalls {
			signals = append(signals, stream.Signal{
				Kind: stream.SignalToolCallFragment,
				ToolCall: &stream.ToolCallFragment{
					Index:          tc.Index,
					ID:             tc.ID,
					Name:           tc.Function.Name,
					ArgumentsDelta: tc.Function.Arguments,
				},
			})
		}

		// Usage rides a standalone final frame; keep it ahead of the
		// finish signal within this frame regardless.
		if chunk.Usage != nil {
			signals = append(signals, stream.UsageSignal(convertUsage(chunk.Usage)))
		}

		if choice.FinishReason != "" {
			signals = append(signals, stream.Finish(mapFinishReason(choice.FinishReason)))
		}
		return signals
	}

	if chunk.Usage != nil {
		signals = append(signals, stream.UsageSignal(convertUsage(chunk.Usage)))
	}
	return signals
}

func convertUsage(u *openaiUsage) *llm.Usage {
	usage := &llm.Usage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  u.TotalTokens,
	}
	if u.CompletionTokensDetails != nil {
		usage.ReasoningTokens = u.CompletionTokensDetails.ReasoningTokens
	}
	return usage
}

func mapFinishReason(reason string) llm.FinishReason {
	switch reason {
	case "stop", "content_filter":
		return llm.FinishReasonStop
	case "length":
		return llm.FinishReasonLength
	case "tool_calls", "function_call":
		return llm.FinishReasonToolUse
	default:
		return llm.FinishReasonStop
	}
}
