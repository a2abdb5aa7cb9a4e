// Package anthropic implements the provider client and stream normalizer
// for Anthropic's Messages API.
package anthropic

import (
	"encoding/json"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/stream"
)

// normalizer translates Anthropic stream events into internal signals.
//
// The Messages API interleaves multiple content blocks (text, thinking,
// tool_use) within one turn, each addressed by index. A tool call's
// identity arrives fully formed on content_block_start; its input streams
// as input_json_delta fragments and completes on content_block_stop. The
// normalizer tracks each open block's kind so deltas and stop markers
// route to the right channel.
type normalizer struct {
	blocks map[int]string // open content-block index -> block type
}

// NewNormalizer creates a single-stream normalizer for Anthropic events.
func NewNormalizer() stream.Normalizer {
	return &normalizer{blocks: make(map[int]string)}
}

func (n *normalizer) Name() string { return "anthropic" }

func (n *normalizer) Normalize(frame []byte) []stream.Signal {
	var event anthropicEvent
	if err := json.Unmarshal(frame, &event); err != nil {
		return []stream.Signal{stream.Finish(llm.FinishReasonError)}
	}

	switch event.Type {
	case "message_start":
		if event.Message != nil && event.Message.Usage != nil {
			return []stream.Signal{stream.UsageSignal(convertUsage(event.Message.Usage))}
		}
		return nil

	case "content_block_start":
		if event.ContentBlock == nil {
			return nil
		}
		n.blocks[event.Index] = event.ContentBlock.Type
		if event.ContentBlock.Type != "tool_use" {
			return nil
		}
		frag := &stream.ToolCallFragment{
			Index: event.Index,
			ID:    event.ContentBlock.ID,
			Name:  event.ContentBlock.Name,
		}
		// Some responses deliver the call's input fully parsed here
		// instead of streaming input_json_delta fragments.
		if len(event.ContentBlock.Input) > 0 {
			frag.Arguments = event.ContentBlock.Input
		}
		return []stream.Signal{{Kind: stream.SignalToolCallFragment, ToolCall: frag}}

	case "content_block_delta":
		if event.Delta == nil {
			return nil
		}
		switch event.Delta.Type {
		case "text_delta":
			return []stream.Signal{stream.TextDelta(event.Delta.Text)}
		case "thinking_delta":
			return []stream.Signal{stream.ReasoningDelta(event.Delta.Thinking)}
		case "input_json_delta":
			return []stream.Signal{{
				Kind: stream.SignalToolCallFragment,
				ToolCall: &stream.ToolCallFragment{
					Index:          event.Index,
					ArgumentsDelta: event.Delta.PartialJSON,
				},
			}}
		}
		return nil

	case "content_block_stop":
		kind, open := n.blocks[event.Index]
		delete(n.blocks, event.Index)
		if !open || kind != "tool_use" {
			return nil
		}
		return []stream.Signal{{
			Kind:     stream.SignalToolCallFragment,
			ToolCall: &stream.ToolCallFragment{Index: event.Index, Complete: true},
		}}

	case "message_delta":
		var signals []stream.Signal
		if event.Usage != nil {
			signals = append(signals, stream.UsageSignal(convertUsage(event.Usage)))
		}
		if event.Delta != nil && event.Delta.StopReason != "" {
			signals = append(signals, stream.Finish(mapStopReason(event.Delta.StopReason)))
		}
		return signals

	case "message_stop", "ping":
		return nil

	case "error":
		return []stream.Signal{stream.Finish(llm.FinishReasonError)}
	}

	// Unrecognized event shapes are a vendor contract violation.
	return []stream.Signal{stream.Finish(llm.FinishReasonError)}
}

func convertUsage(u *anthropicUsage) *llm.Usage {
	return &llm.Usage{
		InputTokens:              u.InputTokens,
		OutputTokens:             u.OutputTokens,
		CacheCreationInputTokens: u.CacheCreationInputTokens,
		CacheReadInputTokens:     u.CacheReadInputTokens,
	}
}

func mapStopReason(reason string) llm.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return llm.FinishReasonStop
	case "max_tokens":
		return llm.FinishReasonLength
	case "tool_use":
		return llm.FinishReasonToolUse
	default:
		return llm.FinishReasonStop
	}
}
