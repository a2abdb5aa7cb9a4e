package anthropic_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/provider/anthropic"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/stream"
)

// drive runs raw event frames through a fresh normalizer and accumulator,
// returning every emitted chunk.
func drive(frames ...string) []*llm.StreamChunk {
	norm := anthropic.NewNormalizer()
	acc := stream.NewAccumulator()
	var chunks []*llm.StreamChunk
	for _, frame := range frames {
		for _, sig := range norm.Normalize([]byte(frame)) {
			if chunk := acc.Apply(sig); chunk != nil {
				chunks = append(chunks, chunk)
			}
		}
	}
	return chunks
}

var _ = Describe("Normalizer", func() {
	It("routes text_delta events to accumulating text chunks", func() {
		chunks := drive(
			`{"type":"message_start","message":{"usage":{"input_tokens":12}}}`,
			`{"type":"content_block_start","index":0,"content_block":{"type":"text"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":4}}`,
			`{"type":"message_stop"}`,
		)

		Expect(chunks).To(HaveLen(3))
		Expect(chunks[0].Content).To(Equal("Hel"))
		Expect(chunks[1].Content).To(Equal("Hello"))

		terminal := chunks[2]
		Expect(terminal.FinishReason).To(Equal(llm.FinishReasonStop))
		Expect(terminal.Usage).NotTo(BeNil())
		Expect(terminal.Usage.InputTokens).To(Equal(12))
		Expect(terminal.Usage.OutputTokens).To(Equal(4))
		Expect(terminal.Usage.TotalTokens).To(Equal(16))
	})

	It("routes thinking_delta events to the reasoning channel", func() {
		chunks := drive(
			`{"type":"content_block_start","index":0,"content_block":{"type":"thinking"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"let me see"}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"content_block_start","index":1,"content_block":{"type":"text"}}`,
			`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"done"}}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
		)

		Expect(chunks).To(HaveLen(3))
		Expect(chunks[0].Reasoning.Delta).To(Equal("let me see"))
		Expect(chunks[0].Content).To(BeEmpty())
		Expect(chunks[1].Content).To(Equal("done"))
		Expect(chunks[2].Reasoning.Content).To(Equal("let me see"))
	})

	It("assembles a tool call across start, json deltas and stop", func() {
		chunks := drive(
			`{"type":"content_block_start","index":0,"content_block":{"type":"text"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Checking."}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather"}}`,
			`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"city\":"}}`,
			`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":" \"Paris\"}"}}`,
			`{"type":"content_block_stop","index":1}`,
			`{"type":"message_delta","delta":{"stop_reason":"tool_use"}}`,
		)

		Expect(chunks).To(HaveLen(3))
		// content_block_stop completes the call and surfaces the set.
		Expect(chunks[1].ToolCalls).To(HaveLen(1))
		Expect(chunks[1].ToolCalls[0].ID).To(Equal("toolu_1"))
		Expect(chunks[1].ToolCalls[0].Name).To(Equal("get_weather"))
		Expect(chunks[1].ToolCalls[0].Arguments).To(Equal(map[string]any{"city": "Paris"}))

		Expect(chunks[2].FinishReason).To(Equal(llm.FinishReasonToolUse))
		Expect(chunks[2].ToolCalls).To(HaveLen(1))
	})

	It("accepts a call whose input arrives fully parsed on block start", func() {
		chunks := drive(
			`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"ping","input":{"host":"example.com"}}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"message_delta","delta":{"stop_reason":"tool_use"}}`,
		)

		Expect(chunks).To(HaveLen(2))
		Expect(chunks[0].ToolCalls[0].Arguments).To(Equal(map[string]any{"host": "example.com"}))
	})

	It("keeps two interleaved tool blocks separated by index", func() {
		chunks := drive(
			`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_a","name":"alpha"}}`,
			`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_b","name":"beta"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"x\":1}"}}`,
			`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"y\":2}"}}`,
			`{"type":"content_block_stop","index":1}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"message_delta","delta":{"stop_reason":"tool_use"}}`,
		)

		// beta completes first and is surfaced alone, then the full set.
		Expect(chunks).To(HaveLen(3))
		Expect(chunks[0].ToolCalls).To(HaveLen(1))
		Expect(chunks[0].ToolCalls[0].Name).To(Equal("beta"))
		Expect(chunks[1].ToolCalls).To(HaveLen(2))
		Expect(chunks[1].ToolCalls[0].Name).To(Equal("beta"))
		Expect(chunks[1].ToolCalls[1].Name).To(Equal("alpha"))
		Expect(chunks[1].ToolCalls[1].Arguments).To(Equal(map[string]any{"x": float64(1)}))
	})

	It("force-finalizes an unstopped tool block when the finish arrives", func() {
		chunks := drive(
			`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"city\": \"Par"}}`,
			`{"type":"message_delta","delta":{"stop_reason":"tool_use"}}`,
		)

		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0].ToolCalls[0].Name).To(Equal("get_weather"))
		Expect(chunks[0].ToolCalls[0].Arguments).To(BeEmpty())
	})

	It("ignores ping events", func() {
		norm := anthropic.NewNormalizer()
		Expect(norm.Normalize([]byte(`{"type":"ping"}`))).To(BeEmpty())
	})

	It("classifies error events and unknown types as error finishes", func() {
		norm := anthropic.NewNormalizer()

		signals := norm.Normalize([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`))
		Expect(signals).To(HaveLen(1))
		Expect(signals[0].FinishReason).To(Equal(llm.FinishReasonError))

		signals = norm.Normalize([]byte(`{"type":"surprise_event"}`))
		Expect(signals).To(HaveLen(1))
		Expect(signals[0].FinishReason).To(Equal(llm.FinishReasonError))
	})

	DescribeTable("stop reason mapping",
		func(wire string, want llm.FinishReason) {
			chunks := drive(`{"type":"message_delta","delta":{"stop_reason":"` + wire + `"}}`)
			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0].FinishReason).To(Equal(want))
		},
		Entry("end_turn", "end_turn", llm.FinishReasonStop),
		Entry("stop_sequence", "stop_sequence", llm.FinishReasonStop),
		Entry("max_tokens", "max_tokens", llm.FinishReasonLength),
		Entry("tool_use", "tool_use", llm.FinishReasonToolUse),
	)
})
