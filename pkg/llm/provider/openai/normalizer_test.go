package openai_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/provider/openai"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/stream"
)

// drive runs raw frames through a fresh normalizer and accumulator, returning
// every emitted chunk.
func drive(frames ...string) []*llm.StreamChunk {
	norm := openai.NewNormalizer()
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
	It("turns content deltas into accumulating text chunks", func() {
		chunks := drive(
			`{"choices":[{"delta":{"content":"Hel"}}]}`,
			`{"choices":[{"delta":{"content":"lo"}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		)

		Expect(chunks).To(HaveLen(3))
		Expect(chunks[0].Delta).To(Equal("Hel"))
		Expect(chunks[0].Content).To(Equal("Hel"))
		Expect(chunks[1].Content).To(Equal("Hello"))
		Expect(chunks[2].FinishReason).To(Equal(llm.FinishReasonStop))
		Expect(chunks[2].Content).To(Equal("Hello"))
	})

	It("routes reasoning_content to the reasoning channel", func() {
		chunks := drive(
			`{"choices":[{"delta":{"reasoning_content":"thinking"}}]}`,
			`{"choices":[{"delta":{"content":"answer"}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		)

		Expect(chunks[0].Reasoning).NotTo(BeNil())
		Expect(chunks[0].Reasoning.Delta).To(Equal("thinking"))
		Expect(chunks[0].Content).To(BeEmpty())
		Expect(chunks[1].Content).To(Equal("answer"))
	})

	It("assembles tool calls from index-keyed argument fragments", func() {
		chunks := drive(
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_weather","arguments":""}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\": "}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Paris\"}"}}]}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		)

		// Fragments emit nothing until force-finalized by the finish frame.
		Expect(chunks).To(HaveLen(1))
		terminal := chunks[0]
		Expect(terminal.FinishReason).To(Equal(llm.FinishReasonToolUse))
		Expect(terminal.ToolCalls).To(HaveLen(1))
		Expect(terminal.ToolCalls[0].ID).To(Equal("call_1"))
		Expect(terminal.ToolCalls[0].Name).To(Equal("get_weather"))
		Expect(terminal.ToolCalls[0].Arguments).To(Equal(map[string]any{"city": "Paris"}))
	})

	It("keeps interleaved calls separate by index", func() {
		chunks := drive(
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_a","function":{"name":"alpha","arguments":"{\"x\":"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":1,"id":"call_b","function":{"name":"beta","arguments":"{\"y\":2}"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"1}"}}]}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		)

		Expect(chunks).To(HaveLen(1))
		calls := chunks[0].ToolCalls
		Expect(calls).To(HaveLen(2))
		byName := map[string]llm.ToolCall{}
		for _, c := range calls {
			byName[c.Name] = c
		}
		Expect(byName["alpha"].Arguments).To(Equal(map[string]any{"x": float64(1)}))
		Expect(byName["beta"].Arguments).To(Equal(map[string]any{"y": float64(2)}))
	})

	It("degrades truncated argument JSON to an empty map", func() {
		chunks := drive(
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"get_weather","arguments":"{\"city\": \"Par"}}]}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		)

		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0].ToolCalls[0].Name).To(Equal("get_weather"))
		Expect(chunks[0].ToolCalls[0].Arguments).To(BeEmpty())
	})

	It("merges the standalone usage frame into the terminal chunk", func() {
		chunks := drive(
			`{"choices":[{"delta":{"content":"hi"}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
			`{"choices":[],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`,
		)

		// Usage arriving after finish merges silently; the terminal chunk
		// already carried whatever was known at finish time.
		Expect(chunks).To(HaveLen(2))
		Expect(chunks[1].FinishReason).To(Equal(llm.FinishReasonStop))
	})

	It("carries same-frame usage onto the terminal chunk", func() {
		chunks := drive(
			`{"choices":[{"delta":{"content":"hi"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`,
		)

		Expect(chunks).To(HaveLen(2))
		terminal := chunks[1]
		Expect(terminal.FinishReason).To(Equal(llm.FinishReasonStop))
		Expect(terminal.Usage).NotTo(BeNil())
		Expect(terminal.Usage.InputTokens).To(Equal(10))
		Expect(terminal.Usage.TotalTokens).To(Equal(15))
	})

	It("ignores the [DONE] sentinel and blank frames", func() {
		norm := openai.NewNormalizer()
		Expect(norm.Normalize([]byte("[DONE]"))).To(BeEmpty())
		Expect(norm.Normalize([]byte("  \n"))).To(BeEmpty())
	})

	It("classifies a malformed frame as an error finish", func() {
		norm := openai.NewNormalizer()
		signals := norm.Normalize([]byte(`{"choices": [{`))
		Expect(signals).To(HaveLen(1))
		Expect(signals[0].Kind).To(Equal(stream.SignalFinish))
		Expect(signals[0].FinishReason).To(Equal(llm.FinishReasonError))
	})

	DescribeTable("finish reason mapping",
		func(wire string, want llm.FinishReason) {
			chunks := drive(`{"choices":[{"delta":{},"finish_reason":"` + wire + `"}]}`)
			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0].FinishReason).To(Equal(want))
		},
		Entry("stop", "stop", llm.FinishReasonStop),
		Entry("length", "length", llm.FinishReasonLength),
		Entry("tool_calls", "tool_calls", llm.FinishReasonToolUse),
		Entry("function_call", "function_call", llm.FinishReasonToolUse),
		Entry("content_filter", "content_filter", llm.FinishReasonStop),
	)
})
