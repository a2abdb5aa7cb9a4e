package stream

import "github.com/chinmaymk/aikit-sub003/pkg/llm"

// Collect drains the stream and folds its chunk sequence into one
// StreamResult. The fold reads the accumulated Content/Reasoning fields from
// the final relevant chunks rather than re-summing deltas, so folding the
// same chunk sequence twice yields identical results.
//
// A stream that ends without an explicit finish reason folds to an implicit
// stop.
func Collect(s llm.Stream) (*llm.StreamResult, error) {
	result := &llm.StreamResult{}
	for {
		chunk, err := s.Next()
		if err != nil {
			return nil, err
		}
		if chunk == nil {
			break
		}
		fold(result, chunk)
	}
	return snapshot(s, result), nil
}

// resultSource is implemented by streams that track their own accumulated
// snapshot, pipe among them.
type resultSource interface {
	Result() *llm.StreamResult
}

// snapshot resolves the final result for a drained stream. A stream exposing
// its accumulator state is preferred over the chunk fold: some vendors send
// the usage frame after the terminal chunk, and that merge never rides on a
// chunk, so it is visible only through the accumulator.
func snapshot(s llm.Stream, folded *llm.StreamResult) *llm.StreamResult {
	if src, ok := s.(resultSource); ok {
		return src.Result()
	}
	if folded.FinishReason == "" {
		folded.FinishReason = llm.FinishReasonStop
	}
	return folded
}

// fold applies one chunk to a running result snapshot.
func fold(result *llm.StreamResult, chunk *llm.StreamChunk) {
	result.Content = chunk.Content
	if chunk.Reasoning != nil {
		result.Reasoning = chunk.Reasoning.Content
	}
	if chunk.ToolCalls != nil {
		result.ToolCalls = chunk.ToolCalls
	}
	if chunk.FinishReason != "" {
		result.FinishReason = chunk.FinishReason
	}
	if chunk.Usage != nil {
		result.Usage = chunk.Usage
	}
}

// Handlers dispatches caller-supplied callbacks once per applicable chunk,
// in chunk order. Any callback may be nil.
type Handlers struct {
	// OnChunk fires for every chunk.
	OnChunk func(chunk *llm.StreamChunk)

	// OnDelta fires for chunks carrying a non-empty text delta.
	OnDelta func(delta string)

	// OnContent fires with the accumulated text whenever it grew.
	OnContent func(content string)

	// OnReasoning fires for chunks carrying reasoning-channel data.
	OnReasoning func(reasoning *llm.Reasoning)

	// OnToolCalls fires with the full finalized tool-call set whenever it
	// changed.
	OnToolCalls func(calls []llm.ToolCall)

	// OnFinish fires once, on the terminal chunk.
	OnFinish func(reason llm.FinishReason)
}

// Consume drains the stream, dispatching handlers per chunk, and returns the
// same result Collect would produce.
func (h Handlers) Consume(s llm.Stream) (*llm.StreamResult, error) {
	result := &llm.StreamResult{}
	for {
		chunk, err := s.Next()
		if err != nil {
			return nil, err
		}
		if chunk == nil {
			break
		}

		if h.OnChunk != nil {
			h.OnChunk(chunk)
		}
		if h.OnDelta != nil && chunk.Delta != "" {
			h.OnDelta(chunk.Delta)
		}
		if h.OnContent != nil && chunk.Delta != "" {
			h.OnContent(chunk.Content)
		}
		if h.OnReasoning != nil && chunk.Reasoning != nil {
			h.OnReasoning(chunk.Reasoning)
		}
		if h.OnToolCalls != nil && chunk.ToolCalls != nil {
			h.OnToolCalls(chunk.ToolCalls)
		}
		if h.OnFinish != nil && chunk.FinishReason != "" {
			h.OnFinish(chunk.FinishReason)
		}

		fold(result, chunk)
	}
	return snapshot(s, result), nil
}

// Transform wraps a stream, applying fn to each chunk as it passes through.
// Returning nil from fn drops the chunk. No buffering occurs beyond the one
// chunk in flight.
func Transform(s llm.Stream, fn func(*llm.StreamChunk) *llm.StreamChunk) llm.Stream {
	return &transformStream{src: s, fn: fn}
}

type transformStream struct {
	src llm.Stream
	fn  func(*llm.StreamChunk) *llm.StreamChunk
}

func (t *transformStream) Next() (*llm.StreamChunk, error) {
	for {
		chunk, err := t.src.Next()
		if err != nil || chunk == nil {
			return nil, err
		}
		if out := t.fn(chunk); out != nil {
			return out, nil
		}
	}
}

// Filter wraps a stream, passing through only chunks for which keep returns
// true.
func Filter(s llm.Stream, keep func(*llm.StreamChunk) bool) llm.Stream {
	return Transform(s, func(chunk *llm.StreamChunk) *llm.StreamChunk {
		if keep(chunk) {
			return chunk
		}
		return nil
	})
}

// Chunks exposes a fixed chunk slice as an llm.Stream, useful for replaying
// a recorded sequence through consumers.
func Chunks(chunks []*llm.StreamChunk) llm.Stream {
	return &sliceStream{chunks: chunks}
}

type sliceStream struct {
	chunks []*llm.StreamChunk
}

func (s *sliceStream) Next() (*llm.StreamChunk, error) {
	if len(s.chunks) == 0 {
		return nil, nil
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return chunk, nil
}
