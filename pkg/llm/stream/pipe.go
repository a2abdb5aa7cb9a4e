package stream

import "github.com/chinmaymk/aikit-sub003/pkg/llm"

// FrameSource yields raw vendor frames for a single generation request.
// Next returns (nil, nil) at natural end of stream and a non-nil error on
// transport failure. Implementations are pull-based: a consumer that stops
// calling Next abandons the stream without further work occurring on its
// behalf.
type FrameSource interface {
	Next() ([]byte, error)
}

// Normalizer translates one vendor's raw wire frames into the internal
// signal vocabulary. Implementations are stateful (tracking block indexes or
// accumulated snapshot lengths) and belong to exactly one stream.
//
// A malformed or unexpectedly shaped frame must surface as an error finish
// signal rather than malformed chunks; a frame carrying finish or usage
// information is never silently dropped even when its other data is invalid.
type Normalizer interface {
	// Name returns the provider family this normalizer absorbs quirks for.
	Name() string

	// Normalize converts one raw frame into zero or more signals, in the
	// order they occurred within the frame.
	Normalize(frame []byte) []Signal
}

// pipe drives frames through a normalizer and accumulator, exposing the
// resulting chunk sequence as an llm.Stream. Signals within one frame can
// yield multiple chunks; pipe buffers at most one frame's worth.
type pipe struct {
	frames  FrameSource
	norm    Normalizer
	acc     *Accumulator
	pending []*llm.StreamChunk
	done    bool
	err     error
}

// New builds an llm.Stream from a raw frame source and a vendor normalizer.
// The returned stream owns its accumulator; concurrent generations each get
// an independent instance with no shared state.
func New(frames FrameSource, norm Normalizer) llm.Stream {
	return &pipe{frames: frames, norm: norm, acc: NewAccumulator()}
}

func (p *pipe) Next() (*llm.StreamChunk, error) {
	for {
		if len(p.pending) > 0 {
			chunk := p.pending[0]
			p.pending = p.pending[1:]
			return chunk, nil
		}
		if p.err != nil {
			return nil, p.err
		}
		if p.done {
			return nil, nil
		}

		frame, err := p.frames.Next()
		if err != nil {
			// Transport errors propagate; partial accumulated state is
			// not separately recoverable through the stream.
			p.err = err
			return nil, err
		}
		if frame == nil {
			p.done = true
			return nil, nil
		}

		for _, sig := range p.norm.Normalize(frame) {
			if chunk := p.acc.Apply(sig); chunk != nil {
				p.pending = append(p.pending, chunk)
			}
		}
	}
}

// Result exposes the underlying accumulator snapshot, used by Collect to
// fold without re-summing deltas.
func (p *pipe) Result() *llm.StreamResult {
	return p.acc.Result()
}
