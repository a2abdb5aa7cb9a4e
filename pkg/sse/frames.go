package sse

import "io"

// FrameSource reads an SSE response body event by event, yielding each
// event's data payload as one raw frame. The body is closed once the stream
// ends or fails, so callers hand over ownership at construction.
type FrameSource struct {
	reader *Reader
	body   io.ReadCloser
}

// NewFrameSource wraps a streaming response body.
func NewFrameSource(body io.ReadCloser) *FrameSource {
	return &FrameSource{reader: NewReader(body), body: body}
}

// Next returns the next event's data, or (nil, nil) at end of stream.
func (f *FrameSource) Next() ([]byte, error) {
	ev, err := f.reader.Next()
	if err != nil {
		f.body.Close()
		return nil, err
	}
	if ev == nil {
		f.body.Close()
		return nil, nil
	}
	return []byte(ev.Data), nil
}
