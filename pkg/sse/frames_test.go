package sse

import (
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// closeRecorder wraps a reader and records whether Close was called.
type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

var _ = Describe("FrameSource", func() {
	It("yields each event's data as one frame", func() {
		body := &closeRecorder{Reader: strings.NewReader("data: first\n\ndata: second\n\n")}
		fs := NewFrameSource(body)

		frame, err := fs.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(frame)).To(Equal("first"))

		frame, err = fs.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(frame)).To(Equal("second"))
	})

	It("closes the body at end of stream", func() {
		body := &closeRecorder{Reader: strings.NewReader("data: only\n\n")}
		fs := NewFrameSource(body)

		_, err := fs.Next()
		Expect(err).NotTo(HaveOccurred())

		frame, err := fs.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(frame).To(BeNil())
		Expect(body.closed).To(BeTrue())
	})
})
