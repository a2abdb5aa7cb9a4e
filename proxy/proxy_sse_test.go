package proxy

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
)

var _ = Describe("SSE streaming proxy", func() {
	var (
		p        *Proxy
		pub      *capturePublisher
		upstream *httptest.Server
	)

	AfterEach(func() {
		if p != nil {
			p.Close()
		}
		if upstream != nil {
			upstream.Close()
		}
	})

	Context("when upstream returns an OpenAI SSE stream", func() {
		var events []string

		BeforeEach(func() {
			events = []string{
				"data: {\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":\"Hello\"}}]}\n\n",
				"data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\" world\"}}]}\n\n",
				"data: {\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}],\"usage\":{\"prompt_tokens\":7,\"completion_tokens\":2,\"total_tokens\":9}}\n\n",
				"data: [DONE]\n\n",
			}
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				w.Header().Set("Cache-Control", "no-cache")
				flusher, ok := w.(http.Flusher)
				Expect(ok).To(BeTrue())

				for _, event := range events {
					fmt.Fprint(w, event)
					flusher.Flush()
				}
			}))
			p, pub = newTestProxy(upstream.URL)
		})

		It("forwards the upstream frames byte for byte", func() {
			body := `{"model":"gpt-4o","stream":true,"messages":[{"role":"user","content":"hi"}]}`
			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body)), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/event-stream"))

			got, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(got)).To(Equal(strings.Join(events, "")))
		})

		It("accumulates usage from the stream and publishes an event", func() {
			body := `{"model":"gpt-4o","stream":true,"messages":[{"role":"user","content":"hi"}]}`
			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body)), -1)
			Expect(err).NotTo(HaveOccurred())
			io.Copy(io.Discard, resp.Body) //nolint:errcheck
			resp.Body.Close()

			Eventually(pub.Events).Should(HaveLen(1))

			event := pub.Events()[0]
			Expect(event.Source.Provider).To(Equal("openai"))
			Expect(event.Source.Model).To(Equal("gpt-4o"))
			Expect(event.Request.Streaming).To(BeTrue())
			Expect(event.Outcome.FinishReason).To(Equal(llm.FinishReasonStop))
			Expect(event.Outcome.Usage).NotTo(BeNil())
			Expect(event.Outcome.Usage.InputTokens).To(Equal(7))
			Expect(event.Outcome.Usage.OutputTokens).To(Equal(2))
			Expect(event.Outcome.Usage.TotalTokens).To(Equal(9))
		})
	})

	Context("when upstream rejects the streaming request", func() {
		BeforeEach(func() {
			upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"error": {"message": "invalid api key"}}`)
			}))
			p, pub = newTestProxy(upstream.URL)
		})

		It("relays the upstream error without publishing an event", func() {
			body := `{"model":"gpt-4o","stream":true}`
			resp, err := p.server.Test(httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body)), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			respBody, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(respBody)).To(ContainSubstring("invalid api key"))

			Consistently(pub.Events).Should(BeEmpty())
		})
	})
})
