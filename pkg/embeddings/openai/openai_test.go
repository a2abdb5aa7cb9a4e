package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chinmaymk/aikit-sub003/pkg/embeddings"
	"github.com/chinmaymk/aikit-sub003/pkg/embeddings/openai"
)

var _ = Describe("Embedder", func() {
	It("requires an api key", func() {
		_, err := openai.NewEmbedder(openai.EmbedderConfig{})
		Expect(err).To(HaveOccurred())
	})

	Context("against a stub API", func() {
		var (
			server   *httptest.Server
			lastBody map[string]any
			lastAuth string
		)

		BeforeEach(func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				lastAuth = r.Header.Get("Authorization")
				raw, _ := io.ReadAll(r.Body)
				Expect(json.Unmarshal(raw, &lastBody)).To(Succeed())

				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"data": [{"embedding": [0.1, 0.2, 0.3]}]}`)
			}))
		})

		AfterEach(func() {
			server.Close()
		})

		It("sends the model, input and credentials and returns the vector", func() {
			e, err := openai.NewEmbedder(openai.EmbedderConfig{
				APIKey:     "sk-test",
				BaseURL:    server.URL,
				Model:      "text-embedding-3-small",
				Dimensions: 3,
			})
			Expect(err).NotTo(HaveOccurred())
			defer e.Close()

			vec, err := e.Embed(context.Background(), "hello")
			Expect(err).NotTo(HaveOccurred())
			Expect(vec).To(Equal([]float32{0.1, 0.2, 0.3}))

			Expect(lastAuth).To(Equal("Bearer sk-test"))
			Expect(lastBody["model"]).To(Equal("text-embedding-3-small"))
			Expect(lastBody["input"]).To(Equal("hello"))
			Expect(lastBody["dimensions"]).To(BeEquivalentTo(3))
		})
	})

	Context("when the API rejects the request", func() {
		It("wraps the failure in ErrEmbedding", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"error": {"message": "bad key"}}`)
			}))
			defer server.Close()

			e, err := openai.NewEmbedder(openai.EmbedderConfig{APIKey: "sk-bad", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = e.Embed(context.Background(), "hello")
			Expect(err).To(MatchError(embeddings.ErrEmbedding))
			Expect(err.Error()).To(ContainSubstring("401"))
		})
	})
})
