// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/chinmaymk/aikit-sub003/pkg/embeddings"
	"github.com/chinmaymk/aikit-sub003/pkg/embeddings/ollama"
	"github.com/chinmaymk/aikit-sub003/pkg/embeddings/openai"
)

type NewEmbedderOpts struct {
	ProviderType string
	APIKey       string
	TargetURL    string
	Model        string
	Dimensions   int
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "openai":
		return openai.NewEmbedder(openai.EmbedderConfig{
			APIKey:     o.APIKey,
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
		})
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
