// Package embeddings
package embeddings

import (
	"context"
	"errors"
)

// ErrEmbedding wraps all embedding failures so callers can match the
// category without inspecting provider-specific messages.
var ErrEmbedding = errors.New("embedding error")

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
