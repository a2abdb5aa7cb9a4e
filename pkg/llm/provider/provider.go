// Package provider defines the vendor client abstraction and the factory
// selecting a concrete provider family by configured type. Each provider
// package absorbs one vendor's wire quirks behind the shared Normalizer
// contract; everything downstream of normalization is vendor-agnostic.
package provider

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
)

// Provider is a configured client for one vendor family.
type Provider interface {
	// Name returns the canonical provider name ("openai", "anthropic", "google").
	Name() string

	// Generate issues one generation request for the conversation and
	// returns the normalized chunk stream. The stream is consumed via
	// sequential pull; cancelling ctx releases the underlying transport.
	Generate(ctx context.Context, messages []llm.Message, opts *llm.GenerateOptions) (llm.Stream, error)
}

// Config carries the transport settings shared by every provider client.
type Config struct {
	// APIKey authenticates against the vendor API.
	APIKey string

	// BaseURL overrides the vendor's default API endpoint. Useful for
	// compatible gateways and test servers.
	BaseURL string

	// HTTPClient overrides the default HTTP client. Timeouts, retries and
	// backoff are the transport's concern; the library imposes none.
	HTTPClient *http.Client

	// Logger receives transport-level debug logging. Nil disables it.
	Logger *slog.Logger
}
