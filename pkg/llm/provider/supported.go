package provider

import (
	"fmt"

	"github.com/chinmaymk/aikit-sub003/pkg/llm/provider/anthropic"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/provider/google"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/provider/openai"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/stream"
)

// Supported provider type constants
const (
	OpenAI    = "openai"
	Anthropic = "anthropic"
	Google    = "google"
)

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{OpenAI, Anthropic, Google}
}

// New creates a new Provider instance for the given provider type.
// Returns an error if the provider type is not recognized.
func New(providerType string, cfg Config) (Provider, error) {
	switch providerType {
	case OpenAI:
		return openai.New(openai.Config(cfg)), nil
	case Anthropic:
		return anthropic.New(anthropic.Config(cfg)), nil
	case Google:
		return google.New(google.Config(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", providerType, SupportedProviders())
	}
}

// NewNormalizer creates a fresh, single-stream normalizer for the given
// provider type. Normalizers hold per-stream state and must not be reused
// across generations.
func NewNormalizer(providerType string) (stream.Normalizer, error) {
	switch providerType {
	case OpenAI:
		return openai.NewNormalizer(), nil
	case Anthropic:
		return anthropic.NewNormalizer(), nil
	case Google:
		return google.NewNormalizer(), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", providerType, SupportedProviders())
	}
}
