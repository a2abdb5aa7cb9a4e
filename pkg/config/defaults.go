package config

const (
	defaultProvider = "openai"

	defaultMaxTokens   = 4096
	defaultTemperature = 1.0

	defaultProxyListen = ":8080"

	defaultEventsTopic = "aikit.usage"

	defaultEmbeddingProvider   = "openai"
	defaultEmbeddingModel      = "text-embedding-3-small"
	defaultEmbeddingDimensions = 1536
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Provider: ProviderConfig{
			Name: defaultProvider,
		},
		Generation: GenerationConfig{
			MaxTokens:   defaultMaxTokens,
			Temperature: defaultTemperature,
		},
		Proxy: ProxyConfig{
			Provider: defaultProvider,
			Listen:   defaultProxyListen,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
	}
}
