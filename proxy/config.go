package proxy

// Config is the proxy server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// ProviderType is the provider requests go to when the path carries no
	// /providers/{name}/ prefix (e.g., "openai", "anthropic", "google").
	ProviderType string

	// Routes maps provider names to their upstream and credentials. A
	// provider without a route uses its default upstream and no key.
	Routes map[string]Route
}

// Route defines the upstream and credentials for one provider.
type Route struct {
	// UpstreamURL overrides the provider's default API base URL.
	UpstreamURL string

	// APIKey is the vendor credential the proxy injects on forwarded
	// requests. Client-supplied credentials are always stripped.
	APIKey string
}
