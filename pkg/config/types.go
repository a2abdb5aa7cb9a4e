package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent aikit configuration stored as config.toml
// in the .aikit/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Provider   ProviderConfig   `toml:"provider"`
	Generation GenerationConfig `toml:"generation"`
	OpenAI     VendorConfig     `toml:"openai"`
	Anthropic  VendorConfig     `toml:"anthropic"`
	Google     VendorConfig     `toml:"google"`
	Proxy      ProxyConfig      `toml:"proxy"`
	Events     EventsConfig     `toml:"events"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
}

// ProviderConfig selects the default provider and model for commands that
// do not name one explicitly.
type ProviderConfig struct {
	Name  string `toml:"name,omitempty"`
	Model string `toml:"model,omitempty"`
}

// GenerationConfig holds default sampling settings applied when a request
// does not set its own.
type GenerationConfig struct {
	MaxTokens   uint    `toml:"max_tokens,omitempty"`
	Temperature float64 `toml:"temperature,omitempty"`
}

// VendorConfig holds per-vendor credentials and endpoint overrides. One
// section exists per supported provider.
type VendorConfig struct {
	APIKey  string `toml:"api_key,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
}

// ProxyConfig holds settings for the key-hiding pass-through proxy server.
type ProxyConfig struct {
	Provider string `toml:"provider,omitempty"`
	Listen   string `toml:"listen,omitempty"`
}

// EventsConfig holds usage-event publishing settings.
type EventsConfig struct {
	Enabled bool   `toml:"enabled,omitempty"`
	Brokers string `toml:"brokers,omitempty"` // comma-separated Kafka brokers
	Topic   string `toml:"topic,omitempty"`
}

// EmbeddingConfig holds embedding request settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// BrokerList splits the comma-separated broker string into addresses.
func (e EventsConfig) BrokerList() []string {
	if e.Brokers == "" {
		return nil
	}
	parts := strings.Split(e.Brokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

// Vendor returns the vendor section for the named provider, or nil for an
// unknown name.
func (c *Config) Vendor(name string) *VendorConfig {
	switch name {
	case "openai":
		return &c.OpenAI
	case "anthropic":
		return &c.Anthropic
	case "google":
		return &c.Google
	}
	return nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"provider.name": {
		get: func(c *Config) string { return c.Provider.Name },
		set: func(c *Config, v string) error { c.Provider.Name = v; return nil },
	},
	"provider.model": {
		get: func(c *Config) string { return c.Provider.Model },
		set: func(c *Config, v string) error { c.Provider.Model = v; return nil },
	},
	"generation.max_tokens": {
		get: func(c *Config) string {
			if c.Generation.MaxTokens == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Generation.MaxTokens), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for generation.max_tokens: %w", err)
			}
			c.Generation.MaxTokens = uint(n)
			return nil
		},
	},
	"generation.temperature": {
		get: func(c *Config) string {
			if c.Generation.Temperature == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Generation.Temperature, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for generation.temperature: %w", err)
			}
			c.Generation.Temperature = f
			return nil
		},
	},
	"openai.api_key": {
		get: func(c *Config) string { return c.OpenAI.APIKey },
		set: func(c *Config, v string) error { c.OpenAI.APIKey = v; return nil },
	},
	"openai.base_url": {
		get: func(c *Config) string { return c.OpenAI.BaseURL },
		set: func(c *Config, v string) error { c.OpenAI.BaseURL = v; return nil },
	},
	"anthropic.api_key": {
		get: func(c *Config) string { return c.Anthropic.APIKey },
		set: func(c *Config, v string) error { c.Anthropic.APIKey = v; return nil },
	},
	"anthropic.base_url": {
		get: func(c *Config) string { return c.Anthropic.BaseURL },
		set: func(c *Config, v string) error { c.Anthropic.BaseURL = v; return nil },
	},
	"google.api_key": {
		get: func(c *Config) string { return c.Google.APIKey },
		set: func(c *Config, v string) error { c.Google.APIKey = v; return nil },
	},
	"google.base_url": {
		get: func(c *Config) string { return c.Google.BaseURL },
		set: func(c *Config, v string) error { c.Google.BaseURL = v; return nil },
	},
	"proxy.provider": {
		get: func(c *Config) string { return c.Proxy.Provider },
		set: func(c *Config, v string) error { c.Proxy.Provider = v; return nil },
	},
	"proxy.listen": {
		get: func(c *Config) string { return c.Proxy.Listen },
		set: func(c *Config, v string) error { c.Proxy.Listen = v; return nil },
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},
}
