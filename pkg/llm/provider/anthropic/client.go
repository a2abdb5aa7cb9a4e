package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/stream"
	"github.com/chinmaymk/aikit-sub003/pkg/sse"
)

const (
	// DefaultBaseURL is the default Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"

	// apiVersion is the Messages API version header value.
	apiVersion = "2023-06-01"

	// defaultMaxTokens applies when the caller leaves MaxTokens unset;
	// max_tokens is required by the Messages API.
	defaultMaxTokens = 4096
)

// Config carries the transport settings for the Anthropic client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the Anthropic provider client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates an Anthropic client.
func New(cfg Config) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Name returns "anthropic".
func (c *Client) Name() string { return "anthropic" }

// Generate issues one streaming Messages API request and returns the
// normalized chunk stream.
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts *llm.GenerateOptions) (llm.Stream, error) {
	body, err := json.Marshal(buildRequest(messages, opts))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	c.logger.Debug("anthropic generate", "model", opts.Model, "messages", len(messages))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &llm.APIError{Provider: c.Name(), StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	return stream.New(sse.NewFrameSource(resp.Body), NewNormalizer()), nil
}

// buildRequest converts the provider-agnostic conversation and options into
// Anthropic's wire request. System messages are lifted out of the message
// list into the top-level system field.
func buildRequest(messages []llm.Message, opts *llm.GenerateOptions) *anthropicRequest {
	req := &anthropicRequest{
		Model:       opts.Model,
		MaxTokens:   defaultMaxTokens,
		Temperature: opts.Temperature,
		TopP:        opts.TopP,
		TopK:        opts.TopK,
		Stop:        opts.Stop,
		Stream:      true,
	}
	if opts.MaxTokens != nil {
		req.MaxTokens = *opts.MaxTokens
	}

	for _, tool := range opts.Tools {
		req.Tools = append(req.Tools, anthropicTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Parameters,
		})
	}
	req.ToolChoice = buildToolChoice(opts)

	var system []string
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			system = append(system, msg.GetText())
			continue
		}
		req.Messages = append(req.Messages, convertMessage(msg))
	}
	req.System = strings.Join(system, "\n")

	return req
}

// buildToolChoice maps the unified policy to Anthropic's object form;
// "required" is Anthropic's "any".
func buildToolChoice(opts *llm.GenerateOptions) *anthropicChoice {
	switch opts.ToolChoice {
	case "":
		return nil
	case llm.ToolChoiceAuto:
		return &anthropicChoice{Type: "auto"}
	case llm.ToolChoiceRequired:
		return &anthropicChoice{Type: "any"}
	case llm.ToolChoiceNone:
		return &anthropicChoice{Type: "none"}
	default:
		return &anthropicChoice{Type: "tool", Name: opts.ToolChoice}
	}
}

// convertMessage maps one provider-agnostic message to Anthropic's format.
// Tool-role messages become user-role messages carrying tool_result blocks,
// per the Messages API convention.
func convertMessage(msg llm.Message) anthropicMessage {
	role := msg.Role
	if role == llm.RoleTool {
		role = "user"
	}
	converted := anthropicMessage{Role: role}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			converted.Content = append(converted.Content, anthropicContentBlock{Type: "text", Text: block.Text})
		case "image":
			converted.Content = append(converted.Content, anthropicContentBlock{
				Type:   "image",
				Source: imageSource(block.Image),
			})
		case "tool_result":
			converted.Content = append(converted.Content, anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: block.ToolCallID,
				Content:   block.Result,
			})
		}
	}

	for _, call := range msg.ToolCalls {
		args := call.Arguments
		if args == nil {
			args = map[string]any{}
		}
		converted.Content = append(converted.Content, anthropicContentBlock{
			Type:  "tool_use",
			ID:    call.ID,
			Name:  call.Name,
			Input: args,
		})
	}

	return converted
}

// imageSource builds an image source from either a data URL or raw base64.
func imageSource(image string) *anthropicSource {
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return &anthropicSource{Type: "url", URL: image}
	}
	mediaType := "image/png"
	data := image
	if strings.HasPrefix(image, "data:") {
		if meta, rest, ok := strings.Cut(strings.TrimPrefix(image, "data:"), ","); ok {
			mediaType = strings.TrimSuffix(meta, ";base64")
			data = rest
		}
	}
	return &anthropicSource{Type: "base64", MediaType: mediaType, Data: data}
}

