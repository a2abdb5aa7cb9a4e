package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/stream"
	"github.com/chinmaymk/aikit-sub003/pkg/sse"
)

// DefaultBaseURL is the default OpenAI API endpoint.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config carries the transport settings for the OpenAI client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the OpenAI provider client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates an OpenAI client.
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
		// LLM requests can be slow, especially with reasoning models
		c.httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Name returns "openai".
func (c *Client) Name() string { return "openai" }

// Generate issues one streaming chat completion request and returns the
// normalized chunk stream. Cancelling ctx aborts the request and releases
// the underlying connection.
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts *llm.GenerateOptions) (llm.Stream, error) {
	body, err := json.Marshal(buildRequest(messages, opts))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("openai generate", "model", opts.Model, "messages", len(messages))

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
// OpenAI's wire request.
func buildRequest(messages []llm.Message, opts *llm.GenerateOptions) *openaiRequest {
	req := &openaiRequest{
		Model:         opts.Model,
		MaxTokens:     opts.MaxTokens,
		Temperature:   opts.Temperature,
		TopP:          opts.TopP,
		Stop:          opts.Stop,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	}

	for _, tool := range opts.Tools {
		req.Tools = append(req.Tools, openaiTool{
			Type: "function",
			Function: openaiFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	req.ToolChoice = buildToolChoice(opts)

	for _, msg := range messages {
		req.Messages = append(req.Messages, convertMessage(msg)...)
	}
	return req
}

// buildToolChoice maps the unified tool-choice policy to OpenAI's string or
// object form. A value naming a declared tool becomes the object form.
func buildToolChoice(opts *llm.GenerateOptions) any {
	switch opts.ToolChoice {
	case "":
		return nil
	case llm.ToolChoiceAuto, llm.ToolChoiceRequired, llm.ToolChoiceNone:
		return opts.ToolChoice
	default:
		return map[string]any{
			"type":     "function",
			"function": map[string]any{"name": opts.ToolChoice},
		}
	}
}

// convertMessage maps one provider-agnostic message to OpenAI messages.
// A tool-role message expands to one wire message per tool_result block.
func convertMessage(msg llm.Message) []openaiMessage {
	if msg.Role == llm.RoleTool {
		var out []openaiMessage
		for _, block := range msg.Content {
			if block.Type != "tool_result" {
				continue
			}
			out = append(out, openaiMessage{
				Role:       "tool",
				ToolCallID: block.ToolCallID,
				Content:    block.Result,
			})
		}
		return out
	}

	converted := openaiMessage{Role: msg.Role}

	if text, ok := textOnly(msg.Content); ok {
		converted.Content = text
	} else {
		var parts []openaiContentPart
		for _, block := range msg.Content {
			switch block.Type {
			case "text":
				parts = append(parts, openaiContentPart{Type: "text", Text: block.Text})
			case "image":
				parts = append(parts, openaiContentPart{Type: "image_url", ImageURL: &openaiImageURL{URL: block.Image}})
			case "audio":
				parts = append(parts, openaiContentPart{Type: "input_audio", InputAudio: &openaiAudioPart{Data: block.Audio, Format: block.AudioFormat}})
			}
		}
		converted.Content = parts
	}

	for _, call := range msg.ToolCalls {
		args, err := json.Marshal(call.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		tc := openaiToolCall{ID: call.ID, Type: "function"}
		tc.Function.Name = call.Name
		tc.Function.Arguments = string(args)
		converted.ToolCalls = append(converted.ToolCalls, tc)
	}

	return []openaiMessage{converted}
}

// textOnly reports whether the content is exclusively text blocks and
// returns their concatenation, letting simple messages use the plain string
// content form.
func textOnly(blocks []llm.ContentBlock) (string, bool) {
	var text string
	for _, block := range blocks {
		if block.Type != "text" {
			return "", false
		}
		text += block.Text
	}
	return text, true
}

