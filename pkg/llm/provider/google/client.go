package google

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

// DefaultBaseURL is the default Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config carries the transport settings for the Google client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the Google Gemini provider client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Google client.
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

// Name returns "google".
func (c *Client) Name() string { return "google" }

// Generate issues one streaming generateContent request and returns the
// normalized chunk stream.
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts *llm.GenerateOptions) (llm.Stream, error) {
	body, err := json.Marshal(buildRequest(messages, opts))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", c.baseURL, opts.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.Debug("google generate", "model", opts.Model, "messages", len(messages))

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
// Gemini's wire request. System messages are lifted into systemInstruction;
// tool results become functionResponse parts, resolving each call's name
// from the preceding assistant turn since the Gemini wire has no call ids.
func buildRequest(messages []llm.Message, opts *llm.GenerateOptions) *googleRequest {
	req := &googleRequest{}

	if cfg := buildGenConfig(opts); cfg != nil {
		req.GenerationConfig = cfg
	}

	if len(opts.Tools) > 0 {
		decls := make([]googleFunctionDecl, 0, len(opts.Tools))
		for _, tool := range opts.Tools {
			decls = append(decls, googleFunctionDecl{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			})
		}
		req.Tools = []googleTool{{FunctionDeclarations: decls}}
	}
	req.ToolConfig = buildToolConfig(opts)

	callNames := toolCallNames(messages)

	var system []string
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			system = append(system, msg.GetText())
			continue
		}
		req.Contents = append(req.Contents, convertMessage(msg, callNames))
	}
	if len(system) > 0 {
		req.SystemInstruction = &googleContent{
			Parts: []googlePart{{Text: strings.Join(system, "\n")}},
		}
	}

	return req
}

func buildGenConfig(opts *llm.GenerateOptions) *googleGenConfig {
	if opts.MaxTokens == nil && opts.Temperature == nil && opts.TopP == nil &&
		opts.TopK == nil && len(opts.Stop) == 0 {
		return nil
	}
	return &googleGenConfig{
		MaxOutputTokens: opts.MaxTokens,
		Temperature:     opts.Temperature,
		TopP:            opts.TopP,
		TopK:            opts.TopK,
		StopSequences:   opts.Stop,
	}
}

// buildToolConfig maps the unified tool-choice policy to Gemini's function
// calling mode. Choosing a specific tool is ANY mode restricted to that name.
func buildToolConfig(opts *llm.GenerateOptions) *googleToolConfig {
	switch opts.ToolChoice {
	case "":
		return nil
	case llm.ToolChoiceAuto:
		return &googleToolConfig{FunctionCallingConfig: &googleFnCallConfig{Mode: "AUTO"}}
	case llm.ToolChoiceRequired:
		return &googleToolConfig{FunctionCallingConfig: &googleFnCallConfig{Mode: "ANY"}}
	case llm.ToolChoiceNone:
		return &googleToolConfig{FunctionCallingConfig: &googleFnCallConfig{Mode: "NONE"}}
	default:
		return &googleToolConfig{FunctionCallingConfig: &googleFnCallConfig{
			Mode:                 "ANY",
			AllowedFunctionNames: []string{opts.ToolChoice},
		}}
	}
}

// toolCallNames indexes every assistant tool call's name by id so tool
// results can be rendered as functionResponse parts.
func toolCallNames(messages []llm.Message) map[string]string {
	names := make(map[string]string)
	for _, msg := range messages {
		for _, call := range msg.ToolCalls {
			names[call.ID] = call.Name
		}
	}
	return names
}

// convertMessage maps one provider-agnostic message to Gemini content.
func convertMessage(msg llm.Message, callNames map[string]string) googleContent {
	role := "user"
	if msg.Role == llm.RoleAssistant {
		role = "model"
	}
	content := googleContent{Role: role}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			content.Parts = append(content.Parts, googlePart{Text: block.Text})
		case "image":
			content.Parts = append(content.Parts, googlePart{InlineData: inlineData(block.Image, "image/png")})
		case "audio":
			mime := "audio/wav"
			if block.AudioFormat != "" {
				mime = "audio/" + block.AudioFormat
			}
			content.Parts = append(content.Parts, googlePart{InlineData: inlineData(block.Audio, mime)})
		case "tool_result":
			content.Parts = append(content.Parts, googlePart{
				FunctionResponse: &googleFunctionResp{
					Name:     callNames[block.ToolCallID],
					Response: map[string]any{"result": block.Result},
				},
			})
		}
	}

	for _, call := range msg.ToolCalls {
		content.Parts = append(content.Parts, googlePart{
			FunctionCall: &googleFunctionCall{Name: call.Name, Args: call.Arguments},
		})
	}

	return content
}

// inlineData builds an inline data part from either a data URL or raw
// base64 with a fallback media type.
func inlineData(data, fallbackMIME string) *googleInlineData {
	mime := fallbackMIME
	if strings.HasPrefix(data, "data:") {
		if meta, rest, ok := strings.Cut(strings.TrimPrefix(data, "data:"), ","); ok {
			mime = strings.TrimSuffix(meta, ";base64")
			data = rest
		}
	}
	return &googleInlineData{MIMEType: mime, Data: data}
}

