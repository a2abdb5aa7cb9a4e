// Package proxy provides a transparent, key-hiding LLM inference proxy.
// Requests are forwarded verbatim to the upstream vendor with the proxy's
// own credentials injected; streamed responses are teed so usage telemetry
// can be accumulated and published without disturbing the client's stream.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"

	"github.com/chinmaymk/aikit-sub003/pkg/eventstream"
	"github.com/chinmaymk/aikit-sub003/pkg/llm"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/provider"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/provider/anthropic"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/provider/google"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/provider/openai"
	"github.com/chinmaymk/aikit-sub003/pkg/llm/stream"
	"github.com/chinmaymk/aikit-sub003/pkg/sse"
	"github.com/chinmaymk/aikit-sub003/proxy/header"
	"github.com/chinmaymk/aikit-sub003/proxy/worker"
)

const providerPathPrefix = "/providers/"

// Proxy is a client-facing LLM inference proxy that hides vendor credentials
// and publishes usage telemetry. The proxy is transparent: it forwards
// requests to the upstream vendor unmodified (minus credential handling) and
// enqueues completed generations for async event publishing via its worker
// pool.
type Proxy struct {
	config        Config
	workerPool    *worker.Pool
	logger        *slog.Logger
	httpClient    *http.Client
	server        *fiber.App
	headerHandler *header.Handler
}

// New creates a new Proxy.
// The publisher is injected to handle async usage-event publishing.
// Returns an error if the configured provider type is not recognized.
func New(config Config, publisher eventstream.Publisher, logger *slog.Logger) (*Proxy, error) {
	if config.ProviderType == "" {
		return nil, errors.New("provider type is required")
	}
	if _, err := provider.NewNormalizer(config.ProviderType); err != nil {
		return nil, fmt.Errorf("unsupported default provider: %w", err)
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	// Add compression middleware to handle responses
	app.Use(compress.New())

	wp, err := worker.NewPool(&worker.Config{
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create worker pool: %w", err)
	}

	p := &Proxy{
		config:        config,
		workerPool:    wp,
		logger:        logger,
		server:        app,
		headerHandler: header.NewHandler(),
		httpClient: &http.Client{
			// LLM requests can be slow, especially with thinking blocks
			Timeout: 5 * time.Minute,
		},
	}

	// Register transparent proxy route - forwards any path to upstream
	app.All("/*", p.handleProxy)

	return p, nil
}

// Run starts the proxy server on the configured listening address.
func (p *Proxy) Run() error {
	p.logger.Info("starting proxy server",
		"listen", p.config.ListenAddr,
		"provider", p.config.ProviderType,
	)

	return p.server.Listen(p.config.ListenAddr)
}

// RunWithListener starts the proxy server using the provided listener.
func (p *Proxy) RunWithListener(listener net.Listener) error {
	p.logger.Info("starting proxy server",
		"listen", listener.Addr().String(),
		"provider", p.config.ProviderType,
	)

	return p.server.Listener(listener)
}

// Close gracefully shuts down the proxy and waits for the worker pool to drain.
func (p *Proxy) Close() error {
	p.workerPool.Close()
	return p.server.Shutdown()
}

// handleProxy is a transparent proxy handler that forwards requests to the
// resolved vendor and accumulates usage telemetry on the way back.
func (p *Proxy) handleProxy(c *fiber.Ctx) error {
	startTime := time.Now()

	providerType, path := p.resolveProvider(c.Path())
	upstreamURL, apiKey := p.resolveUpstream(providerType)
	method := c.Method()

	body := c.Body()
	isGenerateRequest := method == http.MethodPost && len(body) > 0

	if isGenerateRequest && p.isStreamingRequest(path, body) {
		return p.handleStreamingProxy(c, path, upstreamURL, apiKey, providerType, body, startTime)
	}

	return p.handleNonStreamingProxy(c, path, method, upstreamURL, apiKey, providerType, body, isGenerateRequest, startTime)
}

// isStreamingRequest reports whether the request asks for a streamed
// response. OpenAI and Anthropic carry an explicit "stream" field; Gemini
// encodes it in the method path.
func (p *Proxy) isStreamingRequest(path string, body []byte) bool {
	if strings.Contains(path, ":streamGenerateContent") {
		return true
	}

	var streamCheck struct {
		Stream *bool `json:"stream"`
	}
	if err := json.Unmarshal(body, &streamCheck); err == nil && streamCheck.Stream != nil {
		return *streamCheck.Stream
	}
	return false
}

// handleNonStreamingProxy handles non-streaming requests.
func (p *Proxy) handleNonStreamingProxy(c *fiber.Ctx, path, method, upstreamURL, apiKey, providerType string, body []byte, isGenerateRequest bool, startTime time.Time) error {
	upstreamURL += path
	if qs := string(c.Request().URI().QueryString()); qs != "" {
		upstreamURL += "?" + qs
	}

	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(c.Context(), method, upstreamURL, reqBody)
	if err != nil {
		p.logger.Error("failed to create upstream request", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	p.headerHandler.SetUpstreamRequestHeaders(c, httpReq)
	p.headerHandler.SetAuthHeaders(httpReq, providerType, apiKey)

	p.logger.Debug("forwarding request to upstream",
		"method", method,
		"url", upstreamURL,
	)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.Error("upstream request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream request failed"})
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		p.logger.Error("failed to read upstream response", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to read upstream response"})
	}

	p.headerHandler.SetClientResponseHeaders(c, httpResp)

	// Generation requests produce a usage event even when served unstreamed.
	if isGenerateRequest && httpResp.StatusCode == http.StatusOK {
		result := extractResult(respBody, providerType)
		p.workerPool.Enqueue(worker.Job{
			Provider:    providerType,
			Model:       extractModel(body),
			Path:        path,
			Streaming:   false,
			HTTPStatus:  httpResp.StatusCode,
			StartedAt:   startTime,
			CompletedAt: time.Now(),
			Result:      result,
		})
	}

	return c.Status(httpResp.StatusCode).Send(respBody)
}

// handleStreamingProxy handles streaming requests.
func (p *Proxy) handleStreamingProxy(c *fiber.Ctx, path, upstreamURL, apiKey, providerType string, body []byte, startTime time.Time) error {
	upstreamURL += path
	if qs := string(c.Request().URI().QueryString()); qs != "" {
		upstreamURL += "?" + qs
	}

	// Use context.Background() instead of c.Context() because fasthttp recycles
	// its RequestCtx after the handler returns, but the streaming callback runs
	// asynchronously in a separate goroutine and needs the upstream connection
	// to remain open.
	httpReq, err := http.NewRequestWithContext(context.Background(), http.MethodPost, upstreamURL, bytes.NewReader(body))
	if err != nil {
		p.logger.Error("failed to create upstream request", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	p.headerHandler.SetUpstreamRequestHeaders(c, httpReq)
	p.headerHandler.SetAuthHeaders(httpReq, providerType, apiKey)

	p.logger.Debug("forwarding streaming request to upstream",
		"url", upstreamURL,
	)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.logger.Error("upstream request failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream request failed"})
	}
	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		p.logger.Error("upstream returned error",
			"status", httpResp.StatusCode,
			"body", string(respBody),
		)
		return c.Status(httpResp.StatusCode).Send(respBody)
	}

	p.headerHandler.SetClientResponseHeaders(c, httpResp)

	// Use io.Pipe + SetBodyStream instead of SetBodyStreamWriter.
	// SetBodyStreamWriter uses an internal PipeConns with a buffered channel
	// (capacity 4) and two bufio.Writers, which means Flush() in the callback
	// only pushes data into the pipe — NOT to the TCP socket. This causes all
	// chunks to buffer in memory before being sent to the client.
	//
	// With io.Pipe, pw.Write blocks until the reader consumes the data, and
	// the reader is fasthttp's writeBodyChunked which flushes to TCP after
	// every chunk. This gives direct backpressure and true per-chunk
	// streaming.
	pr, pw := io.Pipe()
	go p.teeSSEStream(httpResp, pw, providerType, path, extractModel(body), startTime)

	// Set the pipe reader as the body stream with unknown size (-1),
	// which triggers chunked transfer encoding in fasthttp.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// teeSSEStream reads the upstream SSE response, forwarding raw bytes
// verbatim to the pipe writer while normalizing events for telemetry
// accumulation. The client sees the vendor's exact frames; only the side
// channel interprets them.
func (p *Proxy) teeSSEStream(httpResp *http.Response, pw *io.PipeWriter, providerType, path, model string, startTime time.Time) {
	// Close the upstream response body once streaming is complete.
	defer httpResp.Body.Close()
	defer pw.Close()

	norm, err := provider.NewNormalizer(providerType)
	if err != nil {
		p.logger.Error("no normalizer for provider", "provider", providerType, "error", err)
		io.Copy(pw, httpResp.Body) //nolint:errcheck
		return
	}
	acc := stream.NewAccumulator()

	tr := sse.NewTeeReader(httpResp.Body, pw)

	for {
		ev, err := tr.Next()
		if err != nil {
			p.logger.Error("error reading SSE stream", "error", err)
			return
		}
		if ev == nil {
			break
		}

		for _, sig := range norm.Normalize([]byte(ev.Data)) {
			acc.Apply(sig)
		}
	}

	p.workerPool.Enqueue(worker.Job{
		Provider:    providerType,
		Model:       model,
		Path:        path,
		Streaming:   true,
		HTTPStatus:  httpResp.StatusCode,
		StartedAt:   startTime,
		CompletedAt: time.Now(),
		Result:      acc.Result(),
	})
}

// resolveProvider resolves the provider for the request path. A
// /providers/{name}/ prefix selects that provider and is stripped before
// forwarding; anything else goes to the configured default.
func (p *Proxy) resolveProvider(path string) (string, string) {
	if !strings.HasPrefix(path, providerPathPrefix) {
		return p.config.ProviderType, path
	}

	remainder := strings.TrimPrefix(path, providerPathPrefix)
	if remainder == "" {
		return p.config.ProviderType, path
	}

	parts := strings.SplitN(remainder, "/", 2)
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return p.config.ProviderType, path
	}
	if _, err := provider.NewNormalizer(name); err != nil {
		return p.config.ProviderType, path
	}

	if len(parts) == 1 {
		return name, "/"
	}
	return name, "/" + parts[1]
}

// resolveUpstream returns the upstream base URL and API key for a provider,
// falling back to the vendor's default endpoint when no route is configured.
func (p *Proxy) resolveUpstream(providerType string) (string, string) {
	route := p.config.Routes[providerType]

	upstream := strings.TrimSuffix(route.UpstreamURL, "/")
	if upstream == "" {
		upstream = defaultUpstream(providerType)
	}

	return upstream, route.APIKey
}

func defaultUpstream(providerType string) string {
	switch providerType {
	case provider.Anthropic:
		return anthropic.DefaultBaseURL
	case provider.Google:
		return google.DefaultBaseURL
	default:
		return openai.DefaultBaseURL
	}
}

// extractModel performs best-effort model extraction from a request body.
func extractModel(body []byte) string {
	var req struct {
		Model string `json:"model"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return ""
	}
	return req.Model
}

// extractResult performs best-effort usage extraction from a non-streaming
// vendor response. Field names vary per vendor, so all known shapes are
// decoded and whichever is populated wins.
func extractResult(body []byte, providerType string) *llm.StreamResult {
	var parsed struct {
		// OpenAI
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
			// Anthropic fields share the "usage" key.
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
		StopReason string `json:"stop_reason"` // Anthropic
		Choices    []struct {
			FinishReason string `json:"finish_reason"`
		} `json:"choices"` // OpenAI
		// Gemini
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
		Candidates []struct {
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}

	result := &llm.StreamResult{FinishReason: llm.FinishReasonStop}
	usage := &llm.Usage{}

	switch providerType {
	case provider.Anthropic:
		usage.InputTokens = parsed.Usage.InputTokens
		usage.OutputTokens = parsed.Usage.OutputTokens
		if parsed.StopReason == "tool_use" {
			result.FinishReason = llm.FinishReasonToolUse
		}
	case provider.Google:
		usage.InputTokens = parsed.UsageMetadata.PromptTokenCount
		usage.OutputTokens = parsed.UsageMetadata.CandidatesTokenCount
		usage.TotalTokens = parsed.UsageMetadata.TotalTokenCount
	default:
		usage.InputTokens = parsed.Usage.PromptTokens
		usage.OutputTokens = parsed.Usage.CompletionTokens
		usage.TotalTokens = parsed.Usage.TotalTokens
		if len(parsed.Choices) > 0 && parsed.Choices[0].FinishReason == "tool_calls" {
			result.FinishReason = llm.FinishReasonToolUse
		}
	}

	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	result.Usage = usage

	return result
}
