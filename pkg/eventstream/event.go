// Package eventstream defines transport-neutral usage events emitted after
// generation requests complete, and the Publisher interface backends
// implement.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/chinmaymk/aikit-sub003/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeGenerationCompleted is emitted after a generation request
	// finishes, whatever its finish reason.
	EventTypeGenerationCompleted = "aikit.generation.completed"
)

// GenerationCompletedEvent is the payload published once per completed
// generation: who served it, how it ended and what it cost.
type GenerationCompletedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Request       RequestMeta `json:"request_meta"`
	Outcome       Outcome     `json:"outcome"`
}

// EventSource identifies where the generation originated.
type EventSource struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Surface  string `json:"surface,omitempty"` // "library", "cli", "proxy"
}

// RequestMeta captures request lifecycle metadata for the event.
type RequestMeta struct {
	Path        string    `json:"path,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	Streaming   bool      `json:"streaming"`
	HTTPStatus  int       `json:"http_status,omitempty"`
}

// Outcome captures how the generation ended and its merged usage counters.
type Outcome struct {
	FinishReason  llm.FinishReason `json:"finish_reason"`
	ToolCallCount int              `json:"tool_call_count,omitempty"`
	Usage         *llm.Usage       `json:"usage,omitempty"`
}

// NewGenerationCompletedEvent builds an event for a finished generation,
// stamping the schema version, a fresh event id and the emission time.
func NewGenerationCompletedEvent(source EventSource, req RequestMeta, result *llm.StreamResult) *GenerationCompletedEvent {
	event := &GenerationCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeGenerationCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Request:       req,
	}
	if result != nil {
		event.Outcome = Outcome{
			FinishReason:  result.FinishReason,
			ToolCallCount: len(result.ToolCalls),
			Usage:         result.Usage,
		}
	}
	return event
}
