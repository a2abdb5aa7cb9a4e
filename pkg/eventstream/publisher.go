package eventstream

import "context"

// Publisher publishes generation events to an event stream backend.
type Publisher interface {
	PublishGeneration(ctx context.Context, event *GenerationCompletedEvent) error
	Close() error
}
