// Package worker provides an asynchronous worker pool for publishing
// generation usage events via the provided eventstream.Publisher.
//
// The pool decouples event publishing from the proxy's HTTP hot path so that
// the client-proxy-upstream interaction is fully transparent.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/chinmaymk/aikit-sub003/pkg/eventstream"
	"github.com/chinmaymk/aikit-sub003/pkg/llm"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against: one
// completed generation to publish.
type Job struct {
	Provider    string
	Model       string
	Path        string
	Streaming   bool
	HTTPStatus  int
	StartedAt   time.Time
	CompletedAt time.Time
	Result      *llm.StreamResult
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives one event per completed generation.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Pool publishes generation events asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, fmt.Errorf("worker pool requires a publisher")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"provider", job.Provider,
			"model", job.Model,
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"provider", job.Provider,
			"model", job.Model,
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the proxy HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("event worker stopped", "worker_id", id)
}

// processJob converts a Job into a generation event and publishes it.
func (p *Pool) processJob(job Job) {
	event := eventstream.NewGenerationCompletedEvent(
		eventstream.EventSource{
			Provider: job.Provider,
			Model:    job.Model,
			Surface:  "proxy",
		},
		eventstream.RequestMeta{
			Path:        job.Path,
			StartedAt:   job.StartedAt,
			CompletedAt: job.CompletedAt,
			DurationMs:  job.CompletedAt.Sub(job.StartedAt).Milliseconds(),
			Streaming:   job.Streaming,
			HTTPStatus:  job.HTTPStatus,
		},
		job.Result,
	)

	if err := p.config.Publisher.PublishGeneration(context.Background(), event); err != nil {
		p.logger.Error("async event publish failed",
			"provider", job.Provider,
			"error", err,
		)
		return
	}

	p.logger.Info("generation event published",
		"event_id", event.EventID,
		"provider", job.Provider,
	)
}
