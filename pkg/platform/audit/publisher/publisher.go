// Package publisher delivers audit events to a sink, synchronously by default
// or through a buffered channel when the caller cannot afford sink latency on
// its hot path.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "duomatch/pkg/platform/audit"
)

// Publisher fans events out to a single sink. Emit never fails the caller's
// mutation: sink errors are logged, not propagated, because the audit trail is
// observability, not the system of record.
type Publisher struct {
	sink   audit.Sink
	logger *slog.Logger

	ch     chan audit.Event
	wg     sync.WaitGroup
	closed sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer makes Emit enqueue onto a channel of the given size drained
// by one background goroutine. When the buffer is full, Emit appends
// synchronously rather than dropping the event.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.ch = make(chan audit.Event, size)
	}
}

// WithLogger sets the logger used for sink failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher builds a publisher over the sink.
func NewPublisher(sink audit.Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.ch != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an event, stamping the timestamp if unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if p.ch != nil {
		select {
		case p.ch <- event:
			return nil
		default:
			// Buffer full; degrade to a synchronous append.
		}
	}
	p.append(ctx, event)
	return nil
}

// List reads events back when the sink supports it; otherwise returns nil.
func (p *Publisher) List(ctx context.Context, userID string) ([]audit.Event, error) {
	if lister, ok := p.sink.(audit.Lister); ok {
		return lister.ListByUser(ctx, userID)
	}
	return nil, nil
}

// Close drains any buffered events and stops the background goroutine.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.ch != nil {
			close(p.ch)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.ch {
		p.append(context.Background(), event)
	}
}

func (p *Publisher) append(ctx context.Context, event audit.Event) {
	if err := p.sink.Append(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "audit append failed",
			"action", string(event.Action),
			"error", err.Error(),
		)
	}
}
