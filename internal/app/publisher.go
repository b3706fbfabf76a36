package app

import (
	"context"
	"log/slog"
	"sync"

	"trivia-quiz-server/internal/domain"
)

// StatusSource produces a consistent snapshot of server state.
type StatusSource interface {
	Status() domain.Status
}

// Sink renders a status snapshot inside the refresh handshake.
type Sink interface {
	Render(ctx context.Context, status domain.Status) error
}

// Publisher is the single coordinator that renders server status. Workers call
// Refresh after changing state and block until a render that started after
// their request has completed. Requests that arrive while a render is pending
// are served by that same render.
type Publisher struct {
	source   StatusSource
	sinks    []Sink
	logger   *slog.Logger
	requests chan chan struct{}

	mu          sync.Mutex
	last        domain.Status
	rendered    bool
	subscribers map[chan domain.Status]struct{}
}

func NewPublisher(source StatusSource, logger *slog.Logger, sinks ...Sink) *Publisher {
	return &Publisher{
		source:      source,
		sinks:       sinks,
		logger:      logger,
		requests:    make(chan chan struct{}),
		subscribers: make(map[chan domain.Status]struct{}),
	}
}

// Run renders once, then serves refresh requests until ctx is canceled.
func (p *Publisher) Run(ctx context.Context) error {
	p.publish(ctx)
	for {
		var batch []chan struct{}
		select {
		case <-ctx.Done():
			p.closeSubscribers()
			return nil
		case done := <-p.requests:
			batch = append(batch, done)
		}
	drain:
		for {
			select {
			case done := <-p.requests:
				batch = append(batch, done)
			default:
				break drain
			}
		}

		p.publish(ctx)
		for _, done := range batch {
			close(done)
		}
	}
}

// Refresh requests a render and waits for it. It returns early when ctx is
// canceled, so workers never hang on a stopped publisher.
func (p *Publisher) Refresh(ctx context.Context) {
	done := make(chan struct{})
	select {
	case p.requests <- done:
	case <-ctx.Done():
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Latest returns the most recently rendered snapshot.
func (p *Publisher) Latest() (domain.Status, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.rendered
}

// Subscribe returns a channel that receives every rendered snapshot.
// The caller must invoke the returned cancel function to avoid leaks.
func (p *Publisher) Subscribe() (<-chan domain.Status, func()) {
	ch := make(chan domain.Status, 8)

	p.mu.Lock()
	p.subscribers[ch] = struct{}{}
	if p.rendered {
		ch <- p.last
	}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		if _, ok := p.subscribers[ch]; ok {
			delete(p.subscribers, ch)
			close(ch)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

func (p *Publisher) publish(ctx context.Context) {
	status := p.source.Status()
	for _, sink := range p.sinks {
		if err := sink.Render(ctx, status); err != nil {
			p.logger.Warn("status sink failed", "err", err)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = status
	p.rendered = true
	for ch := range p.subscribers {
		select {
		case ch <- status:
		default:
			// Drop the oldest pending snapshot so a slow subscriber never blocks rendering.
			select {
			case <-ch:
			default:
			}
			ch <- status
		}
	}
}

func (p *Publisher) closeSubscribers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ch := range p.subscribers {
		delete(p.subscribers, ch)
		close(ch)
	}
}
