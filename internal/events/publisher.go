package events

import (
	"context"
	"log/slog"

	"provenance/internal/platform/metrics"
)

// Publisher appends committed events to the Store and forwards them to the worker inbox.
type Publisher struct {
	store   Store
	outbox  chan<- Event
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type PublisherOption func(*Publisher)

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = logger }
}

func WithPublisherMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) { p.metrics = m }
}

// WithOutbox forwards every stored event to ch. Sends never block a commit: when the
// channel is full the event is logged and skipped; the Store remains the source of truth.
func WithOutbox(ch chan<- Event) PublisherOption {
	return func(p *Publisher) { p.outbox = ch }
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish stores evs and forwards them to the outbox.
func (p *Publisher) Publish(ctx context.Context, evs []Event) error {
	if len(evs) == 0 {
		return nil
	}
	stored, err := p.store.Append(ctx, evs)
	if err != nil {
		return err
	}
	if p.metrics != nil {
		p.metrics.AddEventsPublished(len(stored))
	}
	if p.outbox == nil {
		return nil
	}
	for _, ev := range stored {
		select {
		case p.outbox <- ev:
		default:
			p.logger.WarnContext(ctx, "event outbox full, skipping sink delivery",
				"seq", ev.Seq,
				"kind", ev.Kind,
			)
		}
	}
	return nil
}

// List returns stored events matching filter.
func (p *Publisher) List(ctx context.Context, filter Filter) ([]Event, error) {
	return p.store.List(ctx, filter)
}
