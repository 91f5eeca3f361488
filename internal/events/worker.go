package events

import (
	"context"
	"log/slog"

	"provenance/internal/platform/metrics"
)

// Worker consumes committed events from a channel and delivers them to every sink.
// A failing sink is logged and counted; it never blocks the other sinks.
type Worker struct {
	inbox   <-chan Event
	sinks   []Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewWorker(inbox <-chan Event, logger *slog.Logger, m *metrics.Metrics, sinks ...Sink) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{inbox: inbox, sinks: sinks, logger: logger, metrics: m}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.deliver(ctx, ev)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, ev Event) {
	for _, sink := range w.sinks {
		if err := sink.Deliver(ctx, ev); err != nil {
			w.logger.ErrorContext(ctx, "event sink delivery failed",
				"sink", sink.Name(),
				"seq", ev.Seq,
				"kind", ev.Kind,
				"error", err,
			)
			if w.metrics != nil {
				w.metrics.IncrementSinkFailure(sink.Name())
			}
		}
	}
}
