package events

import (
	"context"

	"provenance/pkg/requestcontext"
)

type bufferKey struct{}

// Buffer collects the events of one call until it commits.
type Buffer struct {
	events []Event
}

// Events returns the buffered events in emission order.
func (b *Buffer) Events() []Event {
	return b.events
}

// WithBuffer attaches a fresh buffer to ctx.
func WithBuffer(ctx context.Context) (context.Context, *Buffer) {
	b := &Buffer{}
	return context.WithValue(ctx, bufferKey{}, b), b
}

// Emit records ev on the call's buffer, stamping block number and time from the call context.
// Outside a ledger call there is no buffer and the event is dropped.
func Emit(ctx context.Context, ev Event) {
	b, ok := ctx.Value(bufferKey{}).(*Buffer)
	if !ok {
		return
	}
	ev.BlockNumber = requestcontext.BlockNumber(ctx)
	ev.Time = requestcontext.Now(ctx)
	b.events = append(b.events, ev)
}
