// Package ledger executes registry calls with chain-like semantics.
//
// A top-level call runs under one exclusive lock, sees a fixed block number and block time,
// and either commits entirely or leaves no trace: every journaled write is undone and every
// buffered event discarded when the call returns an error or panics. Calls made from inside a call
// (a gateway calling its registry, a registry calling a resolver) join the outer call.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"provenance/internal/events"
	"provenance/internal/platform/metrics"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/tx"
	"provenance/pkg/requestcontext"
)

// EventPublisher receives the events of committed calls.
type EventPublisher interface {
	Publish(ctx context.Context, evs []events.Event) error
}

type Ledger struct {
	mu        sync.RWMutex
	height    uint64
	lastTime  time.Time
	clock     func() time.Time
	publisher EventPublisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func WithPublisher(p EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithClock sets the source of block time for calls that do not inject one.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) { l.clock = clock }
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Execute runs fn as one atomic call. A call-scoped time injected with
// requestcontext.WithTime is used as block time; otherwise the ledger clock is read.
// Block time never moves backwards.
func (l *Ledger) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if InCall(ctx) {
		return fn(ctx)
	}
	start := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	block := l.height + 1
	now := l.clock()
	if requestcontext.HasTime(ctx) {
		now = requestcontext.Now(ctx)
	}
	if now.Before(l.lastTime) {
		now = l.lastTime
	}
	ctx = requestcontext.WithTime(ctx, now)
	ctx = requestcontext.WithBlockNumber(ctx, block)
	journal := &tx.Journal{}
	ctx = tx.WithJournal(ctx, journal)
	ctx, buf := events.WithBuffer(ctx)

	if err := l.run(ctx, fn); err != nil {
		journal.Revert()
		l.observe(start, "reverted")
		if l.metrics != nil {
			l.metrics.IncrementRevert(string(dErrors.CodeOf(err)))
		}
		l.logger.DebugContext(ctx, "call reverted",
			"block", block,
			"caller", requestcontext.Caller(ctx).Hex(),
			"code", dErrors.CodeOf(err),
			"error", err,
		)
		return err
	}

	l.height = block
	l.lastTime = now
	journal.Commit()
	l.observe(start, "committed")

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, buf.Events()); err != nil {
			// State is committed; the event log is behind and must be repaired from the error log.
			l.logger.ErrorContext(ctx, "failed to publish committed events",
				"block", block,
				"events", len(buf.Events()),
				"error", err,
			)
		}
	}
	return nil
}

// run converts a panic in fn into an internal error so the caller reverts the journal
// before the lock is released.
func (l *Ledger) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			l.logger.ErrorContext(ctx, "call panicked",
				"block", requestcontext.BlockNumber(ctx),
				"caller", requestcontext.Caller(ctx).Hex(),
				"panic", p,
			)
			err = dErrors.New(dErrors.CodeInternal, fmt.Sprintf("call panicked: %v", p))
		}
	}()
	return fn(ctx)
}

type viewKey struct{}

// View runs a read-only fn under a shared lock. Inside a call or another view it runs
// directly, so reads may nest (a registry consulting an oracle that reads ledger state).
// fn must not start a call.
func (l *Ledger) View(ctx context.Context, fn func(ctx context.Context) error) error {
	if InCall(ctx) || ctx.Value(viewKey{}) != nil {
		return fn(ctx)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(context.WithValue(ctx, viewKey{}, true))
}

// Height returns the number of the last committed block.
func (l *Ledger) Height() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.height
}

// InCall reports whether ctx belongs to a running ledger call.
func InCall(ctx context.Context) bool {
	_, ok := tx.JournalFrom(ctx)
	return ok
}

// AfterCommit schedules fn to run if and when the current call commits.
// Outside a call fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	if j, ok := tx.JournalFrom(ctx); ok {
		j.AfterCommit(fn)
		return
	}
	fn()
}

func (l *Ledger) observe(start time.Time, outcome string) {
	if l.metrics != nil {
		l.metrics.ObserveTransaction(start, outcome)
	}
}

// ErrTransferRejected is returned by the Vault when a recipient refuses value.
var ErrTransferRejected = errors.New("transfer rejected by recipient")
