// Package requestcontext provides transport-independent context accessors for call-scoped values.
//
// Every registry call runs with the metadata a chain transaction would carry: the immediate
// caller, the value attached to the call, the block time and the block number. The ledger sets
// time and block when a top-level call starts; gateways re-stamp the caller with their own
// address before calling into a registry.
//
// Usage in services (read values):
//
//	caller := requestcontext.Caller(ctx)
//	value := requestcontext.CallValue(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in transports and tests (set values):
//
//	ctx = requestcontext.WithCaller(ctx, relayer)
//	ctx = requestcontext.WithCallValue(ctx, big.NewInt(1e15))
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Context key types (unexported for encapsulation).
type (
	callerKey      struct{}
	callValueKey   struct{}
	blockNumberKey struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyCaller      = callerKey{}
	ContextKeyCallValue   = callValueKey{}
	ContextKeyBlockNumber = blockNumberKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Call metadata
// -----------------------------------------------------------------------------

// Caller returns the immediate caller of the current call, or the zero address.
func Caller(ctx context.Context) common.Address {
	if addr, ok := ctx.Value(ContextKeyCaller).(common.Address); ok {
		return addr
	}
	return common.Address{}
}

// WithCaller injects the immediate caller.
func WithCaller(ctx context.Context, addr common.Address) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, addr)
}

// CallValue returns the value attached to the current call. Never nil.
func CallValue(ctx context.Context) *big.Int {
	if v, ok := ctx.Value(ContextKeyCallValue).(*big.Int); ok && v != nil {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// WithCallValue injects the value attached to the call. A nil value means zero.
func WithCallValue(ctx context.Context, v *big.Int) context.Context {
	if v == nil {
		v = new(big.Int)
	}
	return context.WithValue(ctx, ContextKeyCallValue, new(big.Int).Set(v))
}

// BlockNumber returns the block the current call executes in, or 0 outside a call.
func BlockNumber(ctx context.Context) uint64 {
	if n, ok := ctx.Value(ContextKeyBlockNumber).(uint64); ok {
		return n
	}
	return 0
}

// WithBlockNumber injects a block number.
func WithBlockNumber(ctx context.Context, n uint64) context.Context {
	return context.WithValue(ctx, ContextKeyBlockNumber, n)
}

// -----------------------------------------------------------------------------
// Request ID
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Block time
// -----------------------------------------------------------------------------

// Now retrieves the call-scoped time from context.
// Falls back to time.Now() if not set (for workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// Unix returns Now as unix seconds, the resolution timestamps are stored at.
func Unix(ctx context.Context) uint64 {
	sec := Now(ctx).Unix()
	if sec < 0 {
		return 0
	}
	return uint64(sec)
}

// HasTime reports whether a call-scoped time was injected.
func HasTime(ctx context.Context) bool {
	_, ok := ctx.Value(ContextKeyRequestTime).(time.Time)
	return ok
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
