// Package nonce tracks per-signer replay counters for signature-authorized calls.
package nonce

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/events"
	"provenance/internal/ledger"
	"provenance/pkg/requestcontext"
)

// Tracker holds the next expected nonce of every signer for one component.
// A signature commits to the signer's current nonce; Use consumes it.
type Tracker struct {
	ledger   *ledger.Ledger
	contract common.Address
	nonces   *ledger.Map[common.Address, uint64]
}

func NewTracker(l *ledger.Ledger, contract common.Address) *Tracker {
	return &Tracker{
		ledger:   l,
		contract: contract,
		nonces:   ledger.NewMap[common.Address, uint64](),
	}
}

// Nonces returns the nonce the next signature by account must commit to.
func (t *Tracker) Nonces(ctx context.Context, account common.Address) uint64 {
	var n uint64
	_ = t.ledger.View(ctx, func(context.Context) error {
		n, _ = t.nonces.Get(account)
		return nil
	})
	return n
}

// Use returns account's current nonce and advances it. Must run inside a ledger call.
func (t *Tracker) Use(ctx context.Context, account common.Address) uint64 {
	n, _ := t.nonces.Get(account)
	t.nonces.Set(ctx, account, n+1)
	return n
}

// Invalidate lets the caller burn its current nonce, voiding every outstanding signature.
func (t *Tracker) Invalidate(ctx context.Context) (uint64, error) {
	var used uint64
	err := t.ledger.Execute(ctx, func(ctx context.Context) error {
		caller := requestcontext.Caller(ctx)
		used = t.Use(ctx, caller)
		events.Emit(ctx, events.Event{
			Kind:     events.KindNonceUsed,
			Contract: t.contract,
			Fields: map[string]string{
				"account": caller.Hex(),
				"nonce":   strconv.FormatUint(used, 10),
			},
		})
		return nil
	})
	return used, err
}
