// Package resolver holds the settlement hooks schemas may name. A resolver sees every
// attestation and revocation under its schemas, receives the value attached to them and
// can veto them; a veto reverts the whole call.
package resolver

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/attestation/models"
	"provenance/internal/ledger"
	"provenance/pkg/platform/sentinel"
)

// Resolver is called synchronously inside the attesting call. Returning false or an error
// rejects the operation.
type Resolver interface {
	IsPayable() bool
	Attest(ctx context.Context, att models.Attestation, value *big.Int) (bool, error)
	MultiAttest(ctx context.Context, atts []models.Attestation, values []*big.Int) (bool, error)
	Revoke(ctx context.Context, att models.Attestation, value *big.Int) (bool, error)
	MultiRevoke(ctx context.Context, atts []models.Attestation, values []*big.Int) (bool, error)
}

// Directory maps resolver addresses to their implementations.
type Directory struct {
	ledger    *ledger.Ledger
	resolvers *ledger.Map[common.Address, Resolver]
}

func NewDirectory(l *ledger.Ledger) *Directory {
	return &Directory{ledger: l, resolvers: ledger.NewMap[common.Address, Resolver]()}
}

// Deploy installs r at address.
func (d *Directory) Deploy(ctx context.Context, address common.Address, r Resolver) error {
	return d.ledger.Execute(ctx, func(ctx context.Context) error {
		if d.resolvers.Has(address) {
			return fmt.Errorf("deploy resolver %s: %w", address.Hex(), sentinel.ErrConflict)
		}
		d.resolvers.Set(ctx, address, r)
		return nil
	})
}

// Lookup returns the resolver at address. An address with nothing deployed behaves like an
// account without code: it cannot take value and rejects every callback.
func (d *Directory) Lookup(ctx context.Context, address common.Address) Resolver {
	var r Resolver
	_ = d.ledger.View(ctx, func(context.Context) error {
		r, _ = d.resolvers.Get(address)
		return nil
	})
	if r == nil {
		return rejecting{}
	}
	return r
}

type rejecting struct{}

func (rejecting) IsPayable() bool { return false }

func (rejecting) Attest(context.Context, models.Attestation, *big.Int) (bool, error) {
	return false, nil
}

func (rejecting) MultiAttest(context.Context, []models.Attestation, []*big.Int) (bool, error) {
	return false, nil
}

func (rejecting) Revoke(context.Context, models.Attestation, *big.Int) (bool, error) {
	return false, nil
}

func (rejecting) MultiRevoke(context.Context, []models.Attestation, []*big.Int) (bool, error) {
	return false, nil
}

// each applies fn to every item and reports whether all accepted.
func each(ctx context.Context, atts []models.Attestation, values []*big.Int, fn func(context.Context, models.Attestation, *big.Int) (bool, error)) (bool, error) {
	if len(atts) != len(values) {
		return false, nil
	}
	for i := range atts {
		ok, err := fn(ctx, atts[i], values[i])
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
