package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/identity/models"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// IDOf returns the identity whose custody is addr, or 0.
func (r *Registry) IDOf(ctx context.Context, addr common.Address) domain.IdentityID {
	var id domain.IdentityID
	_ = r.ledger.View(ctx, func(context.Context) error {
		id, _ = r.byCustody.Get(addr)
		return nil
	})
	return id
}

// IDOfUsername returns the identity holding username (any casing), or 0.
func (r *Registry) IDOfUsername(ctx context.Context, username string) domain.IdentityID {
	var id domain.IdentityID
	_ = r.ledger.View(ctx, func(context.Context) error {
		id, _ = r.byUsername.Get(models.UsernameHash(username))
		return nil
	})
	return id
}

// Identity returns the identity record or CodeIdentityNotFound.
func (r *Registry) Identity(ctx context.Context, id domain.IdentityID) (models.Identity, error) {
	var ident models.Identity
	err := r.ledger.View(ctx, func(context.Context) error {
		var err error
		ident, err = r.identity(id)
		return err
	})
	return ident, err
}

// Exists reports whether id was issued.
func (r *Registry) Exists(ctx context.Context, id domain.IdentityID) bool {
	_, err := r.Identity(ctx, id)
	return err == nil
}

// CustodyOf returns id's custody address, or the zero address.
func (r *Registry) CustodyOf(ctx context.Context, id domain.IdentityID) common.Address {
	ident, _ := r.Identity(ctx, id)
	return ident.Custody
}

// RecoveryOf returns id's recovery address, or the zero address.
func (r *Registry) RecoveryOf(ctx context.Context, id domain.IdentityID) common.Address {
	ident, _ := r.Identity(ctx, id)
	return ident.Recovery
}

// IDCounter returns the last issued id.
func (r *Registry) IDCounter(ctx context.Context) uint64 {
	var n uint64
	_ = r.ledger.View(ctx, func(context.Context) error {
		n = r.counter.Current()
		return nil
	})
	return n
}

// CanAct reports whether actor may act for delegator on contract within rights: either they
// are the same existing identity or the delegation oracle reports a grant. Oracle failures
// are returned and abort the calling operation.
func (r *Registry) CanAct(ctx context.Context, delegator, actor domain.IdentityID, contract common.Address, rights common.Hash) (bool, error) {
	var ok bool
	err := r.ledger.View(ctx, func(ctx context.Context) error {
		if delegator.IsZero() || actor.IsZero() {
			return nil
		}
		if !r.identities.Has(delegator) || !r.identities.Has(actor) {
			return nil
		}
		if delegator == actor {
			ok = true
			return nil
		}
		oracle := r.oracle.Get()
		if oracle == nil {
			return nil
		}
		var err error
		ok, err = oracle.CheckDelegate(ctx, actor, delegator, contract, rights)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "delegation oracle failed")
		}
		return nil
	})
	return ok, err
}
