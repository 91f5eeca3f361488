// Package delegation answers "may actor act for delegator here?" for IdentityRegistry.CanAct.
package delegation

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"provenance/internal/events"
	"provenance/internal/ledger"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

// Rights scope a delegation to a purpose.
var (
	RightsAttest     = crypto.Keccak256Hash([]byte("attest"))
	RightsProvenance = crypto.Keccak256Hash([]byte("provenance"))
	// RightsAll grants every scope.
	RightsAll = common.Hash{}
)

// Oracle is the external delegation source. It must be read-only.
type Oracle interface {
	CheckDelegate(ctx context.Context, actor, delegator domain.IdentityID, contract common.Address, rights common.Hash) (bool, error)
}

// IdentityLookup resolves the identity a caller controls.
type IdentityLookup interface {
	IDOf(ctx context.Context, addr common.Address) domain.IdentityID
}

type grantKey struct {
	delegator domain.IdentityID
	actor     domain.IdentityID
	contract  common.Address
	rights    common.Hash
}

// Directory is an in-process delegation registry. A delegator grants an actor rights on a
// contract; the zero contract matches every contract and RightsAll matches every scope.
type Directory struct {
	ledger     *ledger.Ledger
	address    common.Address
	identities IdentityLookup
	grants     *ledger.Map[grantKey, bool]
}

func NewDirectory(l *ledger.Ledger, address common.Address, identities IdentityLookup) *Directory {
	return &Directory{
		ledger:     l,
		address:    address,
		identities: identities,
		grants:     ledger.NewMap[grantKey, bool](),
	}
}

// Delegate grants actor rights on contract on behalf of the caller's identity.
func (d *Directory) Delegate(ctx context.Context, actor domain.IdentityID, contract common.Address, rights common.Hash) error {
	return d.set(ctx, actor, contract, rights, true)
}

// Revoke withdraws a grant made by the caller's identity.
func (d *Directory) Revoke(ctx context.Context, actor domain.IdentityID, contract common.Address, rights common.Hash) error {
	return d.set(ctx, actor, contract, rights, false)
}

func (d *Directory) set(ctx context.Context, actor domain.IdentityID, contract common.Address, rights common.Hash, enable bool) error {
	return d.ledger.Execute(ctx, func(ctx context.Context) error {
		delegator := d.identities.IDOf(ctx, requestcontext.Caller(ctx))
		if delegator.IsZero() {
			return dErrors.New(dErrors.CodeHasNoID, "caller has no identity")
		}
		if actor.IsZero() {
			return dErrors.New(dErrors.CodeInvalidInput, "actor id cannot be zero")
		}
		k := grantKey{delegator: delegator, actor: actor, contract: contract, rights: rights}
		if enable {
			d.grants.Set(ctx, k, true)
		} else {
			d.grants.Delete(ctx, k)
		}
		events.Emit(ctx, events.Event{
			Kind:     delegationKind(enable),
			Contract: d.address,
			Fields: map[string]string{
				"delegator": delegator.String(),
				"actor":     actor.String(),
				"contract":  contract.Hex(),
				"rights":    rights.Hex(),
			},
		})
		return nil
	})
}

func delegationKind(enable bool) events.Kind {
	if enable {
		return events.KindDelegationGranted
	}
	return events.KindDelegationRevoked
}

func (d *Directory) CheckDelegate(ctx context.Context, actor, delegator domain.IdentityID, contract common.Address, rights common.Hash) (bool, error) {
	var ok bool
	err := d.ledger.View(ctx, func(context.Context) error {
		for _, c := range []common.Address{contract, {}} {
			for _, r := range []common.Hash{rights, RightsAll} {
				if d.grants.Has(grantKey{delegator: delegator, actor: actor, contract: c, rights: r}) {
					ok = true
					return nil
				}
			}
		}
		return nil
	})
	return ok, err
}
