package resolver

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/access"
	"provenance/internal/attestation/models"
	"provenance/internal/events"
	"provenance/internal/ledger"
	"provenance/pkg/domain"
)

// AllowlistResolver accepts attestations submitted by allow-listed registrars. It takes no
// value and never blocks revocations.
type AllowlistResolver struct {
	ledger  *ledger.Ledger
	access  *access.Control
	address common.Address
	allowed *ledger.Map[domain.IdentityID, bool]
}

func NewAllowlistResolver(l *ledger.Ledger, address, owner common.Address) *AllowlistResolver {
	return &AllowlistResolver{
		ledger:  l,
		access:  access.New(l, address, owner),
		address: address,
		allowed: ledger.NewMap[domain.IdentityID, bool](),
	}
}

func (r *AllowlistResolver) Address() common.Address { return r.address }

// Allow adds or removes registrar from the allowlist. Owner only.
func (r *AllowlistResolver) Allow(ctx context.Context, registrar domain.IdentityID, allowed bool) error {
	return r.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := r.access.RequireOwner(ctx); err != nil {
			return err
		}
		if allowed {
			r.allowed.Set(ctx, registrar, true)
		} else {
			r.allowed.Delete(ctx, registrar)
		}
		events.Emit(ctx, events.Event{
			Kind:     events.KindResolverAllowlistChanged,
			Contract: r.address,
			Fields:   map[string]string{"registrar": registrar.String(), "allowed": strconv.FormatBool(allowed)},
		})
		return nil
	})
}

func (r *AllowlistResolver) IsAllowed(ctx context.Context, registrar domain.IdentityID) bool {
	var ok bool
	_ = r.ledger.View(ctx, func(context.Context) error {
		ok, _ = r.allowed.Get(registrar)
		return nil
	})
	return ok
}

func (r *AllowlistResolver) IsPayable() bool { return false }

func (r *AllowlistResolver) Attest(ctx context.Context, att models.Attestation, _ *big.Int) (bool, error) {
	return r.IsAllowed(ctx, att.Registrar), nil
}

func (r *AllowlistResolver) MultiAttest(ctx context.Context, atts []models.Attestation, values []*big.Int) (bool, error) {
	return each(ctx, atts, values, r.Attest)
}

func (r *AllowlistResolver) Revoke(context.Context, models.Attestation, *big.Int) (bool, error) {
	return true, nil
}

func (r *AllowlistResolver) MultiRevoke(ctx context.Context, atts []models.Attestation, values []*big.Int) (bool, error) {
	return each(ctx, atts, values, r.Revoke)
}
