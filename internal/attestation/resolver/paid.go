package resolver

import (
	"context"
	"math/big"

	"provenance/internal/attestation/models"
)

// PaidResolver charges a fixed price per attestation. Revocations are free and must carry
// no value.
type PaidResolver struct {
	price *big.Int
}

func NewPaidResolver(price *big.Int) *PaidResolver {
	return &PaidResolver{price: new(big.Int).Set(price)}
}

func (r *PaidResolver) Price() *big.Int { return new(big.Int).Set(r.price) }

func (r *PaidResolver) IsPayable() bool { return true }

func (r *PaidResolver) Attest(_ context.Context, _ models.Attestation, value *big.Int) (bool, error) {
	return models.ValueOf(value).Cmp(r.price) == 0, nil
}

func (r *PaidResolver) MultiAttest(ctx context.Context, atts []models.Attestation, values []*big.Int) (bool, error) {
	return each(ctx, atts, values, r.Attest)
}

func (r *PaidResolver) Revoke(_ context.Context, _ models.Attestation, value *big.Int) (bool, error) {
	return models.ValueOf(value).Sign() == 0, nil
}

func (r *PaidResolver) MultiRevoke(ctx context.Context, atts []models.Attestation, values []*big.Int) (bool, error) {
	return each(ctx, atts, values, r.Revoke)
}
