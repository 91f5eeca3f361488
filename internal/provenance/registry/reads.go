package registry

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/provenance/models"
	"provenance/pkg/domain"
)

// Claim returns the claim with the given id, or claim_not_found.
func (r *Registry) Claim(ctx context.Context, id domain.ClaimID) (models.Claim, error) {
	var claim models.Claim
	err := r.ledger.View(ctx, func(context.Context) error {
		var err error
		claim, err = r.claim(id)
		return err
	})
	return claim.Clone(), err
}

// ClaimIDByContent returns the claim originator made on contentHash, or 0.
func (r *Registry) ClaimIDByContent(ctx context.Context, originator domain.IdentityID, contentHash common.Hash) domain.ClaimID {
	var id domain.ClaimID
	_ = r.ledger.View(ctx, func(context.Context) error {
		id, _ = r.byContent.Get(models.ContentKey{OriginatorID: originator, ContentHash: contentHash})
		return nil
	})
	return id
}

// ClaimIDByNft returns the claim bound to the token, or 0.
func (r *Registry) ClaimIDByNft(ctx context.Context, contract common.Address, tokenID *big.Int) domain.ClaimID {
	var id domain.ClaimID
	_ = r.ledger.View(ctx, func(context.Context) error {
		id, _ = r.byNft.Get(models.NewNftKey(contract, tokenID))
		return nil
	})
	return id
}

// ClaimCounter returns the last issued claim id.
func (r *Registry) ClaimCounter(ctx context.Context) uint64 {
	var n uint64
	_ = r.ledger.View(ctx, func(context.Context) error {
		n = r.counter.Current()
		return nil
	})
	return n
}
