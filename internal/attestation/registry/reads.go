package registry

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/attestation/models"
	"provenance/internal/identity/delegation"
	"provenance/pkg/domain"
)

// GetAttestation returns the attestation with the given uid, or the zero record.
func (r *Registry) GetAttestation(ctx context.Context, uid common.Hash) models.Attestation {
	var att models.Attestation
	_ = r.ledger.View(ctx, func(context.Context) error {
		att, _ = r.attestations.Get(uid)
		return nil
	})
	return att.Clone()
}

// IsAttestationValid reports whether uid names a stored attestation.
func (r *Registry) IsAttestationValid(ctx context.Context, uid common.Hash) bool {
	return r.GetAttestation(ctx, uid).Exists()
}

// CanAttest reports whether registrar may attest for originator.
func (r *Registry) CanAttest(ctx context.Context, originator, registrar domain.IdentityID) (bool, error) {
	return r.identities.CanAct(ctx, originator, registrar, r.address, delegation.RightsAttest)
}

// GetTimestamp returns when data was timestamped, or 0.
func (r *Registry) GetTimestamp(ctx context.Context, data common.Hash) uint64 {
	var ts uint64
	_ = r.ledger.View(ctx, func(context.Context) error {
		ts, _ = r.timestamps.Get(data)
		return nil
	})
	return ts
}

// GetRevokeOffchain returns when revoker revoked data, or 0.
func (r *Registry) GetRevokeOffchain(ctx context.Context, revoker common.Address, data common.Hash) uint64 {
	var ts uint64
	_ = r.ledger.View(ctx, func(context.Context) error {
		ts, _ = r.offchainRevocations.Get(offchainKey{revoker: revoker, data: data})
		return nil
	})
	return ts
}
