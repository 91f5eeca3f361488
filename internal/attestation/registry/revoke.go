package registry

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/attestation/models"
	"provenance/internal/events"
	"provenance/internal/ledger"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

// Revoke revokes one attestation originated by the caller's identity.
func (r *Registry) Revoke(ctx context.Context, req models.RevocationRequest) error {
	return r.call(ctx, "revoke", func(ctx context.Context, b *budget) error {
		revoker, err := r.idOf(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		return r.revoke(ctx, req.Schema, []models.RevocationRequestData{req.Data}, revoker, b)
	})
}

// RevokeByDelegation revokes one attestation on a signature from req.Revoker.
func (r *Registry) RevokeByDelegation(ctx context.Context, req models.DelegatedRevocationRequest) error {
	return r.call(ctx, "revoke_by_delegation", func(ctx context.Context, b *budget) error {
		revoker, err := r.delegatedRevoker(ctx, req.Schema, []models.RevocationRequestData{req.Data}, [][]byte{req.Signature}, req.Revoker, req.Deadline)
		if err != nil {
			return err
		}
		return r.revoke(ctx, req.Schema, []models.RevocationRequestData{req.Data}, revoker, b)
	})
}

func (r *Registry) MultiRevoke(ctx context.Context, reqs []models.MultiRevocationRequest) error {
	return r.call(ctx, "multi_revoke", func(ctx context.Context, b *budget) error {
		if len(reqs) == 0 {
			return dErrors.New(dErrors.CodeInvalidLength, "no revocation requests")
		}
		revoker, err := r.idOf(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		for _, req := range reqs {
			if len(req.Data) == 0 {
				return dErrors.New(dErrors.CodeInvalidLength, "revocation request without data")
			}
			if err := r.revoke(ctx, req.Schema, req.Data, revoker, b); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Registry) MultiRevokeByDelegation(ctx context.Context, reqs []models.MultiDelegatedRevocationRequest) error {
	return r.call(ctx, "multi_revoke_by_delegation", func(ctx context.Context, b *budget) error {
		if len(reqs) == 0 {
			return dErrors.New(dErrors.CodeInvalidLength, "no revocation requests")
		}
		for _, req := range reqs {
			if len(req.Data) == 0 || len(req.Data) != len(req.Signatures) {
				return dErrors.New(dErrors.CodeInvalidLength, "revocation data and signatures differ in length")
			}
			revoker, err := r.delegatedRevoker(ctx, req.Schema, req.Data, req.Signatures, req.Revoker, req.Deadline)
			if err != nil {
				return err
			}
			if err := r.revoke(ctx, req.Schema, req.Data, revoker, b); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Registry) delegatedRevoker(ctx context.Context, schema common.Hash, data []models.RevocationRequestData, sigs [][]byte, revoker common.Address, deadline uint64) (domain.IdentityID, error) {
	for i := range data {
		err := r.authorize(ctx, revoker, deadline, sigs[i], func(n uint64) (common.Hash, error) {
			return r.digests.Revoke(schema, data[i], n, deadline)
		})
		if err != nil {
			return 0, err
		}
	}
	return r.idOf(ctx, revoker)
}

// revoke marks one schema group revoked and settles it with the schema's resolver.
// Only the originator may revoke.
func (r *Registry) revoke(ctx context.Context, schemaUID common.Hash, data []models.RevocationRequestData, revoker domain.IdentityID, b *budget) error {
	schema := r.schemas.GetSchema(ctx, schemaUID)
	if !schema.Exists() {
		return dErrors.New(dErrors.CodeInvalidSchema, "schema not found")
	}
	now := requestcontext.Unix(ctx)
	atts := make([]models.Attestation, len(data))
	values := make([]*big.Int, len(data))
	for i, d := range data {
		value, err := checkValue(d.Value)
		if err != nil {
			return err
		}
		att, ok := r.attestations.Get(d.UID)
		if !ok {
			return dErrors.New(dErrors.CodeAttestationNotFound, "attestation not found")
		}
		if att.Schema != schemaUID {
			return dErrors.New(dErrors.CodeInvalidSchema, "attestation belongs to another schema")
		}
		if att.Originator != revoker {
			return dErrors.New(dErrors.CodeAccessDenied, "only the originator may revoke")
		}
		if !att.Revocable {
			return dErrors.New(dErrors.CodeIrrevocable, "attestation is not revocable")
		}
		if att.Revoked() {
			return dErrors.New(dErrors.CodeAlreadyRevoked, "attestation already revoked")
		}
		att.RevocationTime = now
		r.attestations.Set(ctx, att.UID, att)
		events.Emit(ctx, events.Event{
			Kind:     events.KindAttestationRevoked,
			Contract: r.address,
			Fields: map[string]string{
				"uid":        att.UID.Hex(),
				"schema":     schemaUID.Hex(),
				"originator": att.Originator.String(),
				"revoker":    revoker.String(),
			},
		})
		atts[i], values[i] = att.Clone(), value
	}
	if err := r.settle(ctx, schema, atts, values, b, true); err != nil {
		return err
	}
	ledger.AfterCommit(ctx, func() {
		if r.metrics == nil {
			return
		}
		for range atts {
			r.metrics.IncrementRevocation()
		}
	})
	return nil
}
