package registry

import (
	"bytes"
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/attestation/models"
	"provenance/internal/events"
	"provenance/internal/ledger"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

// Attest creates one attestation with the caller's identity as registrar.
func (r *Registry) Attest(ctx context.Context, req models.AttestationRequest) (common.Hash, error) {
	var uid common.Hash
	err := r.call(ctx, "attest", func(ctx context.Context, b *budget) error {
		registrar, err := r.idOf(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		uids, err := r.attest(ctx, req.Schema, []models.AttestationRequestData{req.Data}, registrar, b)
		if err != nil {
			return err
		}
		uid = uids[0]
		return nil
	})
	return uid, err
}

// AttestByDelegation creates one attestation signed by req.Attester, whose identity is the
// registrar.
func (r *Registry) AttestByDelegation(ctx context.Context, req models.DelegatedAttestationRequest) (common.Hash, error) {
	var uid common.Hash
	err := r.call(ctx, "attest_by_delegation", func(ctx context.Context, b *budget) error {
		registrar, err := r.delegatedAttester(ctx, req.Schema, []models.AttestationRequestData{req.Data}, [][]byte{req.Signature}, req.Attester, req.Deadline)
		if err != nil {
			return err
		}
		uids, err := r.attest(ctx, req.Schema, []models.AttestationRequestData{req.Data}, registrar, b)
		if err != nil {
			return err
		}
		uid = uids[0]
		return nil
	})
	return uid, err
}

// MultiAttest creates several groups of attestations. The uids come back flattened in
// submission order.
func (r *Registry) MultiAttest(ctx context.Context, reqs []models.MultiAttestationRequest) ([]common.Hash, error) {
	var uids []common.Hash
	err := r.call(ctx, "multi_attest", func(ctx context.Context, b *budget) error {
		if len(reqs) == 0 {
			return dErrors.New(dErrors.CodeInvalidLength, "no attestation requests")
		}
		registrar, err := r.idOf(ctx, requestcontext.Caller(ctx))
		if err != nil {
			return err
		}
		for _, req := range reqs {
			if len(req.Data) == 0 {
				return dErrors.New(dErrors.CodeInvalidLength, "attestation request without data")
			}
			group, err := r.attest(ctx, req.Schema, req.Data, registrar, b)
			if err != nil {
				return err
			}
			uids = append(uids, group...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uids, nil
}

// MultiAttestByDelegation is MultiAttest with every item signed by its group's attester.
func (r *Registry) MultiAttestByDelegation(ctx context.Context, reqs []models.MultiDelegatedAttestationRequest) ([]common.Hash, error) {
	var uids []common.Hash
	err := r.call(ctx, "multi_attest_by_delegation", func(ctx context.Context, b *budget) error {
		if len(reqs) == 0 {
			return dErrors.New(dErrors.CodeInvalidLength, "no attestation requests")
		}
		for _, req := range reqs {
			if len(req.Data) == 0 || len(req.Data) != len(req.Signatures) {
				return dErrors.New(dErrors.CodeInvalidLength, "attestation data and signatures differ in length")
			}
			registrar, err := r.delegatedAttester(ctx, req.Schema, req.Data, req.Signatures, req.Attester, req.Deadline)
			if err != nil {
				return err
			}
			group, err := r.attest(ctx, req.Schema, req.Data, registrar, b)
			if err != nil {
				return err
			}
			uids = append(uids, group...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uids, nil
}

// delegatedAttester verifies one signature per item and returns the attester's identity.
func (r *Registry) delegatedAttester(ctx context.Context, schema common.Hash, data []models.AttestationRequestData, sigs [][]byte, attester common.Address, deadline uint64) (domain.IdentityID, error) {
	for i := range data {
		err := r.authorize(ctx, attester, deadline, sigs[i], func(n uint64) (common.Hash, error) {
			return r.digests.Attest(schema, data[i], n, deadline)
		})
		if err != nil {
			return 0, err
		}
	}
	return r.idOf(ctx, attester)
}

// attest stores one schema group and settles it with the schema's resolver.
func (r *Registry) attest(ctx context.Context, schemaUID common.Hash, data []models.AttestationRequestData, registrar domain.IdentityID, b *budget) ([]common.Hash, error) {
	schema := r.schemas.GetSchema(ctx, schemaUID)
	if !schema.Exists() {
		return nil, dErrors.New(dErrors.CodeInvalidSchema, "schema not found")
	}
	now := requestcontext.Unix(ctx)
	atts := make([]models.Attestation, len(data))
	values := make([]*big.Int, len(data))
	uids := make([]common.Hash, len(data))
	for i, d := range data {
		if err := r.requireCanAttest(ctx, d.Originator, registrar); err != nil {
			return nil, err
		}
		if d.ExpirationTime != 0 && d.ExpirationTime <= now {
			return nil, dErrors.New(dErrors.CodeInvalidExpirationTime, "expiration time is not in the future")
		}
		if d.Revocable && !schema.Revocable {
			return nil, dErrors.New(dErrors.CodeIrrevocable, "schema does not allow revocable attestations")
		}
		value, err := checkValue(d.Value)
		if err != nil {
			return nil, err
		}

		att := models.Attestation{
			Schema:         schemaUID,
			Time:           now,
			ExpirationTime: d.ExpirationTime,
			Originator:     d.Originator,
			Registrar:      registrar,
			Revocable:      d.Revocable,
			Data:           bytes.Clone(d.Data),
		}
		att.UID = UID(att)
		if r.attestations.Has(att.UID) {
			return nil, dErrors.New(dErrors.CodeAlreadyAttested, "attestation already exists")
		}
		r.attestations.Set(ctx, att.UID, att)
		events.Emit(ctx, events.Event{
			Kind:     events.KindAttestationAttested,
			Contract: r.address,
			Fields: map[string]string{
				"uid":        att.UID.Hex(),
				"schema":     schemaUID.Hex(),
				"originator": att.Originator.String(),
				"registrar":  registrar.String(),
				"expiration": strconv.FormatUint(att.ExpirationTime, 10),
				"value":      value.String(),
			},
		})
		atts[i], values[i], uids[i] = att.Clone(), value, att.UID
	}
	if err := r.settle(ctx, schema, atts, values, b, false); err != nil {
		return nil, err
	}
	ledger.AfterCommit(ctx, func() {
		if r.metrics == nil {
			return
		}
		for range atts {
			r.metrics.IncrementRegistration("attestation")
		}
	})
	return uids, nil
}
