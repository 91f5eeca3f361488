package registry

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/events"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

// Timestamp records the current time against data. Each datum is timestamped once.
func (r *Registry) Timestamp(ctx context.Context, data common.Hash) (uint64, error) {
	return r.MultiTimestamp(ctx, []common.Hash{data})
}

// MultiTimestamp timestamps every datum or none.
func (r *Registry) MultiTimestamp(ctx context.Context, data []common.Hash) (uint64, error) {
	var now uint64
	err := r.call(ctx, "timestamp", func(ctx context.Context, _ *budget) error {
		if err := requireNoValue(ctx); err != nil {
			return err
		}
		if len(data) == 0 {
			return dErrors.New(dErrors.CodeInvalidLength, "nothing to timestamp")
		}
		now = requestcontext.Unix(ctx)
		for _, d := range data {
			if r.timestamps.Has(d) {
				return dErrors.New(dErrors.CodeAlreadyTimestamped, "data already timestamped")
			}
			r.timestamps.Set(ctx, d, now)
			events.Emit(ctx, events.Event{
				Kind:     events.KindAttestationTimestamped,
				Contract: r.address,
				Fields:   map[string]string{"data": d.Hex(), "time": strconv.FormatUint(now, 10)},
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return now, nil
}

// RevokeOffchain records that the caller revokes data. Each (caller, data) pair is
// revoked once.
func (r *Registry) RevokeOffchain(ctx context.Context, data common.Hash) (uint64, error) {
	return r.MultiRevokeOffchain(ctx, []common.Hash{data})
}

func (r *Registry) MultiRevokeOffchain(ctx context.Context, data []common.Hash) (uint64, error) {
	var now uint64
	err := r.call(ctx, "revoke_offchain", func(ctx context.Context, _ *budget) error {
		if err := requireNoValue(ctx); err != nil {
			return err
		}
		if len(data) == 0 {
			return dErrors.New(dErrors.CodeInvalidLength, "nothing to revoke")
		}
		now = requestcontext.Unix(ctx)
		revoker := requestcontext.Caller(ctx)
		for _, d := range data {
			key := offchainKey{revoker: revoker, data: d}
			if r.offchainRevocations.Has(key) {
				return dErrors.New(dErrors.CodeAlreadyRevokedOffchain, "data already revoked by this account")
			}
			r.offchainRevocations.Set(ctx, key, now)
			events.Emit(ctx, events.Event{
				Kind:     events.KindAttestationRevokedOffchain,
				Contract: r.address,
				Fields: map[string]string{
					"revoker": revoker.Hex(),
					"data":    d.Hex(),
					"time":    strconv.FormatUint(now, 10),
				},
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return now, nil
}
