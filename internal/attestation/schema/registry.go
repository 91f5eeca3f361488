// Package schema is the append-only registry of attestation schemas, addressed by the hash
// of their content.
package schema

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"provenance/internal/access"
	"provenance/internal/attestation/models"
	"provenance/internal/events"
	"provenance/internal/ledger"
	"provenance/internal/platform/metrics"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

type Registry struct {
	ledger  *ledger.Ledger
	access  *access.Control
	address common.Address
	schemas *ledger.Map[common.Hash, models.Schema]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

func New(l *ledger.Ledger, address, owner common.Address, opts ...Option) *Registry {
	r := &Registry{
		ledger:  l,
		access:  access.New(l, address, owner),
		address: address,
		schemas: ledger.NewMap[common.Hash, models.Schema](),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Address() common.Address { return r.address }
func (r *Registry) Access() *access.Control { return r.access }

// UID is keccak256(schema ‖ resolver ‖ revocable), packed without padding.
func UID(schema string, resolver common.Address, revocable bool) common.Hash {
	rev := []byte{0}
	if revocable {
		rev[0] = 1
	}
	return crypto.Keccak256Hash([]byte(schema), resolver.Bytes(), rev)
}

// Register stores a new schema. Registering the same (schema, resolver, revocable) twice
// fails with schema_already_exists.
func (r *Registry) Register(ctx context.Context, schema string, resolver common.Address, revocable bool) (common.Hash, error) {
	uid := UID(schema, resolver, revocable)
	err := r.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := r.access.RequireNotPaused(); err != nil {
			return err
		}
		if r.schemas.Has(uid) {
			return dErrors.New(dErrors.CodeSchemaAlreadyExists, "schema already registered")
		}
		r.schemas.Set(ctx, uid, models.Schema{UID: uid, Resolver: resolver, Revocable: revocable, Schema: schema})
		events.Emit(ctx, events.Event{
			Kind:     events.KindSchemaRegistered,
			Contract: r.address,
			Fields: map[string]string{
				"uid":        uid.Hex(),
				"registerer": requestcontext.Caller(ctx).Hex(),
				"resolver":   resolver.Hex(),
			},
		})
		ledger.AfterCommit(ctx, func() {
			if r.metrics != nil {
				r.metrics.IncrementRegistration("schema")
			}
		})
		return nil
	})
	if err != nil {
		return common.Hash{}, err
	}
	r.logger.InfoContext(ctx, "schema_registered",
		"uid", uid.Hex(),
		"resolver", resolver.Hex(),
		"revocable", revocable,
		"event", "schema_registered",
		"log_type", "audit",
	)
	return uid, nil
}

// GetSchema returns the schema with the given uid, or the zero record.
func (r *Registry) GetSchema(ctx context.Context, uid common.Hash) models.Schema {
	var s models.Schema
	_ = r.ledger.View(ctx, func(context.Context) error {
		s, _ = r.schemas.Get(uid)
		return nil
	})
	return s
}
