// Package registry is the attestation ledger. It creates and revokes schema-typed
// attestations, directly or through EIP-712 delegated signatures, settles each schema's
// resolver with the value attached to the call and keeps the offchain timestamp and
// revocation journals.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"provenance/internal/access"
	"provenance/internal/attestation/models"
	"provenance/internal/attestation/resolver"
	"provenance/internal/identity/delegation"
	"provenance/internal/ledger"
	"provenance/internal/nonce"
	"provenance/internal/platform/metrics"
	"provenance/internal/signature"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

const domainName = "AttestationRegistry"

// Identities is the slice of the IdentityRegistry consulted for registrars and rights.
type Identities interface {
	IDOf(ctx context.Context, addr common.Address) domain.IdentityID
	CanAct(ctx context.Context, delegator, actor domain.IdentityID, contract common.Address, rights common.Hash) (bool, error)
}

type Schemas interface {
	GetSchema(ctx context.Context, uid common.Hash) models.Schema
}

type Resolvers interface {
	Lookup(ctx context.Context, address common.Address) resolver.Resolver
}

type offchainKey struct {
	revoker common.Address
	data    common.Hash
}

type Registry struct {
	ledger     *ledger.Ledger
	access     *access.Control
	address    common.Address
	identities Identities
	schemas    Schemas
	resolvers  Resolvers
	verifier   *signature.Verifier
	vault      *ledger.Vault
	nonces     *nonce.Tracker
	digests    Digests

	attestations        *ledger.Map[common.Hash, models.Attestation]
	timestamps          *ledger.Map[common.Hash, uint64]
	offchainRevocations *ledger.Map[offchainKey, uint64]

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Registry) { r.tracer = tracer }
}

// Deps are the components the registry reads from and pays into.
type Deps struct {
	Identities Identities
	Schemas    Schemas
	Resolvers  Resolvers
	Verifier   *signature.Verifier
	Vault      *ledger.Vault
}

func New(l *ledger.Ledger, deps Deps, address, owner common.Address, chainID *big.Int, opts ...Option) *Registry {
	r := &Registry{
		ledger:     l,
		access:     access.New(l, address, owner),
		address:    address,
		identities: deps.Identities,
		schemas:    deps.Schemas,
		resolvers:  deps.Resolvers,
		verifier:   deps.Verifier,
		vault:      deps.Vault,
		nonces:     nonce.NewTracker(l, address),
		digests: Digests{Domain: signature.Domain{
			Name:              domainName,
			Version:           "1",
			ChainID:           chainID,
			VerifyingContract: address,
		}},
		attestations:        ledger.NewMap[common.Hash, models.Attestation](),
		timestamps:          ledger.NewMap[common.Hash, uint64](),
		offchainRevocations: ledger.NewMap[offchainKey, uint64](),
		logger:              slog.Default(),
		tracer:              otel.Tracer("provenance/attestation/registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Address() common.Address { return r.address }
func (r *Registry) Access() *access.Control { return r.access }
func (r *Registry) Digests() Digests        { return r.digests }

func (r *Registry) Nonces(ctx context.Context, account common.Address) uint64 {
	return r.nonces.Nonces(ctx, account)
}

func (r *Registry) UseNonce(ctx context.Context) (uint64, error) {
	return r.nonces.Invalidate(ctx)
}

// budget is the call value not yet forwarded to a resolver.
type budget struct {
	available *big.Int
}

// call runs fn as one pausable ledger call. Whatever value fn leaves in the budget is
// refunded to the caller before the call commits.
func (r *Registry) call(ctx context.Context, op string, fn func(ctx context.Context, b *budget) error) error {
	ctx, span := r.tracer.Start(ctx, "attestation_registry."+op,
		trace.WithAttributes(
			attribute.String("caller", requestcontext.Caller(ctx).Hex()),
			attribute.String("value", requestcontext.CallValue(ctx).String()),
		))
	defer span.End()

	err := r.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := r.access.RequireNotPaused(); err != nil {
			return err
		}
		b := &budget{available: new(big.Int).Set(requestcontext.CallValue(ctx))}
		if err := fn(ctx, b); err != nil {
			return err
		}
		return r.refund(ctx, b.available)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		r.logger.DebugContext(ctx, "attestation call rejected",
			"op", op,
			"code", dErrors.CodeOf(err),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return err
}

func (r *Registry) refund(ctx context.Context, amount *big.Int) error {
	if err := r.vault.Credit(ctx, requestcontext.Caller(ctx), amount); err != nil {
		if errors.Is(err, ledger.ErrTransferRejected) {
			return dErrors.Wrap(err, dErrors.CodeRefundFailed, "caller rejected the refund of unused value")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to refund unused value")
	}
	return nil
}

// settle forwards values to the schema's resolver and asks it to accept atts.
func (r *Registry) settle(ctx context.Context, schema models.Schema, atts []models.Attestation, values []*big.Int, b *budget, revoking bool) error {
	total := new(big.Int)
	for _, v := range values {
		total.Add(total, v)
	}
	if !schema.HasResolver() {
		if total.Sign() != 0 {
			return dErrors.New(dErrors.CodeNotPayable, "schema has no resolver to receive value")
		}
		return nil
	}
	res := r.resolvers.Lookup(ctx, schema.Resolver)
	if total.Sign() != 0 && !res.IsPayable() {
		return dErrors.New(dErrors.CodeNotPayable, "schema resolver does not accept value")
	}
	if total.Cmp(b.available) > 0 {
		return dErrors.New(dErrors.CodeInsufficientValue, "declared values exceed the value sent")
	}
	b.available.Sub(b.available, total)
	if err := r.vault.Credit(ctx, schema.Resolver, total); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to forward value to resolver")
	}

	var ok bool
	var err error
	switch {
	case !revoking && len(atts) == 1:
		ok, err = res.Attest(ctx, atts[0], values[0])
	case !revoking:
		ok, err = res.MultiAttest(ctx, atts, values)
	case len(atts) == 1:
		ok, err = res.Revoke(ctx, atts[0], values[0])
	default:
		ok, err = res.MultiRevoke(ctx, atts, values)
	}
	if err == nil && ok {
		return nil
	}
	code := rejectionCode(revoking, len(atts))
	if err != nil {
		return dErrors.Wrap(err, code, "resolver failed")
	}
	return dErrors.New(code, "resolver rejected")
}

func rejectionCode(revoking bool, n int) dErrors.Code {
	switch {
	case !revoking && n == 1:
		return dErrors.CodeInvalidAttestation
	case !revoking:
		return dErrors.CodeInvalidAttestations
	case n == 1:
		return dErrors.CodeInvalidRevocation
	default:
		return dErrors.CodeInvalidRevocations
	}
}

// authorize consumes signer's nonce and verifies sig over the digest built with it.
func (r *Registry) authorize(ctx context.Context, signer common.Address, deadline uint64, sig []byte, build func(nonce uint64) (common.Hash, error)) error {
	n := r.nonces.Use(ctx, signer)
	digest, err := build(n)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build typed data")
	}
	return r.verifier.Verify(ctx, signer, digest, sig, deadline)
}

func (r *Registry) idOf(ctx context.Context, addr common.Address) (domain.IdentityID, error) {
	id := r.identities.IDOf(ctx, addr)
	if id.IsZero() {
		return 0, dErrors.New(dErrors.CodeHasNoID, "address has no identity")
	}
	return id, nil
}

func (r *Registry) requireCanAttest(ctx context.Context, originator, registrar domain.IdentityID) error {
	ok, err := r.identities.CanAct(ctx, originator, registrar, r.address, delegation.RightsAttest)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeAccessDenied, "registrar may not attest for the originator")
	}
	return nil
}

func requireNoValue(ctx context.Context) error {
	if requestcontext.CallValue(ctx).Sign() != 0 {
		return dErrors.New(dErrors.CodeNotPayable, "operation does not accept value")
	}
	return nil
}

func checkValue(v *big.Int) (*big.Int, error) {
	v = models.ValueOf(v)
	if v.Sign() < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "value must not be negative")
	}
	return v, nil
}
