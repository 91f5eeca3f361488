// Package gateway is the entry point for provenance claims. It resolves the acting identity,
// enforces delegation rights or a signature from the originator, collects the registration
// fee and forwards the request to the ProvenanceRegistry.
package gateway

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
	"provenance/internal/events"
	"provenance/internal/identity/delegation"
	idmodels "provenance/internal/identity/models"
	"provenance/internal/ledger"
	"provenance/internal/nonce"
	"provenance/internal/provenance/models"
	"provenance/internal/provenance/registry"
	"provenance/internal/signature"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

const domainName = "ProvenanceGateway"

// Identities is the slice of the IdentityRegistry the gateway consults.
type Identities interface {
	IDOf(ctx context.Context, addr common.Address) domain.IdentityID
	Identity(ctx context.Context, id domain.IdentityID) (idmodels.Identity, error)
	CanAct(ctx context.Context, delegator, actor domain.IdentityID, contract common.Address, rights common.Hash) (bool, error)
}

type Gateway struct {
	ledger     *ledger.Ledger
	access     *access.Control
	address    common.Address
	registry   *registry.Registry
	identities Identities
	nonces     *nonce.Tracker
	verifier   *signature.Verifier
	vault      *ledger.Vault
	fee        *ledger.Cell[*big.Int]
	digests    Digests
	logger     *slog.Logger
	tracer     trace.Tracer
}

type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(g *Gateway) { g.tracer = tracer }
}

// WithFee sets the initial registration fee. The default is zero.
func WithFee(fee *big.Int) Option {
	return func(g *Gateway) { g.fee = ledger.NewCell(new(big.Int).Set(fee)) }
}

func New(reg *registry.Registry, identities Identities, verifier *signature.Verifier, vault *ledger.Vault, address, owner common.Address, chainID *big.Int, opts ...Option) *Gateway {
	l := reg.Ledger()
	g := &Gateway{
		ledger:     l,
		access:     access.New(l, address, owner),
		address:    address,
		registry:   reg,
		identities: identities,
		nonces:     nonce.NewTracker(l, address),
		verifier:   verifier,
		vault:      vault,
		fee:        ledger.NewCell(new(big.Int)),
		digests: Digests{Domain: signature.Domain{
			Name:              domainName,
			Version:           "1",
			ChainID:           chainID,
			VerifyingContract: address,
		}},
		logger: slog.Default(),
		tracer: otel.Tracer("provenance/provenance/gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) Address() common.Address      { return g.address }
func (g *Gateway) Access() *access.Control      { return g.access }
func (g *Gateway) Digests() Digests             { return g.digests }
func (g *Gateway) Registry() *registry.Registry { return g.registry }

func (g *Gateway) Nonces(ctx context.Context, account common.Address) uint64 {
	return g.nonces.Nonces(ctx, account)
}

func (g *Gateway) UseNonce(ctx context.Context) (uint64, error) {
	return g.nonces.Invalidate(ctx)
}

// Fee returns the current registration fee.
func (g *Gateway) Fee(ctx context.Context) *big.Int {
	fee := new(big.Int)
	_ = g.ledger.View(ctx, func(context.Context) error {
		fee.Set(g.fee.Get())
		return nil
	})
	return fee
}

// Balance returns the fees collected and not yet withdrawn.
func (g *Gateway) Balance(ctx context.Context) *big.Int {
	var bal *big.Int
	_ = g.ledger.View(ctx, func(context.Context) error {
		bal = g.vault.BalanceOf(g.address)
		return nil
	})
	return bal
}

// SetFee changes the registration fee. Owner only.
func (g *Gateway) SetFee(ctx context.Context, fee *big.Int) error {
	if fee == nil || fee.Sign() < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "fee must be a non-negative amount")
	}
	return g.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := g.access.RequireOwner(ctx); err != nil {
			return err
		}
		prev := g.fee.Get()
		g.fee.Set(ctx, new(big.Int).Set(fee))
		events.Emit(ctx, events.Event{
			Kind:     events.KindProvenanceFeeChanged,
			Contract: g.address,
			Fields:   map[string]string{"from": prev.String(), "to": fee.String()},
		})
		return nil
	})
}

// WithdrawFees moves every collected fee to to. Owner only.
func (g *Gateway) WithdrawFees(ctx context.Context, to common.Address) (*big.Int, error) {
	if to == (common.Address{}) {
		return nil, dErrors.New(dErrors.CodeInvalidAddress, "withdrawal to the zero address")
	}
	var amount *big.Int
	err := g.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := g.access.RequireOwner(ctx); err != nil {
			return err
		}
		amount = g.vault.BalanceOf(g.address)
		if err := g.vault.Debit(ctx, g.address, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit collected fees")
		}
		if err := g.vault.Credit(ctx, to, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeRefundFailed, "recipient rejected the withdrawal")
		}
		events.Emit(ctx, events.Event{
			Kind:     events.KindProvenanceWithdrawn,
			Contract: g.address,
			Fields:   map[string]string{"to": to.Hex(), "amount": amount.String()},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return amount, nil
}

// -----------------------------------------------------------------------------
// Registration
// -----------------------------------------------------------------------------

// Register records a claim for originatorID. The caller's identity is the registrar and must
// hold provenance rights for the originator. The call value must cover the fee; the excess
// is refunded.
func (g *Gateway) Register(ctx context.Context, originatorID domain.IdentityID, contentHash common.Hash, nftContract common.Address, nftTokenID *big.Int) (domain.ClaimID, error) {
	var id domain.ClaimID
	err := g.call(ctx, "register", func(ctx context.Context) error {
		registrar, err := g.callerID(ctx)
		if err != nil {
			return err
		}
		if err := g.requireRights(ctx, originatorID, registrar); err != nil {
			return err
		}
		if err := g.collectFee(ctx); err != nil {
			return err
		}
		id, err = g.registry.Register(g.asGateway(ctx), models.RegisterParams{
			OriginatorID: originatorID,
			RegistrarID:  registrar,
			ContentHash:  contentHash,
			NftContract:  nftContract,
			NftTokenID:   nftTokenID,
		})
		return err
	})
	return id, err
}

// RegisterFor records a claim authorized by the originator custody's signature. The
// originator is also the registrar; whoever submits pays the fee.
func (g *Gateway) RegisterFor(ctx context.Context, originatorID domain.IdentityID, contentHash common.Hash, nftContract common.Address, nftTokenID *big.Int, deadline uint64, sig []byte) (domain.ClaimID, error) {
	var id domain.ClaimID
	err := g.call(ctx, "register_for", func(ctx context.Context) error {
		custody, err := g.custodyOf(ctx, originatorID)
		if err != nil {
			return err
		}
		err = g.authorize(ctx, custody, deadline, sig, func(n uint64) (common.Hash, error) {
			return g.digests.Register(originatorID, contentHash, nftContract, nftTokenID, n, deadline)
		})
		if err != nil {
			return err
		}
		if err := g.collectFee(ctx); err != nil {
			return err
		}
		id, err = g.registry.Register(g.asGateway(ctx), models.RegisterParams{
			OriginatorID: originatorID,
			RegistrarID:  originatorID,
			ContentHash:  contentHash,
			NftContract:  nftContract,
			NftTokenID:   nftTokenID,
		})
		return err
	})
	return id, err
}

// -----------------------------------------------------------------------------
// NFT assignment
// -----------------------------------------------------------------------------

// AssignNft binds an NFT to claimID. The caller's identity must hold provenance rights for
// the claim's originator.
func (g *Gateway) AssignNft(ctx context.Context, claimID domain.ClaimID, nftContract common.Address, nftTokenID *big.Int) error {
	return g.call(ctx, "assign_nft", func(ctx context.Context) error {
		if err := requireNoValue(ctx); err != nil {
			return err
		}
		actor, err := g.callerID(ctx)
		if err != nil {
			return err
		}
		claim, err := g.registry.Claim(ctx, claimID)
		if err != nil {
			return err
		}
		if err := g.requireRights(ctx, claim.OriginatorID, actor); err != nil {
			return err
		}
		return g.registry.AssignNft(g.asGateway(ctx), claimID, nftContract, nftTokenID)
	})
}

// AssignNftFor binds an NFT to claimID, authorized by the originator custody's signature.
func (g *Gateway) AssignNftFor(ctx context.Context, claimID domain.ClaimID, nftContract common.Address, nftTokenID *big.Int, deadline uint64, sig []byte) error {
	return g.call(ctx, "assign_nft_for", func(ctx context.Context) error {
		if err := requireNoValue(ctx); err != nil {
			return err
		}
		claim, err := g.registry.Claim(ctx, claimID)
		if err != nil {
			return err
		}
		custody, err := g.custodyOf(ctx, claim.OriginatorID)
		if err != nil {
			return err
		}
		err = g.authorize(ctx, custody, deadline, sig, func(n uint64) (common.Hash, error) {
			return g.digests.AssignNft(claimID, nftContract, nftTokenID, n, deadline)
		})
		if err != nil {
			return err
		}
		return g.registry.AssignNft(g.asGateway(ctx), claimID, nftContract, nftTokenID)
	})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (g *Gateway) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := g.tracer.Start(ctx, "provenance_gateway."+op,
		trace.WithAttributes(
			attribute.String("caller", requestcontext.Caller(ctx).Hex()),
			attribute.String("value", requestcontext.CallValue(ctx).String()),
		))
	defer span.End()

	err := g.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := g.access.RequireNotPaused(); err != nil {
			return err
		}
		return fn(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		g.logger.DebugContext(ctx, "provenance gateway call rejected",
			"op", op,
			"code", dErrors.CodeOf(err),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return err
}

func (g *Gateway) authorize(ctx context.Context, signer common.Address, deadline uint64, sig []byte, build func(nonce uint64) (common.Hash, error)) error {
	n := g.nonces.Use(ctx, signer)
	digest, err := build(n)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build typed data")
	}
	return g.verifier.Verify(ctx, signer, digest, sig, deadline)
}

// collectFee keeps the fee and refunds the rest of the call value to the caller.
func (g *Gateway) collectFee(ctx context.Context) error {
	value := requestcontext.CallValue(ctx)
	fee := g.fee.Get()
	if value.Cmp(fee) < 0 {
		return dErrors.New(dErrors.CodeInsufficientFee, "call value does not cover the registration fee")
	}
	if err := g.vault.Credit(ctx, g.address, fee); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to collect fee")
	}
	excess := new(big.Int).Sub(value, fee)
	if err := g.vault.Credit(ctx, requestcontext.Caller(ctx), excess); err != nil {
		if errors.Is(err, ledger.ErrTransferRejected) {
			return dErrors.Wrap(err, dErrors.CodeRefundFailed, "caller rejected the fee refund")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to refund excess value")
	}
	return nil
}

func requireNoValue(ctx context.Context) error {
	if requestcontext.CallValue(ctx).Sign() != 0 {
		return dErrors.New(dErrors.CodeNotPayable, "nft assignment does not accept value")
	}
	return nil
}

func (g *Gateway) requireRights(ctx context.Context, originator, actor domain.IdentityID) error {
	ok, err := g.identities.CanAct(ctx, originator, actor, g.address, delegation.RightsProvenance)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeAccessDenied, "caller may not act for the originator")
	}
	return nil
}

func (g *Gateway) asGateway(ctx context.Context) context.Context {
	return requestcontext.WithCaller(ctx, g.address)
}

func (g *Gateway) callerID(ctx context.Context) (domain.IdentityID, error) {
	id := g.identities.IDOf(ctx, requestcontext.Caller(ctx))
	if id.IsZero() {
		return 0, dErrors.New(dErrors.CodeHasNoID, "caller has no identity")
	}
	return id, nil
}

func (g *Gateway) custodyOf(ctx context.Context, id domain.IdentityID) (common.Address, error) {
	ident, err := g.identities.Identity(ctx, id)
	if err != nil {
		return common.Address{}, err
	}
	return ident.Custody, nil
}
