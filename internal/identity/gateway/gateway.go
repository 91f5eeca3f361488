// Package gateway validates identity requests and forwards them to the IdentityRegistry.
//
// Requests arrive either directly (the caller is the acting custody address) or with an
// EIP-712 signature from the party being bound, which lets a relayer submit on their behalf.
// Each signature consumes the signer's nonce in this gateway.
package gateway

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"provenance/internal/access"
	"provenance/internal/identity/models"
	"provenance/internal/identity/registry"
	"provenance/internal/ledger"
	"provenance/internal/nonce"
	"provenance/internal/signature"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

const domainName = "IdentityGateway"

type Gateway struct {
	ledger   *ledger.Ledger
	access   *access.Control
	address  common.Address
	registry *registry.Registry
	nonces   *nonce.Tracker
	verifier *signature.Verifier
	digests  Digests
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(g *Gateway) { g.tracer = tracer }
}

// New creates a gateway at address in front of reg. The registry owner must point the
// registry at this gateway with SetGateway before requests succeed.
func New(reg *registry.Registry, verifier *signature.Verifier, address, owner common.Address, chainID *big.Int, opts ...Option) *Gateway {
	l := reg.Ledger()
	g := &Gateway{
		ledger:   l,
		access:   access.New(l, address, owner),
		address:  address,
		registry: reg,
		nonces:   nonce.NewTracker(l, address),
		verifier: verifier,
		digests: Digests{Domain: signature.Domain{
			Name:              domainName,
			Version:           "1",
			ChainID:           chainID,
			VerifyingContract: address,
		}},
		logger: slog.Default(),
		tracer: otel.Tracer("provenance/identity/gateway"),
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

// Nonces returns the nonce the next signature by account must commit to.
func (g *Gateway) Nonces(ctx context.Context, account common.Address) uint64 {
	return g.nonces.Nonces(ctx, account)
}

// UseNonce burns the caller's current nonce, invalidating its outstanding signatures.
func (g *Gateway) UseNonce(ctx context.Context) (uint64, error) {
	return g.nonces.Invalidate(ctx)
}

// -----------------------------------------------------------------------------
// Registration
// -----------------------------------------------------------------------------

// Register creates an identity with the caller as custody.
func (g *Gateway) Register(ctx context.Context, username string, recovery common.Address) (domain.IdentityID, error) {
	var id domain.IdentityID
	err := g.call(ctx, "register", func(ctx context.Context) error {
		var err error
		id, err = g.register(ctx, requestcontext.Caller(ctx), username, recovery)
		return err
	})
	return id, err
}

// RegisterFor creates an identity for custody, authorized by custody's signature.
func (g *Gateway) RegisterFor(ctx context.Context, custody common.Address, username string, recovery common.Address, deadline uint64, sig []byte) (domain.IdentityID, error) {
	var id domain.IdentityID
	err := g.call(ctx, "register_for", func(ctx context.Context) error {
		err := g.authorize(ctx, custody, deadline, sig, func(n uint64) (common.Hash, error) {
			return g.digests.Register(custody, username, recovery, n, deadline)
		})
		if err != nil {
			return err
		}
		id, err = g.register(ctx, custody, username, recovery)
		return err
	})
	return id, err
}

func (g *Gateway) register(ctx context.Context, custody common.Address, username string, recovery common.Address) (domain.IdentityID, error) {
	if err := models.ValidateUsername(username); err != nil {
		return 0, err
	}
	return g.registry.Register(g.asGateway(ctx), custody, username, recovery)
}

// -----------------------------------------------------------------------------
// Custody
// -----------------------------------------------------------------------------

// Transfer moves the caller's identity to to, which must consent with a signature.
func (g *Gateway) Transfer(ctx context.Context, to common.Address, deadline uint64, toSig []byte) error {
	return g.call(ctx, "transfer", func(ctx context.Context) error {
		id, err := g.callerID(ctx)
		if err != nil {
			return err
		}
		if err := g.authorizeTransfer(ctx, typeTransfer, id, to, deadline, toSig); err != nil {
			return err
		}
		return g.registry.Transfer(g.asGateway(ctx), id, to)
	})
}

// TransferFor moves from's identity to to with signatures from both parties.
func (g *Gateway) TransferFor(ctx context.Context, from, to common.Address, fromDeadline uint64, fromSig []byte, toDeadline uint64, toSig []byte) error {
	return g.call(ctx, "transfer_for", func(ctx context.Context) error {
		id, err := g.idOf(ctx, from)
		if err != nil {
			return err
		}
		err = g.authorize(ctx, from, fromDeadline, fromSig, func(n uint64) (common.Hash, error) {
			return g.digests.Transfer(id, to, n, fromDeadline)
		})
		if err != nil {
			return err
		}
		if err := g.authorizeTransfer(ctx, typeTransfer, id, to, toDeadline, toSig); err != nil {
			return err
		}
		return g.registry.Transfer(g.asGateway(ctx), id, to)
	})
}

// TransferAndClearRecovery moves the caller's identity to to and removes its recovery address.
func (g *Gateway) TransferAndClearRecovery(ctx context.Context, to common.Address, deadline uint64, toSig []byte) error {
	return g.call(ctx, "transfer_and_clear_recovery", func(ctx context.Context) error {
		id, err := g.callerID(ctx)
		if err != nil {
			return err
		}
		if err := g.authorizeTransfer(ctx, typeTransferAndClearRecovery, id, to, deadline, toSig); err != nil {
			return err
		}
		return g.registry.TransferAndClearRecovery(g.asGateway(ctx), id, to)
	})
}

// Recover moves from's identity to to. The caller must be the identity's recovery address
// and to must consent with a Transfer signature.
func (g *Gateway) Recover(ctx context.Context, from, to common.Address, deadline uint64, toSig []byte) error {
	return g.call(ctx, "recover", func(ctx context.Context) error {
		id, err := g.idOf(ctx, from)
		if err != nil {
			return err
		}
		ident, err := g.registry.Identity(ctx, id)
		if err != nil {
			return err
		}
		caller := requestcontext.Caller(ctx)
		if !ident.HasRecovery() || ident.Recovery != caller {
			return dErrors.New(dErrors.CodeAccessDenied, "caller is not the recovery address")
		}
		if err := g.authorizeTransfer(ctx, typeTransfer, id, to, deadline, toSig); err != nil {
			return err
		}
		return g.registry.Recover(g.asGateway(ctx), id, to)
	})
}

func (g *Gateway) authorizeTransfer(ctx context.Context, primaryType string, id domain.IdentityID, to common.Address, deadline uint64, sig []byte) error {
	return g.authorize(ctx, to, deadline, sig, func(n uint64) (common.Hash, error) {
		if primaryType == typeTransferAndClearRecovery {
			return g.digests.TransferAndClearRecovery(id, to, n, deadline)
		}
		return g.digests.Transfer(id, to, n, deadline)
	})
}

// -----------------------------------------------------------------------------
// Usernames and recovery
// -----------------------------------------------------------------------------

// ChangeUsername renames the caller's identity.
func (g *Gateway) ChangeUsername(ctx context.Context, username string) error {
	return g.call(ctx, "change_username", func(ctx context.Context) error {
		id, err := g.callerID(ctx)
		if err != nil {
			return err
		}
		return g.changeUsername(ctx, id, username)
	})
}

// ChangeUsernameFor renames id, authorized by its custody's signature.
func (g *Gateway) ChangeUsernameFor(ctx context.Context, id domain.IdentityID, username string, deadline uint64, sig []byte) error {
	return g.call(ctx, "change_username_for", func(ctx context.Context) error {
		custody, err := g.custodyOf(ctx, id)
		if err != nil {
			return err
		}
		err = g.authorize(ctx, custody, deadline, sig, func(n uint64) (common.Hash, error) {
			return g.digests.ChangeUsername(id, username, n, deadline)
		})
		if err != nil {
			return err
		}
		return g.changeUsername(ctx, id, username)
	})
}

func (g *Gateway) changeUsername(ctx context.Context, id domain.IdentityID, username string) error {
	if err := models.ValidateUsername(username); err != nil {
		return err
	}
	return g.registry.ChangeUsername(g.asGateway(ctx), id, username)
}

// TransferUsername gives the caller's username to toID, whose custody must sign, and
// renames the caller's identity to newFromUsername.
func (g *Gateway) TransferUsername(ctx context.Context, toID domain.IdentityID, newFromUsername string, deadline uint64, toSig []byte) error {
	return g.call(ctx, "transfer_username", func(ctx context.Context) error {
		fromID, err := g.callerID(ctx)
		if err != nil {
			return err
		}
		if err := models.ValidateUsername(newFromUsername); err != nil {
			return err
		}
		toCustody, err := g.custodyOf(ctx, toID)
		if err != nil {
			return err
		}
		err = g.authorize(ctx, toCustody, deadline, toSig, func(n uint64) (common.Hash, error) {
			return g.digests.TransferUsername(fromID, toID, newFromUsername, n, deadline)
		})
		if err != nil {
			return err
		}
		return g.registry.TransferUsername(g.asGateway(ctx), fromID, toID, newFromUsername)
	})
}

// ChangeRecovery sets the caller's recovery address.
func (g *Gateway) ChangeRecovery(ctx context.Context, recovery common.Address) error {
	return g.call(ctx, "change_recovery", func(ctx context.Context) error {
		id, err := g.callerID(ctx)
		if err != nil {
			return err
		}
		return g.registry.ChangeRecovery(g.asGateway(ctx), id, recovery)
	})
}

// ChangeRecoveryFor sets id's recovery address, authorized by its custody's signature.
func (g *Gateway) ChangeRecoveryFor(ctx context.Context, id domain.IdentityID, recovery common.Address, deadline uint64, sig []byte) error {
	return g.call(ctx, "change_recovery_for", func(ctx context.Context) error {
		custody, err := g.custodyOf(ctx, id)
		if err != nil {
			return err
		}
		err = g.authorize(ctx, custody, deadline, sig, func(n uint64) (common.Hash, error) {
			return g.digests.ChangeRecovery(id, recovery, n, deadline)
		})
		if err != nil {
			return err
		}
		return g.registry.ChangeRecovery(g.asGateway(ctx), id, recovery)
	})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// call runs fn as one pausable ledger call inside a trace span.
func (g *Gateway) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := g.tracer.Start(ctx, "identity_gateway."+op,
		trace.WithAttributes(attribute.String("caller", requestcontext.Caller(ctx).Hex())))
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
		g.logger.DebugContext(ctx, "identity gateway call rejected",
			"op", op,
			"code", dErrors.CodeOf(err),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return err
}

// authorize consumes signer's nonce and verifies sig over the digest built with it.
// A failed verification reverts the call, restoring the nonce.
func (g *Gateway) authorize(ctx context.Context, signer common.Address, deadline uint64, sig []byte, build func(nonce uint64) (common.Hash, error)) error {
	n := g.nonces.Use(ctx, signer)
	digest, err := build(n)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to build typed data")
	}
	return g.verifier.Verify(ctx, signer, digest, sig, deadline)
}

func (g *Gateway) asGateway(ctx context.Context) context.Context {
	return requestcontext.WithCaller(ctx, g.address)
}

func (g *Gateway) callerID(ctx context.Context) (domain.IdentityID, error) {
	return g.idOf(ctx, requestcontext.Caller(ctx))
}

func (g *Gateway) idOf(ctx context.Context, addr common.Address) (domain.IdentityID, error) {
	id := g.registry.IDOf(ctx, addr)
	if id.IsZero() {
		return 0, dErrors.New(dErrors.CodeHasNoID, "address has no identity")
	}
	return id, nil
}

func (g *Gateway) custodyOf(ctx context.Context, id domain.IdentityID) (common.Address, error) {
	ident, err := g.registry.Identity(ctx, id)
	if err != nil {
		return common.Address{}, err
	}
	return ident.Custody, nil
}
