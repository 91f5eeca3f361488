// Package registry stores provenance claims: which identity authored which content hash,
// and optionally which NFT represents it. Writes are reserved to the ProvenanceGateway.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"provenance/internal/access"
	"provenance/internal/events"
	"provenance/internal/ledger"
	"provenance/internal/platform/metrics"
	"provenance/internal/provenance/models"
	"provenance/internal/provenance/nft"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/sentinel"
	"provenance/pkg/requestcontext"
)

// Identities is the slice of the IdentityRegistry the provenance registry reads.
type Identities interface {
	Exists(ctx context.Context, id domain.IdentityID) bool
	CustodyOf(ctx context.Context, id domain.IdentityID) common.Address
}

type Registry struct {
	ledger     *ledger.Ledger
	access     *access.Control
	address    common.Address
	identities Identities
	nfts       nft.Oracle

	gateway   *ledger.Cell[common.Address]
	frozen    *ledger.Cell[bool]
	counter   ledger.Counter
	claims    *ledger.Map[domain.ClaimID, models.Claim]
	byContent *ledger.Map[models.ContentKey, domain.ClaimID]
	byNft     *ledger.Map[models.NftKey, domain.ClaimID]

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

func New(l *ledger.Ledger, identities Identities, nfts nft.Oracle, address, owner common.Address, opts ...Option) *Registry {
	r := &Registry{
		ledger:     l,
		access:     access.New(l, address, owner),
		address:    address,
		identities: identities,
		nfts:       nfts,
		gateway:    ledger.NewCell(common.Address{}),
		frozen:     ledger.NewCell(false),
		claims:     ledger.NewMap[domain.ClaimID, models.Claim](),
		byContent:  ledger.NewMap[models.ContentKey, domain.ClaimID](),
		byNft:      ledger.NewMap[models.NftKey, domain.ClaimID](),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Address() common.Address { return r.address }
func (r *Registry) Access() *access.Control { return r.access }
func (r *Registry) Ledger() *ledger.Ledger  { return r.ledger }

// SetGateway sets the only address allowed to write claims. Owner only, and refused once
// the gateway has been frozen.
func (r *Registry) SetGateway(ctx context.Context, gateway common.Address) error {
	return r.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := r.access.RequireOwner(ctx); err != nil {
			return err
		}
		if r.frozen.Get() {
			return dErrors.New(dErrors.CodeGatewayFrozen, "gateway is frozen")
		}
		prev := r.gateway.Get()
		r.gateway.Set(ctx, gateway)
		r.emit(ctx, events.KindGatewayChanged, map[string]string{"from": prev.Hex(), "to": gateway.Hex()})
		return nil
	})
}

// FreezeGateway permanently pins the current gateway.
func (r *Registry) FreezeGateway(ctx context.Context) error {
	return r.ledger.Execute(ctx, func(ctx context.Context) error {
		if err := r.access.RequireOwner(ctx); err != nil {
			return err
		}
		if r.frozen.Get() {
			return dErrors.New(dErrors.CodeGatewayFrozen, "gateway is already frozen")
		}
		r.frozen.Set(ctx, true)
		r.emit(ctx, events.KindGatewayFrozen, map[string]string{"gateway": r.gateway.Get().Hex()})
		return nil
	})
}

func (r *Registry) Gateway(ctx context.Context) common.Address {
	var gw common.Address
	_ = r.ledger.View(ctx, func(context.Context) error {
		gw = r.gateway.Get()
		return nil
	})
	return gw
}

func (r *Registry) GatewayFrozen(ctx context.Context) bool {
	var frozen bool
	_ = r.ledger.View(ctx, func(context.Context) error {
		frozen = r.frozen.Get()
		return nil
	})
	return frozen
}

func (r *Registry) privileged(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.ledger.Execute(ctx, func(ctx context.Context) error {
		gw := r.gateway.Get()
		if gw == (common.Address{}) || requestcontext.Caller(ctx) != gw {
			return dErrors.New(dErrors.CodeOnlyGateway, "caller is not the provenance gateway")
		}
		if err := r.access.RequireNotPaused(); err != nil {
			return err
		}
		return fn(ctx)
	})
}

// Register records a new claim at the current block.
func (r *Registry) Register(ctx context.Context, p models.RegisterParams) (domain.ClaimID, error) {
	var id domain.ClaimID
	err := r.privileged(ctx, func(ctx context.Context) error {
		if !r.identities.Exists(ctx, p.OriginatorID) {
			return dErrors.New(dErrors.CodeIdentityNotFound, "originator identity not found")
		}
		if !r.identities.Exists(ctx, p.RegistrarID) {
			return dErrors.New(dErrors.CodeIdentityNotFound, "registrar identity not found")
		}
		contentKey := models.ContentKey{OriginatorID: p.OriginatorID, ContentHash: p.ContentHash}
		if r.byContent.Has(contentKey) {
			return dErrors.New(dErrors.CodeContentHashAlreadyRegistered, "originator already claimed this content hash")
		}
		if p.NftContract == (common.Address{}) {
			if p.NftTokenID != nil && p.NftTokenID.Sign() != 0 {
				return dErrors.New(dErrors.CodeInvalidNft, "nft token id given without a contract")
			}
		} else if err := r.checkNft(ctx, p.OriginatorID, p.NftContract, p.NftTokenID); err != nil {
			return err
		}

		id = domain.ClaimID(r.counter.Next(ctx))
		claim := models.Claim{
			ID:           id,
			OriginatorID: p.OriginatorID,
			RegistrarID:  p.RegistrarID,
			ContentHash:  p.ContentHash,
			BlockNumber:  requestcontext.BlockNumber(ctx),
		}
		r.claims.Set(ctx, id, claim)
		r.byContent.Set(ctx, contentKey, id)
		r.emit(ctx, events.KindProvenanceRegistered, map[string]string{
			"id":           id.String(),
			"originator":   p.OriginatorID.String(),
			"registrar":    p.RegistrarID.String(),
			"content_hash": p.ContentHash.Hex(),
		})
		if p.NftContract != (common.Address{}) {
			r.bindNft(ctx, claim, p.NftContract, p.NftTokenID)
		}
		ledger.AfterCommit(ctx, func() {
			if r.metrics != nil {
				r.metrics.IncrementRegistration("provenance")
			}
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.logAudit(ctx, "provenance_registered",
		"claim_id", id.String(),
		"originator_id", p.OriginatorID.String(),
		"registrar_id", p.RegistrarID.String(),
	)
	return id, nil
}

// AssignNft binds an NFT to a claim registered without one.
func (r *Registry) AssignNft(ctx context.Context, claimID domain.ClaimID, contract common.Address, tokenID *big.Int) error {
	err := r.privileged(ctx, func(ctx context.Context) error {
		claim, err := r.claim(claimID)
		if err != nil {
			return err
		}
		if claim.HasNft() {
			return dErrors.New(dErrors.CodeNftAlreadyAssigned, "claim already has an nft")
		}
		if contract == (common.Address{}) {
			return dErrors.New(dErrors.CodeInvalidNft, "nft contract is the zero address")
		}
		if err := r.checkNft(ctx, claim.OriginatorID, contract, tokenID); err != nil {
			return err
		}
		r.bindNft(ctx, claim, contract, tokenID)
		return nil
	})
	if err != nil {
		return err
	}
	r.logAudit(ctx, "provenance_nft_assigned", "claim_id", claimID.String(), "nft_contract", contract.Hex())
	return nil
}

// checkNft requires the token to be owned by the originator's custody and unbound.
func (r *Registry) checkNft(ctx context.Context, originator domain.IdentityID, contract common.Address, tokenID *big.Int) error {
	if tokenID == nil {
		tokenID = new(big.Int)
	}
	if tokenID.Sign() < 0 {
		return dErrors.New(dErrors.CodeInvalidNft, "nft token id cannot be negative")
	}
	owner, err := r.nfts.OwnerOf(ctx, contract, tokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInvalidNft, "nft does not exist")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "nft ownership lookup failed")
	}
	if owner != r.identities.CustodyOf(ctx, originator) {
		return dErrors.New(dErrors.CodeNftNotOwned, "nft is not owned by the originator")
	}
	if r.byNft.Has(models.NewNftKey(contract, tokenID)) {
		return dErrors.New(dErrors.CodeNftAlreadyUsed, "nft already represents another claim")
	}
	return nil
}

func (r *Registry) bindNft(ctx context.Context, claim models.Claim, contract common.Address, tokenID *big.Int) {
	if tokenID == nil {
		tokenID = new(big.Int)
	}
	claim.NftContract = contract
	claim.NftTokenID = new(big.Int).Set(tokenID)
	r.claims.Set(ctx, claim.ID, claim)
	r.byNft.Set(ctx, models.NewNftKey(contract, tokenID), claim.ID)
	r.emit(ctx, events.KindProvenanceNftAssigned, map[string]string{
		"claim_id":     claim.ID.String(),
		"nft_contract": contract.Hex(),
		"nft_token_id": tokenID.String(),
	})
}

func (r *Registry) claim(id domain.ClaimID) (models.Claim, error) {
	claim, ok := r.claims.Get(id)
	if !ok {
		return models.Claim{}, dErrors.New(dErrors.CodeClaimNotFound, "claim not found")
	}
	return claim, nil
}

func (r *Registry) emit(ctx context.Context, kind events.Kind, fields map[string]string) {
	events.Emit(ctx, events.Event{Kind: kind, Contract: r.address, Fields: fields})
}

func (r *Registry) logAudit(ctx context.Context, event string, attrs ...any) {
	if r.logger == nil {
		return
	}
	args := append(attrs, "event", event, "log_type", "audit")
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	r.logger.InfoContext(ctx, event, args...)
}
