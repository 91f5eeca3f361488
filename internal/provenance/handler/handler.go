package handler

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"provenance/internal/provenance/models"
	"provenance/pkg/domain"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

// Gateway is the signature-delegated provenance surface.
type Gateway interface {
	RegisterFor(ctx context.Context, originatorID domain.IdentityID, contentHash common.Hash, nftContract common.Address, nftTokenID *big.Int, deadline uint64, sig []byte) (domain.ClaimID, error)
	AssignNftFor(ctx context.Context, claimID domain.ClaimID, nftContract common.Address, nftTokenID *big.Int, deadline uint64, sig []byte) error
	Fee(ctx context.Context) *big.Int
}

// Registry answers claim lookups.
type Registry interface {
	Claim(ctx context.Context, id domain.ClaimID) (models.Claim, error)
}

type Handler struct {
	gateway  Gateway
	registry Registry
	logger   *slog.Logger
}

func New(gateway Gateway, registry Registry, logger *slog.Logger) *Handler {
	return &Handler{gateway: gateway, registry: registry, logger: logger}
}

// Register mounts provenance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/provenance/fee", h.HandleFee)
	r.Post("/v1/provenance/claims", h.HandleRegister)
	r.Get("/v1/provenance/claims/{id}", h.HandleGet)
	r.Post("/v1/provenance/claims/{id}/nft", h.HandleAssignNft)
}

// HandleRegister handles POST /v1/provenance/claims.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	id, err := h.gateway.RegisterFor(ctx, req.originator, req.contentHash, req.nftContract, req.nftTokenID, req.Deadline, req.sig)
	if err != nil {
		h.logger.WarnContext(ctx, "provenance registration failed",
			"request_id", requestID,
			"originator_id", req.originator.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{ID: id.String()})
}

// HandleAssignNft handles POST /v1/provenance/claims/{id}/nft.
func (h *Handler) HandleAssignNft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	claimID, err := domain.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssignNftRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.gateway.AssignNftFor(ctx, claimID, req.nftContract, req.nftTokenID, req.Deadline, req.sig); err != nil {
		h.logger.WarnContext(ctx, "nft assignment failed",
			"request_id", requestID,
			"claim_id", claimID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.writeClaim(w, r, claimID)
}

// HandleGet handles GET /v1/provenance/claims/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	claimID, err := domain.ParseClaimID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeClaim(w, r, claimID)
}

// HandleFee handles GET /v1/provenance/fee.
func (h *Handler) HandleFee(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, FeeResponse{Fee: h.gateway.Fee(r.Context()).String()})
}

func (h *Handler) writeClaim(w http.ResponseWriter, r *http.Request, id domain.ClaimID) {
	claim, err := h.registry.Claim(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toClaimResponse(claim))
}
