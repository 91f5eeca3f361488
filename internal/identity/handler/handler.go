package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"provenance/internal/identity/models"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

// Gateway is the signature-delegated surface the relayer submits through.
type Gateway interface {
	RegisterFor(ctx context.Context, custody common.Address, username string, recovery common.Address, deadline uint64, sig []byte) (domain.IdentityID, error)
	TransferFor(ctx context.Context, from, to common.Address, fromDeadline uint64, fromSig []byte, toDeadline uint64, toSig []byte) error
	Nonces(ctx context.Context, account common.Address) uint64
}

// Registry answers identity lookups.
type Registry interface {
	Identity(ctx context.Context, id domain.IdentityID) (models.Identity, error)
	IDOf(ctx context.Context, addr common.Address) domain.IdentityID
	IDOfUsername(ctx context.Context, username string) domain.IdentityID
}

// Handler wires identity endpoints to the identity gateway and registry.
type Handler struct {
	gateway  Gateway
	registry Registry
	logger   *slog.Logger
}

func New(gateway Gateway, registry Registry, logger *slog.Logger) *Handler {
	return &Handler{gateway: gateway, registry: registry, logger: logger}
}

// Register mounts identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/identities/register", h.HandleRegister)
	r.Post("/v1/identities/transfer", h.HandleTransfer)
	r.Get("/v1/identities/by-address/{address}", h.HandleByAddress)
	r.Get("/v1/identities/by-username/{username}", h.HandleByUsername)
	r.Get("/v1/identities/nonces/{address}", h.HandleNonce)
	r.Get("/v1/identities/{id}", h.HandleGet)
}

// HandleRegister handles POST /v1/identities/register.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	id, err := h.gateway.RegisterFor(ctx, req.custody, req.Username, req.recovery, req.Deadline, req.sig)
	if err != nil {
		h.logger.WarnContext(ctx, "identity registration failed",
			"request_id", requestID,
			"custody", req.custody.Hex(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "identity registered",
		"request_id", requestID,
		"identity_id", id.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{ID: id.String()})
}

// HandleTransfer handles POST /v1/identities/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.gateway.TransferFor(ctx, req.from, req.to, req.FromDeadline, req.fromSig, req.ToDeadline, req.toSig); err != nil {
		h.logger.WarnContext(ctx, "identity transfer failed",
			"request_id", requestID,
			"from", req.from.Hex(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.writeIdentity(w, r, h.registry.IDOf(ctx, req.to))
}

// HandleGet handles GET /v1/identities/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseIdentityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeIdentity(w, r, id)
}

// HandleByAddress handles GET /v1/identities/by-address/{address}.
func (h *Handler) HandleByAddress(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeIdentity(w, r, h.registry.IDOf(r.Context(), addr))
}

// HandleByUsername handles GET /v1/identities/by-username/{username}.
func (h *Handler) HandleByUsername(w http.ResponseWriter, r *http.Request) {
	h.writeIdentity(w, r, h.registry.IDOfUsername(r.Context(), chi.URLParam(r, "username")))
}

// HandleNonce handles GET /v1/identities/nonces/{address}.
func (h *Handler) HandleNonce(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NonceResponse{
		Address: addr.Hex(),
		Nonce:   h.gateway.Nonces(r.Context(), addr),
	})
}

func (h *Handler) writeIdentity(w http.ResponseWriter, r *http.Request, id domain.IdentityID) {
	if id.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeIdentityNotFound, "identity not found"))
		return
	}
	ident, err := h.registry.Identity(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(ident))
}
