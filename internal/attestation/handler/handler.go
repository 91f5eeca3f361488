package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"provenance/internal/attestation/models"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

type Schemas interface {
	Register(ctx context.Context, schema string, resolver common.Address, revocable bool) (common.Hash, error)
	GetSchema(ctx context.Context, uid common.Hash) models.Schema
}

type Attestations interface {
	AttestByDelegation(ctx context.Context, req models.DelegatedAttestationRequest) (common.Hash, error)
	RevokeByDelegation(ctx context.Context, req models.DelegatedRevocationRequest) error
	GetAttestation(ctx context.Context, uid common.Hash) models.Attestation
	IsAttestationValid(ctx context.Context, uid common.Hash) bool
	MultiTimestamp(ctx context.Context, data []common.Hash) (uint64, error)
	GetTimestamp(ctx context.Context, data common.Hash) uint64
	Nonces(ctx context.Context, account common.Address) uint64
}

// Handler wires schema, attestation and timestamp endpoints.
type Handler struct {
	schemas      Schemas
	attestations Attestations
	logger       *slog.Logger
}

func New(schemas Schemas, attestations Attestations, logger *slog.Logger) *Handler {
	return &Handler{schemas: schemas, attestations: attestations, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/schemas", h.HandleRegisterSchema)
	r.Get("/v1/schemas/{uid}", h.HandleGetSchema)
	r.Post("/v1/attestations", h.HandleAttest)
	r.Post("/v1/attestations/revoke", h.HandleRevoke)
	r.Get("/v1/attestations/nonces/{address}", h.HandleNonce)
	r.Get("/v1/attestations/{uid}", h.HandleGetAttestation)
	r.Post("/v1/timestamps", h.HandleTimestamp)
	r.Get("/v1/timestamps/{data}", h.HandleGetTimestamp)
}

// HandleRegisterSchema handles POST /v1/schemas.
func (h *Handler) HandleRegisterSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterSchemaRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	uid, err := h.schemas.Register(ctx, req.Schema, req.resolver, req.Revocable)
	if err != nil {
		h.logger.WarnContext(ctx, "schema registration failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, UIDResponse{UID: uid.Hex()})
}

// HandleGetSchema handles GET /v1/schemas/{uid}.
func (h *Handler) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	uid, err := domain.ParseUID(chi.URLParam(r, "uid"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	schema := h.schemas.GetSchema(r.Context(), uid)
	if !schema.Exists() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidSchema, "schema not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSchemaResponse(schema))
}

// HandleAttest handles POST /v1/attestations.
func (h *Handler) HandleAttest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AttestRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	uid, err := h.attestations.AttestByDelegation(ctx, req.parsed)
	if err != nil {
		h.logger.WarnContext(ctx, "delegated attestation failed",
			"request_id", requestID,
			"attester", req.parsed.Attester.Hex(),
			"schema", req.parsed.Schema.Hex(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "attestation relayed",
		"request_id", requestID,
		"uid", uid.Hex(),
	)
	httputil.WriteJSON(w, http.StatusCreated, UIDResponse{UID: uid.Hex()})
}

// HandleRevoke handles POST /v1/attestations/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.attestations.RevokeByDelegation(ctx, req.parsed); err != nil {
		h.logger.WarnContext(ctx, "delegated revocation failed",
			"request_id", requestID,
			"uid", req.parsed.Data.UID.Hex(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.writeAttestation(w, r, req.parsed.Data.UID)
}

// HandleGetAttestation handles GET /v1/attestations/{uid}.
func (h *Handler) HandleGetAttestation(w http.ResponseWriter, r *http.Request) {
	uid, err := domain.ParseUID(chi.URLParam(r, "uid"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeAttestation(w, r, uid)
}

// HandleNonce handles GET /v1/attestations/nonces/{address}.
func (h *Handler) HandleNonce(w http.ResponseWriter, r *http.Request) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NonceResponse{
		Address: addr.Hex(),
		Nonce:   h.attestations.Nonces(r.Context(), addr),
	})
}

// HandleTimestamp handles POST /v1/timestamps.
func (h *Handler) HandleTimestamp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TimestampRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ts, err := h.attestations.MultiTimestamp(ctx, req.parsed)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, TimestampResponse{Timestamp: ts})
}

// HandleGetTimestamp handles GET /v1/timestamps/{data}. A zero timestamp means the data was
// never timestamped.
func (h *Handler) HandleGetTimestamp(w http.ResponseWriter, r *http.Request) {
	data, err := domain.ParseHash(chi.URLParam(r, "data"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TimestampResponse{
		Data:      data.Hex(),
		Timestamp: h.attestations.GetTimestamp(r.Context(), data),
	})
}

func (h *Handler) writeAttestation(w http.ResponseWriter, r *http.Request, uid common.Hash) {
	ctx := r.Context()
	att := h.attestations.GetAttestation(ctx, uid)
	if !att.Exists() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeAttestationNotFound, "attestation not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAttestationResponse(att, h.attestations.IsAttestationValid(ctx, uid)))
}
