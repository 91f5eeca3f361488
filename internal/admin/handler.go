// Package admin serves the owner and guardian operations of a deployment: pausing components,
// managing the provenance registration fee, deploying and minting NFT collections and
// maintaining the allowlist resolver. Routes sit behind the admin JWT middleware,
// which makes the token's address the caller, so authorization stays with each component.
package admin

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

// Pausable is the pause switch of one component.
type Pausable interface {
	Address() common.Address
	Owner(ctx context.Context) common.Address
	Paused(ctx context.Context) bool
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error
}

// Components resolves a component name to its pause switch.
type Components func(name string) (Pausable, bool)

// Fees is the fee surface of the provenance gateway.
type Fees interface {
	Fee(ctx context.Context) *big.Int
	SetFee(ctx context.Context, fee *big.Int) error
	WithdrawFees(ctx context.Context, to common.Address) (*big.Int, error)
}

// Collections deploys and mints the NFT collections claims can be bound to.
type Collections interface {
	DeployCollection(ctx context.Context, address, minter common.Address) error
	MintToken(ctx context.Context, contract, to common.Address, tokenID *big.Int) error
}

// Allowlist is the owner surface of the allowlist resolver.
type Allowlist interface {
	Address() common.Address
	Allow(ctx context.Context, registrar domain.IdentityID, allowed bool) error
	IsAllowed(ctx context.Context, registrar domain.IdentityID) bool
}

type Handler struct {
	components  Components
	fees        Fees
	collections Collections
	allowlist   Allowlist
	logger      *slog.Logger
}

func New(components Components, fees Fees, collections Collections, allowlist Allowlist, logger *slog.Logger) *Handler {
	return &Handler{
		components:  components,
		fees:        fees,
		collections: collections,
		allowlist:   allowlist,
		logger:      logger,
	}
}

// Register mounts admin endpoints. The caller wraps r with the admin middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/provenance/fee", h.HandleSetFee)
	r.Post("/admin/provenance/withdraw", h.HandleWithdraw)
	r.Post("/admin/nft/collections", h.HandleDeployCollection)
	r.Post("/admin/nft/collections/{address}/mint", h.HandleMint)
	r.Post("/admin/resolvers/allowlist", h.HandleAllow)
	r.Get("/admin/{component}", h.HandleStatus)
	r.Post("/admin/{component}/pause", h.HandlePause)
	r.Post("/admin/{component}/unpause", h.HandleUnpause)
}

func (h *Handler) component(w http.ResponseWriter, r *http.Request) (string, Pausable, bool) {
	name := chi.URLParam(r, "component")
	c, ok := h.components(name)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown component"))
		return "", nil, false
	}
	return name, c, true
}

// HandleStatus handles GET /admin/{component}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	name, c, ok := h.component(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toComponentResponse(r.Context(), name, c))
}

// HandlePause handles POST /admin/{component}/pause.
func (h *Handler) HandlePause(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

// HandleUnpause handles POST /admin/{component}/unpause.
func (h *Handler) HandleUnpause(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, pause bool) {
	ctx := r.Context()
	name, c, ok := h.component(w, r)
	if !ok {
		return
	}
	op := c.Unpause
	if pause {
		op = c.Pause
	}
	if err := op(ctx); err != nil {
		h.logger.WarnContext(ctx, "admin pause toggle failed",
			"request_id", requestcontext.RequestID(ctx),
			"component", name,
			"pause", pause,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "admin pause toggled",
		"request_id", requestcontext.RequestID(ctx),
		"component", name,
		"pause", pause,
		"admin", requestcontext.Caller(ctx).Hex(),
		"log_type", "audit",
	)
	httputil.WriteJSON(w, http.StatusOK, toComponentResponse(ctx, name, c))
}

// HandleSetFee handles POST /admin/provenance/fee.
func (h *Handler) HandleSetFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetFeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.fees.SetFee(ctx, req.fee); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FeeResponse{Fee: h.fees.Fee(ctx).String()})
}

// HandleWithdraw handles POST /admin/provenance/withdraw.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[WithdrawRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	amount, err := h.fees.WithdrawFees(ctx, req.to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WithdrawResponse{To: req.to.Hex(), Amount: amount.String()})
}

// HandleDeployCollection handles POST /admin/nft/collections. The minter defaults to the
// calling admin.
func (h *Handler) HandleDeployCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DeployCollectionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	minter := req.minter
	if minter == (common.Address{}) {
		minter = requestcontext.Caller(ctx)
	}
	if err := h.collections.DeployCollection(ctx, req.address, minter); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "nft collection deployed",
		"request_id", requestID,
		"collection", req.address.Hex(),
		"minter", minter.Hex(),
		"log_type", "audit",
	)
	httputil.WriteJSON(w, http.StatusCreated, CollectionResponse{Address: req.address.Hex(), Minter: minter.Hex()})
}

// HandleMint handles POST /admin/nft/collections/{address}/mint.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	contract, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[MintRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.collections.MintToken(ctx, contract, req.to, req.tokenID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, TokenResponse{
		Collection: contract.Hex(),
		TokenID:    req.tokenID.String(),
		Owner:      req.to.Hex(),
	})
}

// HandleAllow handles POST /admin/resolvers/allowlist.
func (h *Handler) HandleAllow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AllowRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.allowlist.Allow(ctx, req.id, req.Allowed); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AllowlistResponse{
		Resolver:   h.allowlist.Address().Hex(),
		IdentityID: req.id.String(),
		Allowed:    h.allowlist.IsAllowed(ctx, req.id),
	})
}

func toComponentResponse(ctx context.Context, name string, c Pausable) ComponentResponse {
	return ComponentResponse{
		Component: name,
		Address:   c.Address().Hex(),
		Owner:     c.Owner(ctx).Hex(),
		Paused:    c.Paused(ctx),
	}
}
