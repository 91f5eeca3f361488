// Package handler serves the committed event log over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"provenance/internal/events"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/requestcontext"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

type Lister interface {
	List(ctx context.Context, filter events.Filter) ([]events.Event, error)
}

type Handler struct {
	lister Lister
	logger *slog.Logger
}

func New(lister Lister, logger *slog.Logger) *Handler {
	return &Handler{lister: lister, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/events", h.HandleList)
}

type ListResponse struct {
	Events []events.Event `json:"events"`
	// Next is the from value that continues the listing, or 0 when the page was not full.
	Next uint64 `json:"next,omitempty"`
}

// HandleList handles GET /v1/events?kind=&contract=&from=&limit=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	evs, err := h.lister.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "list events failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list events"))
		return
	}
	resp := ListResponse{Events: evs}
	if resp.Events == nil {
		resp.Events = []events.Event{}
	}
	if len(evs) == filter.Limit {
		resp.Next = evs[len(evs)-1].Seq + 1
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseFilter(r *http.Request) (events.Filter, error) {
	q := r.URL.Query()
	filter := events.Filter{Kind: events.Kind(q.Get("kind")), Limit: defaultLimit}
	if raw := q.Get("contract"); raw != "" {
		addr, err := domain.ParseAddress(raw)
		if err != nil {
			return events.Filter{}, err
		}
		filter.Contract = addr
	}
	if raw := q.Get("from"); raw != "" {
		from, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return events.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "from must be a sequence number")
		}
		filter.FromSeq = from
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxLimit {
			return events.Filter{}, dErrors.New(dErrors.CodeInvalidInput, "limit must be between 1 and 1000")
		}
		filter.Limit = limit
	}
	return filter, nil
}
