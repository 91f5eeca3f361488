package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"provenance/pkg/requestcontext"
)

// AdminValidator validates admin bearer tokens and returns the admin address they carry.
type AdminValidator interface {
	ValidateToken(tokenString string) (common.Address, error)
}

type contextKeyAdmin struct{}

// GetAdmin returns the authenticated admin address, or the zero address.
func GetAdmin(ctx context.Context) common.Address {
	admin, _ := ctx.Value(contextKeyAdmin{}).(common.Address)
	return admin
}

// RequireAdmin authenticates the bearer token and makes the admin address the caller
// of every registry call made while serving the request.
func RequireAdmin(validator AdminValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}
			admin, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, contextKeyAdmin{}, admin)
			ctx = requestcontext.WithCaller(ctx, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
