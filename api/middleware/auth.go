package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/multifolks/multifolks-backend/api/responses"
	pkgauth "github.com/multifolks/multifolks-backend/pkg/auth"
	"github.com/multifolks/multifolks-backend/pkg/config"
	pkgerrors "github.com/multifolks/multifolks-backend/pkg/errors"
	"github.com/multifolks/multifolks-backend/pkg/logger"
)

const guestIDHeader = "X-Guest-Id"

// Owner resolves the request owner. A valid bearer token wins; otherwise the
// guest header identifies an anonymous shopper. Requests with neither are
// rejected, and requests with a malformed token are rejected rather than
// silently downgraded to guest.
func Owner(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw != "" {
				token := raw
				if strings.HasPrefix(strings.ToLower(token), "bearer ") {
					token = strings.TrimSpace(token[7:])
				}
				if token == "" {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}

				claims, err := pkgauth.ParseOwnerToken(cfg, token)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				if claims.Subject == "" {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing subject"))
					return
				}

				ctx := context.WithValue(r.Context(), ctxOwnerID, claims.Subject)
				ctx = context.WithValue(ctx, ctxEmail, claims.Email)
				ctx = context.WithValue(ctx, ctxGuest, false)
				if logg != nil {
					ctx = logg.WithOwnerID(ctx, claims.Subject)
				}

				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			guestID := strings.TrimSpace(r.Header.Get(guestIDHeader))
			if guestID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxOwnerID, guestID)
			ctx = context.WithValue(ctx, ctxGuest, true)
			if logg != nil {
				ctx = logg.WithOwnerID(ctx, guestID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthenticated rejects guest owners. Used for operations that only
// make sense for a signed-in shopper, e.g. merging a guest cart.
func RequireAuthenticated(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsGuestFromContext(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "sign in required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
