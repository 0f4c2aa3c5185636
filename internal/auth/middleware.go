package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	internal "github.com/wytlabs/cardops/internal"
	"github.com/wytlabs/cardops/internal/transport"
)

// Middleware authenticates every request with a Bearer token and places the
// resulting Principal into the request context.
func Middleware(secret string, lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := base.ExtractTokenFromHeader(r)
			if token == "" {
				unauthorized(base, w, "missing bearer token")
				return
			}

			claims, err := VerifyToken(token, secret)
			if err != nil {
				lg.Warn("token verification failed", "error", err, "path", r.URL.Path)
				status, body := internal.ErrInvalidToken.ToHTTPResponse()
				base.WriteJSON(w, status, body)
				return
			}

			principal := &Principal{
				UserID:        claims.UserID,
				Email:         claims.Email,
				Name:          claims.Name,
				Role:          Role(strings.ToLower(claims.Role)),
				BusinessUnits: claims.BusinessUnits,
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			ctx = internal.ContextWithUserID(ctx, strconv.FormatInt(principal.UserID, 10))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole narrows a route to a fixed set of roles.
func RequireRole(lg *slog.Logger, roles ...Role) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				unauthorized(base, w, "missing bearer token")
				return
			}
			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			status, body := internal.NewForbiddenError("insufficient role", internal.ErrCodeUnauthorizedAccess).ToHTTPResponse()
			base.WriteJSON(w, status, body)
		})
	}
}

func unauthorized(base *transport.BaseHandler, w http.ResponseWriter, message string) {
	status, body := internal.NewUnauthorizedError(message, internal.ErrCodeInvalidToken).ToHTTPResponse()
	base.WriteJSON(w, status, body)
}
