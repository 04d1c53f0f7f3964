package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/auth"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/session"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/user"

	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to the current user record.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

// Auth attaches the caller's Principal to the request context. Requests
// without a token pass through anonymously; a token that does not verify is
// rejected with 401.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractAccessToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				logger.FromCtx(r.Context()).Info("rejected bearer token", zap.Error(err))
				writeError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := auth.WithPrincipal(r.Context(), auth.Principal{
				UserID: u.ID,
				Email:  u.Email,
				Role:   u.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole answers 401 for anonymous callers and 403 for callers whose role
// is not in roles. With no roles any authenticated caller passes.
func RequireRole(roles ...session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				writeError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if len(roles) > 0 && !hasRole(p.Role, roles) {
				writeError(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasRole(role session.Role, allowed []session.Role) bool {
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
