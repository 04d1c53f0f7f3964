package auth

import (
	"net/http"
	"strings"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/cookie"
)

// ExtractAccessToken returns the bearer token of r. The token cookie wins over
// the Authorization header so page requests and API calls resolve the same way.
func ExtractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(cookie.TokenName); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return ""
}
