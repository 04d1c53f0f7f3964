package guard

import (
	"net/http"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/cookie"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"

	"go.uber.org/zap"
)

// FromRequest reads the guard's only inputs off r.
func FromRequest(r *http.Request) Cookies {
	token, role := cookie.Read(r)
	return Cookies{Token: token, Role: role}
}

// Middleware evaluates Decide before next runs and answers redirects itself.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := Decide(r.URL.Path, FromRequest(r))
		if d.Allowed() {
			next.ServeHTTP(w, r)
			return
		}

		logger.FromCtx(r.Context()).Debug("route guard redirect",
			zap.String("path", r.URL.Path),
			zap.String("target", d.Redirect),
		)
		http.Redirect(w, r, d.Redirect, http.StatusTemporaryRedirect)
	})
}
