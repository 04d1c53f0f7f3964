// Package httpapi is the backend's HTTP surface: the auth and seller JSON
// endpoints, and the guarded page routes.
package httpapi

import (
	"net/http"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/guard"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/middleware"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/seller"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/session"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/user"
)

type Deps struct {
	Users   user.Service
	Sellers seller.Service
	// Pages serves page requests once the route guard allows them.
	Pages       http.Handler
	AuthLimiter *middleware.Limiter
	// WriteLimiter throttles seller mutations per authenticated user.
	WriteLimiter  *middleware.Limiter
	SecureCookies bool
}

// NewRouter assembles the server. Login, registration and logout sit outside
// bearer auth so a stale token cookie cannot lock a caller out of them.
func NewRouter(d Deps) http.Handler {
	authH := NewAuthHandler(d.Users, d.SecureCookies)
	sellerH := NewSellerHandler(d.Sellers, d.SecureCookies)

	limit := func(l *middleware.Limiter, h http.Handler) http.Handler {
		if l == nil {
			return h
		}
		return l.Middleware(h)
	}
	limited := func(h http.HandlerFunc) http.Handler { return limit(d.AuthLimiter, h) }
	writes := func(h http.Handler) http.Handler { return limit(d.WriteLimiter, h) }
	authed := middleware.RequireRole()
	adminOnly := middleware.RequireRole(session.RoleAdmin)

	api := http.NewServeMux()
	api.Handle("GET /api/auth/me", authed(http.HandlerFunc(authH.Me)))
	api.Handle("GET /api/sellers/me", authed(http.HandlerFunc(sellerH.Me)))
	api.Handle("POST /api/sellers/apply", authed(writes(http.HandlerFunc(sellerH.Apply))))
	api.Handle("PATCH /api/admin/sellers/{id}/status", adminOnly(writes(http.HandlerFunc(sellerH.UpdateStatus))))
	api.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	pages := d.Pages
	if pages == nil {
		pages = http.HandlerFunc(placeholder)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("POST /api/auth/register", limited(authH.Register))
	mux.Handle("POST /api/auth/login", limited(authH.Login))
	mux.HandleFunc("POST /api/auth/logout", authH.Logout)
	mux.Handle("/api/", middleware.Auth(d.Users)(api))
	mux.Handle("/", guard.Middleware(pages))

	return logger.RequestIDMiddleware(logger.LoggingMiddleware(mux))
}
