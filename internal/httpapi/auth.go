package httpapi

import (
	"errors"
	"net/http"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/auth"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/cookie"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/session"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/user"

	"go.uber.org/zap"
)

type AuthHandler struct {
	users         user.Service
	secureCookies bool
}

func NewAuthHandler(users user.Service, secureCookies bool) *AuthHandler {
	return &AuthHandler{users: users, secureCookies: secureCookies}
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResult struct {
	User  session.Identity `json:"user"`
	Token string           `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decodeJSON(w, r, &in) {
		return
	}

	token, u, err := h.users.Register(r.Context(), in.Name, in.Email, in.Password)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	h.issue(w, http.StatusCreated, token, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decodeJSON(w, r, &in) {
		return
	}

	token, u, err := h.users.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	h.issue(w, http.StatusOK, token, u)
}

// Logout expires both cookies. The token itself stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie.NewResponseSink(w, h.secureCookies).ClearAuthCookies()
	writeJSON(w, http.StatusOK, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())

	u, err := h.users.GetByID(r.Context(), p.UserID)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u.Identity())
}

// issue answers with the identity and token and sets the matching cookies,
// so browsers and the Go client end up with the same mirror.
func (h *AuthHandler) issue(w http.ResponseWriter, code int, token string, u *user.User) {
	cookie.NewResponseSink(w, h.secureCookies).SetAuthCookies(token, string(u.Role))
	writeJSON(w, code, authResult{User: u.Identity(), Token: token})
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrEmailExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, user.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		logger.FromCtx(r.Context()).Error("auth request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
