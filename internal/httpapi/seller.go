package httpapi

import (
	"errors"
	"net/http"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/auth"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/cookie"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/seller"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/session"

	"go.uber.org/zap"
)

type SellerHandler struct {
	sellers       seller.Service
	secureCookies bool
}

func NewSellerHandler(sellers seller.Service, secureCookies bool) *SellerHandler {
	return &SellerHandler{sellers: sellers, secureCookies: secureCookies}
}

// Me answers the caller's latest seller profile, or 404 when there is none.
func (h *SellerHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())

	profile, err := h.sellers.GetForUser(r.Context(), p.UserID)
	if err != nil {
		h.writeSellerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *SellerHandler) Apply(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())

	var in seller.ApplyInput
	if !decodeJSON(w, r, &in) {
		return
	}

	profile, err := h.sellers.Apply(r.Context(), p.UserID, in)
	if err != nil {
		h.writeSellerError(w, r, err)
		return
	}
	// applying promotes a plain user; the role cookie must follow
	if p.Role == session.RoleUser {
		cookie.NewResponseSink(w, h.secureCookies).SetAuthCookies(auth.ExtractAccessToken(r), string(session.RoleSeller))
	}
	writeJSON(w, http.StatusCreated, profile)
}

type statusChange struct {
	Status seller.Status `json:"status"`
}

func (h *SellerHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var in statusChange
	if !decodeJSON(w, r, &in) {
		return
	}

	profile, err := h.sellers.UpdateStatus(r.Context(), r.PathValue("id"), in.Status)
	if err != nil {
		h.writeSellerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *SellerHandler) writeSellerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, seller.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, seller.ErrStoreNameRequired), errors.Is(err, seller.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, seller.ErrProfileExists), errors.Is(err, seller.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.FromCtx(r.Context()).Error("seller request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
