package handlers

import (
	"net/http"
	"time"

	"github.com/scopeforge/engine/internal/api/types"
	"github.com/scopeforge/engine/internal/services"
)

type AuthHandler struct {
	svc      services.AuthService
	validate Validator
}

func NewAuthHandler(svc services.AuthService, v Validator) *AuthHandler {
	return &AuthHandler{svc: svc, validate: v}
}

// Register godoc
// @Summary  Create an account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body types.RegisterRequest true "Account"
// @Success  201 {object} types.APIResponse
// @Failure  409 {object} types.APIResponse
// @Router   /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.RegisterRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusCreated, u)
}

// Login godoc
// @Summary  Exchange credentials for a bearer token
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body types.LoginRequest true "Credentials"
// @Success  200 {object} types.APIResponse
// @Failure  401 {object} types.APIResponse
// @Router   /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sess, err := h.svc.Login(r.Context(), req.Email, req.Password, req.OrganizationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, types.TokenResponse{
		AccessToken: sess.Token,
		TokenType:   "Bearer",
		ExpiresAt:   sess.ExpiresAt.UTC().Format(time.RFC3339),
		User:        sess.User,
		Caller:      sess.Caller,
	})
}

// Me returns the caller encoded in the bearer token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	c, err := callerOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, c)
}
