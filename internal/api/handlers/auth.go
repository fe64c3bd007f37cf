package handlers

import (
	"net/http"

	"github.com/baharkarakas/insider-transfers/internal/api/httpx"
	"github.com/baharkarakas/insider-transfers/internal/api/validate"
	"github.com/baharkarakas/insider-transfers/internal/services"
)

type AuthHandler struct {
	Accounts *services.AccountService
}

func NewAuthHandler(as *services.AccountService) *AuthHandler {
	return &AuthHandler{Accounts: as}
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req credentialsReq) validate() validate.Errs {
	return validate.Collect(
		validate.Email("email", req.Email),
		validate.Required("password", req.Password),
	)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "validation failed", errs)
		return
	}

	a, err := h.Accounts.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, a)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "validation failed", errs)
		return
	}

	pair, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := httpx.DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "refresh_token required", nil)
		return
	}

	pair, err := h.Accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}
