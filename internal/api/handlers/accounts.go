package handlers

import (
	"net/http"

	"github.com/baharkarakas/insider-transfers/internal/api/httpx"
	"github.com/baharkarakas/insider-transfers/internal/middleware"
	"github.com/baharkarakas/insider-transfers/internal/services"
)

type AccountHandler struct {
	Accounts *services.AccountService
}

func NewAccountHandler(as *services.AccountService) *AccountHandler {
	return &AccountHandler{Accounts: as}
}

// Me returns the authenticated account, including its balance.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.FromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing credentials", nil)
		return
	}
	a, err := h.Accounts.Get(r.Context(), u.AccountID)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}
