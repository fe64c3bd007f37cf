package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/insider-transfers/internal/api/httpx"
	"github.com/baharkarakas/insider-transfers/internal/api/validate"
	"github.com/baharkarakas/insider-transfers/internal/auth"
	"github.com/baharkarakas/insider-transfers/internal/middleware"
	"github.com/baharkarakas/insider-transfers/internal/repository"
	"github.com/baharkarakas/insider-transfers/internal/services"
)

type TransferHandler struct {
	Transfers *services.TransferService
	Authz     middleware.Authorizer
}

func NewTransferHandler(ts *services.TransferService, az middleware.Authorizer) *TransferHandler {
	return &TransferHandler{Transfers: ts, Authz: az}
}

type createTransferReq struct {
	OriginID      *int64           `json:"origin_id,omitempty"`
	DestinationID int64            `json:"destination_id"`
	Amount        *decimal.Decimal `json:"amount"`
}

// Create submits a transfer from the authenticated account. The response is
// 201 with the record whatever its status; a REJECTED record carries the
// reason.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.FromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing credentials", nil)
		return
	}

	var req createTransferReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		return
	}
	if errs := validate.Collect(
		validate.MinInt("destination_id", req.DestinationID, 1),
		validate.Amount("amount", req.Amount),
	); len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "validation failed", errs)
		return
	}
	if req.OriginID != nil && *req.OriginID != u.AccountID {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "transfers can only be sent from your own account", nil)
		return
	}

	t, err := h.Transfers.CreateTransfer(r.Context(), u.AccountID, req.DestinationID, *req.Amount)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, t)
}

// List returns transfers touching account_id (default: the caller). Other
// accounts need the list_any permission.
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.FromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing credentials", nil)
		return
	}

	q := r.URL.Query()
	accountID := u.AccountID
	if v := q.Get("account_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "account_id must be a positive integer", nil)
			return
		}
		accountID = id
	}
	if accountID != u.AccountID && !h.may(u, auth.ActionListAny) {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "not permitted to list transfers of other accounts", nil)
		return
	}

	var page repository.Page
	if page.Limit, ok = queryInt(w, q.Get("limit"), "limit"); !ok {
		return
	}
	if page.Offset, ok = queryInt(w, q.Get("offset"), "offset"); !ok {
		return
	}

	list, err := h.Transfers.ListTransfers(r.Context(), accountID, page)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.FromCtx(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing credentials", nil)
		return
	}
	id, ok := transferID(w, r)
	if !ok {
		return
	}

	t, err := h.Transfers.GetTransfer(r.Context(), id)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	if t.OriginID != u.AccountID && t.DestinationID != u.AccountID && !h.may(u, auth.ActionListAny) {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "not a party to this transfer", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *TransferHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := transferID(w, r)
	if !ok {
		return
	}
	t, err := h.Transfers.ApproveTransfer(r.Context(), id)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *TransferHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := transferID(w, r)
	if !ok {
		return
	}
	t, err := h.Transfers.RejectTransfer(r.Context(), id)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *TransferHandler) may(u middleware.UserCtx, action string) bool {
	return h.Authz != nil && h.Authz.Authorize(u.Role, auth.ObjectTransfers, action) == nil
}

// queryInt parses an optional non-negative query value. An empty value is 0.
func queryInt(w http.ResponseWriter, v, field string) (int, bool) {
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", field+" must be a non-negative integer", nil)
		return 0, false
	}
	return n, true
}

func transferID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
