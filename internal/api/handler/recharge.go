package handler

import (
	"net/http"

	"github.com/ayo6706/otc-ledger/internal/service"
	"github.com/shopspring/decimal"
)

type RechargeHandler struct {
	svc *service.RechargeService
}

func NewRechargeHandler(svc *service.RechargeService) *RechargeHandler {
	return &RechargeHandler{svc: svc}
}

type createRechargeRequest struct {
	AmountMXN decimal.Decimal `json:"amount_mxn" validate:"gt=0"`
	Notes     string          `json:"notes" validate:"max=500"`
}

// Create handles POST /v1/recharges for the calling operator.
func (h *RechargeHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	opID, ok := callerOperator(w, r, p)
	if !ok {
		return
	}
	var req createRechargeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rr, err := h.svc.Create(r.Context(), p, service.CreateRechargeInput{
		OperatorID: opID,
		AmountMXN:  req.AmountMXN,
		Notes:      req.Notes,
	})
	if err != nil {
		respondServiceError(w, r, err, "create recharge")
		return
	}
	RespondJSON(w, http.StatusCreated, rr)
}

type approveRechargeRequest struct {
	ExchangeRate *decimal.Decimal `json:"exchange_rate"`
}

// Approve handles POST /v1/recharges/{id}/approve. An omitted rate uses the active one.
func (h *RechargeHandler) Approve(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req approveRechargeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rr, err := h.svc.Approve(r.Context(), p, service.ApproveRechargeInput{RechargeID: id, ExchangeRate: req.ExchangeRate})
	if err != nil {
		respondServiceError(w, r, err, "approve recharge")
		return
	}
	RespondJSON(w, http.StatusOK, rr)
}

type notesRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

// Reject handles POST /v1/recharges/{id}/reject.
func (h *RechargeHandler) Reject(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req notesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rr, err := h.svc.Reject(r.Context(), p, service.RejectRechargeInput{RechargeID: id, Notes: req.Notes})
	if err != nil {
		respondServiceError(w, r, err, "reject recharge")
		return
	}
	RespondJSON(w, http.StatusOK, rr)
}

func (h *RechargeHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	rr, err := h.svc.Get(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, r, err, "get recharge")
		return
	}
	RespondJSON(w, http.StatusOK, rr)
}

// List handles GET /v1/recharges. Admins may filter with ?operator_id=.
func (h *RechargeHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	opID, ok := queryUUID(w, r, "operator_id")
	if !ok {
		return
	}
	out, err := h.svc.List(r.Context(), p, opID)
	if err != nil {
		respondServiceError(w, r, err, "list recharges")
		return
	}
	RespondJSON(w, http.StatusOK, out)
}

// ListPending handles GET /v1/recharges/pending.
func (h *RechargeHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	out, err := h.svc.ListPending(r.Context(), p)
	if err != nil {
		respondServiceError(w, r, err, "list pending recharges")
		return
	}
	RespondJSON(w, http.StatusOK, out)
}
