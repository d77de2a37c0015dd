package handler

import (
	"net/http"

	"github.com/ayo6706/otc-ledger/internal/service"
	"github.com/shopspring/decimal"
)

type OperatorHandler struct {
	svc *service.OperatorService
}

func NewOperatorHandler(svc *service.OperatorService) *OperatorHandler {
	return &OperatorHandler{svc: svc}
}

type createOperatorRequest struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Email           string          `json:"email" validate:"required,email"`
	AssignedFundMXN decimal.Decimal `json:"assigned_fund_mxn" validate:"gte=0"`
}

// Create handles POST /v1/operators.
func (h *OperatorHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	var req createOperatorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	op, err := h.svc.Create(r.Context(), p, service.CreateOperatorInput{
		Name:            req.Name,
		Email:           req.Email,
		AssignedFundMXN: req.AssignedFundMXN,
	})
	if err != nil {
		respondServiceError(w, r, err, "create operator")
		return
	}
	RespondJSON(w, http.StatusCreated, op)
}

type updateOperatorRequest struct {
	AssignedFundMXN *decimal.Decimal `json:"assigned_fund_mxn" validate:"omitempty,gte=0"`
	IsActive        *bool            `json:"is_active"`
}

// Update handles PATCH /v1/operators/{id}.
func (h *OperatorHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req updateOperatorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	op, err := h.svc.Update(r.Context(), p, service.UpdateOperatorInput{
		OperatorID:      id,
		AssignedFundMXN: req.AssignedFundMXN,
		IsActive:        req.IsActive,
	})
	if err != nil {
		respondServiceError(w, r, err, "update operator")
		return
	}
	RespondJSON(w, http.StatusOK, op)
}

type adjustBalanceRequest struct {
	BalanceMXN  *decimal.Decimal `json:"balance_mxn"`
	BalanceUSDT *decimal.Decimal `json:"balance_usdt"`
	Reason      string           `json:"reason" validate:"required,max=500"`
}

// Adjust handles POST /v1/operators/{id}/adjustments.
func (h *OperatorHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req adjustBalanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	op, err := h.svc.AdjustBalance(r.Context(), p, service.AdjustBalanceInput{
		OperatorID:  id,
		BalanceMXN:  req.BalanceMXN,
		BalanceUSDT: req.BalanceUSDT,
		Reason:      req.Reason,
	})
	if err != nil {
		respondServiceError(w, r, err, "adjust operator balance")
		return
	}
	RespondJSON(w, http.StatusOK, op)
}

func (h *OperatorHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	op, err := h.svc.Get(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, r, err, "get operator")
		return
	}
	RespondJSON(w, http.StatusOK, op)
}

// Summary handles GET /v1/operators/{id}/summary.
func (h *OperatorHandler) Summary(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.svc.Summary(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, r, err, "operator summary")
		return
	}
	RespondJSON(w, http.StatusOK, summary)
}

func (h *OperatorHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	ops, err := h.svc.List(r.Context(), p)
	if err != nil {
		respondServiceError(w, r, err, "list operators")
		return
	}
	RespondJSON(w, http.StatusOK, ops)
}
