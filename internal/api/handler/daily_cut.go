package handler

import (
	"net/http"
	"time"

	"github.com/ayo6706/otc-ledger/internal/service"
	"github.com/shopspring/decimal"
)

type DailyCutHandler struct {
	svc *service.DailyCutService
}

func NewDailyCutHandler(svc *service.DailyCutService) *DailyCutHandler {
	return &DailyCutHandler{svc: svc}
}

type submitCutRequest struct {
	Date              string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	EndingBalanceMXN  decimal.Decimal  `json:"ending_balance_mxn"`
	EndingBalanceUSDT decimal.Decimal  `json:"ending_balance_usdt"`
	TotalSalesMXN     decimal.Decimal  `json:"total_sales_mxn"`
	TotalSalesUSDT    decimal.Decimal  `json:"total_sales_usdt"`
	ExchangeRate      *decimal.Decimal `json:"exchange_rate"`
	Notes             string           `json:"notes" validate:"max=1000"`
}

func (req submitCutRequest) input() service.SubmitCutInput {
	in := service.SubmitCutInput{
		EndingBalanceMXN:  req.EndingBalanceMXN,
		EndingBalanceUSDT: req.EndingBalanceUSDT,
		TotalSalesMXN:     req.TotalSalesMXN,
		TotalSalesUSDT:    req.TotalSalesUSDT,
		ExchangeRate:      req.ExchangeRate,
		Notes:             req.Notes,
	}
	if req.Date != "" {
		// format already checked by the validator
		d, _ := time.Parse(time.DateOnly, req.Date)
		in.Date = &d
	}
	return in
}

// Submit handles PUT /v1/cuts and sends the day's report for review.
func (h *DailyCutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, false)
}

// SaveDraft handles PUT /v1/cuts/draft.
func (h *DailyCutHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, true)
}

func (h *DailyCutHandler) report(w http.ResponseWriter, r *http.Request, draft bool) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	opID, ok := callerOperator(w, r, p)
	if !ok {
		return
	}
	var req submitCutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	in := req.input()
	in.OperatorID = opID

	save, op := h.svc.Submit, "submit daily cut"
	if draft {
		save, op = h.svc.SaveDraft, "save daily cut draft"
	}
	cut, err := save(r.Context(), p, in)
	if err != nil {
		respondServiceError(w, r, err, op)
		return
	}
	RespondJSON(w, http.StatusOK, cut)
}

// Approve handles POST /v1/cuts/{id}/approve.
func (h *DailyCutHandler) Approve(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	cut, err := h.svc.Approve(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, r, err, "approve daily cut")
		return
	}
	RespondJSON(w, http.StatusOK, cut)
}

// Reject handles POST /v1/cuts/{id}/reject.
func (h *DailyCutHandler) Reject(w http.ResponseWriter, r *http.Request) {
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
	cut, err := h.svc.Reject(r.Context(), p, id, req.Notes)
	if err != nil {
		respondServiceError(w, r, err, "reject daily cut")
		return
	}
	RespondJSON(w, http.StatusOK, cut)
}

type transferRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	ProofURL string          `json:"proof_url" validate:"omitempty,url,max=2048"`
}

// Transfer handles POST /v1/cuts/{id}/transfers.
func (h *DailyCutHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req transferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	cut, err := h.svc.RegisterTransfer(r.Context(), p, service.RegisterTransferInput{
		CutID:    id,
		Amount:   req.Amount,
		ProofURL: req.ProofURL,
	})
	if err != nil {
		respondServiceError(w, r, err, "register profit transfer")
		return
	}
	RespondJSON(w, http.StatusOK, cut)
}

func (h *DailyCutHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	cut, err := h.svc.Get(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, r, err, "get daily cut")
		return
	}
	RespondJSON(w, http.StatusOK, cut)
}

// Today handles GET /v1/cuts/today.
func (h *DailyCutHandler) Today(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	opID, ok := callerOperator(w, r, p)
	if !ok {
		return
	}
	cut, err := h.svc.Today(r.Context(), p, opID)
	if err != nil {
		respondServiceError(w, r, err, "today's daily cut")
		return
	}
	RespondJSON(w, http.StatusOK, cut)
}

func (h *DailyCutHandler) List(w http.ResponseWriter, r *http.Request) {
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
		respondServiceError(w, r, err, "list daily cuts")
		return
	}
	RespondJSON(w, http.StatusOK, out)
}

// ListPending handles GET /v1/cuts/pending.
func (h *DailyCutHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	out, err := h.svc.ListPending(r.Context(), p)
	if err != nil {
		respondServiceError(w, r, err, "list pending daily cuts")
		return
	}
	RespondJSON(w, http.StatusOK, out)
}
