package handler

import (
	"net/http"

	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	svc *service.LoanService
}

func NewLoanHandler(svc *service.LoanService) *LoanHandler {
	return &LoanHandler{svc: svc}
}

type createLoanRequest struct {
	AmountMXN    *decimal.Decimal `json:"amount_mxn"`
	AmountUSDT   *decimal.Decimal `json:"amount_usdt"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate"`
	Reason       string           `json:"reason" validate:"required,max=500"`
}

// Create handles POST /v1/loans for the calling operator.
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	opID, ok := callerOperator(w, r, p)
	if !ok {
		return
	}
	var req createLoanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	loan, err := h.svc.Create(r.Context(), p, service.CreateLoanInput{
		OperatorID:   opID,
		AmountMXN:    req.AmountMXN,
		AmountUSDT:   req.AmountUSDT,
		ExchangeRate: req.ExchangeRate,
		Reason:       req.Reason,
	})
	if err != nil {
		respondServiceError(w, r, err, "create loan")
		return
	}
	RespondJSON(w, http.StatusCreated, loan)
}

type approveLoanRequest struct {
	ExchangeRate *decimal.Decimal `json:"exchange_rate"`
}

// Approve handles POST /v1/loans/{id}/approve.
func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req approveLoanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	loan, err := h.svc.Approve(r.Context(), p, service.ApproveLoanInput{LoanID: id, ExchangeRate: req.ExchangeRate})
	if err != nil {
		respondServiceError(w, r, err, "approve loan")
		return
	}
	RespondJSON(w, http.StatusOK, loan)
}

// Pay handles POST /v1/loans/{id}/pay.
func (h *LoanHandler) Pay(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, "pay loan", func(p models.Principal, id uuid.UUID, _ string) (*models.Loan, error) {
		return h.svc.MarkPaid(r.Context(), p, id)
	})
}

// Cancel handles POST /v1/loans/{id}/cancel.
func (h *LoanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.close(w, r, "cancel loan", func(p models.Principal, id uuid.UUID, notes string) (*models.Loan, error) {
		return h.svc.Cancel(r.Context(), p, id, notes)
	})
}

func (h *LoanHandler) close(w http.ResponseWriter, r *http.Request, op string, fn func(models.Principal, uuid.UUID, string) (*models.Loan, error)) {
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
	loan, err := fn(p, id, req.Notes)
	if err != nil {
		respondServiceError(w, r, err, op)
		return
	}
	RespondJSON(w, http.StatusOK, loan)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	loan, err := h.svc.Get(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, r, err, "get loan")
		return
	}
	RespondJSON(w, http.StatusOK, loan)
}

// List handles GET /v1/loans. ?status=active narrows to open loans.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	opID, ok := queryUUID(w, r, "operator_id")
	if !ok {
		return
	}
	var (
		out []models.Loan
		err error
	)
	switch r.URL.Query().Get("status") {
	case "":
		out, err = h.svc.List(r.Context(), p, opID)
	case "active", "ACTIVE":
		out, err = h.svc.ListActive(r.Context(), p, opID)
	default:
		RespondError(w, r, http.StatusBadRequest, "request/invalid-status", "status must be active or omitted")
		return
	}
	if err != nil {
		respondServiceError(w, r, err, "list loans")
		return
	}
	RespondJSON(w, http.StatusOK, out)
}
