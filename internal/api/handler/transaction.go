package handler

import (
	"net/http"
	"time"

	"github.com/ayo6706/otc-ledger/internal/service"
)

type TransactionHandler struct {
	ledger *service.LedgerService
}

func NewTransactionHandler(ledger *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// List handles GET /v1/transactions?operator_id=&from=&to=&limit=&offset=.
// from and to are RFC 3339 timestamps; from is inclusive and to exclusive.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	opID, ok := queryUUID(w, r, "operator_id")
	if !ok {
		return
	}
	from, ok := queryTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryTime(w, r, "to")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	txs, err := h.ledger.List(r.Context(), p, service.TransactionFilter{
		OperatorID: opID,
		From:       from,
		To:         to,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondServiceError(w, r, err, "list transactions")
		return
	}
	RespondJSON(w, http.StatusOK, txs)
}

func queryTime(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-"+name, name+" must be an RFC 3339 timestamp")
		return nil, false
	}
	return &t, true
}
