package handler

import (
	"net/http"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/service"
	"github.com/go-chi/chi/v5"
)

type AuditHandler struct {
	svc *service.AuditService
}

func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

var auditEntities = map[string]string{
	"operators": domain.EntityOperator,
	"recharges": domain.EntityRecharge,
	"loans":     domain.EntityLoan,
	"cuts":      domain.EntityDailyCut,
	"rates":     domain.EntityExchangeRate,
}

// History handles GET /v1/audit/{entity}/{id}.
func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	entity, known := auditEntities[chi.URLParam(r, "entity")]
	if !known {
		RespondError(w, r, http.StatusNotFound, "resource/not-found", "unknown audit entity")
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.svc.History(r.Context(), p, entity, id)
	if err != nil {
		respondServiceError(w, r, err, "audit history")
		return
	}
	RespondJSON(w, http.StatusOK, entries)
}
