package handler

import (
	"net/http"

	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/service"
	"github.com/shopspring/decimal"
)

const defaultRateHistory = 50

type ExchangeRateHandler struct {
	svc *service.ExchangeRateService
}

func NewExchangeRateHandler(svc *service.ExchangeRateService) *ExchangeRateHandler {
	return &ExchangeRateHandler{svc: svc}
}

type setRateRequest struct {
	SellRate decimal.Decimal  `json:"sell_rate" validate:"gt=0"`
	BuyRate  *decimal.Decimal `json:"buy_rate" validate:"omitempty,gt=0"`
	Notes    string           `json:"notes" validate:"max=500"`
}

// Set handles POST /v1/exchange-rates.
func (h *ExchangeRateHandler) Set(w http.ResponseWriter, r *http.Request) {
	p, ok := requestPrincipal(w, r)
	if !ok {
		return
	}
	var req setRateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rate, err := h.svc.SetRate(r.Context(), p, service.SetRateInput{
		SellRate: req.SellRate,
		BuyRate:  req.BuyRate,
		Notes:    req.Notes,
	})
	if err != nil {
		respondServiceError(w, r, err, "set exchange rate")
		return
	}
	RespondJSON(w, http.StatusCreated, rate)
}

// Current handles GET /v1/exchange-rates/current.
func (h *ExchangeRateHandler) Current(w http.ResponseWriter, r *http.Request) {
	rate, err := h.svc.RequireCurrentRate(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "current exchange rate")
		return
	}
	RespondJSON(w, http.StatusOK, rate)
}

// History handles GET /v1/exchange-rates?limit=N, newest first.
func (h *ExchangeRateHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	if limit == 0 {
		limit = defaultRateHistory
	}
	rates := make([]models.ExchangeRate, 0, min(limit, defaultRateHistory))
	for rate, err := range h.svc.RateHistory(r.Context(), limit) {
		if err != nil {
			respondServiceError(w, r, err, "exchange rate history")
			return
		}
		rates = append(rates, rate)
	}
	RespondJSON(w, http.StatusOK, rates)
}
