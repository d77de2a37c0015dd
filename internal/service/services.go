package service

import "time"

// Services groups the workflow services over one store.
type Services struct {
	Ledger        *LedgerService
	Audit         *AuditService
	ExchangeRates *ExchangeRateService
	Operators     *OperatorService
	Recharges     *RechargeService
	Loans         *LoanService
	Cuts          *DailyCutService
	ReviewQueue   *ReviewQueueService
}

// NewServices wires every service against store. cache may be nil; loc sets
// the business day used by daily cuts.
func NewServices(store QueryStore, cache RateCache, loc *time.Location) *Services {
	ledger := NewLedgerService(store)
	return &Services{
		Ledger:        ledger,
		Audit:         NewAuditService(store),
		ExchangeRates: NewExchangeRateService(store, cache),
		Operators:     NewOperatorService(store, ledger),
		Recharges:     NewRechargeService(store, ledger),
		Loans:         NewLoanService(store, ledger),
		Cuts:          NewDailyCutService(store, ledger, loc),
		ReviewQueue:   NewReviewQueueService(store),
	}
}
