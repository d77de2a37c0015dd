package domain

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"

	CurrencyMXN  = "MXN"
	CurrencyUSDT = "USDT"

	// Transaction types
	TxTypeRechargeUSDT     = "RECHARGE_USDT"
	TxTypeSaleP2P          = "SALE_P2P"
	TxTypePaymentToAdmin   = "PAYMENT_TO_ADMIN"
	TxTypeLoanReceived     = "LOAN_RECEIVED"
	TxTypeLoanPayment      = "LOAN_PAYMENT"
	TxTypeProfitWithdrawal = "PROFIT_WITHDRAWAL"
	TxTypeAdjustment       = "ADJUSTMENT"

	// Recharge statuses
	RechargeStatusPending   = "PENDING"
	RechargeStatusApproved  = "APPROVED"
	RechargeStatusRejected  = "REJECTED"
	RechargeStatusCompleted = "COMPLETED" // display only, never produced by the workflow

	// Loan statuses
	LoanStatusActive    = "ACTIVE"
	LoanStatusPaid      = "PAID"
	LoanStatusCancelled = "CANCELLED"

	// Daily cut statuses
	CutStatusDraft         = "DRAFT"
	CutStatusPendingReview = "PENDING_REVIEW"
	CutStatusApproved      = "APPROVED"
	CutStatusRejected      = "REJECTED"

	// Audit entity types
	EntityRecharge     = "recharge"
	EntityLoan         = "loan"
	EntityDailyCut     = "daily_cut"
	EntityExchangeRate = "exchange_rate"
	EntityOperator     = "operator"
)

var transactionTypes = map[string]struct{}{
	TxTypeRechargeUSDT:     {},
	TxTypeSaleP2P:          {},
	TxTypePaymentToAdmin:   {},
	TxTypeLoanReceived:     {},
	TxTypeLoanPayment:      {},
	TxTypeProfitWithdrawal: {},
	TxTypeAdjustment:       {},
}

// IsTransactionType reports whether t is one of the known ledger entry types.
func IsTransactionType(t string) bool {
	_, ok := transactionTypes[t]
	return ok
}
