package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"` // "admin" or "operator"
	CreatedAt time.Time `json:"created_at"`
}

// Operator holds the fund assigned to one human operator and the live balances.
type Operator struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Name            string          `json:"name,omitempty"`
	Email           string          `json:"email,omitempty"`
	AssignedFundMXN decimal.Decimal `json:"assigned_fund_mxn"`
	BalanceMXN      decimal.Decimal `json:"balance_mxn"`
	BalanceUSDT     decimal.Decimal `json:"balance_usdt"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type ExchangeRate struct {
	ID        uuid.UUID        `json:"id"`
	SellRate  decimal.Decimal  `json:"sell_rate"`
	BuyRate   *decimal.Decimal `json:"buy_rate,omitempty"`
	SetByID   uuid.UUID        `json:"set_by_id"`
	Notes     string           `json:"notes,omitempty"`
	IsActive  bool             `json:"is_active"`
	CreatedAt time.Time        `json:"created_at"`
}

type RechargeRequest struct {
	ID           uuid.UUID        `json:"id"`
	OperatorID   uuid.UUID        `json:"operator_id"`
	AmountMXN    decimal.Decimal  `json:"amount_mxn"`
	AmountUSDT   decimal.Decimal  `json:"amount_usdt"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
	Status       string           `json:"status"`
	ApprovedByID *uuid.UUID       `json:"approved_by_id,omitempty"`
	ApprovedAt   *time.Time       `json:"approved_at,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

type Loan struct {
	ID           uuid.UUID        `json:"id"`
	OperatorID   uuid.UUID        `json:"operator_id"`
	AmountMXN    *decimal.Decimal `json:"amount_mxn,omitempty"`
	AmountUSDT   *decimal.Decimal `json:"amount_usdt,omitempty"`
	Reason       string           `json:"reason"`
	Status       string           `json:"status"`
	ApprovedByID *uuid.UUID       `json:"approved_by_id,omitempty"`
	ApprovedAt   *time.Time       `json:"approved_at,omitempty"`
	PaidAt       *time.Time       `json:"paid_at,omitempty"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// DailyCut is the reconciliation report an operator submits for one calendar day.
type DailyCut struct {
	ID                  uuid.UUID        `json:"id"`
	OperatorID          uuid.UUID        `json:"operator_id"`
	Date                time.Time        `json:"date"`
	StartingBalanceMXN  decimal.Decimal  `json:"starting_balance_mxn"`
	StartingBalanceUSDT decimal.Decimal  `json:"starting_balance_usdt"`
	EndingBalanceMXN    decimal.Decimal  `json:"ending_balance_mxn"`
	EndingBalanceUSDT   decimal.Decimal  `json:"ending_balance_usdt"`
	TotalSalesMXN       decimal.Decimal  `json:"total_sales_mxn"`
	TotalSalesUSDT      decimal.Decimal  `json:"total_sales_usdt"`
	TotalRechargesMXN   decimal.Decimal  `json:"total_recharges_mxn"`
	TotalRechargesUSDT  decimal.Decimal  `json:"total_recharges_usdt"`
	CalculatedProfitMXN decimal.Decimal  `json:"calculated_profit_mxn"`
	ExchangeRate        *decimal.Decimal `json:"exchange_rate,omitempty"`
	ProfitTransferred   decimal.Decimal  `json:"profit_transferred"`
	ProfitProofURL      string           `json:"profit_proof_url,omitempty"`
	Status              string           `json:"status"`
	ReviewedByID        *uuid.UUID       `json:"reviewed_by_id,omitempty"`
	ReviewedAt          *time.Time       `json:"reviewed_at,omitempty"`
	Notes               string           `json:"notes,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// Transaction is an immutable ledger entry. Amounts are signed: positive credits
// the operator, negative debits it.
type Transaction struct {
	ID           uuid.UUID        `json:"id"`
	OperatorID   uuid.UUID        `json:"operator_id"`
	Type         string           `json:"type"`
	AmountMXN    decimal.Decimal  `json:"amount_mxn"`
	AmountUSDT   decimal.Decimal  `json:"amount_usdt"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
	Description  string           `json:"description"`
	DailyCutID   *uuid.UUID       `json:"daily_cut_id,omitempty"`
	LoanID       *uuid.UUID       `json:"loan_id,omitempty"`
	RechargeID   *uuid.UUID       `json:"recharge_id,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

type AuditLog struct {
	ID         int64           `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	ActorID    *uuid.UUID      `json:"actor_id,omitempty"`
	Action     string          `json:"action"`
	PrevState  string          `json:"prev_state,omitempty"`
	NextState  string          `json:"next_state,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
