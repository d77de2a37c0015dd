package repository

import (
	"context"
	"time"

	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ErrNoRows is returned by single-row reads when nothing matches.
var ErrNoRows = pgx.ErrNoRows

// Querier is the persistence contract of the ledger store. Status-changing
// writes are conditional on the expected current status and report the number
// of affected rows so callers can detect a lost race.
type Querier interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	CreateOperator(ctx context.Context, op *models.Operator) error
	GetOperator(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	GetOperatorByUserID(ctx context.Context, userID uuid.UUID) (*models.Operator, error)
	GetOperatorForUpdate(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	ListOperators(ctx context.Context) ([]models.Operator, error)
	UpdateOperatorSettings(ctx context.Context, arg UpdateOperatorSettingsParams) (int64, error)
	AddOperatorBalances(ctx context.Context, arg AddOperatorBalancesParams) (int64, error)
	SetOperatorBalances(ctx context.Context, arg SetOperatorBalancesParams) (int64, error)

	LockExchangeRates(ctx context.Context) error
	DeactivateExchangeRates(ctx context.Context) (int64, error)
	InsertExchangeRate(ctx context.Context, rate *models.ExchangeRate) error
	GetActiveExchangeRate(ctx context.Context) (*models.ExchangeRate, error)
	ListExchangeRates(ctx context.Context, limit, offset int32) ([]models.ExchangeRate, error)

	InsertRecharge(ctx context.Context, r *models.RechargeRequest) error
	GetRecharge(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error)
	ApproveRecharge(ctx context.Context, arg ApproveRechargeParams) (int64, error)
	RejectRecharge(ctx context.Context, arg RejectRechargeParams) (int64, error)
	ListRecharges(ctx context.Context, arg ListRechargesParams) ([]models.RechargeRequest, error)
	SumApprovedRecharges(ctx context.Context, arg SumApprovedRechargesParams) (RechargeTotals, error)

	InsertLoan(ctx context.Context, loan *models.Loan) error
	GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	ApproveLoan(ctx context.Context, arg ApproveLoanParams) (int64, error)
	CloseLoan(ctx context.Context, arg CloseLoanParams) (int64, error)
	ListLoans(ctx context.Context, arg ListLoansParams) ([]models.Loan, error)

	GetDailyCut(ctx context.Context, id uuid.UUID) (*models.DailyCut, error)
	GetDailyCutByOperatorDate(ctx context.Context, operatorID uuid.UUID, date time.Time) (*models.DailyCut, error)
	InsertDailyCut(ctx context.Context, cut *models.DailyCut) error
	UpdateDailyCutReport(ctx context.Context, arg UpdateDailyCutReportParams) (int64, error)
	ReviewDailyCut(ctx context.Context, arg ReviewDailyCutParams) (int64, error)
	AddProfitTransfer(ctx context.Context, arg AddProfitTransferParams) (int64, error)
	ListDailyCuts(ctx context.Context, arg ListDailyCutsParams) ([]models.DailyCut, error)

	InsertTransaction(ctx context.Context, tx *models.Transaction) error
	ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]models.Transaction, error)

	InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (int64, error)
	ListAuditLog(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error)

	CountReviewQueue(ctx context.Context) (ReviewQueueCounts, error)

	GetIdempotencyKey(ctx context.Context, key string) (IdempotencyKey, error)
	ReserveIdempotencyKey(ctx context.Context, arg ReserveIdempotencyKeyParams) (bool, error)
	FinalizeIdempotencyKey(ctx context.Context, arg FinalizeIdempotencyKeyParams) (IdempotencyKey, error)
	ReleaseIdempotencyKey(ctx context.Context, key, requestHash string) (int64, error)
}

type UpdateOperatorSettingsParams struct {
	ID              uuid.UUID
	AssignedFundMXN *decimal.Decimal
	IsActive        *bool
}

type AddOperatorBalancesParams struct {
	ID        uuid.UUID
	DeltaMXN  decimal.Decimal
	DeltaUSDT decimal.Decimal
}

type SetOperatorBalancesParams struct {
	ID          uuid.UUID
	BalanceMXN  decimal.Decimal
	BalanceUSDT decimal.Decimal
}

type ApproveRechargeParams struct {
	ID           uuid.UUID
	AmountUSDT   decimal.Decimal
	ExchangeRate decimal.Decimal
	ApprovedByID uuid.UUID
	ApprovedAt   time.Time
}

type RejectRechargeParams struct {
	ID           uuid.UUID
	Notes        string
	ApprovedByID uuid.UUID
	ApprovedAt   time.Time
}

type ListRechargesParams struct {
	OperatorID *uuid.UUID
	Status     string
}

type SumApprovedRechargesParams struct {
	OperatorID uuid.UUID
	From       time.Time // inclusive
	To         time.Time // exclusive
}

type RechargeTotals struct {
	AmountMXN  decimal.Decimal
	AmountUSDT decimal.Decimal
	Count      int64
}

type ApproveLoanParams struct {
	ID           uuid.UUID
	ApprovedByID uuid.UUID
	ApprovedAt   time.Time
	ExchangeRate *decimal.Decimal
}

// CloseLoanParams moves an ACTIVE loan to PAID or CANCELLED.
type CloseLoanParams struct {
	ID     uuid.UUID
	Status string
	PaidAt *time.Time
	Notes  string
}

type ListLoansParams struct {
	OperatorID *uuid.UUID
	Status     string
}

// UpdateDailyCutReportParams overwrites the reported and derived figures of a
// cut that is still in ExpectedStatus. Starting balances are never touched.
type UpdateDailyCutReportParams struct {
	ID                  uuid.UUID
	ExpectedStatus      string
	Status              string
	EndingBalanceMXN    decimal.Decimal
	EndingBalanceUSDT   decimal.Decimal
	TotalSalesMXN       decimal.Decimal
	TotalSalesUSDT      decimal.Decimal
	TotalRechargesMXN   decimal.Decimal
	TotalRechargesUSDT  decimal.Decimal
	CalculatedProfitMXN decimal.Decimal
	ExchangeRate        *decimal.Decimal
	Notes               string
	UpdatedAt           time.Time
}

type ReviewDailyCutParams struct {
	ID           uuid.UUID
	FromStatus   string
	ToStatus     string
	ReviewedByID uuid.UUID
	ReviewedAt   time.Time
	Notes        *string
}

type AddProfitTransferParams struct {
	ID        uuid.UUID
	Amount    decimal.Decimal
	ProofURL  string
	UpdatedAt time.Time
}

type ListDailyCutsParams struct {
	OperatorID *uuid.UUID
	Status     string
}

type ListTransactionsParams struct {
	OperatorID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Limit      int32
	Offset     int32
}

type InsertAuditLogParams struct {
	EntityType string
	EntityID   uuid.UUID
	ActorID    *uuid.UUID
	Action     string
	PrevState  *string
	NextState  *string
	Metadata   []byte
}

type ReviewQueueCounts struct {
	PendingRecharges int64
	PendingCuts      int64
	ActiveLoans      int64
}

type IdempotencyKey struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	InProgress     bool
}

type ReserveIdempotencyKeyParams struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
}

type FinalizeIdempotencyKeyParams struct {
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	IdempotencyKey string
	RequestHash    string
}
