package service

import (
	"context"
	"testing"
	"time"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/ayo6706/otc-ledger/internal/repository/memstore"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// mexicoCity stands in for the business time zone without depending on tzdata.
var mexicoCity = time.FixedZone("CST", -6*60*60)

type fixture struct {
	store *memstore.Store
	now   time.Time
	admin models.Principal

	ledger    *LedgerService
	rates     *ExchangeRateService
	recharges *RechargeService
	loans     *LoanService
	cuts      *DailyCutService
	operators *OperatorService
}

// newFixture wires every service over an in-memory store and a clock frozen
// at 2024-03-05 12:00 business time.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{now: time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return f.now }

	f.store = memstore.New().WithClock(clock)
	f.ledger = NewLedgerService(f.store).WithClock(clock)
	f.rates = NewExchangeRateService(f.store, nil)
	f.recharges = NewRechargeService(f.store, f.ledger).WithClock(clock)
	f.loans = NewLoanService(f.store, f.ledger).WithClock(clock)
	f.cuts = NewDailyCutService(f.store, f.ledger, mexicoCity).WithClock(clock)
	f.operators = NewOperatorService(f.store, f.ledger)

	admin := &models.User{ID: uuid.New(), Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	require.NoError(t, f.store.Queries().CreateUser(context.Background(), admin))
	f.admin = models.Principal{UserID: admin.ID, Role: domain.RoleAdmin}
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// seedOperator creates an active operator holding fund MXN and returns it with its principal.
func (f *fixture) seedOperator(t *testing.T, fund string) (*models.Operator, models.Principal) {
	t.Helper()
	op, err := f.operators.Create(context.Background(), f.admin, CreateOperatorInput{
		Name:            "Operator",
		Email:           uuid.NewString()[:8] + "@example.com",
		AssignedFundMXN: dec(fund),
	})
	require.NoError(t, err)
	return op, models.Principal{UserID: op.UserID, Role: domain.RoleOperator, OperatorID: &op.ID}
}

func (f *fixture) operator(t *testing.T, id uuid.UUID) *models.Operator {
	t.Helper()
	op, err := f.store.Queries().GetOperator(context.Background(), id)
	require.NoError(t, err)
	return op
}

func (f *fixture) transactions(t *testing.T, operatorID uuid.UUID) []models.Transaction {
	t.Helper()
	txs, err := f.store.Queries().ListTransactions(context.Background(), repository.ListTransactionsParams{
		OperatorID: &operatorID,
		Limit:      1000,
	})
	require.NoError(t, err)
	return txs
}

func (f *fixture) setRate(t *testing.T, sell string) *models.ExchangeRate {
	t.Helper()
	rate, err := f.rates.SetRate(context.Background(), f.admin, SetRateInput{SellRate: dec(sell)})
	require.NoError(t, err)
	return rate
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decEqual(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}
