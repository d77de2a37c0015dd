//go:build integration

package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ayo6706/otc-ledger/internal/db"
	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/ayo6706/otc-ledger/internal/testutil/dblock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func init() {
	_ = godotenv.Load("../../.env")
}

func TestMain(m *testing.M) {
	release := dblock.Acquire()
	code := m.Run()
	release()
	os.Exit(code)
}

// setupStore connects to DATABASE_URL when set, otherwise starts a throwaway
// Postgres container.
func setupStore(t *testing.T) (*repository.Store, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		pgC, err := tcPostgres.RunContainer(ctx,
			testcontainers.WithImage("postgres:15-alpine"),
			tcPostgres.WithDatabase("otc_ledger_test"),
			tcPostgres.WithUsername("otc"),
			tcPostgres.WithPassword("otc"),
			testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
		)
		require.NoError(t, err)
		t.Cleanup(func() { _ = pgC.Terminate(ctx) })

		dbURL, err = pgC.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	pool, err := db.Connect(ctx, dbURL, db.PoolSize{MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE transactions, audit_log, daily_cuts, loans, recharge_requests,
		exchange_rates, operators, users, idempotency_keys CASCADE`)
	require.NoError(t, err)

	return repository.NewStore(pool), pool
}

func seedOperator(t *testing.T, q repository.Querier) (*models.User, *models.Operator) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Name: "Op", Email: uuid.NewString() + "@example.com", Role: domain.RoleOperator}
	require.NoError(t, q.CreateUser(ctx, user))

	op := &models.Operator{
		ID:              uuid.New(),
		UserID:          user.ID,
		AssignedFundMXN: decimal.RequireFromString("100000.00"),
		BalanceMXN:      decimal.RequireFromString("100000.00"),
		BalanceUSDT:     decimal.Zero,
		IsActive:        true,
	}
	require.NoError(t, q.CreateOperator(ctx, op))
	return user, op
}

func TestOperatorBalances(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	q := store.Queries()

	_, op := seedOperator(t, q)

	n, err := q.AddOperatorBalances(ctx, repository.AddOperatorBalancesParams{
		ID:        op.ID,
		DeltaMXN:  decimal.RequireFromString("-175000.00"),
		DeltaUSDT: decimal.RequireFromString("10000.000000"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := q.GetOperator(ctx, op.ID)
	require.NoError(t, err)
	assert.True(t, got.BalanceMXN.Equal(decimal.RequireFromString("-75000")))
	assert.True(t, got.BalanceUSDT.Equal(decimal.RequireFromString("10000")))
	assert.Equal(t, "Op", got.Name)
}

func TestRunInTxRollsBack(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, op := seedOperator(t, store.Queries())

	err := store.RunInTx(ctx, func(q repository.Querier) error {
		if _, err := q.AddOperatorBalances(ctx, repository.AddOperatorBalancesParams{ID: op.ID, DeltaMXN: decimal.NewFromInt(5)}); err != nil {
			return err
		}
		return domain.ErrInvalidState
	})
	require.ErrorIs(t, err, domain.ErrInvalidState)

	got, err := store.Queries().GetOperator(ctx, op.ID)
	require.NoError(t, err)
	assert.True(t, got.BalanceMXN.Equal(op.BalanceMXN))
}

func TestSingleActiveExchangeRate(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	admin := &models.User{ID: uuid.New(), Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	require.NoError(t, store.Queries().CreateUser(ctx, admin))

	for _, sell := range []string{"17.50", "17.80"} {
		err := store.RunInTx(ctx, func(q repository.Querier) error {
			if err := q.LockExchangeRates(ctx); err != nil {
				return err
			}
			if _, err := q.DeactivateExchangeRates(ctx); err != nil {
				return err
			}
			return q.InsertExchangeRate(ctx, &models.ExchangeRate{
				ID: uuid.New(), SellRate: decimal.RequireFromString(sell), SetByID: admin.ID, IsActive: true,
			})
		})
		require.NoError(t, err)
	}

	active, err := store.Queries().GetActiveExchangeRate(ctx)
	require.NoError(t, err)
	assert.True(t, active.SellRate.Equal(decimal.RequireFromString("17.80")))

	// a second active row violates the partial unique index
	err = store.Queries().InsertExchangeRate(ctx, &models.ExchangeRate{
		ID: uuid.New(), SellRate: decimal.RequireFromString("18"), SetByID: admin.ID, IsActive: true,
	})
	require.Error(t, err)

	rates, err := store.Queries().ListExchangeRates(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.True(t, rates[0].IsActive)
	assert.False(t, rates[1].IsActive)
}

func TestApproveRechargeIsConditional(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	q := store.Queries()

	user, op := seedOperator(t, q)
	now := time.Now().UTC()

	r := &models.RechargeRequest{
		ID: uuid.New(), OperatorID: op.ID, AmountMXN: decimal.RequireFromString("175000"),
		AmountUSDT: decimal.Zero, Status: domain.RechargeStatusPending, CreatedAt: now,
	}
	require.NoError(t, q.InsertRecharge(ctx, r))

	params := repository.ApproveRechargeParams{
		ID: r.ID, AmountUSDT: decimal.RequireFromString("10000"), ExchangeRate: decimal.RequireFromString("17.5"),
		ApprovedByID: user.ID, ApprovedAt: now,
	}
	n, err := q.ApproveRecharge(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = q.ApproveRecharge(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	totals, err := q.SumApprovedRecharges(ctx, repository.SumApprovedRechargesParams{
		OperatorID: op.ID, From: now.Add(-time.Hour), To: now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.Count)
	assert.True(t, totals.AmountUSDT.Equal(decimal.RequireFromString("10000")))
}

func TestDailyCutUniquePerDay(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	q := store.Queries()

	_, op := seedOperator(t, q)
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	cut := &models.DailyCut{
		ID: uuid.New(), OperatorID: op.ID, Date: day,
		StartingBalanceMXN: op.BalanceMXN, EndingBalanceMXN: decimal.RequireFromString("101000"),
		CalculatedProfitMXN: decimal.RequireFromString("1000"), Status: domain.CutStatusPendingReview,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, q.InsertDailyCut(ctx, cut))

	got, err := q.GetDailyCutByOperatorDate(ctx, op.ID, day)
	require.NoError(t, err)
	assert.Equal(t, cut.ID, got.ID)
	assert.True(t, got.Date.Equal(day))

	dup := *cut
	dup.ID = uuid.New()
	require.Error(t, q.InsertDailyCut(ctx, &dup))
}

func TestTransactionsAreImmutable(t *testing.T) {
	store, pool := setupStore(t)
	ctx := context.Background()
	q := store.Queries()

	_, op := seedOperator(t, q)
	tx := &models.Transaction{
		ID: uuid.New(), OperatorID: op.ID, Type: domain.TxTypeAdjustment,
		AmountMXN: decimal.NewFromInt(10), AmountUSDT: decimal.Zero, CreatedAt: time.Now(),
	}
	require.NoError(t, q.InsertTransaction(ctx, tx))

	_, err := pool.Exec(ctx, `UPDATE transactions SET amount_mxn = 0 WHERE id = $1`, tx.ID)
	require.Error(t, err)

	list, err := q.ListTransactions(ctx, repository.ListTransactionsParams{OperatorID: &op.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].AmountMXN.Equal(decimal.NewFromInt(10)))
}

func seedAdmin(t *testing.T, q repository.Querier) *models.User {
	t.Helper()
	admin := &models.User{ID: uuid.New(), Name: "Admin", Email: uuid.NewString() + "@example.com", Role: domain.RoleAdmin}
	require.NoError(t, q.CreateUser(context.Background(), admin))
	return admin
}

func TestRejectRechargeAndStatusFilter(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	q := store.Queries()

	_, op := seedOperator(t, q)
	_, other := seedOperator(t, q)
	admin := seedAdmin(t, q)
	now := time.Now().UTC()

	newRecharge := func(operatorID uuid.UUID) *models.RechargeRequest {
		r := &models.RechargeRequest{
			ID: uuid.New(), OperatorID: operatorID, AmountMXN: decimal.RequireFromString("100"),
			AmountUSDT: decimal.Zero, Status: domain.RechargeStatusPending, CreatedAt: now,
		}
		require.NoError(t, q.InsertRecharge(ctx, r))
		return r
	}
	rejected := newRecharge(op.ID)
	newRecharge(op.ID)
	newRecharge(other.ID)

	params := repository.RejectRechargeParams{ID: rejected.ID, Notes: "wrong amount", ApprovedByID: admin.ID, ApprovedAt: now}
	n, err := q.RejectRecharge(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = q.RejectRecharge(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = q.ApproveRecharge(ctx, repository.ApproveRechargeParams{
		ID: rejected.ID, AmountUSDT: decimal.NewFromInt(5), ExchangeRate: decimal.NewFromInt(20),
		ApprovedByID: admin.ID, ApprovedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "a rejected recharge cannot be approved")

	got, err := q.GetRecharge(ctx, rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RechargeStatusRejected, got.Status)
	assert.Equal(t, "wrong amount", got.Notes)
	assert.True(t, got.AmountUSDT.IsZero())
	assert.Nil(t, got.ExchangeRate)

	all, err := q.ListRecharges(ctx, repository.ListRechargesParams{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := q.ListRecharges(ctx, repository.ListRechargesParams{OperatorID: &op.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := q.ListRecharges(ctx, repository.ListRechargesParams{OperatorID: &op.ID, Status: domain.RechargeStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, rejected.ID, pending[0].ID)
}

func TestLoanConditionalUpdates(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	q := store.Queries()

	_, op := seedOperator(t, q)
	admin := seedAdmin(t, q)
	now := time.Now().UTC()

	mxn, usdt := decimal.RequireFromString("500"), decimal.RequireFromString("25.5")
	newLoan := func(amountMXN, amountUSDT *decimal.Decimal) *models.Loan {
		l := &models.Loan{
			ID: uuid.New(), OperatorID: op.ID, AmountMXN: amountMXN, AmountUSDT: amountUSDT,
			Reason: "float", Status: domain.LoanStatusActive, CreatedAt: now,
		}
		require.NoError(t, q.InsertLoan(ctx, l))
		return l
	}
	paid := newLoan(&mxn, nil)
	cancelled := newLoan(nil, &usdt)
	open := newLoan(&mxn, nil)

	got, err := q.GetLoan(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AmountMXN)
	require.NotNil(t, got.AmountUSDT)
	assert.True(t, got.AmountUSDT.Equal(usdt))

	rate := decimal.RequireFromString("17.5")
	approve := repository.ApproveLoanParams{ID: paid.ID, ApprovedByID: admin.ID, ApprovedAt: now, ExchangeRate: &rate}
	n, err := q.ApproveLoan(ctx, approve)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = q.ApproveLoan(ctx, approve)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "approver is recorded once")

	payParams := repository.CloseLoanParams{ID: paid.ID, Status: domain.LoanStatusPaid, PaidAt: &now}
	n, err = q.CloseLoan(ctx, payParams)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = q.CloseLoan(ctx, payParams)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	got, err = q.GetLoan(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPaid, got.Status)
	require.NotNil(t, got.PaidAt)
	require.NotNil(t, got.ExchangeRate)
	assert.True(t, got.ExchangeRate.Equal(rate))
	require.NotNil(t, got.ApprovedByID)
	assert.Equal(t, admin.ID, *got.ApprovedByID)

	n, err = q.CloseLoan(ctx, repository.CloseLoanParams{ID: cancelled.ID, Status: domain.LoanStatusCancelled, Notes: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = q.ApproveLoan(ctx, repository.ApproveLoanParams{ID: cancelled.ID, ApprovedByID: admin.ID, ApprovedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "only ACTIVE loans can be approved")

	got, err = q.GetLoan(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusCancelled, got.Status)
	assert.Equal(t, "duplicate", got.Notes)
	assert.Nil(t, got.PaidAt)
	assert.Nil(t, got.ExchangeRate)

	active, err := q.ListLoans(ctx, repository.ListLoansParams{OperatorID: &op.ID, Status: domain.LoanStatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)

	all, err := q.ListLoans(ctx, repository.ListLoansParams{OperatorID: &op.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDailyCutConditionalUpdates(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	q := store.Queries()

	_, op := seedOperator(t, q)
	admin := seedAdmin(t, q)
	now := time.Now().UTC()
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	cut := &models.DailyCut{
		ID: uuid.New(), OperatorID: op.ID, Date: day,
		StartingBalanceMXN: decimal.RequireFromString("100000"), StartingBalanceUSDT: decimal.RequireFromString("12.5"),
		EndingBalanceMXN: decimal.RequireFromString("100500"), CalculatedProfitMXN: decimal.RequireFromString("500"),
		Status: domain.CutStatusDraft, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, q.InsertDailyCut(ctx, cut))

	rate := decimal.RequireFromString("17.25")
	report := repository.UpdateDailyCutReportParams{
		ID: cut.ID, ExpectedStatus: domain.CutStatusPendingReview, Status: domain.CutStatusPendingReview,
		EndingBalanceMXN: decimal.RequireFromString("101000"), EndingBalanceUSDT: decimal.RequireFromString("3.25"),
		TotalSalesMXN: decimal.RequireFromString("40000"), TotalSalesUSDT: decimal.RequireFromString("2300"),
		TotalRechargesMXN: decimal.RequireFromString("17500"), TotalRechargesUSDT: decimal.RequireFromString("1000"),
		CalculatedProfitMXN: decimal.RequireFromString("1000"), ExchangeRate: &rate, Notes: "closing", UpdatedAt: now,
	}
	n, err := q.UpdateDailyCutReport(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "expected status does not match")

	report.ExpectedStatus = domain.CutStatusDraft
	n, err = q.UpdateDailyCutReport(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := q.GetDailyCut(ctx, cut.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CutStatusPendingReview, got.Status)
	assert.True(t, got.StartingBalanceMXN.Equal(cut.StartingBalanceMXN), "starting balances are kept")
	assert.True(t, got.StartingBalanceUSDT.Equal(cut.StartingBalanceUSDT), "starting balances are kept")
	assert.True(t, got.EndingBalanceMXN.Equal(report.EndingBalanceMXN))
	assert.True(t, got.TotalRechargesUSDT.Equal(report.TotalRechargesUSDT))
	assert.True(t, got.CalculatedProfitMXN.Equal(report.CalculatedProfitMXN))
	require.NotNil(t, got.ExchangeRate)
	assert.True(t, got.ExchangeRate.Equal(rate))
	assert.Equal(t, "closing", got.Notes)

	n, err = q.AddProfitTransfer(ctx, repository.AddProfitTransferParams{ID: cut.ID, Amount: decimal.NewFromInt(100), UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "transfers need an approved cut")

	review := repository.ReviewDailyCutParams{
		ID: cut.ID, FromStatus: domain.CutStatusDraft, ToStatus: domain.CutStatusApproved,
		ReviewedByID: admin.ID, ReviewedAt: now,
	}
	n, err = q.ReviewDailyCut(ctx, review)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	review.FromStatus = domain.CutStatusPendingReview
	n, err = q.ReviewDailyCut(ctx, review)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = q.ReviewDailyCut(ctx, review)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	for _, transfer := range []repository.AddProfitTransferParams{
		{ID: cut.ID, Amount: decimal.RequireFromString("400"), ProofURL: "https://proofs.example.com/1", UpdatedAt: now},
		{ID: cut.ID, Amount: decimal.RequireFromString("250.50"), UpdatedAt: now},
	} {
		n, err = q.AddProfitTransfer(ctx, transfer)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}

	got, err = q.GetDailyCut(ctx, cut.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CutStatusApproved, got.Status)
	assert.True(t, got.ProfitTransferred.Equal(decimal.RequireFromString("650.50")), got.ProfitTransferred.String())
	assert.Equal(t, "https://proofs.example.com/1", got.ProfitProofURL, "an empty proof url keeps the previous one")
	assert.Equal(t, "closing", got.Notes, "review without notes keeps the report notes")
	require.NotNil(t, got.ReviewedByID)
	assert.Equal(t, admin.ID, *got.ReviewedByID)

	report.ExpectedStatus = domain.CutStatusPendingReview
	n, err = q.UpdateDailyCutReport(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "an approved cut cannot be reported again")

	pending, err := q.ListDailyCuts(ctx, repository.ListDailyCutsParams{Status: domain.CutStatusPendingReview})
	require.NoError(t, err)
	assert.Empty(t, pending)

	approved, err := q.ListDailyCuts(ctx, repository.ListDailyCutsParams{OperatorID: &op.ID, Status: domain.CutStatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.True(t, approved[0].Date.Equal(day))

	all, err := q.ListDailyCuts(ctx, repository.ListDailyCutsParams{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReviewDailyCutStoresRejectionNotes(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	q := store.Queries()

	_, op := seedOperator(t, q)
	admin := seedAdmin(t, q)
	now := time.Now().UTC()

	cut := &models.DailyCut{
		ID: uuid.New(), OperatorID: op.ID, Date: time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
		StartingBalanceMXN: op.BalanceMXN, EndingBalanceMXN: op.BalanceMXN,
		Status: domain.CutStatusPendingReview, Notes: "submitted", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, q.InsertDailyCut(ctx, cut))

	notes := "ending balance does not match the bank statement"
	n, err := q.ReviewDailyCut(ctx, repository.ReviewDailyCutParams{
		ID: cut.ID, FromStatus: domain.CutStatusPendingReview, ToStatus: domain.CutStatusRejected,
		ReviewedByID: admin.ID, ReviewedAt: now, Notes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := q.GetDailyCut(ctx, cut.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CutStatusRejected, got.Status)
	assert.Equal(t, notes, got.Notes)

	// a resubmission clears the previous review
	n, err = q.UpdateDailyCutReport(ctx, repository.UpdateDailyCutReportParams{
		ID: cut.ID, ExpectedStatus: domain.CutStatusRejected, Status: domain.CutStatusPendingReview,
		EndingBalanceMXN: op.BalanceMXN, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err = q.GetDailyCut(ctx, cut.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReviewedByID)
	assert.Nil(t, got.ReviewedAt)
}

func TestSetOperatorBalances(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	q := store.Queries()

	_, op := seedOperator(t, q)

	n, err := q.SetOperatorBalances(ctx, repository.SetOperatorBalancesParams{
		ID: op.ID, BalanceMXN: decimal.RequireFromString("101000.00"), BalanceUSDT: decimal.RequireFromString("3.250000"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = q.SetOperatorBalances(ctx, repository.SetOperatorBalancesParams{ID: uuid.New(), BalanceMXN: decimal.Zero})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	got, err := q.GetOperator(ctx, op.ID)
	require.NoError(t, err)
	assert.True(t, got.BalanceMXN.Equal(decimal.RequireFromString("101000")))
	assert.True(t, got.BalanceUSDT.Equal(decimal.RequireFromString("3.25")))
	assert.True(t, got.AssignedFundMXN.Equal(op.AssignedFundMXN), "the assigned fund is untouched")
}
