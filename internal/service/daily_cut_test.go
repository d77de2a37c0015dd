package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitInput(opID uuid.UUID, endingMXN, endingUSDT string) SubmitCutInput {
	return SubmitCutInput{
		OperatorID:        opID,
		EndingBalanceMXN:  dec(endingMXN),
		EndingBalanceUSDT: dec(endingUSDT),
		TotalSalesMXN:     dec("0"),
		TotalSalesUSDT:    dec("0"),
	}
}

func TestDailyCutProfitAndApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000000")

	in := submitInput(op.ID, "1050000", "120.5")
	in.TotalSalesMXN = dec("350000")
	in.TotalSalesUSDT = dec("20000")
	cut, err := f.cuts.Submit(ctx, opPrincipal, in)
	require.NoError(t, err)
	assert.Equal(t, domain.CutStatusPendingReview, cut.Status)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), cut.Date)
	decEqual(t, "50000", cut.CalculatedProfitMXN)
	decEqual(t, "1000000", cut.StartingBalanceMXN)
	decEqual(t, "0", cut.StartingBalanceUSDT)
	decEqual(t, "0", cut.ProfitTransferred)
	decEqual(t, "1000000", f.operator(t, op.ID).BalanceMXN, "submission has no balance effect")

	pending, err := f.cuts.ListPending(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved, err := f.cuts.Approve(ctx, f.admin, cut.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CutStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedByID)
	assert.Equal(t, f.admin.UserID, *approved.ReviewedByID)
	require.NotNil(t, approved.ReviewedAt)

	after := f.operator(t, op.ID)
	decEqual(t, "1050000", after.BalanceMXN)
	decEqual(t, "120.5", after.BalanceUSDT)
	assert.Empty(t, f.transactions(t, op.ID), "approval overwrites balances without a ledger entry")

	history, err := NewAuditService(f.store).History(ctx, f.admin, domain.EntityDailyCut, cut.ID)
	require.NoError(t, err)
	var approval *models.AuditLog
	for i := range history {
		if history[i].Action == "approved" {
			approval = &history[i]
		}
	}
	require.NotNil(t, approval)
	var meta map[string]string
	require.NoError(t, json.Unmarshal(approval.Metadata, &meta))
	assert.Equal(t, "1000000", meta["previous_balance_mxn"])
	assert.Equal(t, "1050000", meta["balance_mxn"])
}

func TestDailyCutNegativeProfit(t *testing.T) {
	f := newFixture(t)
	op, opPrincipal := f.seedOperator(t, "1000000")

	cut, err := f.cuts.Submit(context.Background(), opPrincipal, submitInput(op.ID, "990000.50", "0"))
	require.NoError(t, err)
	decEqual(t, "-9999.50", cut.CalculatedProfitMXN)
}

func TestDailyCutProfitIgnoresUSDTAndRate(t *testing.T) {
	f := newFixture(t)
	op, opPrincipal := f.seedOperator(t, "1000")

	in := submitInput(op.ID, "1000", "5000")
	rate := dec("17.5")
	in.ExchangeRate = &rate
	cut, err := f.cuts.Submit(context.Background(), opPrincipal, in)
	require.NoError(t, err)
	decEqual(t, "0", cut.CalculatedProfitMXN)
	require.NotNil(t, cut.ExchangeRate)
	decEqual(t, "17.5", *cut.ExchangeRate)
}

func TestDailyCutResubmitOverwritesReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000")
	first, err := f.cuts.Submit(ctx, opPrincipal, submitInput(op.ID, "1100", "0"))
	require.NoError(t, err)

	amount := dec("400")
	_, err = f.loans.Create(ctx, opPrincipal, CreateLoanInput{OperatorID: op.ID, AmountMXN: &amount, Reason: "x"})
	require.NoError(t, err)
	f.advance(time.Hour)

	second, err := f.cuts.Submit(ctx, opPrincipal, submitInput(op.ID, "1250", "0"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	decEqual(t, "250", second.CalculatedProfitMXN)
	decEqual(t, "1000", second.StartingBalanceMXN, "starting balance is captured once")

	all, err := f.cuts.List(ctx, opPrincipal, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDailyCutReviewRequiresPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000")
	draft, err := f.cuts.SaveDraft(ctx, opPrincipal, submitInput(op.ID, "1200", "0"))
	require.NoError(t, err)
	assert.Equal(t, domain.CutStatusDraft, draft.Status)

	_, err = f.cuts.Approve(ctx, f.admin, draft.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.cuts.Reject(ctx, f.admin, draft.ID, "")
	require.ErrorIs(t, err, domain.ErrInvalidState)
	decEqual(t, "1000", f.operator(t, op.ID).BalanceMXN)

	submitted, err := f.cuts.Submit(ctx, opPrincipal, submitInput(op.ID, "1200", "0"))
	require.NoError(t, err)
	assert.Equal(t, draft.ID, submitted.ID)

	_, err = f.cuts.SaveDraft(ctx, opPrincipal, submitInput(op.ID, "1200", "0"))
	require.ErrorIs(t, err, domain.ErrInvalidState, "a cut under review cannot go back to draft")

	_, err = f.cuts.Approve(ctx, opPrincipal, submitted.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.cuts.Approve(ctx, f.admin, submitted.ID)
	require.NoError(t, err)
	_, err = f.cuts.Approve(ctx, f.admin, submitted.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.cuts.Submit(ctx, opPrincipal, submitInput(op.ID, "1300", "0"))
	require.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.cuts.SaveDraft(ctx, opPrincipal, submitInput(op.ID, "1300", "0"))
	require.ErrorIs(t, err, domain.ErrInvalidState)
	decEqual(t, "1200", f.operator(t, op.ID).BalanceMXN)
}

func TestDailyCutRejectThenResubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000")
	cut, err := f.cuts.Submit(ctx, opPrincipal, submitInput(op.ID, "5000", "0"))
	require.NoError(t, err)

	rejected, err := f.cuts.Reject(ctx, f.admin, cut.ID, "ending balance looks wrong")
	require.NoError(t, err)
	assert.Equal(t, domain.CutStatusRejected, rejected.Status)
	assert.Equal(t, "ending balance looks wrong", rejected.Notes)
	decEqual(t, "1000", f.operator(t, op.ID).BalanceMXN)

	_, err = f.cuts.Reject(ctx, f.admin, cut.ID, "")
	require.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.cuts.Approve(ctx, f.admin, cut.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	draft, err := f.cuts.SaveDraft(ctx, opPrincipal, submitInput(op.ID, "1500", "0"))
	require.NoError(t, err)
	assert.Equal(t, cut.ID, draft.ID)
	assert.Equal(t, domain.CutStatusDraft, draft.Status)

	resubmitted, err := f.cuts.Submit(ctx, opPrincipal, submitInput(op.ID, "1500", "0"))
	require.NoError(t, err)
	assert.Equal(t, domain.CutStatusPendingReview, resubmitted.Status)
	decEqual(t, "500", resubmitted.CalculatedProfitMXN)
}

func TestDailyCutRechargeTotalsUseBusinessDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000000")
	rate := dec("20")
	approveAt := func(at time.Time, amount string) {
		f.now = at
		r, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec(amount)})
		require.NoError(t, err)
		_, err = f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: r.ID, ExchangeRate: &rate})
		require.NoError(t, err)
	}

	// 2024-03-05 in business time runs from 06:00 UTC to 06:00 UTC the next day.
	approveAt(time.Date(2024, 3, 5, 5, 59, 0, 0, time.UTC), "100")
	approveAt(time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC), "200")
	approveAt(time.Date(2024, 3, 6, 5, 59, 0, 0, time.UTC), "400")
	approveAt(time.Date(2024, 3, 6, 6, 0, 0, 0, time.UTC), "800")

	in := submitInput(op.ID, "998500", "75")
	in.Date = ptr(time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC))
	cut, err := f.cuts.Submit(ctx, opPrincipal, in)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), cut.Date)
	decEqual(t, "600", cut.TotalRechargesMXN)
	decEqual(t, "30", cut.TotalRechargesUSDT)
}

func TestDailyCutTodayFollowsBusinessZone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000")
	_, err := f.cuts.Today(ctx, opPrincipal, op.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// 03:00 UTC on the 6th is still the 5th in business time.
	f.now = time.Date(2024, 3, 6, 3, 0, 0, 0, time.UTC)
	cut, err := f.cuts.Submit(ctx, opPrincipal, submitInput(op.ID, "1000", "0"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), cut.Date)

	today, err := f.cuts.Today(ctx, opPrincipal, op.ID)
	require.NoError(t, err)
	assert.Equal(t, cut.ID, today.ID)

	_, otherPrincipal := f.seedOperator(t, "1000")
	_, err = f.cuts.Today(ctx, otherPrincipal, op.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestDailyCutValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000")
	_, otherPrincipal := f.seedOperator(t, "1000")

	_, err := f.cuts.Submit(ctx, opPrincipal, submitInput(op.ID, "-1", "0"))
	require.ErrorIs(t, err, domain.ErrValidation)

	in := submitInput(op.ID, "1000", "0")
	zero := dec("0")
	in.ExchangeRate = &zero
	_, err = f.cuts.Submit(ctx, opPrincipal, in)
	require.ErrorIs(t, err, domain.ErrInvalidRate)

	_, err = f.cuts.Submit(ctx, otherPrincipal, submitInput(op.ID, "1000", "0"))
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.cuts.Submit(ctx, f.admin, submitInput(op.ID, "1000", "0"))
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.cuts.Approve(ctx, f.admin, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegisterProfitTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000000")
	cut, err := f.cuts.Submit(ctx, opPrincipal, submitInput(op.ID, "1050000", "0"))
	require.NoError(t, err)

	_, err = f.cuts.RegisterTransfer(ctx, opPrincipal, RegisterTransferInput{CutID: cut.ID, Amount: dec("100")})
	require.ErrorIs(t, err, domain.ErrInvalidState, "cut must be approved first")

	_, err = f.cuts.Approve(ctx, f.admin, cut.ID)
	require.NoError(t, err)

	_, err = f.cuts.RegisterTransfer(ctx, opPrincipal, RegisterTransferInput{CutID: cut.ID, Amount: dec("0")})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, otherPrincipal := f.seedOperator(t, "1")
	_, err = f.cuts.RegisterTransfer(ctx, otherPrincipal, RegisterTransferInput{CutID: cut.ID, Amount: dec("1")})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	updated, err := f.cuts.RegisterTransfer(ctx, opPrincipal, RegisterTransferInput{CutID: cut.ID, Amount: dec("30000"), ProofURL: "https://example.com/proof/1"})
	require.NoError(t, err)
	decEqual(t, "30000", updated.ProfitTransferred)
	assert.Equal(t, "https://example.com/proof/1", updated.ProfitProofURL)

	updated, err = f.cuts.RegisterTransfer(ctx, f.admin, RegisterTransferInput{CutID: cut.ID, Amount: dec("20000")})
	require.NoError(t, err)
	decEqual(t, "50000", updated.ProfitTransferred)

	decEqual(t, "1000000", f.operator(t, op.ID).BalanceMXN)
	txs := f.transactions(t, op.ID)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, domain.TxTypeProfitWithdrawal, tx.Type)
		require.NotNil(t, tx.DailyCutID)
		assert.Equal(t, cut.ID, *tx.DailyCutID)
	}
}
