package service

import (
	"context"
	"testing"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRechargeApprovalMovesBothBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000000")
	f.setRate(t, "17.50")

	recharge, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec("175000")})
	require.NoError(t, err)
	assert.Equal(t, domain.RechargeStatusPending, recharge.Status)
	decEqual(t, "0", recharge.AmountUSDT)
	decEqual(t, "1000000", f.operator(t, op.ID).BalanceMXN, "creation has no balance effect")

	rate := dec("17.50")
	approved, err := f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: recharge.ID, ExchangeRate: &rate})
	require.NoError(t, err)
	assert.Equal(t, domain.RechargeStatusApproved, approved.Status)
	decEqual(t, "10000", approved.AmountUSDT)
	require.NotNil(t, approved.ExchangeRate)
	decEqual(t, "17.5", *approved.ExchangeRate)
	require.NotNil(t, approved.ApprovedByID)
	assert.Equal(t, f.admin.UserID, *approved.ApprovedByID)
	require.NotNil(t, approved.ApprovedAt)

	after := f.operator(t, op.ID)
	decEqual(t, "825000", after.BalanceMXN)
	decEqual(t, "10000", after.BalanceUSDT)

	txs := f.transactions(t, op.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.TxTypeRechargeUSDT, txs[0].Type)
	decEqual(t, "-175000", txs[0].AmountMXN)
	decEqual(t, "10000", txs[0].AmountUSDT)
	require.NotNil(t, txs[0].RechargeID)
	assert.Equal(t, recharge.ID, *txs[0].RechargeID)
	assert.NotEmpty(t, txs[0].Description)
}

func TestRechargeApprovalRoundsUSDT(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000")
	recharge, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec("100")})
	require.NoError(t, err)

	rate := dec("17.3")
	approved, err := f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: recharge.ID, ExchangeRate: &rate})
	require.NoError(t, err)
	decEqual(t, "5.780347", approved.AmountUSDT)
	decEqual(t, "5.780347", f.operator(t, op.ID).BalanceUSDT)
}

func TestRechargeApprovalUsesActiveRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000000")
	recharge, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec("17500")})
	require.NoError(t, err)

	_, err = f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: recharge.ID})
	require.ErrorIs(t, err, domain.ErrRateUnavailable)
	decEqual(t, "1000000", f.operator(t, op.ID).BalanceMXN)
	assert.Empty(t, f.transactions(t, op.ID))

	f.setRate(t, "17.50")
	approved, err := f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: recharge.ID})
	require.NoError(t, err)
	decEqual(t, "1000", approved.AmountUSDT)
}

func TestRechargeApprovalRejectsInvalidRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000000")
	recharge, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec("175000")})
	require.NoError(t, err)

	for _, r := range []string{"0", "-17.5"} {
		rate := dec(r)
		_, err := f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: recharge.ID, ExchangeRate: &rate})
		require.ErrorIs(t, err, domain.ErrInvalidRate, r)
		require.ErrorIs(t, err, domain.ErrValidation, r)
	}

	got, err := f.recharges.Get(ctx, f.admin, recharge.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RechargeStatusPending, got.Status)
	assert.Nil(t, got.ExchangeRate)
	decEqual(t, "1000000", f.operator(t, op.ID).BalanceMXN)
	decEqual(t, "0", f.operator(t, op.ID).BalanceUSDT)
	assert.Empty(t, f.transactions(t, op.ID))
}

func TestRechargeTransitionsAreTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000000")
	rate := dec("17.5")

	approvedReq, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec("1750")})
	require.NoError(t, err)
	_, err = f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: approvedReq.ID, ExchangeRate: &rate})
	require.NoError(t, err)

	before := f.operator(t, op.ID)

	_, err = f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: approvedReq.ID, ExchangeRate: &rate})
	require.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.recharges.Reject(ctx, f.admin, RejectRechargeInput{RechargeID: approvedReq.ID})
	require.ErrorIs(t, err, domain.ErrInvalidState)

	rejectedReq, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec("500")})
	require.NoError(t, err)
	rejected, err := f.recharges.Reject(ctx, f.admin, RejectRechargeInput{RechargeID: rejectedReq.ID, Notes: "payment not received"})
	require.NoError(t, err)
	assert.Equal(t, domain.RechargeStatusRejected, rejected.Status)
	assert.Equal(t, "payment not received", rejected.Notes)
	require.NotNil(t, rejected.ApprovedByID)

	_, err = f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: rejectedReq.ID, ExchangeRate: &rate})
	require.ErrorIs(t, err, domain.ErrInvalidState)

	after := f.operator(t, op.ID)
	assert.True(t, before.BalanceMXN.Equal(after.BalanceMXN))
	assert.True(t, before.BalanceUSDT.Equal(after.BalanceUSDT))
	assert.Len(t, f.transactions(t, op.ID), 1)
}

func TestRechargeAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000")
	other, otherPrincipal := f.seedOperator(t, "1000")

	_, err := f.recharges.Create(ctx, otherPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec("10")})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.recharges.Create(ctx, f.admin, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec("10")})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	recharge, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec("10")})
	require.NoError(t, err)

	rate := dec("17.5")
	_, err = f.recharges.Approve(ctx, opPrincipal, ApproveRechargeInput{RechargeID: recharge.ID, ExchangeRate: &rate})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.recharges.Reject(ctx, opPrincipal, RejectRechargeInput{RechargeID: recharge.ID})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.recharges.Get(ctx, otherPrincipal, recharge.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.recharges.List(ctx, otherPrincipal, &op.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	own, err := f.recharges.List(ctx, otherPrincipal, nil)
	require.NoError(t, err)
	assert.Empty(t, own)

	inactive := false
	_, err = f.operators.Update(ctx, f.admin, UpdateOperatorInput{OperatorID: other.ID, IsActive: &inactive})
	require.NoError(t, err)
	_, err = f.recharges.Create(ctx, otherPrincipal, CreateRechargeInput{OperatorID: other.ID, AmountMXN: dec("10")})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRechargeValidationAndNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000")
	for _, amount := range []string{"0", "-5", "0.001"} {
		_, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec(amount)})
		require.ErrorIs(t, err, domain.ErrValidation, amount)
	}

	rate := dec("17.5")
	_, err := f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: uuid.New(), ExchangeRate: &rate})
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.recharges.Reject(ctx, f.admin, RejectRechargeInput{RechargeID: uuid.New()})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRechargeListsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "100000")
	var ids []uuid.UUID
	for _, amount := range []string{"100", "200", "300"} {
		r, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec(amount)})
		require.NoError(t, err)
		ids = append(ids, r.ID)
		f.advance(1e9)
	}
	_, err := f.recharges.Reject(ctx, f.admin, RejectRechargeInput{RechargeID: ids[1]})
	require.NoError(t, err)

	all, err := f.recharges.List(ctx, f.admin, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	pending, err := f.recharges.ListPending(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[2], pending[0].ID)
	assert.Equal(t, ids[0], pending[1].ID)
}

func TestRechargeTransitionsAreAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "50000")
	f.setRate(t, "18")
	recharge, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec("1800")})
	require.NoError(t, err)
	_, err = f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: recharge.ID})
	require.NoError(t, err)

	history, err := NewAuditService(f.store).History(ctx, f.admin, domain.EntityRecharge, recharge.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "created", history[0].Action)
	assert.Equal(t, "approved", history[1].Action)
	assert.Equal(t, domain.RechargeStatusPending, history[1].PrevState)
	assert.Equal(t, domain.RechargeStatusApproved, history[1].NextState)
	assert.JSONEq(t, `{"exchange_rate":"18","amount_usdt":"100"}`, string(history[1].Metadata))

	_, err = NewAuditService(f.store).History(ctx, opPrincipal, domain.EntityRecharge, recharge.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRechargeApprovalRejectsRateRoundingToZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	op, opPrincipal := f.seedOperator(t, "1000")
	recharge, err := f.recharges.Create(ctx, opPrincipal, CreateRechargeInput{OperatorID: op.ID, AmountMXN: dec("100")})
	require.NoError(t, err)

	tiny := dec("0.0000001")
	_, err = f.recharges.Approve(ctx, f.admin, ApproveRechargeInput{RechargeID: recharge.ID, ExchangeRate: &tiny})
	require.ErrorIs(t, err, domain.ErrInvalidRate)
	decEqual(t, "0", f.operator(t, op.ID).BalanceUSDT)
}
