package memstore

import (
	"context"

	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/google/uuid"
)

func (v *view) CreateUser(ctx context.Context, user *models.User) error {
	st, done := v.begin()
	defer done()

	for _, u := range st.users.rows {
		if u.Email == user.Email {
			return uniqueErr("users_email_key")
		}
	}
	if _, ok := st.users.get(user.ID); ok {
		return uniqueErr("users_pkey")
	}
	user.CreatedAt = v.store.now()
	st.users.insert(user.ID, *user)
	return nil
}

func (v *view) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	st, done := v.begin()
	defer done()

	u, ok := st.users.get(id)
	if !ok {
		return nil, repository.ErrNoRows
	}
	out := *u
	return &out, nil
}

func (v *view) CreateOperator(ctx context.Context, op *models.Operator) error {
	st, done := v.begin()
	defer done()

	if _, ok := st.users.get(op.UserID); !ok {
		return repository.ErrNoRows
	}
	for _, o := range st.operators.rows {
		if o.UserID == op.UserID {
			return uniqueErr("operators_user_id_key")
		}
	}
	now := v.store.now()
	op.CreatedAt, op.UpdatedAt = now, now
	row := *op
	row.Name, row.Email = "", ""
	st.operators.insert(op.ID, row)
	return nil
}

// withUser fills the user columns the Postgres store joins in.
func withUser(st *state, op models.Operator) *models.Operator {
	if u, ok := st.users.get(op.UserID); ok {
		op.Name, op.Email = u.Name, u.Email
	}
	return &op
}

func (v *view) GetOperator(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	st, done := v.begin()
	defer done()

	op, ok := st.operators.get(id)
	if !ok {
		return nil, repository.ErrNoRows
	}
	return withUser(st, *op), nil
}

func (v *view) GetOperatorByUserID(ctx context.Context, userID uuid.UUID) (*models.Operator, error) {
	st, done := v.begin()
	defer done()

	for _, op := range st.operators.rows {
		if op.UserID == userID {
			return withUser(st, op), nil
		}
	}
	return nil, repository.ErrNoRows
}

// GetOperatorForUpdate needs no row lock: transactions already hold the store mutex.
func (v *view) GetOperatorForUpdate(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	return v.GetOperator(ctx, id)
}

func (v *view) ListOperators(ctx context.Context) ([]models.Operator, error) {
	st, done := v.begin()
	defer done()

	out := make([]models.Operator, 0, len(st.operators.rows))
	for i := len(st.operators.rows) - 1; i >= 0; i-- {
		out = append(out, *withUser(st, st.operators.rows[i]))
	}
	return out, nil
}

func (v *view) UpdateOperatorSettings(ctx context.Context, arg repository.UpdateOperatorSettingsParams) (int64, error) {
	st, done := v.begin()
	defer done()

	op, ok := st.operators.get(arg.ID)
	if !ok {
		return 0, nil
	}
	if arg.AssignedFundMXN != nil {
		op.AssignedFundMXN = *arg.AssignedFundMXN
	}
	if arg.IsActive != nil {
		op.IsActive = *arg.IsActive
	}
	op.UpdatedAt = v.store.now()
	return 1, nil
}

func (v *view) AddOperatorBalances(ctx context.Context, arg repository.AddOperatorBalancesParams) (int64, error) {
	st, done := v.begin()
	defer done()

	op, ok := st.operators.get(arg.ID)
	if !ok {
		return 0, nil
	}
	op.BalanceMXN = op.BalanceMXN.Add(arg.DeltaMXN)
	op.BalanceUSDT = op.BalanceUSDT.Add(arg.DeltaUSDT)
	op.UpdatedAt = v.store.now()
	return 1, nil
}

func (v *view) SetOperatorBalances(ctx context.Context, arg repository.SetOperatorBalancesParams) (int64, error) {
	st, done := v.begin()
	defer done()

	op, ok := st.operators.get(arg.ID)
	if !ok {
		return 0, nil
	}
	op.BalanceMXN = arg.BalanceMXN
	op.BalanceUSDT = arg.BalanceUSDT
	op.UpdatedAt = v.store.now()
	return 1, nil
}
