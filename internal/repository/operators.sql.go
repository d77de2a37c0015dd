package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (q *Queries) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, name, email, role, created_at) VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, user.ID, user.Name, user.Email, user.Role).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, name, email, role, created_at FROM users WHERE id = $1`
	err := q.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

const operatorColumns = `o.id, o.user_id, u.name, u.email, o.assigned_fund_mxn, o.balance_mxn, o.balance_usdt, o.is_active, o.created_at, o.updated_at`

func scanOperator(row pgx.Row) (*models.Operator, error) {
	var op models.Operator
	err := row.Scan(&op.ID, &op.UserID, &op.Name, &op.Email, &op.AssignedFundMXN, &op.BalanceMXN, &op.BalanceUSDT, &op.IsActive, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (q *Queries) CreateOperator(ctx context.Context, op *models.Operator) error {
	query := `
		INSERT INTO operators (id, user_id, assigned_fund_mxn, balance_mxn, balance_usdt, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at`
	err := q.db.QueryRow(ctx, query, op.ID, op.UserID, op.AssignedFundMXN, op.BalanceMXN, op.BalanceUSDT, op.IsActive).
		Scan(&op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

func (q *Queries) GetOperator(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators o JOIN users u ON u.id = o.user_id WHERE o.id = $1`
	return scanOperator(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetOperatorByUserID(ctx context.Context, userID uuid.UUID) (*models.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators o JOIN users u ON u.id = o.user_id WHERE o.user_id = $1`
	return scanOperator(q.db.QueryRow(ctx, query, userID))
}

// GetOperatorForUpdate locks the operator row until the surrounding transaction ends.
func (q *Queries) GetOperatorForUpdate(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators o JOIN users u ON u.id = o.user_id WHERE o.id = $1 FOR UPDATE OF o`
	return scanOperator(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) ListOperators(ctx context.Context) ([]models.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators o JOIN users u ON u.id = o.user_id ORDER BY o.created_at DESC`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}
	defer rows.Close()

	var operators []models.Operator
	for rows.Next() {
		op, err := scanOperator(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operator: %w", err)
		}
		operators = append(operators, *op)
	}
	return operators, rows.Err()
}

func (q *Queries) UpdateOperatorSettings(ctx context.Context, arg UpdateOperatorSettingsParams) (int64, error) {
	query := `
		UPDATE operators
		SET assigned_fund_mxn = COALESCE($2, assigned_fund_mxn),
		    is_active = COALESCE($3, is_active),
		    updated_at = NOW()
		WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, arg.ID, arg.AssignedFundMXN, arg.IsActive)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) AddOperatorBalances(ctx context.Context, arg AddOperatorBalancesParams) (int64, error) {
	query := `
		UPDATE operators
		SET balance_mxn = balance_mxn + $2,
		    balance_usdt = balance_usdt + $3,
		    updated_at = NOW()
		WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, arg.ID, arg.DeltaMXN, arg.DeltaUSDT)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) SetOperatorBalances(ctx context.Context, arg SetOperatorBalancesParams) (int64, error) {
	query := `UPDATE operators SET balance_mxn = $2, balance_usdt = $3, updated_at = NOW() WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, arg.ID, arg.BalanceMXN, arg.BalanceUSDT)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
