package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/otc-ledger/internal/models"
)

func (q *Queries) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, operator_id, type, amount_mxn, amount_usdt, exchange_rate, description,
		                          daily_cut_id, loan_id, recharge_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := q.db.Exec(ctx, query, tx.ID, tx.OperatorID, tx.Type, tx.AmountMXN, tx.AmountUSDT, tx.ExchangeRate,
		tx.Description, tx.DailyCutID, tx.LoanID, tx.RechargeID, tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]models.Transaction, error) {
	query := `
		SELECT id, operator_id, type, amount_mxn, amount_usdt, exchange_rate, description,
		       daily_cut_id, loan_id, recharge_id, created_at
		FROM transactions
		WHERE ($1::uuid IS NULL OR operator_id = $1)
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`
	rows, err := q.db.Query(ctx, query, arg.OperatorID, arg.From, arg.To, arg.Limit, arg.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.OperatorID, &t.Type, &t.AmountMXN, &t.AmountUSDT, &t.ExchangeRate,
			&t.Description, &t.DailyCutID, &t.LoanID, &t.RechargeID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
