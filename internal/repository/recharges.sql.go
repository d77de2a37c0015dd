package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const rechargeColumns = `id, operator_id, amount_mxn, amount_usdt, exchange_rate, status, approved_by_id, approved_at, notes, created_at`

func scanRecharge(row pgx.Row) (*models.RechargeRequest, error) {
	var r models.RechargeRequest
	err := row.Scan(&r.ID, &r.OperatorID, &r.AmountMXN, &r.AmountUSDT, &r.ExchangeRate, &r.Status, &r.ApprovedByID, &r.ApprovedAt, &r.Notes, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (q *Queries) InsertRecharge(ctx context.Context, r *models.RechargeRequest) error {
	query := `
		INSERT INTO recharge_requests (id, operator_id, amount_mxn, amount_usdt, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.db.Exec(ctx, query, r.ID, r.OperatorID, r.AmountMXN, r.AmountUSDT, r.Status, r.Notes, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert recharge: %w", err)
	}
	return nil
}

func (q *Queries) GetRecharge(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error) {
	query := `SELECT ` + rechargeColumns + ` FROM recharge_requests WHERE id = $1`
	return scanRecharge(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) ApproveRecharge(ctx context.Context, arg ApproveRechargeParams) (int64, error) {
	query := `
		UPDATE recharge_requests
		SET status = $2, amount_usdt = $3, exchange_rate = $4, approved_by_id = $5, approved_at = $6
		WHERE id = $1 AND status = $7`
	tag, err := q.db.Exec(ctx, query,
		arg.ID, domain.RechargeStatusApproved, arg.AmountUSDT, arg.ExchangeRate,
		arg.ApprovedByID, arg.ApprovedAt, domain.RechargeStatusPending)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) RejectRecharge(ctx context.Context, arg RejectRechargeParams) (int64, error) {
	query := `
		UPDATE recharge_requests
		SET status = $2, notes = $3, approved_by_id = $4, approved_at = $5
		WHERE id = $1 AND status = $6`
	tag, err := q.db.Exec(ctx, query,
		arg.ID, domain.RechargeStatusRejected, arg.Notes, arg.ApprovedByID, arg.ApprovedAt, domain.RechargeStatusPending)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListRecharges(ctx context.Context, arg ListRechargesParams) ([]models.RechargeRequest, error) {
	query := `
		SELECT ` + rechargeColumns + `
		FROM recharge_requests
		WHERE ($1::uuid IS NULL OR operator_id = $1)
		  AND ($2::text = '' OR status = $2)
		ORDER BY created_at DESC, id DESC`
	rows, err := q.db.Query(ctx, query, arg.OperatorID, arg.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to list recharges: %w", err)
	}
	defer rows.Close()

	var out []models.RechargeRequest
	for rows.Next() {
		r, err := scanRecharge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recharge: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// SumApprovedRecharges totals recharges approved inside [From, To).
func (q *Queries) SumApprovedRecharges(ctx context.Context, arg SumApprovedRechargesParams) (RechargeTotals, error) {
	query := `
		SELECT COALESCE(SUM(amount_mxn), 0), COALESCE(SUM(amount_usdt), 0), COUNT(*)
		FROM recharge_requests
		WHERE operator_id = $1 AND status = $2 AND approved_at >= $3 AND approved_at < $4`
	var totals RechargeTotals
	err := q.db.QueryRow(ctx, query, arg.OperatorID, domain.RechargeStatusApproved, arg.From, arg.To).
		Scan(&totals.AmountMXN, &totals.AmountUSDT, &totals.Count)
	if err != nil {
		return RechargeTotals{}, fmt.Errorf("failed to sum recharges: %w", err)
	}
	return totals, nil
}
