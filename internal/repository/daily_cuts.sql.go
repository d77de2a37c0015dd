package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const dailyCutColumns = `id, operator_id, cut_date,
	starting_balance_mxn, starting_balance_usdt, ending_balance_mxn, ending_balance_usdt,
	total_sales_mxn, total_sales_usdt, total_recharges_mxn, total_recharges_usdt,
	calculated_profit_mxn, exchange_rate, profit_transferred, profit_proof_url,
	status, reviewed_by_id, reviewed_at, notes, created_at, updated_at`

func scanDailyCut(row pgx.Row) (*models.DailyCut, error) {
	var c models.DailyCut
	err := row.Scan(&c.ID, &c.OperatorID, &c.Date,
		&c.StartingBalanceMXN, &c.StartingBalanceUSDT, &c.EndingBalanceMXN, &c.EndingBalanceUSDT,
		&c.TotalSalesMXN, &c.TotalSalesUSDT, &c.TotalRechargesMXN, &c.TotalRechargesUSDT,
		&c.CalculatedProfitMXN, &c.ExchangeRate, &c.ProfitTransferred, &c.ProfitProofURL,
		&c.Status, &c.ReviewedByID, &c.ReviewedAt, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Date = time.Date(c.Date.Year(), c.Date.Month(), c.Date.Day(), 0, 0, 0, 0, time.UTC)
	return &c, nil
}

func (q *Queries) GetDailyCut(ctx context.Context, id uuid.UUID) (*models.DailyCut, error) {
	query := `SELECT ` + dailyCutColumns + ` FROM daily_cuts WHERE id = $1`
	return scanDailyCut(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetDailyCutByOperatorDate(ctx context.Context, operatorID uuid.UUID, date time.Time) (*models.DailyCut, error) {
	query := `SELECT ` + dailyCutColumns + ` FROM daily_cuts WHERE operator_id = $1 AND cut_date = $2::date`
	return scanDailyCut(q.db.QueryRow(ctx, query, operatorID, date.Format(time.DateOnly)))
}

func (q *Queries) InsertDailyCut(ctx context.Context, c *models.DailyCut) error {
	query := `
		INSERT INTO daily_cuts (
			id, operator_id, cut_date,
			starting_balance_mxn, starting_balance_usdt, ending_balance_mxn, ending_balance_usdt,
			total_sales_mxn, total_sales_usdt, total_recharges_mxn, total_recharges_usdt,
			calculated_profit_mxn, exchange_rate, profit_transferred, profit_proof_url,
			status, notes, created_at, updated_at
		) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := q.db.Exec(ctx, query,
		c.ID, c.OperatorID, c.Date.Format(time.DateOnly),
		c.StartingBalanceMXN, c.StartingBalanceUSDT, c.EndingBalanceMXN, c.EndingBalanceUSDT,
		c.TotalSalesMXN, c.TotalSalesUSDT, c.TotalRechargesMXN, c.TotalRechargesUSDT,
		c.CalculatedProfitMXN, c.ExchangeRate, c.ProfitTransferred, c.ProfitProofURL,
		c.Status, c.Notes, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert daily cut: %w", err)
	}
	return nil
}

func (q *Queries) UpdateDailyCutReport(ctx context.Context, arg UpdateDailyCutReportParams) (int64, error) {
	query := `
		UPDATE daily_cuts
		SET status = $3,
		    ending_balance_mxn = $4, ending_balance_usdt = $5,
		    total_sales_mxn = $6, total_sales_usdt = $7,
		    total_recharges_mxn = $8, total_recharges_usdt = $9,
		    calculated_profit_mxn = $10, exchange_rate = $11,
		    notes = $12, updated_at = $13,
		    reviewed_by_id = NULL, reviewed_at = NULL
		WHERE id = $1 AND status = $2`
	tag, err := q.db.Exec(ctx, query,
		arg.ID, arg.ExpectedStatus, arg.Status,
		arg.EndingBalanceMXN, arg.EndingBalanceUSDT,
		arg.TotalSalesMXN, arg.TotalSalesUSDT,
		arg.TotalRechargesMXN, arg.TotalRechargesUSDT,
		arg.CalculatedProfitMXN, arg.ExchangeRate,
		arg.Notes, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ReviewDailyCut(ctx context.Context, arg ReviewDailyCutParams) (int64, error) {
	query := `
		UPDATE daily_cuts
		SET status = $3, reviewed_by_id = $4, reviewed_at = $5, updated_at = $5,
		    notes = COALESCE($6, notes)
		WHERE id = $1 AND status = $2`
	tag, err := q.db.Exec(ctx, query, arg.ID, arg.FromStatus, arg.ToStatus, arg.ReviewedByID, arg.ReviewedAt, arg.Notes)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// AddProfitTransfer accumulates a transferred amount on an APPROVED cut.
func (q *Queries) AddProfitTransfer(ctx context.Context, arg AddProfitTransferParams) (int64, error) {
	query := `
		UPDATE daily_cuts
		SET profit_transferred = profit_transferred + $2,
		    profit_proof_url = CASE WHEN $3::text = '' THEN profit_proof_url ELSE $3 END,
		    updated_at = $4
		WHERE id = $1 AND status = $5`
	tag, err := q.db.Exec(ctx, query, arg.ID, arg.Amount, arg.ProofURL, arg.UpdatedAt, domain.CutStatusApproved)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListDailyCuts(ctx context.Context, arg ListDailyCutsParams) ([]models.DailyCut, error) {
	query := `
		SELECT ` + dailyCutColumns + `
		FROM daily_cuts
		WHERE ($1::uuid IS NULL OR operator_id = $1)
		  AND ($2::text = '' OR status = $2)
		ORDER BY cut_date DESC, created_at DESC`
	rows, err := q.db.Query(ctx, query, arg.OperatorID, arg.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily cuts: %w", err)
	}
	defer rows.Close()

	var out []models.DailyCut
	for rows.Next() {
		c, err := scanDailyCut(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily cut: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
