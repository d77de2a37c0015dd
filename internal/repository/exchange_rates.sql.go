package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/jackc/pgx/v5"
)

// exchangeRateLockID keys the advisory lock that serializes rate changes.
const exchangeRateLockID int64 = 7_220_418_100

const exchangeRateColumns = `id, sell_rate, buy_rate, set_by_id, notes, is_active, created_at`

func scanExchangeRate(row pgx.Row) (*models.ExchangeRate, error) {
	var r models.ExchangeRate
	if err := row.Scan(&r.ID, &r.SellRate, &r.BuyRate, &r.SetByID, &r.Notes, &r.IsActive, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// LockExchangeRates takes a transaction-scoped advisory lock so two concurrent
// rate changes cannot both deactivate-then-insert.
func (q *Queries) LockExchangeRates(ctx context.Context) error {
	if _, err := q.db.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, exchangeRateLockID); err != nil {
		return fmt.Errorf("lock exchange rates: %w", err)
	}
	return nil
}

func (q *Queries) DeactivateExchangeRates(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE exchange_rates SET is_active = FALSE WHERE is_active`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) InsertExchangeRate(ctx context.Context, rate *models.ExchangeRate) error {
	query := `
		INSERT INTO exchange_rates (id, sell_rate, buy_rate, set_by_id, notes, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING created_at`
	err := q.db.QueryRow(ctx, query, rate.ID, rate.SellRate, rate.BuyRate, rate.SetByID, rate.Notes, rate.IsActive).
		Scan(&rate.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert exchange rate: %w", err)
	}
	return nil
}

func (q *Queries) GetActiveExchangeRate(ctx context.Context) (*models.ExchangeRate, error) {
	query := `SELECT ` + exchangeRateColumns + ` FROM exchange_rates WHERE is_active ORDER BY created_at DESC LIMIT 1`
	return scanExchangeRate(q.db.QueryRow(ctx, query))
}

func (q *Queries) ListExchangeRates(ctx context.Context, limit, offset int32) ([]models.ExchangeRate, error) {
	query := `SELECT ` + exchangeRateColumns + ` FROM exchange_rates ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := q.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	defer rows.Close()

	var rates []models.ExchangeRate
	for rows.Next() {
		r, err := scanExchangeRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate: %w", err)
		}
		rates = append(rates, *r)
	}
	return rates, rows.Err()
}
