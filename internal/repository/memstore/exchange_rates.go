package memstore

import (
	"context"

	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/repository"
)

func (v *view) LockExchangeRates(ctx context.Context) error {
	return ctx.Err()
}

func (v *view) DeactivateExchangeRates(ctx context.Context) (int64, error) {
	st, done := v.begin()
	defer done()

	var n int64
	for i := range st.rates.rows {
		if st.rates.rows[i].IsActive {
			st.rates.rows[i].IsActive = false
			n++
		}
	}
	return n, nil
}

func (v *view) InsertExchangeRate(ctx context.Context, rate *models.ExchangeRate) error {
	st, done := v.begin()
	defer done()

	if rate.IsActive {
		for _, r := range st.rates.rows {
			if r.IsActive {
				return uniqueErr("exchange_rates_single_active")
			}
		}
	}
	rate.CreatedAt = v.store.now()
	st.rates.insert(rate.ID, *rate)
	return nil
}

func (v *view) GetActiveExchangeRate(ctx context.Context) (*models.ExchangeRate, error) {
	st, done := v.begin()
	defer done()

	for i := len(st.rates.rows) - 1; i >= 0; i-- {
		if st.rates.rows[i].IsActive {
			out := st.rates.rows[i]
			return &out, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (v *view) ListExchangeRates(ctx context.Context, limit, offset int32) ([]models.ExchangeRate, error) {
	st, done := v.begin()
	defer done()

	var out []models.ExchangeRate
	skipped := int32(0)
	for i := len(st.rates.rows) - 1; i >= 0 && int32(len(out)) < limit; i-- {
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, st.rates.rows[i])
	}
	return out, nil
}
