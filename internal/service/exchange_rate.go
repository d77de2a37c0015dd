package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/observability"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultRateHistoryPage = 50

// RateCache caches the active exchange rate. Get returns (nil, nil) on a miss.
type RateCache interface {
	Get(ctx context.Context) (*models.ExchangeRate, error)
	Set(ctx context.Context, rate *models.ExchangeRate) error
	Invalidate(ctx context.Context) error
}

// ExchangeRateService maintains the single active MXN/USDT rate and its history.
type ExchangeRateService struct {
	store    QueryStore
	audit    *AuditService
	cache    RateCache
	pageSize int
}

func NewExchangeRateService(store QueryStore, cache RateCache) *ExchangeRateService {
	return &ExchangeRateService{
		store:    store,
		audit:    NewAuditService(store),
		cache:    cache,
		pageSize: defaultRateHistoryPage,
	}
}

// WithPageSize sets how many rows RateHistory fetches per store round trip.
func (s *ExchangeRateService) WithPageSize(n int) *ExchangeRateService {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

type SetRateInput struct {
	SellRate decimal.Decimal
	BuyRate  *decimal.Decimal
	Notes    string
}

// SetRate deactivates every prior rate and inserts a new active one in a single transaction.
func (s *ExchangeRateService) SetRate(ctx context.Context, p models.Principal, in SetRateInput) (*models.ExchangeRate, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	sell, err := domain.NormalizeRate(in.SellRate)
	if err != nil {
		return nil, err
	}
	buy, err := normalizeRate(in.BuyRate)
	if err != nil {
		return nil, fmt.Errorf("buy rate: %w", err)
	}

	rate := &models.ExchangeRate{
		ID:       uuid.New(),
		SellRate: sell,
		BuyRate:  buy,
		SetByID:  p.UserID,
		Notes:    in.Notes,
		IsActive: true,
	}

	var replaced int64
	err = s.store.RunInTx(ctx, func(q repository.Querier) error {
		if err := q.LockExchangeRates(ctx); err != nil {
			return err
		}
		n, err := q.DeactivateExchangeRates(ctx)
		if err != nil {
			return fmt.Errorf("deactivate exchange rates: %w", err)
		}
		replaced = n
		if err := q.InsertExchangeRate(ctx, rate); err != nil {
			return err
		}
		return s.audit.Write(ctx, q, domain.EntityExchangeRate, rate.ID, &p.UserID, "set", "", "ACTIVE", map[string]any{
			"sell_rate": rate.SellRate.String(),
			"buy_rate":  rate.BuyRate,
			"replaced":  replaced,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			zap.L().Warn("invalidate rate cache", zap.Error(err))
		}
	}
	observability.IncrementWorkflowTransition(domain.EntityExchangeRate, "set")
	zap.L().Info("exchange rate set",
		zap.String("rate_id", rate.ID.String()),
		zap.String("sell_rate", rate.SellRate.String()),
		zap.String("actor_id", p.UserID.String()),
		zap.Int64("replaced", replaced),
	)
	return rate, nil
}

// CurrentRate returns the active rate, or nil when none was ever set.
func (s *ExchangeRateService) CurrentRate(ctx context.Context) (*models.ExchangeRate, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			observability.IncrementRateCache("error")
			zap.L().Warn("rate cache lookup failed", zap.Error(err))
		case cached != nil:
			observability.IncrementRateCache("hit")
			return cached, nil
		default:
			observability.IncrementRateCache("miss")
		}
	}

	rate, err := s.store.Queries().GetActiveExchangeRate(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active exchange rate: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rate); err != nil {
			zap.L().Warn("rate cache set failed", zap.Error(err))
		}
	}
	return rate, nil
}

// RequireCurrentRate is CurrentRate that fails with domain.ErrRateUnavailable when no rate is active.
func (s *ExchangeRateService) RequireCurrentRate(ctx context.Context) (*models.ExchangeRate, error) {
	rate, err := s.CurrentRate(ctx)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, domain.ErrRateUnavailable
	}
	return rate, nil
}

// RateHistory yields at most limit rates, newest first. Pages are fetched
// lazily and every range over the sequence queries the store again.
func (s *ExchangeRateService) RateHistory(ctx context.Context, limit int) iter.Seq2[models.ExchangeRate, error] {
	return func(yield func(models.ExchangeRate, error) bool) {
		var offset int
		for offset < limit {
			size := min(s.pageSize, limit-offset)
			page, err := s.store.Queries().ListExchangeRates(ctx, int32(size), int32(offset))
			if err != nil {
				yield(models.ExchangeRate{}, fmt.Errorf("list exchange rates: %w", err))
				return
			}
			for _, rate := range page {
				if !yield(rate, nil) {
					return
				}
			}
			if len(page) < size {
				return
			}
			offset += len(page)
		}
	}
}

// activeRate resolves the rate inside a running transaction.
func activeRate(ctx context.Context, q repository.Querier) (decimal.Decimal, error) {
	rate, err := q.GetActiveExchangeRate(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return decimal.Zero, domain.ErrRateUnavailable
		}
		return decimal.Zero, fmt.Errorf("get active exchange rate: %w", err)
	}
	return rate.SellRate, nil
}

// businessDay returns the calendar day of t in loc as midnight UTC.
func businessDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
