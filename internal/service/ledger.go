package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultTransactionPage = 50
	maxTransactionPage     = 500
)

// LedgerService appends and reads the immutable transaction trail.
type LedgerService struct {
	store QueryStore
	now   func() time.Time
}

func NewLedgerService(store QueryStore) *LedgerService {
	return &LedgerService{store: store, now: time.Now}
}

// WithClock overrides the clock used to stamp entries.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	s.now = now
	return s
}

// TransactionInput describes one balance delta. At most one origin reference may be set.
type TransactionInput struct {
	OperatorID   uuid.UUID
	Type         string
	AmountMXN    decimal.Decimal
	AmountUSDT   decimal.Decimal
	ExchangeRate *decimal.Decimal
	Description  string
	DailyCutID   *uuid.UUID
	LoanID       *uuid.UUID
	RechargeID   *uuid.UUID
}

func (in TransactionInput) validate() error {
	if !domain.IsTransactionType(in.Type) {
		return domain.Validationf("unknown transaction type %q", in.Type)
	}
	refs := 0
	for _, ref := range []*uuid.UUID{in.DailyCutID, in.LoanID, in.RechargeID} {
		if ref != nil {
			refs++
		}
	}
	if refs > 1 {
		return domain.Validationf("transaction may reference at most one origin")
	}
	if in.AmountMXN.IsZero() && in.AmountUSDT.IsZero() {
		return domain.Validationf("transaction must carry a non-zero amount")
	}
	return nil
}

// record appends a transaction inside the caller's atomic unit.
func (s *LedgerService) record(ctx context.Context, q repository.Querier, in TransactionInput) (*models.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	tx := &models.Transaction{
		ID:           uuid.New(),
		OperatorID:   in.OperatorID,
		Type:         in.Type,
		AmountMXN:    domain.RoundMXN(in.AmountMXN),
		AmountUSDT:   domain.RoundUSDT(in.AmountUSDT),
		ExchangeRate: in.ExchangeRate,
		Description:  in.Description,
		DailyCutID:   in.DailyCutID,
		LoanID:       in.LoanID,
		RechargeID:   in.RechargeID,
		CreatedAt:    s.now().UTC(),
	}
	if err := q.InsertTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("record %s transaction: %w", in.Type, err)
	}
	return tx, nil
}

// TransactionFilter narrows List. From is inclusive, To exclusive.
type TransactionFilter struct {
	OperatorID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// List returns transactions newest first. Operators only ever see their own.
func (s *LedgerService) List(ctx context.Context, p models.Principal, f TransactionFilter) ([]models.Transaction, error) {
	operatorID, err := scopeOperator(p, f.OperatorID)
	if err != nil {
		return nil, err
	}
	if f.Limit <= 0 {
		f.Limit = defaultTransactionPage
	}
	if f.Limit > maxTransactionPage {
		f.Limit = maxTransactionPage
	}
	if f.Offset < 0 {
		return nil, domain.Validationf("offset must not be negative")
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return nil, domain.Validationf("from must be before to")
	}

	txs, err := s.store.Queries().ListTransactions(ctx, repository.ListTransactionsParams{
		OperatorID: operatorID,
		From:       f.From,
		To:         f.To,
		Limit:      int32(f.Limit),
		Offset:     int32(f.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}
