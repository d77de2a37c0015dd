package service

import (
	"errors"
	"fmt"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func requireExactlyOne(rows int64, operation string) error {
	if rows != 1 {
		return fmt.Errorf("%s affected %d rows", operation, rows)
	}
	return nil
}

// notFound turns a missing row into domain.ErrNotFound and wraps anything else.
func notFound(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, repository.ErrNoRows) {
		return domain.NotFoundf("%s %s not found", entity, id)
	}
	return fmt.Errorf("load %s: %w", entity, err)
}

// checkTransition rejects status changes the lifecycle of entity does not allow.
func checkTransition(entity, current, next string) error {
	if !domain.CanTransition(entity, current, next) {
		return domain.InvalidStatef("%s is %s, cannot move to %s", entity, current, next)
	}
	return nil
}

// lostRace is returned when a conditional update matched no row after the
// status check passed: another writer moved the entity first.
func lostRace(entity string, id uuid.UUID) error {
	return domain.InvalidStatef("%s %s was modified concurrently", entity, id)
}

// normalizeRate rounds an optional rate. nil passes through.
func normalizeRate(rate *decimal.Decimal) (*decimal.Decimal, error) {
	if rate == nil {
		return nil, nil
	}
	rounded, err := domain.NormalizeRate(*rate)
	if err != nil {
		return nil, err
	}
	return &rounded, nil
}

func ptr[T any](v T) *T {
	return &v
}
