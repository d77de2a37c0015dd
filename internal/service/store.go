package service

import (
	"context"

	"github.com/ayo6706/otc-ledger/internal/repository"
)

// QueryStore defines the minimal data access contract required by services.
// Inside RunInTx callers must use the Querier they are handed.
type QueryStore interface {
	Queries() repository.Querier
	RunInTx(ctx context.Context, fn func(q repository.Querier) error) error
}
