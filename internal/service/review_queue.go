package service

import (
	"context"
	"fmt"

	"github.com/ayo6706/otc-ledger/internal/observability"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"go.uber.org/zap"
)

// ReviewQueueService publishes how much work is waiting for an administrator.
type ReviewQueueService struct {
	store QueryStore
}

func NewReviewQueueService(store QueryStore) *ReviewQueueService {
	return &ReviewQueueService{store: store}
}

// Run counts pending recharges, pending cuts and active loans and exports them as gauges.
func (s *ReviewQueueService) Run(ctx context.Context) (repository.ReviewQueueCounts, error) {
	counts, err := s.store.Queries().CountReviewQueue(ctx)
	if err != nil {
		return repository.ReviewQueueCounts{}, fmt.Errorf("count review queue: %w", err)
	}

	observability.SetReviewQueueSize("pending_recharges", counts.PendingRecharges)
	observability.SetReviewQueueSize("pending_cuts", counts.PendingCuts)
	observability.SetReviewQueueSize("active_loans", counts.ActiveLoans)

	if counts.PendingRecharges > 0 || counts.PendingCuts > 0 {
		zap.L().Debug("review queue",
			zap.Int64("pending_recharges", counts.PendingRecharges),
			zap.Int64("pending_cuts", counts.PendingCuts),
			zap.Int64("active_loans", counts.ActiveLoans),
		)
	}
	return counts, nil
}
