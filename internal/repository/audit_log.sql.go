package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/google/uuid"
)

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) (int64, error) {
	query := `
		INSERT INTO audit_log (entity_type, entity_id, actor_id, action, prev_state, next_state, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int64
	err := q.db.QueryRow(ctx, query, arg.EntityType, arg.EntityID, arg.ActorID, arg.Action,
		arg.PrevState, arg.NextState, arg.Metadata).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (q *Queries) ListAuditLog(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	query := `
		SELECT id, entity_type, entity_id, actor_id, action,
		       COALESCE(prev_state, ''), COALESCE(next_state, ''), metadata, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY id`
	rows, err := q.db.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer rows.Close()

	var out []models.AuditLog
	for rows.Next() {
		var a models.AuditLog
		if err := rows.Scan(&a.ID, &a.EntityType, &a.EntityID, &a.ActorID, &a.Action,
			&a.PrevState, &a.NextState, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (q *Queries) CountReviewQueue(ctx context.Context) (ReviewQueueCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM recharge_requests WHERE status = $1),
			(SELECT COUNT(*) FROM daily_cuts WHERE status = $2),
			(SELECT COUNT(*) FROM loans WHERE status = $3)`
	var c ReviewQueueCounts
	err := q.db.QueryRow(ctx, query, domain.RechargeStatusPending, domain.CutStatusPendingReview, domain.LoanStatusActive).
		Scan(&c.PendingRecharges, &c.PendingCuts, &c.ActiveLoans)
	if err != nil {
		return ReviewQueueCounts{}, fmt.Errorf("count review queue: %w", err)
	}
	return c, nil
}
