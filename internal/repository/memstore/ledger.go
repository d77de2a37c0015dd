package memstore

import (
	"context"
	"slices"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/google/uuid"
)

func (v *view) InsertTransaction(ctx context.Context, tx *models.Transaction) error {
	st, done := v.begin()
	defer done()

	if _, ok := st.operators.get(tx.OperatorID); !ok {
		return repository.ErrNoRows
	}
	if _, ok := st.transactions.get(tx.ID); ok {
		return uniqueErr("transactions_pkey")
	}
	tx.CreatedAt = v.stamp(tx.CreatedAt)
	st.transactions.insert(tx.ID, *tx)
	return nil
}

func (v *view) ListTransactions(ctx context.Context, arg repository.ListTransactionsParams) ([]models.Transaction, error) {
	st, done := v.begin()
	defer done()

	var matched []models.Transaction
	for i := len(st.transactions.rows) - 1; i >= 0; i-- {
		t := st.transactions.rows[i]
		if arg.OperatorID != nil && *arg.OperatorID != t.OperatorID {
			continue
		}
		if arg.From != nil && t.CreatedAt.Before(*arg.From) {
			continue
		}
		if arg.To != nil && !t.CreatedAt.Before(*arg.To) {
			continue
		}
		matched = append(matched, t)
	}
	slices.SortStableFunc(matched, func(a, b models.Transaction) int { return b.CreatedAt.Compare(a.CreatedAt) })

	start := min(int(arg.Offset), len(matched))
	end := min(start+int(arg.Limit), len(matched))
	return matched[start:end], nil
}

func (v *view) InsertAuditLog(ctx context.Context, arg repository.InsertAuditLogParams) (int64, error) {
	st, done := v.begin()
	defer done()

	st.auditSeq++
	row := models.AuditLog{
		ID:         st.auditSeq,
		EntityType: arg.EntityType,
		EntityID:   arg.EntityID,
		ActorID:    arg.ActorID,
		Action:     arg.Action,
		Metadata:   slices.Clone(arg.Metadata),
		CreatedAt:  v.store.now(),
	}
	if arg.PrevState != nil {
		row.PrevState = *arg.PrevState
	}
	if arg.NextState != nil {
		row.NextState = *arg.NextState
	}
	st.audit = append(st.audit, row)
	return row.ID, nil
}

func (v *view) ListAuditLog(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	st, done := v.begin()
	defer done()

	var out []models.AuditLog
	for _, a := range st.audit {
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (v *view) CountReviewQueue(ctx context.Context) (repository.ReviewQueueCounts, error) {
	st, done := v.begin()
	defer done()

	var c repository.ReviewQueueCounts
	for _, r := range st.recharges.rows {
		if r.Status == domain.RechargeStatusPending {
			c.PendingRecharges++
		}
	}
	for _, cut := range st.cuts.rows {
		if cut.Status == domain.CutStatusPendingReview {
			c.PendingCuts++
		}
	}
	for _, l := range st.loans.rows {
		if l.Status == domain.LoanStatusActive {
			c.ActiveLoans++
		}
	}
	return c, nil
}

func (v *view) GetIdempotencyKey(ctx context.Context, key string) (repository.IdempotencyKey, error) {
	st, done := v.begin()
	defer done()

	k, ok := st.idempotency[key]
	if !ok {
		return repository.IdempotencyKey{}, repository.ErrNoRows
	}
	return k, nil
}

func (v *view) ReserveIdempotencyKey(ctx context.Context, arg repository.ReserveIdempotencyKeyParams) (bool, error) {
	st, done := v.begin()
	defer done()

	if _, ok := st.idempotency[arg.IdempotencyKey]; ok {
		return false, nil
	}
	st.idempotency[arg.IdempotencyKey] = repository.IdempotencyKey{
		IdempotencyKey: arg.IdempotencyKey,
		RequestHash:    arg.RequestHash,
		Method:         arg.Method,
		Path:           arg.Path,
		ContentType:    "application/json",
		InProgress:     true,
	}
	return true, nil
}

func (v *view) FinalizeIdempotencyKey(ctx context.Context, arg repository.FinalizeIdempotencyKeyParams) (repository.IdempotencyKey, error) {
	st, done := v.begin()
	defer done()

	k, ok := st.idempotency[arg.IdempotencyKey]
	if !ok || k.RequestHash != arg.RequestHash {
		return repository.IdempotencyKey{}, repository.ErrNoRows
	}
	k.ResponseStatus = arg.ResponseStatus
	k.ResponseBody = slices.Clone(arg.ResponseBody)
	k.ContentType = arg.ContentType
	k.InProgress = false
	st.idempotency[arg.IdempotencyKey] = k
	return k, nil
}

func (v *view) ReleaseIdempotencyKey(ctx context.Context, key, requestHash string) (int64, error) {
	st, done := v.begin()
	defer done()

	k, ok := st.idempotency[key]
	if !ok || k.RequestHash != requestHash || !k.InProgress {
		return 0, nil
	}
	delete(st.idempotency, key)
	return 1, nil
}
