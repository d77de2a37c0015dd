package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/observability"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DailyCutService runs the daily reconciliation workflow.
//
// Profit is always endingBalanceMXN - assignedFundMXN. A rate supplied with a
// cut is stored for reference only and never folds USDT into the profit.
type DailyCutService struct {
	store  QueryStore
	ledger *LedgerService
	audit  *AuditService
	loc    *time.Location
	now    func() time.Time
}

func NewDailyCutService(store QueryStore, ledger *LedgerService, loc *time.Location) *DailyCutService {
	if loc == nil {
		loc = time.UTC
	}
	return &DailyCutService{
		store:  store,
		ledger: ledger,
		audit:  NewAuditService(store),
		loc:    loc,
		now:    time.Now,
	}
}

// WithClock overrides the clock used for "today" and review timestamps.
func (s *DailyCutService) WithClock(now func() time.Time) *DailyCutService {
	s.now = now
	return s
}

// SubmitCutInput carries the operator-reported figures. Date nil means today
// in the business time zone; any time of day is truncated to the calendar day.
type SubmitCutInput struct {
	OperatorID        uuid.UUID
	Date              *time.Time
	EndingBalanceMXN  decimal.Decimal
	EndingBalanceUSDT decimal.Decimal
	TotalSalesMXN     decimal.Decimal
	TotalSalesUSDT    decimal.Decimal
	ExchangeRate      *decimal.Decimal
	Notes             string
}

func (in SubmitCutInput) validate() error {
	for name, v := range map[string]decimal.Decimal{
		"ending_balance_mxn":  in.EndingBalanceMXN,
		"ending_balance_usdt": in.EndingBalanceUSDT,
		"total_sales_mxn":     in.TotalSalesMXN,
		"total_sales_usdt":    in.TotalSalesUSDT,
	} {
		if v.IsNegative() {
			return domain.Validationf("%s must not be negative", name)
		}
	}
	_, err := normalizeRate(in.ExchangeRate)
	return err
}

// Submit creates or overwrites the operator's cut for the day and puts it up
// for review. Resubmitting keeps the starting balances captured first.
func (s *DailyCutService) Submit(ctx context.Context, p models.Principal, in SubmitCutInput) (*models.DailyCut, error) {
	return s.report(ctx, p, in, domain.CutStatusPendingReview)
}

// SaveDraft stores the figures as DRAFT. Only new, DRAFT or REJECTED cuts accept a draft.
func (s *DailyCutService) SaveDraft(ctx context.Context, p models.Principal, in SubmitCutInput) (*models.DailyCut, error) {
	return s.report(ctx, p, in, domain.CutStatusDraft)
}

func (s *DailyCutService) report(ctx context.Context, p models.Principal, in SubmitCutInput, status string) (*models.DailyCut, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	day := businessDay(now, s.loc)
	if in.Date != nil {
		day = time.Date(in.Date.Year(), in.Date.Month(), in.Date.Day(), 0, 0, 0, 0, time.UTC)
	}

	var saved *models.DailyCut
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		if _, err := requireOperator(ctx, q, p, in.OperatorID); err != nil {
			return err
		}
		op, err := q.GetOperatorForUpdate(ctx, in.OperatorID)
		if err != nil {
			return notFound(err, domain.EntityOperator, in.OperatorID)
		}

		existing, err := q.GetDailyCutByOperatorDate(ctx, op.ID, day)
		if err != nil && !errors.Is(err, repository.ErrNoRows) {
			return fmt.Errorf("load daily cut: %w", err)
		}
		if existing != nil {
			if err := checkTransition(domain.EntityDailyCut, existing.Status, status); err != nil {
				return err
			}
		}

		from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
		totals, err := q.SumApprovedRecharges(ctx, repository.SumApprovedRechargesParams{
			OperatorID: op.ID,
			From:       from,
			To:         from.Add(24 * time.Hour),
		})
		if err != nil {
			return err
		}

		endingMXN := domain.RoundMXN(in.EndingBalanceMXN)
		profit := domain.RoundMXN(endingMXN.Sub(op.AssignedFundMXN))
		rate, err := normalizeRate(in.ExchangeRate)
		if err != nil {
			return err
		}

		var cutID uuid.UUID
		prevStatus := ""
		if existing == nil {
			cut := &models.DailyCut{
				ID:                  uuid.New(),
				OperatorID:          op.ID,
				Date:                day,
				StartingBalanceMXN:  op.BalanceMXN,
				StartingBalanceUSDT: op.BalanceUSDT,
				EndingBalanceMXN:    endingMXN,
				EndingBalanceUSDT:   domain.RoundUSDT(in.EndingBalanceUSDT),
				TotalSalesMXN:       domain.RoundMXN(in.TotalSalesMXN),
				TotalSalesUSDT:      domain.RoundUSDT(in.TotalSalesUSDT),
				TotalRechargesMXN:   domain.RoundMXN(totals.AmountMXN),
				TotalRechargesUSDT:  domain.RoundUSDT(totals.AmountUSDT),
				CalculatedProfitMXN: profit,
				ExchangeRate:        rate,
				ProfitTransferred:   decimal.Zero,
				Status:              status,
				Notes:               in.Notes,
				CreatedAt:           now,
				UpdatedAt:           now,
			}
			if err := q.InsertDailyCut(ctx, cut); err != nil {
				return err
			}
			cutID = cut.ID
		} else {
			rows, err := q.UpdateDailyCutReport(ctx, repository.UpdateDailyCutReportParams{
				ID:                  existing.ID,
				ExpectedStatus:      existing.Status,
				Status:              status,
				EndingBalanceMXN:    endingMXN,
				EndingBalanceUSDT:   domain.RoundUSDT(in.EndingBalanceUSDT),
				TotalSalesMXN:       domain.RoundMXN(in.TotalSalesMXN),
				TotalSalesUSDT:      domain.RoundUSDT(in.TotalSalesUSDT),
				TotalRechargesMXN:   domain.RoundMXN(totals.AmountMXN),
				TotalRechargesUSDT:  domain.RoundUSDT(totals.AmountUSDT),
				CalculatedProfitMXN: profit,
				ExchangeRate:        rate,
				Notes:               in.Notes,
				UpdatedAt:           now,
			})
			if err != nil {
				return fmt.Errorf("update daily cut: %w", err)
			}
			if rows == 0 {
				return lostRace(domain.EntityDailyCut, existing.ID)
			}
			cutID, prevStatus = existing.ID, existing.Status
		}

		if err := s.audit.Write(ctx, q, domain.EntityDailyCut, cutID, &p.UserID, "reported", prevStatus, status, map[string]any{
			"date":                  day.Format(time.DateOnly),
			"ending_balance_mxn":    endingMXN.String(),
			"calculated_profit_mxn": profit.String(),
		}); err != nil {
			return err
		}

		saved, err = q.GetDailyCut(ctx, cutID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWorkflowTransition(domain.EntityDailyCut, "reported")
	zap.L().Info("daily cut reported",
		zap.String("cut_id", saved.ID.String()),
		zap.String("operator_id", saved.OperatorID.String()),
		zap.String("date", saved.Date.Format(time.DateOnly)),
		zap.String("status", saved.Status),
		zap.String("calculated_profit_mxn", saved.CalculatedProfitMXN.String()),
	)
	return saved, nil
}

// Approve accepts a PENDING_REVIEW cut and overwrites the operator's live
// balances with the reported ending balances. No transaction is appended.
func (s *DailyCutService) Approve(ctx context.Context, p models.Principal, cutID uuid.UUID) (*models.DailyCut, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var approved *models.DailyCut
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		cut, err := q.GetDailyCut(ctx, cutID)
		if err != nil {
			return notFound(err, domain.EntityDailyCut, cutID)
		}
		if err := checkTransition(domain.EntityDailyCut, cut.Status, domain.CutStatusApproved); err != nil {
			return err
		}
		op, err := q.GetOperatorForUpdate(ctx, cut.OperatorID)
		if err != nil {
			return notFound(err, domain.EntityOperator, cut.OperatorID)
		}

		rows, err := q.ReviewDailyCut(ctx, repository.ReviewDailyCutParams{
			ID:           cut.ID,
			FromStatus:   domain.CutStatusPendingReview,
			ToStatus:     domain.CutStatusApproved,
			ReviewedByID: p.UserID,
			ReviewedAt:   s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("approve daily cut: %w", err)
		}
		if rows == 0 {
			return lostRace(domain.EntityDailyCut, cut.ID)
		}

		rows, err = q.SetOperatorBalances(ctx, repository.SetOperatorBalancesParams{
			ID:          op.ID,
			BalanceMXN:  cut.EndingBalanceMXN,
			BalanceUSDT: cut.EndingBalanceUSDT,
		})
		if err != nil {
			return fmt.Errorf("overwrite operator balances: %w", err)
		}
		if err := requireExactlyOne(rows, "overwrite operator balances"); err != nil {
			return err
		}

		if err := s.audit.Write(ctx, q, domain.EntityDailyCut, cut.ID, &p.UserID, "approved",
			cut.Status, domain.CutStatusApproved, map[string]any{
				"previous_balance_mxn":  op.BalanceMXN.String(),
				"previous_balance_usdt": op.BalanceUSDT.String(),
				"balance_mxn":           cut.EndingBalanceMXN.String(),
				"balance_usdt":          cut.EndingBalanceUSDT.String(),
			}); err != nil {
			return err
		}

		approved, err = q.GetDailyCut(ctx, cut.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWorkflowTransition(domain.EntityDailyCut, "approved")
	zap.L().Info("daily cut approved",
		zap.String("cut_id", approved.ID.String()),
		zap.String("operator_id", approved.OperatorID.String()),
		zap.String("actor_id", p.UserID.String()),
	)
	return approved, nil
}

// Reject sends a PENDING_REVIEW cut back to the operator. Balances are untouched.
func (s *DailyCutService) Reject(ctx context.Context, p models.Principal, cutID uuid.UUID, notes string) (*models.DailyCut, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var rejected *models.DailyCut
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		cut, err := q.GetDailyCut(ctx, cutID)
		if err != nil {
			return notFound(err, domain.EntityDailyCut, cutID)
		}
		if err := checkTransition(domain.EntityDailyCut, cut.Status, domain.CutStatusRejected); err != nil {
			return err
		}

		rows, err := q.ReviewDailyCut(ctx, repository.ReviewDailyCutParams{
			ID:           cut.ID,
			FromStatus:   domain.CutStatusPendingReview,
			ToStatus:     domain.CutStatusRejected,
			ReviewedByID: p.UserID,
			ReviewedAt:   s.now().UTC(),
			Notes:        &notes,
		})
		if err != nil {
			return fmt.Errorf("reject daily cut: %w", err)
		}
		if rows == 0 {
			return lostRace(domain.EntityDailyCut, cut.ID)
		}

		if err := s.audit.Write(ctx, q, domain.EntityDailyCut, cut.ID, &p.UserID, "rejected",
			cut.Status, domain.CutStatusRejected, map[string]any{"notes": notes}); err != nil {
			return err
		}
		rejected, err = q.GetDailyCut(ctx, cut.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWorkflowTransition(domain.EntityDailyCut, "rejected")
	zap.L().Info("daily cut rejected", zap.String("cut_id", rejected.ID.String()), zap.String("actor_id", p.UserID.String()))
	return rejected, nil
}

type RegisterTransferInput struct {
	CutID    uuid.UUID
	Amount   decimal.Decimal
	ProofURL string
}

// RegisterTransfer records profit physically remitted to the admin. The amount
// leaves the operator's MXN balance and is logged as PROFIT_WITHDRAWAL.
func (s *DailyCutService) RegisterTransfer(ctx context.Context, p models.Principal, in RegisterTransferInput) (*models.DailyCut, error) {
	amount := domain.RoundMXN(in.Amount)
	if !amount.IsPositive() {
		return nil, domain.Validationf("amount must be greater than zero")
	}

	var updated *models.DailyCut
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		cut, err := q.GetDailyCut(ctx, in.CutID)
		if err != nil {
			return notFound(err, domain.EntityDailyCut, in.CutID)
		}
		if err := requireAdminOrOwner(p, cut.OperatorID); err != nil {
			return err
		}
		if cut.Status != domain.CutStatusApproved {
			return domain.InvalidStatef("daily_cut is %s, profit can only be transferred from an approved cut", cut.Status)
		}
		if _, err := q.GetOperatorForUpdate(ctx, cut.OperatorID); err != nil {
			return notFound(err, domain.EntityOperator, cut.OperatorID)
		}

		now := s.now().UTC()
		rows, err := q.AddProfitTransfer(ctx, repository.AddProfitTransferParams{
			ID:        cut.ID,
			Amount:    amount,
			ProofURL:  in.ProofURL,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("register profit transfer: %w", err)
		}
		if rows == 0 {
			return lostRace(domain.EntityDailyCut, cut.ID)
		}

		rows, err = q.AddOperatorBalances(ctx, repository.AddOperatorBalancesParams{
			ID:        cut.OperatorID,
			DeltaMXN:  amount.Neg(),
			DeltaUSDT: decimal.Zero,
		})
		if err != nil {
			return fmt.Errorf("update operator balance: %w", err)
		}
		if err := requireExactlyOne(rows, "update operator balance"); err != nil {
			return err
		}

		if _, err := s.ledger.record(ctx, q, TransactionInput{
			OperatorID:  cut.OperatorID,
			Type:        domain.TxTypeProfitWithdrawal,
			AmountMXN:   amount.Neg(),
			AmountUSDT:  decimal.Zero,
			Description: fmt.Sprintf("Profit transfer for %s", cut.Date.Format(time.DateOnly)),
			DailyCutID:  &cut.ID,
		}); err != nil {
			return err
		}

		if err := s.audit.Write(ctx, q, domain.EntityDailyCut, cut.ID, &p.UserID, "profit_transferred",
			cut.Status, cut.Status, map[string]any{"amount": amount.String(), "proof_url": in.ProofURL}); err != nil {
			return err
		}
		updated, err = q.GetDailyCut(ctx, cut.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWorkflowTransition(domain.EntityDailyCut, "profit_transferred")
	zap.L().Info("profit transfer registered",
		zap.String("cut_id", updated.ID.String()),
		zap.String("amount", amount.String()),
		zap.String("profit_transferred", updated.ProfitTransferred.String()),
	)
	return updated, nil
}

func (s *DailyCutService) Get(ctx context.Context, p models.Principal, id uuid.UUID) (*models.DailyCut, error) {
	cut, err := s.store.Queries().GetDailyCut(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.EntityDailyCut, id)
	}
	if err := requireAdminOrOwner(p, cut.OperatorID); err != nil {
		return nil, err
	}
	return cut, nil
}

// Today returns the operator's cut for the current business day.
func (s *DailyCutService) Today(ctx context.Context, p models.Principal, operatorID uuid.UUID) (*models.DailyCut, error) {
	if err := requireAdminOrOwner(p, operatorID); err != nil {
		return nil, err
	}
	day := businessDay(s.now(), s.loc)
	cut, err := s.store.Queries().GetDailyCutByOperatorDate(ctx, operatorID, day)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, domain.NotFoundf("no daily cut for %s", day.Format(time.DateOnly))
		}
		return nil, fmt.Errorf("load daily cut: %w", err)
	}
	return cut, nil
}

func (s *DailyCutService) List(ctx context.Context, p models.Principal, operatorID *uuid.UUID) ([]models.DailyCut, error) {
	return s.list(ctx, p, operatorID, "")
}

func (s *DailyCutService) ListPending(ctx context.Context, p models.Principal) ([]models.DailyCut, error) {
	return s.list(ctx, p, nil, domain.CutStatusPendingReview)
}

func (s *DailyCutService) list(ctx context.Context, p models.Principal, operatorID *uuid.UUID, status string) ([]models.DailyCut, error) {
	scoped, err := scopeOperator(p, operatorID)
	if err != nil {
		return nil, err
	}
	out, err := s.store.Queries().ListDailyCuts(ctx, repository.ListDailyCutsParams{OperatorID: scoped, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list daily cuts: %w", err)
	}
	return out, nil
}
