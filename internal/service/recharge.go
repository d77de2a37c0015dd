package service

import (
	"context"
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

// RechargeService turns operator USDT top-up requests into balance movements.
type RechargeService struct {
	store  QueryStore
	ledger *LedgerService
	audit  *AuditService
	now    func() time.Time
}

func NewRechargeService(store QueryStore, ledger *LedgerService) *RechargeService {
	return &RechargeService{
		store:  store,
		ledger: ledger,
		audit:  NewAuditService(store),
		now:    time.Now,
	}
}

// WithClock overrides the clock used for approval timestamps.
func (s *RechargeService) WithClock(now func() time.Time) *RechargeService {
	s.now = now
	return s
}

type CreateRechargeInput struct {
	OperatorID uuid.UUID
	AmountMXN  decimal.Decimal
	Notes      string
}

// Create records a PENDING request. Balances do not move until approval.
func (s *RechargeService) Create(ctx context.Context, p models.Principal, in CreateRechargeInput) (*models.RechargeRequest, error) {
	amount := domain.RoundMXN(in.AmountMXN)
	if !amount.IsPositive() {
		return nil, domain.Validationf("amount_mxn must be greater than zero")
	}

	recharge := &models.RechargeRequest{
		ID:         uuid.New(),
		OperatorID: in.OperatorID,
		AmountMXN:  amount,
		AmountUSDT: decimal.Zero,
		Status:     domain.RechargeStatusPending,
		Notes:      in.Notes,
		CreatedAt:  s.now().UTC(),
	}
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		if _, err := requireOperator(ctx, q, p, in.OperatorID); err != nil {
			return err
		}
		if err := q.InsertRecharge(ctx, recharge); err != nil {
			return err
		}
		return s.audit.Write(ctx, q, domain.EntityRecharge, recharge.ID, &p.UserID, "created", "", recharge.Status, map[string]any{
			"amount_mxn": recharge.AmountMXN.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWorkflowTransition(domain.EntityRecharge, "created")
	zap.L().Info("recharge requested",
		zap.String("recharge_id", recharge.ID.String()),
		zap.String("operator_id", recharge.OperatorID.String()),
		zap.String("amount_mxn", recharge.AmountMXN.String()),
	)
	return recharge, nil
}

type ApproveRechargeInput struct {
	RechargeID uuid.UUID
	// ExchangeRate is MXN per USDT. Nil means the active rate.
	ExchangeRate *decimal.Decimal
}

// Approve converts the request at the chosen rate. The status change, both
// balance deltas and the RECHARGE_USDT entry commit together or not at all.
func (s *RechargeService) Approve(ctx context.Context, p models.Principal, in ApproveRechargeInput) (*models.RechargeRequest, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	chosen, err := normalizeRate(in.ExchangeRate)
	if err != nil {
		return nil, err
	}

	var approved *models.RechargeRequest
	err = s.store.RunInTx(ctx, func(q repository.Querier) error {
		recharge, err := q.GetRecharge(ctx, in.RechargeID)
		if err != nil {
			return notFound(err, domain.EntityRecharge, in.RechargeID)
		}
		if err := checkTransition(domain.EntityRecharge, recharge.Status, domain.RechargeStatusApproved); err != nil {
			return err
		}

		var rate decimal.Decimal
		if chosen != nil {
			rate = *chosen
		} else if rate, err = activeRate(ctx, q); err != nil {
			return err
		}
		usdt, err := domain.MXN(recharge.AmountMXN).Convert(domain.CurrencyUSDT, rate)
		if err != nil {
			return err
		}

		if _, err := q.GetOperatorForUpdate(ctx, recharge.OperatorID); err != nil {
			return notFound(err, domain.EntityOperator, recharge.OperatorID)
		}

		now := s.now().UTC()
		rows, err := q.ApproveRecharge(ctx, repository.ApproveRechargeParams{
			ID:           recharge.ID,
			AmountUSDT:   usdt.Amount,
			ExchangeRate: rate,
			ApprovedByID: p.UserID,
			ApprovedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("approve recharge: %w", err)
		}
		if rows == 0 {
			return lostRace(domain.EntityRecharge, recharge.ID)
		}

		rows, err = q.AddOperatorBalances(ctx, repository.AddOperatorBalancesParams{
			ID:        recharge.OperatorID,
			DeltaMXN:  recharge.AmountMXN.Neg(),
			DeltaUSDT: usdt.Amount,
		})
		if err != nil {
			return fmt.Errorf("update operator balances: %w", err)
		}
		if err := requireExactlyOne(rows, "update operator balances"); err != nil {
			return err
		}

		if _, err := s.ledger.record(ctx, q, TransactionInput{
			OperatorID:   recharge.OperatorID,
			Type:         domain.TxTypeRechargeUSDT,
			AmountMXN:    recharge.AmountMXN.Neg(),
			AmountUSDT:   usdt.Amount,
			ExchangeRate: &rate,
			Description: fmt.Sprintf("Recharge of %s USDT for %s MXN at %s",
				usdt.Amount.StringFixed(domain.ScaleUSDT), recharge.AmountMXN.StringFixed(domain.ScaleMXN), rate.String()),
			RechargeID: &recharge.ID,
		}); err != nil {
			return err
		}

		if err := s.audit.Write(ctx, q, domain.EntityRecharge, recharge.ID, &p.UserID, "approved",
			recharge.Status, domain.RechargeStatusApproved, map[string]any{
				"exchange_rate": rate.String(),
				"amount_usdt":   usdt.Amount.String(),
			}); err != nil {
			return err
		}

		approved, err = q.GetRecharge(ctx, recharge.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWorkflowTransition(domain.EntityRecharge, "approved")
	zap.L().Info("recharge approved",
		zap.String("recharge_id", approved.ID.String()),
		zap.String("operator_id", approved.OperatorID.String()),
		zap.String("amount_usdt", approved.AmountUSDT.String()),
		zap.String("actor_id", p.UserID.String()),
	)
	return approved, nil
}

type RejectRechargeInput struct {
	RechargeID uuid.UUID
	Notes      string
}

// Reject closes a PENDING request without touching balances.
func (s *RechargeService) Reject(ctx context.Context, p models.Principal, in RejectRechargeInput) (*models.RechargeRequest, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var rejected *models.RechargeRequest
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		recharge, err := q.GetRecharge(ctx, in.RechargeID)
		if err != nil {
			return notFound(err, domain.EntityRecharge, in.RechargeID)
		}
		if err := checkTransition(domain.EntityRecharge, recharge.Status, domain.RechargeStatusRejected); err != nil {
			return err
		}

		rows, err := q.RejectRecharge(ctx, repository.RejectRechargeParams{
			ID:           recharge.ID,
			Notes:        in.Notes,
			ApprovedByID: p.UserID,
			ApprovedAt:   s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("reject recharge: %w", err)
		}
		if rows == 0 {
			return lostRace(domain.EntityRecharge, recharge.ID)
		}

		if err := s.audit.Write(ctx, q, domain.EntityRecharge, recharge.ID, &p.UserID, "rejected",
			recharge.Status, domain.RechargeStatusRejected, map[string]any{"notes": in.Notes}); err != nil {
			return err
		}

		rejected, err = q.GetRecharge(ctx, recharge.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWorkflowTransition(domain.EntityRecharge, "rejected")
	zap.L().Info("recharge rejected",
		zap.String("recharge_id", rejected.ID.String()),
		zap.String("actor_id", p.UserID.String()),
	)
	return rejected, nil
}

func (s *RechargeService) Get(ctx context.Context, p models.Principal, id uuid.UUID) (*models.RechargeRequest, error) {
	recharge, err := s.store.Queries().GetRecharge(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.EntityRecharge, id)
	}
	if err := requireAdminOrOwner(p, recharge.OperatorID); err != nil {
		return nil, err
	}
	return recharge, nil
}

// List returns requests newest first, optionally for one operator.
func (s *RechargeService) List(ctx context.Context, p models.Principal, operatorID *uuid.UUID) ([]models.RechargeRequest, error) {
	return s.list(ctx, p, operatorID, "")
}

// ListPending returns the requests awaiting review.
func (s *RechargeService) ListPending(ctx context.Context, p models.Principal) ([]models.RechargeRequest, error) {
	return s.list(ctx, p, nil, domain.RechargeStatusPending)
}

func (s *RechargeService) list(ctx context.Context, p models.Principal, operatorID *uuid.UUID, status string) ([]models.RechargeRequest, error) {
	scoped, err := scopeOperator(p, operatorID)
	if err != nil {
		return nil, err
	}
	out, err := s.store.Queries().ListRecharges(ctx, repository.ListRechargesParams{OperatorID: scoped, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list recharges: %w", err)
	}
	return out, nil
}
