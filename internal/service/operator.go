package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/observability"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OperatorService administers operators, their funds and explicit balance adjustments.
type OperatorService struct {
	store  QueryStore
	ledger *LedgerService
	audit  *AuditService
}

func NewOperatorService(store QueryStore, ledger *LedgerService) *OperatorService {
	return &OperatorService{
		store:  store,
		ledger: ledger,
		audit:  NewAuditService(store),
	}
}

type CreateOperatorInput struct {
	Name            string
	Email           string
	AssignedFundMXN decimal.Decimal
}

// Create registers a user with the operator role and an operator whose MXN
// balance starts at the assigned fund.
func (s *OperatorService) Create(ctx context.Context, p models.Principal, in CreateOperatorInput) (*models.Operator, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, domain.Validationf("email %q is invalid", in.Email)
	}
	fund := domain.RoundMXN(in.AssignedFundMXN)
	if fund.IsNegative() {
		return nil, domain.Validationf("assigned_fund_mxn must not be negative")
	}

	user := &models.User{ID: uuid.New(), Name: name, Email: strings.ToLower(in.Email), Role: domain.RoleOperator}
	op := &models.Operator{
		ID:              uuid.New(),
		UserID:          user.ID,
		AssignedFundMXN: fund,
		BalanceMXN:      fund,
		BalanceUSDT:     decimal.Zero,
		IsActive:        true,
	}
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		if err := q.CreateUser(ctx, user); err != nil {
			return err
		}
		if err := q.CreateOperator(ctx, op); err != nil {
			return err
		}
		return s.audit.Write(ctx, q, domain.EntityOperator, op.ID, &p.UserID, "created", "", "ACTIVE", map[string]any{
			"assigned_fund_mxn": fund.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	op.Name, op.Email = user.Name, user.Email

	zap.L().Info("operator created",
		zap.String("operator_id", op.ID.String()),
		zap.String("assigned_fund_mxn", fund.String()),
	)
	return op, nil
}

type UpdateOperatorInput struct {
	OperatorID      uuid.UUID
	AssignedFundMXN *decimal.Decimal
	IsActive        *bool
}

// Update changes the assigned fund or the active flag. Balances are not touched.
func (s *OperatorService) Update(ctx context.Context, p models.Principal, in UpdateOperatorInput) (*models.Operator, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var fund *decimal.Decimal
	if in.AssignedFundMXN != nil {
		fund = ptr(domain.RoundMXN(*in.AssignedFundMXN))
		if fund.IsNegative() {
			return nil, domain.Validationf("assigned_fund_mxn must not be negative")
		}
	}

	var updated *models.Operator
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		before, err := q.GetOperatorForUpdate(ctx, in.OperatorID)
		if err != nil {
			return notFound(err, domain.EntityOperator, in.OperatorID)
		}
		rows, err := q.UpdateOperatorSettings(ctx, repository.UpdateOperatorSettingsParams{
			ID:              in.OperatorID,
			AssignedFundMXN: fund,
			IsActive:        in.IsActive,
		})
		if err != nil {
			return fmt.Errorf("update operator: %w", err)
		}
		if err := requireExactlyOne(rows, "update operator"); err != nil {
			return err
		}
		updated, err = q.GetOperator(ctx, in.OperatorID)
		if err != nil {
			return err
		}
		return s.audit.Write(ctx, q, domain.EntityOperator, in.OperatorID, &p.UserID, "updated",
			activeLabel(before.IsActive), activeLabel(updated.IsActive), map[string]any{
				"previous_fund_mxn": before.AssignedFundMXN.String(),
				"assigned_fund_mxn": updated.AssignedFundMXN.String(),
			})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type AdjustBalanceInput struct {
	OperatorID  uuid.UUID
	BalanceMXN  *decimal.Decimal
	BalanceUSDT *decimal.Decimal
	Reason      string
}

// AdjustBalance sets the operator's balances to explicit targets and records
// the delta as one ADJUSTMENT transaction.
func (s *OperatorService) AdjustBalance(ctx context.Context, p models.Principal, in AdjustBalanceInput) (*models.Operator, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if in.BalanceMXN == nil && in.BalanceUSDT == nil {
		return nil, domain.Validationf("balance_mxn or balance_usdt is required")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.Validationf("reason is required")
	}

	var adjusted *models.Operator
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		op, err := q.GetOperatorForUpdate(ctx, in.OperatorID)
		if err != nil {
			return notFound(err, domain.EntityOperator, in.OperatorID)
		}

		targetMXN, targetUSDT := op.BalanceMXN, op.BalanceUSDT
		if in.BalanceMXN != nil {
			targetMXN = domain.RoundMXN(*in.BalanceMXN)
		}
		if in.BalanceUSDT != nil {
			targetUSDT = domain.RoundUSDT(*in.BalanceUSDT)
		}
		deltaMXN, deltaUSDT := targetMXN.Sub(op.BalanceMXN), targetUSDT.Sub(op.BalanceUSDT)
		if deltaMXN.IsZero() && deltaUSDT.IsZero() {
			return domain.Validationf("balances already match the requested values")
		}

		rows, err := q.SetOperatorBalances(ctx, repository.SetOperatorBalancesParams{
			ID:          op.ID,
			BalanceMXN:  targetMXN,
			BalanceUSDT: targetUSDT,
		})
		if err != nil {
			return fmt.Errorf("set operator balances: %w", err)
		}
		if err := requireExactlyOne(rows, "set operator balances"); err != nil {
			return err
		}

		if _, err := s.ledger.record(ctx, q, TransactionInput{
			OperatorID:  op.ID,
			Type:        domain.TxTypeAdjustment,
			AmountMXN:   deltaMXN,
			AmountUSDT:  deltaUSDT,
			Description: reason,
		}); err != nil {
			return err
		}

		if err := s.audit.Write(ctx, q, domain.EntityOperator, op.ID, &p.UserID, "balance_adjusted", "", "", map[string]any{
			"delta_mxn":  deltaMXN.String(),
			"delta_usdt": deltaUSDT.String(),
			"reason":     reason,
		}); err != nil {
			return err
		}
		adjusted, err = q.GetOperator(ctx, op.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWorkflowTransition(domain.EntityOperator, "balance_adjusted")
	zap.L().Info("operator balance adjusted",
		zap.String("operator_id", adjusted.ID.String()),
		zap.String("balance_mxn", adjusted.BalanceMXN.String()),
		zap.String("balance_usdt", adjusted.BalanceUSDT.String()),
		zap.String("actor_id", p.UserID.String()),
	)
	return adjusted, nil
}

func (s *OperatorService) Get(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Operator, error) {
	if err := requireAdminOrOwner(p, id); err != nil {
		return nil, err
	}
	op, err := s.store.Queries().GetOperator(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.EntityOperator, id)
	}
	return op, nil
}

// List returns every operator to admins and only the caller to operators.
func (s *OperatorService) List(ctx context.Context, p models.Principal) ([]models.Operator, error) {
	if !p.IsAdmin() {
		scoped, err := scopeOperator(p, nil)
		if err != nil {
			return nil, err
		}
		op, err := s.Get(ctx, p, *scoped)
		if err != nil {
			return nil, err
		}
		return []models.Operator{*op}, nil
	}
	ops, err := s.store.Queries().ListOperators(ctx)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	return ops, nil
}

// OperatorSummary is the balance view of one operator.
type OperatorSummary struct {
	OperatorID      uuid.UUID       `json:"operator_id"`
	Name            string          `json:"name"`
	AssignedFundMXN decimal.Decimal `json:"assigned_fund_mxn"`
	BalanceMXN      decimal.Decimal `json:"balance_mxn"`
	BalanceUSDT     decimal.Decimal `json:"balance_usdt"`
	// ProfitMXN uses the same formula as daily cuts: balance minus fund.
	ProfitMXN   decimal.Decimal `json:"profit_mxn"`
	ActiveLoans int             `json:"active_loans"`
	IsActive    bool            `json:"is_active"`
	AsOf        time.Time       `json:"as_of"`
}

func (s *OperatorService) Summary(ctx context.Context, p models.Principal, id uuid.UUID) (*OperatorSummary, error) {
	op, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	loans, err := s.store.Queries().ListLoans(ctx, repository.ListLoansParams{OperatorID: &op.ID, Status: domain.LoanStatusActive})
	if err != nil {
		return nil, fmt.Errorf("list active loans: %w", err)
	}
	return &OperatorSummary{
		OperatorID:      op.ID,
		Name:            op.Name,
		AssignedFundMXN: op.AssignedFundMXN,
		BalanceMXN:      op.BalanceMXN,
		BalanceUSDT:     op.BalanceUSDT,
		ProfitMXN:       op.BalanceMXN.Sub(op.AssignedFundMXN),
		ActiveLoans:     len(loans),
		IsActive:        op.IsActive,
		AsOf:            op.UpdatedAt,
	}, nil
}

func activeLabel(active bool) string {
	if active {
		return "ACTIVE"
	}
	return "INACTIVE"
}
