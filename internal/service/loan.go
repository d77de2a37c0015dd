package service

import (
	"context"
	"fmt"
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

// LoanService manages advances against an operator's fund.
// Only the MXN leg of a loan moves balances; USDT amounts are informational.
type LoanService struct {
	store  QueryStore
	ledger *LedgerService
	audit  *AuditService
	now    func() time.Time
}

func NewLoanService(store QueryStore, ledger *LedgerService) *LoanService {
	return &LoanService{
		store:  store,
		ledger: ledger,
		audit:  NewAuditService(store),
		now:    time.Now,
	}
}

// WithClock overrides the clock used for loan timestamps.
func (s *LoanService) WithClock(now func() time.Time) *LoanService {
	s.now = now
	return s
}

type CreateLoanInput struct {
	OperatorID   uuid.UUID
	AmountMXN    *decimal.Decimal
	AmountUSDT   *decimal.Decimal
	ExchangeRate *decimal.Decimal
	Reason       string
}

// normalizeAmount drops zero amounts and rejects negative ones.
func normalizeAmount(amount *decimal.Decimal, currency string) (*decimal.Decimal, error) {
	if amount == nil {
		return nil, nil
	}
	rounded := domain.Round(*amount, currency)
	if rounded.IsNegative() {
		return nil, domain.Validationf("amount_%s must not be negative", strings.ToLower(currency))
	}
	if rounded.IsZero() {
		return nil, nil
	}
	return &rounded, nil
}

// Create records an ACTIVE loan and credits its MXN amount immediately.
func (s *LoanService) Create(ctx context.Context, p models.Principal, in CreateLoanInput) (*models.Loan, error) {
	amountMXN, err := normalizeAmount(in.AmountMXN, domain.CurrencyMXN)
	if err != nil {
		return nil, err
	}
	amountUSDT, err := normalizeAmount(in.AmountUSDT, domain.CurrencyUSDT)
	if err != nil {
		return nil, err
	}
	if amountMXN == nil && amountUSDT == nil {
		return nil, domain.Validationf("loan needs amount_mxn or amount_usdt")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.Validationf("reason is required")
	}
	rate, err := normalizeRate(in.ExchangeRate)
	if err != nil {
		return nil, err
	}

	loan := &models.Loan{
		ID:           uuid.New(),
		OperatorID:   in.OperatorID,
		AmountMXN:    amountMXN,
		AmountUSDT:   amountUSDT,
		Reason:       reason,
		Status:       domain.LoanStatusActive,
		ExchangeRate: rate,
		CreatedAt:    s.now().UTC(),
	}
	err = s.store.RunInTx(ctx, func(q repository.Querier) error {
		if _, err := requireOperator(ctx, q, p, in.OperatorID); err != nil {
			return err
		}
		if err := q.InsertLoan(ctx, loan); err != nil {
			return err
		}

		if amountMXN != nil {
			if _, err := q.GetOperatorForUpdate(ctx, loan.OperatorID); err != nil {
				return notFound(err, domain.EntityOperator, loan.OperatorID)
			}
			if err := s.moveMXN(ctx, q, loan, *amountMXN, domain.TxTypeLoanReceived,
				fmt.Sprintf("Loan received: %s", reason)); err != nil {
				return err
			}
		}

		return s.audit.Write(ctx, q, domain.EntityLoan, loan.ID, &p.UserID, "created", "", loan.Status, map[string]any{
			"amount_mxn":  loan.AmountMXN,
			"amount_usdt": loan.AmountUSDT,
			"reason":      reason,
		})
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWorkflowTransition(domain.EntityLoan, "created")
	zap.L().Info("loan created",
		zap.String("loan_id", loan.ID.String()),
		zap.String("operator_id", loan.OperatorID.String()),
	)
	return loan, nil
}

type ApproveLoanInput struct {
	LoanID       uuid.UUID
	ExchangeRate *decimal.Decimal
}

// Approve records the reviewing admin on an ACTIVE loan. It has no balance effect.
func (s *LoanService) Approve(ctx context.Context, p models.Principal, in ApproveLoanInput) (*models.Loan, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	rate, err := normalizeRate(in.ExchangeRate)
	if err != nil {
		return nil, err
	}

	var approved *models.Loan
	err = s.store.RunInTx(ctx, func(q repository.Querier) error {
		loan, err := q.GetLoan(ctx, in.LoanID)
		if err != nil {
			return notFound(err, domain.EntityLoan, in.LoanID)
		}
		if loan.Status != domain.LoanStatusActive || loan.ApprovedByID != nil {
			return domain.InvalidStatef("loan %s is %s and cannot be approved", loan.ID, describeLoan(loan))
		}

		rows, err := q.ApproveLoan(ctx, repository.ApproveLoanParams{
			ID:           loan.ID,
			ApprovedByID: p.UserID,
			ApprovedAt:   s.now().UTC(),
			ExchangeRate: rate,
		})
		if err != nil {
			return fmt.Errorf("approve loan: %w", err)
		}
		if rows == 0 {
			return lostRace(domain.EntityLoan, loan.ID)
		}

		if err := s.audit.Write(ctx, q, domain.EntityLoan, loan.ID, &p.UserID, "approved", loan.Status, loan.Status, nil); err != nil {
			return err
		}
		approved, err = q.GetLoan(ctx, loan.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWorkflowTransition(domain.EntityLoan, "approved")
	zap.L().Info("loan approved", zap.String("loan_id", approved.ID.String()), zap.String("actor_id", p.UserID.String()))
	return approved, nil
}

// MarkPaid settles an ACTIVE loan and debits its MXN amount. A loan cannot be paid twice.
func (s *LoanService) MarkPaid(ctx context.Context, p models.Principal, loanID uuid.UUID) (*models.Loan, error) {
	return s.close(ctx, p, loanID, domain.LoanStatusPaid, "")
}

// Cancel voids an ACTIVE loan and reverses its MXN credit with an adjustment.
func (s *LoanService) Cancel(ctx context.Context, p models.Principal, loanID uuid.UUID, notes string) (*models.Loan, error) {
	return s.close(ctx, p, loanID, domain.LoanStatusCancelled, notes)
}

func (s *LoanService) close(ctx context.Context, p models.Principal, loanID uuid.UUID, status, notes string) (*models.Loan, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}

	var closed *models.Loan
	err := s.store.RunInTx(ctx, func(q repository.Querier) error {
		loan, err := q.GetLoan(ctx, loanID)
		if err != nil {
			return notFound(err, domain.EntityLoan, loanID)
		}
		if err := checkTransition(domain.EntityLoan, loan.Status, status); err != nil {
			return err
		}
		if _, err := q.GetOperatorForUpdate(ctx, loan.OperatorID); err != nil {
			return notFound(err, domain.EntityOperator, loan.OperatorID)
		}

		params := repository.CloseLoanParams{ID: loan.ID, Status: status, Notes: notes}
		if status == domain.LoanStatusPaid {
			params.PaidAt = ptr(s.now().UTC())
		}
		rows, err := q.CloseLoan(ctx, params)
		if err != nil {
			return fmt.Errorf("close loan: %w", err)
		}
		if rows == 0 {
			return lostRace(domain.EntityLoan, loan.ID)
		}

		if loan.AmountMXN != nil {
			txType, desc := domain.TxTypeLoanPayment, fmt.Sprintf("Loan payment: %s", loan.Reason)
			if status == domain.LoanStatusCancelled {
				txType, desc = domain.TxTypeAdjustment, fmt.Sprintf("Loan cancelled: %s", loan.Reason)
			}
			if err := s.moveMXN(ctx, q, loan, loan.AmountMXN.Neg(), txType, desc); err != nil {
				return err
			}
		}

		if err := s.audit.Write(ctx, q, domain.EntityLoan, loan.ID, &p.UserID, strings.ToLower(status), loan.Status, status,
			map[string]any{"notes": notes}); err != nil {
			return err
		}
		closed, err = q.GetLoan(ctx, loan.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.IncrementWorkflowTransition(domain.EntityLoan, strings.ToLower(status))
	zap.L().Info("loan closed",
		zap.String("loan_id", closed.ID.String()),
		zap.String("status", closed.Status),
		zap.String("actor_id", p.UserID.String()),
	)
	return closed, nil
}

// moveMXN applies delta to the operator's MXN balance and records it against the loan.
func (s *LoanService) moveMXN(ctx context.Context, q repository.Querier, loan *models.Loan, delta decimal.Decimal, txType, description string) error {
	rows, err := q.AddOperatorBalances(ctx, repository.AddOperatorBalancesParams{
		ID:        loan.OperatorID,
		DeltaMXN:  delta,
		DeltaUSDT: decimal.Zero,
	})
	if err != nil {
		return fmt.Errorf("update operator balance: %w", err)
	}
	if err := requireExactlyOne(rows, "update operator balance"); err != nil {
		return err
	}
	_, err = s.ledger.record(ctx, q, TransactionInput{
		OperatorID:   loan.OperatorID,
		Type:         txType,
		AmountMXN:    delta,
		AmountUSDT:   decimal.Zero,
		ExchangeRate: loan.ExchangeRate,
		Description:  description,
		LoanID:       &loan.ID,
	})
	return err
}

func describeLoan(l *models.Loan) string {
	if l.Status == domain.LoanStatusActive && l.ApprovedByID != nil {
		return "already approved"
	}
	return l.Status
}

func (s *LoanService) Get(ctx context.Context, p models.Principal, id uuid.UUID) (*models.Loan, error) {
	loan, err := s.store.Queries().GetLoan(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.EntityLoan, id)
	}
	if err := requireAdminOrOwner(p, loan.OperatorID); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *LoanService) List(ctx context.Context, p models.Principal, operatorID *uuid.UUID) ([]models.Loan, error) {
	return s.list(ctx, p, operatorID, "")
}

func (s *LoanService) ListActive(ctx context.Context, p models.Principal, operatorID *uuid.UUID) ([]models.Loan, error) {
	return s.list(ctx, p, operatorID, domain.LoanStatusActive)
}

func (s *LoanService) list(ctx context.Context, p models.Principal, operatorID *uuid.UUID, status string) ([]models.Loan, error) {
	scoped, err := scopeOperator(p, operatorID)
	if err != nil {
		return nil, err
	}
	out, err := s.store.Queries().ListLoans(ctx, repository.ListLoansParams{OperatorID: scoped, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return out, nil
}
