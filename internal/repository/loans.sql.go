package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const loanColumns = `id, operator_id, amount_mxn, amount_usdt, reason, status, approved_by_id, approved_at, paid_at, exchange_rate, notes, created_at`

func scanLoan(row pgx.Row) (*models.Loan, error) {
	var l models.Loan
	err := row.Scan(&l.ID, &l.OperatorID, &l.AmountMXN, &l.AmountUSDT, &l.Reason, &l.Status,
		&l.ApprovedByID, &l.ApprovedAt, &l.PaidAt, &l.ExchangeRate, &l.Notes, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (q *Queries) InsertLoan(ctx context.Context, loan *models.Loan) error {
	query := `
		INSERT INTO loans (id, operator_id, amount_mxn, amount_usdt, reason, status, exchange_rate, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := q.db.Exec(ctx, query, loan.ID, loan.OperatorID, loan.AmountMXN, loan.AmountUSDT,
		loan.Reason, loan.Status, loan.ExchangeRate, loan.Notes, loan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert loan: %w", err)
	}
	return nil
}

func (q *Queries) GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	return scanLoan(q.db.QueryRow(ctx, query, id))
}

// ApproveLoan records the approver on an ACTIVE loan that has none yet.
func (q *Queries) ApproveLoan(ctx context.Context, arg ApproveLoanParams) (int64, error) {
	query := `
		UPDATE loans
		SET approved_by_id = $2, approved_at = $3, exchange_rate = COALESCE($4, exchange_rate)
		WHERE id = $1 AND status = $5 AND approved_by_id IS NULL`
	tag, err := q.db.Exec(ctx, query, arg.ID, arg.ApprovedByID, arg.ApprovedAt, arg.ExchangeRate, domain.LoanStatusActive)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) CloseLoan(ctx context.Context, arg CloseLoanParams) (int64, error) {
	query := `
		UPDATE loans
		SET status = $2, paid_at = COALESCE($3, paid_at), notes = CASE WHEN $4::text = '' THEN notes ELSE $4 END
		WHERE id = $1 AND status = $5`
	tag, err := q.db.Exec(ctx, query, arg.ID, arg.Status, arg.PaidAt, arg.Notes, domain.LoanStatusActive)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListLoans(ctx context.Context, arg ListLoansParams) ([]models.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE ($1::uuid IS NULL OR operator_id = $1)
		  AND ($2::text = '' OR status = $2)
		ORDER BY created_at DESC, id DESC`
	rows, err := q.db.Query(ctx, query, arg.OperatorID, arg.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var out []models.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
