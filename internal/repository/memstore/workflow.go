package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (v *view) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return v.store.now()
	}
	return t
}

func matches(filter *uuid.UUID, id uuid.UUID, status, want string) bool {
	if filter != nil && *filter != id {
		return false
	}
	return want == "" || status == want
}

func (v *view) InsertRecharge(ctx context.Context, r *models.RechargeRequest) error {
	st, done := v.begin()
	defer done()

	if _, ok := st.operators.get(r.OperatorID); !ok {
		return repository.ErrNoRows
	}
	r.CreatedAt = v.stamp(r.CreatedAt)
	st.recharges.insert(r.ID, *r)
	return nil
}

func (v *view) GetRecharge(ctx context.Context, id uuid.UUID) (*models.RechargeRequest, error) {
	st, done := v.begin()
	defer done()

	r, ok := st.recharges.get(id)
	if !ok {
		return nil, repository.ErrNoRows
	}
	out := *r
	return &out, nil
}

func (v *view) ApproveRecharge(ctx context.Context, arg repository.ApproveRechargeParams) (int64, error) {
	st, done := v.begin()
	defer done()

	r, ok := st.recharges.get(arg.ID)
	if !ok || r.Status != domain.RechargeStatusPending {
		return 0, nil
	}
	rate, by, at := arg.ExchangeRate, arg.ApprovedByID, arg.ApprovedAt
	r.Status = domain.RechargeStatusApproved
	r.AmountUSDT = arg.AmountUSDT
	r.ExchangeRate, r.ApprovedByID, r.ApprovedAt = &rate, &by, &at
	return 1, nil
}

func (v *view) RejectRecharge(ctx context.Context, arg repository.RejectRechargeParams) (int64, error) {
	st, done := v.begin()
	defer done()

	r, ok := st.recharges.get(arg.ID)
	if !ok || r.Status != domain.RechargeStatusPending {
		return 0, nil
	}
	by, at := arg.ApprovedByID, arg.ApprovedAt
	r.Status = domain.RechargeStatusRejected
	r.Notes = arg.Notes
	r.ApprovedByID, r.ApprovedAt = &by, &at
	return 1, nil
}

func (v *view) ListRecharges(ctx context.Context, arg repository.ListRechargesParams) ([]models.RechargeRequest, error) {
	st, done := v.begin()
	defer done()

	var out []models.RechargeRequest
	for i := len(st.recharges.rows) - 1; i >= 0; i-- {
		r := st.recharges.rows[i]
		if matches(arg.OperatorID, r.OperatorID, r.Status, arg.Status) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b models.RechargeRequest) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (v *view) SumApprovedRecharges(ctx context.Context, arg repository.SumApprovedRechargesParams) (repository.RechargeTotals, error) {
	st, done := v.begin()
	defer done()

	totals := repository.RechargeTotals{AmountMXN: decimal.Zero, AmountUSDT: decimal.Zero}
	for _, r := range st.recharges.rows {
		if r.OperatorID != arg.OperatorID || r.Status != domain.RechargeStatusApproved || r.ApprovedAt == nil {
			continue
		}
		if r.ApprovedAt.Before(arg.From) || !r.ApprovedAt.Before(arg.To) {
			continue
		}
		totals.AmountMXN = totals.AmountMXN.Add(r.AmountMXN)
		totals.AmountUSDT = totals.AmountUSDT.Add(r.AmountUSDT)
		totals.Count++
	}
	return totals, nil
}

func (v *view) InsertLoan(ctx context.Context, loan *models.Loan) error {
	st, done := v.begin()
	defer done()

	if _, ok := st.operators.get(loan.OperatorID); !ok {
		return repository.ErrNoRows
	}
	loan.CreatedAt = v.stamp(loan.CreatedAt)
	st.loans.insert(loan.ID, *loan)
	return nil
}

func (v *view) GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	st, done := v.begin()
	defer done()

	l, ok := st.loans.get(id)
	if !ok {
		return nil, repository.ErrNoRows
	}
	out := *l
	return &out, nil
}

func (v *view) ApproveLoan(ctx context.Context, arg repository.ApproveLoanParams) (int64, error) {
	st, done := v.begin()
	defer done()

	l, ok := st.loans.get(arg.ID)
	if !ok || l.Status != domain.LoanStatusActive || l.ApprovedByID != nil {
		return 0, nil
	}
	by, at := arg.ApprovedByID, arg.ApprovedAt
	l.ApprovedByID, l.ApprovedAt = &by, &at
	if arg.ExchangeRate != nil {
		rate := *arg.ExchangeRate
		l.ExchangeRate = &rate
	}
	return 1, nil
}

func (v *view) CloseLoan(ctx context.Context, arg repository.CloseLoanParams) (int64, error) {
	st, done := v.begin()
	defer done()

	l, ok := st.loans.get(arg.ID)
	if !ok || l.Status != domain.LoanStatusActive {
		return 0, nil
	}
	l.Status = arg.Status
	if arg.PaidAt != nil {
		at := *arg.PaidAt
		l.PaidAt = &at
	}
	if arg.Notes != "" {
		l.Notes = arg.Notes
	}
	return 1, nil
}

func (v *view) ListLoans(ctx context.Context, arg repository.ListLoansParams) ([]models.Loan, error) {
	st, done := v.begin()
	defer done()

	var out []models.Loan
	for i := len(st.loans.rows) - 1; i >= 0; i-- {
		l := st.loans.rows[i]
		if matches(arg.OperatorID, l.OperatorID, l.Status, arg.Status) {
			out = append(out, l)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Loan) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (v *view) GetDailyCut(ctx context.Context, id uuid.UUID) (*models.DailyCut, error) {
	st, done := v.begin()
	defer done()

	c, ok := st.cuts.get(id)
	if !ok {
		return nil, repository.ErrNoRows
	}
	out := *c
	return &out, nil
}

func (v *view) GetDailyCutByOperatorDate(ctx context.Context, operatorID uuid.UUID, date time.Time) (*models.DailyCut, error) {
	st, done := v.begin()
	defer done()

	for _, c := range st.cuts.rows {
		if c.OperatorID == operatorID && sameDay(c.Date, date) {
			return &c, nil
		}
	}
	return nil, repository.ErrNoRows
}

func (v *view) InsertDailyCut(ctx context.Context, cut *models.DailyCut) error {
	st, done := v.begin()
	defer done()

	if _, ok := st.operators.get(cut.OperatorID); !ok {
		return repository.ErrNoRows
	}
	for _, c := range st.cuts.rows {
		if c.OperatorID == cut.OperatorID && sameDay(c.Date, cut.Date) {
			return uniqueErr("daily_cuts_operator_id_cut_date_key")
		}
	}
	cut.Date = time.Date(cut.Date.Year(), cut.Date.Month(), cut.Date.Day(), 0, 0, 0, 0, time.UTC)
	cut.CreatedAt = v.stamp(cut.CreatedAt)
	cut.UpdatedAt = v.stamp(cut.UpdatedAt)
	st.cuts.insert(cut.ID, *cut)
	return nil
}

func (v *view) UpdateDailyCutReport(ctx context.Context, arg repository.UpdateDailyCutReportParams) (int64, error) {
	st, done := v.begin()
	defer done()

	c, ok := st.cuts.get(arg.ID)
	if !ok || c.Status != arg.ExpectedStatus {
		return 0, nil
	}
	c.Status = arg.Status
	c.EndingBalanceMXN, c.EndingBalanceUSDT = arg.EndingBalanceMXN, arg.EndingBalanceUSDT
	c.TotalSalesMXN, c.TotalSalesUSDT = arg.TotalSalesMXN, arg.TotalSalesUSDT
	c.TotalRechargesMXN, c.TotalRechargesUSDT = arg.TotalRechargesMXN, arg.TotalRechargesUSDT
	c.CalculatedProfitMXN = arg.CalculatedProfitMXN
	c.ExchangeRate = nil
	if arg.ExchangeRate != nil {
		rate := *arg.ExchangeRate
		c.ExchangeRate = &rate
	}
	c.Notes = arg.Notes
	c.UpdatedAt = arg.UpdatedAt
	c.ReviewedByID, c.ReviewedAt = nil, nil
	return 1, nil
}

func (v *view) ReviewDailyCut(ctx context.Context, arg repository.ReviewDailyCutParams) (int64, error) {
	st, done := v.begin()
	defer done()

	c, ok := st.cuts.get(arg.ID)
	if !ok || c.Status != arg.FromStatus {
		return 0, nil
	}
	by, at := arg.ReviewedByID, arg.ReviewedAt
	c.Status = arg.ToStatus
	c.ReviewedByID, c.ReviewedAt = &by, &at
	c.UpdatedAt = at
	if arg.Notes != nil {
		c.Notes = *arg.Notes
	}
	return 1, nil
}

func (v *view) AddProfitTransfer(ctx context.Context, arg repository.AddProfitTransferParams) (int64, error) {
	st, done := v.begin()
	defer done()

	c, ok := st.cuts.get(arg.ID)
	if !ok || c.Status != domain.CutStatusApproved {
		return 0, nil
	}
	c.ProfitTransferred = c.ProfitTransferred.Add(arg.Amount)
	if arg.ProofURL != "" {
		c.ProfitProofURL = arg.ProofURL
	}
	c.UpdatedAt = arg.UpdatedAt
	return 1, nil
}

func (v *view) ListDailyCuts(ctx context.Context, arg repository.ListDailyCutsParams) ([]models.DailyCut, error) {
	st, done := v.begin()
	defer done()

	var out []models.DailyCut
	for i := len(st.cuts.rows) - 1; i >= 0; i-- {
		c := st.cuts.rows[i]
		if matches(arg.OperatorID, c.OperatorID, c.Status, arg.Status) {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b models.DailyCut) int {
		return cmp.Or(b.Date.Compare(a.Date), b.CreatedAt.Compare(a.CreatedAt))
	})
	return out, nil
}
