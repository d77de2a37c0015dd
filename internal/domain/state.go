package domain

import "strings"

var transitions = map[string]map[string]map[string]struct{}{
	EntityRecharge: {
		RechargeStatusPending: {
			RechargeStatusApproved: {},
			RechargeStatusRejected: {},
		},
		RechargeStatusApproved:  {},
		RechargeStatusRejected:  {},
		RechargeStatusCompleted: {},
	},
	EntityLoan: {
		LoanStatusActive: {
			LoanStatusPaid:      {},
			LoanStatusCancelled: {},
		},
		LoanStatusPaid:      {},
		LoanStatusCancelled: {},
	},
	EntityDailyCut: {
		CutStatusDraft: {
			CutStatusDraft:         {},
			CutStatusPendingReview: {},
		},
		CutStatusPendingReview: {
			CutStatusPendingReview: {},
			CutStatusApproved:      {},
			CutStatusRejected:      {},
		},
		CutStatusRejected: {
			CutStatusDraft:         {},
			CutStatusPendingReview: {},
		},
		CutStatusApproved: {},
	},
}

func normalizeState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}

// CanTransition reports whether entity may move from current to next.
// Daily cuts may re-enter their own state because resubmission overwrites the report.
func CanTransition(entity, current, next string) bool {
	states, ok := transitions[entity]
	if !ok {
		return false
	}
	nextStates, ok := states[normalizeState(current)]
	if !ok {
		return false
	}
	_, ok = nextStates[normalizeState(next)]
	return ok
}
