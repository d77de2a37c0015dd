package service

import (
	"context"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/google/uuid"
)

func requireAdmin(p models.Principal) error {
	if !p.IsAdmin() {
		return domain.Unauthorizedf("admin role required")
	}
	return nil
}

// requireOperator checks that p is the active operator identified by
// operatorID and returns that operator.
func requireOperator(ctx context.Context, q repository.Querier, p models.Principal, operatorID uuid.UUID) (*models.Operator, error) {
	if !p.Owns(operatorID) {
		return nil, domain.Unauthorizedf("operator %s cannot act for %s", principalName(p), operatorID)
	}
	op, err := q.GetOperator(ctx, operatorID)
	if err != nil {
		return nil, notFound(err, domain.EntityOperator, operatorID)
	}
	if !op.IsActive {
		return nil, domain.Unauthorizedf("operator %s is inactive", operatorID)
	}
	return op, nil
}

// requireAdminOrOwner allows administrators and the operator that owns operatorID.
func requireAdminOrOwner(p models.Principal, operatorID uuid.UUID) error {
	if p.IsAdmin() || p.Owns(operatorID) {
		return nil
	}
	return domain.Unauthorizedf("access to operator %s denied", operatorID)
}

// scopeOperator narrows a read filter to the caller. Admins may pass any
// filter, operators always see only their own rows.
func scopeOperator(p models.Principal, requested *uuid.UUID) (*uuid.UUID, error) {
	if p.IsAdmin() {
		return requested, nil
	}
	if p.Role != domain.RoleOperator || p.OperatorID == nil {
		return nil, domain.Unauthorizedf("unknown role %q", p.Role)
	}
	if requested != nil && *requested != *p.OperatorID {
		return nil, domain.Unauthorizedf("access to operator %s denied", *requested)
	}
	return p.OperatorID, nil
}

func principalName(p models.Principal) string {
	if p.OperatorID != nil {
		return p.OperatorID.String()
	}
	return p.UserID.String()
}
