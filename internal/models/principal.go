package models

import "github.com/google/uuid"

// Principal is the authenticated caller of a workflow operation. Role
// resolution happens before the workflow is invoked.
type Principal struct {
	UserID     uuid.UUID
	Role       string
	OperatorID *uuid.UUID
}

func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

// Owns reports whether the principal is the operator identified by operatorID.
func (p Principal) Owns(operatorID uuid.UUID) bool {
	return p.Role == "operator" && p.OperatorID != nil && *p.OperatorID == operatorID
}
