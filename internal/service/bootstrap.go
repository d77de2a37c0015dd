package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EnsureAdmin creates the administrator user with the given id unless it
// already exists. It returns the stored user either way.
func EnsureAdmin(ctx context.Context, store QueryStore, id uuid.UUID, name, email string) (*models.User, error) {
	if id == uuid.Nil {
		return nil, domain.Validationf("admin id is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Validationf("admin email %q is invalid", email)
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	var admin *models.User
	err := store.RunInTx(ctx, func(q repository.Querier) error {
		existing, err := q.GetUser(ctx, id)
		if err == nil {
			if existing.Role != domain.RoleAdmin {
				return domain.InvalidStatef("user %s exists with role %s", id, existing.Role)
			}
			admin = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNoRows) {
			return fmt.Errorf("load admin user: %w", err)
		}
		admin = &models.User{ID: id, Name: strings.TrimSpace(name), Email: strings.ToLower(email), Role: domain.RoleAdmin}
		if err := q.CreateUser(ctx, admin); err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		zap.L().Info("admin user created", zap.String("user_id", id.String()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}
