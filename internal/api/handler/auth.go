package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ayo6706/otc-ledger/internal/api/middleware"
	"github.com/ayo6706/otc-ledger/internal/domain"
	"github.com/ayo6706/otc-ledger/internal/models"
	"github.com/ayo6706/otc-ledger/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserDirectory resolves the identity behind a token request.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetOperatorByUserID(ctx context.Context, userID uuid.UUID) (*models.Operator, error)
}

// AuthHandler is a development token issuer: it trusts the user id it is given.
type AuthHandler struct {
	users UserDirectory
	ttl   time.Duration
	now   func() time.Time
}

func NewAuthHandler(users UserDirectory, ttl time.Duration) *AuthHandler {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthHandler{users: users, ttl: ttl, now: time.Now}
}

type tokenRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

type tokenResponse struct {
	Token      string     `json:"token"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Role       string     `json:"role"`
	OperatorID *uuid.UUID `json:"operator_id,omitempty"`
}

// Token handles POST /v1/auth/token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	uid := uuid.MustParse(req.UserID)

	user, err := h.users.GetUser(r.Context(), uid)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			RespondError(w, r, http.StatusNotFound, "auth/user-not-found", "User not found")
			return
		}
		zap.L().Error("token user lookup failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/lookup-failed", "Failed to load user")
		return
	}

	now := h.now()
	expires := now.Add(h.ttl)
	claims := middleware.Claims{
		UserID: uid.String(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    middleware.JWTIssuer(),
			Subject:   uid.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-30 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	if aud := middleware.JWTAudience(); aud != "" {
		claims.Audience = jwt.ClaimStrings{aud}
	}

	resp := tokenResponse{ExpiresAt: expires.UTC(), Role: user.Role}
	if user.Role == domain.RoleOperator {
		op, err := h.users.GetOperatorByUserID(r.Context(), uid)
		if err != nil {
			if errors.Is(err, repository.ErrNoRows) {
				RespondError(w, r, http.StatusForbidden, "auth/operator-missing", "User has no operator profile")
				return
			}
			zap.L().Error("token operator lookup failed", zap.Error(err))
			RespondError(w, r, http.StatusInternalServerError, "auth/lookup-failed", "Failed to load operator")
			return
		}
		if !op.IsActive {
			RespondError(w, r, http.StatusForbidden, "auth/operator-inactive", "Operator is inactive")
			return
		}
		claims.OperatorID = op.ID.String()
		resp.OperatorID = &op.ID
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.JWTSecret())
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "auth/sign-failed", "Failed to sign token")
		return
	}
	resp.Token = token
	RespondJSON(w, http.StatusOK, resp)
}
