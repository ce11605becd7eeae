package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/cache"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
	"ecoshop_back_end/internal/utils"
)

const loginRequired = "Please Login to access this resource"

// AuthService émet les tokens d'accès et retrouve l'utilisateur à partir d'un token.
type AuthService struct {
	issuer *utils.TokenIssuer
	store  *cache.Store
	users  repository.UserRepository
	logger *zap.Logger
}

func NewAuthService(issuer *utils.TokenIssuer, store *cache.Store, users repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{issuer: issuer, store: store, users: users, logger: logger}
}

// Issue signe un token pour l'utilisateur et le retourne avec son expiration.
func (s *AuthService) Issue(user *models.User) (string, time.Time, error) {
	token, claims, err := s.issuer.Issue(user)
	if err != nil {
		return "", time.Time{}, apperrors.Internal(err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// Authenticate vérifie le token et charge son utilisateur.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, *utils.Claims, error) {
	if token == "" {
		return nil, nil, apperrors.Unauthorized(loginRequired)
	}
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("Invalid or expired token")
	}

	revoked, err := s.store.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, nil, apperrors.Internal(fmt.Errorf("check token blacklist: %w", err))
	}
	if revoked {
		return nil, nil, apperrors.Unauthorized("Token has been revoked")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.Unauthorized(loginRequired)
	}
	if err != nil {
		return nil, nil, apperrors.Internal(fmt.Errorf("load user %s: %w", claims.UserID, err))
	}
	return user, claims, nil
}

// Revoke blackliste le token jusqu'à son expiration naturelle.
func (s *AuthService) Revoke(ctx context.Context, claims *utils.Claims) error {
	if claims == nil {
		return nil
	}
	if err := s.store.BlacklistToken(ctx, claims.ID, s.issuer.Remaining(claims)); err != nil {
		return apperrors.Internal(fmt.Errorf("blacklist token: %w", err))
	}
	s.logger.Info("token revoked", zap.String("user_id", claims.UserID))
	return nil
}
