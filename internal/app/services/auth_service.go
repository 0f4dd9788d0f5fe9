package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/app/repositories"
	"github.com/orbisedu/backoffice/internal/pkg/apperrors"
	"github.com/orbisedu/backoffice/internal/pkg/auth"
)

// AuthService handles authentication
type AuthService struct {
	userRepo   *repositories.UserRepository
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repositories.UserRepository, jwtService *auth.JWTService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	User        *models.User
	AccessToken string
	ExpiresIn   int
}

// Login verifies credentials and issues a JWT carrying the caller's role and
// scope claims.
func (s *AuthService) Login(ctx context.Context, loginEmail, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, loginEmail)
	if err != nil {
		// Do not leak whether the account exists.
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.logger.Warn().Str("email", loginEmail).Msg("Failed login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresIn, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:        user,
		AccessToken: token,
		ExpiresIn:   expiresIn,
	}, nil
}
