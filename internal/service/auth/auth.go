package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nkiryanov/realestate/internal/apperrors"
	"github.com/nkiryanov/realestate/internal/logger"
	"github.com/nkiryanov/realestate/internal/models"
	"github.com/nkiryanov/realestate/internal/repository"
	"github.com/nkiryanov/realestate/internal/service/auth/tokenmanager"
)

type Config struct {
	// Hasher to compare user passwords on login
	// If not set DefaultHasher is used
	Hasher PasswordHasher

	// If not set logs are discarded
	Logger logger.Logger
}

// Auth service
type AuthService struct {
	// Manager to issue and parse access and refresh tokens
	tokens *tokenmanager.TokenManager

	// hasher to compare user passwords
	hasher PasswordHasher

	// Repository to look up users
	userRepo repository.UserRepo

	logger logger.Logger

	// Hash compared against on unknown username, so login takes the same time whether user exists or not
	dummyOnce sync.Once
	dummyHash string
}

func NewService(cfg Config, tokens *tokenmanager.TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	if tokens == nil || userRepo == nil {
		return nil, errors.New("token manager and user repo must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	l := cfg.Logger
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &AuthService{
		tokens:   tokens,
		hasher:   hasher,
		userRepo: userRepo,
		logger:   l,
	}, nil
}

// Verify username and password
// Unknown user and wrong password both fail with apperrors.ErrInvalidCredentials
func (s *AuthService) Authenticate(ctx context.Context, username string, password string) (models.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)

	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummy(), password)
		return models.User{}, apperrors.ErrInvalidCredentials
	default:
		return models.User{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, apperrors.ErrInvalidCredentials
	}

	return user, nil
}

// Authenticate user and issue access and refresh token pair
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		s.logger.Debug("Login failed", "username", username, "error", err)
		return pair, err
	}

	subject := user.ID.String()
	pair.Access, err = s.tokens.IssueAccess(subject, user.Role, 0)
	if err != nil {
		return pair, err
	}
	pair.Refresh, err = s.tokens.IssueRefresh(subject, user.Role, user.Name, user.AvatarURL)
	if err != nil {
		return pair, err
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return pair, nil
}

// Issue new access token for the valid refresh token
// Subject and role are taken from the refresh token as is, the user is not looked up
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.IssuedToken, error) {
	claims, err := s.tokens.ParseRefresh(refresh)

	switch {
	case err == nil:
	case errors.Is(err, tokenmanager.ErrWrongTokenType):
		s.logger.Debug("Refresh with token of wrong type")
		return models.IssuedToken{}, apperrors.ErrInvalidTokenType
	default:
		s.logger.Debug("Refresh with invalid token", "error", err)
		return models.IssuedToken{}, apperrors.ErrInvalidRefreshToken
	}

	if claims.Subject == "" {
		return models.IssuedToken{}, apperrors.ErrInvalidToken
	}

	return s.tokens.IssueAccess(claims.Subject, claims.Role, 0)
}

// Return user the access token was issued for
// Any failure is reported as apperrors.ErrCouldNotValidate
func (s *AuthService) ResolveCurrentUser(ctx context.Context, access string) (models.User, error) {
	claims, err := s.tokens.ParseAccess(access)
	if err != nil {
		s.logger.Debug("Access token rejected", "error", err)
		return models.User{}, apperrors.ErrCouldNotValidate
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.User{}, apperrors.ErrCouldNotValidate
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, apperrors.ErrCouldNotValidate
	default:
		return models.User{}, fmt.Errorf("can't resolve current user. Err: %w", err)
	}
}

// Return the user if it has exactly the role, fail with apperrors.ErrInsufficientRole otherwise
func (s *AuthService) RequireRole(user models.User, role models.Role) (models.User, error) {
	if user.Role != role {
		return user, apperrors.ErrInsufficientRole
	}
	return user, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}
