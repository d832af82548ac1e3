package services

import (
	"context"
	"errors"
	"strings"

	"medref-portal/internal/adapters/persistence/models"
	"medref-portal/internal/adapters/persistence/repositories"
	"medref-portal/internal/core/domain"
	jwtpkg "medref-portal/internal/pkg/jwt"
	"medref-portal/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RegisterInput carries a citizen registration request
type RegisterInput struct {
	FullName    string `json:"full_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// LoginInput carries a login request
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair holds a freshly issued access/refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // access token lifetime in seconds
}

// AuthService defines authentication business logic
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.UserResponse, error)
	Login(ctx context.Context, input LoginInput) (*models.UserResponse, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uint) (*models.UserResponse, error)
}

// authService implements AuthService
type authService struct {
	users             repositories.UserRepository
	tokens            repositories.RefreshTokenRepository
	jwtSecret         string
	accessExpiryMins  int
	refreshExpiryDays int
}

// NewAuthService creates a new auth service
func NewAuthService(users repositories.UserRepository, tokens repositories.RefreshTokenRepository, jwtSecret string, accessExpiryMins, refreshExpiryDays int) AuthService {
	return &authService{
		users:             users,
		tokens:            tokens,
		jwtSecret:         jwtSecret,
		accessExpiryMins:  accessExpiryMins,
		refreshExpiryDays: refreshExpiryDays,
	}
}

// Register creates a citizen account
func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.UserResponse, error) {
	if strings.TrimSpace(input.FullName) == "" {
		return nil, domain.Validationf("full name is required")
	}
	if len(strings.TrimSpace(input.Username)) < 3 {
		return nil, domain.Validationf("username must be at least 3 characters")
	}
	if !strings.Contains(input.Email, "@") {
		return nil, domain.Validationf("invalid email address")
	}
	if !password.ValidatePassword(input.Password) {
		return nil, domain.Validationf("password must be at least 8 characters")
	}

	taken, err := s.users.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrUserAlreadyExists
	}
	taken, err = s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrUserAlreadyExists
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FullName:    input.FullName,
		Username:    input.Username,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Password:    hashed,
		Role:        string(domain.RoleCitizen),
		IsActive:    true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrUserAlreadyExists
		}
		return nil, err
	}

	return user.ToResponse(), nil
}

// Login authenticates a user and issues a token pair
func (s *authService) Login(ctx context.Context, input LoginInput) (*models.UserResponse, *TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, domain.ErrUserInactive
	}
	if !password.Verify(input.Password, user.Password) {
		return nil, nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user.ToResponse(), pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair issued. A revoked token presented again revokes the whole family,
// since that pattern means the token leaked.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := jwtpkg.ValidateRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	stored, err := s.tokens.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jwtpkg.ErrTokenInvalid
		}
		return nil, err
	}
	if stored.IsRevoked() {
		if err := s.tokens.RevokeAllByUserID(ctx, claims.UserID); err != nil {
			return nil, err
		}
		return nil, jwtpkg.ErrTokenInvalid
	}
	if stored.IsExpired() {
		return nil, jwtpkg.ErrTokenExpired
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if err := s.tokens.Revoke(ctx, stored.ID); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes the presented refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.RevokeByTokenHash(ctx, password.HashToken(refreshToken))
}

// Me gets the current user's profile
func (s *authService) Me(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

func (s *authService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, err := jwtpkg.GenerateAccessToken(user.ID, user.Username, user.Role, s.jwtSecret, s.accessExpiryMins)
	if err != nil {
		return nil, err
	}

	tokenID := uuid.NewString()
	refreshToken, err := jwtpkg.GenerateRefreshToken(user.ID, tokenID, s.jwtSecret, s.refreshExpiryDays)
	if err != nil {
		return nil, err
	}

	record := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwtpkg.GetExpiryTime(s.refreshExpiryDays),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.accessExpiryMins * 60,
	}, nil
}
