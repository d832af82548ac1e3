package services

import (
	"context"
	"testing"

	"medref-portal/internal/core/domain"
	jwtpkg "medref-portal/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newTestAuthService() AuthService {
	return NewAuthService(newMemUserRepo(), newMemRefreshTokenRepo(), testJWTSecret, 15, 7)
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		FullName:    "Amina Hassan",
		Username:    "amina",
		Email:       "amina@example.org",
		PhoneNumber: "+252634112233",
		Password:    "s3cret-pass",
	}
}

func TestRegister(t *testing.T) {
	svc := newTestAuthService()

	user, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	assert.Equal(t, "amina", user.Username)
	assert.Equal(t, string(domain.RoleCitizen), user.Role)
	assert.True(t, user.IsActive)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService()

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
	}{
		{"missing full name", func(in *RegisterInput) { in.FullName = "" }},
		{"short username", func(in *RegisterInput) { in.Username = "ab" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterInput) { in.Password = "short" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRegisterInput()
			tt.mutate(&input)
			_, err := svc.Register(context.Background(), input)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRegisterInput())
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	user, tokens, err := svc.Login(ctx, LoginInput{Username: "amina", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "amina", user.Username)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, 15*60, tokens.ExpiresIn)

	claims, err := jwtpkg.ValidateAccessToken(tokens.AccessToken, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, string(domain.RoleCitizen), claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, LoginInput{Username: "amina", Password: "wrong-pass"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "whatever"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)
	_, tokens, err := svc.Login(ctx, LoginInput{Username: "amina", Password: "s3cret-pass"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The old token is revoked; presenting it again trips reuse detection
	// and revokes the new one as well
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, jwtpkg.ErrTokenInvalid)

	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, jwtpkg.ErrTokenInvalid)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)
	_, tokens, err := svc.Login(ctx, LoginInput{Username: "amina", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.RefreshToken))

	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, jwtpkg.ErrTokenInvalid)
}

func TestMe(t *testing.T) {
	svc := newTestAuthService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	user, err := svc.Me(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "amina", user.Username)

	_, err = svc.Me(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
