package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
	"github.com/FACorreiaa/go-tunisia-guide/internal/pkg/config"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, email, displayName, hashedPassword string) (*models.UserAuth, error) {
	args := m.Called(ctx, email, displayName, hashedPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) UpdatePassword(ctx context.Context, userID, newHashedPassword string) error {
	return m.Called(ctx, userID, newHashedPassword).Error(0)
}

func (m *MockAuthRepo) UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.UserAuth, error) {
	args := m.Called(ctx, userID, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return m.Called(ctx, userID, token, expiresAt).Error(0)
}

func (m *MockAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockAuthRepo) StoreResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, userID, tokenHash, expiresAt).Error(0)
}

func (m *MockAuthRepo) ConsumeResetToken(ctx context.Context, tokenHash string) (string, error) {
	args := m.Called(ctx, tokenHash)
	return args.String(0), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	return m.Called(ctx, email, token).Error(0)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey:       "test-access-secret",
		Issuer:          "test-issuer",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		ResetTokenTTL:   time.Hour,
	}
}

func newTestService() (*AuthServiceImpl, *MockAuthRepo, *MockMailer) {
	repo := new(MockAuthRepo)
	mailer := new(MockMailer)
	return NewAuthService(repo, mailer, testJWTConfig(), zap.NewNop()), repo, mailer
}

func storedUser(t *testing.T, password string) *models.UserAuth {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return &models.UserAuth{
		ID:           "user-123",
		Email:        "amel@example.com",
		DisplayName:  "Amel",
		PasswordHash: hash,
	}
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("CreateUser", mock.Anything, "amel@example.com", "Amel", mock.AnythingOfType("string")).
			Return(&models.UserAuth{ID: "user-123", Email: "amel@example.com", DisplayName: "Amel"}, nil).Once()

		user, err := service.SignUp(ctx, SignUpInput{
			Email:           " amel@example.com ",
			Password:        "secret1",
			ConfirmPassword: "secret1",
			DisplayName:     "Amel",
		})
		require.NoError(t, err)
		assert.Equal(t, "user-123", user.ID)
		repo.AssertExpectations(t)

		hash := repo.Calls[0].Arguments.String(3)
		assert.True(t, CheckPassword(hash, "secret1"), "repository must receive a bcrypt hash")
	})

	t.Run("Validation errors never reach the repository", func(t *testing.T) {
		cases := map[string]struct {
			in   SignUpInput
			want error
		}{
			"mismatch":     {SignUpInput{"amel@example.com", "secret1", "secret2", "Amel"}, models.ErrPasswordMismatch},
			"short":        {SignUpInput{"amel@example.com", "abc", "abc", "Amel"}, models.ErrWeakPassword},
			"display name": {SignUpInput{"amel@example.com", "secret1", "secret1", "<b>"}, models.ErrInvalidDisplayName},
			"email":        {SignUpInput{"not-an-email", "secret1", "secret1", "Amel"}, models.ErrInvalidEmail},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				service, repo, _ := newTestService()
				_, err := service.SignUp(ctx, tc.in)
				assert.ErrorIs(t, err, tc.want)
				assert.ErrorIs(t, err, models.ErrValidation)
				repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("Duplicate email", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("CreateUser", mock.Anything, "amel@example.com", "Amel", mock.Anything).
			Return(nil, models.ErrConflict).Once()

		_, err := service.SignUp(ctx, SignUpInput{"amel@example.com", "secret1", "secret1", "Amel"})
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		service, repo, _ := newTestService()
		stored := storedUser(t, "password123")
		repo.On("GetUserByEmail", ctx, "amel@example.com").Return(stored, nil).Once()
		repo.On("StoreRefreshToken", ctx, stored.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()

		user, tokens, err := service.Login(ctx, "amel@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, user.ID)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)

		claims, err := service.ValidateAccessToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, stored.ID, claims.UserID)
		assert.Equal(t, "Amel", claims.DisplayName)
		repo.AssertExpectations(t)
	})

	t.Run("Unknown user", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("GetUserByEmail", ctx, "ghost@example.com").Return(nil, models.ErrNotFound).Once()

		_, _, err := service.Login(ctx, "ghost@example.com", "password123")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		assert.NotErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Wrong password", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("GetUserByEmail", ctx, "amel@example.com").Return(storedUser(t, "password123"), nil).Once()

		_, _, err := service.Login(ctx, "amel@example.com", "wrong")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
		repo.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestService()

	repo.On("InvalidateRefreshToken", ctx, "refresh-1").Return(nil).Once()
	assert.NoError(t, service.Logout(ctx, "refresh-1"))
	assert.NoError(t, service.Logout(ctx, ""))

	repo.On("InvalidateRefreshToken", ctx, "refresh-2").Return(errors.New("db down")).Once()
	assert.Error(t, service.Logout(ctx, "refresh-2"))
	repo.AssertExpectations(t)
}

func TestRefreshSession(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the token", func(t *testing.T) {
		service, repo, _ := newTestService()
		stored := storedUser(t, "password123")
		repo.On("ValidateRefreshTokenAndGetUserID", ctx, "old").Return(stored.ID, nil).Once()
		repo.On("GetUserByID", ctx, stored.ID).Return(stored, nil).Once()
		repo.On("StoreRefreshToken", ctx, stored.ID, mock.AnythingOfType("string"), mock.Anything).Return(nil).Once()
		repo.On("InvalidateRefreshToken", ctx, "old").Return(nil).Once()

		user, tokens, err := service.RefreshSession(ctx, "old")
		require.NoError(t, err)
		assert.Equal(t, stored.ID, user.ID)
		assert.NotEqual(t, "old", tokens.RefreshToken)
		repo.AssertExpectations(t)
	})

	t.Run("revoked token", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("ValidateRefreshTokenAndGetUserID", ctx, "revoked").Return("", models.ErrUnauthenticated).Once()

		_, _, err := service.RefreshSession(ctx, "revoked")
		assert.ErrorIs(t, err, models.ErrUnauthenticated)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a token and mails the raw value", func(t *testing.T) {
		service, repo, mailer := newTestService()
		stored := storedUser(t, "password123")
		repo.On("GetUserByEmail", ctx, stored.Email).Return(stored, nil).Once()
		repo.On("StoreResetToken", ctx, stored.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()
		mailer.On("SendPasswordReset", ctx, stored.Email, mock.AnythingOfType("string")).Return(nil).Once()

		require.NoError(t, service.ResetPassword(ctx, stored.Email))
		repo.AssertExpectations(t)
		mailer.AssertExpectations(t)

		storedHash := repo.Calls[1].Arguments.String(2)
		mailed := mailer.Calls[0].Arguments.String(2)
		assert.NotEqual(t, mailed, storedHash, "only the hash may be persisted")
		assert.Equal(t, hashResetToken(mailed), storedHash)

		expiresAt := repo.Calls[1].Arguments.Get(3).(time.Time)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)
	})

	t.Run("unknown email succeeds silently", func(t *testing.T) {
		service, repo, mailer := newTestService()
		repo.On("GetUserByEmail", ctx, "ghost@example.com").Return(nil, models.ErrNotFound).Once()

		assert.NoError(t, service.ResetPassword(ctx, "ghost@example.com"))
		mailer.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed email", func(t *testing.T) {
		service, _, _ := newTestService()
		assert.ErrorIs(t, service.ResetPassword(ctx, "nope"), models.ErrValidation)
	})
}

func TestCompleteReset(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("ConsumeResetToken", ctx, hashResetToken("raw-token")).Return("user-123", nil).Once()
		repo.On("UpdatePassword", ctx, "user-123", mock.AnythingOfType("string")).Return(nil).Once()
		repo.On("InvalidateAllUserRefreshTokens", ctx, "user-123").Return(nil).Once()

		require.NoError(t, service.CompleteReset(ctx, "raw-token", "newpass", "newpass"))
		repo.AssertExpectations(t)
	})

	t.Run("used or expired token", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("ConsumeResetToken", ctx, mock.Anything).Return("", models.ErrResetTokenInvalid).Once()

		err := service.CompleteReset(ctx, "raw-token", "newpass", "newpass")
		assert.ErrorIs(t, err, models.ErrResetTokenInvalid)
		repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("mismatch", func(t *testing.T) {
		service, _, _ := newTestService()
		assert.ErrorIs(t, service.CompleteReset(ctx, "raw-token", "newpass", "other1"), models.ErrPasswordMismatch)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		service, repo, _ := newTestService()
		repo.On("UpdateDisplayName", ctx, "user-123", "Amel B.").
			Return(&models.UserAuth{ID: "user-123", Email: "amel@example.com", DisplayName: "Amel B."}, nil).Once()

		user, tokens, err := service.UpdateProfile(ctx, "user-123", "  Amel B. ")
		require.NoError(t, err)
		assert.Equal(t, "Amel B.", user.DisplayName)

		claims, err := service.ValidateAccessToken(tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "Amel B.", claims.DisplayName)
	})

	t.Run("invalid name", func(t *testing.T) {
		service, _, _ := newTestService()
		_, _, err := service.UpdateProfile(ctx, "user-123", "x")
		assert.ErrorIs(t, err, models.ErrInvalidDisplayName)
	})
}
