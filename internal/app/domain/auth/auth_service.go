package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
	"github.com/FACorreiaa/go-tunisia-guide/internal/pkg/config"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// SignUpInput is what the sign up form submits.
type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	DisplayName     string
}

// AuthService defines the account operations.
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, *models.Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*models.User, *models.Tokens, error)
	ResetPassword(ctx context.Context, email string) error
	CompleteReset(ctx context.Context, token, newPassword, confirmPassword string) error
	UpdateProfile(ctx context.Context, userID, displayName string) (*models.User, *models.Tokens, error)
	ValidateAccessToken(token string) (*Claims, error)
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger *zap.Logger
	repo   AuthRepo
	mailer Mailer
	jwt    *JWTService
	cfg    config.JWTConfig
	tracer trace.Tracer
}

// NewAuthService creates a new authentication service instance.
func NewAuthService(repo AuthRepo, mailer Mailer, cfg config.JWTConfig, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		mailer: mailer,
		jwt:    NewJWTService(),
		cfg:    cfg,
		tracer: otel.Tracer("AuthService"),
	}
}

// SignUp validates the form, stores the user and returns it.
func (s *AuthServiceImpl) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	l := s.logger.With(zap.String("method", "SignUp"), zap.String("email", in.Email))
	ctx, span := s.tracer.Start(ctx, "AuthService.SignUp", trace.WithAttributes(
		attribute.String("email", in.Email),
	))
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(in.Password, &in.ConfirmPassword); err != nil {
		return nil, err
	}
	if err := ValidateDisplayName(in.DisplayName); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return nil, fmt.Errorf("could not process password: %w", err)
	}

	created, err := s.repo.CreateUser(ctx, in.Email, in.DisplayName, hash)
	if err != nil {
		l.Warn("Repository registration failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository registration failed")
		return nil, fmt.Errorf("sign up failed: %w", err)
	}

	l.Info("Sign up successful", zap.String("userID", created.ID))
	span.SetStatus(codes.Ok, "User registered")
	user := created.ToUser()
	return &user, nil
}

// Login validates credentials, generates tokens, stores the refresh token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*models.User, *models.Tokens, error) {
	l := s.logger.With(zap.String("method", "Login"), zap.String("email", email))
	l.Debug("Attempting login")

	stored, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		l.Warn("GetUserByEmail failed", zap.Error(err))
		// Don't reveal if user exists or password is wrong
		return nil, nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if !CheckPassword(stored.PasswordHash, password) {
		l.Warn("Password comparison failed", zap.String("userID", stored.ID))
		return nil, nil, fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	tokens, err := s.issueTokens(ctx, stored)
	if err != nil {
		l.Error("Failed to issue tokens", zap.String("userID", stored.ID), zap.Error(err))
		return nil, nil, err
	}

	l.Info("Login successful", zap.String("userID", stored.ID))
	user := stored.ToUser()
	return &user, tokens, nil
}

// Logout revokes the refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	l := s.logger.With(zap.String("method", "Logout"))
	if refreshToken == "" {
		return nil
	}
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Error("Failed to invalidate refresh token", zap.Error(err))
		return fmt.Errorf("logout failed: %w", err)
	}
	l.Info("Logout successful (token invalidated)")
	return nil
}

// RefreshSession validates the refresh token and rotates it.
func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (*models.User, *models.Tokens, error) {
	l := s.logger.With(zap.String("method", "RefreshSession"))

	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		l.Warn("Refresh token validation failed", zap.Error(err))
		return nil, nil, fmt.Errorf("invalid or expired refresh token: %w", err)
	}

	stored, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to get user after refresh token validation", zap.String("userID", userID), zap.Error(err))
		_ = s.repo.InvalidateRefreshToken(ctx, refreshToken)
		return nil, nil, fmt.Errorf("user for refresh token: %w", models.ErrUnauthenticated)
	}

	tokens, err := s.issueTokens(ctx, stored)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Warn("Failed to invalidate old refresh token during rotation", zap.String("userID", userID), zap.Error(err))
	}

	l.Info("Token refresh successful", zap.String("userID", userID))
	user := stored.ToUser()
	return &user, tokens, nil
}

// ResetPassword issues a single use reset token and mails it. Unknown addresses
// succeed silently.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, email string) error {
	l := s.logger.With(zap.String("method", "ResetPassword"), zap.String("email", email))

	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	stored, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			l.Info("Password reset for unknown email ignored")
			return nil
		}
		return fmt.Errorf("reset password: %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.repo.StoreResetToken(ctx, stored.ID, hashResetToken(token), time.Now().Add(s.resetTTL())); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if err := s.mailer.SendPasswordReset(ctx, stored.Email, token); err != nil {
		l.Error("Failed to send reset email", zap.Error(err))
		return fmt.Errorf("send reset email: %w", err)
	}

	l.Info("Password reset issued", zap.String("userID", stored.ID))
	return nil
}

// CompleteReset consumes a reset token, sets the new password and revokes every session.
func (s *AuthServiceImpl) CompleteReset(ctx context.Context, token, newPassword, confirmPassword string) error {
	l := s.logger.With(zap.String("method", "CompleteReset"))

	if err := ValidatePassword(newPassword, &confirmPassword); err != nil {
		return err
	}
	if token == "" {
		return models.ErrResetTokenInvalid
	}

	userID, err := s.repo.ConsumeResetToken(ctx, hashResetToken(token))
	if err != nil {
		l.Warn("Reset token rejected", zap.Error(err))
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("could not process new password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := s.repo.InvalidateAllUserRefreshTokens(ctx, userID); err != nil {
		l.Warn("Failed to invalidate refresh tokens after password reset", zap.Error(err))
	}

	l.Info("Password reset completed", zap.String("userID", userID))
	return nil
}

// UpdateProfile changes the display name and re-issues the access token so the
// new name travels with it.
func (s *AuthServiceImpl) UpdateProfile(ctx context.Context, userID, displayName string) (*models.User, *models.Tokens, error) {
	l := s.logger.With(zap.String("method", "UpdateProfile"), zap.String("userID", userID))

	displayName = strings.TrimSpace(displayName)
	if err := ValidateDisplayName(displayName); err != nil {
		return nil, nil, err
	}

	stored, err := s.repo.UpdateDisplayName(ctx, userID, displayName)
	if err != nil {
		l.Error("Failed to update display name", zap.Error(err))
		return nil, nil, fmt.Errorf("update profile: %w", err)
	}

	access, expiresAt, err := s.jwt.GenerateToken(s.jwtConfig(), stored.ID, stored.Email, stored.DisplayName)
	if err != nil {
		return nil, nil, err
	}

	l.Info("Profile updated")
	user := stored.ToUser()
	return &user, &models.Tokens{AccessToken: access, ExpiresAt: expiresAt}, nil
}

func (s *AuthServiceImpl) ValidateAccessToken(token string) (*Claims, error) {
	return s.jwt.ValidateToken(s.jwtConfig(), token)
}

func (s *AuthServiceImpl) issueTokens(ctx context.Context, user *models.UserAuth) (*models.Tokens, error) {
	access, expiresAt, err := s.jwt.GenerateToken(s.jwtConfig(), user.ID, user.Email, user.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("app error generating tokens: %w", err)
	}

	refresh := uuid.NewString()
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refresh, time.Now().Add(s.refreshTTL())); err != nil {
		return nil, fmt.Errorf("app error storing session: %w", err)
	}

	return &models.Tokens{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

func (s *AuthServiceImpl) jwtConfig() JWTConfig {
	return JWTConfig{
		SecretKey:       s.cfg.SecretKey,
		Issuer:          s.cfg.Issuer,
		TokenExpiration: s.accessTTL(),
	}
}

func (s *AuthServiceImpl) accessTTL() time.Duration {
	if s.cfg.AccessTokenTTL > 0 {
		return s.cfg.AccessTokenTTL
	}
	return 24 * time.Hour
}

func (s *AuthServiceImpl) refreshTTL() time.Duration {
	if s.cfg.RefreshTokenTTL > 0 {
		return s.cfg.RefreshTokenTTL
	}
	return 7 * 24 * time.Hour
}

func (s *AuthServiceImpl) resetTTL() time.Duration {
	if s.cfg.ResetTokenTTL > 0 {
		return s.cfg.ResetTokenTTL
	}
	return time.Hour
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
