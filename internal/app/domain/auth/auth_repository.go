package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
	database "github.com/FACorreiaa/go-tunisia-guide/internal/db"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type AuthRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error)
	GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error)
	// CreateUser stores a new user with a HASHED password.
	CreateUser(ctx context.Context, email, displayName, hashedPassword string) (*models.UserAuth, error)
	UpdatePassword(ctx context.Context, userID, newHashedPassword string) error
	UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.UserAuth, error)

	StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (userID string, err error)
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
	InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error

	// StoreResetToken keeps only the hash of a password reset token.
	StoreResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	// ConsumeResetToken marks an unused, unexpired token as used and returns its user.
	ConsumeResetToken(ctx context.Context, tokenHash string) (userID string, err error)
}

type PostgresAuthRepo struct {
	logger *zap.Logger
	db     database.Querier
	tracer trace.Tracer
}

func NewPostgresAuthRepo(db database.Querier, logger *zap.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		db:     db,
		tracer: otel.Tracer("AuthRepository"),
	}
}

var userColumns = []string{"id", "email", "display_name", "password_hash", "created_at"}

func scanUser(row pgx.Row) (*models.UserAuth, error) {
	var u models.UserAuth
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.UserAuth, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where("LOWER(email) = LOWER(?)", email).
		Where(sq.Eq{"is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(sq.Eq{"id": userID, "is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with ID %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by ID", zap.Error(err), zap.String("userID", userID))
		return nil, fmt.Errorf("database error fetching user by ID: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, email, displayName, hashedPassword string) (*models.UserAuth, error) {
	ctx, span := r.tracer.Start(ctx, "PostgresAuthRepo.CreateUser", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.statement", "INSERT INTO users ..."),
	))
	defer span.End()

	query, args, err := psql.Insert("users").
		Columns("email", "display_name", "password_hash").
		Values(email, displayName, hashedPassword).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	user := &models.UserAuth{Email: email, DisplayName: displayName, PasswordHash: hashedPassword}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&user.ID, &user.CreatedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database error")
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("email already registered: %w", models.ErrConflict)
		}
		r.logger.Error("Error inserting user", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("database error registering user: %w", err)
	}

	span.SetStatus(codes.Ok, "User created")
	r.logger.Info("User registered", zap.String("userID", user.ID))
	return user, nil
}

func (r *PostgresAuthRepo) UpdatePassword(ctx context.Context, userID, newHashedPassword string) error {
	query, args, err := psql.Update("users").
		Set("password_hash", newHashedPassword).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": userID, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Error updating password hash", zap.Error(err), zap.String("userID", userID))
		return fmt.Errorf("database error updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
	}
	return nil
}

func (r *PostgresAuthRepo) UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.UserAuth, error) {
	query, args, err := psql.Update("users").
		Set("display_name", displayName).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": userID, "is_active": true}).
		Suffix("RETURNING id, email, display_name, password_hash, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found: %w", userID, models.ErrNotFound)
		}
		r.logger.Error("Error updating display name", zap.Error(err), zap.String("userID", userID))
		return nil, fmt.Errorf("database error updating profile: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	query, args, err := psql.Insert("refresh_tokens").
		Columns("user_id", "token", "expires_at").
		Values(userID, token, expiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		r.logger.Error("Error storing refresh token", zap.Error(err), zap.String("userID", userID))
		return fmt.Errorf("database error storing refresh token: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error) {
	query, args, err := psql.Select("user_id", "expires_at", "revoked_at").
		From("refresh_tokens").
		Where(sq.Eq{"token": refreshToken}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var (
		userID    string
		expiresAt time.Time
		revokedAt *time.Time
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(&userID, &expiresAt, &revokedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("refresh token not found: %w", models.ErrUnauthenticated)
		}
		r.logger.Error("Error querying refresh token", zap.Error(err))
		return "", fmt.Errorf("database error validating refresh token: %w", err)
	}

	if revokedAt != nil {
		return "", fmt.Errorf("refresh token has been revoked: %w", models.ErrUnauthenticated)
	}
	if time.Now().After(expiresAt) {
		return "", fmt.Errorf("refresh token has expired: %w", models.ErrUnauthenticated)
	}
	return userID, nil
}

func (r *PostgresAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	query, args, err := psql.Update("refresh_tokens").
		Set("revoked_at", sq.Expr("NOW()")).
		Where(sq.Eq{"token": refreshToken, "revoked_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Error invalidating refresh token", zap.Error(err))
		return fmt.Errorf("database error invalidating token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Refresh token not found or already invalidated")
	}
	return nil
}

func (r *PostgresAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error {
	query, args, err := psql.Update("refresh_tokens").
		Set("revoked_at", sq.Expr("NOW()")).
		Where(sq.Eq{"user_id": userID, "revoked_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		r.logger.Error("Error invalidating all refresh tokens for user", zap.Error(err), zap.String("userID", userID))
		return fmt.Errorf("database error invalidating tokens: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) StoreResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query, args, err := psql.Insert("password_reset_tokens").
		Columns("token_hash", "user_id", "expires_at").
		Values(tokenHash, userID, expiresAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		r.logger.Error("Error storing reset token", zap.Error(err), zap.String("userID", userID))
		return fmt.Errorf("database error storing reset token: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) ConsumeResetToken(ctx context.Context, tokenHash string) (string, error) {
	query, args, err := psql.Update("password_reset_tokens").
		Set("used_at", sq.Expr("NOW()")).
		Where(sq.Eq{"token_hash": tokenHash, "used_at": nil}).
		Where("expires_at > NOW()").
		Suffix("RETURNING user_id").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var userID string
	if err := r.db.QueryRow(ctx, query, args...).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrResetTokenInvalid
		}
		r.logger.Error("Error consuming reset token", zap.Error(err))
		return "", fmt.Errorf("database error consuming reset token: %w", err)
	}
	return userID, nil
}
