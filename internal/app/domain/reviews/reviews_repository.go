package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/observability/metrics"
	database "github.com/FACorreiaa/go-tunisia-guide/internal/db"
)

var _ Repository = (*PostgresRepository)(nil)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var reviewColumns = []string{"id", "user_id", "destination_id", "rating", "comment", "created_at", "updated_at"}

type Repository interface {
	// Upsert stores the user's review of a destination, replacing an earlier one.
	Upsert(ctx context.Context, review models.Review) (*models.Review, error)
	ListByDestination(ctx context.Context, destinationID string) ([]models.Review, error)
	// Delete removes a review owned by userID.
	Delete(ctx context.Context, userID, reviewID string) error
}

type PostgresRepository struct {
	logger *zap.Logger
	db     database.Querier
	tracer trace.Tracer
}

func NewPostgresRepository(db database.Querier, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		logger: logger,
		db:     db,
		tracer: otel.Tracer("ReviewsRepository"),
	}
}

// observe records the duration of one query and counts it when it failed.
func observe(ctx context.Context, op string, start time.Time, err error) {
	m := metrics.Get()
	attrs := metric.WithAttributes(attribute.String("operation", op))
	m.DBQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		m.DBQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func (r *PostgresRepository) Upsert(ctx context.Context, review models.Review) (*models.Review, error) {
	ctx, span := r.tracer.Start(ctx, "PostgresRepository.Upsert", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("destination.id", review.DestinationID),
	))
	defer span.End()

	query, args, err := psql.Insert("reviews").
		Columns("user_id", "destination_id", "rating", "comment").
		Values(review.UserID, review.DestinationID, review.Rating, review.Comment).
		Suffix(`ON CONFLICT (user_id, destination_id) DO UPDATE
			SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
			RETURNING id, created_at, updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	saved := review
	start := time.Now()
	err = r.db.QueryRow(ctx, query, args...).Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	observe(ctx, "reviews.upsert", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database error")
		r.logger.Error("Error upserting review",
			zap.Error(err),
			zap.String("userID", review.UserID),
			zap.String("destinationID", review.DestinationID))
		return nil, fmt.Errorf("database error saving review: %w", err)
	}

	span.SetStatus(codes.Ok, "Review saved")
	return &saved, nil
}

func (r *PostgresRepository) ListByDestination(ctx context.Context, destinationID string) ([]models.Review, error) {
	ctx, span := r.tracer.Start(ctx, "PostgresRepository.ListByDestination", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("destination.id", destinationID),
	))
	defer span.End()

	query, args, err := psql.Select(reviewColumns...).
		From("reviews").
		Where(sq.Eq{"destination_id": destinationID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	start := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	observe(ctx, "reviews.list", start, err)
	if err != nil {
		span.RecordError(err)
		r.logger.Error("Error listing reviews", zap.Error(err), zap.String("destinationID", destinationID))
		return nil, fmt.Errorf("database error listing reviews: %w", err)
	}
	defer rows.Close()

	out := []models.Review{}
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.DestinationID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, reviewID string) error {
	ctx, span := r.tracer.Start(ctx, "PostgresRepository.Delete", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("review.id", reviewID),
	))
	defer span.End()

	query, args, err := psql.Delete("reviews").
		Where(sq.Eq{"id": reviewID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	start := time.Now()
	tag, err := r.db.Exec(ctx, query, args...)
	observe(ctx, "reviews.delete", start, err)
	if err != nil {
		span.RecordError(err)
		r.logger.Error("Error deleting review", zap.Error(err), zap.String("reviewID", reviewID))
		return fmt.Errorf("database error deleting review: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing deleted: tell a missing review apart from someone else's.
	var owner string
	err = r.db.QueryRow(ctx, "SELECT user_id FROM reviews WHERE id = $1", reviewID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("review %s: %w", reviewID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("database error checking review owner: %w", err)
	}
	return fmt.Errorf("review %s belongs to another user: %w", reviewID, models.ErrForbidden)
}
