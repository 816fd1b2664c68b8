// Package reviews stores signed-in users' destination reviews.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

const maxCommentLength = 1000

var (
	errRatingRange  = errors.New("rating must be between 1 and 5")
	errCommentLong  = fmt.Errorf("comment must be at most %d characters", maxCommentLength)
	errEmptyComment = errors.New("comment cannot be empty")
)

// Destinations resolves catalog destinations. The catalog service satisfies it.
type Destinations interface {
	Get(category models.Category, id string) (models.Listing, error)
}

type Service interface {
	Upsert(ctx context.Context, userID, destinationID string, rating int, comment string) (*models.Review, error)
	ListByDestination(ctx context.Context, destinationID string) ([]models.Review, error)
	Delete(ctx context.Context, userID, reviewID string) error
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	logger       *zap.Logger
	repo         Repository
	destinations Destinations
	tracer       trace.Tracer
}

func NewService(repo Repository, destinations Destinations, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		repo:         repo,
		destinations: destinations,
		tracer:       otel.Tracer("ReviewsService"),
	}
}

func (s *ServiceImpl) Upsert(ctx context.Context, userID, destinationID string, rating int, comment string) (*models.Review, error) {
	ctx, span := s.tracer.Start(ctx, "ReviewsService.Upsert", trace.WithAttributes(
		attribute.String("destination.id", destinationID),
		attribute.Int("review.rating", rating),
	))
	defer span.End()

	if rating < 1 || rating > 5 {
		return nil, models.NewValidationError("rating", errRatingRange)
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, models.NewValidationError("comment", errEmptyComment)
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, models.NewValidationError("comment", errCommentLong)
	}
	if _, err := s.destinations.Get(models.CategoryDestination, destinationID); err != nil {
		return nil, err
	}

	review, err := s.repo.Upsert(ctx, models.Review{
		UserID:        userID,
		DestinationID: destinationID,
		Rating:        rating,
		Comment:       comment,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("Review saved",
		zap.String("userID", userID),
		zap.String("destinationID", destinationID),
		zap.String("reviewID", review.ID))
	return review, nil
}

// ListByDestination returns the reviews of a destination, newest first.
func (s *ServiceImpl) ListByDestination(ctx context.Context, destinationID string) ([]models.Review, error) {
	ctx, span := s.tracer.Start(ctx, "ReviewsService.ListByDestination", trace.WithAttributes(
		attribute.String("destination.id", destinationID),
	))
	defer span.End()

	if _, err := s.destinations.Get(models.CategoryDestination, destinationID); err != nil {
		return nil, err
	}
	return s.repo.ListByDestination(ctx, destinationID)
}

func (s *ServiceImpl) Delete(ctx context.Context, userID, reviewID string) error {
	ctx, span := s.tracer.Start(ctx, "ReviewsService.Delete", trace.WithAttributes(
		attribute.String("review.id", reviewID),
	))
	defer span.End()

	// Review ids are UUIDs; anything else cannot exist.
	if _, err := uuid.Parse(reviewID); err != nil {
		return fmt.Errorf("review %q: %w", reviewID, models.ErrNotFound)
	}
	if err := s.repo.Delete(ctx, userID, reviewID); err != nil {
		return err
	}

	s.logger.Info("Review deleted", zap.String("userID", userID), zap.String("reviewID", reviewID))
	return nil
}
