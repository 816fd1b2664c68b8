package reviews

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Upsert(ctx context.Context, review models.Review) (*models.Review, error) {
	args := m.Called(ctx, review)
	if r := args.Get(0); r != nil {
		return r.(*models.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListByDestination(ctx context.Context, destinationID string) ([]models.Review, error) {
	args := m.Called(ctx, destinationID)
	if r := args.Get(0); r != nil {
		return r.([]models.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, userID, reviewID string) error {
	return m.Called(ctx, userID, reviewID).Error(0)
}

// fakeDestinations knows a fixed set of destination ids.
type fakeDestinations map[string]bool

func (f fakeDestinations) Get(category models.Category, id string) (models.Listing, error) {
	if category != models.CategoryDestination || !f[id] {
		return models.Listing{}, fmt.Errorf("%s %q: %w", category, id, models.ErrNotFound)
	}
	return models.Listing{ID: id, Category: category, Title: id}, nil
}

var knownDestinations = fakeDestinations{"carthage": true, "dougga": true}

func TestService_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("trims and stores", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, knownDestinations, zap.NewNop())
		want := models.Review{UserID: userID, DestinationID: "carthage", Rating: 4, Comment: "Worth the trip"}
		repo.On("Upsert", mock.Anything, want).Return(&models.Review{ID: reviewID, UserID: userID, DestinationID: "carthage", Rating: 4, Comment: "Worth the trip"}, nil)

		got, err := svc.Upsert(ctx, userID, "carthage", 4, "  Worth the trip \n")
		require.NoError(t, err)
		assert.Equal(t, reviewID, got.ID)
		repo.AssertExpectations(t)
	})

	tests := []struct {
		name        string
		destination string
		rating      int
		comment     string
		wantErr     error
		wantField   string
	}{
		{"rating too low", "carthage", 0, "ok", models.ErrValidation, "rating"},
		{"rating too high", "carthage", 6, "ok", models.ErrValidation, "rating"},
		{"blank comment", "carthage", 3, "   ", models.ErrValidation, "comment"},
		{"comment too long", "carthage", 3, strings.Repeat("a", maxCommentLength+1), models.ErrValidation, "comment"},
		{"unknown destination", "atlantis", 3, "ok", models.ErrNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := NewService(repo, knownDestinations, zap.NewNop())

			_, err := svc.Upsert(ctx, userID, tt.destination, tt.rating, tt.comment)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantField != "" {
				var verr *models.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
			}
			repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		})
	}
}

func TestService_ListByDestination(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, knownDestinations, zap.NewNop())
	repo.On("ListByDestination", mock.Anything, "dougga").Return([]models.Review{{ID: "r1"}}, nil)

	got, err := svc.ListByDestination(context.Background(), "dougga")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.ListByDestination(context.Background(), "atlantis")
	assert.ErrorIs(t, err, models.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed id is not found", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, knownDestinations, zap.NewNop())

		err := svc.Delete(ctx, userID, "not-a-uuid")
		assert.ErrorIs(t, err, models.ErrNotFound)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("forbidden passes through", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, knownDestinations, zap.NewNop())
		repo.On("Delete", mock.Anything, otherID, reviewID).Return(fmt.Errorf("nope: %w", models.ErrForbidden))

		err := svc.Delete(ctx, otherID, reviewID)
		assert.ErrorIs(t, err, models.ErrForbidden)
		repo.AssertExpectations(t)
	})
}
