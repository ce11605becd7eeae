package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository/memory"
)

func TestComputeRating(t *testing.T) {
	avg, n := ComputeRating(nil)
	assert.Zero(t, avg)
	assert.Zero(t, n)

	avg, n = ComputeRating([]models.Review{{Rating: 5}, {Rating: 4}, {Rating: 3}})
	assert.InDelta(t, 4.0, avg, 1e-9)
	assert.Equal(t, 3, n)
}

func newReviews(t *testing.T) (*ReviewService, *memory.ProductRepository) {
	t.Helper()
	repo := memory.NewProductRepository()
	require.NoError(t, repo.Create(context.Background(), &models.Product{ID: "p1", Name: "Lamp", Stock: 3}))
	return NewReviewService(repo, zap.NewNop()), repo
}

func TestReviewService_UpsertOverwritesOwnReview(t *testing.T) {
	ctx := context.Background()
	svc, repo := newReviews(t)
	ada := &models.User{ID: "u1", Name: "Ada"}
	bob := &models.User{ID: "u2", Name: "Bob"}

	_, err := svc.Upsert(ctx, "p1", ada, 5, "great")
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, "p1", bob, 3, "ok")
	require.NoError(t, err)
	p, err := svc.Upsert(ctx, "p1", ada, 1, "broke")
	require.NoError(t, err)

	require.Len(t, p.Reviews, 2)
	assert.Equal(t, "broke", p.Reviews[0].Comment)
	assert.Equal(t, 2, p.NumOfReviews)
	assert.InDelta(t, 2.0, p.Ratings, 1e-9)

	stored, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, p.Ratings, stored.Ratings)
	assert.Equal(t, 3, stored.Stock)
}

func TestReviewService_RejectsRatingOutOfRange(t *testing.T) {
	svc, _ := newReviews(t)
	user := &models.User{ID: "u1"}

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Upsert(context.Background(), "p1", user, rating, "")
		assert.ErrorIs(t, err, apperrors.ErrValidation, "rating %d", rating)
	}
}

func TestReviewService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newReviews(t)
	ada := &models.User{ID: "u1", Name: "Ada", Role: models.RoleCustomer}
	bob := &models.User{ID: "u2", Name: "Bob", Role: models.RoleCustomer}
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}

	p, err := svc.Upsert(ctx, "p1", ada, 4, "fine")
	require.NoError(t, err)
	reviewID := p.Reviews[0].ID

	_, err = svc.Delete(ctx, "p1", reviewID, bob)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Delete(ctx, "p1", "missing", ada)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	p, err = svc.Delete(ctx, "p1", reviewID, admin)
	require.NoError(t, err)
	assert.Empty(t, p.Reviews)
	assert.Zero(t, p.Ratings)
	assert.Zero(t, p.NumOfReviews)

	reviews, err := svc.List(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestReviewService_MissingProduct(t *testing.T) {
	svc, _ := newReviews(t)

	_, err := svc.Upsert(context.Background(), "nope", &models.User{ID: "u1"}, 4, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.List(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
