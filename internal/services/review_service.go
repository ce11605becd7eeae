package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/metrics"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
)

// ComputeRating retourne la note moyenne et le nombre d'avis, 0 sans avis.
func ComputeRating(reviews []models.Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews)), len(reviews)
}

// ReviewService garde les avis d'un produit et sa note moyenne cohérents.
// Les écritures sont conditionnées à la version du produit.
type ReviewService struct {
	products repository.ProductRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewReviewService(products repository.ProductRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		products: products,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Upsert ajoute l'avis de l'utilisateur ou remplace celui qui existe.
func (s *ReviewService) Upsert(ctx context.Context, productID string, user *models.User, rating int, comment string) (*models.Product, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, apperrors.Validation(fmt.Sprintf("Rating must be between %d and %d", models.MinRating, models.MaxRating))
	}

	return s.mutate(ctx, productID, func(p *models.Product) error {
		for i := range p.Reviews {
			if p.Reviews[i].User == user.ID {
				p.Reviews[i].Rating = rating
				p.Reviews[i].Comment = comment
				return nil
			}
		}
		p.Reviews = append(p.Reviews, models.Review{
			ID:      uuid.NewString(),
			User:    user.ID,
			Name:    user.Name,
			Rating:  rating,
			Comment: comment,
		})
		return nil
	})
}

// Delete supprime un avis. Seul son auteur ou un admin peut le faire.
func (s *ReviewService) Delete(ctx context.Context, productID, reviewID string, caller *models.User) (*models.Product, error) {
	return s.mutate(ctx, productID, func(p *models.Product) error {
		for i, r := range p.Reviews {
			if r.ID != reviewID {
				continue
			}
			if r.User != caller.ID && !caller.IsAdmin() {
				return apperrors.Forbidden("You are not allowed to delete this review")
			}
			p.Reviews = append(p.Reviews[:i], p.Reviews[i+1:]...)
			return nil
		}
		return apperrors.NotFound("Review", reviewID)
	})
}

func (s *ReviewService) List(ctx context.Context, productID string) ([]models.Review, error) {
	p, err := s.load(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Reviews == nil {
		return []models.Review{}, nil
	}
	return p.Reviews, nil
}

func (s *ReviewService) load(ctx context.Context, productID string) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Product", productID)
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("load product %s: %w", productID, err))
	}
	return p, nil
}

// mutate lit le produit, applique change, recalcule la moyenne et réécrit,
// en recommençant si un autre écrivain a incrémenté la version entre-temps.
func (s *ReviewService) mutate(ctx context.Context, productID string, change func(*models.Product) error) (*models.Product, error) {
	for attempt := 1; attempt <= maxCASAttempts; attempt++ {
		p, err := s.load(ctx, productID)
		if err != nil {
			return nil, err
		}

		expected := p.Version
		if err := change(p); err != nil {
			return nil, err
		}
		p.Ratings, p.NumOfReviews = ComputeRating(p.Reviews)
		p.UpdatedAt = s.now()

		ok, err := s.products.CompareAndSwap(ctx, p, expected)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product", productID)
		}
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("save reviews of %s: %w", productID, err))
		}
		if ok {
			p.Version = expected + 1
			return p, nil
		}

		metrics.CASRetriesTotal.WithLabelValues("product").Inc()
		s.logger.Debug("product changed concurrently, retrying",
			zap.String("product_id", productID),
			zap.Int("attempt", attempt))
	}
	return nil, apperrors.Conflict(fmt.Sprintf("Product %s is being modified concurrently, try again", productID))
}
