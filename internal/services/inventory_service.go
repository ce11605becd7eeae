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

// maxCASAttempts borne chaque boucle de compare-and-set.
const maxCASAttempts = 5

// StockChange est le résultat d'un ajustement réussi.
type StockChange struct {
	ProductID  string `json:"product_id"`
	PrevStock  int    `json:"prev_stock"`
	NewStock   int    `json:"new_stock"`
	MovementID string `json:"movement_id"`
}

// InventoryService est le seul à écrire le stock des produits. Chaque changement
// est une mise à jour conditionnée sur la valeur lue : aucun ajustement concurrent
// n'est perdu et le stock ne passe jamais sous zéro.
type InventoryService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewInventoryService(products repository.ProductRepository, movements repository.StockMovementRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		products:  products,
		movements: movements,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Adjust applique un delta signé au stock du produit.
func (s *InventoryService) Adjust(ctx context.Context, productID string, delta int, reason, orderID string) (*StockChange, error) {
	return s.apply(ctx, productID, reason, orderID, func(p *models.Product) (int, error) {
		next := p.Stock + delta
		if next < 0 {
			return 0, apperrors.Validation(fmt.Sprintf(
				"Insufficient stock for %s: %d available, %d requested", p.Name, p.Stock, -delta))
		}
		return next, nil
	})
}

// Set remplace le stock par une valeur absolue.
func (s *InventoryService) Set(ctx context.Context, productID string, stock int, reason string) (*StockChange, error) {
	if stock < 0 {
		return nil, apperrors.Validation("Stock cannot be negative")
	}
	return s.apply(ctx, productID, reason, "", func(*models.Product) (int, error) {
		return stock, nil
	})
}

func (s *InventoryService) apply(ctx context.Context, productID, reason, orderID string, next func(*models.Product) (int, error)) (*StockChange, error) {
	for attempt := 1; attempt <= maxCASAttempts; attempt++ {
		p, err := s.products.GetByID(ctx, productID)
		if errors.Is(err, repository.ErrNotFound) {
			metrics.StockAdjustmentsTotal.WithLabelValues(reason, "not_found").Inc()
			return nil, apperrors.NotFound("Product", productID)
		}
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("load product %s: %w", productID, err))
		}

		target, err := next(p)
		if err != nil {
			metrics.StockAdjustmentsTotal.WithLabelValues(reason, "rejected").Inc()
			return nil, err
		}

		ok, err := s.products.CompareAndSetStock(ctx, productID, p.Stock, target)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product", productID)
		}
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("update stock of %s: %w", productID, err))
		}
		if !ok {
			metrics.CASRetriesTotal.WithLabelValues("stock").Inc()
			s.logger.Debug("stock changed concurrently, retrying",
				zap.String("product_id", productID),
				zap.Int("attempt", attempt))
			continue
		}

		metrics.StockAdjustmentsTotal.WithLabelValues(reason, "applied").Inc()
		change := &StockChange{ProductID: productID, PrevStock: p.Stock, NewStock: target}
		change.MovementID = s.journal(ctx, change, reason, orderID)
		return change, nil
	}

	metrics.StockAdjustmentsTotal.WithLabelValues(reason, "conflict").Inc()
	return nil, apperrors.Conflict(fmt.Sprintf("Stock of product %s is changing too fast, try again", productID))
}

// journal enregistre le mouvement, un échec est seulement logué.
func (s *InventoryService) journal(ctx context.Context, change *StockChange, reason, orderID string) string {
	id, err := uuid.NewUUID()
	if err != nil {
		s.logger.Warn("stock movement id", zap.Error(err))
		return ""
	}

	m := &models.StockMovement{
		ID:        id.String(),
		ProductID: change.ProductID,
		OrderID:   orderID,
		Delta:     change.NewStock - change.PrevStock,
		PrevStock: change.PrevStock,
		NewStock:  change.NewStock,
		Reason:    reason,
		CreatedAt: s.now(),
	}
	if err := s.movements.Append(ctx, m); err != nil {
		s.logger.Warn("stock movement not recorded",
			zap.String("product_id", change.ProductID),
			zap.String("order_id", orderID),
			zap.Error(err))
		return ""
	}
	return m.ID
}

// Movements liste les derniers mouvements de stock d'un produit.
func (s *InventoryService) Movements(ctx context.Context, productID string, limit int) ([]*models.StockMovement, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product", productID)
		}
		return nil, apperrors.Internal(err)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	movements, err := s.movements.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list stock movements: %w", err))
	}
	return movements, nil
}
