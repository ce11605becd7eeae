package memory

import (
	"context"
	"sync"

	"ecoshop_back_end/internal/models"
)

type StockMovementRepository struct {
	mu        sync.RWMutex
	movements map[string][]*models.StockMovement
}

func NewStockMovementRepository() *StockMovementRepository {
	return &StockMovementRepository{
		movements: make(map[string][]*models.StockMovement),
	}
}

func (r *StockMovementRepository) Append(ctx context.Context, m *models.StockMovement) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *m
	r.movements[m.ProductID] = append(r.movements[m.ProductID], &cp)
	return nil
}

// ListByProduct retourne les mouvements les plus récents d'abord.
func (r *StockMovementRepository) ListByProduct(ctx context.Context, productID string, limit int) ([]*models.StockMovement, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.movements[productID]
	out := make([]*models.StockMovement, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *all[i]
		out = append(out, &cp)
	}
	return out, nil
}
