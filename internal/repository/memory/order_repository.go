package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*models.Order),
	}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return r.list(ctx, func(o *models.Order) bool { return o.User == userID })
}

func (r *OrderRepository) List(ctx context.Context) ([]*models.Order, error) {
	return r.list(ctx, func(*models.Order) bool { return true })
}

func (r *OrderRepository) list(ctx context.Context, keep func(*models.Order) bool) ([]*models.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Order, 0)
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *OrderRepository) CompareAndSetStatus(ctx context.Context, id string, from, to models.OrderStatus, change repository.StatusChange) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if o.OrderStatus != from {
		return false, nil
	}
	o.OrderStatus = to
	o.StockCommitted = change.StockCommitted
	if change.DeliveredAt != nil {
		t := *change.DeliveredAt
		o.DeliveredAt = &t
	} else {
		o.DeliveredAt = nil
	}
	return true, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}
