package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
)

type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*models.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*models.Product),
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ID]; ok {
		return fmt.Errorf("product %s already exists", p.ID)
	}
	r.products[p.ID] = p.Clone()
	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ProductRepository) CompareAndSwap(ctx context.Context, p *models.Product, expectedVersion int64) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[p.ID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if current.Version != expectedVersion {
		return false, nil
	}

	next := p.Clone()
	next.Stock = current.Stock
	next.Version = expectedVersion + 1
	r.products[p.ID] = next
	return true, nil
}

func (r *ProductRepository) CompareAndSetStock(ctx context.Context, id string, expected, next int) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if current.Stock != expected {
		return false, nil
	}
	current.Stock = next
	current.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.products, id)
	return nil
}
