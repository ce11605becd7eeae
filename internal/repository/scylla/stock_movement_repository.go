package scylla

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"

	"ecoshop_back_end/internal/models"
)

type StockMovementRepository struct {
	session *gocql.Session
}

func NewStockMovementRepository(session *gocql.Session) *StockMovementRepository {
	return &StockMovementRepository{session: session}
}

// Append exige que m.ID soit un UUID version 1 (basé sur le temps).
func (r *StockMovementRepository) Append(ctx context.Context, m *models.StockMovement) error {
	return r.session.Query(`INSERT INTO stock_movements
		(product_id, id, order_id, delta, prev_stock, new_stock, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ProductID, m.ID, m.OrderID, m.Delta, m.PrevStock, m.NewStock, m.Reason, m.CreatedAt,
	).WithContext(ctx).Exec()
}

func (r *StockMovementRepository) ListByProduct(ctx context.Context, productID string, limit int) ([]*models.StockMovement, error) {
	if limit <= 0 {
		limit = 100
	}
	iter := r.session.Query(`SELECT product_id, id, order_id, delta, prev_stock, new_stock, reason, created_at
		FROM stock_movements WHERE product_id = ? LIMIT ?`, productID, limit).WithContext(ctx).Iter()

	var out []*models.StockMovement
	var m models.StockMovement
	for iter.Scan(&m.ProductID, &m.ID, &m.OrderID, &m.Delta, &m.PrevStock, &m.NewStock, &m.Reason, &m.CreatedAt) {
		cp := m
		out = append(out, &cp)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	return out, nil
}
