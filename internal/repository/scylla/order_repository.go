package scylla

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"

	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
)

const orderColumns = `order_id, user_id, shipping_info, order_items, payment_info, items_price, tax_price,
	shipping_price, total_price, order_status, stock_committed, paid_at, delivered_at, created_at`

type OrderRepository struct {
	session *gocql.Session
}

func NewOrderRepository(session *gocql.Session) *OrderRepository {
	return &OrderRepository{session: session}
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	shipping, err := encode(o.ShippingInfo)
	if err != nil {
		return err
	}
	items, err := encode(o.OrderItems)
	if err != nil {
		return err
	}
	payment, err := encode(o.PaymentInfo)
	if err != nil {
		return err
	}

	q := r.session.Query(`INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`,
		o.ID, o.User, shipping, items, payment, o.ItemsPrice, o.TaxPrice, o.ShippingPrice, o.TotalPrice,
		string(o.OrderStatus), o.StockCommitted, o.PaidAt, o.DeliveredAt, o.CreatedAt,
	).WithContext(ctx)
	applied, err := cas(q)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if !applied {
		return fmt.Errorf("order %s already exists", o.ID)
	}

	if err := r.session.Query(`INSERT INTO orders_by_user (user_id, created_at, order_id) VALUES (?, ?, ?)`,
		o.User, o.CreatedAt, o.ID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("index order by user: %w", err)
	}
	return nil
}

func scanOrder(s scanner) (*models.Order, error) {
	var (
		o                        models.Order
		shipping, items, payment string
		status                   string
		deliveredAt              time.Time
	)
	if err := s.Scan(&o.ID, &o.User, &shipping, &items, &payment, &o.ItemsPrice, &o.TaxPrice,
		&o.ShippingPrice, &o.TotalPrice, &status, &o.StockCommitted, &o.PaidAt, &deliveredAt, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.OrderStatus = models.OrderStatus(status)
	if !deliveredAt.IsZero() {
		o.DeliveredAt = &deliveredAt
	}
	if err := decode(shipping, &o.ShippingInfo); err != nil {
		return nil, fmt.Errorf("decode shipping info of %s: %w", o.ID, err)
	}
	if err := decode(items, &o.OrderItems); err != nil {
		return nil, fmt.Errorf("decode items of %s: %w", o.ID, err)
	}
	if err := decode(payment, &o.PaymentInfo); err != nil {
		return nil, fmt.Errorf("decode payment info of %s: %w", o.ID, err)
	}
	return &o, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	q := r.session.Query(`SELECT `+orderColumns+` FROM orders WHERE order_id = ?`, id).WithContext(ctx)
	o, err := scanOrder(q)
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	iter := r.session.Query(`SELECT order_id FROM orders_by_user WHERE user_id = ?`, userID).WithContext(ctx).Iter()

	var ids []string
	var id string
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("list orders of %s: %w", userID, err)
	}

	out := make([]*models.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *OrderRepository) List(ctx context.Context) ([]*models.Order, error) {
	iter := r.session.Query(`SELECT ` + orderColumns + ` FROM orders`).WithContext(ctx).Iter()
	sc := iter.Scanner()

	var out []*models.Order
	for sc.Next() {
		o, err := scanOrder(sc)
		if err != nil {
			_ = iter.Close()
			return nil, err
		}
		out = append(out, o)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *OrderRepository) CompareAndSetStatus(ctx context.Context, id string, from, to models.OrderStatus, change repository.StatusChange) (bool, error) {
	q := r.session.Query(`UPDATE orders SET order_status = ?, stock_committed = ?, delivered_at = ?
		WHERE order_id = ? IF order_status = ?`,
		string(to), change.StockCommitted, change.DeliveredAt, id, string(from),
	).WithContext(ctx)
	return cas(q)
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	o, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	applied, err := cas(r.session.Query(`DELETE FROM orders WHERE order_id = ? IF EXISTS`, id).WithContext(ctx))
	if err != nil {
		return err
	}
	if !applied {
		return repository.ErrNotFound
	}

	if err := r.session.Query(`DELETE FROM orders_by_user WHERE user_id = ? AND created_at = ? AND order_id = ?`,
		o.User, o.CreatedAt, o.ID).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("unindex order %s: %w", id, err)
	}
	return nil
}
