package scylla

import (
	"context"
	"fmt"
	"sort"

	"github.com/gocql/gocql"

	"ecoshop_back_end/internal/models"
)

const productColumns = `product_id, name, description, price, category, stock, images, reviews,
	ratings, num_of_reviews, user_id, version, created_at, updated_at`

type ProductRepository struct {
	session *gocql.Session
}

func NewProductRepository(session *gocql.Session) *ProductRepository {
	return &ProductRepository{session: session}
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	images, err := encode(p.Images)
	if err != nil {
		return err
	}
	reviews, err := encode(p.Reviews)
	if err != nil {
		return err
	}

	q := r.session.Query(`INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.Stock, images, reviews,
		p.Ratings, p.NumOfReviews, p.User, p.Version, p.CreatedAt, p.UpdatedAt,
	).WithContext(ctx)

	applied, err := cas(q)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	if !applied {
		return fmt.Errorf("product %s already exists", p.ID)
	}
	return nil
}

func scanProduct(s scanner) (*models.Product, error) {
	var (
		p       models.Product
		images  string
		reviews string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock, &images, &reviews,
		&p.Ratings, &p.NumOfReviews, &p.User, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decode(images, &p.Images); err != nil {
		return nil, fmt.Errorf("decode images of %s: %w", p.ID, err)
	}
	if err := decode(reviews, &p.Reviews); err != nil {
		return nil, fmt.Errorf("decode reviews of %s: %w", p.ID, err)
	}
	return &p, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	q := r.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id).WithContext(ctx)
	p, err := scanProduct(q)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*models.Product, error) {
	iter := r.session.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).Iter()
	sc := iter.Scanner()

	var out []*models.Product
	for sc.Next() {
		p, err := scanProduct(sc)
		if err != nil {
			_ = iter.Close()
			return nil, err
		}
		out = append(out, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ProductRepository) CompareAndSwap(ctx context.Context, p *models.Product, expectedVersion int64) (bool, error) {
	images, err := encode(p.Images)
	if err != nil {
		return false, err
	}
	reviews, err := encode(p.Reviews)
	if err != nil {
		return false, err
	}

	q := r.session.Query(`UPDATE products SET name = ?, description = ?, price = ?, category = ?,
		images = ?, reviews = ?, ratings = ?, num_of_reviews = ?, version = ?, updated_at = ?
		WHERE product_id = ? IF version = ?`,
		p.Name, p.Description, p.Price, p.Category, images, reviews, p.Ratings, p.NumOfReviews,
		expectedVersion+1, p.UpdatedAt, p.ID, expectedVersion,
	).WithContext(ctx)
	return cas(q)
}

func (r *ProductRepository) CompareAndSetStock(ctx context.Context, id string, expected, next int) (bool, error) {
	q := r.session.Query(`UPDATE products SET stock = ?, updated_at = toTimestamp(now())
		WHERE product_id = ? IF stock = ?`, next, id, expected).WithContext(ctx)
	return cas(q)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	q := r.session.Query(`DELETE FROM products WHERE product_id = ? IF EXISTS`, id).WithContext(ctx)
	applied, err := cas(q)
	if err != nil {
		return err
	}
	if !applied {
		return notFound(gocql.ErrNotFound)
	}
	return nil
}
