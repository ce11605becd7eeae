package repository

import (
	"context"
	"errors"
	"time"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/models"
)

var (
	// ErrNotFound est retourné quand l'enregistrement n'existe pas.
	ErrNotFound = apperrors.ErrNotFound
	// ErrDuplicateEmail est retourné quand un utilisateur avec le même email existe déjà.
	ErrDuplicateEmail = errors.New("email already registered")
)

// ProductRepository persiste les entrées du catalogue.
//
// CompareAndSwap écrit tous les champs sauf Stock quand la version stockée vaut
// expectedVersion, et incrémente la version. Le stock ne change que via
// CompareAndSetStock, les deux chemins ne s'écrasent donc jamais.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]*models.Product, error)
	CompareAndSwap(ctx context.Context, p *models.Product, expectedVersion int64) (bool, error)
	CompareAndSetStock(ctx context.Context, id string, expected, next int) (bool, error)
	Delete(ctx context.Context, id string) error
}

// StatusChange porte les colonnes écrites avec une transition de statut.
type StatusChange struct {
	StockCommitted bool
	DeliveredAt    *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Order, error)
	List(ctx context.Context) ([]*models.Order, error)
	// CompareAndSetStatus applique change seulement si le statut stocké vaut from.
	CompareAndSetStatus(ctx context.Context, id string, from, to models.OrderStatus, change StatusChange) (bool, error)
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
}

type StockMovementRepository interface {
	Append(ctx context.Context, m *models.StockMovement) error
	ListByProduct(ctx context.Context, productID string, limit int) ([]*models.StockMovement, error)
}
