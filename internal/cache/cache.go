package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
)

const (
	UserCacheTTL    = 5 * time.Minute
	ProductCacheTTL = 10 * time.Minute
)

func UserKey(id string) string    { return "user:" + id }
func ProductKey(id string) string { return "product:" + id }

// userEntry conserve le hash du mot de passe, masqué en JSON par models.User.
type userEntry struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

// UserRepository est un cache read-through devant un autre UserRepository.
// Les lectures par id passent d'abord par Redis, chaque écriture invalide l'entrée.
type UserRepository struct {
	repository.UserRepository
	rdb    *redis.Client
	logger *zap.Logger
}

func NewUserRepository(next repository.UserRepository, rdb *redis.Client, logger *zap.Logger) *UserRepository {
	return &UserRepository{UserRepository: next, rdb: rdb, logger: logger}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	key := UserKey(id)

	data, err := r.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var entry userEntry
		if json.Unmarshal(data, &entry) == nil {
			u := entry.User
			u.Password = entry.PasswordHash
			return &u, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("user cache read failed", zap.String("user_id", id), zap.Error(err))
	}

	u, err := r.UserRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(userEntry{User: *u, PasswordHash: u.Password}); err == nil {
		if err := r.rdb.Set(ctx, key, payload, UserCacheTTL).Err(); err != nil {
			r.logger.Warn("user cache write failed", zap.String("user_id", id), zap.Error(err))
		}
	}
	return u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	if err := r.UserRepository.Update(ctx, u); err != nil {
		return err
	}
	r.invalidate(ctx, u.ID)
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if err := r.UserRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *UserRepository) invalidate(ctx context.Context, id string) {
	if err := r.rdb.Del(ctx, UserKey(id)).Err(); err != nil {
		r.logger.Warn("user cache eviction failed", zap.String("user_id", id), zap.Error(err))
	}
}

// productEntry conserve la version, masquée en JSON par models.Product.
type productEntry struct {
	models.Product
	CachedVersion int64 `json:"cached_version"`
}

// ProductRepository met en cache les lectures de fiche produit. Chaque écriture,
// y compris de stock, invalide l'entrée.
type ProductRepository struct {
	repository.ProductRepository
	rdb    *redis.Client
	logger *zap.Logger
}

func NewProductRepository(next repository.ProductRepository, rdb *redis.Client, logger *zap.Logger) *ProductRepository {
	return &ProductRepository{ProductRepository: next, rdb: rdb, logger: logger}
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	key := ProductKey(id)

	data, err := r.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var entry productEntry
		if json.Unmarshal(data, &entry) == nil {
			p := entry.Product
			p.Version = entry.CachedVersion
			return &p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("product cache read failed", zap.String("product_id", id), zap.Error(err))
	}

	p, err := r.ProductRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(productEntry{Product: *p, CachedVersion: p.Version}); err == nil {
		if err := r.rdb.Set(ctx, key, payload, ProductCacheTTL).Err(); err != nil {
			r.logger.Warn("product cache write failed", zap.String("product_id", id), zap.Error(err))
		}
	}
	return p, nil
}

func (r *ProductRepository) CompareAndSwap(ctx context.Context, p *models.Product, expectedVersion int64) (bool, error) {
	ok, err := r.ProductRepository.CompareAndSwap(ctx, p, expectedVersion)
	if err == nil {
		r.invalidate(ctx, p.ID)
	}
	return ok, err
}

func (r *ProductRepository) CompareAndSetStock(ctx context.Context, id string, expected, next int) (bool, error) {
	ok, err := r.ProductRepository.CompareAndSetStock(ctx, id, expected, next)
	if err == nil {
		r.invalidate(ctx, id)
	}
	return ok, err
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.ProductRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *ProductRepository) invalidate(ctx context.Context, id string) {
	if err := r.rdb.Del(ctx, ProductKey(id)).Err(); err != nil {
		r.logger.Warn("product cache eviction failed", zap.String("product_id", id), zap.Error(err))
	}
}
