package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store regroupe les primitives Redis partagées par l'auth et le rate limiting.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Client() *redis.Client {
	return s.rdb
}

// --- Blacklist JWT ---

// BlacklistToken révoque un id de token jusqu'à expiration du ttl.
func (s *Store) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, "blacklist:"+tokenID, "revoked", ttl).Err()
}

func (s *Store) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, "blacklist:"+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// --- Rate limiting ---

// IncrementRateLimit incrémente la clé et (ré)arme sa fenêtre. Retourne le nouveau compte.
func (s *Store) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.rdb.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *Store) GetRateLimit(ctx context.Context, key string) (int64, error) {
	val, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

// --- Cache générique ---

func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// Get retourne redis.Nil si la clé est absente.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	return s.rdb.Get(ctx, key).Result()
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	return s.rdb.Del(ctx, keys...).Err()
}

// TTL retourne la durée de vie restante de la clé, zéro si elle n'en a pas.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
