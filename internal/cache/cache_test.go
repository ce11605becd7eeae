package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository/memory"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestStore_Blacklist(t *testing.T) {
	mr, rdb := setupRedis(t)
	store := NewStore(rdb)
	ctx := context.Background()

	require.NoError(t, store.BlacklistToken(ctx, "jti-1", time.Minute))

	revoked, err := store.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsTokenBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry expires with the token")
}

func TestStore_BlacklistSkipsExpiredTokens(t *testing.T) {
	mr, rdb := setupRedis(t)
	store := NewStore(rdb)

	require.NoError(t, store.BlacklistToken(context.Background(), "old", -time.Second))
	assert.False(t, mr.Exists("blacklist:old"))
}

func TestStore_RateLimitWindow(t *testing.T) {
	mr, rdb := setupRedis(t)
	store := NewStore(rdb)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := store.IncrementRateLimit(ctx, "api:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(i), n)
	}

	mr.FastForward(time.Minute + time.Second)
	n, err := store.GetRateLimit(ctx, "api:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestLoginGuard_LocksAfterMaxAttempts(t *testing.T) {
	mr, rdb := setupRedis(t)
	guard := NewLoginGuard(NewStore(rdb))
	ctx := context.Background()

	for i := 1; i < LoginMaxAttempts; i++ {
		remaining, err := guard.Fail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, int64(LoginMaxAttempts-i), remaining)
	}

	blocked, err := guard.Blocked(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Zero(t, blocked)

	remaining, err := guard.Fail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Zero(t, remaining)

	blocked, err = guard.Blocked(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Greater(t, blocked, time.Duration(0))

	mr.FastForward(LoginCooldown + time.Second)
	blocked, err = guard.Blocked(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Zero(t, blocked)
}

func TestLoginGuard_Reset(t *testing.T) {
	_, rdb := setupRedis(t)
	guard := NewLoginGuard(NewStore(rdb))
	ctx := context.Background()

	_, err := guard.Fail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.NoError(t, guard.Reset(ctx, "bob@example.com"))

	remaining, err := guard.Fail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(LoginMaxAttempts-1), remaining)
}

func TestUserRepository_ReadThroughAndEviction(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()
	backing := memory.NewUserRepository()
	require.NoError(t, backing.Create(ctx, &models.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Password: "hash"}))

	repo := NewUserRepository(backing, rdb, zap.NewNop())

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Name)
	assert.True(t, mr.Exists(UserKey("u1")))

	// Served from Redis even after the backing row changes underneath.
	changed := *u
	changed.Name = "Ada L."
	require.NoError(t, backing.Update(ctx, &changed))
	cached, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", cached.Name)
	assert.Equal(t, "hash", cached.Password)

	changed.Name = "Ada Lovelace"
	require.NoError(t, repo.Update(ctx, &changed))
	assert.False(t, mr.Exists(UserKey("u1")))

	fresh, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", fresh.Name)

	require.NoError(t, repo.Delete(ctx, "u1"))
	_, err = repo.GetByID(ctx, "u1")
	assert.Error(t, err)
}

func TestProductRepository_StockWriteEvicts(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()
	backing := memory.NewProductRepository()
	require.NoError(t, backing.Create(ctx, &models.Product{ID: "p1", Name: "Lamp", Stock: 4}))

	repo := NewProductRepository(backing, rdb, zap.NewNop())

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, p.Stock)
	assert.True(t, mr.Exists(ProductKey("p1")))

	ok, err := repo.CompareAndSetStock(ctx, "p1", 4, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, mr.Exists(ProductKey("p1")))

	p, err = repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
}

func TestProductRepository_CachedVersionSurvives(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()
	backing := memory.NewProductRepository()
	require.NoError(t, backing.Create(ctx, &models.Product{ID: "p1", Name: "Lamp"}))

	repo := NewProductRepository(backing, rdb, zap.NewNop())
	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	ok, err := repo.CompareAndSwap(ctx, p, p.Version)
	require.NoError(t, err)
	require.True(t, ok)

	first, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, first.Version, second.Version)
}
