package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/cache"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository/memory"
	"ecoshop_back_end/internal/utils"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestAuthService_IssueAuthenticateRevoke(t *testing.T) {
	mr, rdb := setupRedis(t)
	ctx := context.Background()
	users := memory.NewUserRepository()
	ada := &models.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: models.RoleCustomer}
	require.NoError(t, users.Create(ctx, ada))

	svc := NewAuthService(utils.NewTokenIssuer("test-secret", time.Hour), cache.NewStore(rdb), users, zap.NewNop())

	token, expires, err := svc.Issue(ada)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	user, claims, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	require.NoError(t, svc.Revoke(ctx, claims))
	assert.True(t, mr.Exists("blacklist:"+claims.ID))

	_, _, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthService_RejectsBadTokens(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()
	users := memory.NewUserRepository()
	svc := NewAuthService(utils.NewTokenIssuer("test-secret", time.Hour), cache.NewStore(rdb), users, zap.NewNop())

	_, _, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, _, err = svc.Authenticate(ctx, "not.a.jwt")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	other := utils.NewTokenIssuer("other-secret", time.Hour)
	forged, _, err := other.Issue(&models.User{ID: "u1"})
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	orphan, _, err := svc.Issue(&models.User{ID: "deleted"})
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, orphan)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
