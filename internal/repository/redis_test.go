package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classroom_chat/internal/domain"
	"classroom_chat/pkg/logger"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestPartnerCacheRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewRedisPartnerCache(client, PartnerCachePrefix)
	ctx := context.Background()

	_, err := cache.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)

	partners := []*domain.ChatPartner{{ID: 2, DisplayName: "Bob"}}
	stored, err := cache.Set(ctx, 1, 0, partners, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.True(t, mr.Exists("chat:partners:1"))

	got, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0].DisplayName)

	mr.FastForward(2 * time.Minute)
	_, err = cache.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestPartnerCacheInvalidate(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewRedisPartnerCache(client, PartnerCachePrefix)
	ctx := context.Background()

	_, err := cache.Set(ctx, 1, 0, nil, time.Minute)
	require.NoError(t, err)
	_, err = cache.Set(ctx, 2, 0, nil, time.Minute)
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(ctx, 1, 2, 3))
	assert.False(t, mr.Exists("chat:partners:1"))
	assert.False(t, mr.Exists("chat:partners:2"))
	assert.NoError(t, cache.Invalidate(ctx))

	gen, err := cache.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	assert.Greater(t, mr.TTL("chat:partners:1:gen"), time.Duration(0))
}

func TestPartnerCacheSetRejectsOldGeneration(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewRedisPartnerCache(client, PartnerCachePrefix)
	ctx := context.Background()

	gen, err := cache.Generation(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, gen)

	// инвалидация между чтением поколения и записью
	require.NoError(t, cache.Invalidate(ctx, 1))

	stored, err := cache.Set(ctx, 1, gen, []*domain.ChatPartner{{ID: 2}}, time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists("chat:partners:1"))

	gen, err = cache.Generation(ctx, 1)
	require.NoError(t, err)
	stored, err = cache.Set(ctx, 1, gen, []*domain.ChatPartner{{ID: 2}}, time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.True(t, mr.Exists("chat:partners:1"))
}

func TestRateLimitAllow(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRateLimitRepository(client, logger.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining, err := repo.Allow(ctx, "rl:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, remaining, err := repo.Allow(ctx, "rl:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Zero(t, remaining)

	mr.FastForward(time.Minute + time.Second)
	allowed, _, err = repo.Allow(ctx, "rl:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitCounterWithoutTTLGetsWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRateLimitRepository(client, logger.Nop())
	ctx := context.Background()

	// счетчик, оставшийся без TTL, не должен блокировать навсегда
	require.NoError(t, mr.Set("rl:2", "10"))

	allowed, _, err := repo.Allow(ctx, "rl:2", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, mr.TTL("rl:2"), time.Duration(0))

	mr.FastForward(time.Minute + time.Second)
	allowed, _, err = repo.Allow(ctx, "rl:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimitRedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	repo := NewRateLimitRepository(client, logger.Nop())
	mr.Close()

	_, _, err := repo.Allow(context.Background(), "rl:1", 3, time.Minute)
	assert.Error(t, err)
}
