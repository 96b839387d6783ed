package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return NewRedisCacheFromClient(client, "augur"), server
}

func implementations(t *testing.T) map[string]Cache {
	rc, _ := setupRedis(t)
	return map[string]Cache{
		"redis":  rc,
		"memory": NewMemoryCache(),
	}
}

func TestCache_GetSet(t *testing.T) {
	ctx := context.Background()
	for name, c := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			_, err := c.Get(ctx, "missing")
			assert.True(t, errors.Is(err, ErrMiss))

			require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
			got, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", string(got))

			require.NoError(t, c.Delete(ctx, "k"))
			_, err = c.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrMiss)
		})
	}
}

func TestCache_PushTrimsToLimit(t *testing.T) {
	ctx := context.Background()
	for name, c := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			for _, v := range []string{"a", "b", "c", "d"} {
				require.NoError(t, c.Push(ctx, "list", []byte(v), 3))
			}

			all, err := c.List(ctx, "list", 0)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "b", string(all[0]))
			assert.Equal(t, "d", string(all[2]))

			last, err := c.List(ctx, "list", 2)
			require.NoError(t, err)
			require.Len(t, last, 2)
			assert.Equal(t, "c", string(last[0]))
		})
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, server := setupRedis(t)

	require.NoError(t, c.Set(ctx, "ttl", []byte("x"), time.Second))
	assert.True(t, server.Exists("augur:ttl"))

	server.FastForward(2 * time.Second)
	_, err := c.Get(ctx, "ttl")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "ttl", []byte("x"), time.Second))
	now = now.Add(2 * time.Second)

	_, err := c.Get(ctx, "ttl")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	type payload struct {
		Score float64 `json:"score"`
	}
	require.NoError(t, SetJSON(ctx, c, "p", payload{Score: 12.5}, 0))

	var got payload
	require.NoError(t, GetJSON(ctx, c, "p", &got))
	assert.Equal(t, 12.5, got.Score)

	require.NoError(t, PushJSON(ctx, c, "pl", payload{Score: 1}, 10))
	items, err := c.List(ctx, "pl", 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
