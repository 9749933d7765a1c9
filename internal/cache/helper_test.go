package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func setupCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestCacheAside_FetchesOnceThenServesFromRedis(t *testing.T) {
	mr := setupCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			calls++
			*dest = cachedUser{ID: 7, Username: "lifter"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, CacheAside(ctx, UserKey(7), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "lifter", first.Username)
	assert.True(t, mr.Exists("user:7"))

	var second cachedUser
	require.NoError(t, CacheAside(ctx, UserKey(7), &second, UserTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	InvalidateUser(ctx, 7)
	assert.False(t, mr.Exists("user:7"))
}

func TestCacheAside_PropagatesFetchError(t *testing.T) {
	mr := setupCache(t)

	var dest cachedUser
	err := CacheAside(context.Background(), UserKey(1), &dest, UserTTL, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists("user:1"))
}

func TestGetJSON_NoClient(t *testing.T) {
	SetClient(nil)
	var dest cachedUser
	found, err := GetJSON(context.Background(), "user:1", &dest)
	assert.NoError(t, err)
	assert.False(t, found)
}
