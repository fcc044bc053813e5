package tokenstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)

	store, err := NewRedisStore(client, "taskconsole:token")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Read(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Write(ctx, "serialized"))
	got, err := mr.Get("taskconsole:token")
	require.NoError(t, err)
	assert.Equal(t, "serialized", got)

	value, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "serialized", value)

	require.NoError(t, store.Delete(ctx))
	assert.False(t, mr.Exists("taskconsole:token"))

	_, err = store.Read(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	store, err := NewRedisStore(client, "k")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mr.Close()

	_, err = store.Read(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestNewRedisStoreValidation(t *testing.T) {
	_, err := NewRedisStore(nil, "k")
	assert.Error(t, err)

	_, client := newTestRedis(t)
	_, err = NewRedisStore(client, "")
	assert.Error(t, err)
}
