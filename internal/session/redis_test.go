package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T, now func() time.Time) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, now), srv
}

func TestRedisStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T, now func() time.Time) Store {
		store, _ := newMiniredisStore(t, now)
		return store
	})
}

func TestRedisStoreSetsNativeTTL(t *testing.T) {
	clock := newTestClock()
	store, srv := newMiniredisStore(t, clock.Now)

	require.NoError(t, store.Put(context.Background(), newSession("tok-ttl", clock.Now(), 24*time.Hour)))

	assert.True(t, srv.Exists("salesflow:sess:tok-ttl"))
	assert.Equal(t, 24*time.Hour, srv.TTL("salesflow:sess:tok-ttl"))

	members, err := srv.ZMembers("salesflow:sess:expiry")
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-ttl"}, members)
}

func TestRedisStoreDeleteClearsIndex(t *testing.T) {
	clock := newTestClock()
	store, srv := newMiniredisStore(t, clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newSession("tok-idx", clock.Now(), time.Hour)))
	require.NoError(t, store.Delete(ctx, "tok-idx"))

	assert.False(t, srv.Exists("salesflow:sess:tok-idx"))
	assert.False(t, srv.Exists("salesflow:sess:expiry"))
}

func TestRedisStorePutExpiredIsDropped(t *testing.T) {
	clock := newTestClock()
	store, srv := newMiniredisStore(t, clock.Now)

	require.NoError(t, store.Put(context.Background(), newSession("tok-stale", clock.Now(), -time.Minute)))
	assert.False(t, srv.Exists("salesflow:sess:tok-stale"))
}

func TestRedisStoreNativeExpiry(t *testing.T) {
	clock := newTestClock()
	store, srv := newMiniredisStore(t, clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newSession("tok-native", clock.Now(), time.Minute)))
	srv.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "tok-native")
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := store.Sweep(ctx, clock.Advance(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
