package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisCredentialsStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCredentialsStore(client), mr
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	creds := &Credentials{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
		MerchantID:   "m-1",
		Scope:        []string{"payments:read", "payments:write"},
	}

	require.NoError(t, store.Save(ctx, "client-a", creds))

	loaded, err := store.Load(ctx, "client-a")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, creds.AccessToken, loaded.AccessToken)
	assert.Equal(t, creds.RefreshToken, loaded.RefreshToken)
	assert.Equal(t, creds.MerchantID, loaded.MerchantID)
	assert.Equal(t, creds.Scope, loaded.Scope)
	assert.True(t, creds.ExpiresAt.Equal(loaded.ExpiresAt))
}

func TestRedisStore_TTLDerivedFromExpiry(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	creds := &Credentials{
		AccessToken: "access",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, "client-a", creds))

	// One hour of lifetime plus the 24-hour grace window.
	ttl := mr.TTL("paygate:credentials:client-a")
	assert.Greater(t, ttl, 24*time.Hour)
	assert.LessOrEqual(t, ttl, 25*time.Hour)
}

func TestRedisStore_TTLCappedForDistantExpiry(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	creds := &Credentials{
		AccessToken: "access",
		ExpiresAt:   time.Now().Add(365 * 24 * time.Hour),
	}
	require.NoError(t, store.Save(ctx, "client-a", creds))

	ttl := mr.TTL("paygate:credentials:client-a")
	assert.LessOrEqual(t, ttl, 30*24*time.Hour)
}

func TestRedisStore_LoadMissing(t *testing.T) {
	store, _ := setupRedisStore(t)

	loaded, err := store.Load(context.Background(), "nonexistent")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_ExpiredEntryLoadsAsMissing(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	creds := &Credentials{
		AccessToken: "access",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	require.NoError(t, store.Save(ctx, "client-a", creds))

	mr.FastForward(26 * time.Hour)

	loaded, err := store.Load(ctx, "client-a")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	creds := &Credentials{AccessToken: "access", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, "client-a", creds))
	require.NoError(t, store.Delete(ctx, "client-a"))

	loaded, err := store.Load(ctx, "client-a")
	assert.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, "client-a"))
}
