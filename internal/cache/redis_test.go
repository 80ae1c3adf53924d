package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/byteport-bot/internal/config"
	"github.com/magabrotheeeer/byteport-bot/internal/models"
)

type testStruct struct {
	Name string
	Age  int
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	expected := testStruct{Name: "Alice", Age: 30}
	require.NoError(t, cache.Set(ctx, "user:1", expected, time.Minute))

	var actual testStruct
	found, err := cache.Get(ctx, "user:1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out testStruct
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Db.Set(ctx, "bad", []byte("not-json"), time.Minute).Err())

	var out testStruct
	found, err := cache.Get(ctx, "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}

func TestOrderStore(t *testing.T) {
	cache, mr := setupTestCache(t)
	store := NewOrderStore(cache, time.Hour)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, found)

	o := models.PendingOrder{PeriodMonths: 6, DiscountPercent: 10, Devices: 3, Price: 1620}
	require.NoError(t, store.Put(ctx, "1", o))
	assert.True(t, mr.Exists("order:1"))

	got, found, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, o, got)

	require.NoError(t, store.Delete(ctx, "1"))
	_, found, err = store.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOrderStore_Expires(t *testing.T) {
	cache, mr := setupTestCache(t)
	store := NewOrderStore(cache, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "1", models.PendingOrder{PeriodMonths: 1}))
	mr.FastForward(2 * time.Minute)

	_, found, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, found)
}
