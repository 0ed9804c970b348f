package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bcasadei/rental-website/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func testCart(userID string) *domain.Cart {
	return &domain.Cart{
		UserID: userID,
		Items: []domain.LineItem{
			{
				ProductID: 1,
				Title:     "Hydro Cannon XL",
				DailyRate: 15,
				Quantity:  2,
				StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
			},
			{ProductID: 2, Title: "Soaker Mini", DailyRate: 5, Quantity: 1},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := "user123"

	cart := testCart(userID)
	cartJSON, _ := json.Marshal(cart)
	mr.Set(cacheKey(userID), string(cartJSON))

	result, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, result.UserID)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, int64(1), result.Items[0].ProductID)
	assert.Equal(t, 15.0, result.Items[0].DailyRate)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()

	result, err := cache.Get(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_CorruptPayloadDiscarded(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := "user123"
	mr.Set(cacheKey(userID), "{not json")

	result, err := cache.Get(ctx, userID)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)

	// corrupt entry is removed, not left to fail every read
	assert.False(t, mr.Exists(cacheKey(userID)))
}

func TestSet_RoundTrip(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := "user456"
	cart := testCart(userID)

	err := cache.Set(ctx, userID, cart)
	require.NoError(t, err)

	result, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, len(cart.Items), len(result.Items))
	for i := range cart.Items {
		assert.Equal(t, cart.Items[i].ProductID, result.Items[i].ProductID)
		assert.Equal(t, cart.Items[i].Quantity, result.Items[i].Quantity)
		assert.True(t, cart.Items[i].StartDate.Equal(result.Items[i].StartDate))
		assert.True(t, cart.Items[i].EndDate.Equal(result.Items[i].EndDate))
	}
}

func TestDelete(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	userID := "user789"
	mr.Set(cacheKey(userID), "{}")

	err := cache.Delete(ctx, userID)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cacheKey(userID)))
}

func TestDelete_MissingKeyIsNotAnError(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	err := cache.Delete(context.Background(), "nobody")
	assert.NoError(t, err)
}
