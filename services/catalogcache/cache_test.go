package catalogcache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/centralshop/storebackend/lib/mytime"
)

func newTestCache[T any](ctrl *gomock.Controller, ttl time.Duration, maxEntries int) (*Cache[T], *time.Time) {
	now := mytime.ExampleTime
	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().DoAndReturn(func() time.Time { return now }).AnyTimes()
	return New[T](ttl, maxEntries, nower), &now
}

func TestCacheServesFreshWithoutRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	cache, now := newTestCache[string](ctrl, 5*time.Second, 0)

	refreshes := 0
	refresh := func(c context.Context) (string, error) {
		refreshes++
		return fmt.Sprintf("value-%d", refreshes), nil
	}

	got, err := cache.Read(c, "categories", refresh)
	assert.NoError(t, err)
	assert.Equal(t, "value-1", got)

	// any read before the ttl elapses is served from the cache
	*now = now.Add(4999 * time.Millisecond)
	got, err = cache.Read(c, "categories", refresh)
	assert.NoError(t, err)
	assert.Equal(t, "value-1", got)
	assert.Equal(t, 1, refreshes)

	// at exactly the ttl the entry is stale and gets refreshed
	*now = now.Add(time.Millisecond)
	got, err = cache.Read(c, "categories", refresh)
	assert.NoError(t, err)
	assert.Equal(t, "value-2", got)
	assert.Equal(t, 2, refreshes)
}

func TestCacheServesStaleOnRefreshFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	cache, now := newTestCache[string](ctrl, time.Minute, 0)

	_, err := cache.Read(c, "home", func(c context.Context) (string, error) {
		return "live", nil
	})
	assert.NoError(t, err)

	*now = now.Add(2 * time.Minute)
	got, err := cache.Read(c, "home", func(c context.Context) (string, error) {
		return "", fmt.Errorf("catalog down")
	})
	assert.NoError(t, err)
	assert.Equal(t, "live", got)
}

func TestCacheErrorsWhenEmptyAndRefreshFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	cache, _ := newTestCache[string](ctrl, time.Minute, 0)

	_, err := cache.Read(c, "home", func(c context.Context) (string, error) {
		return "", fmt.Errorf("catalog down")
	})
	assert.Error(t, err)
}

func TestCacheEvictsOldestAtCapacity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	cache, _ := newTestCache[int](ctrl, time.Minute, 50)

	for i := 0; i < 51; i++ {
		key := fmt.Sprintf("product-%d", i)
		got, err := cache.Read(c, key, func(c context.Context) (int, error) {
			return i, nil
		})
		assert.NoError(t, err)
		assert.Equal(t, i, got)
		assert.LessOrEqual(t, cache.Len(), 50)
	}
	assert.Equal(t, 50, cache.Len())

	// the structurally-oldest key is gone and now misses
	refreshed := false
	_, err := cache.Read(c, "product-0", func(c context.Context) (int, error) {
		refreshed = true
		return 0, nil
	})
	assert.NoError(t, err)
	assert.True(t, refreshed)

	// a later key is still present
	_, err = cache.Read(c, "product-25", func(c context.Context) (int, error) {
		t.Fatal("product-25 should still be cached")
		return 0, nil
	})
	assert.NoError(t, err)
}

func TestKeyFromFilterIsOrderIndependent(t *testing.T) {
	a := KeyFromFilter(map[string]any{"categoria": "hogar", "limit": 6, "offset": 12})
	b := KeyFromFilter(map[string]any{"offset": 12, "limit": 6, "categoria": "hogar"})

	assert.Equal(t, a, b)
	assert.Equal(t, "categoria=hogar&limit=6&offset=12", a)
}

func TestKeyJoinsParts(t *testing.T) {
	assert.Equal(t, "home:hogar:6:0", Key("home", "hogar", "6", "0"))
}
