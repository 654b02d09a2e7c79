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

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestGetSetJSON(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, SetJSON(ctx, "k", payload{Name: "a", Count: 2}, time.Minute))

	var got payload
	found, err := GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "a", Count: 2}, got)

	found, err = GetJSON(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAsideFetchesOnMissAndServesFromCacheAfter(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	fetches := 0
	fetch := func(dest *int) func() error {
		return func() error {
			fetches++
			*dest = 42
			return nil
		}
	}

	var v int
	require.NoError(t, Aside(ctx, "answer", &v, time.Minute, fetch(&v)))
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, fetches)

	var again int
	require.NoError(t, Aside(ctx, "answer", &again, time.Minute, fetch(&again)))
	assert.Equal(t, 42, again)
	assert.Equal(t, 1, fetches, "second read must come from cache")
}

func TestAsidePropagatesFetchError(t *testing.T) {
	setupMiniredis(t)

	var v int
	err := Aside(context.Background(), "k", &v, time.Minute, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
}

func TestAsideWithoutClientStillFetches(t *testing.T) {
	SetClient(nil)

	var v int
	require.NoError(t, Aside(context.Background(), "k", &v, time.Minute, func() error {
		v = 7
		return nil
	}))
	assert.Equal(t, 7, v)
}

func TestInvalidatePublicFeed(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, PublicFeedKey("popular", 10), "page", PublicFeedTTL))
	require.NoError(t, SetJSON(ctx, PublicFeedKey("newest", 20), "page", PublicFeedTTL))
	require.NoError(t, SetJSON(ctx, PostKey(5), "post", PostTTL))

	InvalidatePublicFeed(ctx)

	assert.False(t, mr.Exists(PublicFeedKey("popular", 10)))
	assert.False(t, mr.Exists(PublicFeedKey("newest", 20)))
	assert.True(t, mr.Exists(PostKey(5)), "only feed keys are dropped")
}

func TestInvalidatePost(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, PostKey(5), "post", PostTTL))
	InvalidatePost(ctx, 5)
	assert.False(t, mr.Exists(PostKey(5)))
}
