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

type busDetail struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newTestService(t *testing.T) (Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewService(client), mr
}

func TestGetSetAndExpiry(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	var out busDetail
	assert.ErrorIs(t, svc.Get(ctx, "bus:1", &out), ErrCacheMiss)

	require.NoError(t, svc.Set(ctx, "bus:1", busDetail{ID: "1", Name: "Night Rider"}, time.Minute))
	require.NoError(t, svc.Get(ctx, "bus:1", &out))
	assert.Equal(t, "Night Rider", out.Name)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, svc.Get(ctx, "bus:1", &out), ErrCacheMiss)
}

func TestDeletePattern(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	for _, k := range []string{"busline:points:bus:a:boarding", "busline:points:bus:a:dropping", "busline:points:bus:b:boarding"} {
		require.NoError(t, mr.Set(k, "{}"))
	}

	n, err := svc.DeletePattern(ctx, "busline:points:bus:a:*")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.False(t, mr.Exists("busline:points:bus:a:boarding"))
	assert.True(t, mr.Exists("busline:points:bus:b:boarding"))
}

func TestGetOrSet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return busDetail{ID: "2", Name: "Day Liner"}, nil
	}

	var first, second busDetail
	require.NoError(t, svc.GetOrSet(ctx, "bus:2", time.Minute, fetch, &first))
	require.NoError(t, svc.GetOrSet(ctx, "bus:2", time.Minute, fetch, &second))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	boom := errors.New("db down")
	err := svc.GetOrSet(ctx, "bus:3", time.Minute, func() (interface{}, error) { return nil, boom }, &first)
	assert.ErrorIs(t, err, boom)
}
