package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdempotencyStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewIdempotencyStore(client, time.Hour), mr
}

func TestIdempotencyClaimLifecycle(t *testing.T) {
	store, _ := newTestIdempotencyStore(t)
	ctx := context.Background()

	id, err := store.Claim(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)

	_, err = store.Claim(ctx, "u1", "k1")
	assert.ErrorIs(t, err, ErrRequestInProgress)

	// keys are scoped per user
	id, err = store.Claim(ctx, "u2", "k1")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)

	bookingID := uuid.New()
	require.NoError(t, store.Resolve(ctx, "u1", "k1", bookingID))

	id, err = store.Claim(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.Equal(t, bookingID, id)
}

func TestIdempotencyAbandonAllowsRetry(t *testing.T) {
	store, _ := newTestIdempotencyStore(t)
	ctx := context.Background()

	_, err := store.Claim(ctx, "u1", "k1")
	require.NoError(t, err)
	require.NoError(t, store.Abandon(ctx, "u1", "k1"))

	id, err := store.Claim(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)
}

func TestIdempotencyMarkerExpires(t *testing.T) {
	store, mr := newTestIdempotencyStore(t)
	ctx := context.Background()

	_, err := store.Claim(ctx, "u1", "k1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)

	id, err := store.Claim(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)
}
