package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const pendingMarker = "pending"

// IdempotencyStore remembers which booking a user's idempotency key produced.
// The unique (user_id, idempotency_key) index stays the source of truth.
// An in-flight claim lives for pendingTTL only, so a crashed attempt frees the key quickly.
type IdempotencyStore struct {
	redis      *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

func NewIdempotencyStore(redisClient *redis.Client, ttl time.Duration) *IdempotencyStore {
	pendingTTL := constants.TTL_IDEMPOTENCY_PENDING
	if ttl < pendingTTL {
		pendingTTL = ttl
	}
	return &IdempotencyStore{redis: redisClient, ttl: ttl, pendingTTL: pendingTTL}
}

// Claim marks a key as in flight. If the key already resolved it returns the booking id.
func (s *IdempotencyStore) Claim(ctx context.Context, userID, key string) (uuid.UUID, error) {
	redisKey := constants.BuildIdempotencyKey(userID, key)

	ok, err := s.redis.SetNX(ctx, redisKey, pendingMarker, s.pendingTTL).Result()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if ok {
		return uuid.Nil, nil
	}

	value, err := s.redis.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return s.Claim(ctx, userID, key)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if value == pendingMarker {
		return uuid.Nil, ErrRequestInProgress
	}

	bookingID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt idempotency marker %q: %w", value, err)
	}
	return bookingID, nil
}

// Resolve records the booking a claimed key produced
func (s *IdempotencyStore) Resolve(ctx context.Context, userID, key string, bookingID uuid.UUID) error {
	return s.redis.Set(ctx, constants.BuildIdempotencyKey(userID, key), bookingID.String(), s.ttl).Err()
}

// Abandon frees a claimed key after a failed attempt so the client can retry
func (s *IdempotencyStore) Abandon(ctx context.Context, userID, key string) error {
	return s.redis.Del(ctx, constants.BuildIdempotencyKey(userID, key)).Err()
}
