package seats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"busline/internal/shared/constants"

	"github.com/redis/go-redis/v9"
)

// holdScript checks every seat key and only then writes all of them, so two
// overlapping holds can never both succeed.
//
// KEYS[1] hold hash, KEYS[2] hold seat list, KEYS[3] user hold set, KEYS[4..] seat hold keys
// ARGV[1] hold id, ARGV[2] user id, ARGV[3] bus id, ARGV[4] ttl seconds,
// ARGV[5] created at, ARGV[6] expires at, ARGV[7..] seat id / price pairs in KEYS order
var holdScript = redis.NewScript(`
local ttl = tonumber(ARGV[4])

for i = 4, #KEYS do
    if redis.call("EXISTS", KEYS[i]) == 1 then
        return {0, ARGV[7 + (i - 4) * 2]}
    end
end

redis.call("DEL", KEYS[2])
redis.call("HSET", KEYS[1], "user_id", ARGV[2])
redis.call("HSET", KEYS[1], "bus_id", ARGV[3])
redis.call("HSET", KEYS[1], "created_at", ARGV[5])
redis.call("HSET", KEYS[1], "expires_at", ARGV[6])

for i = 4, #KEYS do
    local seat_id = ARGV[7 + (i - 4) * 2]
    local price = ARGV[8 + (i - 4) * 2]
    redis.call("SET", KEYS[i], ARGV[1], "EX", ttl)
    redis.call("RPUSH", KEYS[2], seat_id)
    redis.call("HSET", KEYS[1], "price:" .. seat_id, price)
end

redis.call("EXPIRE", KEYS[1], ttl)
redis.call("EXPIRE", KEYS[2], ttl)
redis.call("SADD", KEYS[3], ARGV[1])
redis.call("EXPIRE", KEYS[3], ttl)

return {1, "ok"}
`)

// releaseScript only deletes seat keys still pointing at this hold.
//
// KEYS[1] hold hash, KEYS[2] hold seat list, KEYS[3] user hold set, KEYS[4..] seat hold keys
// ARGV[1] hold id
var releaseScript = redis.NewScript(`
local released = 0
for i = 4, #KEYS do
    if redis.call("GET", KEYS[i]) == ARGV[1] then
        redis.call("DEL", KEYS[i])
        released = released + 1
    end
end
redis.call("DEL", KEYS[1], KEYS[2])
redis.call("SREM", KEYS[3], ARGV[1])
return released
`)

// HoldStore keeps seat holds in Redis. Expiry is plain key TTL.
type HoldStore struct {
	redis *redis.Client
	now   func() time.Time
}

func NewHoldStore(redisClient *redis.Client) *HoldStore {
	return &HoldStore{redis: redisClient, now: time.Now}
}

type holdRequest struct {
	HoldID string
	UserID string
	BusID  string
	Seats  []HeldSeat
	TTL    time.Duration
}

func holdKey(holdID string) string      { return constants.KEY_HOLD + holdID }
func holdSeatsKey(holdID string) string { return constants.KEY_HOLD_SEATS + holdID }
func userHoldsKey(userID string) string { return constants.KEY_USER_HOLDS + userID }

// Hold atomically reserves all seats or none. A seat already held yields a SeatError.
func (h *HoldStore) Hold(ctx context.Context, req holdRequest) (*SeatHoldDetails, error) {
	ttlSeconds := int(req.TTL.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}
	createdAt := h.now().UTC()
	expiresAt := createdAt.Add(time.Duration(ttlSeconds) * time.Second)

	keys := []string{holdKey(req.HoldID), holdSeatsKey(req.HoldID), userHoldsKey(req.UserID)}
	args := []interface{}{
		req.HoldID,
		req.UserID,
		req.BusID,
		ttlSeconds,
		createdAt.Unix(),
		expiresAt.Unix(),
	}
	for _, seat := range req.Seats {
		keys = append(keys, constants.BuildSeatHoldKey(req.BusID, seat.SeatID))
		args = append(args, seat.SeatID, seat.Price)
	}

	result, err := holdScript.Run(ctx, h.redis, keys, args...).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to execute atomic seat hold: %w", err)
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected result format from hold script")
	}

	if ok, _ := result[0].(int64); ok == 0 {
		conflict, _ := result[1].(string)
		return nil, &SeatError{Reason: ErrSeatUnavailable, SeatIDs: []string{conflict}}
	}

	details := &SeatHoldDetails{
		HoldID:    req.HoldID,
		UserID:    req.UserID,
		BusID:     req.BusID,
		Seats:     req.Seats,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
		TTL:       ttlSeconds,
	}
	for _, s := range req.Seats {
		details.TotalPrice += s.Price
	}
	return details, nil
}

// Get loads a hold with its seats in selection order
func (h *HoldStore) Get(ctx context.Context, holdID string) (*SeatHoldDetails, error) {
	pipe := h.redis.Pipeline()
	fieldsCmd := pipe.HGetAll(ctx, holdKey(holdID))
	seatsCmd := pipe.LRange(ctx, holdSeatsKey(holdID), 0, -1)
	ttlCmd := pipe.TTL(ctx, holdKey(holdID))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load hold: %w", err)
	}

	fields := fieldsCmd.Val()
	if len(fields) == 0 {
		return nil, ErrHoldNotFound
	}

	details := &SeatHoldDetails{
		HoldID:    holdID,
		UserID:    fields["user_id"],
		BusID:     fields["bus_id"],
		CreatedAt: unixField(fields["created_at"]),
		ExpiresAt: unixField(fields["expires_at"]),
		TTL:       int(ttlCmd.Val().Seconds()),
	}
	for _, seatID := range seatsCmd.Val() {
		price, err := strconv.ParseInt(fields["price:"+seatID], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("hold %s has no price for seat %s", holdID, seatID)
		}
		details.Seats = append(details.Seats, HeldSeat{SeatID: seatID, Price: price})
		details.TotalPrice += price
	}
	return details, nil
}

// Intact reports whether every seat key still points at the hold
func (h *HoldStore) Intact(ctx context.Context, details *SeatHoldDetails) (bool, error) {
	if len(details.Seats) == 0 {
		return false, nil
	}
	keys := make([]string, len(details.Seats))
	for i, s := range details.Seats {
		keys[i] = constants.BuildSeatHoldKey(details.BusID, s.SeatID)
	}
	values, err := h.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read seat holds: %w", err)
	}
	for _, v := range values {
		if s, ok := v.(string); !ok || s != details.HoldID {
			return false, nil
		}
	}
	return true, nil
}

// Release drops the hold and any seat keys it still owns
func (h *HoldStore) Release(ctx context.Context, details *SeatHoldDetails) (int, error) {
	keys := []string{holdKey(details.HoldID), holdSeatsKey(details.HoldID), userHoldsKey(details.UserID)}
	for _, s := range details.Seats {
		keys = append(keys, constants.BuildSeatHoldKey(details.BusID, s.SeatID))
	}

	released, err := releaseScript.Run(ctx, h.redis, keys, details.HoldID).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to execute atomic seat release: %w", err)
	}
	return released, nil
}

// HeldSeats maps seat id to hold id for the given seats of a bus
func (h *HoldStore) HeldSeats(ctx context.Context, busID string, seatIDs []string) (map[string]string, error) {
	held := make(map[string]string)
	if len(seatIDs) == 0 {
		return held, nil
	}
	keys := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		keys[i] = constants.BuildSeatHoldKey(busID, id)
	}
	values, err := h.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read seat holds: %w", err)
	}
	for i, v := range values {
		if s, ok := v.(string); ok && s != "" {
			held[seatIDs[i]] = s
		}
	}
	return held, nil
}

// UserHoldIDs lists hold ids recorded for a user, pruning ones that expired
func (h *HoldStore) UserHoldIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := h.redis.SMembers(ctx, userHoldsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user holds: %w", err)
	}

	live := ids[:0]
	for _, id := range ids {
		n, err := h.redis.Exists(ctx, holdKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to check hold %s: %w", id, err)
		}
		if n == 0 {
			h.redis.SRem(ctx, userHoldsKey(userID), id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

// PreloadScripts loads the Lua scripts so the first hold runs EVALSHA
func (h *HoldStore) PreloadScripts(ctx context.Context) error {
	if err := holdScript.Load(ctx, h.redis).Err(); err != nil {
		return fmt.Errorf("failed to load seat hold script: %w", err)
	}
	if err := releaseScript.Load(ctx, h.redis).Err(); err != nil {
		return fmt.Errorf("failed to load seat release script: %w", err)
	}
	return nil
}

func unixField(v string) time.Time {
	sec, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
