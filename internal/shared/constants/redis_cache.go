package constants

import (
	"fmt"
	"time"
)

// Redis keys follow busline:{module}:{operation}:{identifier}

const (
	CACHE_PREFIX = "busline"
)

const (
	TTL_DYNAMIC_SHORT = 5 * time.Minute
	TTL_STATIC_MEDIUM = 12 * time.Hour
)

// Seat holds (authoritative, not a cache)
const (
	KEY_SEAT_HOLD  = CACHE_PREFIX + ":seat_hold:"  // + bus-id:seat-id -> hold-id
	KEY_HOLD       = CACHE_PREFIX + ":hold:"       // + hold-id -> hash
	KEY_HOLD_SEATS = CACHE_PREFIX + ":hold_seats:" // + hold-id -> list of seat ids in selection order
	KEY_USER_HOLDS = CACHE_PREFIX + ":user_holds:" // + user-id -> set of hold ids
)

// Booking idempotency markers
const (
	KEY_BOOKING_IDEMPOTENCY = CACHE_PREFIX + ":bookings:idempotency:" // + user-id:key

	// an attempt still "pending" after this long is treated as dead
	TTL_IDEMPOTENCY_PENDING = time.Minute
)

// Cached reads
const (
	CACHE_KEY_SEAT_CATALOG = CACHE_PREFIX + ":seats:catalog:bus:" // + bus-id
	CACHE_KEY_BUS_DETAIL   = CACHE_PREFIX + ":buses:detail:uuid:" // + bus-id
	CACHE_KEY_BUS_POINTS   = CACHE_PREFIX + ":points:bus:"        // + bus-id:kind
	CACHE_KEY_BUS_REPORT   = CACHE_PREFIX + ":analytics:bus:"     // + bus-id
)

const (
	TTL_SEAT_CATALOG = TTL_DYNAMIC_SHORT
	TTL_BUS_DETAIL   = TTL_STATIC_MEDIUM
	TTL_BUS_POINTS   = TTL_STATIC_MEDIUM
	TTL_BUS_REPORT   = time.Minute
)

func BuildSeatHoldKey(busID, seatID string) string {
	return KEY_SEAT_HOLD + busID + ":" + seatID
}

func BuildSeatCatalogKey(busID string) string {
	return CACHE_KEY_SEAT_CATALOG + busID
}

func BuildBusDetailKey(busID string) string {
	return CACHE_KEY_BUS_DETAIL + busID
}

func BuildBusPointsKey(busID, kind string) string {
	return fmt.Sprintf("%s%s:%s", CACHE_KEY_BUS_POINTS, busID, kind)
}

func BuildIdempotencyKey(userID, key string) string {
	return KEY_BOOKING_IDEMPOTENCY + userID + ":" + key
}

func BuildBusReportKey(busID string) string {
	return CACHE_KEY_BUS_REPORT + busID
}
