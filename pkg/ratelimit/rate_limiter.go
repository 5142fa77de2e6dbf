package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"busline/internal/shared/config"
	"busline/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

type RateLimitType string

const (
	RateLimitTypeDefault RateLimitType = "default"
	RateLimitTypePublic  RateLimitType = "public"
	RateLimitTypeHold    RateLimitType = "hold"
	RateLimitTypeBooking RateLimitType = "booking"
	RateLimitTypeAdmin   RateLimitType = "admin"
	RateLimitTypeHealth  RateLimitType = "health"
)

// Result represents rate limit check result
type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// slidingWindowScript counts requests in the window and records this one if it fits.
//
// KEYS[1] window zset
// ARGV[1] window start (ns), ARGV[2] now (ns), ARGV[3] limit, ARGV[4] window ms, ARGV[5] member
var slidingWindowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local count = redis.call('ZCARD', KEYS[1])
local limit = tonumber(ARGV[3])
if count >= limit then
    redis.call('PEXPIRE', KEYS[1], ARGV[4])
    return {0, 0}
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {1, limit - count - 1}
`)

// RateLimiter counts requests per client IP and category in Redis.
// When Redis is unreachable it falls back to in-process token buckets.
type RateLimiter struct {
	client    *redis.Client
	config    config.RateLimitConfig
	whitelist map[string]struct{}
	now       func() time.Time

	mu       sync.Mutex
	local    map[string]*localLimiter
	maxLocal int
}

// maxLocalLimiters caps the fallback buckets kept in memory
const maxLocalLimiters = 10000

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(client *redis.Client, cfg config.RateLimitConfig) *RateLimiter {
	whitelist := make(map[string]struct{}, len(cfg.WhitelistedIPs))
	for _, ip := range cfg.WhitelistedIPs {
		whitelist[ip] = struct{}{}
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = time.Minute
	}
	return &RateLimiter{
		client:    client,
		config:    cfg,
		whitelist: whitelist,
		now:       time.Now,
		local:     make(map[string]*localLimiter),
		maxLocal:  maxLocalLimiters,
	}
}

func (r *RateLimiter) IsAllowed(ctx context.Context, clientIP string, limitType RateLimitType) (*Result, error) {
	limit := r.getLimit(limitType)
	now := r.now()

	if !r.config.Enabled || limit <= 0 || r.isWhitelisted(clientIP) {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: now.Add(r.config.WindowDuration).Unix(),
		}, nil
	}

	key := fmt.Sprintf("busline:ratelimit:%s:%s", limitType, clientIP)
	if r.client == nil {
		return r.checkLocal(key, limit, now), nil
	}

	result, err := r.checkRedis(ctx, key, limit, now)
	if err != nil {
		logger.GetDefault().WarnContext(ctx, "rate limit store unavailable, using local limiter", "error", err)
		return r.checkLocal(key, limit, now), nil
	}
	return result, nil
}

func (r *RateLimiter) checkRedis(ctx context.Context, key string, limit int, now time.Time) (*Result, error) {
	windowStart := now.Add(-r.config.WindowDuration)
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()[:8]

	values, err := slidingWindowScript.Run(ctx, r.client, []string{key},
		windowStart.UnixNano(),
		now.UnixNano(),
		limit,
		r.config.WindowDuration.Milliseconds(),
		member,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis eval failed: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	return &Result{
		Allowed:   values[0] == 1,
		Limit:     limit,
		Remaining: int(values[1]),
		ResetTime: now.Add(r.config.WindowDuration).Unix(),
	}, nil
}

// checkLocal spreads the same budget over the window as a token bucket
func (r *RateLimiter) checkLocal(key string, limit int, now time.Time) *Result {
	r.mu.Lock()
	entry, ok := r.local[key]
	if !ok {
		if len(r.local) >= r.maxLocal {
			r.evictLocal(now)
		}
		entry = &localLimiter{
			limiter: rate.NewLimiter(rate.Every(r.config.WindowDuration/time.Duration(limit)), limit),
		}
		r.local[key] = entry
	}
	entry.lastSeen = now
	limiter := entry.limiter
	r.mu.Unlock()

	allowed := limiter.AllowN(now, 1)
	remaining := int(limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: now.Add(r.config.WindowDuration).Unix(),
	}
}

// evictLocal drops buckets idle for a full window, which have refilled and
// behave like new ones. If none are idle the least recently used goes.
// Caller holds r.mu.
func (r *RateLimiter) evictLocal(now time.Time) {
	cutoff := now.Add(-r.config.WindowDuration)
	var oldestKey string
	var oldest time.Time
	for key, entry := range r.local {
		if !entry.lastSeen.After(cutoff) {
			delete(r.local, key)
			continue
		}
		if oldestKey == "" || entry.lastSeen.Before(oldest) {
			oldestKey, oldest = key, entry.lastSeen
		}
	}
	if len(r.local) >= r.maxLocal && oldestKey != "" {
		delete(r.local, oldestKey)
	}
}

func (r *RateLimiter) getLimit(limitType RateLimitType) int {
	switch limitType {
	case RateLimitTypePublic:
		return r.config.PublicRequests
	case RateLimitTypeHold:
		return r.config.HoldRequests
	case RateLimitTypeBooking:
		return r.config.BookingRequests
	case RateLimitTypeAdmin:
		return r.config.AdminRequests
	case RateLimitTypeHealth:
		return 0
	default:
		return r.config.DefaultRequests
	}
}

func (r *RateLimiter) isWhitelisted(ip string) bool {
	_, ok := r.whitelist[ip]
	return ok
}
