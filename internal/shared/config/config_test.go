package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SEAT_HOLD_TTL", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, 10*time.Minute, cfg.Redis.SeatHoldTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Contains(t, cfg.Database.DSN, "dbname=busline_db")
	assert.False(t, cfg.Kafka.Enabled)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SEAT_HOLD_TTL", "90s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/bus")
	t.Setenv("RATE_LIMIT_HOLD_REQUESTS", "not-a-number")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("REDIS_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, 90*time.Second, cfg.Redis.SeatHoldTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, "postgres://u:p@db:5432/bus", cfg.Database.DSN)
	assert.Equal(t, 30, cfg.RateLimit.HoldRequests)
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.Redis.Enabled)
}
