package database

import (
	"context"
	"errors"
	"testing"

	"busline/internal/shared/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) (*DB, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return &DB{PostgreSQL: gdb, Redis: rdb}, mock, mr
}

func TestHealthCheckHealthy(t *testing.T) {
	db, mock, _ := newTestDB(t)
	mock.ExpectPing()

	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheckReportsEveryStore(t *testing.T) {
	db, mock, mr := newTestDB(t)
	pingErr := errors.New("connection refused")
	mock.ExpectPing().WillReturnError(pingErr)
	mr.Close()

	err := db.HealthCheck(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pingErr)
	assert.Contains(t, err.Error(), "postgres:")
	assert.Contains(t, err.Error(), "redis:")
}

func TestHealthCheckWithoutRedis(t *testing.T) {
	db, mock, _ := newTestDB(t)
	db.Redis = nil
	mock.ExpectPing()

	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLogLevel(&config.Config{GinMode: "release"}))
	assert.Equal(t, logger.Warn, gormLogLevel(&config.Config{GinMode: "debug"}))
}
