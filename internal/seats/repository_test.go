package seats

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewRepository(gdb), mock
}

func TestRepositoryHasActiveBooking(t *testing.T) {
	repo, mock := newMockRepository(t)
	busID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "booking_seats" WHERE bus_id = \$1 AND seat_id = \$2 AND active`).
		WithArgs(busID, "L6").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "booking_seats"`).
		WithArgs(busID, "L7").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	booked, err := repo.HasActiveBooking(context.Background(), busID, "L6")
	require.NoError(t, err)
	assert.True(t, booked)

	booked, err = repo.HasActiveBooking(context.Background(), busID, "L7")
	require.NoError(t, err)
	assert.False(t, booked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
