package bookings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"busline/internal/seats"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
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

func TestTranslateConstraintError(t *testing.T) {
	seatIDs := []string{"L1", "L5"}

	err := translateConstraintError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: ConstraintActiveSeat}), seatIDs)
	var seatErr *seats.SeatError
	require.ErrorAs(t, err, &seatErr)
	assert.ErrorIs(t, err, seats.ErrSeatUnavailable)
	assert.Equal(t, seatIDs, seatErr.SeatIDs)

	err = translateConstraintError(&pgconn.PgError{Code: "23505", ConstraintName: ConstraintIdempotencyKey}, seatIDs)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	other := &pgconn.PgError{Code: "23503", ConstraintName: "fk_bus"}
	assert.Equal(t, error(other), translateConstraintError(other, seatIDs))
	assert.NoError(t, translateConstraintError(nil, seatIDs))
}

func TestRepositoryCreateRejectsSoldSeat(t *testing.T) {
	repo, mock := newMockRepository(t)
	busID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "seats" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"bus_id", "id", "deck", "row_no", "col_no", "price", "sellable", "status", "version"}).
			AddRow(busID, "L1", "lower", 1, 1, 449, true, "available", 1).
			AddRow(busID, "L5", "lower", 2, 1, 820, true, "sold", 3))
	mock.ExpectRollback()

	booking := &Booking{
		BusID:  busID,
		UserID: "u1",
		Status: StatusConfirmed,
		Seats: []BookingSeat{
			{BusID: busID, SeatID: "L1", Position: 1, Price: 449, Active: true},
			{BusID: busID, SeatID: "L5", Position: 2, Price: 820, Active: true},
		},
	}
	err := repo.Create(context.Background(), booking)

	var seatErr *seats.SeatError
	require.ErrorAs(t, err, &seatErr)
	assert.Equal(t, []string{"L5"}, seatErr.SeatIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCancelReleasesSeats(t *testing.T) {
	repo, mock := newMockRepository(t)
	busID := uuid.New()
	booking := confirmedBooking(busID, "u1")
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "booking_seats" SET "active"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "seats" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := repo.Cancel(context.Background(), booking, "u1", at)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusCancelled, booking.Status)
	assert.Equal(t, &at, booking.CancelledAt)
	assert.False(t, booking.Seats[0].Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCancelAlreadyCancelled(t *testing.T) {
	repo, mock := newMockRepository(t)
	booking := confirmedBooking(uuid.New(), "u1")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err := repo.Cancel(context.Background(), booking, "u1", time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, StatusConfirmed, booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func newSeatRows(busID uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"bus_id", "id", "deck", "row_no", "col_no", "price", "sellable", "status", "version"}).
		AddRow(busID, "L1", "lower", 1, 1, 449, true, "available", 1).
		AddRow(busID, "L5", "lower", 2, 1, 820, true, "available", 2)
}

func twoSeatBooking(busID uuid.UUID) *Booking {
	return &Booking{
		BookingRef:  "BUS-20260501-ABCDEF",
		BusID:       busID,
		UserID:      "u1",
		Status:      StatusConfirmed,
		TotalAmount: 1269,
		Seats: []BookingSeat{
			{BusID: busID, SeatID: "L5", Position: 1, Price: 820, Active: true},
			{BusID: busID, SeatID: "L1", Position: 2, Price: 449, Active: true},
		},
	}
}

func TestRepositoryCreateLocksInsertsAndSells(t *testing.T) {
	repo, mock := newMockRepository(t)
	busID := uuid.New()
	bookingID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "seats" WHERE .* FOR UPDATE`).WillReturnRows(newSeatRows(busID))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(bookingID.String()))
	mock.ExpectQuery(`INSERT INTO "booking_seats"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()).AddRow(uuid.NewString()))
	mock.ExpectExec(`UPDATE "seats" SET .*"status"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	booking := twoSeatBooking(busID)
	require.NoError(t, repo.Create(context.Background(), booking))
	assert.Equal(t, bookingID, booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateSeatAlreadySoldByConcurrentBooking(t *testing.T) {
	repo, mock := newMockRepository(t)
	busID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "seats" WHERE .* FOR UPDATE`).WillReturnRows(newSeatRows(busID))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectQuery(`INSERT INTO "booking_seats"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: ConstraintActiveSeat})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), twoSeatBooking(busID))

	var seatErr *seats.SeatError
	require.ErrorAs(t, err, &seatErr)
	assert.ErrorIs(t, err, seats.ErrSeatUnavailable)
	assert.Equal(t, []string{"L5", "L1"}, seatErr.SeatIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryCreateSellFailsWhenRowsChanged(t *testing.T) {
	repo, mock := newMockRepository(t)
	busID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "seats" WHERE .* FOR UPDATE`).WillReturnRows(newSeatRows(busID))
	mock.ExpectQuery(`INSERT INTO "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectQuery(`INSERT INTO "booking_seats"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()).AddRow(uuid.NewString()))
	mock.ExpectExec(`UPDATE "seats" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), twoSeatBooking(busID))
	assert.ErrorIs(t, err, seats.ErrSeatUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
