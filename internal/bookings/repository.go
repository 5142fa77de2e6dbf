package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/internal/seats"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Constraint names created by the database migrations
const (
	ConstraintActiveSeat     = "idx_booking_seats_active_seat"
	ConstraintIdempotencyKey = "idx_bookings_user_idempotency"
)

type Repository interface {
	// Create locks the seats, inserts the booking and marks the seats sold in one transaction
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*Booking, error)
	ListByUser(ctx context.Context, userID string, query BookingListQuery) ([]Booking, int64, error)
	ListByBus(ctx context.Context, busID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)
	// Cancel moves CONFIRMED to CANCELLED and frees the seats. It reports false when the booking was no longer CONFIRMED.
	Cancel(ctx context.Context, booking *Booking, actorID string, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	seatIDs := booking.SeatIDs()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := seats.LockSeats(tx, booking.BusID, seatIDs)
		if err != nil {
			return err
		}

		byID := make(map[string]seats.Seat, len(locked))
		for _, s := range locked {
			byID[s.ID] = s
		}
		var unavailable []string
		for _, id := range seatIDs {
			if s, ok := byID[id]; !ok || !s.IsBookable() {
				unavailable = append(unavailable, id)
			}
		}
		if len(unavailable) > 0 {
			return &seats.SeatError{Reason: seats.ErrSeatUnavailable, SeatIDs: unavailable}
		}

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		return seats.MarkSold(tx, booking.BusID, seatIDs)
	})
	return translateConstraintError(err, seatIDs)
}

// translateConstraintError maps unique violations to domain errors
func translateConstraintError(err error, seatIDs []string) error {
	var pgErr *pgconn.PgError
	if err == nil || !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case ConstraintActiveSeat:
		return &seats.SeatError{Reason: seats.ErrSeatUnavailable, SeatIDs: seatIDs}
	case ConstraintIdempotencyKey:
		return ErrDuplicateRequest
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.withSeats(r.db.WithContext(ctx)).First(&booking, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*Booking, error) {
	var booking Booking
	err := r.withSeats(r.db.WithContext(ctx)).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string, query BookingListQuery) ([]Booking, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID), query)
}

func (r *repository) ListByBus(ctx context.Context, busID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&Booking{}).Where("bus_id = ?", busID), query)
}

func (r *repository) list(base *gorm.DB, query BookingListQuery) ([]Booking, int64, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}
	if query.Status != "" {
		base = base.Where("status = ?", query.Status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bookings []Booking
	err := r.withSeats(base).
		Order("created_at DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&bookings).Error
	return bookings, total, err
}

func (r *repository) withSeats(db *gorm.DB) *gorm.DB {
	return db.Preload("Seats", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (r *repository) Cancel(ctx context.Context, booking *Booking, actorID string, at time.Time) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Booking{}).
			Where("id = ? AND status = ?", booking.ID, StatusConfirmed).
			Updates(map[string]interface{}{
				"status":       StatusCancelled,
				"cancelled_at": at,
				"cancelled_by": actorID,
				"updated_at":   at,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to cancel booking: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&BookingSeat{}).
			Where("booking_id = ?", booking.ID).
			Update("active", false).Error; err != nil {
			return fmt.Errorf("failed to release booking seats: %w", err)
		}

		if err := seats.MarkAvailable(tx, booking.BusID, booking.SeatIDs()); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		booking.Status = StatusCancelled
		booking.CancelledAt = &at
		booking.CancelledBy = actorID
		booking.UpdatedAt = at
		for i := range booking.Seats {
			booking.Seats[i].Active = booking.Status.HoldsSeats()
		}
	}
	return changed, nil
}
