package seats

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	CreateSeats(ctx context.Context, seats []Seat) error
	ListByBus(ctx context.Context, busID uuid.UUID) ([]Seat, error)
	GetByID(ctx context.Context, busID uuid.UUID, seatID string) (*Seat, error)
	GetByIDs(ctx context.Context, busID uuid.UUID, seatIDs []string) ([]Seat, error)
	// UpdateWithVersion writes status, price and sellable only if the stored version still matches
	UpdateWithVersion(ctx context.Context, seat *Seat, expectedVersion int) error
	// HasActiveBooking reports whether a confirmed booking still occupies the seat
	HasActiveBooking(ctx context.Context, busID uuid.UUID, seatID string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateSeats(ctx context.Context, seats []Seat) error {
	return r.db.WithContext(ctx).Create(&seats).Error
}

func (r *repository) ListByBus(ctx context.Context, busID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("bus_id = ?", busID).
		Order("deck ASC, row_no ASC, col_no ASC").
		Find(&seats).Error
	return seats, err
}

func (r *repository) GetByID(ctx context.Context, busID uuid.UUID, seatID string) (*Seat, error) {
	var seat Seat
	err := r.db.WithContext(ctx).First(&seat, "bus_id = ? AND id = ?", busID, seatID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &SeatError{Reason: ErrSeatNotFound, SeatIDs: []string{seatID}}
		}
		return nil, err
	}
	return &seat, nil
}

func (r *repository) GetByIDs(ctx context.Context, busID uuid.UUID, seatIDs []string) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("bus_id = ? AND id IN ?", busID, seatIDs).
		Find(&seats).Error
	return seats, err
}

func (r *repository) UpdateWithVersion(ctx context.Context, seat *Seat, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("bus_id = ? AND id = ? AND version = ?", seat.BusID, seat.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":   seat.Status,
			"price":    seat.Price,
			"sellable": seat.Sellable,
			"version":  gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update seat: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	seat.Version = expectedVersion + 1
	return nil
}

func (r *repository) HasActiveBooking(ctx context.Context, busID uuid.UUID, seatID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("booking_seats").
		Where("bus_id = ? AND seat_id = ? AND active", busID, seatID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check booked seat: %w", err)
	}
	return n > 0, nil
}

// LockSeats loads the seats with row locks inside a caller's transaction
func LockSeats(tx *gorm.DB, busID uuid.UUID, seatIDs []string) ([]Seat, error) {
	var seats []Seat
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("bus_id = ? AND id IN ?", busID, seatIDs).
		Order("id ASC").
		Find(&seats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock seats: %w", err)
	}
	return seats, nil
}

// MarkSold flips available seats to sold inside a caller's transaction
func MarkSold(tx *gorm.DB, busID uuid.UUID, seatIDs []string) error {
	return transition(tx, busID, seatIDs, StatusAvailable, StatusSold)
}

// MarkAvailable returns sold seats to the pool inside a caller's transaction
func MarkAvailable(tx *gorm.DB, busID uuid.UUID, seatIDs []string) error {
	return transition(tx, busID, seatIDs, StatusSold, StatusAvailable)
}

func transition(tx *gorm.DB, busID uuid.UUID, seatIDs []string, from, to SeatStatus) error {
	if len(seatIDs) == 0 {
		return nil
	}
	result := tx.Model(&Seat{}).
		Where("bus_id = ? AND id IN ? AND status = ?", busID, seatIDs, from).
		Updates(map[string]interface{}{
			"status":  to,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark seats %s: %w", to, result.Error)
	}
	if to == StatusSold && result.RowsAffected != int64(len(seatIDs)) {
		return &SeatError{Reason: ErrSeatUnavailable, SeatIDs: seatIDs}
	}
	return nil
}
