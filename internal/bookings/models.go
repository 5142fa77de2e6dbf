package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking is one confirmed purchase of seats on a bus
type Booking struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingRef     string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"booking_ref"`
	BusID          uuid.UUID  `gorm:"type:uuid;index;not null" json:"bus_id"`
	UserID         string     `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Status         Status     `gorm:"type:varchar(20);not null;check:status IN ('CONFIRMED', 'CANCELLED')" json:"status"`
	TotalAmount    int64      `gorm:"not null;check:total_amount >= 0" json:"total_amount"`
	Contact        Contact    `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`
	Boarding       PointRef   `gorm:"embedded;embeddedPrefix:boarding_" json:"boarding"`
	Dropping       PointRef   `gorm:"embedded;embeddedPrefix:dropping_" json:"dropping"`
	HoldID         string     `gorm:"type:varchar(64)" json:"hold_id"`
	IdempotencyKey *string    `gorm:"type:varchar(128)" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy    string     `gorm:"type:varchar(64)" json:"cancelled_by,omitempty"`

	Seats []BookingSeat `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE;" json:"seats"`
}

func (Booking) TableName() string {
	return "bookings"
}

// BookingSeat is one seat of a booking with the passenger travelling in it
type BookingSeat struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"-"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null" json:"-"`
	BusID     uuid.UUID `gorm:"type:uuid;not null" json:"-"`
	SeatID    string    `gorm:"type:varchar(16);not null" json:"seat_id"`
	Position  int       `gorm:"not null" json:"position"`
	Price     int64     `gorm:"not null;check:price >= 0" json:"price"`
	Passenger Passenger `gorm:"embedded;embeddedPrefix:passenger_" json:"passenger"`
	// Active is cleared on cancellation so the seat can be sold again
	Active    bool      `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"-"`
}

func (BookingSeat) TableName() string {
	return "booking_seats"
}

type Passenger struct {
	Name   string `gorm:"type:varchar(120)" json:"name"`
	Age    int    `json:"age"`
	Gender string `gorm:"type:varchar(10)" json:"gender"`
}

type Contact struct {
	Name  string `gorm:"type:varchar(120)" json:"name"`
	Email string `gorm:"type:varchar(255)" json:"email"`
	Phone string `gorm:"type:varchar(20)" json:"phone"`
}

// PointRef snapshots a boarding or dropping point at booking time
type PointRef struct {
	ID   uuid.UUID `gorm:"type:uuid" json:"id"`
	Name string    `gorm:"type:varchar(120)" json:"name"`
	Time string    `gorm:"type:varchar(5)" json:"time"`
}

func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// SeatIDs returns seat labels in booking order
func (b *Booking) SeatIDs() []string {
	ids := make([]string, len(b.Seats))
	for i, s := range b.Seats {
		ids[i] = s.SeatID
	}
	return ids
}
