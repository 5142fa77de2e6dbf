package seats

import (
	"fmt"
	"time"

	"busline/internal/selection"

	"github.com/google/uuid"
)

type Deck string

const (
	DeckLower Deck = "lower"
	DeckUpper Deck = "upper"
)

func (d Deck) Valid() bool {
	return d == DeckLower || d == DeckUpper
}

// SeatStatus is the persisted state. Holds and the sellable flag are layered on top.
type SeatStatus string

const (
	StatusAvailable SeatStatus = "available"
	StatusSold      SeatStatus = "sold"
)

// Effective statuses shown on the seat map
const (
	EffectiveAvailable = "available"
	EffectiveSold      = "sold"
	EffectiveHeld      = "held"
	EffectiveBlocked   = "blocked"
)

// Seat is one catalog entry, identified by its label within a bus
type Seat struct {
	BusID     uuid.UUID  `gorm:"type:uuid;primaryKey;uniqueIndex:idx_seat_position,priority:1" json:"bus_id"`
	ID        string     `gorm:"type:varchar(16);primaryKey" json:"id"`
	Deck      Deck       `gorm:"type:varchar(10);not null;check:deck IN ('lower','upper');uniqueIndex:idx_seat_position,priority:2" json:"deck"`
	Row       int        `gorm:"column:row_no;not null;uniqueIndex:idx_seat_position,priority:3" json:"row"`
	Col       int        `gorm:"column:col_no;not null;uniqueIndex:idx_seat_position,priority:4" json:"col"`
	Price     int64      `gorm:"not null;check:price >= 0" json:"price"`
	Sellable  bool       `gorm:"not null" json:"sellable"`
	Status    SeatStatus `gorm:"type:varchar(20);not null;check:status IN ('available','sold')" json:"status"`
	Version   int        `gorm:"not null" json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Seat) TableName() string {
	return "seats"
}

func (s Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// IsBookable reports whether the catalog allows selling this seat right now, ignoring holds
func (s Seat) IsBookable() bool {
	return s.Sellable && s.Status == StatusAvailable
}

// Token is the "<id>-<price>" handle handed to clients
func (s Seat) Token() string {
	return selection.NewToken(s.ID, s.Price).String()
}

// EffectiveStatus folds the sellable flag and an active hold into the display status
func (s Seat) EffectiveStatus(held bool) string {
	switch {
	case !s.Sellable:
		return EffectiveBlocked
	case s.Status == StatusSold:
		return EffectiveSold
	case held:
		return EffectiveHeld
	default:
		return EffectiveAvailable
	}
}

// ToggleStatus returns a copy with available and sold swapped
func ToggleStatus(seat Seat) Seat {
	if seat.Status == StatusSold {
		seat.Status = StatusAvailable
	} else {
		seat.Status = StatusSold
	}
	return seat
}

// SetPrice returns a copy with the new price
func SetPrice(seat Seat, price int64) (Seat, error) {
	if price < 0 {
		return seat, fmt.Errorf("%w: %d", ErrInvalidPrice, price)
	}
	seat.Price = price
	return seat, nil
}

// HeldSeat is a seat inside a hold with the price captured when it was held
type HeldSeat struct {
	SeatID string `json:"seat_id"`
	Price  int64  `json:"price"`
}

// SeatHoldDetails is the reservation entity stored in Redis
type SeatHoldDetails struct {
	HoldID     string     `json:"hold_id"`
	UserID     string     `json:"user_id"`
	BusID      string     `json:"bus_id"`
	Seats      []HeldSeat `json:"seats"`
	TotalPrice int64      `json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	TTL        int        `json:"ttl_seconds"`
}

func (d *SeatHoldDetails) SeatIDs() []string {
	ids := make([]string, len(d.Seats))
	for i, s := range d.Seats {
		ids[i] = s.SeatID
	}
	return ids
}
