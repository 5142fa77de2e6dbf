package bookings

import (
	"time"

	"busline/internal/shared/utils/response"
)

type BookingResponse struct {
	ID          string                `json:"id"`
	BookingRef  string                `json:"booking_ref"`
	BusID       string                `json:"bus_id"`
	UserID      string                `json:"user_id"`
	Status      Status                `json:"status"`
	TotalAmount int64                 `json:"total_amount"`
	Seats       []BookingSeatResponse `json:"seats"`
	Contact     Contact               `json:"contact"`
	Boarding    PointRef              `json:"boarding"`
	Dropping    PointRef              `json:"dropping"`
	CreatedAt   time.Time             `json:"created_at"`
	CancelledAt *time.Time            `json:"cancelled_at,omitempty"`
	// Replayed is set when an idempotent retry returned an existing booking
	Replayed bool `json:"replayed,omitempty"`
}

type BookingSeatResponse struct {
	SeatID    string    `json:"seat_id"`
	Price     int64     `json:"price"`
	Passenger Passenger `json:"passenger"`
}

type BookingListResponse struct {
	Bookings   []BookingResponse   `json:"bookings"`
	Pagination response.Pagination `json:"pagination"`
}

func (b *Booking) ToResponse() BookingResponse {
	seats := make([]BookingSeatResponse, 0, len(b.Seats))
	for _, s := range b.Seats {
		seats = append(seats, BookingSeatResponse{SeatID: s.SeatID, Price: s.Price, Passenger: s.Passenger})
	}
	return BookingResponse{
		ID:          b.ID.String(),
		BookingRef:  b.BookingRef,
		BusID:       b.BusID.String(),
		UserID:      b.UserID,
		Status:      b.Status,
		TotalAmount: b.TotalAmount,
		Seats:       seats,
		Contact:     b.Contact,
		Boarding:    b.Boarding,
		Dropping:    b.Dropping,
		CreatedAt:   b.CreatedAt,
		CancelledAt: b.CancelledAt,
	}
}
