package bookings

// CreateBookingRequest turns a live hold into a confirmed booking
type CreateBookingRequest struct {
	HoldID          string           `json:"hold_id" validate:"required,max=64"`
	BoardingPointID string           `json:"boarding_point_id" validate:"required,uuid"`
	DroppingPointID string           `json:"dropping_point_id" validate:"required,uuid"`
	Contact         ContactInput     `json:"contact" validate:"required"`
	Passengers      []PassengerInput `json:"passengers" validate:"required,min=1,max=10,unique=SeatID,dive"`
	// IdempotencyKey may also come from the Idempotency-Key header
	IdempotencyKey string `json:"idempotency_key,omitempty" validate:"omitempty,max=128"`
}

type ContactInput struct {
	Name  string `json:"name" validate:"required,min=2,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,e164|numeric,min=7,max=20"`
}

// PassengerInput is keyed by seat so order in the request does not matter
type PassengerInput struct {
	SeatID string `json:"seat_id" validate:"required,max=16"`
	Name   string `json:"name" validate:"required,min=2,max=120"`
	Age    int    `json:"age" validate:"required,min=1,max=120"`
	Gender string `json:"gender" validate:"required,oneof=male female other"`
}

type BookingListQuery struct {
	Page   int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit  int    `form:"limit,default=10" binding:"omitempty,min=1,max=100"`
	Status Status `form:"status" binding:"omitempty,oneof=CONFIRMED CANCELLED"`
}
