package seats

import "time"

type SeatResponse struct {
	ID       string `json:"id"`
	Token    string `json:"token"`
	Deck     Deck   `json:"deck"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Price    int64  `json:"price"`
	Sellable bool   `json:"sellable"`
	Status   string `json:"status"`
	Version  int    `json:"version"`
}

type DeckResponse struct {
	Deck  Deck           `json:"deck"`
	Seats []SeatResponse `json:"seats"`
}

type SeatMapResponse struct {
	BusID          string         `json:"bus_id"`
	Decks          []DeckResponse `json:"decks"`
	TotalSeats     int            `json:"total_seats"`
	AvailableSeats int            `json:"available_seats"`
}

type SeatHoldResponse struct {
	HoldID     string     `json:"hold_id"`
	BusID      string     `json:"bus_id"`
	UserID     string     `json:"user_id"`
	Seats      []HeldSeat `json:"seats"`
	TotalPrice int64      `json:"total_price"`
	ExpiresAt  time.Time  `json:"expires_at"`
	TTL        int        `json:"ttl_seconds"`
}

type HoldValidationResult struct {
	Valid   bool             `json:"valid"`
	Reason  string           `json:"reason,omitempty"`
	Details *SeatHoldDetails `json:"details,omitempty"`
	TTL     int              `json:"ttl_seconds,omitempty"`
}

func (s Seat) ToResponse(held bool) SeatResponse {
	return SeatResponse{
		ID:       s.ID,
		Token:    s.Token(),
		Deck:     s.Deck,
		Row:      s.Row,
		Col:      s.Col,
		Price:    s.Price,
		Sellable: s.Sellable,
		Status:   s.EffectiveStatus(held),
		Version:  s.Version,
	}
}

func (d *SeatHoldDetails) ToResponse() SeatHoldResponse {
	return SeatHoldResponse{
		HoldID:     d.HoldID,
		BusID:      d.BusID,
		UserID:     d.UserID,
		Seats:      d.Seats,
		TotalPrice: d.TotalPrice,
		ExpiresAt:  d.ExpiresAt,
		TTL:        d.TTL,
	}
}
