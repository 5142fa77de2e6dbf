package seats

type SeatInput struct {
	ID       string `json:"id" binding:"required,max=16"`
	Deck     Deck   `json:"deck" binding:"required,oneof=lower upper"`
	Row      int    `json:"row" binding:"required,min=1"`
	Col      int    `json:"col" binding:"required,min=1"`
	Price    int64  `json:"price" binding:"min=0"`
	Sellable *bool  `json:"sellable"`
}

// CreateSeatsRequest authors (part of) a bus layout
type CreateSeatsRequest struct {
	Seats []SeatInput `json:"seats" binding:"required,min=1,max=100,dive"`
}

// UpdateSeatRequest is an admin edit guarded by the version the editor last saw
type UpdateSeatRequest struct {
	Version      int    `json:"version" binding:"min=1"`
	ToggleStatus bool   `json:"toggle_status"`
	Price        *int64 `json:"price" binding:"omitempty,min=0"`
	Sellable     *bool  `json:"sellable"`
}

// SeatHoldRequest carries the client's seat tokens, e.g. ["L1-449","L5-820"]
type SeatHoldRequest struct {
	SeatTokens []string `json:"seat_tokens" binding:"required,min=1,max=10"`
}
