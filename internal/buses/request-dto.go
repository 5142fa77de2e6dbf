package buses

import "time"

type CreateBusRequest struct {
	Name         string    `json:"name" binding:"required,min=2,max=120"`
	OperatorName string    `json:"operator_name" binding:"required,max=120"`
	BusType      string    `json:"bus_type" binding:"omitempty,max=40"`
	Origin       string    `json:"origin" binding:"required,max=120"`
	Destination  string    `json:"destination" binding:"required,max=120"`
	DepartureAt  time.Time `json:"departure_at" binding:"required"`
	ArrivalAt    time.Time `json:"arrival_at" binding:"required,gtfield=DepartureAt"`
	// OwnerID lets an admin register a bus for an operator account
	OwnerID string `json:"owner_id" binding:"omitempty,max=64"`
}

type UpdateBusRequest struct {
	Name         *string    `json:"name" binding:"omitempty,min=2,max=120"`
	OperatorName *string    `json:"operator_name" binding:"omitempty,max=120"`
	BusType      *string    `json:"bus_type" binding:"omitempty,max=40"`
	DepartureAt  *time.Time `json:"departure_at"`
	ArrivalAt    *time.Time `json:"arrival_at"`
}

type ListBusesQuery struct {
	Origin      string `form:"origin"`
	Destination string `form:"destination"`
	Date        string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	Page        int    `form:"page,default=1" binding:"min=1"`
	Limit       int    `form:"limit,default=20" binding:"min=1,max=100"`
}
