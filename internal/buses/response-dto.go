package buses

import (
	"time"

	"busline/internal/shared/utils/response"
)

type BusResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OperatorName string    `json:"operator_name"`
	OwnerID      string    `json:"owner_id"`
	BusType      string    `json:"bus_type,omitempty"`
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	DepartureAt  time.Time `json:"departure_at"`
	ArrivalAt    time.Time `json:"arrival_at"`
}

type BusListResponse struct {
	Buses      []BusResponse       `json:"buses"`
	Pagination response.Pagination `json:"pagination"`
}

func (b *Bus) ToResponse() BusResponse {
	return BusResponse{
		ID:           b.ID.String(),
		Name:         b.Name,
		OperatorName: b.OperatorName,
		OwnerID:      b.OwnerID,
		BusType:      b.BusType,
		Origin:       b.Origin,
		Destination:  b.Destination,
		DepartureAt:  b.DepartureAt,
		ArrivalAt:    b.ArrivalAt,
	}
}
