package points

type PointResponse struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Time     string `json:"time"`
	Address  string `json:"address,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

type PointListResponse struct {
	BusID    string          `json:"bus_id"`
	Kind     Kind            `json:"kind"`
	Points   []PointResponse `json:"points"`
	Fallback bool            `json:"fallback"`
}

// Choice is a resolved boarding and dropping pair for one booking
type Choice struct {
	Boarding PointResponse `json:"boarding"`
	Dropping PointResponse `json:"dropping"`
}

func (p Point) ToResponse(fallback bool) PointResponse {
	return PointResponse{
		ID:       p.ID.String(),
		Kind:     p.Kind,
		Code:     p.Code,
		Name:     p.Name,
		Time:     p.Time,
		Address:  p.Address,
		Fallback: fallback,
	}
}
