package buses

import (
	"time"

	"github.com/google/uuid"
)

// Bus is one scheduled departure. It owns a seat catalog and a set of points.
type Bus struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	OperatorName string    `gorm:"not null" json:"operator_name"`
	OwnerID      string    `gorm:"type:varchar(64);index;not null" json:"owner_id"`
	BusType      string    `gorm:"type:varchar(40)" json:"bus_type"`
	Origin       string    `gorm:"type:varchar(120);index:idx_bus_route;not null" json:"origin"`
	Destination  string    `gorm:"type:varchar(120);index:idx_bus_route;not null" json:"destination"`
	DepartureAt  time.Time `gorm:"index;not null" json:"departure_at"`
	ArrivalAt    time.Time `gorm:"not null" json:"arrival_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Bus) TableName() string {
	return "buses"
}

// ListFilter narrows the bus search; zero values are ignored
type ListFilter struct {
	Origin      string
	Destination string
	Date        *time.Time
	OwnerID     string
	Page        int
	Limit       int
}
