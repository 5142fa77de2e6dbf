package points

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindBoarding Kind = "boarding"
	KindDropping Kind = "dropping"
)

func (k Kind) Valid() bool {
	return k == KindBoarding || k == KindDropping
}

// Point is a timed pickup or drop-off location for a bus. ID never changes after creation.
type Point struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BusID     uuid.UUID `gorm:"type:uuid;index:idx_point_bus_kind;not null" json:"bus_id"`
	Kind      Kind      `gorm:"type:varchar(10);index:idx_point_bus_kind;not null;check:kind IN ('boarding','dropping')" json:"kind"`
	Code      string    `gorm:"type:varchar(160);not null" json:"code"`
	Name      string    `gorm:"type:varchar(120);not null" json:"name"`
	Time      string    `gorm:"column:point_time;type:varchar(5);not null" json:"time"`
	Address   string    `gorm:"type:text" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Point) TableName() string {
	return "bus_points"
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug builds the human-readable point code, e.g. "Central Bus Stand", "21:00" -> "central-bus-stand-2100"
func Slug(name, hhmm string) string {
	base := strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(name), "-"), "-")
	suffix := strings.ReplaceAll(hhmm, ":", "")
	if base == "" {
		return suffix
	}
	if suffix == "" {
		return base
	}
	return base + "-" + suffix
}

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidTime reports whether s is a 24h HH:MM time
func ValidTime(s string) bool {
	return hhmmPattern.MatchString(s)
}
