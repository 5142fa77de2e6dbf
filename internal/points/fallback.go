package points

import (
	"github.com/google/uuid"
)

type fallbackPoint struct {
	name, time, address string
}

var fallbackBoarding = []fallbackPoint{
	{"Central Bus Stand", "21:00", "Platform 4, Central Bus Stand"},
	{"City Junction", "21:30", "Opposite City Junction Metro"},
	{"Highway Toll Plaza", "22:00", "Toll Plaza service lane"},
}

var fallbackDropping = []fallbackPoint{
	{"Main Bus Terminal", "06:00", "Main Bus Terminal arrivals bay"},
	{"Railway Station", "06:30", "Railway Station east gate"},
	{"City Center", "07:00", "City Center clock tower"},
}

// fallbackNamespace seeds the deterministic ids of default points
var fallbackNamespace = uuid.MustParse("6f1c5f0e-3d1b-4c57-9b7e-2f4a8c9d0e11")

// FallbackPoints returns the three default points of a kind for a bus with none configured.
// IDs are derived from bus, kind and name so a booking can reference them later.
func FallbackPoints(busID uuid.UUID, kind Kind) []Point {
	src := fallbackBoarding
	if kind == KindDropping {
		src = fallbackDropping
	}

	out := make([]Point, 0, len(src))
	for _, fp := range src {
		out = append(out, Point{
			ID:      uuid.NewSHA1(fallbackNamespace, []byte(busID.String()+"/"+string(kind)+"/"+fp.name)),
			BusID:   busID,
			Kind:    kind,
			Code:    Slug(fp.name, fp.time),
			Name:    fp.name,
			Time:    fp.time,
			Address: fp.address,
		})
	}
	return out
}
