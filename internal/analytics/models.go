package analytics

import "time"

// BusReport is the sales picture of one bus for its owner
type BusReport struct {
	BusID       string         `json:"bus_id"`
	BusName     string         `json:"bus_name"`
	DepartureAt time.Time      `json:"departure_at"`
	Seats       SeatSummary    `json:"seats"`
	Decks       []DeckSummary  `json:"decks"`
	Bookings    BookingSummary `json:"bookings"`
	Boarding    []PointUsage   `json:"boarding_points"`
	Dropping    []PointUsage   `json:"dropping_points"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type SeatSummary struct {
	Total     int     `json:"total"`
	Sold      int     `json:"sold"`
	Blocked   int     `json:"blocked"`
	Available int     `json:"available"`
	Occupancy float64 `json:"occupancy_rate"`
}

type DeckSummary struct {
	Deck    string `json:"deck"`
	Total   int    `json:"total"`
	Sold    int    `json:"sold"`
	Blocked int    `json:"blocked"`
}

type BookingSummary struct {
	Confirmed        int     `json:"confirmed"`
	Cancelled        int     `json:"cancelled"`
	SeatsBooked      int     `json:"seats_booked"`
	Revenue          int64   `json:"revenue"`
	AverageValue     float64 `json:"average_value"`
	CancellationRate float64 `json:"cancellation_rate"`
}

type PointUsage struct {
	Name     string `json:"name"`
	Time     string `json:"time"`
	Bookings int    `json:"bookings"`
}

type DailyBookingStats struct {
	Date              string  `json:"date"`
	TotalBookings     int     `json:"total_bookings"`
	ConfirmedBookings int     `json:"confirmed_bookings"`
	CancelledBookings int     `json:"cancelled_bookings"`
	Revenue           int64   `json:"revenue"`
	AverageValue      float64 `json:"average_value"`
}

// Summarize totals the deck rows and derives occupancy over sellable seats
func Summarize(decks []DeckSummary) SeatSummary {
	var s SeatSummary
	for _, d := range decks {
		s.Total += d.Total
		s.Sold += d.Sold
		s.Blocked += d.Blocked
	}
	s.Available = s.Total - s.Sold - s.Blocked
	if s.Available < 0 {
		s.Available = 0
	}
	if sellable := s.Total - s.Blocked; sellable > 0 {
		s.Occupancy = roundRate(float64(s.Sold) / float64(sellable))
	}
	return s
}

func cancellationRate(confirmed, cancelled int) float64 {
	total := confirmed + cancelled
	if total == 0 {
		return 0
	}
	return roundRate(float64(cancelled) / float64(total))
}

func roundRate(v float64) float64 {
	return float64(int(v*10000+0.5)) / 10000
}
