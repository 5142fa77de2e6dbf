package seats

import (
	"fmt"
	"strings"
)

type position struct {
	deck     Deck
	row, col int
}

// ValidateLayout checks new seats against each other and against the seats already on the bus
func ValidateLayout(existing, incoming []Seat) error {
	ids := make(map[string]bool, len(existing)+len(incoming))
	taken := make(map[position]string, len(existing)+len(incoming))
	for _, s := range existing {
		ids[s.ID] = true
		taken[position{s.Deck, s.Row, s.Col}] = s.ID
	}

	var problems []string
	for _, s := range incoming {
		switch {
		case strings.TrimSpace(s.ID) == "" || strings.ContainsAny(s.ID, " \t"):
			problems = append(problems, fmt.Sprintf("seat id %q is not a valid label", s.ID))
			continue
		case !s.Deck.Valid():
			problems = append(problems, fmt.Sprintf("seat %s: unknown deck %q", s.ID, s.Deck))
			continue
		case s.Row < 1 || s.Col < 1:
			problems = append(problems, fmt.Sprintf("seat %s: row and col must be positive", s.ID))
			continue
		case s.Price < 0:
			problems = append(problems, fmt.Sprintf("seat %s: negative price", s.ID))
			continue
		}

		if ids[s.ID] {
			problems = append(problems, fmt.Sprintf("seat %s: duplicate id", s.ID))
			continue
		}
		pos := position{s.Deck, s.Row, s.Col}
		if other, ok := taken[pos]; ok {
			problems = append(problems, fmt.Sprintf("seat %s overlaps %s at %s %d/%d", s.ID, other, s.Deck, s.Row, s.Col))
			continue
		}
		ids[s.ID] = true
		taken[pos] = s.ID
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidLayout, strings.Join(problems, "; "))
	}
	return nil
}
