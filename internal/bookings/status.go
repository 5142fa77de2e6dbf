package bookings

import "fmt"

// Status is the booking lifecycle: CONFIRMED -> CANCELLED, nothing else.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: nil,
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("unknown booking status %q", raw)
	}
	return s, nil
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// HoldsSeats is true while the booking's seats count as sold
func (s Status) HoldsSeats() bool {
	return s == StatusConfirmed
}
