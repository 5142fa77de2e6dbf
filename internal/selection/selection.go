package selection

// Selection is one session's ordered set of chosen seats. Not safe for concurrent use.
type Selection struct {
	tokens []Token
	index  map[string]int
}

func New() *Selection {
	return &Selection{index: make(map[string]int)}
}

// FromTokens builds a selection, keeping the first token seen for each seat id
func FromTokens(tokens []Token) *Selection {
	s := New()
	for _, t := range tokens {
		s.Select(t)
	}
	return s
}

// Select adds the token. Returns false if the seat is already selected.
func (s *Selection) Select(t Token) bool {
	if _, ok := s.index[t.SeatID]; ok {
		return false
	}
	s.index[t.SeatID] = len(s.tokens)
	s.tokens = append(s.tokens, t)
	return true
}

// Deselect removes the seat. Returns false if it was not selected.
func (s *Selection) Deselect(seatID string) bool {
	i, ok := s.index[seatID]
	if !ok {
		return false
	}
	s.tokens = append(s.tokens[:i], s.tokens[i+1:]...)
	delete(s.index, seatID)
	for j := i; j < len(s.tokens); j++ {
		s.index[s.tokens[j].SeatID] = j
	}
	return true
}

// Toggle selects an unselected seat or deselects a selected one, as a seat tap does
func (s *Selection) Toggle(t Token) {
	if !s.Deselect(t.SeatID) {
		s.Select(t)
	}
}

func (s *Selection) Contains(seatID string) bool {
	_, ok := s.index[seatID]
	return ok
}

// Total is the sum of the selected token prices
func (s *Selection) Total() int64 {
	var total int64
	for _, t := range s.tokens {
		total += t.Price
	}
	return total
}

// SeatIDs returns the selected seat ids in selection order with prices stripped
func (s *Selection) SeatIDs() []string {
	ids := make([]string, len(s.tokens))
	for i, t := range s.tokens {
		ids[i] = t.SeatID
	}
	return ids
}

func (s *Selection) Tokens() []Token {
	out := make([]Token, len(s.tokens))
	copy(out, s.tokens)
	return out
}

func (s *Selection) Len() int {
	return len(s.tokens)
}

func (s *Selection) Clear() {
	s.tokens = nil
	s.index = make(map[string]int)
}
