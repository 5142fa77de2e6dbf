package selection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidToken = errors.New("invalid seat token")

// Token is the client-side "<seat id>-<price>" handle for a seat
type Token struct {
	SeatID string
	Price  int64
}

// NewToken builds a token from a catalog seat
func NewToken(seatID string, price int64) Token {
	return Token{SeatID: seatID, Price: price}
}

// ParseToken splits on the last dash so seat ids may themselves contain dashes
func ParseToken(raw string) (Token, error) {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, "-")
	if idx <= 0 || idx == len(raw)-1 {
		return Token{}, fmt.Errorf("%w: %q", ErrInvalidToken, raw)
	}

	price, err := strconv.ParseInt(raw[idx+1:], 10, 64)
	if err != nil || price < 0 {
		return Token{}, fmt.Errorf("%w: %q has no valid price", ErrInvalidToken, raw)
	}

	return Token{SeatID: raw[:idx], Price: price}, nil
}

// ParseTokens parses a batch, failing on the first malformed token
func ParseTokens(raw []string) ([]Token, error) {
	tokens := make([]Token, 0, len(raw))
	for _, r := range raw {
		tok, err := ParseToken(r)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func (t Token) String() string {
	return t.SeatID + "-" + strconv.FormatInt(t.Price, 10)
}
