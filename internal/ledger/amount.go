package ledger

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidAmount reports an amount that is not a positive integer.
var ErrInvalidAmount = errors.New("ledger: amount must be a positive integer")

// ParseAmount strips every non-digit character ("3.430.000", "Rp3,430,000")
// and parses what is left as a positive integer.
func ParseAmount(s string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return 0, ErrInvalidAmount
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidAmount
	}
	return n, nil
}
