package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrDateFormat reports text that is not a day-month[-year] triple.
	ErrDateFormat = errors.New("ledger: malformed date")
	// ErrInvalidDate reports a triple that is not a real calendar day.
	ErrInvalidDate = errors.New("ledger: invalid calendar date")
	// ErrInvalidMonth reports a month outside 1..12.
	ErrInvalidMonth = errors.New("ledger: month out of range")
)

// Date is a calendar day without time of day.
type Date struct {
	Day   int
	Month int
	Year  int
}

// NewDate validates the triple against the calendar (31-2-2025 is rejected).
func NewDate(day, month, year int) (Date, error) {
	if month < 1 || month > 12 || day < 1 || year < 1 {
		return Date{}, ErrInvalidDate
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return Date{}, ErrInvalidDate
	}
	return Date{Day: day, Month: month, Year: year}, nil
}

// String renders the date as D-M-Y without zero padding.
func (d Date) String() string {
	return fmt.Sprintf("%d-%d-%d", d.Day, d.Month, d.Year)
}

// Period returns the bucket the date belongs to.
func (d Date) Period() Period {
	return Period{Year: d.Year, Month: d.Month}
}

// Compare orders dates chronologically: -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(d.Month, o.Month)
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ParseDate parses a strict D-M-Y string (leading zeros allowed) and validates it.
// Malformed text yields ErrDateFormat, a well-formed but impossible day ErrInvalidDate.
func ParseDate(s string) (Date, error) {
	parts, err := splitDate(s)
	if err != nil {
		return Date{}, err
	}
	if len(parts) != 3 {
		return Date{}, ErrDateFormat
	}
	return NewDate(parts[0], parts[1], parts[2])
}

// ParseDateDefaultYear parses D-M or D-M-Y, filling a missing year with defaultYear.
// Only the shape is checked: the day is kept as typed so that lookups for
// impossible dates report "not found" instead of a format error.
func ParseDateDefaultYear(s string, defaultYear int) (Date, error) {
	parts, err := splitDate(s)
	if err != nil {
		return Date{}, err
	}
	switch len(parts) {
	case 2:
		parts = append(parts, defaultYear)
	case 3:
	default:
		return Date{}, ErrDateFormat
	}
	if parts[1] > 12 {
		return Date{}, ErrDateFormat
	}
	return Date{Day: parts[0], Month: parts[1], Year: parts[2]}, nil
}

func splitDate(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrDateFormat
	}
	fields := strings.Split(s, "-")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n <= 0 {
			return nil, ErrDateFormat
		}
		out = append(out, n)
	}
	return out, nil
}

// Period identifies one year-month bucket of entries.
type Period struct {
	Year  int
	Month int
}

// NewPeriod validates the month number.
func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, ErrInvalidMonth
	}
	return Period{Year: year, Month: month}, nil
}

// Key renders the persisted period key, e.g. "2025-05".
func (p Period) Key() string {
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}

// String is an alias for Key.
func (p Period) String() string { return p.Key() }
