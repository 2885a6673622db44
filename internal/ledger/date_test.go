package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDateRejectsImpossibleDays(t *testing.T) {
	_, err := NewDate(31, 2, 2025)
	require.ErrorIs(t, err, ErrInvalidDate)
	_, err = NewDate(31, 4, 2025)
	require.ErrorIs(t, err, ErrInvalidDate)
	_, err = NewDate(29, 2, 2023)
	require.ErrorIs(t, err, ErrInvalidDate)

	d, err := NewDate(29, 2, 2024)
	require.NoError(t, err)
	require.Equal(t, "29-2-2024", d.String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("03-08-2025")
	require.NoError(t, err)
	require.Equal(t, Date{Day: 3, Month: 8, Year: 2025}, d)
	require.Equal(t, "3-8-2025", d.String())
	require.Equal(t, "2025-08", d.Period().Key())

	for _, bad := range []string{"", "1-5", "a-b-c", "1/5/2025", "1-5-2025-1", "0-5-2025"} {
		_, err := ParseDate(bad)
		require.ErrorIs(t, err, ErrDateFormat, bad)
	}
	_, err = ParseDate("31-2-2025")
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseDateDefaultYear(t *testing.T) {
	d, err := ParseDateDefaultYear("3-8", 2026)
	require.NoError(t, err)
	require.Equal(t, Date{Day: 3, Month: 8, Year: 2026}, d)

	d, err = ParseDateDefaultYear("03-08-2025", 2026)
	require.NoError(t, err)
	require.Equal(t, Date{Day: 3, Month: 8, Year: 2025}, d)

	for _, bad := range []string{"", "3", "x-8", "3-13", "3-8-2025 extra"} {
		_, err := ParseDateDefaultYear(bad, 2026)
		require.ErrorIs(t, err, ErrDateFormat, bad)
	}
}

func TestDateCompare(t *testing.T) {
	a := Date{Day: 2, Month: 5, Year: 2025}
	b := Date{Day: 10, Month: 5, Year: 2025}
	c := Date{Day: 1, Month: 1, Year: 2026}
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, c.Compare(b))
	require.Equal(t, 0, a.Compare(a))
}

func TestPeriod(t *testing.T) {
	p, err := NewPeriod(2025, 5)
	require.NoError(t, err)
	require.Equal(t, "2025-05", p.Key())

	_, err = NewPeriod(2025, 13)
	require.ErrorIs(t, err, ErrInvalidMonth)
	_, err = NewPeriod(2025, 0)
	require.ErrorIs(t, err, ErrInvalidMonth)
}

func TestParseAmount(t *testing.T) {
	n, err := ParseAmount("3430000")
	require.NoError(t, err)
	require.EqualValues(t, 3430000, n)

	n, err = ParseAmount("Rp3.430.000")
	require.NoError(t, err)
	require.EqualValues(t, 3430000, n)

	for _, bad := range []string{"", "abc", "0", "-"} {
		_, err := ParseAmount(bad)
		require.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestFormatAmountAndMonthName(t *testing.T) {
	require.Equal(t, "3,430,000", FormatAmount(3430000))
	require.Equal(t, "999", FormatAmount(999))
	require.Equal(t, "Mei", MonthName(5))
	require.Equal(t, "Desember", MonthName(12))
	require.Equal(t, "", MonthName(13))
}
