package logger

import (
	"strings"
	"time"
	"unicode"
)

// Took is the time since start rounded to the millisecond.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to the millisecond. Negative durations clamp to zero.
func RoundMS(d time.Duration) time.Duration {
	return max(d, 0).Round(time.Millisecond)
}

// SummarizeStrings renders the first limit values comma separated. cut is
// true when values had more than limit entries.
func SummarizeStrings(values []string, limit int) (preview string, cut bool) {
	limit = max(limit, 0)
	cut = len(values) > limit
	if cut {
		values = values[:limit]
	}
	return strings.Join(values, ", "), cut
}

// Sanitize drops control and format runes, keeping newlines and tabs, so user
// text cannot break log lines.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit is Sanitize truncated to max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(Sanitize(s))
	if len(r) > max {
		r = r[:max]
	}
	return string(r)
}
