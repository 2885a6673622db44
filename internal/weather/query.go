package weather

import (
	"regexp"
	"strings"
)

var (
	fillerWords   = regexp.MustCompile(`\b(kota|hari ini|sekarang|kedepan|untuk|apakah|hujan|besok)\b`)
	trailingPunct = regexp.MustCompile(`[?.,!]+$`)
)

// CleanQuery lowercases a free-text weather question and strips filler words
// and trailing punctuation, leaving the place name. It returns "" when
// nothing usable remains.
func CleanQuery(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = fillerWords.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = trailingPunct.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
