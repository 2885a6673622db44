package format

import (
	"regexp"
	"strings"
)

var (
	mdV1Specials = regexp.MustCompile("([_*`\\[])")
	mdV1Markers  = strings.NewReplacer("*", "", "_", "", "`", "")
)

// EscapeMarkdown escapes characters that carry meaning in Telegram Markdown (v1).
// Use it for user-supplied fragments such as display names or city names.
func EscapeMarkdown(text string) string {
	return mdV1Specials.ReplaceAllString(text, `\$1`)
}

// StripMarkdown removes Markdown (v1) emphasis markers, leaving readable plain text.
// Escaped markers are kept as literal characters.
func StripMarkdown(text string) string {
	if !strings.ContainsAny(text, "*_`") {
		return text
	}
	const (
		star  = "\x00s"
		under = "\x00u"
		tick  = "\x00t"
	)
	protected := strings.NewReplacer(`\*`, star, `\_`, under, "\\`", tick, `\[`, "[").Replace(text)
	plain := mdV1Markers.Replace(protected)
	return strings.NewReplacer(star, "*", under, "_", tick, "`").Replace(plain)
}
