package conversation

import (
	"strings"
	"unicode"
)

// Trigger keywords. Matching is case-insensitive on the first token.
const (
	cmdExit    = "#exit"
	cmdHelp    = "#help"
	cmdDelete  = "#del"
	cmdSave    = "#save"
	cmdReport  = "#hasil"
	cmdChat    = "#gpt"
	cmdImage   = "#img"
	cmdWeather = "#cuaca"
	cmdVoice   = "#vn"
)

var triggers = map[string]struct{}{
	cmdExit: {}, cmdHelp: {}, cmdDelete: {}, cmdSave: {}, cmdReport: {},
	cmdChat: {}, cmdImage: {}, cmdWeather: {}, cmdVoice: {},
}

// Input is a parsed inbound message.
type Input struct {
	// Text is the trimmed body.
	Text string
	// Keyword is the lower-cased first token.
	Keyword string
	// Args is the trimmed rest of the body with its original case.
	Args     string
	HasImage bool
}

// ParseInput splits text into keyword and arguments.
func ParseInput(text string, hasImage bool) Input {
	text = strings.TrimSpace(text)
	in := Input{Text: text, HasImage: hasImage}
	if text == "" {
		return in
	}
	head, rest := splitFirst(text)
	in.Keyword = strings.ToLower(head)
	in.Args = strings.TrimSpace(rest)
	return in
}

// IsTrigger reports whether the message starts with a command keyword.
func (in Input) IsTrigger() bool {
	_, ok := triggers[in.Keyword]
	return ok
}

func splitFirst(s string) (head, rest string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}
