package conversation

// Mode is the sticky handler a conversation is bound to.
type Mode int

const (
	// None means no sticky mode; only explicit commands are handled.
	None Mode = iota
	// AiChat forwards plain messages to the chat model.
	AiChat
	// AiImage forwards plain messages to the image model.
	AiImage
)

// String returns the log name of the mode.
func (m Mode) String() string {
	switch m {
	case AiChat:
		return "ai_chat"
	case AiImage:
		return "ai_image"
	default:
		return "none"
	}
}

// Label is the upper-case name shown to users when leaving the mode.
func (m Mode) Label() string {
	switch m {
	case AiChat:
		return "GPT"
	case AiImage:
		return "IMG"
	default:
		return ""
	}
}

// Sticky reports whether the mode keeps an entry in the store.
func (m Mode) Sticky() bool {
	return m == AiChat || m == AiImage
}
