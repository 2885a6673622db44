// Package conversation implements the per-conversation mode state machine and
// the ordered command dispatch that sits between the transport and the
// service adapters.
package conversation

import (
	"context"

	"github.com/m3rciful/superbot/internal/aiimage"
	"github.com/m3rciful/superbot/internal/ledger"
	"github.com/m3rciful/superbot/internal/speech"
)

// Conversation is one inbound message together with the ways to answer it.
type Conversation interface {
	// ID identifies the conversation the mode is tracked for.
	ID() int64
	// Text is the message body or photo caption.
	Text() string
	HasImage() bool
	// DisplayName is how replies address the sender.
	DisplayName() string

	// Reply sends Markdown-formatted text.
	Reply(ctx context.Context, text string) error
	// ReplyText sends text without formatting.
	ReplyText(ctx context.Context, text string) error
	ReplyImage(ctx context.Context, data []byte, contentType string) error
	ReplySticker(ctx context.Context, webp []byte) error
	ReplyVoice(ctx context.Context, data []byte, contentType string) error
	// DownloadImage fetches the largest size of the attached photo.
	DownloadImage(ctx context.Context) ([]byte, error)
}

// ChatProvider answers a prompt with generated text.
type ChatProvider interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// ImageProvider renders a prompt into an image.
type ImageProvider interface {
	Generate(ctx context.Context, prompt string) (aiimage.Image, error)
}

// WeatherProvider returns a formatted weather summary for a place name.
type WeatherProvider interface {
	Lookup(ctx context.Context, city string) (string, error)
}

// SpeechSynthesizer turns text into a voice clip.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, lang, text string) (speech.Audio, error)
}

// StickerMaker converts a photo into sticker WebP bytes.
type StickerMaker interface {
	Make(ctx context.Context, photo []byte) ([]byte, error)
}

// Ledger is the income book the ledger commands operate on.
type Ledger interface {
	CurrentYear() int
	Save(ctx context.Context, date ledger.Date, amount int64) (ledger.Entry, error)
	Report(ctx context.Context, month int) (ledger.Report, error)
	DeleteMonth(ctx context.Context, month int) (ledger.Period, int, error)
	DeleteDate(ctx context.Context, date ledger.Date) (ledger.DateDeletion, error)
}

var _ Ledger = (*ledger.Engine)(nil)
