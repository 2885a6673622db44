// Package transport binds Telegram updates to the conversation engine.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/m3rciful/superbot/core/telegram/format"
	tghelpers "github.com/m3rciful/superbot/core/telegram/helpers"
	"github.com/m3rciful/superbot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// MaxPhotoBytes caps inbound photo downloads.
const MaxPhotoBytes = 10 << 20

// fallbackName addresses senders without any profile name.
const fallbackName = "Anda"

// ErrNoPhoto is returned by DownloadImage for messages without a photo.
var ErrNoPhoto = errors.New("transport: message has no photo")

// Message adapts one telebot update to conversation.Conversation.
type Message struct {
	c tele.Context
}

var _ conversation.Conversation = (*Message)(nil)

// NewMessage wraps c.
func NewMessage(c tele.Context) *Message {
	return &Message{c: c}
}

// ID is the chat id, so group chats share one conversation state.
func (m *Message) ID() int64 {
	if chat := m.c.Chat(); chat != nil {
		return chat.ID
	}
	if user := m.c.Sender(); user != nil {
		return user.ID
	}
	return 0
}

// Text returns the message text, or the caption for media messages.
func (m *Message) Text() string {
	msg := m.c.Message()
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return strings.TrimSpace(msg.Text)
	}
	return strings.TrimSpace(msg.Caption)
}

func (m *Message) HasImage() bool {
	msg := m.c.Message()
	return msg != nil && msg.Photo != nil
}

// DisplayName returns the sender's name, escaped for Markdown replies.
func (m *Message) DisplayName() string {
	return format.EscapeMarkdown(displayName(m.c.Sender()))
}

func displayName(u *tele.User) string {
	if u == nil {
		return fallbackName
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return fallbackName
}

func (m *Message) Reply(_ context.Context, text string) error {
	return tghelpers.SendMD(m.c, text)
}

func (m *Message) ReplyText(_ context.Context, text string) error {
	return tghelpers.SendText(m.c, text)
}

func (m *Message) ReplyImage(_ context.Context, data []byte, _ string) error {
	return tghelpers.SendPhoto(m.c, &tele.Photo{File: tele.FromReader(bytes.NewReader(data))})
}

func (m *Message) ReplySticker(_ context.Context, webp []byte) error {
	return tghelpers.SendSticker(m.c, &tele.Sticker{File: tele.FromReader(bytes.NewReader(webp))})
}

func (m *Message) ReplyVoice(_ context.Context, data []byte, contentType string) error {
	return tghelpers.SendVoice(m.c, &tele.Voice{File: tele.FromReader(bytes.NewReader(data)), MIME: contentType})
}

// DownloadImage fetches the photo through the Bot API file endpoint.
func (m *Message) DownloadImage(ctx context.Context) ([]byte, error) {
	msg := m.c.Message()
	if msg == nil || msg.Photo == nil {
		return nil, ErrNoPhoto
	}
	if msg.Photo.FileSize > MaxPhotoBytes {
		return nil, fmt.Errorf("transport: photo is %d bytes", msg.Photo.FileSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := m.c.Bot().File(&msg.Photo.File)
	if err != nil {
		return nil, fmt.Errorf("transport: download photo: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("transport: read photo: %w", err)
	}
	if len(data) > MaxPhotoBytes {
		return nil, fmt.Errorf("transport: photo exceeds %d bytes", MaxPhotoBytes)
	}
	return data, nil
}
