package helpers

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/m3rciful/superbot/core/logger"
	"github.com/m3rciful/superbot/core/telegram/format"
	"github.com/m3rciful/superbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func chatKey(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if user := c.Sender(); user != nil {
		return user.ID
	}
	return 0
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	countReply(c, endpoint != "sendMessage")
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, chatKey(c), action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string) error {
	return sendAsync(c, "send.text", "sendMessage", func() error {
		return c.Send(text)
	})
}

// SendMD sends a Markdown message. When Telegram rejects the entities the text
// is resent once without formatting markers.
func SendMD(c tele.Context, text string) error {
	return sendAsync(c, "send.md", "sendMessage", func() error {
		err := c.Send(text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
		if !isParseError(err) {
			return err
		}
		logger.Debug(BuildContext(c), "tg.sender", "send.md.fallback", slog.String("err", err.Error()))
		return c.Send(format.StripMarkdown(text))
	})
}

// SendPhoto uploads image bytes as a photo.
func SendPhoto(c tele.Context, photo *tele.Photo) error {
	return sendAsync(c, "send.photo", "sendPhoto", func() error {
		return c.Send(photo)
	})
}

// SendSticker uploads a sticker file.
func SendSticker(c tele.Context, sticker *tele.Sticker) error {
	return sendAsync(c, "send.sticker", "sendSticker", func() error {
		return c.Send(sticker)
	})
}

// SendVoice uploads an audio file as a voice note.
func SendVoice(c tele.Context, voice *tele.Voice) error {
	return sendAsync(c, "send.voice", "sendVoice", func() error {
		return c.Send(voice)
	})
}

// isParseError matches Telegram's "can't parse entities" rejection, which
// telebot surfaces as a plain formatted error rather than a predefined value.
func isParseError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}
