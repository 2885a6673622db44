package middleware

import (
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/m3rciful/superbot/core/logger"
	tghelpers "github.com/m3rciful/superbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const (
	seenUpdatesSize = 1024
	seenUpdatesTTL  = 10 * time.Second
	payloadLimit    = 256
)

// seenUpdates remembers recently logged update ids. The middleware can sit
// on both the global chain and a route, and each update is logged once.
var seenUpdates = expirable.NewLRU[int, struct{}](seenUpdatesSize, nil, seenUpdatesTTL)

func firstSighting(updateID int) bool {
	if seenUpdates.Contains(updateID) {
		return false
	}
	seenUpdates.Add(updateID, struct{}{})
	return true
}

// LoggerMiddleware assigns the update rid, stores the logging context and
// emits one sampled update.received record per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		rid, _ := c.Get("rid").(string)
		ctx := tghelpers.NewUpdateContext(c, rid)
		c.Set("update_start", time.Now())

		if logger.ShouldSampleDebug() && firstSighting(c.Update().ID) {
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	if msg := c.Message(); msg != nil {
		if text := c.Text(); text != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(text, payloadLimit)))
		}
		if msg.Photo != nil {
			attrs = append(attrs, slog.Bool("photo", true))
		}
	}
	return attrs
}
