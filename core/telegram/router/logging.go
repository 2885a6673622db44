package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/superbot/core/logger"
	tghelpers "github.com/m3rciful/superbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const errLimit = 256

// summarize runs fn and logs one handler.handled record with the route the
// handler chose and the replies it queued.
func summarize(c tele.Context, handler string, fn tele.HandlerFunc) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, handler)
	err := fn(c)

	route, _ := c.Get(RouteKey).(string)
	if route == "" {
		route = "none"
	}
	msgs, media := tghelpers.Counters(c)
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("route", route),
		slog.Int("messages", msgs),
		slog.Int("media", media),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs[0] = slog.String("status", "fail")
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), errLimit)),
			slog.String("err_code", deriveErrorCode(err)),
			slog.String("cause", route),
		)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", attrs...)
	return err
}

type coded interface{ Code() string }

// deriveErrorCode prefers an explicit Code() anywhere in the chain, then the
// outer error's type name, upper cased.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var c coded
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return strings.ToUpper(name)
	}
	return "UNKNOWN_ERROR"
}
