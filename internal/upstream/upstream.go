// Package upstream holds the error and logging conventions shared by the
// adapters that call third-party services.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/superbot/core/logger"
)

// Error is a failed outbound call. Reply is the fixed text shown to the user.
type Error struct {
	Service string
	Status  int
	Reply   string
	Err     error
}

// Fail builds an *Error. status is 0 when no HTTP response was received.
func Fail(service string, status int, reply string, err error) *Error {
	if err == nil {
		err = errors.New("upstream failure")
	}
	return &Error{Service: service, Status: status, Reply: reply, Err: err}
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage returns the reply text for the conversation.
func (e *Error) UserMessage() string { return e.Reply }

// Code identifies the failing service in handler summaries.
func (e *Error) Code() string { return "upstream " + e.Service }

type userFacing interface {
	UserMessage() string
}

// Reply returns the user-facing text carried by err, or fallback.
func Reply(err error, fallback string) string {
	var uf userFacing
	if errors.As(err, &uf) {
		if msg := uf.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// Observe logs one outbound call with its latency and outcome.
func Observe(ctx context.Context, service string, start time.Time, err error, attrs ...slog.Attr) {
	level := slog.LevelDebug
	base := []slog.Attr{
		slog.String("adapter", service),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	}
	if err != nil {
		level = slog.LevelWarn
		base = append(base, slog.String("status", "fail"), slog.String("err", logger.SanitizeLimit(err.Error(), 512)))
		var ue *Error
		if errors.As(err, &ue) && ue.Status > 0 {
			base = append(base, slog.Int("http_code", ue.Status))
		}
	} else {
		base = append(base, slog.String("status", "ok"))
	}
	logger.LogEvent(ctx, logger.Adapter, level, "adapter.call", append(base, attrs...)...)
}
