package logger

import "strings"

// Level names as rendered in the level field.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

func normalizeLevel(level string) string {
	switch strings.ToLower(level) {
	case "":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	}
	return strings.ToUpper(level)
}

func inSet(set []string, v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, s := range set {
		if s == v {
			return s, true
		}
	}
	return v, false
}

var (
	// statuses covers adapter calls, ledger commands and conversation routing.
	statuses = []string{"ok", "fail", "skip", "retry", "cancelled", "expired", "noop"}
	caches   = []string{"hit", "miss", "refresh"}
	outcomes = []string{"ok", "fail", "cancelled", "usage"}
)

func normalizeStatus(s string) (string, bool)  { return inSet(statuses, s) }
func normalizeCache(s string) (string, bool)   { return inSet(caches, s) }
func normalizeOutcome(s string) (string, bool) { return inSet(outcomes, s) }

// defaultKeyOrder puts identity and routing keys first; anything else
// follows alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "update_id", "user_id", "chat_id", "chat_type",
	"conversation", "mode", "prev_mode", "route", "handler",
	"operation", "op", "outcome", "duration_ms",
	"adapter", "http_code", "model", "lang", "city", "cache", "bytes",
	"period", "date", "count", "entries", "backend", "path",
	"username", "listen", "public_url", "db", "host", "port",
	"err", "err_code", "cause", "retryable", "attempts", "backoff_ms",
	"collapsed", "repeats",
}
