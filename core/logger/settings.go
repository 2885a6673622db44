package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	coreconfig "github.com/m3rciful/superbot/core/config"
)

// settings is the resolved form of coreconfig.LoggingConfig.
type settings struct {
	format      logFormat
	keyOrder    []string
	level       slog.Level
	sampleKeep  int
	sampleEvery int
	trace       bool
	profile     string
	filePath    string
}

func settingsFrom(cfg *coreconfig.Config) settings {
	s := settings{
		format:      formatJSON,
		keyOrder:    append([]string(nil), defaultKeyOrder...),
		level:       slog.LevelInfo,
		sampleKeep:  1,
		sampleEvery: 50,
		trace:       envFlag("TRACE") || envFlag("LOG_TRACE"),
		profile:     "prod",
	}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		}
	}

	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		s.level = slog.LevelDebug
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	}

	if order := splitKeys(lc.KeysOrder); len(order) > 0 {
		s.keyOrder = order
	}

	if ratio := strings.TrimSpace(lc.DebugSample); ratio != "" {
		keep, every, ok := parseRatio(ratio)
		switch {
		case ok && keep == 0:
			s.sampleKeep, s.sampleEvery = 0, 0
		case ok:
			s.sampleKeep, s.sampleEvery = keep, every
		}
	}

	if dir, name := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile); dir != "" && name != "" {
		s.filePath = filepath.Join(dir, name)
	}
	return s
}

// splitKeys parses a comma separated key order. "default" and "" keep the
// built-in order.
func splitKeys(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return nil
	}
	var out []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// parseRatio accepts "keep/every" or a bare "every" (meaning 1/every).
// A zero part disables sampling and yields (0, 0, true). Negative ratios
// are rejected, except a bare negative which also disables sampling.
func parseRatio(ratio string) (keep, every int, ok bool) {
	if a, b, found := strings.Cut(ratio, "/"); found {
		k, err1 := strconv.Atoi(strings.TrimSpace(a))
		e, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		if k <= 0 || e <= 0 {
			return 0, 0, k == 0 || e == 0
		}
		return k, e, true
	}
	e, err := strconv.Atoi(ratio)
	if err != nil {
		return 0, 0, false
	}
	if e <= 0 {
		return 0, 0, true
	}
	return 1, e, true
}

// openOutputs returns stdout plus the configured log file. A file that cannot
// be opened is reported on the standard logger and skipped.
func openOutputs(s settings) ([]io.Writer, []io.Closer) {
	outs := []io.Writer{os.Stdout}
	if s.filePath == "" {
		return outs, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		log.Printf("logger: create log dir: %v", err)
		return outs, nil
	}
	f, err := os.OpenFile(s.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: open log file: %v", err)
		return outs, nil
	}
	return append(outs, f), []io.Closer{f}
}

func envFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
