// Package logger provides the process-wide structured logger: a slog handler
// rendering JSON or key=value lines in a fixed key order, an asynchronous
// fan-out writer, debug sampling and context helpers for per-update fields.
package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/superbot/core/buildinfo"
	coreconfig "github.com/m3rciful/superbot/core/config"
)

var (
	initOnce sync.Once

	closeMu sync.Mutex
	closed  bool
	sink    *asyncWriter
	files   []io.Closer

	level   slog.LevelVar
	sampler = newDebugSampler(1, 50)
	trace   bool

	// L is the root logger. It stays nil until InitLogger runs.
	L *slog.Logger

	// DB logs connection pool events.
	DB *slog.Logger
	// MIG logs schema migrations.
	MIG *slog.Logger
	// TG logs the Telegram runtime.
	TG *slog.Logger
	// TWire logs middleware and route registration.
	TWire *slog.Logger
	// Conv logs conversation mode decisions.
	Conv *slog.Logger
	// Ledger logs ledger commands and persistence.
	Ledger *slog.Logger
	// Adapter logs outbound calls to AI, weather and speech services.
	Adapter *slog.Logger
)

// components binds each exported component logger to its attribute value.
var components = []struct {
	dst  **slog.Logger
	name string
}{
	{&DB, "db"},
	{&MIG, "db.migrate"},
	{&TG, "tg"},
	{&TWire, "tg.wire"},
	{&Conv, "conversation"},
	{&Ledger, "ledger"},
	{&Adapter, "adapter"},
}

// InitLogger installs the structured handler as the slog default. Calls after
// the first are no-ops and return the first result.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		err = install(settingsFrom(cfg))
	})
	return err
}

func install(s settings) error {
	level.Set(s.level)
	sampler.Set(s.sampleKeep, s.sampleEvery)
	trace = s.trace

	outs, closers := openOutputs(s)
	files = closers
	sink = newAsyncWriter(outs, 64*1024)

	root := slog.New(newStructuredHandler(handlerConfig{
		level:    &level,
		writer:   sink,
		format:   s.format,
		keyOrder: s.keyOrder,
	}))
	L = root
	slog.SetDefault(root)
	for _, c := range components {
		*c.dst = root.With("component", c.name)
	}

	root.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("component", "app"),
		slog.String("event", "startup"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", s.profile),
	)
	return nil
}

// Shutdown drains queued lines and closes the log file. It is safe to call
// more than once.
func Shutdown() error {
	closeMu.Lock()
	defer closeMu.Unlock()
	if closed {
		return nil
	}
	closed = true

	var errs []error
	if sink != nil {
		errs = append(errs, sink.Flush(), sink.Close())
	}
	for _, f := range files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

// Component returns L scoped to name, or nil before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent writes one record carrying event=name. A nil logg falls back to
// the context logger, then to L.
func LogEvent(ctx context.Context, logg *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, lvl, "", attrs...)
}

// Event logs event under component at lvl.
func Event(ctx context.Context, component string, lvl slog.Level, event string, attrs ...slog.Attr) {
	logg := Component(component)
	if logg == nil {
		if logg = FromContext(ctx); logg != nil && strings.TrimSpace(component) != "" {
			logg = logg.With("component", strings.TrimSpace(component))
		}
	}
	LogEvent(ctx, logg, lvl, event, attrs...)
}

// Debug logs at debug level.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs at info level.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs at warn level.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs at error level.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug record should be
// emitted. TRACE=1 disables sampling.
func ShouldSampleDebug() bool {
	return trace || sampler.Allow()
}
