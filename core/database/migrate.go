package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/superbot/core/logger"
)

const (
	readyTimeout = 30 * time.Second
	previewFiles = 6
)

// RunMigrations waits for Postgres, then applies every *.up.sql file at the
// root of files that is newer than the recorded schema version.
func RunMigrations(cfg Config, files fs.FS) error {
	if err := WaitForPostgres(cfg.KeywordDSN(), readyTimeout); err != nil {
		return migrateFailed("wait", fmt.Errorf("database not ready: %w", err))
	}

	ups := upFiles(files)
	logFiles(slog.LevelDebug, "resolve", ups)

	src, err := iofs.New(files, ".")
	if err != nil {
		return migrateFailed("source", fmt.Errorf("failed to open migration source: %w", err))
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		return migrateFailed("init", fmt.Errorf("failed to initialize migrations: %w", err))
	}
	defer m.Close()

	from := currentVersion(m)
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return migrateFailed("apply", fmt.Errorf("migration execution failed: %w", err),
			slog.Duration("duration", logger.Took(start)))
	}
	took := logger.Took(start)
	to := currentVersion(m)

	applied := between(ups, from, to)
	if len(applied) > 0 {
		logFiles(slog.LevelDebug, "apply", applied)
	}
	logger.LogEvent(nil, logger.MIG, slog.LevelInfo, "summary",
		slog.String("status", "ok"),
		slog.Uint64("from_ver", from),
		slog.Uint64("to_ver", to),
		slog.Int("files", len(applied)),
		slog.Duration("duration", took),
	)
	return nil
}

func currentVersion(m *migrate.Migrate) uint64 {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return uint64(v)
}

func migrateFailed(step string, err error, attrs ...slog.Attr) error {
	logger.LogEvent(nil, logger.MIG, slog.LevelError, "db.migrate",
		append([]slog.Attr{
			slog.String("status", "fail"),
			slog.String("op", step),
			slog.String("err", err.Error()),
		}, attrs...)...,
	)
	return err
}

func logFiles(lvl slog.Level, event string, names []string) {
	preview, cut := logger.SummarizeStrings(names, previewFiles)
	attrs := []slog.Attr{slog.Int("files_total", len(names))}
	if preview != "" {
		attrs = append(attrs, slog.String("files_preview", preview))
	}
	if cut {
		attrs = append(attrs, slog.Bool("files_truncated", true))
	}
	logger.LogEvent(nil, logger.MIG, lvl, event, attrs...)
}

// upFiles lists the *.up.sql names at the root of files, sorted.
func upFiles(files fs.FS) []string {
	names, err := fs.Glob(files, "*.up.sql")
	if err != nil {
		return nil
	}
	slices.Sort(names)
	return names
}

// fileVersion reads the numeric prefix of NNNN_name.up.sql.
func fileVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

// between returns the files with from < version <= to.
func between(names []string, from, to uint64) []string {
	var out []string
	for _, n := range names {
		if v := fileVersion(n); v > from && v <= to {
			out = append(out, n)
		}
	}
	return out
}
