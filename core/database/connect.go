package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/superbot/core/logger"
)

const (
	driverName      = "postgres"
	connectTimeout  = 5 * time.Second
	defaultPoolSize = 4
	readyPollEvery  = 2 * time.Second
)

// Connect opens a pool, verifies it with a ping and sizes it from
// cfg.MaxConnections (4 when unset).
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	target := []slog.Attr{
		slog.String("driver", driverName),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}
	fail := func(event string, err error) {
		logger.LogEvent(ctx, logger.DB, slog.LevelError, event,
			append(target, slog.String("status", "fail"), slog.String("err", err.Error()))...)
	}

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, driverName, cfg.KeywordDSN())
	if err != nil {
		fail("db.connect", err)
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		fail("db.ping", err)
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	pool := cfg.MaxConnections
	if pool <= 0 {
		pool = defaultPoolSize
	}
	db.SetMaxOpenConns(pool)
	db.SetMaxIdleConns(pool)

	logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "db.connect",
		append(target,
			slog.String("status", "ok"),
			slog.Int("pool_open", pool),
			slog.Duration("duration", logger.Took(start)),
		)...)
	return db, nil
}

// WaitForPostgres pings dsn every two seconds until it answers or timeout
// has passed.
func WaitForPostgres(dsn string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := ping(dsn)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout reached waiting for database: %w", err)
		}
		time.Sleep(readyPollEvery)
	}
}

func ping(dsn string) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return db.PingContext(ctx)
}
