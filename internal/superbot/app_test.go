package superbot

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/superbot/core/config"
	coredatabase "github.com/m3rciful/superbot/core/database"
	coretelegram "github.com/m3rciful/superbot/core/telegram"
	"github.com/m3rciful/superbot/internal/ledger"
)

func noopLogger(*coreconfig.Config) error { return nil }

func fixedNow() time.Time { return time.Date(2025, time.May, 10, 9, 0, 0, 0, time.UTC) }

func fileConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	cfg.Telegram.Token = "t"
	cfg.Ledger.File = filepath.Join(t.TempDir(), "keuangan.json")
	require.NoError(t, Normalize(cfg))
	return cfg
}

type fakeGetter map[string]string

func (f fakeGetter) GetParameter(_ context.Context, name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", errors.New("parameter not found")
	}
	return v, nil
}

func TestBootstrapFileLedger(t *testing.T) {
	cfg := fileConfig(t)
	app, err := BootstrapWith(cfg, Hooks{LoggerInit: noopLogger, Now: fixedNow})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, app.Close()) })

	require.Equal(t, 2025, app.Ledger().CurrentYear())
	date, err := ledger.NewDate(3, 5, 2025)
	require.NoError(t, err)
	_, err = app.Ledger().Save(context.Background(), date, 150000)
	require.NoError(t, err)

	_, err = os.Stat(cfg.Ledger.File)
	require.NoError(t, err)
	rep, err := app.Ledger().Report(context.Background(), 5)
	require.NoError(t, err)
	require.EqualValues(t, 150000, rep.Total)
	require.Zero(t, app.Conversation().Active())
}

func TestBootstrapPostgresRunsMigrations(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Ledger.Backend = LedgerBackendPostgres
	cfg.Database = coredatabase.Config{Host: "localhost", Port: "5432", Name: "superbot"}

	var migrated []string
	app, err := BootstrapWith(cfg, Hooks{
		LoggerInit: noopLogger,
		Connect: func(c coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.Open("postgres", c.KeywordDSN())
		},
		Migrate: func(_ coredatabase.Config, files fs.FS) error {
			names, err := fs.Glob(files, "*.up.sql")
			migrated = names
			return err
		},
	})
	require.NoError(t, err)
	require.Contains(t, migrated, "0001_ledger_entries.up.sql")
	require.NoError(t, app.Close())
	require.NoError(t, app.Close())
}

func TestBootstrapPropagatesConnectError(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Ledger.Backend = LedgerBackendPostgres
	want := errors.New("refused")

	_, err := BootstrapWith(cfg, Hooks{
		LoggerInit: noopLogger,
		Connect:    func(coredatabase.Config) (*sqlx.DB, error) { return nil, want },
	})
	require.ErrorIs(t, err, want)
}

func TestBootstrapResolvesMissingKeysFromSSM(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Secrets = SecretsConfig{
		Provider:            SecretsProviderSSM,
		OpenRouterKeyParam:  "/superbot/openrouter",
		HuggingFaceKeyParam: "/superbot/hf",
	}
	cfg.HuggingFace.APIKey = "already-set"

	_, err := BootstrapWith(cfg, Hooks{
		LoggerInit: noopLogger,
		Secrets:    fakeGetter{"/superbot/openrouter": " or-secret \n"},
	})
	require.NoError(t, err)
	require.Equal(t, "or-secret", cfg.OpenRouter.APIKey)
	require.Equal(t, "already-set", cfg.HuggingFace.APIKey)
}

func TestBootstrapFailsOnMissingParameter(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Secrets = SecretsConfig{Provider: SecretsProviderSSM, OpenRouterKeyParam: "/missing"}

	_, err := BootstrapWith(cfg, Hooks{LoggerInit: noopLogger, Secrets: fakeGetter{}})
	require.Error(t, err)
}

func TestTelegramRunOptions(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Sender = coreconfig.SenderConfig{QueueSize: 64, Workers: 2, MaxRetries: 1}
	app, err := BootstrapWith(cfg, Hooks{LoggerInit: noopLogger})
	require.NoError(t, err)

	opts, err := app.TelegramRunOptions()
	require.NoError(t, err)
	require.Same(t, &cfg.Config, opts.Config)
	require.Len(t, opts.Routes, 2)
	require.NotEmpty(t, opts.Middlewares)
	require.Equal(t, 64, opts.DispatcherOptions.QueueSize)
	require.Equal(t, 2, opts.DispatcherOptions.Workers)
	require.Equal(t, 1, opts.DispatcherOptions.MaxRetries)
	require.NotNil(t, opts.OnStop)
	require.NoError(t, opts.OnStop(context.Background(), coretelegram.Runtime{}))
}

func TestTelegramRunOptionsRequiresBootstrap(t *testing.T) {
	_, err := (&App{}).TelegramRunOptions()
	require.Error(t, err)
}

func TestOpenLedgerFile(t *testing.T) {
	cfg := fileConfig(t)
	engine, closeFn, err := OpenLedger(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, engine)
	require.NoError(t, closeFn())
}

func TestOpenLedgerPostgresConnectError(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Ledger.Backend = LedgerBackendPostgres
	want := errors.New("refused")

	_, _, err := OpenLedger(cfg, func(coredatabase.Config) (*sqlx.DB, error) { return nil, want })
	require.ErrorIs(t, err, want)
}
