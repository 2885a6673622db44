// Package superbot assembles the bot: configuration, adapters, the ledger and
// the conversation engine, exposed to core/cmd as a TelegramApp.
package superbot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/superbot/core/bootstrap"
	coreconfig "github.com/m3rciful/superbot/core/config"
	coredatabase "github.com/m3rciful/superbot/core/database"
	"github.com/m3rciful/superbot/core/logger"
	coretelegram "github.com/m3rciful/superbot/core/telegram"
	"github.com/m3rciful/superbot/core/telegram/router"
	tgsender "github.com/m3rciful/superbot/core/telegram/sender"
	"github.com/m3rciful/superbot/internal/aichat"
	"github.com/m3rciful/superbot/internal/aiimage"
	"github.com/m3rciful/superbot/internal/conversation"
	"github.com/m3rciful/superbot/internal/ledger"
	"github.com/m3rciful/superbot/internal/secrets"
	"github.com/m3rciful/superbot/internal/speech"
	"github.com/m3rciful/superbot/internal/sticker"
	"github.com/m3rciful/superbot/internal/transport"
	"github.com/m3rciful/superbot/internal/weather"
	"github.com/m3rciful/superbot/migrations"
)

const secretsTimeout = 10 * time.Second

// Hooks replaces infrastructure steps of Bootstrap. Zero values use the
// production implementations.
type Hooks struct {
	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config, fs.FS) error
	// Secrets is used instead of an SSM client built from the environment.
	Secrets secrets.Getter
	Now     func() time.Time
}

// App holds the wired components for one process.
type App struct {
	cfg    *Config
	db     *sqlx.DB
	ledger *ledger.Engine
	engine *conversation.Engine
}

// Bootstrap initializes logging, the optional database and every component.
func Bootstrap(cfg *Config) (*App, error) {
	return BootstrapWith(cfg, Hooks{})
}

// BootstrapWith is Bootstrap with replaceable infrastructure hooks.
func BootstrapWith(cfg *Config, hooks Hooks) (*App, error) {
	if cfg == nil {
		return nil, errors.New("superbot: nil config")
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:      &cfg.Config,
		UseDatabase: cfg.Ledger.Backend == LedgerBackendPostgres,
		Database:    cfg.Database,
		Migrations:  migrations.FS,
		LoggerInit:  hooks.LoggerInit,
		Connect:     hooks.Connect,
		Migrate:     hooks.Migrate,
	})
	if err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, db: res.DB}
	if err := resolveSecrets(cfg, hooks.Secrets); err != nil {
		_ = app.Close()
		return nil, err
	}

	store, err := newLedgerStore(cfg, app.db)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	var ledgerOpts []ledger.Option
	if hooks.Now != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithClock(hooks.Now))
	}
	app.ledger = ledger.NewEngine(store, ledgerOpts...)
	app.engine = conversation.New(newDeps(cfg, app.ledger), conversation.Options{
		IdleTimeout: cfg.Conversation.IdleTimeout,
		Now:         hooks.Now,
	})

	logger.Info(context.Background(), "app", "bootstrap",
		slog.String("status", "ok"),
		slog.String("ledger", cfg.Ledger.Backend),
		slog.String("secrets", cfg.Secrets.Provider),
		slog.String("model", cfg.OpenRouter.Model),
	)
	return app, nil
}

func newLedgerStore(cfg *Config, db *sqlx.DB) (ledger.Store, error) {
	switch cfg.Ledger.Backend {
	case LedgerBackendPostgres:
		if db == nil {
			return nil, errors.New("superbot: postgres ledger requires a database connection")
		}
		return ledger.NewPostgresStore(db), nil
	case LedgerBackendFile, "":
		return ledger.NewFileStore(cfg.Ledger.File), nil
	default:
		return nil, fmt.Errorf("superbot: unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

// OpenLedger builds a ledger engine over the configured store without the
// Telegram runtime or migrations. The returned func releases the database.
// A nil connect uses coredatabase.Connect.
func OpenLedger(cfg *Config, connect func(coredatabase.Config) (*sqlx.DB, error)) (*ledger.Engine, func() error, error) {
	if cfg == nil {
		return nil, nil, errors.New("superbot: nil config")
	}
	closeFn := func() error { return nil }
	var db *sqlx.DB
	if cfg.Ledger.Backend == LedgerBackendPostgres {
		if connect == nil {
			connect = coredatabase.Connect
		}
		conn, err := connect(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("superbot: open ledger database: %w", err)
		}
		db = conn
		closeFn = db.Close
	}
	store, err := newLedgerStore(cfg, db)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return ledger.NewEngine(store), closeFn, nil
}

func newDeps(cfg *Config, l *ledger.Engine) conversation.Deps {
	return conversation.Deps{
		Chat: aichat.New(aichat.Config{
			APIKey:    cfg.OpenRouter.APIKey,
			BaseURL:   cfg.OpenRouter.BaseURL,
			Model:     cfg.OpenRouter.Model,
			MaxTokens: cfg.OpenRouter.MaxTokens,
			Referer:   cfg.OpenRouter.Referer,
			Timeout:   cfg.OpenRouter.Timeout,
		}),
		Image: aiimage.New(aiimage.Config{
			APIKey:  cfg.HuggingFace.APIKey,
			BaseURL: cfg.HuggingFace.BaseURL,
			Model:   cfg.HuggingFace.Model,
			Timeout: cfg.HuggingFace.Timeout,
		}),
		Weather: weather.New(weather.Config{
			GeocodeURL:  cfg.Weather.GeocodeURL,
			ForecastURL: cfg.Weather.ForecastURL,
			Timeout:     cfg.Weather.Timeout,
			CacheSize:   cfg.Weather.CacheSize,
			CacheTTL:    cfg.Weather.CacheTTL,
		}),
		Speech: speech.New(speech.Config{
			BaseURL: cfg.Speech.BaseURL,
			Timeout: cfg.Speech.Timeout,
		}),
		Sticker: sticker.Maker{},
		Ledger:  l,
	}
}

// resolveSecrets fills API keys left empty by the file and environment.
func resolveSecrets(cfg *Config, g secrets.Getter) error {
	if cfg.Secrets.Provider != SecretsProviderSSM {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), secretsTimeout)
	defer cancel()

	if g == nil {
		store, err := secrets.NewFromEnvironment(ctx, cfg.Secrets.Region)
		if err != nil {
			return err
		}
		g = store
	}
	return secrets.Resolve(ctx, g,
		secrets.Target{Param: cfg.Secrets.OpenRouterKeyParam, Dst: &cfg.OpenRouter.APIKey},
		secrets.Target{Param: cfg.Secrets.HuggingFaceKeyParam, Dst: &cfg.HuggingFace.APIKey},
	)
}

// Ledger returns the ledger engine.
func (a *App) Ledger() *ledger.Engine { return a.ledger }

// Conversation returns the conversation engine.
func (a *App) Conversation() *conversation.Engine { return a.engine }

// TelegramRunOptions binds the conversation engine to text and photo updates.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	if a == nil || a.engine == nil {
		return coretelegram.RunOptions{}, errors.New("superbot: app not bootstrapped")
	}
	sc := a.cfg.Sender
	return coretelegram.RunOptions{
		Config: &a.cfg.Config,
		DispatcherOptions: tgsender.Options{
			QueueSize:  sc.QueueSize,
			Workers:    sc.Workers,
			MaxRetries: sc.MaxRetries,
		},
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes: router.MessageRoutes(router.MessageOptions{
			Handler: transport.Handler(a.engine),
			Photos:  true,
		}),
		OnStop: func(context.Context, coretelegram.Runtime) error {
			logger.Info(context.Background(), "app", "conversation.active",
				slog.Int("count", a.engine.Active()),
			)
			return a.Close()
		},
	}, nil
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	db := a.db
	a.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("superbot: close database: %w", err)
	}
	return nil
}
