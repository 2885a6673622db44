// Package bootstrap brings up the infrastructure a bot needs before it can
// take updates: logging first, then optionally Postgres and its schema.
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/superbot/core/config"
	coredatabase "github.com/m3rciful/superbot/core/database"
	"github.com/m3rciful/superbot/core/logger"
)

// Options selects the steps of Run. Nil hooks use the core implementations.
type Options struct {
	Config *coreconfig.Config

	// Database and Migrations are read only when UseDatabase is set.
	UseDatabase bool
	Database    coredatabase.Config
	Migrations  fs.FS

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config, fs.FS) error
}

// Result carries what Run opened. DB is nil without UseDatabase.
type Result struct {
	DB *sqlx.DB
}

func (o *Options) fillHooks() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
}

// Run executes the steps in order and stops at the first failure. A
// database opened by a failed run is closed.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.fillHooks()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}
	res := &Result{}
	if !opts.UseDatabase {
		return res, nil
	}

	db, err := opts.Connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	res.DB = db
	if opts.Migrations == nil {
		return res, nil
	}
	if err := opts.Migrate(opts.Database, opts.Migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return res, nil
}
