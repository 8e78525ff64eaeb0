// Package bootstrap brings up the infrastructure a bot needs before it can
// take updates: the logger and, when enabled, the journal database.
package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/leadgenbot/core/config"
	coredatabase "github.com/m3rciful/leadgenbot/core/database"
	"github.com/m3rciful/leadgenbot/core/logger"
)

// Options selects what Run initialises. The function fields replace the real
// implementations, mainly in tests.
type Options struct {
	Config *coreconfig.Config
	// Database is optional; nil or disabled skips connect and migrate.
	Database *coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

func (o Options) withDefaults() Options {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
	return o
}

// Result is the infrastructure Run brought up.
type Result struct {
	// DB is nil when the database is disabled.
	DB *sqlx.DB
}

// Close releases the database connection, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initialises logging, then connects and migrates the database when it is
// enabled. A failed migration closes the connection it opened.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	opts = opts.withDefaults()

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	db := opts.Database
	if db == nil || !db.Enabled {
		logger.DB.Debug("database disabled", slog.String("event", "db.skip"))
		return res, nil
	}

	start := time.Now()
	conn, err := opts.Connect(*db)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}
	if err := opts.Migrate(*db); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	res.DB = conn
	logger.DB.Info("database ready",
		slog.String("event", "db.ready"),
		slog.Duration("duration", time.Since(start)),
	)
	return res, nil
}
