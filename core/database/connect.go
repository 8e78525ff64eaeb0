// Package database connects to and migrates the Postgres order journal.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/leadgenbot/core/logger"
)

const connectTimeout = 5 * time.Second

// Connect opens and pings the journal database and sizes its pool.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		logger.DB.Error("db connect failed", append(cfg.logAttrs("db.connect", start), slog.String("err", err.Error()))...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logger.DB.Info("db connected", append(cfg.logAttrs("db.connect", start), slog.Int("pool_open", cfg.MaxConnections))...)
	return db, nil
}

func (c Config) logAttrs(event string, start time.Time) []any {
	return []any{
		slog.String("event", event),
		slog.String("host", c.Host),
		slog.String("port", c.Port),
		slog.String("db", c.Name),
		slog.Duration("duration", time.Since(start)),
	}
}
