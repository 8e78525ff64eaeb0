package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/leadgenbot/core/logger"
)

// readyTimeout bounds how long RunMigrations waits for Postgres to accept connections.
const readyTimeout = 30 * time.Second

// RunMigrations applies every pending up migration from cfg.MigrationsDir,
// waiting for the database to come up first.
func RunMigrations(cfg Config) error {
	dir, err := resolveDir(cfg.MigrationsDir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("migrations dir: %w", err)
	}
	files := upFiles(dir)
	preview, omitted := logger.Preview(files, 6)
	logger.MIG.Debug("migrations resolved",
		slog.String("event", "resolve"),
		slog.String("path", dir),
		slog.Int("files_total", len(files)),
		slog.String("files_preview", preview),
		slog.Int("files_omitted", omitted),
	)

	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	defer cancel()
	m, err := openMigrator(ctx, "file://"+dir, cfg.URL())
	if err != nil {
		logger.MIG.Error("init failed", slog.String("event", "db.migrate"), slog.String("err", err.Error()))
		return fmt.Errorf("database not ready: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	from := currentVersion(m)
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.Uint64("from_ver", from),
			slog.String("err", err.Error()),
			slog.Duration("duration", time.Since(start)),
		)
		return fmt.Errorf("migration execution failed: %w", err)
	}
	to := currentVersion(m)

	applied := appliedBetween(files, from, to)
	if len(applied) > 0 {
		names, omitted := logger.Preview(applied, 6)
		logger.MIG.Debug("applied files",
			slog.String("event", "apply"),
			slog.String("files_preview", names),
			slog.Int("files_omitted", omitted),
		)
	}
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.Uint64("from_ver", from),
		slog.Uint64("to_ver", to),
		slog.Int("files", len(applied)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// openMigrator retries migrate.New until Postgres answers or ctx expires.
func openMigrator(ctx context.Context, source, dsn string) (*migrate.Migrate, error) {
	backoff := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		m, err := migrate.New(source, dsn)
		if err == nil {
			return m, nil
		}
		logger.MIG.Debug("db not ready",
			slog.String("event", "db.wait"),
			slog.Int("attempts", attempt),
			slog.String("err", err.Error()),
		)
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, 4*time.Second)
	}
}

func currentVersion(m *migrate.Migrate) uint64 {
	v, _, err := m.Version()
	if err != nil {
		return 0
	}
	return uint64(v)
}

func resolveDir(dir string) (string, error) {
	if dir == "" {
		dir = "migrations"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	return abs, nil
}

// upFiles lists the *.up.sql files in dir, sorted by name.
func upFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

// migrationVersion reads the numeric prefix of a migration file name.
func migrationVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

// appliedBetween returns the files with a version in (from, to].
func appliedBetween(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := migrationVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
