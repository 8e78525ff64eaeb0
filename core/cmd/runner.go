// Package cmd is the process entry point shared by bots: it loads the
// configuration, bootstraps the app and runs it until a shutdown signal.
package cmd

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/leadgenbot/core/config"
	"github.com/m3rciful/leadgenbot/core/logger"
	coretelegram "github.com/m3rciful/leadgenbot/core/telegram"
)

// DefaultConfigEnvVar names the variable consulted when no explicit path is given.
const DefaultConfigEnvVar = "CONFIG_PATH"

// ConfigCarrier is any app configuration that embeds the core one.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is a bootstrapped app ready to hand its run options over.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options wires Run. LoadConfig and Bootstrap are required.
type Options struct {
	// ConfigPath wins over ConfigEnvVar, which wins over DefaultConfigPath.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (TelegramApp, error)

	// Context defaults to one cancelled on SIGINT/SIGTERM.
	Context context.Context
	// ShutdownLogger defaults to logger.Shutdown.
	ShutdownLogger func() error
	// RunTelegram defaults to telegram.RunTelegram.
	RunTelegram func(ctx context.Context, opts coretelegram.RunOptions) error
}

// ResolveConfigPath returns the configuration file Run will load.
func (o Options) ResolveConfigPath() string {
	env := cmp.Or(o.ConfigEnvVar, DefaultConfigEnvVar)
	return cmp.Or(o.ConfigPath, os.Getenv(env), o.DefaultConfigPath)
}

// Run loads configuration, bootstraps the app and blocks until the bot stops.
// Buffered log output is flushed on every return path after the config loaded.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return fmt.Errorf("cmd: LoadConfig and Bootstrap are required")
	}
	started := time.Now()

	path := opts.ResolveConfigPath()
	if path != "" {
		log.Printf("loading config: %s", path)
	}
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return fmt.Errorf("cmd: loaded config is missing core configuration")
	}

	shutdown := opts.ShutdownLogger
	if shutdown == nil {
		shutdown = logger.Shutdown
	}
	defer func() {
		if err := shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	app, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}
	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}
	announceLifecycle(&runOpts, started)

	ctx := opts.Context
	if ctx == nil {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
	}
	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}

// announceLifecycle logs readiness after the app's OnStart and the shutdown
// before its OnStop.
func announceLifecycle(o *coretelegram.RunOptions, started time.Time) {
	onStart, onStop := o.OnStart, o.OnStop
	app := logger.Component("app")

	o.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		app.Info("app ready",
			slog.String("event", "ready"),
			slog.Duration("startup_duration", time.Since(started)),
		)
		return nil
	}
	o.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		app.Info("shutting down...", slog.String("event", "shutdown"))
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
}
