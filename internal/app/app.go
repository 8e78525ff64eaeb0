// Package app wires configuration, infrastructure and the order flow into a
// runnable Telegram bot.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadgenbot/core/bootstrap"
	"github.com/m3rciful/leadgenbot/core/cmd"
	"github.com/m3rciful/leadgenbot/core/logger"
	tg "github.com/m3rciful/leadgenbot/core/telegram"
	"github.com/m3rciful/leadgenbot/core/telegram/middleware"
	"github.com/m3rciful/leadgenbot/core/telegram/router"
	"github.com/m3rciful/leadgenbot/core/telegram/sender"
	"github.com/m3rciful/leadgenbot/core/telegram/ui"
	"github.com/m3rciful/leadgenbot/internal/bot"
	"github.com/m3rciful/leadgenbot/internal/catalog"
	"github.com/m3rciful/leadgenbot/internal/notify"
	"github.com/m3rciful/leadgenbot/internal/order"
	"github.com/m3rciful/leadgenbot/internal/session"
)

// Deps overrides infrastructure, mainly for tests. Zero values build the real thing.
type Deps struct {
	Bootstrap bootstrap.Options
	Bot       *tele.Bot
}

// App is a fully wired bot ready to run.
type App struct {
	cfg        *Config
	infra      *bootstrap.Result
	bot        *tele.Bot
	catalog    *catalog.Catalog
	store      *session.Store
	dispatcher *sender.Dispatcher
	notify     *notify.Service
	flow       *order.Flow
	handler    *bot.Handler
	registry   *tg.Registry
	textOpts   router.TextOptions
}

// Bootstrap adapts New to cmd.Options.
func Bootstrap(c cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := c.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", c)
	}
	return New(cfg, Deps{})
}

// New initialises logging and the journal database, loads the catalog and
// wires the flow, notifiers and Telegram handlers.
func New(cfg *Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}

	bopts := deps.Bootstrap
	bopts.Config = &cfg.Config
	bopts.Database = &cfg.Journal
	infra, err := bootstrap.Run(bopts)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, infra: infra, bot: deps.Bot}
	if err := a.wire(); err != nil {
		if a.dispatcher != nil {
			a.dispatcher.Close()
		}
		_ = infra.Close()
		return nil, err
	}

	logger.Info(context.Background(), "app", "app.wired",
		slog.Int("geos", a.catalog.Len()),
		slog.Bool("operator", cfg.Telegram.AdminID != 0),
		slog.Bool("order_log", cfg.OrderLog.URL != ""),
		slog.Bool("journal", infra.DB != nil),
		slog.Duration("session_ttl", cfg.Session.IdleTTL),
	)
	return a, nil
}

func (a *App) wire() error {
	cat, err := catalog.Load(a.cfg.Catalog.Path)
	if err != nil {
		return err
	}
	a.catalog = cat

	if a.bot == nil {
		if a.bot, err = tg.NewBot(&a.cfg.Config); err != nil {
			return err
		}
	}

	a.store = session.NewStore(session.Options{IdleTTL: a.cfg.Session.IdleTTL})
	a.dispatcher = sender.NewDispatcher(sender.Options{
		QueueSize:    a.cfg.Dispatch.QueueSize,
		Workers:      a.cfg.Dispatch.Workers,
		MaxRetries:   a.cfg.Dispatch.MaxRetries,
		RetryBackoff: a.cfg.Dispatch.RetryBackoff,
		MaxDuration:  a.cfg.Dispatch.MaxDuration,
		Component:    "notify",
	})
	a.notify = notify.NewService(a.notifyOptions())

	a.flow = order.New(order.Options{
		Catalog:  cat,
		Store:    a.store,
		Sink:     a.notify,
		RowWidth: a.cfg.Catalog.RowWidth,
	})
	a.handler = bot.New(bot.Options{Flow: a.flow})

	a.registry = tg.NewRegistry()
	if err := a.handler.Register(a.registry); err != nil {
		return err
	}
	a.textOpts = ui.Apply(a.registry, a.handler)
	return nil
}

// notifyOptions collects the configured delivery targets. Disabled targets are
// left out rather than passed as typed nils.
func (a *App) notifyOptions() notify.Options {
	opts := notify.Options{Queue: a.dispatcher}
	if op := notify.NewOperator(a.bot, a.cfg.Telegram.AdminID, a.catalog); op != nil {
		opts.Notifier = op
	}
	if wh := notify.NewWebhook(a.cfg.OrderLog.URL, a.orderLogClient()); wh != nil {
		opts.Loggers = append(opts.Loggers, wh)
		if a.cfg.OrderLog.LogUpdates {
			opts.Updates = wh
		}
	}
	if j := notify.NewJournal(a.infra.DB); j != nil {
		opts.Loggers = append(opts.Loggers, j)
	}
	return opts
}

// orderLogClient posts without transport retries: the dispatcher owns the
// retry policy and bounds each job by dispatch.max_duration.
func (a *App) orderLogClient() *http.Client {
	return tg.NewHTTPClient(tg.HTTPClientOptions{Timeout: a.cfg.OrderLog.Timeout, Retries: -1})
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	var extra []tg.Middleware
	if a.cfg.OrderLog.LogUpdates {
		extra = append(extra, bot.Telemetry(a.notify))
	}

	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.handler, a.registry, a.textOpts)...)

	return tg.RunOptions{
		Config:     &a.cfg.Config,
		Registry:   a.registry,
		Bot:        a.bot,
		Dispatcher: a.dispatcher,
		// Replies go out inline so a conversation sees them in order.
		DisableHelperDispatcher: true,
		Middlewares:             tg.DefaultMiddlewares(middleware.DefaultApology, extra...),
		Routes:                  routes,
		OnStart: func(ctx context.Context, _ tg.Runtime) error {
			go a.store.RunJanitor(ctx, a.cfg.Session.SweepInterval)
			return nil
		},
		OnStop: func(context.Context, tg.Runtime) error {
			return a.infra.Close()
		},
	}, nil
}
