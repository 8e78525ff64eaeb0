// Package telegram runs a telebot bot with the shared middleware chain,
// command registry, outbound dispatcher and health/webhook HTTP listener.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/leadgenbot/core/config"
	"github.com/m3rciful/leadgenbot/core/logger"
	tghelpers "github.com/m3rciful/leadgenbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/leadgenbot/core/telegram/sender"
)

// Middleware is a named bot-wide middleware installed with bot.Use, in order.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route binds a handler to a telebot endpoint (a command string or tele.On* constant).
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	// Bot is built from Config when nil.
	Bot *tele.Bot

	// Dispatcher is built from DispatcherOptions when nil. RunTelegram closes it on exit.
	Dispatcher        *tgsender.Dispatcher
	DispatcherOptions tgsender.Options

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup bool
	// DisableHelperDispatcher keeps helper sends synchronous.
	DisableHelperDispatcher bool
	DisableHTTPServer       bool

	// OnStart runs after handlers are installed and before updates flow.
	OnStart func(ctx context.Context, rt Runtime) error
	// OnStop runs after polling stopped and the dispatcher drained.
	OnStop func(ctx context.Context, rt Runtime) error
}

// Runtime is what lifecycle hooks get to work with.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// NewBot builds a bot using the configured poller and the retrying HTTP client.
func NewBot(cfg *coreconfig.Config) (*tele.Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram: nil config provided")
	}
	bot, err := tele.NewBot(tele.Settings{
		Token: cfg.Telegram.Token,
		Poller: BuildPoller(PollerOptions{
			RunMode:                cfg.Telegram.RunMode,
			LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
			Webhook:                WebhookOptions{URL: cfg.Webhook.URL, Secret: cfg.Webhook.Secret},
		}),
		Client:  BuildHTTPClient(),
		OnError: logBotError,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	return bot, nil
}

// RunTelegram installs opts on a bot and serves updates until ctx is done.
// Shutdown stops polling, then the HTTP listener, then drains the dispatcher
// and finally calls OnStop.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}

	l, err := newLaunch(opts)
	if err != nil {
		return err
	}
	l.install()

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, l.rt); err != nil {
			l.release()
			return err
		}
	}

	runErr := l.serve(ctx)
	l.release()

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx), l.rt); err != nil {
			return err
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// launch holds one RunTelegram invocation's moving parts.
type launch struct {
	opts   RunOptions
	rt     Runtime
	server ServerOptions
}

func newLaunch(opts RunOptions) (*launch, error) {
	l := &launch{opts: opts, server: ServerOptions{Addr: opts.Config.Server.Addr()}}
	l.rt.Registry = opts.Registry
	if l.rt.Registry == nil {
		l.rt.Registry = NewRegistry()
	}

	start := time.Now()
	l.rt.Bot = opts.Bot
	if l.rt.Bot == nil {
		bot, err := NewBot(opts.Config)
		if err != nil {
			return nil, err
		}
		l.rt.Bot = bot
	}
	l.configurePoller(time.Since(start))

	l.rt.Dispatcher = opts.Dispatcher
	if l.rt.Dispatcher == nil {
		l.rt.Dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	if !opts.DisableHelperDispatcher {
		tghelpers.SetDispatcher(l.rt.Dispatcher)
	}
	return l, nil
}

// configurePoller mounts the webhook on the HTTP listener, or clears any
// stale webhook before long polling.
func (l *launch) configurePoller(built time.Duration) {
	cfg := l.opts.Config
	bot := l.rt.Bot

	if hook, ok := bot.Poller.(*tele.Webhook); ok {
		wh := WebhookOptions{URL: cfg.Webhook.URL, Secret: cfg.Webhook.Secret}
		l.server.WebhookPath = wh.Path()
		l.server.Webhook = hook
		logger.TG.Info("webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", l.server.Addr),
			slog.String("public_url", logger.SanitizeLimit(cfg.Webhook.URL, 128)),
			slog.Duration("duration", built),
		)
		return
	}

	attrs := []any{
		slog.String("event", "mode"),
		slog.String("mode", coreconfig.RunModeLongpoll),
		slog.Duration("duration", built),
	}
	if lp, ok := bot.Poller.(*tele.LongPoller); ok {
		attrs = append(attrs, slog.Int("timeout_seconds", int(lp.Timeout/time.Second)))
	}
	logger.TG.Info("polling mode", attrs...)
	if l.opts.DisableWebhookCleanup {
		return
	}
	if err := bot.RemoveWebhook(false); err != nil {
		logger.TG.Warn("failed to delete webhook", slog.String("event", "delete_webhook"), slog.String("err", err.Error()))
		return
	}
	logger.TG.Debug("webhook deleted", slog.String("event", "delete_webhook"))
}

// install registers middlewares, routes and the command menu.
func (l *launch) install() {
	bot := l.rt.Bot
	for _, mw := range l.opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, r := range l.opts.Routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
		}
	}
	InitBotCommands(bot, l.rt.Registry)
}

// serve runs the bot, and the HTTP listener unless disabled, until ctx is
// done or the poller exits on its own.
func (l *launch) serve(ctx context.Context) error {
	var server *Server
	if !l.opts.DisableHTTPServer {
		server = NewServer(l.server)
		server.Start()
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		l.rt.Bot.Start()
	}()

	var err error
	select {
	case <-ctx.Done():
		l.rt.Bot.Stop()
		<-stopped
		err = ctx.Err()
	case <-stopped:
	}

	if server != nil {
		if serr := server.Shutdown(context.Background()); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			logger.HTTP.Warn("http shutdown failed", slog.String("event", "shutdown"), slog.String("err", serr.Error()))
		}
	}
	return err
}

// release drains queued outbound jobs before hooks release what they depend on.
func (l *launch) release() {
	l.rt.Dispatcher.Close()
	if !l.opts.DisableHelperDispatcher {
		tghelpers.SetDispatcher(nil)
	}
}

func logBotError(err error, c tele.Context) {
	if err == nil {
		return
	}
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.Error(ctx, "tg", "bot.error",
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}
