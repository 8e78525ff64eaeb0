// Package notify delivers submitted orders to the operator and to external logs.
// Every delivery runs as a background job; failures are logged, never returned
// to the conversation.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/leadgenbot/core/logger"
	"github.com/m3rciful/leadgenbot/core/telegram/sender"
	"github.com/m3rciful/leadgenbot/internal/lead"
)

// Notifier tells a human about an order.
type Notifier interface {
	Notify(ctx context.Context, r lead.Record) error
}

// OrderLogger appends an order to an external log.
type OrderLogger interface {
	LogOrder(ctx context.Context, r lead.Record) error
}

// Enqueuer schedules background work; *sender.Dispatcher satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, action, endpoint string, run func(context.Context) error) error
}

type target struct {
	action string
	run    func(context.Context, lead.Record) error
}

// UpdateLogger records per-update telemetry.
type UpdateLogger interface {
	LogUpdate(ctx context.Context, u Update) error
}

// Options wires a Service. Nil collaborators are skipped.
type Options struct {
	Queue    Enqueuer
	Notifier Notifier
	Loggers  []OrderLogger
	Updates  UpdateLogger
}

// Service fans an order out to notifiers and loggers through the dispatcher.
// Each target is its own job so a failing logger does not replay the operator message.
type Service struct {
	queue   Enqueuer
	targets []target
	updates UpdateLogger
}

// NewService builds a Service.
func NewService(opts Options) *Service {
	s := &Service{queue: opts.Queue, updates: opts.Updates}
	if opts.Notifier != nil {
		s.targets = append(s.targets, target{action: "order.notify", run: opts.Notifier.Notify})
	}
	for _, l := range opts.Loggers {
		if l == nil {
			continue
		}
		s.targets = append(s.targets, target{action: "order.log", run: l.LogOrder})
	}
	return s
}

// Track schedules telemetry for one inbound update. It is a no-op without an update logger.
func (s *Service) Track(ctx context.Context, u Update) {
	if s == nil || s.updates == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.schedule(ctx, "update.log", func(ctx context.Context) error { return s.updates.LogUpdate(ctx, u) })
}

// Submit schedules delivery of r to every target and returns immediately.
func (s *Service) Submit(ctx context.Context, r lead.Record) {
	if s == nil {
		return
	}
	ctx = logger.WithOrderID(context.WithoutCancel(ctx), r.ID)
	for _, t := range s.targets {
		s.schedule(ctx, t.action, func(ctx context.Context) error { return t.run(ctx, r) })
	}
}

func (s *Service) schedule(ctx context.Context, action string, run func(context.Context) error) {
	if s.queue == nil {
		go s.runDetached(ctx, action, run)
		return
	}
	err := s.queue.Enqueue(ctx, action, "", run)
	if err == nil {
		return
	}
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "notify", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		go s.runDetached(ctx, action, run)
		return
	}
	logger.Error(ctx, "notify", "dispatch.failed",
		slog.String("action", action),
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
}

func (s *Service) runDetached(ctx context.Context, action string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		logger.Error(ctx, "notify", "delivery.failed",
			slog.String("action", action),
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}
