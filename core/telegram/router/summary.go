package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadgenbot/core/logger"
	tghelpers "github.com/m3rciful/leadgenbot/core/telegram/helpers"
	"github.com/m3rciful/leadgenbot/core/telegram/middleware"
)

// summary describes one routed handler invocation for the handler.handled line.
type summary struct {
	name   string
	start  time.Time
	skip   bool // nothing handled the update
	extras []slog.Attr
}

func newSummary(name string, extras ...slog.Attr) *summary {
	return &summary{name: name, start: time.Now(), extras: extras}
}

// run invokes fn and logs its outcome.
func (s *summary) run(c tele.Context, fn tele.HandlerFunc) error {
	tghelpers.WithHandler(c, s.name)
	var err error
	if fn != nil {
		err = fn(c)
	}
	s.log(c, err)
	return err
}

func (s *summary) log(c tele.Context, err error) {
	ctx := tghelpers.WithHandler(c, s.name)
	replies := middleware.RepliesFrom(c)

	status, outcome := "ok", "ok"
	switch {
	case err != nil:
		status, outcome = "fail", "fail"
	case s.skip:
		status, outcome = "skip", "noop"
	}

	attrs := append([]slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", replies.Messages),
		slog.Bool("kb", replies.Keyboard),
		slog.Duration("duration", time.Since(s.start)),
	}, s.extras...)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	logger.LogEvent(ctx, nil, level, "handler.handled", attrs...)
}

// guard wraps a route handler with panic recovery and update tracing.
func guard(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.Trace(h))
}

func normalizeHandlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errorCode names err for grouping: its Code() when it has one, else its type.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var coder interface{ Code() string }
	if errors.As(err, &coder) {
		if code := strings.TrimSpace(coder.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}
