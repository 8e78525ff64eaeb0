package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{ name string }

var (
	loggerKey = ctxKey{"logger"}
	metaKey   = ctxKey{"meta"}
)

// Meta is the correlation data a context carries into every log line.
type Meta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
	OrderID  string
}

// MetaFrom returns the metadata stored in ctx; the zero Meta when absent.
func MetaFrom(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	m, _ := ctx.Value(metaKey).(Meta)
	return m
}

func withMeta(ctx context.Context, update func(*Meta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := MetaFrom(ctx)
	update(&m)
	return context.WithValue(ctx, metaKey, m)
}

// WithRID attaches the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *Meta) { m.RID = rid })
}

// WithUpdateMeta attaches the Telegram update, user and chat identifiers.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *Meta) {
		m.UpdateID = updateID
		m.UserID = userID
		m.ChatID = chatID
	})
}

// WithHandler names the route handling the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		return ctx
	}
	return withMeta(ctx, func(m *Meta) { m.Handler = handler })
}

// WithOrderID tags everything logged for one submitted order.
func WithOrderID(ctx context.Context, orderID string) context.Context {
	if orderID == "" {
		return ctx
	}
	return withMeta(ctx, func(m *Meta) { m.OrderID = orderID })
}

// WithLogger stores log in ctx for LogEvent calls that pass no explicit logger.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger stored in ctx or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// fields lists the non-zero metadata under their log keys.
func (m Meta) fields() []slog.Attr {
	var attrs []slog.Attr
	if m.RID != "" {
		attrs = append(attrs, slog.String("rid", m.RID))
	}
	if m.OrderID != "" {
		attrs = append(attrs, slog.String("order_id", m.OrderID))
	}
	if m.UpdateID != 0 {
		attrs = append(attrs, slog.Int("update_id", m.UpdateID))
	}
	if m.UserID != 0 {
		attrs = append(attrs, slog.Int64("user_id", m.UserID))
	}
	if m.ChatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", m.ChatID))
	}
	if m.Handler != "" {
		attrs = append(attrs, slog.String("handler", m.Handler))
	}
	return attrs
}
