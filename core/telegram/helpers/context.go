package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadgenbot/core/logger"
)

const (
	contextKey = "logger_ctx"
	// StartKey holds the time the update entered the middleware chain.
	StartKey = "update_start"
)

// BuildContext returns the context.Context tied to this update, creating it
// on first use with the rid and update/user/chat metadata every log line carries.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(contextKey).(context.Context); ok {
		return ctx
	}

	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	updateID := c.Update().ID

	ctx := logger.WithRID(context.Background(), logger.BuildRID(updateID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	c.Set(contextKey, ctx)
	return ctx
}

// WithHandler records the handler name on the update context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	c.Set(contextKey, ctx)
	return ctx
}
