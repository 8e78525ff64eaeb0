package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadgenbot/core/logger"
	"github.com/m3rciful/leadgenbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/leadgenbot/core/telegram/helpers"
)

// DefaultApology is shown to users when a handler fails unexpectedly.
const DefaultApology = "Sorry, something went wrong on our side. Please try again in a moment."

// RecoverMiddleware catches panics in handlers and prevents the bot from crashing.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return Recover("")(next)
}

// Recover returns a middleware that turns handler panics into errors and,
// when apology is set, answers failed updates with it instead of raw error
// text. Conversation state is left untouched either way.
func Recover(apology string) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.TG.Error("panic recovered",
						slog.String("event", "tg.panic"),
						slog.Any("err", r),
						slog.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("panic: %v", r)
				}
				if err != nil && apology != "" {
					err = apologize(c, apology, err)
				}
			}()
			return next(c)
		}
	}
}

func apologize(c tele.Context, apology string, cause error) error {
	ctx := tghelpers.BuildContext(c)
	logger.Error(ctx, "tg", "handler.error",
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(cause.Error(), 256)),
	)
	_ = callbacks.Answer(c, "")
	if c.Chat() == nil {
		return nil
	}
	if sendErr := c.Send(apology); sendErr != nil {
		logger.Warn(ctx, "tg", "apology.send_failed",
			slog.String("err", logger.SanitizeLimit(sendErr.Error(), 256)),
		)
	}
	return nil
}
