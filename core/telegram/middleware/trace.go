package middleware

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadgenbot/core/logger"
	"github.com/m3rciful/leadgenbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/leadgenbot/core/telegram/helpers"
)

const tracedKey = "traced"

// Trace attaches correlation metadata to the update and logs its receipt.
// The receipt is logged once per update however many times Trace wraps it.
func Trace(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if traced, _ := c.Get(tracedKey).(bool); traced {
			return next(c)
		}
		c.Set(tracedKey, true)
		c.Set(tghelpers.StartKey, time.Now())

		if logger.ShouldSampleDebug() {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if u := c.Sender(); u != nil {
		if u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if u.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", u.LanguageCode))
		}
	}

	if cb := c.Callback(); cb != nil {
		key, data := callbacks.Split(cb)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			slog.String("payload", logger.SanitizeLimit(data, 256)),
		)
	} else if c.Message() != nil {
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
	}
	return attrs
}
