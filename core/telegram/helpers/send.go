package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadgenbot/core/logger"
	"github.com/m3rciful/leadgenbot/core/telegram/sender"
)

var outbox atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes helper sends through d. A nil d makes them synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	outbox.Store(d)
}

// SendText sends text without a parse mode.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var so *tele.SendOptions
	if len(opts) > 0 && opts[0] != nil {
		so = opts[0]
	}
	return deliver(c, "send.text", func() error {
		if so == nil {
			return c.Send(text)
		}
		return c.Send(text, so)
	})
}

// SendMD sends text with Markdown parse mode and an optional keyboard.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	so := &tele.SendOptions{ParseMode: tele.ModeMarkdown}
	if len(markup) > 0 {
		so.ReplyMarkup = markup[0]
	}
	return SendText(c, text, so)
}

// deliver queues send on the helper dispatcher when one is set. A full or
// closed queue degrades to an inline send instead of losing the message.
func deliver(c tele.Context, action string, send func() error) error {
	d := outbox.Load()
	if d == nil {
		return send()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, "sendMessage", func(context.Context) error { return send() })
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return send()
	default:
		return err
	}
}
