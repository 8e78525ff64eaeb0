package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/leadgenbot/core/telegram"
	"github.com/m3rciful/leadgenbot/core/telegram/callbacks"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that routes callbacks through the registry.
// Callbacks the handler did not answer itself are acknowledged once it returns.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		defer func() {
			if !callbacks.Answered(c) {
				_ = callbacks.Answer(c, "")
			}
		}()

		key, _ := callbacks.Split(c.Callback())
		s := newSummary("callback."+normalizeHandlerName(key), slog.String("cb_key", key))

		var h tele.HandlerFunc
		if reg != nil {
			h, _ = reg.GetCallback(key)
		}
		if h == nil {
			s.skip = true
			s.extras = append(s.extras, slog.String("reason", "not_found"))
			h = opts.NotFound
			if h == nil && reg != nil {
				h = reg.CallbackNotFound()
			}
		}
		return s.run(c, h)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: guard(handler)}
}
