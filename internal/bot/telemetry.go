package bot

import (
	"context"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/leadgenbot/core/telegram"
	"github.com/m3rciful/leadgenbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/leadgenbot/core/telegram/helpers"
	"github.com/m3rciful/leadgenbot/internal/notify"
)

// Tracker records one telemetry entry per inbound update; *notify.Service satisfies it.
type Tracker interface {
	Track(ctx context.Context, u notify.Update)
}

// Telemetry returns middleware reporting every update to t before handling it.
func Telemetry(t Tracker) tg.Middleware {
	return tg.Middleware{
		Name: "telemetry",
		Use: func(next tele.HandlerFunc) tele.HandlerFunc {
			return func(c tele.Context) error {
				t.Track(tghelpers.BuildContext(c), describeUpdate(c))
				return next(c)
			}
		},
	}
}

func describeUpdate(c tele.Context) notify.Update {
	u := notify.Update{UpdateID: c.Update().ID, Kind: "other"}
	if chat := c.Chat(); chat != nil {
		u.ChatID = chat.ID
	}
	if s := c.Sender(); s != nil {
		u.UserID = s.ID
		u.Username = tghelpers.Handle(s)
	}
	switch {
	case c.Callback() != nil:
		u.Kind = "callback"
		key, data := callbacks.Split(c.Callback())
		u.Data = key + "|" + data
	case c.Message() != nil:
		u.Kind = "message"
		u.Text = c.Text()
	}
	return u
}
