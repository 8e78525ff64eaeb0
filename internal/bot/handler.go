// Package bot adapts the order flow to Telegram: commands, inline buttons and
// free text become flow events, and flow replies become messages.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadgenbot/core/logger"
	tg "github.com/m3rciful/leadgenbot/core/telegram"
	"github.com/m3rciful/leadgenbot/core/telegram/callbacks"
	"github.com/m3rciful/leadgenbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/leadgenbot/core/telegram/helpers"
	"github.com/m3rciful/leadgenbot/core/telegram/keyboard"
	"github.com/m3rciful/leadgenbot/internal/catalog"
	"github.com/m3rciful/leadgenbot/internal/format"
	"github.com/m3rciful/leadgenbot/internal/lead"
	"github.com/m3rciful/leadgenbot/internal/order"
)

// Flow is the order state machine as seen by the transport.
type Flow interface {
	Active(conversationID int64) bool
	Handle(ctx context.Context, in order.Input) (order.Reply, error)
}

// Options configures a Handler.
type Options struct {
	Flow Flow
	// Dismiss strips the keyboard of a pressed message; defaults to keyboard.Dismiss.
	Dismiss tele.HandlerFunc
}

// Handler owns every user-facing route of the bot.
type Handler struct {
	flow    Flow
	dismiss tele.HandlerFunc
}

// New constructs a Handler.
func New(opts Options) *Handler {
	if opts.Dismiss == nil {
		opts.Dismiss = keyboard.Dismiss
	}
	return &Handler{flow: opts.Flow, dismiss: opts.Dismiss}
}

// Register adds commands and callback handlers to reg.
func (h *Handler) Register(reg *tg.Registry) error {
	for name, cmd := range h.Commands() {
		if err := reg.RegisterCommand(name, cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	for _, key := range callbackKeys {
		if err := reg.RegisterCallback(key, h.OnCallback); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	return nil
}

// Commands returns the slash commands keyed by name.
func (h *Handler) Commands() map[string]commands.Command {
	cmds := map[string]commands.Command{
		"/start":   {Handler: static(format.Welcome), Description: "Welcome"},
		"/help":    {Handler: static(format.Help), Description: "How ordering works"},
		"/menu":    {Handler: static(format.Menu), Description: "All products"},
		"/pricing": {Handler: static(format.PricingOverview), Description: "Pricing & MOQs"},
		"/geos":    {Handler: h.emit(order.BrowseIndex{}), Description: "Prices by GEO"},
		"/order":   {Handler: h.onOrder, Description: "Place an order"},
		"/cancel":  {Handler: h.emit(order.Cancel{}), Description: "Cancel the current order"},
	}
	for _, t := range catalog.LeadTypes() {
		cmds["/"+string(t)] = commands.Command{Handler: static(format.Product(t)), Description: t.Label()}
	}
	return cmds
}

// Active implements router.Conversation.
func (h *Handler) Active(chatID int64) bool {
	return h.flow.Active(chatID)
}

// Handle implements router.Conversation: free text goes to the flow.
func (h *Handler) Handle(c tele.Context) error {
	return h.dispatch(c, order.Text{Body: c.Text()})
}

// OnCallback decodes an inline button and feeds it to the flow.
// Payloads it cannot decode are acknowledged and otherwise ignored.
func (h *Handler) OnCallback(c tele.Context) error {
	unique, data := callbacks.Split(c.Callback())
	ev, ok := decode(unique, data)
	if !ok {
		logger.Debug(tghelpers.BuildContext(c), "bot", "callback.malformed",
			slog.String("cb_key", unique),
			slog.String("cb_data", logger.SanitizeLimit(data, 64)),
		)
		return nil
	}
	return h.dispatch(c, ev)
}

// UnknownText implements ui.FallbackProvider.
func (h *Handler) UnknownText() tele.HandlerFunc { return h.Handle }

// UnknownDocument implements ui.FallbackProvider.
func (h *Handler) UnknownDocument() tele.HandlerFunc { return static(format.Hint) }

// UnknownCallback implements ui.FallbackProvider.
func (h *Handler) UnknownCallback() tele.HandlerFunc {
	return func(tele.Context) error { return nil }
}

func (h *Handler) onOrder(c tele.Context) error {
	var geo string
	if msg := c.Message(); msg != nil {
		geo = msg.Payload
	}
	return h.dispatch(c, order.Start{Geo: geo})
}

func (h *Handler) emit(ev order.Event) tele.HandlerFunc {
	return func(c tele.Context) error { return h.dispatch(c, ev) }
}

func (h *Handler) dispatch(c tele.Context, ev order.Event) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	reply, err := h.flow.Handle(ctx, order.Input{
		ConversationID: chat.ID,
		From:           submitter(c),
		Event:          ev,
	})
	if err != nil {
		return err
	}
	return h.render(ctx, c, reply)
}

func (h *Handler) render(ctx context.Context, c tele.Context, r order.Reply) error {
	if c.Callback() != nil {
		if r.Dismiss {
			if err := h.dismiss(c); err != nil {
				logger.Debug(ctx, "bot", "dismiss.failed", slog.String("err", err.Error()))
			}
		}
		if r.Notice != "" {
			_ = callbacks.Answer(c, r.Notice)
		}
	}
	if r.Text == "" {
		return nil
	}
	return tghelpers.SendMD(c, r.Text, markup(r.Buttons))
}

func markup(rows [][]order.Button) *tele.ReplyMarkup {
	kb := make([][]keyboard.Button, 0, len(rows))
	for _, row := range rows {
		btns := make([]keyboard.Button, 0, len(row))
		for _, b := range row {
			unique, data, ok := encode(b.Event)
			if !ok {
				continue
			}
			btns = append(btns, keyboard.Button{Text: b.Label, Unique: unique, Data: data})
		}
		kb = append(kb, btns)
	}
	return keyboard.Inline(kb...)
}

func submitter(c tele.Context) lead.Submitter {
	s := lead.Submitter{Name: tghelpers.DisplayName(c.Sender())}
	if u := c.Sender(); u != nil {
		s.Username = u.Username
	}
	if chat := c.Chat(); chat != nil {
		s.ChatID = chat.ID
	}
	return s
}

// static replies with fixed plain text.
func static(text string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, text)
	}
}
