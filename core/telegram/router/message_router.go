package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/leadgenbot/core/telegram"
)

// Conversation is implemented by stateful dialogs that claim free text while active.
type Conversation interface {
	Active(chatID int64) bool
	Handle(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document routing.
// An active conversation wins, then slash-commands typed as text, then fallbacks.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	text := func(c tele.Context) error {
		name, h := resolveText(c, conv, reg, opts)
		s := newSummary(name)
		s.skip = h == nil
		return s.run(c, h)
	}
	document := func(c tele.Context) error {
		s := newSummary("unexpected_document")
		s.skip = opts.UnknownDocument == nil
		return s.run(c, opts.UnknownDocument)
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: guard(text)},
		{Endpoint: tele.OnDocument, Handler: guard(document)},
	}
}

// resolveText picks the handler for a text message and the name it is logged under.
func resolveText(c tele.Context, conv Conversation, reg *tg.Registry, opts TextOptions) (string, tele.HandlerFunc) {
	if conv != nil && c.Chat() != nil && conv.Active(c.Chat().ID) {
		return "conversation", conv.Handle
	}
	if reg != nil {
		if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
			return normalizeHandlerName(key), cmd.Handler
		}
		if fb := reg.TextFallback(); fb != nil {
			return "fallback", fb
		}
	}
	return "unknown_text", opts.UnknownText
}
