// Package ui wires the handlers used when an update matches no route.
package ui

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/leadgenbot/core/telegram"
	"github.com/m3rciful/leadgenbot/core/telegram/router"
)

// FallbackProvider exposes handlers used when incoming updates
// cannot be mapped to commands, callbacks, or expected documents.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}

// Apply installs p's callback fallback on reg and returns the text options
// to pass to router.TextRoutes.
func Apply(reg *tg.Registry, p FallbackProvider) router.TextOptions {
	if p == nil {
		return router.TextOptions{}
	}
	if reg != nil {
		reg.SetCallbackNotFound(p.UnknownCallback())
	}
	return router.TextOptions{
		UnknownText:     p.UnknownText(),
		UnknownDocument: p.UnknownDocument(),
	}
}
