// Package callbacks decodes telebot inline-button payloads.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Prefix marks callback data produced by tele.ReplyMarkup.Data.
const Prefix = "\f"

// Split parses Telebot's \f<unique>|<payload> encoding.
// When telebot already matched a registered unique the pre-split fields are returned.
func Split(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return ParseData(cb.Data)
}

// ParseData splits raw callback data into unique and payload (may be empty).
func ParseData(raw string) (string, string) {
	raw = strings.TrimPrefix(raw, Prefix)
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Data encodes unique and payload the same way telebot does for inline buttons.
func Data(unique, payload string) string {
	if payload == "" {
		return Prefix + unique
	}
	return Prefix + unique + "|" + payload
}

// Key returns the unique part of the current callback.
func Key(c tele.Context) string {
	k, _ := Split(c.Callback())
	return k
}

// Payload returns the part after '|' of the current callback.
func Payload(c tele.Context) string {
	_, p := Split(c.Callback())
	return p
}

const answeredKey = "cb_answered"

// Answer acknowledges the current callback with an optional toast and marks it answered.
func Answer(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	c.Set(answeredKey, true)
	if text == "" {
		return c.Respond()
	}
	return c.Respond(&tele.CallbackResponse{Text: text})
}

// Answered reports whether Answer was already called for the current update.
func Answered(c tele.Context) bool {
	v, _ := c.Get(answeredKey).(bool)
	return v
}
