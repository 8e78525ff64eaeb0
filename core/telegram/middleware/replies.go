package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const repliesKey = "replies"

// Replies tallies what a handler sent back for the current update.
type Replies struct {
	Messages int
	Keyboard bool
}

// countingContext counts successful outgoing messages on the wrapped context.
type countingContext struct {
	tele.Context
	tally *Replies
}

func (c countingContext) count(err error, opts []any) error {
	if err != nil {
		return err
	}
	c.tally.Messages++
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			c.tally.Keyboard = c.tally.Keyboard || (v != nil && v.ReplyMarkup != nil)
		case *tele.ReplyMarkup:
			c.tally.Keyboard = c.tally.Keyboard || v != nil
		}
	}
	return nil
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.count(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.count(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.count(c.Context.Edit(what, opts...), opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.count(c.Context.EditOrSend(what, opts...), opts)
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.count(c.Context.EditOrReply(what, opts...), opts)
}

// CountReplies hands downstream handlers a context that records every message
// they send, readable through RepliesFrom.
func CountReplies(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tally, ok := c.Get(repliesKey).(*Replies)
		if !ok {
			tally = &Replies{}
			c.Set(repliesKey, tally)
		}
		return next(countingContext{Context: c, tally: tally})
	}
}

// RepliesFrom returns the tally for the current update; zero outside CountReplies.
func RepliesFrom(c tele.Context) Replies {
	if tally, ok := c.Get(repliesKey).(*Replies); ok {
		return *tally
	}
	return Replies{}
}
