package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadgenbot/core/logger"
	tghelpers "github.com/m3rciful/leadgenbot/core/telegram/helpers"
)

func TestTraceStoresContextOnce(t *testing.T) {
	c := newFakeContext()
	var seen []context.Context
	h := Trace(Trace(func(c tele.Context) error {
		seen = append(seen, tghelpers.BuildContext(c))
		return nil
	}))

	require.NoError(t, h(c))
	require.Len(t, seen, 1)
	m := logger.MetaFrom(seen[0])
	assert.Equal(t, "7:42:42", m.RID)
	assert.Equal(t, 7, m.UpdateID)
	assert.Equal(t, int64(42), m.ChatID)
	assert.Equal(t, true, c.store[tracedKey])
	assert.NotNil(t, c.store[tghelpers.StartKey])
}

func TestCountRepliesTalliesSends(t *testing.T) {
	c := newFakeContext()
	kb := &tele.ReplyMarkup{}
	h := CountReplies(func(c tele.Context) error {
		require.NoError(t, c.Send("one"))
		return c.Send("two", &tele.SendOptions{ReplyMarkup: kb})
	})

	require.NoError(t, h(c))
	assert.Equal(t, Replies{Messages: 2, Keyboard: true}, RepliesFrom(c))
	assert.Equal(t, []any{"one", "two"}, c.sent)
}

type failingSend struct{ *fakeContext }

func (failingSend) Send(any, ...any) error { return errors.New("blocked") }

func TestCountRepliesIgnoresFailedSends(t *testing.T) {
	c := failingSend{newFakeContext()}
	h := CountReplies(func(c tele.Context) error {
		return c.Send("x", &tele.ReplyMarkup{})
	})

	assert.Error(t, h(c))
	assert.Equal(t, Replies{}, RepliesFrom(c))
}

func TestRepliesFromWithoutMiddleware(t *testing.T) {
	assert.Equal(t, Replies{}, RepliesFrom(newFakeContext()))
}
