package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func TestInlineEncodesData(t *testing.T) {
	m := Inline(
		[]Button{{Text: "UK", Unique: "geo", Data: "uk"}, {Text: "DE", Unique: "geo", Data: "de"}},
		nil,
		[]Button{{Text: "Cancel", Unique: "cancel"}},
	)
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "UK", m.InlineKeyboard[0][0].Text)
	assert.Equal(t, "geo", m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "uk", m.InlineKeyboard[0][0].Data)
	assert.Equal(t, "de", m.InlineKeyboard[0][1].Data)
	assert.Equal(t, "cancel", m.InlineKeyboard[1][0].Unique)
}

func TestInlineEmpty(t *testing.T) {
	assert.Nil(t, Inline())
	assert.Nil(t, Inline(nil, []Button{}))
}

type callbackContext struct {
	tele.Context
	cb *tele.Callback
}

func (c callbackContext) Callback() *tele.Callback { return c.cb }

func TestDismissWithoutMessageIsNoop(t *testing.T) {
	assert.NoError(t, Dismiss(callbackContext{}))
	assert.NoError(t, Dismiss(callbackContext{cb: &tele.Callback{}}))
}
