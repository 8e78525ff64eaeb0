package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/leadgenbot/core/telegram"
	"github.com/m3rciful/leadgenbot/core/telegram/router"
	"github.com/m3rciful/leadgenbot/core/telegram/ui"
	"github.com/m3rciful/leadgenbot/internal/catalog"
	"github.com/m3rciful/leadgenbot/internal/format"
	"github.com/m3rciful/leadgenbot/internal/lead"
	"github.com/m3rciful/leadgenbot/internal/order"
	"github.com/m3rciful/leadgenbot/internal/session"
)

func textRoute(t *testing.T) (tele.HandlerFunc, *session.Store) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	store := session.NewStore(session.Options{})
	h := New(Options{Flow: order.New(order.Options{Catalog: cat, Store: store})})

	reg := tg.NewRegistry()
	require.NoError(t, h.Register(reg))
	for _, r := range router.TextRoutes(h, reg, ui.Apply(reg, h)) {
		if r.Endpoint == tele.OnText {
			return r.Handler, store
		}
	}
	t.Fatal("no text route")
	return nil, nil
}

func TestBareCommandWordsGetHint(t *testing.T) {
	for _, body := range []string{"order", "cancel", "menu", "start", "hello"} {
		route, store := textRoute(t)
		c := newContext()
		c.message = &tele.Message{Text: body}

		require.NoError(t, route(c), body)
		require.Len(t, c.sent, 1, body)
		assert.Equal(t, format.Hint, c.sent[0].what, body)
		assert.Zero(t, store.Len(), body)
	}
}

func TestTextRouteFeedsActiveOrder(t *testing.T) {
	route, store := textRoute(t)
	store.Create(100, lead.Order{Geo: "italy", LeadType: catalog.Hot}, session.StepQty)

	c := newContext()
	c.message = &tele.Message{Text: "menu"}
	require.NoError(t, route(c))

	sess, ok := store.Get(100)
	require.True(t, ok)
	assert.Equal(t, "menu", sess.Order.Quantity)
	assert.Equal(t, session.StepContact, sess.Step)
}
