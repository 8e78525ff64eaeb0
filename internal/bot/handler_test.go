package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/leadgenbot/core/telegram"
	"github.com/m3rciful/leadgenbot/internal/catalog"
	"github.com/m3rciful/leadgenbot/internal/format"
	"github.com/m3rciful/leadgenbot/internal/notify"
	"github.com/m3rciful/leadgenbot/internal/order"
)

type sent struct {
	what any
	opts *tele.SendOptions
}

type fakeContext struct {
	tele.Context
	store    map[string]any
	chat     *tele.Chat
	sender   *tele.User
	message  *tele.Message
	callback *tele.Callback
	sent     []sent
	toasts   []string
	answers  int
}

func newContext() *fakeContext {
	return &fakeContext{
		store:  map[string]any{},
		chat:   &tele.Chat{ID: 100},
		sender: &tele.User{ID: 7, FirstName: "Ann", LastName: "Lee", Username: "annlee"},
	}
}

func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (f *fakeContext) Chat() *tele.Chat         { return f.chat }
func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Message() *tele.Message   { return f.message }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }

func (f *fakeContext) Text() string {
	if f.message == nil {
		return ""
	}
	return f.message.Text
}

func (f *fakeContext) Send(what any, opts ...any) error {
	s := sent{what: what}
	if len(opts) > 0 {
		s.opts, _ = opts[0].(*tele.SendOptions)
	}
	f.sent = append(f.sent, s)
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.answers++
	if len(resp) > 0 && resp[0] != nil {
		f.toasts = append(f.toasts, resp[0].Text)
	}
	return nil
}

type fakeFlow struct {
	active bool
	inputs []order.Input
	reply  order.Reply
	err    error
}

func (f *fakeFlow) Active(int64) bool { return f.active }

func (f *fakeFlow) Handle(_ context.Context, in order.Input) (order.Reply, error) {
	f.inputs = append(f.inputs, in)
	return f.reply, f.err
}

func newHandler(flow *fakeFlow) (*Handler, *int) {
	dismissed := 0
	h := New(Options{Flow: flow, Dismiss: func(tele.Context) error {
		dismissed++
		return nil
	}})
	return h, &dismissed
}

func TestCodecRoundTrip(t *testing.T) {
	events := []order.Event{
		order.ChooseGeo{Key: "south_africa"},
		order.ChooseType{Type: catalog.ReadyFTD},
		order.Confirm{Accept: true},
		order.Confirm{Accept: false},
		order.Cancel{ViaButton: true},
		order.BrowseGeo{Key: "italy"},
		order.BrowseIndex{},
		order.Start{Geo: "italy"},
	}
	for _, ev := range events {
		unique, data, ok := encode(ev)
		require.True(t, ok, "%T", ev)
		assert.LessOrEqual(t, len("\f"+unique+"|"+data), 64)

		got, ok := decode(unique, data)
		require.True(t, ok, "%T", ev)
		assert.Equal(t, ev, got)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := [][2]string{
		{"geo", ""},
		{"type", "gold"},
		{"confirm", "maybe"},
		{"browse", ""},
		{"quote", ""},
		{"legacy", "x"},
		{"", ""},
	}
	for _, tc := range cases {
		_, ok := decode(tc[0], tc[1])
		assert.False(t, ok, "%v", tc)
	}
}

func TestRegisterAddsCommandsAndCallbacks(t *testing.T) {
	h, _ := newHandler(&fakeFlow{})
	reg := tg.NewRegistry()
	require.NoError(t, h.Register(reg))

	for _, name := range []string{"/start", "/help", "/menu", "/pricing", "/geos", "/order", "/cancel", "/live", "/hot", "/recovery", "/ftd", "/readyftd"} {
		_, _, ok := reg.LookupCommand(name)
		assert.True(t, ok, name)
	}
	assert.Equal(t, []string{"browse", "cancel", "confirm", "geo", "index", "quote", "type"}, reg.ListCallbacks())

	assert.Error(t, h.Register(reg), "duplicate callbacks must be rejected")
}

func TestStaticCommandSendsPlainText(t *testing.T) {
	h, _ := newHandler(&fakeFlow{})
	c := newContext()

	require.NoError(t, h.Commands()["/hot"].Handler(c))
	require.Len(t, c.sent, 1)
	assert.Equal(t, format.Product(catalog.Hot), c.sent[0].what)
}

func TestOrderCommandPassesPayload(t *testing.T) {
	flow := &fakeFlow{reply: order.Reply{Text: "Which lead type?"}}
	h, _ := newHandler(flow)
	c := newContext()
	c.message = &tele.Message{Text: "/order Italy", Payload: "Italy"}

	require.NoError(t, h.onOrder(c))

	require.Len(t, flow.inputs, 1)
	in := flow.inputs[0]
	assert.Equal(t, order.Start{Geo: "Italy"}, in.Event)
	assert.Equal(t, int64(100), in.ConversationID)
	assert.Equal(t, "Ann Lee", in.From.Name)
	assert.Equal(t, "annlee", in.From.Username)
	assert.Equal(t, int64(100), in.From.ChatID)

	require.Len(t, c.sent, 1)
	assert.Equal(t, "Which lead type?", c.sent[0].what)
	assert.Equal(t, tele.ModeMarkdown, c.sent[0].opts.ParseMode)
	assert.Nil(t, c.sent[0].opts.ReplyMarkup)
}

func TestCallbackRendersReplyWithButtons(t *testing.T) {
	flow := &fakeFlow{reply: order.Reply{
		Text:    "Confirm?",
		Dismiss: true,
		Buttons: [][]order.Button{{
			{Label: "Yes", Event: order.Confirm{Accept: true}},
			{Label: "No", Event: order.Confirm{Accept: false}},
		}},
	}}
	h, dismissed := newHandler(flow)
	c := newContext()
	c.callback = &tele.Callback{Data: "\fgeo|italy"}

	require.NoError(t, h.OnCallback(c))

	assert.Equal(t, order.ChooseGeo{Key: "italy"}, flow.inputs[0].Event)
	assert.Equal(t, 1, *dismissed)
	require.Len(t, c.sent, 1)
	rm := c.sent[0].opts.ReplyMarkup
	require.NotNil(t, rm)
	require.Len(t, rm.InlineKeyboard, 1)
	require.Len(t, rm.InlineKeyboard[0], 2)
	assert.Equal(t, "Yes", rm.InlineKeyboard[0][0].Text)
	assert.Equal(t, "confirm", rm.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "yes", rm.InlineKeyboard[0][0].Data)
	assert.Equal(t, "no", rm.InlineKeyboard[0][1].Data)
}

func TestCallbackNoticeAnswersWithToast(t *testing.T) {
	flow := &fakeFlow{reply: order.Reply{Text: "Done", Dismiss: true, Notice: "Order sent"}}
	h, _ := newHandler(flow)
	c := newContext()
	c.callback = &tele.Callback{Data: "\fconfirm|yes"}

	require.NoError(t, h.OnCallback(c))

	assert.Equal(t, order.Confirm{Accept: true}, flow.inputs[0].Event)
	assert.Equal(t, []string{"Order sent"}, c.toasts)
	assert.Equal(t, true, c.store["cb_answered"])
}

func TestMalformedCallbackIsIgnored(t *testing.T) {
	flow := &fakeFlow{}
	h, _ := newHandler(flow)
	c := newContext()
	c.callback = &tele.Callback{Data: "\ftype|platinum"}

	require.NoError(t, h.OnCallback(c))
	assert.Empty(t, flow.inputs)
	assert.Empty(t, c.sent)
}

func TestSilentReplySendsNothing(t *testing.T) {
	flow := &fakeFlow{}
	h, dismissed := newHandler(flow)
	c := newContext()
	c.callback = &tele.Callback{Data: "\fconfirm|yes"}

	require.NoError(t, h.OnCallback(c))
	assert.Len(t, flow.inputs, 1)
	assert.Zero(t, *dismissed)
	assert.Empty(t, c.sent)
}

func TestTextGoesToFlow(t *testing.T) {
	flow := &fakeFlow{active: true, reply: order.Reply{Text: "Quantity?"}}
	h, dismissed := newHandler(flow)
	c := newContext()
	c.message = &tele.Message{Text: "500"}

	assert.True(t, h.Active(100))
	require.NoError(t, h.Handle(c))
	assert.Equal(t, order.Text{Body: "500"}, flow.inputs[0].Event)
	assert.Zero(t, *dismissed, "text replies never dismiss")
}

func TestFlowErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	h, _ := newHandler(&fakeFlow{err: boom})
	c := newContext()
	c.message = &tele.Message{Text: "hi"}

	assert.ErrorIs(t, h.Handle(c), boom)
	assert.Empty(t, c.sent)
}

func TestFallbacks(t *testing.T) {
	h, _ := newHandler(&fakeFlow{})
	c := newContext()

	require.NoError(t, h.UnknownDocument()(c))
	require.Len(t, c.sent, 1)
	assert.Equal(t, format.Hint, c.sent[0].what)

	require.NoError(t, h.UnknownCallback()(c))
	assert.Len(t, c.sent, 1)
}

type recordingTracker struct{ updates []notify.Update }

func (r *recordingTracker) Track(_ context.Context, u notify.Update) {
	r.updates = append(r.updates, u)
}

func TestTelemetryDescribesUpdates(t *testing.T) {
	tr := &recordingTracker{}
	mw := Telemetry(tr)
	next := func(tele.Context) error { return nil }

	msg := newContext()
	msg.message = &tele.Message{Text: "hello"}
	require.NoError(t, mw.Use(next)(msg))

	cb := newContext()
	cb.callback = &tele.Callback{Data: "\fgeo|italy"}
	require.NoError(t, mw.Use(next)(cb))

	require.Len(t, tr.updates, 2)
	assert.Equal(t, notify.Update{UpdateID: 1, Kind: "message", ChatID: 100, UserID: 7, Username: "@annlee", Text: "hello"}, tr.updates[0])
	assert.Equal(t, "callback", tr.updates[1].Kind)
	assert.Equal(t, "geo|italy", tr.updates[1].Data)
	assert.Empty(t, tr.updates[1].Text)
}
