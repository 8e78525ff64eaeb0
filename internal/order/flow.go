package order

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/leadgenbot/core/logger"
	"github.com/m3rciful/leadgenbot/internal/catalog"
	"github.com/m3rciful/leadgenbot/internal/format"
	"github.com/m3rciful/leadgenbot/internal/lead"
	"github.com/m3rciful/leadgenbot/internal/session"
)

// Sink receives submitted orders. Submit must not block on delivery and
// handles its own failures.
type Sink interface {
	Submit(ctx context.Context, r lead.Record)
}

const (
	promptGeo     = "Which GEO do you need? Type it or pick one below."
	promptType    = "Which lead type do you need?"
	repromptType  = "Please pick one of the lead types below."
	promptQty     = "How many leads do you need?"
	promptContact = "How can we reach you? (Telegram @handle, WhatsApp or email)"
	promptNotes   = "Any notes for the manager? Type *no* to skip."
	promptConfirm = "Send this order?"
	promptIndex   = "Pick a GEO to see prices:"

	msgSubmitted  = "✅ Thanks! Your order is in, a manager will contact you shortly.\nOrder ID: `%s`"
	msgCancelled  = "Order cancelled. Type /order to start again."
	msgNoSession  = "Nothing to cancel. Type /order to start an order."
	noticeSent    = "Order sent"
	labelCancel   = "❌ Cancel"
	labelYes      = "✅ Yes, send"
	labelNo       = "❌ No"
	labelQuote    = "📝 Request a quote"
	labelAllGeos  = "« All GEOs"
	skipNotesWord = "no"
	cancelWord    = "cancel"
)

// Options configures a Flow.
type Options struct {
	Catalog *catalog.Catalog
	Store   *session.Store
	Sink    Sink
	// RowWidth is the number of geography buttons per row.
	RowWidth int
	Now      func() time.Time
}

// Flow is the order state machine. It is safe for concurrent use; events of
// one conversation are applied one at a time.
type Flow struct {
	cat      *catalog.Catalog
	store    *session.Store
	sink     Sink
	rowWidth int
	now      func() time.Time
}

// New constructs a Flow.
func New(opts Options) *Flow {
	if opts.Store == nil {
		opts.Store = session.NewStore(session.Options{})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RowWidth <= 0 {
		opts.RowWidth = 2
	}
	return &Flow{
		cat:      opts.Catalog,
		store:    opts.Store,
		sink:     opts.Sink,
		rowWidth: opts.RowWidth,
		now:      opts.Now,
	}
}

// Active reports whether the conversation has an order in progress.
func (f *Flow) Active(id int64) bool {
	_, ok := f.store.Get(id)
	return ok
}

// Handle applies one event and returns what to show the user.
func (f *Flow) Handle(ctx context.Context, in Input) (Reply, error) {
	switch ev := in.Event.(type) {
	case BrowseIndex:
		return f.index(), nil
	case BrowseGeo:
		return f.browse(ev.Key), nil
	}

	unlock := f.store.Lock(in.ConversationID)
	defer unlock()

	switch ev := in.Event.(type) {
	case Start:
		return f.start(ctx, in.ConversationID, ev.Geo), nil
	case Cancel:
		return f.cancel(ctx, in.ConversationID, ev.ViaButton), nil
	case Text:
		return f.text(ctx, in, ev.Body), nil
	case ChooseGeo:
		return f.chooseGeo(ctx, in.ConversationID, ev.Key), nil
	case ChooseType:
		return f.chooseType(ctx, in.ConversationID, ev.Type), nil
	case Confirm:
		return f.confirm(ctx, in, ev.Accept), nil
	case nil:
		return Reply{}, fmt.Errorf("order: nil event")
	default:
		return Reply{}, fmt.Errorf("order: unsupported event %T", ev)
	}
}

func (f *Flow) index() Reply {
	return Reply{Text: promptIndex, Buttons: f.geoButtons(func(k string) Event { return BrowseGeo{Key: k} })}
}

func (f *Flow) browse(key string) Reply {
	e, ok := f.cat.Lookup(key)
	if !ok {
		return Reply{}
	}
	return Reply{
		Text: format.GeoPricing(e.Key, e, f.cat.Payment()),
		Buttons: [][]Button{
			{{Label: labelQuote, Event: Start{Geo: e.Key}}},
			{{Label: labelAllGeos, Event: BrowseIndex{}}},
		},
	}
}

func (f *Flow) start(ctx context.Context, id int64, geo string) Reply {
	if strings.TrimSpace(geo) == "" {
		f.store.Create(id, lead.Order{}, session.StepGeo)
		f.logStep(ctx, "order.started", "", session.StepGeo)
		return f.promptGeo()
	}
	f.store.Create(id, lead.Order{Geo: f.resolveGeo(geo)}, session.StepType)
	f.logStep(ctx, "order.started", "", session.StepType)
	return f.promptType(promptType)
}

func (f *Flow) cancel(ctx context.Context, id int64, viaButton bool) Reply {
	if f.store.Destroy(id) {
		logger.Info(ctx, "order", "order.cancelled", slog.String("outcome", "cancelled"))
		return Reply{Text: msgCancelled, Dismiss: viaButton}
	}
	if viaButton {
		return Reply{}
	}
	return Reply{Text: msgNoSession}
}

// text applies a free-text message. Answers are stored as typed; trimming only
// decides whether the text is empty or a keyword.
func (f *Flow) text(ctx context.Context, in Input, body string) Reply {
	word := strings.TrimSpace(body)
	sess, ok := f.store.Get(in.ConversationID)
	if !ok {
		return Reply{Text: format.Hint}
	}
	if strings.EqualFold(word, cancelWord) {
		return f.cancel(ctx, in.ConversationID, false)
	}

	switch sess.Step {
	case session.StepGeo:
		if word == "" {
			return f.promptGeo()
		}
		sess.Order.Geo = f.resolveGeo(body)
		return f.advance(ctx, in.ConversationID, sess, session.StepType)
	case session.StepType:
		t, ok := catalog.ParseLeadType(word)
		if !ok {
			return f.promptType(repromptType)
		}
		sess.Order.LeadType = t
		return f.advance(ctx, in.ConversationID, sess, session.StepQty)
	case session.StepQty:
		if word == "" {
			return f.promptQty()
		}
		sess.Order.Quantity = body
		return f.advance(ctx, in.ConversationID, sess, session.StepContact)
	case session.StepContact:
		if word == "" {
			return f.promptContact()
		}
		sess.Order.Contact = body
		return f.advance(ctx, in.ConversationID, sess, session.StepNotes)
	case session.StepNotes:
		if word == "" {
			return f.promptNotes()
		}
		if strings.EqualFold(word, skipNotesWord) {
			body = ""
		}
		sess.Order.Notes = body
		return f.advance(ctx, in.ConversationID, sess, session.StepConfirm)
	default:
		return f.promptConfirm(sess.Order)
	}
}

func (f *Flow) chooseGeo(ctx context.Context, id int64, key string) Reply {
	sess, ok := f.store.Get(id)
	if !ok || sess.Step != session.StepGeo {
		return Reply{}
	}
	e, ok := f.cat.Lookup(key)
	if !ok {
		return Reply{}
	}
	sess.Order.Geo = e.Key
	r := f.advance(ctx, id, sess, session.StepType)
	r.Dismiss = true
	return r
}

func (f *Flow) chooseType(ctx context.Context, id int64, t catalog.LeadType) Reply {
	sess, ok := f.store.Get(id)
	if !ok || sess.Step != session.StepType || !t.Valid() {
		return Reply{}
	}
	sess.Order.LeadType = t
	r := f.advance(ctx, id, sess, session.StepQty)
	r.Dismiss = true
	return r
}

func (f *Flow) confirm(ctx context.Context, in Input, accept bool) Reply {
	sess, ok := f.store.Get(in.ConversationID)
	if !ok || sess.Step != session.StepConfirm {
		return Reply{}
	}
	f.store.Destroy(in.ConversationID)

	if !accept {
		logger.Info(ctx, "order", "order.cancelled",
			slog.String("step", string(sess.Step)),
			slog.String("outcome", "cancelled"),
		)
		return Reply{Text: msgCancelled, Dismiss: true}
	}

	rec := lead.NewRecord(sess.Order, in.From, f.now())
	ctx = logger.WithOrderID(ctx, rec.ID)
	logger.Info(ctx, "order", "order.submitted",
		slog.String("outcome", "submitted"),
		slog.String("geo", logger.SanitizeLimit(rec.Order.Geo, 64)),
		slog.String("lead_type", string(rec.Order.LeadType)),
	)
	if f.sink != nil {
		f.sink.Submit(ctx, rec)
	}
	return Reply{
		Text:    fmt.Sprintf(msgSubmitted, rec.ID),
		Dismiss: true,
		Notice:  noticeSent,
	}
}

// advance stores sess at next and returns next's prompt. A session destroyed
// concurrently is not resurrected.
func (f *Flow) advance(ctx context.Context, id int64, sess session.Session, next session.Step) Reply {
	prev := sess.Step
	sess.Step = next
	if !f.store.Save(id, sess) {
		return Reply{}
	}
	f.logStep(ctx, "order.step", prev, next)

	switch next {
	case session.StepType:
		return f.promptType(promptType)
	case session.StepQty:
		return f.promptQty()
	case session.StepContact:
		return f.promptContact()
	case session.StepNotes:
		return f.promptNotes()
	case session.StepConfirm:
		return f.promptConfirm(sess.Order)
	default:
		return f.promptGeo()
	}
}

func (f *Flow) logStep(ctx context.Context, event string, prev, next session.Step) {
	attrs := []slog.Attr{slog.String("next_step", string(next))}
	if prev != "" {
		attrs = append(attrs, slog.String("step", string(prev)))
	}
	attrs = append(attrs, slog.Int("sessions", f.store.Len()))
	logger.Debug(ctx, "order", event, attrs...)
}

// resolveGeo returns the catalog key for known geographies and the text as typed otherwise.
func (f *Flow) resolveGeo(geo string) string {
	if e, ok := f.cat.Lookup(geo); ok {
		return e.Key
	}
	return geo
}

func (f *Flow) promptGeo() Reply {
	rows := f.geoButtons(func(k string) Event { return ChooseGeo{Key: k} })
	return Reply{Text: promptGeo, Buttons: append(rows, cancelRow())}
}

func (f *Flow) promptType(text string) Reply {
	rows := make([][]Button, 0, len(catalog.LeadTypes())+1)
	for _, t := range catalog.LeadTypes() {
		rows = append(rows, []Button{{Label: t.Label(), Event: ChooseType{Type: t}}})
	}
	return Reply{Text: text, Buttons: append(rows, cancelRow())}
}

func (f *Flow) promptQty() Reply {
	return Reply{Text: promptQty, Buttons: [][]Button{cancelRow()}}
}

func (f *Flow) promptContact() Reply {
	return Reply{Text: promptContact, Buttons: [][]Button{cancelRow()}}
}

func (f *Flow) promptNotes() Reply {
	return Reply{Text: promptNotes, Buttons: [][]Button{cancelRow()}}
}

func (f *Flow) promptConfirm(o lead.Order) Reply {
	return Reply{
		Text: format.Summary(o, f.cat) + "\n\n" + promptConfirm,
		Buttons: [][]Button{{
			{Label: labelYes, Event: Confirm{Accept: true}},
			{Label: labelNo, Event: Confirm{Accept: false}},
		}},
	}
}

func (f *Flow) geoButtons(ev func(key string) Event) [][]Button {
	var rows [][]Button
	for _, keys := range format.CatalogIndex(f.cat.Keys(), f.rowWidth) {
		row := make([]Button, 0, len(keys))
		for _, k := range keys {
			row = append(row, Button{Label: format.DisplayGeo(k), Event: ev(k)})
		}
		rows = append(rows, row)
	}
	return rows
}

func cancelRow() []Button {
	return []Button{{Label: labelCancel, Event: Cancel{ViaButton: true}}}
}
