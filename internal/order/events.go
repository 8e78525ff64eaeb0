// Package order drives a conversation through the order form. It knows
// nothing about Telegram: the transport decodes updates into Events once and
// renders the returned Reply.
package order

import (
	"github.com/m3rciful/leadgenbot/internal/catalog"
	"github.com/m3rciful/leadgenbot/internal/lead"
)

// Event is one decoded user action. The set is closed.
type Event interface {
	event()
}

// Start begins a new order, optionally with the geography already known.
type Start struct{ Geo string }

// Text is a free-text message.
type Text struct{ Body string }

// ChooseGeo is a geography button press.
type ChooseGeo struct{ Key string }

// ChooseType is a lead type button press.
type ChooseType struct{ Type catalog.LeadType }

// Confirm answers the final summary.
type Confirm struct{ Accept bool }

// Cancel drops the order. ViaButton distinguishes an inline button from /cancel.
type Cancel struct{ ViaButton bool }

// BrowseIndex lists the catalog geographies.
type BrowseIndex struct{}

// BrowseGeo shows one geography's price list.
type BrowseGeo struct{ Key string }

func (Start) event()       {}
func (Text) event()        {}
func (ChooseGeo) event()   {}
func (ChooseType) event()  {}
func (Confirm) event()     {}
func (Cancel) event()      {}
func (BrowseIndex) event() {}
func (BrowseGeo) event()   {}

// Input is an event in the context of one conversation.
type Input struct {
	ConversationID int64
	From           lead.Submitter
	Event          Event
}

// Button is a labelled control that emits Event when pressed.
type Button struct {
	Label string
	Event Event
}

// Reply is what the transport should show. A zero Reply means "acknowledge
// silently": nothing is sent.
type Reply struct {
	// Text is Telegram Markdown.
	Text    string
	Buttons [][]Button
	// Dismiss removes the controls of the message whose button was pressed.
	Dismiss bool
	// Notice is a short toast shown on the pressed button.
	Notice string
}

// Silent reports whether the reply carries nothing to send.
func (r Reply) Silent() bool {
	return r.Text == "" && !r.Dismiss && r.Notice == ""
}
