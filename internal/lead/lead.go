// Package lead defines the order data collected from buyers.
package lead

import (
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/leadgenbot/internal/catalog"
)

// Order is the data accumulated by the order form. Quantity, Contact and
// Notes hold user text verbatim.
type Order struct {
	Geo      string           `json:"geo"`
	LeadType catalog.LeadType `json:"lead_type,omitempty"`
	Quantity string           `json:"quantity"`
	Contact  string           `json:"contact"`
	Notes    string           `json:"notes"`
}

// Submitter identifies who placed an order.
type Submitter struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	ChatID   int64  `json:"chat_id"`
}

// Record is a completed order handed to notifiers and loggers.
type Record struct {
	ID          string    `json:"id"`
	Order       Order     `json:"order"`
	Submitter   Submitter `json:"submitter"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NewRecord stamps o with a fresh ID and submission time.
func NewRecord(o Order, from Submitter, at time.Time) Record {
	return Record{
		ID:          uuid.NewString(),
		Order:       o,
		Submitter:   from,
		SubmittedAt: at.UTC(),
	}
}
