package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/leadgenbot/internal/lead"
)

const insertJournal = `INSERT INTO order_journal
	(id, chat_id, submitter, username, geo, lead_type, quantity, contact, notes, submitted_at)
VALUES
	(:id, :chat_id, :submitter, :username, :geo, :lead_type, :quantity, :contact, :notes, :submitted_at)
ON CONFLICT (id) DO NOTHING`

// Journal appends orders to the order_journal table. Inserts are idempotent
// on the order ID so dispatcher retries never duplicate rows.
type Journal struct {
	db *sqlx.DB
}

// NewJournal returns nil when db is nil.
func NewJournal(db *sqlx.DB) *Journal {
	if db == nil {
		return nil
	}
	return &Journal{db: db}
}

type journalRow struct {
	ID          string    `db:"id"`
	ChatID      int64     `db:"chat_id"`
	Submitter   string    `db:"submitter"`
	Username    string    `db:"username"`
	Geo         string    `db:"geo"`
	LeadType    string    `db:"lead_type"`
	Quantity    string    `db:"quantity"`
	Contact     string    `db:"contact"`
	Notes       string    `db:"notes"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// LogOrder implements OrderLogger.
func (j *Journal) LogOrder(ctx context.Context, r lead.Record) error {
	if j == nil {
		return nil
	}
	row := journalRow{
		ID:          r.ID,
		ChatID:      r.Submitter.ChatID,
		Submitter:   r.Submitter.Name,
		Username:    r.Submitter.Username,
		Geo:         r.Order.Geo,
		LeadType:    string(r.Order.LeadType),
		Quantity:    r.Order.Quantity,
		Contact:     r.Order.Contact,
		Notes:       r.Order.Notes,
		SubmittedAt: r.SubmittedAt,
	}
	if _, err := j.db.NamedExecContext(ctx, insertJournal, row); err != nil {
		return fmt.Errorf("journal insert %s: %w", r.ID, err)
	}
	return nil
}
