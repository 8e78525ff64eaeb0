package notify

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadgenbot/internal/catalog"
	"github.com/m3rciful/leadgenbot/internal/format"
	"github.com/m3rciful/leadgenbot/internal/lead"
)

// MessageSender is the part of *tele.Bot used to reach the operator.
type MessageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Operator posts order notices to the operator chat.
type Operator struct {
	bot    MessageSender
	chatID int64
	cat    *catalog.Catalog
}

// NewOperator returns nil when no operator chat is configured.
func NewOperator(bot MessageSender, chatID int64, cat *catalog.Catalog) *Operator {
	if bot == nil || chatID == 0 {
		return nil
	}
	return &Operator{bot: bot, chatID: chatID, cat: cat}
}

// Notify implements Notifier.
func (o *Operator) Notify(_ context.Context, r lead.Record) error {
	if o == nil {
		return nil
	}
	_, err := o.bot.Send(tele.ChatID(o.chatID), format.OperatorNotice(r, o.cat), &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	if err != nil {
		return fmt.Errorf("notify operator: %w", err)
	}
	return nil
}
