// Package keyboard builds and clears inline keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is one inline button; Unique and Data become the \f<unique>|<data> callback payload.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Inline lays out rows of buttons as an inline keyboard. Empty rows are
// dropped and nil is returned when nothing is left.
func Inline(rows ...[]Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		btns := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, *markup.Data(b.Text, b.Unique, b.Data).Inline())
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, btns)
	}
	if len(markup.InlineKeyboard) == 0 {
		return nil
	}
	return markup
}

// Dismiss removes the inline keyboard from the message whose button was pressed.
func Dismiss(c tele.Context) error {
	cb := c.Callback()
	if cb == nil || cb.Message == nil {
		return nil
	}
	_, err := c.Bot().EditReplyMarkup(cb.Message, nil)
	return err
}
