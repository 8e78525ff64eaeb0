package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/leadgenbot/core/telegram"
)

type provider struct{ calls *[]string }

func (p provider) handler(name string) tele.HandlerFunc {
	return func(tele.Context) error {
		*p.calls = append(*p.calls, name)
		return nil
	}
}

func (p provider) UnknownText() tele.HandlerFunc     { return p.handler("text") }
func (p provider) UnknownDocument() tele.HandlerFunc { return p.handler("document") }
func (p provider) UnknownCallback() tele.HandlerFunc { return p.handler("callback") }

func TestApplyWiresEveryFallback(t *testing.T) {
	var calls []string
	reg := tg.NewRegistry()
	opts := Apply(reg, provider{calls: &calls})

	assert.NoError(t, opts.UnknownText(nil))
	assert.NoError(t, opts.UnknownDocument(nil))
	assert.NoError(t, reg.CallbackNotFound()(nil))
	assert.Equal(t, []string{"text", "document", "callback"}, calls)
}

func TestApplyNilProvider(t *testing.T) {
	opts := Apply(tg.NewRegistry(), nil)
	assert.Nil(t, opts.UnknownText)
	assert.Nil(t, opts.UnknownDocument)
}
