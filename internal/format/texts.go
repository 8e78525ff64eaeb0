package format

import (
	"github.com/m3rciful/leadgenbot/internal/catalog"
)

// Welcome answers /start.
const Welcome = "Hey! I’m Nick 🤖\nI help you with Forex/Crypto leads. Type /menu\nReady to buy? Type /order"

// Menu answers /menu.
const Menu = "Choose:\n" +
	"/live - Live Leads\n" +
	"/hot - Hot Leads\n" +
	"/recovery - Recovery Leads\n" +
	"/ftd - FTDs\n" +
	"/readyftd - Ready FTDs\n" +
	"/pricing - Pricing & MOQs\n" +
	"/geos - Prices by GEO\n" +
	"/order - Place an order"

// Help answers /help.
const Help = "How it works:\n" +
	"1. /menu shows all products\n" +
	"2. /geos lists prices per GEO\n" +
	"3. /order walks you through an order (GEO, type, quantity, contact, notes)\n" +
	"4. /cancel drops an order in progress\n" +
	"You can also type /order followed by a GEO, e.g. /order Italy"

// PricingOverview answers /pricing.
const PricingOverview = "Pricing & MOQs:\n" +
	"Live: $50–$110 (MOQ 100)\n" +
	"Hot: $10 (MOQ 300)\n" +
	"Recovery: $10 (MOQ 300)\n" +
	"FTDs: $1000–$1350 (MOQ 5)\n" +
	"Ready FTDs: $2000–$2400"

// Hint answers free text when no order is in progress.
const Hint = "Tell me what you need:\n" +
	"• Type /menu to see all products\n" +
	"• Type /geos to see prices by GEO\n" +
	"• Type /order to place an order"

var products = map[catalog.LeadType]string{
	catalog.Live:     "• Live Leads: $50–$110 (geo-dependent)\n• Fresh opt-ins, AI+human filtered\n• MOQ: 100\nPay: USDT TRC20",
	catalog.Hot:      "• Hot Leads: $10\n• Registered + clicked deposit CTA\n• MOQ: 300\nPay: USDT TRC20",
	catalog.Recovery: "• Recovery: $10\n• Past depositors, reactivation potential\n• MOQ: 300\nPay: USDT TRC20",
	catalog.FTD:      "• FTDs: $1000–$1350 (geo/volume)\n• Ready to trade, 10%+ close rate\n• MOQ: 5\nPay: USDT TRC20",
	catalog.ReadyFTD: "• Ready FTDs: $2000–$2400\n• KYC done, $250+ deposited\n• You focus on retention\nPay: USDT TRC20",
}

// Product answers the per-product commands (/live, /hot, ...).
func Product(t catalog.LeadType) string {
	if text, ok := products[t]; ok {
		return text
	}
	return "• " + t.Label() + "\n• " + t.Pitch()
}
