// Package format renders catalog entries and orders as Telegram Markdown text.
// User-supplied values are escaped; everything else is trusted static text.
package format

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	tgformat "github.com/m3rciful/leadgenbot/core/telegram/format"
	"github.com/m3rciful/leadgenbot/internal/catalog"
	"github.com/m3rciful/leadgenbot/internal/lead"
)

// Empty stands in for missing optional values.
const Empty = "—"

// DisplayGeo turns a catalog key into a title: united_kingdom → United Kingdom.
func DisplayGeo(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || unicode.IsSpace(r) })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// GeoLabel renders a stored geography: catalog keys get their title, free text stays as typed.
func GeoLabel(geo string, cat *catalog.Catalog) string {
	if e, ok := cat.Lookup(geo); ok {
		return DisplayGeo(e.Key)
	}
	return geo
}

// PriceLine renders one lead type of a price list.
func PriceLine(t catalog.LeadType, p catalog.Price) string {
	return fmt.Sprintf("• %s: $%d (MOQ %d)", t.Label(), p.Price, p.MOQ)
}

// GeoPricing renders a heading, one line per lead type in display order and the payment footer.
func GeoPricing(geo string, e catalog.Entry, payment string) string {
	var b strings.Builder
	b.WriteString("*" + Escape(DisplayGeo(geo)) + "*\n")
	for _, t := range catalog.LeadTypes() {
		p, ok := e.Price(t)
		if !ok {
			continue
		}
		b.WriteString(PriceLine(t, p))
		b.WriteByte('\n')
	}
	b.WriteString("Pay: " + Escape(payment))
	return b.String()
}

// CatalogIndex groups keys into rows of width. width <= 0 puts one key per row.
func CatalogIndex(keys []string, width int) [][]string {
	if width <= 0 {
		width = 1
	}
	rows := make([][]string, 0, (len(keys)+width-1)/width)
	for i := 0; i < len(keys); i += width {
		end := min(i+width, len(keys))
		row := make([]string, end-i)
		copy(row, keys[i:end])
		rows = append(rows, row)
	}
	return rows
}

// Summary renders the order as collected so far. A price line is added when
// both the geography and the lead type are in the catalog.
func Summary(o lead.Order, cat *catalog.Catalog) string {
	lines := []string{
		"*Order summary*",
		"GEO: " + orEmpty(GeoLabel(o.Geo, cat)),
		"Type: " + leadLabel(o.LeadType),
		"Quantity: " + orEmpty(o.Quantity),
		"Contact: " + orEmpty(o.Contact),
		"Notes: " + orEmpty(o.Notes),
	}
	if e, ok := cat.Lookup(o.Geo); ok {
		if p, ok := e.Price(o.LeadType); ok {
			lines = append(lines, fmt.Sprintf("Price: $%d per lead (MOQ %d)", p.Price, p.MOQ))
		}
	}
	return strings.Join(lines, "\n")
}

// OperatorNotice renders the message sent to the operator chat for a submitted order.
func OperatorNotice(r lead.Record, cat *catalog.Catalog) string {
	from := r.Submitter.Name
	if from == "" {
		from = "unknown"
	}
	handle := r.Submitter.Username
	if handle != "" && !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}
	who := Escape(from)
	if handle != "" {
		who += " (" + Escape(handle) + ")"
	}

	lines := []string{
		"🆕 *New order*",
		"ID: " + Escape(r.ID),
		"From: " + who,
		fmt.Sprintf("Chat: %d", r.Submitter.ChatID),
		"GEO: " + orEmpty(GeoLabel(r.Order.Geo, cat)),
		"Type: " + leadLabel(r.Order.LeadType),
		"Quantity: " + orEmpty(r.Order.Quantity),
		"Contact: " + orEmpty(r.Order.Contact),
		"Notes: " + orEmpty(r.Order.Notes),
		"Submitted: " + r.SubmittedAt.UTC().Format(time.DateTime) + " UTC",
	}
	return strings.Join(lines, "\n")
}

func leadLabel(t catalog.LeadType) string {
	if t == "" {
		return Empty
	}
	return Escape(t.Label())
}

func orEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return Empty
	}
	return Escape(s)
}

// Escape prepares user text for a Markdown message.
func Escape(s string) string {
	return tgformat.MustEscapeV1(s)
}
