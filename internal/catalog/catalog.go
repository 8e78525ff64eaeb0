// Package catalog holds the geography price list: lead type prices and
// minimum order quantities per sales region.
package catalog

import (
	"regexp"
	"slices"
	"strings"
)

// LeadType identifies one of the fixed product categories.
type LeadType string

const (
	Live     LeadType = "live"
	Hot      LeadType = "hot"
	Recovery LeadType = "recovery"
	FTD      LeadType = "ftd"
	ReadyFTD LeadType = "readyftd"
)

var leadTypes = []LeadType{Live, Hot, Recovery, FTD, ReadyFTD}

var leadMeta = map[LeadType]struct{ label, pitch string }{
	Live:     {"Live Leads", "Fresh opt-ins, AI+human filtered"},
	Hot:      {"Hot Leads", "Registered + clicked deposit CTA"},
	Recovery: {"Recovery Leads", "Past depositors, reactivation potential"},
	FTD:      {"FTDs", "Ready to trade, 10%+ close rate"},
	ReadyFTD: {"Ready FTDs", "KYC done, $250+ deposited"},
}

// LeadTypes returns the lead types in display order.
func LeadTypes() []LeadType {
	return slices.Clone(leadTypes)
}

// Valid reports whether t is one of the known lead types.
func (t LeadType) Valid() bool {
	_, ok := leadMeta[t]
	return ok
}

// Label is the human-readable product name.
func (t LeadType) Label() string {
	if m, ok := leadMeta[t]; ok {
		return m.label
	}
	return string(t)
}

// Pitch is the one-line product description.
func (t LeadType) Pitch() string {
	return leadMeta[t].pitch
}

// ParseLeadType matches free text such as "hot", "Ready FTDs" or "/ftd".
func ParseLeadType(s string) (LeadType, bool) {
	key := strings.TrimPrefix(Normalize(s), "/")
	key = strings.ReplaceAll(key, "_", "")
	key = strings.TrimSuffix(key, "leads")
	key = strings.TrimSuffix(key, "s")
	t := LeadType(key)
	return t, t.Valid()
}

// Price is the unit price and minimum order quantity of one lead type.
type Price struct {
	Price int
	MOQ   int
}

// Entry is the price list of a single geography.
type Entry struct {
	Key    string
	Prices map[LeadType]Price
}

// Price returns the price of t within the entry.
func (e Entry) Price(t LeadType) (Price, bool) {
	p, ok := e.Prices[t]
	return p, ok
}

// Catalog is immutable after construction and safe for concurrent reads.
type Catalog struct {
	payment string
	keys    []string
	entries map[string]Entry
}

// Lookup normalizes key and returns its entry.
func (c *Catalog) Lookup(key string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.entries[Normalize(key)]
	return e, ok
}

// Keys returns geography keys in file order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.keys)
}

// Payment is the payment instruction printed under every price list.
func (c *Catalog) Payment() string {
	if c == nil {
		return ""
	}
	return c.payment
}

// Len returns the number of geographies.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

var spaceRun = regexp.MustCompile(`\s+`)

// Normalize trims and lowercases key and turns whitespace runs into "_".
func Normalize(key string) string {
	return spaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(key)), "_")
}
