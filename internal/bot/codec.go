package bot

import (
	"github.com/m3rciful/leadgenbot/internal/catalog"
	"github.com/m3rciful/leadgenbot/internal/order"
)

// Callback uniques. Button data is "\f<unique>|<payload>" and must stay under 64 bytes.
const (
	keyGeo     = "geo"
	keyType    = "type"
	keyConfirm = "confirm"
	keyCancel  = "cancel"
	keyBrowse  = "browse"
	keyIndex   = "index"
	keyQuote   = "quote"
)

const (
	answerYes = "yes"
	answerNo  = "no"
)

var callbackKeys = []string{keyGeo, keyType, keyConfirm, keyCancel, keyBrowse, keyIndex, keyQuote}

// encode maps a button event onto its callback unique and payload.
func encode(ev order.Event) (unique, data string, ok bool) {
	switch e := ev.(type) {
	case order.ChooseGeo:
		return keyGeo, e.Key, true
	case order.ChooseType:
		return keyType, string(e.Type), true
	case order.Confirm:
		if e.Accept {
			return keyConfirm, answerYes, true
		}
		return keyConfirm, answerNo, true
	case order.Cancel:
		return keyCancel, "", true
	case order.BrowseGeo:
		return keyBrowse, e.Key, true
	case order.BrowseIndex:
		return keyIndex, "", true
	case order.Start:
		return keyQuote, e.Geo, true
	default:
		return "", "", false
	}
}

// decode is the inverse of encode. Malformed payloads report false.
func decode(unique, data string) (order.Event, bool) {
	switch unique {
	case keyGeo:
		if data == "" {
			return nil, false
		}
		return order.ChooseGeo{Key: data}, true
	case keyType:
		t := catalog.LeadType(data)
		if !t.Valid() {
			return nil, false
		}
		return order.ChooseType{Type: t}, true
	case keyConfirm:
		switch data {
		case answerYes:
			return order.Confirm{Accept: true}, true
		case answerNo:
			return order.Confirm{Accept: false}, true
		}
		return nil, false
	case keyCancel:
		return order.Cancel{ViaButton: true}, true
	case keyBrowse:
		if data == "" {
			return nil, false
		}
		return order.BrowseGeo{Key: data}, true
	case keyIndex:
		return order.BrowseIndex{}, true
	case keyQuote:
		if data == "" {
			return nil, false
		}
		return order.Start{Geo: data}, true
	default:
		return nil, false
	}
}
