package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestSplitRawData(t *testing.T) {
	key, payload := Split(&tele.Callback{Data: "\fgeo|united_kingdom"})
	if key != "geo" || payload != "united_kingdom" {
		t.Fatalf("got %q %q", key, payload)
	}
}

func TestSplitPreMatched(t *testing.T) {
	key, payload := Split(&tele.Callback{Unique: "confirm", Data: "yes"})
	if key != "confirm" || payload != "yes" {
		t.Fatalf("got %q %q", key, payload)
	}
}

func TestSplitWithoutPayload(t *testing.T) {
	key, payload := Split(&tele.Callback{Data: Data("index", "")})
	if key != "index" || payload != "" {
		t.Fatalf("got %q %q", key, payload)
	}
}

func TestSplitKeepsPipesInPayload(t *testing.T) {
	_, payload := ParseData(Data("quote", "a|b"))
	if payload != "a|b" {
		t.Fatalf("payload = %q", payload)
	}
}

func TestSplitNil(t *testing.T) {
	if k, p := Split(nil); k != "" || p != "" {
		t.Fatalf("got %q %q", k, p)
	}
}
