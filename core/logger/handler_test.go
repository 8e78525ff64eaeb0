package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// capture runs emit against a fresh handler and returns the written lines.
func capture(t *testing.T, format logFormat, emit func(*slog.Logger)) []string {
	t.Helper()
	buf := &bytes.Buffer{}
	w := newAsyncWriter(1024, buf)
	emit(slog.New(newLineHandler(slog.LevelInfo, format, defaultKeyOrder, w, nil)))
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := strings.TrimSpace(buf.String())
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func assertOrdered(t *testing.T, line string, parts ...string) {
	t.Helper()
	pos := -1
	for _, p := range parts {
		idx := strings.Index(line, p)
		if idx <= pos {
			t.Fatalf("%q missing or out of order in %s", p, line)
		}
		pos = idx
	}
}

func TestLineHandlerKVOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-123"), 42, 7, 9)
	lines := capture(t, formatKV, func(l *slog.Logger) {
		LogEvent(ctx, l.With("component", "app"), slog.LevelInfo, "test.event",
			slog.String("status", "OK"),
			slog.String("cause", "unit"),
		)
	})
	if len(lines) != 1 {
		t.Fatalf("want one line, got %q", lines)
	}
	want := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	tokens := strings.Fields(lines[0])
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s", i, tokens[i], prefix)
		}
	}
	if tokens[len(tokens)-1] != "cause=unit" {
		t.Fatalf("unordered keys should trail: %s", lines[0])
	}
}

func TestLineHandlerJSONOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-json")
	lines := capture(t, formatJSON, func(l *slog.Logger) {
		LogEvent(ctx, l.With("component", "notify"), slog.LevelError, "order.failed",
			slog.String("status", "fail"),
			slog.Any("err", errors.New("boom")),
		)
	})
	assertOrdered(t, lines[0], `{"ts":`, `"level":"ERROR"`, `"component":"notify"`, `"event":"order.failed"`, `"status":"fail"`, `"rid":"rid-json"`, `"err":"boom"`)
}

func TestLineHandlerCompactsRID(t *testing.T) {
	rid := BuildRID(123, 456, 789)
	ctx := WithRID(context.Background(), rid)
	emit := func(l *slog.Logger) { LogEvent(ctx, l, slog.LevelInfo, "rid.test") }

	kv := capture(t, formatKV, emit)[0]
	if !strings.Contains(kv, "rid="+CompactRID(rid)) || strings.Contains(kv, "rid_full") {
		t.Fatalf("kv rid: %s", kv)
	}

	js := capture(t, formatJSON, emit)[0]
	for _, want := range []string{`"rid":"3f.co.lx"`, `"rid_full":"123:456:789"`, `"ts_unix_nano":`} {
		if !strings.Contains(js, want) {
			t.Fatalf("expected %s in %s", want, js)
		}
	}
}

func TestLineHandlerDefaults(t *testing.T) {
	lines := capture(t, formatKV, func(l *slog.Logger) {
		l.Info("plain message", "empty", "", "outcome", "weird")
		l.Debug("hidden")
	})
	if len(lines) != 1 {
		t.Fatalf("debug should be filtered: %q", lines)
	}
	line := lines[0]
	for _, want := range []string{"component=app", `event="plain message"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
	for _, absent := range []string{"empty=", "outcome="} {
		if strings.Contains(line, absent) {
			t.Fatalf("unexpected %s in %s", absent, line)
		}
	}
}

func TestLineHandlerGroupsAndDurations(t *testing.T) {
	lines := capture(t, formatKV, func(l *slog.Logger) {
		l.WithGroup("http").Info("req",
			slog.Duration("duration", 1500*time.Microsecond),
			slog.Group("retry", slog.Duration("backoff", 250*time.Millisecond)),
		)
		l.Info("boot", slog.Duration("startup_duration", 2*time.Second))
	})
	for _, want := range []string{"http.duration_ms=2", "http.retry.backoff_ms=250"} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("expected %s in %s", want, lines[0])
		}
	}
	if !strings.Contains(lines[1], "startup_duration_ms=2000") {
		t.Fatalf("duration key: %s", lines[1])
	}
}

func TestLineHandlerRoutesErrors(t *testing.T) {
	main, errs := &bytes.Buffer{}, &bytes.Buffer{}
	mw, ew := newAsyncWriter(1024, main), newAsyncWriter(1024, errs)
	l := slog.New(newLineHandler(slog.LevelInfo, formatKV, nil, mw, ew)).With("component", "notify")

	ctx := WithOrderID(context.Background(), "ord-1")
	LogEvent(ctx, l, slog.LevelInfo, "dispatch.ok")
	LogEvent(ctx, l, slog.LevelError, "dispatch.fail")
	for _, w := range []*asyncWriter{mw, ew} {
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	if n := strings.Count(main.String(), "\n"); n != 2 {
		t.Fatalf("main sink has %d lines: %q", n, main.String())
	}
	errLine := strings.TrimSpace(errs.String())
	if strings.Contains(errLine, "\n") || !strings.Contains(errLine, "event=dispatch.fail") || !strings.Contains(errLine, "order_id=ord-1") {
		t.Fatalf("errors sink: %q", errLine)
	}
}

func TestAsyncWriterRejectsAfterClose(t *testing.T) {
	w := newAsyncWriter(0, &bytes.Buffer{})
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Write([]byte("late\n")); !errors.Is(err, errWriterClosed) {
		t.Fatalf("want errWriterClosed, got %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterReportsSinkError(t *testing.T) {
	w := newAsyncWriter(1, failingWriter{})
	_ = w.Write([]byte("line\n"))
	if err := w.Close(); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("want sink error, got %v", err)
	}
}

func TestMetaAccumulates(t *testing.T) {
	ctx := WithRID(context.Background(), "r")
	ctx = WithHandler(ctx, "/order")
	ctx = WithHandler(ctx, "")
	ctx = WithOrderID(ctx, "o-1")
	got := MetaFrom(ctx)
	if got.RID != "r" || got.Handler != "/order" || got.OrderID != "o-1" {
		t.Fatalf("meta: %+v", got)
	}
	if MetaFrom(context.Background()) != (Meta{}) {
		t.Fatal("empty context should carry zero meta")
	}
}

func TestParseRatio(t *testing.T) {
	cases := []struct {
		in       string
		num, den uint64
		ok       bool
	}{
		{"", 0, 0, false},
		{"off", 0, 0, true},
		{"10", 1, 10, true},
		{"3/4", 3, 4, true},
		{"9/4", 4, 4, true},
		{"x/4", 0, 0, false},
		{"0/4", 0, 0, false},
	}
	for _, tc := range cases {
		num, den, ok := parseRatio(tc.in)
		if num != tc.num || den != tc.den || ok != tc.ok {
			t.Errorf("parseRatio(%q) = %d/%d %v", tc.in, num, den, ok)
		}
	}
}

func TestShouldSampleDebug(t *testing.T) {
	t.Cleanup(func() {
		sampleNum.Store(0)
		sampleDen.Store(0)
		sampleCount.Store(0)
	})
	sampleNum.Store(1)
	sampleDen.Store(4)
	sampleCount.Store(0)

	hits := 0
	for range 8 {
		if ShouldSampleDebug() {
			hits++
		}
	}
	if hits != 2 {
		t.Fatalf("want 2 of 8 sampled, got %d", hits)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bcdef", 3); got != "abc" {
		t.Fatalf("got %q", got)
	}
	if got := Sanitize("line\nnext\ttab"); got != "line\nnext\ttab" {
		t.Fatalf("got %q", got)
	}
}

func TestPreview(t *testing.T) {
	files := []string{"a", "b", "c"}
	if got, left := Preview(files, 2); got != "a, b" || left != 1 {
		t.Fatalf("got %q, %d", got, left)
	}
	if got, left := Preview(files, 10); got != "a, b, c" || left != 0 {
		t.Fatalf("got %q, %d", got, left)
	}
	if got, left := Preview(files, -1); got != "" || left != 3 {
		t.Fatalf("got %q, %d", got, left)
	}
}
