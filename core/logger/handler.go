package logger

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

// entry is one log line before encoding.
type entry map[string]any

func (e entry) setDefault(key string, v any) {
	if _, ok := e[key]; !ok {
		e[key] = v
	}
}

// add flattens attr (and nested groups) under prefix.
func (e entry) add(prefix string, attr slog.Attr) {
	key := attr.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	v := attr.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			e.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := plainValue(key, v); ok {
		e[k] = val
	}
}

// plainValue converts v into something both encoders print well.
// Durations are reported in milliseconds under a *_ms key.
func plainValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindDuration:
		return msKey(key), millis(v.Duration()), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return "", nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return msKey(key), millis(x), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	default:
		return key + "_ms"
	}
}

// lineHandler is a slog.Handler writing one ordered JSON or key=value line per record.
type lineHandler struct {
	level  slog.Leveler
	format logFormat
	order  []string
	out    *asyncWriter
	// errOut additionally receives ERROR records when set.
	errOut *asyncWriter

	preset entry
	group  string
}

func newLineHandler(level slog.Leveler, format logFormat, order []string, out, errOut *asyncWriter) *lineHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	if len(order) == 0 {
		order = defaultKeyOrder
	}
	return &lineHandler{level: level, format: format, order: order, out: out, errOut: errOut}
}

// Enabled implements slog.Handler.
func (h *lineHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

// WithAttrs implements slog.Handler.
func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preset = make(entry, len(h.preset)+len(attrs))
	for k, v := range h.preset {
		clone.preset[k] = v
	}
	for _, a := range attrs {
		clone.preset.add(h.group, a)
	}
	return &clone
}

// WithGroup implements slog.Handler.
func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "."
	}
	clone.group += name
	return &clone
}

// Handle implements slog.Handler.
func (h *lineHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.out == nil {
		return fmt.Errorf("logger: writer not initialized")
	}

	e := make(entry, len(h.preset)+r.NumAttrs()+8)
	for k, v := range h.preset {
		e[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		e.add(h.group, a)
		return true
	})
	for _, a := range MetaFrom(ctx).fields() {
		if _, ok := e[a.Key]; !ok {
			e.add("", a)
		}
	}

	ts := r.Time.UTC()
	e["ts"] = ts.Truncate(time.Millisecond).Format(tsLayout)
	e["level"] = levelName(r.Level)
	if h.format == formatJSON {
		e["ts_unix_nano"] = ts.UnixNano()
	}
	if rid, ok := e["rid"].(string); ok {
		if compact := CompactRID(rid); compact != rid {
			e["rid"] = compact
			if h.format == formatJSON {
				e.setDefault("rid_full", rid)
			}
		}
	}
	if ev, _ := e["event"].(string); ev == "" {
		e["event"] = cmp.Or(r.Message, "unknown")
	}
	if c, _ := e["component"].(string); c == "" {
		e["component"] = "app"
	}
	normalizeEnums(e)
	for k, v := range e {
		if s, ok := v.(string); ok && s == "" {
			delete(e, k)
		}
	}

	line, err := h.encode(e)
	if err != nil {
		return err
	}
	if h.errOut != nil && r.Level >= slog.LevelError {
		if err := h.errOut.Write(line); err != nil {
			return err
		}
	}
	return h.out.Write(line)
}

func (h *lineHandler) encode(e entry) ([]byte, error) {
	keys := orderedKeys(e, h.order)
	var buf bytes.Buffer
	if h.format == formatJSON {
		buf.WriteByte('{')
		for i, k := range keys {
			v, err := json.Marshal(e[k])
			if err != nil {
				return nil, fmt.Errorf("logger: encode %s: %w", k, err)
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Quote(k))
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteString("}\n")
		return buf.Bytes(), nil
	}
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(kvValue(e[k]))
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// orderedKeys lists the keys of e: those in order first, the rest sorted.
func orderedKeys(e entry, order []string) []string {
	keys := make([]string, 0, len(e))
	for _, k := range order {
		if _, ok := e[k]; ok {
			keys = append(keys, k)
		}
	}
	fixed := len(keys)
	for k := range e {
		if !slices.Contains(keys[:fixed], k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys[fixed:])
	return keys
}

func kvValue(v any) string {
	s := fmt.Sprint(v)
	if strings.IndexFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}
