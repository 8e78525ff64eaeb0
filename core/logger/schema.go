package logger

import (
	"log/slog"
	"strings"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"
)

// outcomeValues are the accepted values of the "outcome" key. Unknown values
// are dropped.
var outcomeValues = map[string]bool{
	"ok": true, "fail": true, "cancelled": true, "submitted": true, "noop": true,
}

// defaultKeyOrder fixes the leading keys of every line; the rest follow sorted.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "handler", "cb_key",
	"step", "next_step", "order_id", "geo", "lead_type", "outcome",
	"duration_ms", "messages", "kb", "count", "sessions",
	"payload", "lang", "username",
	"mode", "listen", "public_url", "http_code", "sink", "db", "host", "port",
	"err", "err_code", "cause", "attempts", "backoff_ms",
}

func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// normalizeEnums lowercases status and outcome and drops unknown outcomes.
func normalizeEnums(e entry) {
	if s, ok := e["status"].(string); ok && s != "" {
		e["status"] = strings.ToLower(strings.TrimSpace(s))
	}
	if o, ok := e["outcome"].(string); ok && o != "" {
		o = strings.ToLower(strings.TrimSpace(o))
		if outcomeValues[o] {
			e["outcome"] = o
		} else {
			delete(e, "outcome")
		}
	}
}
