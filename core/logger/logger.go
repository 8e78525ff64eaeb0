// Package logger configures the process-wide structured slog logger and the
// helpers every layer uses to emit component/event log lines.
package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/m3rciful/leadgenbot/core/buildinfo"
	coreconfig "github.com/m3rciful/leadgenbot/core/config"
)

var (
	initOnce sync.Once

	shutdownOnce sync.Once
	shutdownErr  error
	writers      []*asyncWriter
	closers      []io.Closer

	levelVar slog.LevelVar

	// Debug sampling: sampleNum out of every sampleDen events pass.
	sampleNum   atomic.Uint64
	sampleDen   atomic.Uint64
	sampleCount atomic.Uint64
	traceAll    atomic.Bool

	// L is the base logger. It discards output until InitLogger runs.
	L = slog.New(slog.NewTextHandler(io.Discard, nil))

	// DB logs database events.
	DB = L
	// TG logs Telegram transport events.
	TG = L
	// MIG logs database migration events.
	MIG = L
	// TWire logs Telegram wiring steps.
	TWire = L
	// HTTP logs the health/webhook listener.
	HTTP = L
)

type settings struct {
	format    logFormat
	level     slog.Level
	order     []string
	sampleNum uint64
	sampleDen uint64
	profile   string
}

// InitLogger configures the global structured logger. Only the first call has effect.
func InitLogger(cfg *coreconfig.Config) error {
	initOnce.Do(func() {
		s := settingsFrom(cfg)
		levelVar.Set(s.level)
		sampleNum.Store(s.sampleNum)
		sampleDen.Store(s.sampleDen)
		traceAll.Store(truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE")))

		out, errOut := openSinks(cfg)
		primary := newAsyncWriter(64*1024, out...)
		writers = append(writers, primary)
		var errWriter *asyncWriter
		if len(errOut) > 0 {
			errWriter = newAsyncWriter(16*1024, errOut...)
			writers = append(writers, errWriter)
		}

		L = slog.New(newLineHandler(&levelVar, s.format, s.order, primary, errWriter))
		slog.SetDefault(L)
		DB = Component("db")
		TG = Component("tg")
		MIG = Component("db.migrate")
		TWire = Component("tg.wire")
		HTTP = Component("http")

		mode := ""
		if cfg != nil {
			mode = cfg.Telegram.RunMode
		}
		Info(context.Background(), "app", "startup",
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", s.profile),
			slog.String("mode", mode),
		)
	})
	return nil
}

// Shutdown flushes buffered output and closes log files. Later calls return the first result.
func Shutdown() error {
	shutdownOnce.Do(func() {
		var errs []error
		for _, w := range writers {
			errs = append(errs, w.Close())
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		shutdownErr = errors.Join(errs...)
	})
	return shutdownErr
}

func settingsFrom(cfg *coreconfig.Config) settings {
	s := settings{format: formatJSON, level: slog.LevelInfo, order: defaultKeyOrder, sampleNum: 1, sampleDen: 50, profile: "prod"}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		}
	}
	s.level = parseLevel(lc.Level)
	if order := splitList(lc.KeysOrder); len(order) > 0 && lc.KeysOrder != "default" {
		s.order = order
	}
	if num, den, ok := parseRatio(lc.DebugSample); ok {
		s.sampleNum, s.sampleDen = num, den
	}
	return s
}

// parseRatio reads "n/d", "d" (meaning 1/d) or "0"/"off" (no sampling).
func parseRatio(spec string) (uint64, uint64, bool) {
	spec = strings.ToLower(strings.TrimSpace(spec))
	switch spec {
	case "":
		return 0, 0, false
	case "0", "off", "all":
		return 0, 0, true
	}
	numStr, denStr, found := strings.Cut(spec, "/")
	if !found {
		numStr, denStr = "1", spec
	}
	num, err1 := strconv.ParseUint(strings.TrimSpace(numStr), 10, 64)
	den, err2 := strconv.ParseUint(strings.TrimSpace(denStr), 10, 64)
	if err1 != nil || err2 != nil || num == 0 || den == 0 {
		return 0, 0, false
	}
	return min(num, den), den, true
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// openSinks returns stdout plus the optional bot log file, and the optional
// errors-only file. A file that cannot be opened is reported and skipped.
func openSinks(cfg *coreconfig.Config) (out, errOut []io.Writer) {
	out = []io.Writer{os.Stdout}
	if cfg == nil || strings.TrimSpace(cfg.Logging.Dir) == "" {
		return out, nil
	}
	dir := strings.TrimSpace(cfg.Logging.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: create log dir %s: %v", dir, err)
		return out, nil
	}
	open := func(name string) io.Writer {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("logger: open log file %s: %v", path, err)
			return nil
		}
		closers = append(closers, f)
		return f
	}
	if f := open(cfg.Logging.BotFile); f != nil {
		out = append(out, f)
	}
	if f := open(cfg.Logging.ErrorsFile); f != nil {
		errOut = append(errOut, f)
	}
	return out, errOut
}

// ShouldSampleDebug reports whether a high-volume debug event should be logged.
// TRACE=1 lets every event through.
func ShouldSampleDebug() bool {
	if traceAll.Load() {
		return true
	}
	den := sampleDen.Load()
	if den == 0 {
		return true
	}
	return (sampleCount.Add(1)-1)%den < sampleNum.Load()
}

// Component returns L scoped to the named component.
func Component(name string) *slog.Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent logs attrs under event using logg, or the context logger when logg is nil.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), slog.LevelError, event, attrs...)
}
