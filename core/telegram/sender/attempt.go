package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/leadgenbot/core/logger"
	"github.com/m3rciful/leadgenbot/core/telegram/netutil"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// deliver runs j until it succeeds, fails permanently, runs out of attempts
// or exceeds MaxDuration.
func (d *Dispatcher) deliver(j Job) {
	ctx, cancel := context.WithTimeout(j.Ctx, d.opts.MaxDuration)
	defer cancel()

	base := []slog.Attr{slog.String("action", j.Action)}
	if j.Endpoint != "" {
		base = append(base, slog.String("endpoint", j.Endpoint))
	}
	logger.Debug(j.Ctx, d.opts.Component, "send.start", base...)

	start := time.Now()
	limit := d.opts.MaxRetries + 1
	attempt, err := 0, error(nil)
	for attempt < limit {
		attempt++
		if err = j.Run(ctx); err == nil {
			break
		}
		if attempt == limit || !netutil.ShouldRetry(err) {
			break
		}
		if err = d.pause(ctx, attempt); err != nil {
			break
		}
	}

	attrs := append(base, slog.Int("attempt", attempt), slog.Duration("duration", time.Since(start)))
	if err == nil {
		event := "send.success"
		if attempt > 1 {
			event = "send.retry.success"
		}
		logger.Debug(j.Ctx, d.opts.Component, event, attrs...)
		return
	}

	d.failed.Add(1)
	logger.Error(j.Ctx, d.opts.Component, "send.fail", append(attrs,
		slog.String("error", redact(err)),
		slog.String("error_kind", errorKind(err)),
	)...)
}

// pause waits out the backoff for the given attempt, or returns the context
// error if the job budget runs out first.
func (d *Dispatcher) pause(ctx context.Context, attempt int) error {
	delay := d.opts.RetryBackoff * time.Duration(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		logger.Debug(ctx, d.opts.Component, "send.retry.backoff",
			slog.Int("attempt", attempt), slog.Duration("delay", delay))
		return nil
	}
}

// errorKind buckets a delivery error into a low-cardinality label for logs.
func errorKind(err error) string {
	var (
		dnsErr  *net.DNSError
		opErr   *net.OpError
		netErr  net.Error
		tlsErr  tls.AlertError
		certErr *tls.CertificateVerificationError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.As(err, &dnsErr):
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return "dial"
	case errors.As(err, &tlsErr), errors.As(err, &certErr):
		return "tls"
	}

	switch code := statusOf(err); {
	case code >= 500:
		return "http_5xx"
	case code == http.StatusTooManyRequests:
		return "rate_limited"
	case code >= 400:
		return "http_4xx"
	}
	return "unknown"
}

func statusOf(err error) int {
	var (
		statusErr *netutil.StatusError
		apiErr    *tele.Error
		floodErr  tele.FloodError
		groupErr  tele.GroupError
	)
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Code
	case errors.As(err, &floodErr):
		return http.StatusTooManyRequests
	case errors.As(err, &groupErr):
		return http.StatusBadRequest
	case errors.As(err, &apiErr):
		return apiErr.Code
	}
	return 0
}

// redact strips bot tokens that net/http embeds in request URLs.
func redact(err error) string {
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
