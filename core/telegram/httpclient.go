package telegram

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/leadgenbot/core/telegram/netutil"
)

const (
	defaultClientTimeout = 30 * time.Second
	defaultRetryAttempts = 3
	defaultRetryBackoff  = 2 * time.Second
)

// HTTPClientOptions tunes NewHTTPClient. Zero values fall back to the Telegram defaults.
type HTTPClientOptions struct {
	Timeout time.Duration
	// Retries is the number of extra attempts after a transient transport
	// error; negative disables retries.
	Retries int
	Backoff time.Duration
}

// BuildHTTPClient returns the client used for Telegram Bot API calls.
func BuildHTTPClient() *http.Client {
	return NewHTTPClient(HTTPClientOptions{})
}

// NewHTTPClient returns a pooled client whose transport retries dial and
// timeout failures. Status codes are left to the caller.
func NewHTTPClient(opts HTTPClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultClientTimeout
	}
	if opts.Retries == 0 {
		opts.Retries = defaultRetryAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultRetryBackoff
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &retryTransport{base: base, maxRetries: max(opts.Retries, 0), backoff: opts.Backoff},
	}
}

// retryTransport repeats a round trip that failed before any response arrived.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

var errNoRewind = errors.New("request body cannot be replayed")

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.maxRetries && netutil.ShouldRetry(err); attempt++ {
		retry, rerr := rewind(req)
		if rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		if werr := sleepCtx(req.Context(), t.backoff*time.Duration(attempt)); werr != nil {
			return nil, werr
		}
		resp, err = t.base.RoundTrip(retry)
	}
	return resp, err
}

// rewind clones req with a fresh body for another attempt.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errNoRewind
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
