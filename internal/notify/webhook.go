package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/leadgenbot/core/telegram/netutil"
	"github.com/m3rciful/leadgenbot/internal/lead"
)

// ErrStatus marks a non-2xx answer from the order log endpoint.
var ErrStatus = errors.New("notify: unexpected status")

const (
	KindOrder  = "order"
	KindUpdate = "update"
)

// Update is the telemetry posted for each inbound update.
type Update struct {
	UpdateID int    `json:"update_id"`
	Kind     string `json:"kind"`
	ChatID   int64  `json:"chat_id,omitempty"`
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
}

// Envelope is the JSON body posted to the order log.
type Envelope struct {
	Kind   string       `json:"kind"`
	At     time.Time    `json:"at"`
	Order  *lead.Record `json:"order,omitempty"`
	Update *Update      `json:"update,omitempty"`
}

// Webhook posts JSON envelopes to an HTTP endpoint.
type Webhook struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewWebhook returns nil when url is empty.
func NewWebhook(url string, client *http.Client) *Webhook {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{url: url, client: client, now: time.Now}
}

// LogOrder implements OrderLogger.
func (w *Webhook) LogOrder(ctx context.Context, r lead.Record) error {
	if w == nil {
		return nil
	}
	return w.post(ctx, Envelope{Kind: KindOrder, At: w.now().UTC(), Order: &r})
}

// LogUpdate implements UpdateLogger.
func (w *Webhook) LogUpdate(ctx context.Context, u Update) error {
	if w == nil {
		return nil
	}
	return w.post(ctx, Envelope{Kind: KindUpdate, At: w.now().UTC(), Update: &u})
}

func (w *Webhook) post(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("notify: encode %s: %w", env.Kind, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post %s: %w", env.Kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%w: %w", ErrStatus, &netutil.StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(snippet)),
		})
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
