package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/leadgenbot/core/config"
)

// WebhookPathPrefix is the path under which webhook updates are received.
const WebhookPathPrefix = "/telegram/"

// WebhookOptions declares webhook endpoint settings.
type WebhookOptions struct {
	// URL is the public base URL of the service.
	URL    string
	Secret string
}

// Path returns the secret route the webhook is mounted on.
func (o WebhookOptions) Path() string {
	return WebhookPathPrefix + o.Secret
}

// PublicURL returns the absolute URL registered with Telegram.
func (o WebhookOptions) PublicURL() string {
	return strings.TrimRight(o.URL, "/") + o.Path()
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// BuildPoller returns a Telebot poller based on provided options.
// The webhook poller has no Listen address: it is served by the shared HTTP server.
func BuildPoller(opts PollerOptions) tele.Poller {
	runMode := strings.ToLower(strings.TrimSpace(opts.RunMode))
	if runMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			SecretToken: opts.Webhook.Secret,
			Endpoint:    &tele.WebhookEndpoint{PublicURL: opts.Webhook.PublicURL()},
		}
	}

	timeoutSec := opts.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second}
}
