package telegram

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func get(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServerHealthRoutes(t *testing.T) {
	h := NewServerHandler(ServerOptions{})
	for _, path := range []string{"/", "/healthz"} {
		rec := get(t, h, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, HealthBody, rec.Body.String(), path)
	}
	assert.Equal(t, http.StatusOK, get(t, h, http.MethodHead, "/").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, http.MethodPost, "/telegram/secret").Code)
}

func TestServerMountsWebhook(t *testing.T) {
	var body string
	hook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusNoContent)
	})
	wh := WebhookOptions{URL: "https://bot.example.com/", Secret: "s3cret"}
	srv := httptest.NewServer(NewServerHandler(ServerOptions{WebhookPath: wh.Path(), Webhook: hook}))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/telegram/s3cret", "application/json", strings.NewReader(`{"update_id":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, `{"update_id":1}`, body)
}

func TestWebhookOptions(t *testing.T) {
	wh := WebhookOptions{URL: "https://bot.example.com/", Secret: "abc"}
	assert.Equal(t, "/telegram/abc", wh.Path())
	assert.Equal(t, "https://bot.example.com/telegram/abc", wh.PublicURL())
}

func TestBuildPoller(t *testing.T) {
	lp, ok := BuildPoller(PollerOptions{}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, lp.Timeout)

	lp, ok = BuildPoller(PollerOptions{RunMode: "polling", LongPollTimeoutSeconds: 25}).(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, 25*time.Second, lp.Timeout)

	hook, ok := BuildPoller(PollerOptions{
		RunMode: " Webhook ",
		Webhook: WebhookOptions{URL: "https://bot.example.com", Secret: "abc"},
	}).(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "abc", hook.SecretToken)
	assert.Equal(t, "https://bot.example.com/telegram/abc", hook.Endpoint.PublicURL)
	assert.Empty(t, hook.Listen)
}

func TestRunTelegramRequiresConfig(t *testing.T) {
	assert.Error(t, RunTelegram(t.Context(), RunOptions{}))
	_, err := NewBot(nil)
	assert.Error(t, err)
}
