package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/leadgenbot/core/logger"
	"github.com/m3rciful/leadgenbot/core/telegram/netutil"
	"github.com/m3rciful/leadgenbot/core/telegram/sender"
	"github.com/m3rciful/leadgenbot/internal/catalog"
	"github.com/m3rciful/leadgenbot/internal/lead"
)

func sampleRecord() lead.Record {
	return lead.Record{
		ID:          "0f8d2c3e-5b1a-4a57-9c77-1d2e3f4a5b6c",
		Order:       lead.Order{Geo: "italy", LeadType: catalog.Hot, Quantity: "300", Contact: "@ann", Notes: ""},
		Submitter:   lead.Submitter{Name: "Ann", Username: "ann", ChatID: 5},
		SubmittedAt: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}
}

type countingLogger struct {
	mu     sync.Mutex
	calls  int
	orders []string
	ids    []string
	fail   error
}

func (c *countingLogger) LogOrder(ctx context.Context, r lead.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.orders = append(c.orders, r.ID)
	c.ids = append(c.ids, logger.MetaFrom(ctx).OrderID)
	return c.fail
}

func (c *countingLogger) Notify(ctx context.Context, r lead.Record) error {
	return c.LogOrder(ctx, r)
}

func (c *countingLogger) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type funcQueue func(ctx context.Context, action, endpoint string, run func(context.Context) error) error

func (f funcQueue) Enqueue(ctx context.Context, action, endpoint string, run func(context.Context) error) error {
	return f(ctx, action, endpoint, run)
}

func TestServiceSubmitsOneJobPerTarget(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 2, MaxRetries: 0, Component: "notify"})
	op, lg := &countingLogger{}, &countingLogger{}
	svc := NewService(Options{Queue: d, Notifier: op, Loggers: []OrderLogger{lg, nil}})

	ctx, cancel := context.WithCancel(context.Background())
	svc.Submit(ctx, sampleRecord())
	cancel()
	d.Close()

	assert.Equal(t, 1, op.Calls())
	assert.Equal(t, 1, lg.Calls())
	assert.Equal(t, []string{sampleRecord().ID}, lg.ids)
}

func TestServiceRetriesRetryableFailures(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	lg := &countingLogger{fail: &netutil.StatusError{Code: 502}}
	svc := NewService(Options{Queue: d, Loggers: []OrderLogger{lg}})

	svc.Submit(context.Background(), sampleRecord())
	d.Close()

	assert.Equal(t, 3, lg.Calls())
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestServiceFallsBackWhenQueueRejects(t *testing.T) {
	lg := &countingLogger{}
	q := funcQueue(func(context.Context, string, string, func(context.Context) error) error { return sender.ErrQueueFull })
	svc := NewService(Options{Queue: q, Loggers: []OrderLogger{lg}})

	svc.Submit(context.Background(), sampleRecord())
	require.Eventually(t, func() bool { return lg.Calls() == 1 }, time.Second, time.Millisecond)
}

func TestServiceDropsOnUnexpectedQueueError(t *testing.T) {
	lg := &countingLogger{}
	q := funcQueue(func(context.Context, string, string, func(context.Context) error) error { return errors.New("nil run") })
	svc := NewService(Options{Queue: q, Loggers: []OrderLogger{lg}})

	svc.Submit(context.Background(), sampleRecord())
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, lg.Calls())
}

func TestServiceNilIsNoop(t *testing.T) {
	var svc *Service
	assert.NotPanics(t, func() {
		svc.Submit(context.Background(), sampleRecord())
		svc.Track(context.Background(), Update{})
	})
}

type updateRecorder struct {
	mu  sync.Mutex
	got []Update
}

func (u *updateRecorder) LogUpdate(_ context.Context, up Update) error {
	u.mu.Lock()
	u.got = append(u.got, up)
	u.mu.Unlock()
	return nil
}

func TestServiceTrack(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 1})
	rec := &updateRecorder{}
	svc := NewService(Options{Queue: d, Updates: rec})

	svc.Track(context.Background(), Update{UpdateID: 9, Kind: "message", Text: "hi"})
	d.Close()

	require.Len(t, rec.got, 1)
	assert.Equal(t, 9, rec.got[0].UpdateID)

	// Without an update logger Track does nothing.
	NewService(Options{}).Track(context.Background(), Update{UpdateID: 1})
}

