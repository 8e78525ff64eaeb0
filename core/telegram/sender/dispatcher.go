// Package sender runs outbound deliveries on a small worker pool so slow or
// flaky endpoints never block update handling.
package sender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrQueueClosed is returned by Enqueue once Close has been called.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull means every queue slot is taken; the job was dropped.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options tunes a Dispatcher. Zero values pick the defaults below.
type Options struct {
	QueueSize    int           // default 256
	Workers      int           // default 4
	MaxRetries   int           // extra attempts after the first; default 0
	RetryBackoff time.Duration // grows linearly per attempt; default 2s
	MaxDuration  time.Duration // budget for one job across attempts; default 12s
	Component    string        // logger scope; default "tg.sender"
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	if o.Component == "" {
		o.Component = "tg.sender"
	}
	return o
}

// Job is one queued delivery. Run may be called more than once; its context
// expires when the job exceeds MaxDuration.
type Job struct {
	Ctx      context.Context
	Action   string
	Endpoint string
	Run      func(ctx context.Context) error
}

// Dispatcher is a bounded queue drained by a fixed set of workers.
type Dispatcher struct {
	opts Options
	jobs chan Job

	mu     sync.RWMutex
	closed bool

	stop    sync.Once
	workers sync.WaitGroup
	failed  atomic.Uint64
}

// NewDispatcher starts the workers immediately.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, jobs: make(chan Job, opts.QueueSize)}
	for range opts.Workers {
		d.workers.Add(1)
		go func() {
			defer d.workers.Done()
			for j := range d.jobs {
				d.deliver(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run without blocking. It fails with ErrQueueFull rather
// than wait for a free slot.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func(context.Context) error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- Job{Ctx: ctx, Action: action, Endpoint: endpoint, Run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount reports how many jobs were given up on.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.failed.Load()
}

// Close rejects new jobs and blocks until queued ones are finished.
func (d *Dispatcher) Close() {
	d.stop.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
		d.workers.Wait()
	})
}
