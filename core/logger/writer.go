package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter moves sink I/O off the logging goroutine. Lines are buffered and
// flushed whenever the queue runs empty.
type asyncWriter struct {
	lines   chan []byte
	flushes chan chan error
	done    chan struct{}
	buf     *bufio.Writer

	// mu guards closed; Write holds it shared while enqueueing.
	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newAsyncWriter(bufSize int, sinks ...io.Writer) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	live := make([]io.Writer, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	w := &asyncWriter{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		done:    make(chan struct{}),
		buf:     bufio.NewWriterSize(io.MultiWriter(live...), bufSize),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.fail(w.buf.Flush())
				return
			}
			if _, err := w.buf.Write(line); err != nil {
				w.fail(err)
				continue
			}
			if len(w.lines) == 0 {
				w.fail(w.buf.Flush())
			}
		case ack := <-w.flushes:
			ack <- w.buf.Flush()
		}
	}
}

// Write queues a copy of p. It blocks when the queue is full rather than drop lines.
func (w *asyncWriter) Write(p []byte) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.lines <- append([]byte(nil), p...)
	return nil
}

// Flush waits until everything queued so far reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushes <- ack:
		return <-ack
	case <-w.done:
		return w.firstErr()
	}
}

// Close drains the queue, flushes and reports the first write error.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.mu.Unlock()
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) fail(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.errMu.Unlock()
}

func (w *asyncWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}
