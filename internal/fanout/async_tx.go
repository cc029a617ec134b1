// Package fanout provides a single-goroutine, non-blocking event publisher:
// a producer enqueues decoded events and a dedicated worker goroutine drains
// them one at a time, so a slow downstream sink (Redis, a log file, a
// websocket bridge) never blocks the engine's receive loop.
package fanout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/texmon-go/texmon/internal/event"
)

// AsyncTx funnels event publishes through a single goroutine (fan-in). It
// provides non-blocking enqueue semantics: if the internal buffer is full,
// SendEvent invokes the configured OnDrop hook and returns its error (usually
// an overflow sentinel). This keeps the engine's receive loop from blocking
// behind a wedged sink.
//
// Life-cycle:
//
//	a := NewAsyncTx(ctx, buf, publishFn, hooks)
//	a.SendEvent(ev)
//	a.Close()
//
// After Close returns no more events will be processed and the channel is
// closed; SendEvent after Close returns ErrAsyncTxClosed.
type AsyncTx struct {
	mu     sync.Mutex
	ch     chan event.Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	send   func(event.Event) error
	hooks  Hooks
	closed atomic.Bool
}

// Hooks customize AsyncTx behavior.
type Hooks struct {
	// OnError is called when send returns a non-nil error (event not published).
	OnError func(error)
	// OnAfter is called only after a successful send.
	OnAfter func()
	// OnDrop is called when the buffer is full; its returned error is returned
	// from SendEvent. If nil, the overflow is silent (best-effort fire-and-forget).
	OnDrop func() error
}

// NewAsyncTx constructs an AsyncTx with a buffered channel of size buf.
func NewAsyncTx(parent context.Context, buf int, send func(event.Event) error, hooks Hooks) *AsyncTx {
	ctx, cancel := context.WithCancel(parent)
	a := &AsyncTx{
		ch:     make(chan event.Event, buf),
		ctx:    ctx,
		cancel: cancel,
		send:   send,
		hooks:  hooks,
	}
	a.wg.Add(1)
	go a.loop()
	return a
}

func (a *AsyncTx) loop() {
	defer a.wg.Done()
	for {
		select {
		case ev, ok := <-a.ch:
			if !ok {
				return
			}
			if err := a.send(ev); err != nil {
				if a.hooks.OnError != nil {
					a.hooks.OnError(err)
				}
				continue
			}
			if a.hooks.OnAfter != nil {
				a.hooks.OnAfter()
			}
		case <-a.ctx.Done():
			return
		}
	}
}

// ErrAsyncTxClosed is returned by SendEvent once Close has been called.
var ErrAsyncTxClosed = errors.New("async tx closed")

// SendEvent queues an event for asynchronous publishing, or returns the drop
// error if the buffer is full.
func (a *AsyncTx) SendEvent(ev event.Event) error {
	if a.closed.Load() {
		return ErrAsyncTxClosed
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed.Load() {
		return ErrAsyncTxClosed
	}
	select {
	case a.ch <- ev:
		return nil
	default:
		if a.hooks.OnDrop != nil {
			return a.hooks.OnDrop()
		}
		return nil
	}
}

// Close stops the worker and waits for it to exit. Events still queued when
// Close is called may be discarded without being sent.
func (a *AsyncTx) Close() {
	if a.closed.Swap(true) {
		return
	}
	a.cancel()
	a.mu.Lock()
	close(a.ch)
	a.mu.Unlock()
	a.wg.Wait()
}
