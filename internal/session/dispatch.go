package session

import (
	"errors"
	"sync"
)

// errDispatcherClosed is returned once the dispatcher has been shut down.
var errDispatcherClosed = errors.New("dispatcher closed")

// dispatcher serializes all view-model state changes onto a single
// goroutine. Chat transport callbacks, SDK callbacks and UI commands arrive
// from different goroutines; funneling them through one queue keeps the
// transcript and flags consistent without locks on every field.
type dispatcher struct {
	mu     sync.RWMutex
	closed bool
	q      chan func()
	done   chan struct{}
}

func newDispatcher(queueSize int) *dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &dispatcher{
		q:    make(chan func(), queueSize),
		done: make(chan struct{}),
	}
	go func() {
		defer close(d.done)
		for fn := range d.q {
			if fn != nil {
				fn()
			}
		}
	}()
	return d
}

// do queues fn without waiting for it to run. Must not be called from
// inside a dispatched function when the queue may be full.
func (d *dispatcher) do(fn func()) error {
	if fn == nil {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return errDispatcherClosed
	}
	d.q <- fn
	return nil
}

// call runs fn on the dispatcher goroutine and waits for its result.
func call[T any](d *dispatcher, fn func() T) (T, error) {
	done := make(chan T, 1)
	if err := d.do(func() { done <- fn() }); err != nil {
		var zero T
		return zero, err
	}
	return <-done, nil
}

// close drains queued work and stops the goroutine.
func (d *dispatcher) close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.q)
	}
	d.mu.Unlock()
	<-d.done
}
