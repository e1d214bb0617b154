// Package eventloop runs callbacks and timers on a single goroutine.
//
// Everything posted to a Loop, including timer callbacks, runs on the
// goroutine that called Run, one at a time. Code running on the loop may
// therefore share state without locks.
package eventloop

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrStopped is returned when a call is made after the loop has exited.
var ErrStopped = errors.New("event loop stopped")

const queueSize = 64

// Loop is a cooperative, single-goroutine executor.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// New creates a loop. Nothing runs until Run is called.
func New() *Loop {
	return &Loop{
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Run executes posted callbacks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn to run on the loop. It reports false if the loop has
// stopped. Post must not be called from the loop when the queue may be full.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to return. It must not be called
// from the loop itself.
//
// Do either runs fn to completion and returns nil, or returns an error and
// fn never runs. Once fn has started, cancelling ctx no longer interrupts
// the wait.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	var claimed atomic.Bool
	finished := make(chan struct{})
	if !l.Post(func() {
		if !claimed.CompareAndSwap(false, true) {
			return
		}
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}

	var err error
	select {
	case <-finished:
		return nil
	case <-l.done:
		err = ErrStopped
	case <-ctx.Done():
		err = ctx.Err()
	}
	if claimed.CompareAndSwap(false, true) {
		return err
	}
	<-finished
	return nil
}

// Timer is a cancellable token for a callback scheduled with AfterFunc.
// Its methods must be called on the loop.
type Timer struct {
	t         *time.Timer
	cancelled bool
	fired     bool
}

// AfterFunc schedules fn to run on the loop once d has elapsed. It must be
// called on the loop.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	timer := &Timer{}
	timer.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if timer.cancelled {
				return
			}
			timer.fired = true
			fn()
		})
	})
	return timer
}

// Cancel prevents the callback from running. A callback whose timer already
// expired but has not run yet is dropped when it reaches the loop.
// Cancelling a fired or cancelled timer does nothing.
func (t *Timer) Cancel() {
	if t == nil || t.cancelled || t.fired {
		return
	}
	t.cancelled = true
	t.t.Stop()
}

// Pending reports whether the callback may still run.
func (t *Timer) Pending() bool {
	return t != nil && !t.cancelled && !t.fired
}
