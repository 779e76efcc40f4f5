// Package eventloop provides the single logical UI thread the navigator runs
// on. Tasks posted from any goroutine execute one at a time, in order, on the
// goroutine that called Run.
package eventloop

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned when work is handed to a loop that is no longer
// running.
var ErrStopped = errors.New("eventloop: stopped")

// Loop is a serial task queue. The zero value is not usable; call New.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped bool
	done    chan struct{}
	running bool
}

// New creates a loop. Tasks may be posted before Run is called; they execute
// once it starts.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Run executes posted tasks until ctx is cancelled or Stop is called. It must
// be called at most once.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New("eventloop: already running")
	}
	l.running = true
	l.mu.Unlock()

	defer close(l.done)
	defer l.Stop()

	for {
		for {
			task, ok := l.next()
			if !ok {
				break
			}
			task()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.mu.Lock()
			stopped := l.stopped
			l.mu.Unlock()
			if stopped {
				return nil
			}
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped || len(l.queue) == 0 {
		return nil, false
	}
	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task, true
}

// Post queues fn to run on the loop. It never blocks and is safe to call from
// inside a loop task. It reports false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do posts fn and waits for it to finish. It must not be called from a loop
// task.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop discards queued tasks and makes Run return. Safe to call repeatedly.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Timer is a pending AfterFunc task.
type Timer struct {
	t *time.Timer

	mu        sync.Mutex
	cancelled bool
}

// Stop prevents the task from running if it has not started yet. It reports
// whether the call stopped it.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return false
	}
	t.cancelled = true
	t.t.Stop()
	return true
}

// AfterFunc runs fn on the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	timer := &Timer{}
	timer.t = time.AfterFunc(d, func() {
		l.Post(func() {
			timer.mu.Lock()
			cancelled := timer.cancelled
			timer.cancelled = true
			timer.mu.Unlock()
			if !cancelled {
				fn()
			}
		})
	})
	return timer
}
