// Package loop provides the daemon's single-threaded event loop.
//
// Every host notification, deferred callback and IPC request runs as a task on
// one goroutine, so the state those tasks touch needs no locking. Tasks are
// drained in FIFO order; idle callbacks run only once the task queue is empty.
package loop

import (
	"context"
	"log/slog"
	"sync"
)

// Scheduler defers work to the next idle tick of a loop.
type Scheduler interface {
	Idle(fn func())
}

// Loop is a single-consumer task queue.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	idle   []func()
	wake   chan struct{}
	logger *slog.Logger
}

var _ Scheduler = (*Loop)(nil)

// New creates an empty loop.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Post queues fn to run on the loop. Safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// Idle queues fn to run once every queued task has been processed.
// Safe to call from any goroutine.
func (l *Loop) Idle(fn func()) {
	l.mu.Lock()
	l.idle = append(l.idle, fn)
	l.mu.Unlock()
	l.signal()
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from a task already running on the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunPending processes queued tasks and idle callbacks until none are left
// and returns how many ran.
func (l *Loop) RunPending() int {
	n := 0
	for {
		fn := l.next()
		if fn == nil {
			return n
		}
		l.run(fn)
		n++
	}
}

// Pending reports the number of queued tasks and idle callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) + len(l.idle)
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) > 0 {
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		return fn
	}
	if len(l.idle) > 0 {
		fn := l.idle[0]
		l.idle[0] = nil
		l.idle = l.idle[1:]
		return fn
	}
	return nil
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panic recovered", "panic", r)
		}
	}()
	fn()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
