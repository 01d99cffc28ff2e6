package loop

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyEnabled = errors.New("already connected")
	ErrNotEnabled     = errors.New("not connected")
)

// Debouncer coalesces bursts of events per key into one idle callback.
// It is not safe for concurrent use; it belongs to the loop goroutine.
type Debouncer[K comparable] struct {
	sched   Scheduler
	pending map[K]struct{}
}

// NewDebouncer creates a debouncer that defers callbacks through sched.
func NewDebouncer[K comparable](sched Scheduler) *Debouncer[K] {
	return &Debouncer[K]{
		sched:   sched,
		pending: make(map[K]struct{}),
	}
}

// Schedule defers fn to the next idle tick unless a callback for key is
// already waiting, in which case the call is dropped and false is returned.
func (d *Debouncer[K]) Schedule(key K, fn func()) bool {
	if _, ok := d.pending[key]; ok {
		return false
	}
	d.pending[key] = struct{}{}

	d.sched.Idle(func() {
		if _, ok := d.pending[key]; !ok {
			// cancelled by Reset
			return
		}
		delete(d.pending, key)
		fn()
	})
	return true
}

// Pending returns the number of keys with a callback waiting.
func (d *Debouncer[K]) Pending() int {
	return len(d.pending)
}

// Reset cancels every waiting callback.
func (d *Debouncer[K]) Reset() {
	clear(d.pending)
}

// Connect attaches handler to a host signal and returns a func that detaches it.
type Connect[T any] func(handler func(T)) (disconnect func())

// Listener subscribes a callback to a host signal through a Debouncer.
//
// Each Enable starts a new epoch. A deferred callback only runs when the epoch
// it was scheduled in is still current, so nothing fires after Disable even if
// it was already waiting on the loop.
type Listener[T any, K comparable] struct {
	name     string
	sched    Scheduler
	connect  Connect[T]
	key      func(T) K
	callback func(T)

	epoch      uint64
	disconnect func()
	debounce   *Debouncer[K]
}

// NewListener creates a disabled listener. key maps an event target to its
// debounce key.
func NewListener[T any, K comparable](name string, sched Scheduler, connect Connect[T], key func(T) K, callback func(T)) *Listener[T, K] {
	return &Listener[T, K]{
		name:     name,
		sched:    sched,
		connect:  connect,
		key:      key,
		callback: callback,
	}
}

// Name returns the signal name.
func (l *Listener[T, K]) Name() string {
	return l.name
}

// Enabled reports whether the listener is connected.
func (l *Listener[T, K]) Enabled() bool {
	return l.disconnect != nil
}

// Enable connects to the host signal.
func (l *Listener[T, K]) Enable() error {
	if l.disconnect != nil {
		return fmt.Errorf("%s: %w", l.name, ErrAlreadyEnabled)
	}

	l.epoch++
	epoch := l.epoch
	debounce := NewDebouncer[K](l.sched)
	l.debounce = debounce

	disconnect := l.connect(func(target T) {
		debounce.Schedule(l.key(target), func() {
			if epoch != l.epoch {
				return
			}
			l.callback(target)
		})
	})
	if disconnect == nil {
		disconnect = func() {}
	}
	l.disconnect = disconnect
	return nil
}

// Disable disconnects from the host signal and invalidates every callback
// still waiting for an idle tick.
func (l *Listener[T, K]) Disable() error {
	if l.disconnect == nil {
		return fmt.Errorf("%s: %w", l.name, ErrNotEnabled)
	}

	l.disconnect()
	l.disconnect = nil
	l.epoch++
	l.debounce.Reset()
	l.debounce = nil
	return nil
}
