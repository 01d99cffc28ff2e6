package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/notitle/internal/loop"
	"github.com/1broseidon/notitle/internal/platform"
)

var (
	ErrAlreadyEnabled = errors.New("engine already enabled")
	ErrNotEnabled     = errors.New("engine not enabled")
)

// listener is the part of loop.Listener the engine drives.
type listener interface {
	Name() string
	Enable() error
	Disable() error
}

// Status describes the engine for status reporting.
type Status struct {
	Enabled bool         `json:"enabled" yaml:"enabled"`
	Since   time.Time    `json:"since,omitempty" yaml:"since,omitempty"`
	Stats   TrackerStats `json:"stats" yaml:"stats"`
}

// Engine keeps window decorations in step with the maximized state. All
// methods must be called on the loop goroutine.
type Engine struct {
	host      platform.Host
	tracker   *Tracker
	listeners []listener
	logger    *slog.Logger

	enabled bool
	since   time.Time
	now     func() time.Time
}

// NewEngine wires host notifications to tracker through sched.
func NewEngine(host platform.Host, tracker *Tracker, sched loop.Scheduler, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		host:    host,
		tracker: tracker,
		logger:  logger,
		now:     time.Now,
	}

	windowKey := func(w platform.Window) platform.WindowID {
		if w == nil {
			return 0
		}
		return w.ID()
	}
	actorKey := func(a platform.Actor) platform.Actor { return a }

	e.listeners = []listener{
		loop.NewListener[platform.Window, platform.WindowID]("window-created", sched, host.OnWindowCreated, windowKey, e.onWindowCreated),
		loop.NewListener[platform.Actor, platform.Actor]("size-changed", sched, host.OnSizeChanged, actorKey, e.onSizeChanged),
		loop.NewListener[platform.Window, platform.WindowID]("window-closed", sched, host.OnWindowClosed, windowKey, e.onWindowClosed),
	}
	return e
}

// Enabled reports whether the engine is subscribed to host events.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// Enable subscribes to host events and syncs every open window.
func (e *Engine) Enable() error {
	if e.enabled {
		return ErrAlreadyEnabled
	}

	for i, l := range e.listeners {
		if err := l.Enable(); err != nil {
			for _, prev := range e.listeners[:i] {
				_ = prev.Disable()
			}
			return fmt.Errorf("enable %s: %w", l.Name(), err)
		}
	}
	e.enabled = true
	e.since = e.now()

	n := e.forEachWindow("sync", e.tracker.Sync)
	e.logger.Info("engine enabled", "windows", n)
	return nil
}

// Disable unsubscribes from host events, restores the title bar of every
// tracked window and drops all tracked state.
func (e *Engine) Disable() error {
	if !e.enabled {
		return ErrNotEnabled
	}

	var errs []error
	for _, l := range e.listeners {
		if err := l.Disable(); err != nil {
			errs = append(errs, fmt.Errorf("disable %s: %w", l.Name(), err))
		}
	}
	e.enabled = false
	e.since = time.Time{}

	n := e.forEachWindow("restore", e.tracker.Restore)
	e.tracker.Reset()
	e.logger.Info("engine disabled", "windows", n)
	return errors.Join(errs...)
}

// Resync runs the sync path over every open window again.
func (e *Engine) Resync() (int, error) {
	if !e.enabled {
		return 0, ErrNotEnabled
	}
	return e.forEachWindow("sync", e.tracker.Sync), nil
}

// SetTitleBar forces the decoration of one listed window until its next
// maximize change. Windows the tracker does not manage yield ErrNotTracked.
func (e *Engine) SetTitleBar(id platform.WindowID, titleBar bool) (TrackedWindow, error) {
	if !e.enabled {
		return TrackedWindow{}, ErrNotEnabled
	}
	var target platform.Window
	for _, w := range e.host.ListWindows() {
		if w != nil && w.ID() == id {
			target = w
			break
		}
	}
	if target == nil {
		return TrackedWindow{}, fmt.Errorf("window %d is not listed: %w", id, ErrNotTracked)
	}
	if err := e.tracker.Apply(target, titleBar); err != nil {
		return TrackedWindow{}, err
	}
	tw, _ := e.tracker.Lookup(id)
	e.logger.Info("title bar set", "xid", tw.ExternalID, "title_bar", titleBar)
	return tw, nil
}

// Prune forgets windows that are no longer listed by the host.
func (e *Engine) Prune() int {
	live := make(map[platform.WindowID]struct{})
	for _, w := range e.host.ListWindows() {
		if w != nil {
			live[w.ID()] = struct{}{}
		}
	}
	return e.tracker.Prune(live)
}

// Status returns a snapshot of engine state.
func (e *Engine) Status() Status {
	return Status{
		Enabled: e.enabled,
		Since:   e.since,
		Stats:   e.tracker.Stats(),
	}
}

// Windows returns the tracked windows.
func (e *Engine) Windows() []TrackedWindow {
	return e.tracker.Snapshot()
}

func (e *Engine) onWindowCreated(w platform.Window) {
	if w == nil {
		return
	}
	e.safely("sync", w, e.tracker.Sync)
}

func (e *Engine) onSizeChanged(a platform.Actor) {
	if a == nil {
		return
	}
	w := a.Window()
	if w == nil {
		return
	}
	e.safely("sync", w, e.tracker.Sync)
}

func (e *Engine) onWindowClosed(w platform.Window) {
	if w == nil {
		return
	}
	if e.tracker.Forget(w.ID()) {
		e.logger.Debug("forgot closed window", "window_id", w.ID())
	}
}

// forEachWindow applies fn to every listed window and returns how many were visited.
func (e *Engine) forEachWindow(action string, fn func(platform.Window)) int {
	n := 0
	for _, w := range e.host.ListWindows() {
		if w == nil {
			continue
		}
		e.safely(action, w, fn)
		n++
	}
	return n
}

func (e *Engine) safely(action string, w platform.Window, fn func(platform.Window)) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("window callback panic recovered",
				"action", action,
				"window_id", w.ID(),
				"panic", r)
		}
	}()
	fn(w)
}
