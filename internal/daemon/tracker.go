package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/1broseidon/notitle/internal/hints"
	"github.com/1broseidon/notitle/internal/platform"
	"github.com/1broseidon/notitle/internal/xprop"
)

// ErrNotTracked is returned when a decoration change is requested for a
// window the tracker does not manage.
var ErrNotTracked = errors.New("window is not tracked")

// ReadFailurePolicy decides what happens when the first hints read of an
// eligible window fails.
type ReadFailurePolicy string

const (
	// AssumeTitleBar tracks the window as if it had the canonical title bar hints.
	AssumeTitleBar ReadFailurePolicy = "assume-title-bar"
	// IgnoreUnreadable leaves the window untracked.
	IgnoreUnreadable ReadFailurePolicy = "ignore"
)

// TrackedWindow is a window whose decoration the daemon manages. Only windows
// that had a title bar when first seen are tracked.
type TrackedWindow struct {
	WindowID    platform.WindowID `json:"window_id" yaml:"window_id"`
	ExternalID  string            `json:"xid" yaml:"xid"`
	Title       string            `json:"title" yaml:"title"`
	Original    hints.Hints       `json:"-" yaml:"-"`
	LastWritten hints.Hints       `json:"-" yaml:"-"`
	// Assumed is set when Original could not be read and was assumed.
	Assumed bool `json:"assumed,omitempty" yaml:"assumed,omitempty"`
}

// TitleBar reports whether the last written hints show a title bar.
func (tw TrackedWindow) TitleBar() bool {
	return tw.LastWritten.Kind() == hints.TitleBar
}

// entry caches everything learned about a window on first contact.
type entry struct {
	externalID string
	tracked    *TrackedWindow
}

// TrackerStats counts tracker activity since the last reset.
type TrackerStats struct {
	Seen       int `json:"seen" yaml:"seen"`
	Tracked    int `json:"tracked" yaml:"tracked"`
	Reads      int `json:"reads" yaml:"reads"`
	Writes     int `json:"writes" yaml:"writes"`
	Suppressed int `json:"suppressed" yaml:"suppressed"`
}

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	ReadFailure ReadFailurePolicy
	// PreserveFields keeps every hints field except decorations as last read.
	// When false the canonical hints are written.
	PreserveFields bool
	Logger         *slog.Logger
}

// Tracker holds per-window decoration state. It is owned by the event loop
// goroutine and is not safe for concurrent use.
type Tracker struct {
	gateway xprop.Gateway
	cfg     TrackerConfig
	logger  *slog.Logger
	entries map[platform.WindowID]*entry
	stats   TrackerStats
}

// NewTracker creates an empty tracker writing through gateway.
func NewTracker(gateway xprop.Gateway, cfg TrackerConfig) *Tracker {
	if cfg.ReadFailure == "" {
		cfg.ReadFailure = AssumeTitleBar
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tracker{
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
		entries: make(map[platform.WindowID]*entry),
	}
}

// Sync hides the title bar of a tracked window when it is maximized and shows
// it otherwise. Unknown windows are looked at once and then cached.
func (t *Tracker) Sync(w platform.Window) {
	if w == nil {
		return
	}
	t.SyncOnMaximize(w, w.IsMaximized())
}

// SyncOnMaximize is Sync with the maximized state supplied by the caller.
func (t *Tracker) SyncOnMaximize(w platform.Window, maximized bool) {
	e := t.lookup(w, true)
	if e == nil || e.tracked == nil {
		return
	}
	t.write(e.tracked, !maximized)
}

// Restore shows the title bar of a tracked window again. Windows the tracker
// has never seen are left alone.
func (t *Tracker) Restore(w platform.Window) {
	e := t.lookup(w, false)
	if e == nil || e.tracked == nil {
		return
	}
	t.write(e.tracked, true)
}

// Apply forces the decoration of a tracked window.
func (t *Tracker) Apply(w platform.Window, titleBar bool) error {
	e := t.lookup(w, true)
	if e == nil || e.tracked == nil {
		return fmt.Errorf("window %d: %w", w.ID(), ErrNotTracked)
	}
	t.write(e.tracked, titleBar)
	return nil
}

// Lookup returns the tracked record of a window the tracker has already seen.
func (t *Tracker) Lookup(id platform.WindowID) (TrackedWindow, bool) {
	e, ok := t.entries[id]
	if !ok || e.tracked == nil {
		return TrackedWindow{}, false
	}
	return *e.tracked, true
}

// Forget drops everything cached for a window.
func (t *Tracker) Forget(id platform.WindowID) bool {
	e, ok := t.entries[id]
	if !ok {
		return false
	}
	t.evict(id, e)
	return true
}

// Prune forgets every window not present in live and returns how many were dropped.
func (t *Tracker) Prune(live map[platform.WindowID]struct{}) int {
	removed := 0
	for id, e := range t.entries {
		if _, ok := live[id]; !ok {
			t.evict(id, e)
			removed++
		}
	}
	return removed
}

// evict drops an entry. A window that only left the client list (hidden to a
// tray, unmapped) keeps its property, so a hidden title bar is written back
// first; otherwise the next contact would read it as the original.
func (t *Tracker) evict(id platform.WindowID, e *entry) {
	if e.tracked != nil && !e.tracked.TitleBar() {
		t.logger.Debug("restoring title bar before eviction", "xid", e.tracked.ExternalID)
		t.write(e.tracked, true)
	}
	delete(t.entries, id)
}

// Reset drops all cached state.
func (t *Tracker) Reset() {
	clear(t.entries)
	t.stats = TrackerStats{}
}

// Snapshot returns the tracked windows ordered by window id.
func (t *Tracker) Snapshot() []TrackedWindow {
	out := make([]TrackedWindow, 0, len(t.entries))
	for _, e := range t.entries {
		if e.tracked != nil {
			out = append(out, *e.tracked)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].WindowID < out[j].WindowID
	})
	return out
}

// Stats returns activity counters.
func (t *Tracker) Stats() TrackerStats {
	s := t.stats
	s.Seen = len(t.entries)
	s.Tracked = 0
	for _, e := range t.entries {
		if e.tracked != nil {
			s.Tracked++
		}
	}
	return s
}

func (t *Tracker) lookup(w platform.Window, build bool) *entry {
	if w == nil {
		return nil
	}
	id := w.ID()
	if e, ok := t.entries[id]; ok {
		return e
	}
	if !build {
		return nil
	}
	e := t.build(w)
	t.entries[id] = e
	return e
}

func (t *Tracker) build(w platform.Window) *entry {
	xid, ok := platform.ResolveExternalID(w)
	if !ok {
		t.logger.Debug("ignoring ineligible window",
			"window_id", w.ID(),
			"protocol", w.ClientProtocol(),
			"type", w.WindowType())
		return &entry{}
	}

	t.stats.Reads++
	original, ok := t.gateway.Read(xid)
	assumed := false
	if !ok {
		if t.cfg.ReadFailure != AssumeTitleBar {
			t.logger.Debug("motif hints unreadable, not tracking", "xid", xid)
			return &entry{externalID: xid}
		}
		original = hints.Canonical(true)
		assumed = true
	}

	if original.Kind() != hints.TitleBar {
		t.logger.Debug("window has no title bar, not tracking",
			"xid", xid,
			"hints", hints.Encode(original))
		return &entry{externalID: xid}
	}

	title := w.Title()
	t.logger.Info("tracking window", "xid", xid, "title", title, "assumed", assumed)

	return &entry{
		externalID: xid,
		tracked: &TrackedWindow{
			WindowID:    w.ID(),
			ExternalID:  xid,
			Title:       title,
			Original:    original,
			LastWritten: original,
			Assumed:     assumed,
		},
	}
}

// write writes the title bar state unless it is already the last written one.
func (t *Tracker) write(tw *TrackedWindow, titleBar bool) bool {
	target := hints.Canonical(titleBar)
	if t.cfg.PreserveFields {
		target = tw.LastWritten.WithTitleBar(titleBar)
	}
	if target == tw.LastWritten {
		t.stats.Suppressed++
		return false
	}

	tw.LastWritten = target
	t.stats.Writes++
	t.gateway.Write(tw.ExternalID, target)
	return true
}
