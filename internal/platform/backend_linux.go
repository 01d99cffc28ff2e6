//go:build linux

package platform

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/notitle/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
)

// Poster queues work on the daemon's event loop.
type Poster interface {
	Post(fn func())
}

// KeyHandler receives global key presses grabbed on the root window.
type KeyHandler interface {
	Handle(ev xproto.KeyPressEvent) bool
	RefreshMapping()
}

// LinuxHost implements Host for an EWMH window manager. X events are read on a
// dedicated goroutine and handled on the loop, so all host state belongs to
// the loop goroutine once Start returns.
type LinuxHost struct {
	conn   *x11.Connection
	loop   Poster
	logger *slog.Logger

	clientListAtom xproto.Atom
	wmStateAtom    xproto.Atom

	windows map[xproto.Window]*x11Window
	order   []xproto.Window

	created handlerSet[Window]
	changed handlerSet[Actor]
	closed  handlerSet[Window]

	keys KeyHandler

	done chan struct{}
}

var _ Host = (*LinuxHost)(nil)

// NewLinuxHost creates a host on top of an open X connection.
func NewLinuxHost(conn *x11.Connection, loop Poster, logger *slog.Logger) *LinuxHost {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LinuxHost{
		conn:    conn,
		loop:    loop,
		logger:  logger,
		windows: make(map[xproto.Window]*x11Window),
		done:    make(chan struct{}),
	}
}

// Start selects events, takes the initial client list and starts the event
// reader. It must be called before the loop starts running.
func (h *LinuxHost) Start() error {
	var err error
	if h.clientListAtom, err = h.conn.Atom("_NET_CLIENT_LIST"); err != nil {
		return fmt.Errorf("intern _NET_CLIENT_LIST: %w", err)
	}
	if h.wmStateAtom, err = h.conn.Atom("_NET_WM_STATE"); err != nil {
		return fmt.Errorf("intern _NET_WM_STATE: %w", err)
	}
	if err := h.conn.WatchRoot(); err != nil {
		return fmt.Errorf("select root events: %w", err)
	}

	h.refreshClients(false)
	h.logger.Info("x11 host started", "windows", len(h.order))

	go h.readEvents()
	return nil
}

// Close disconnects from the X server and waits for the event reader to exit.
func (h *LinuxHost) Close() {
	h.conn.Close()
	<-h.done
}

// SetKeyHandler routes key presses to k. It must be called on the loop.
func (h *LinuxHost) SetKeyHandler(k KeyHandler) {
	h.keys = k
}

func (h *LinuxHost) OnWindowCreated(handler func(Window)) func() {
	return h.created.add(handler)
}

func (h *LinuxHost) OnSizeChanged(handler func(Actor)) func() {
	return h.changed.add(handler)
}

func (h *LinuxHost) OnWindowClosed(handler func(Window)) func() {
	return h.closed.add(handler)
}

// ListWindows returns the managed clients in mapping order.
func (h *LinuxHost) ListWindows() []Window {
	out := make([]Window, 0, len(h.order))
	for _, id := range h.order {
		if w, ok := h.windows[id]; ok {
			out = append(out, w)
		}
	}
	return out
}

func (h *LinuxHost) readEvents() {
	defer close(h.done)
	for {
		ev, xerr := h.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			h.logger.Debug("x11 connection closed")
			return
		}
		if xerr != nil {
			// BadWindow for clients that vanished between event and query.
			h.logger.Debug("x11 error", "error", xerr)
			continue
		}
		h.loop.Post(func() { h.handle(ev) })
	}
}

func (h *LinuxHost) handle(ev any) {
	switch e := ev.(type) {
	case xproto.PropertyNotifyEvent:
		if e.Window == h.conn.Root {
			if e.Atom == h.clientListAtom {
				h.refreshClients(true)
			}
			return
		}
		if e.Atom == h.wmStateAtom {
			if w, ok := h.windows[e.Window]; ok {
				h.changed.emit(w)
			}
		}
	case xproto.ConfigureNotifyEvent:
		if w, ok := h.windows[e.Window]; ok {
			h.changed.emit(w)
		}
	case xproto.DestroyNotifyEvent:
		h.remove(e.Window, true)
	case xproto.KeyPressEvent:
		if h.keys != nil {
			h.keys.Handle(e)
		}
	case xproto.MappingNotifyEvent:
		if h.keys != nil {
			h.keys.RefreshMapping()
		}
	}
}

// refreshClients diffs _NET_CLIENT_LIST against the known windows.
func (h *LinuxHost) refreshClients(notify bool) {
	clients, err := h.conn.ClientList()
	if err != nil {
		h.logger.Warn("failed to read client list", "error", err)
		return
	}

	live := make(map[xproto.Window]struct{}, len(clients))
	var added []*x11Window
	for _, id := range clients {
		live[id] = struct{}{}
		if _, ok := h.windows[id]; ok {
			continue
		}
		if err := h.conn.WatchWindow(id); err != nil {
			h.logger.Debug("failed to select client events", "window_id", id, "error", err)
			continue
		}
		w := &x11Window{conn: h.conn, id: id}
		h.windows[id] = w
		added = append(added, w)
	}

	for id := range h.windows {
		if _, ok := live[id]; !ok {
			h.remove(id, notify)
		}
	}

	h.order = h.order[:0]
	for _, id := range clients {
		if _, ok := h.windows[id]; ok {
			h.order = append(h.order, id)
		}
	}

	if notify {
		for _, w := range added {
			h.created.emit(w)
		}
	}
}

func (h *LinuxHost) remove(id xproto.Window, notify bool) {
	w, ok := h.windows[id]
	if !ok {
		return
	}
	delete(h.windows, id)
	for i, oid := range h.order {
		if oid == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	if notify {
		h.closed.emit(w)
	}
}

// x11Window is both the Window and the Actor for a client. Properties are
// queried live so the engine always sees current state.
type x11Window struct {
	conn *x11.Connection
	id   xproto.Window
}

func (w *x11Window) ID() WindowID             { return WindowID(w.id) }
func (w *x11Window) ClientProtocol() Protocol { return ProtocolX11 }
func (w *x11Window) Window() Window           { return w }

func (w *x11Window) WindowType() WindowType {
	return classifyWindowType(w.conn.WindowTypes(w.id), w.conn.IsTransient(w.id))
}

func (w *x11Window) Description() string {
	return describe(w.id, w.Title())
}

func (w *x11Window) IsMaximized() bool {
	return w.conn.IsMaximized(w.id)
}

func (w *x11Window) Title() string {
	return w.conn.Title(w.id)
}

func describe(id xproto.Window, title string) string {
	return fmt.Sprintf("0x%x (%s)", uint32(id), title)
}

// classifyWindowType maps _NET_WM_WINDOW_TYPE atoms to a WindowType. The first
// recognised atom wins. Windows without the property are normal unless they
// are transient, which EWMH says to treat as dialogs.
func classifyWindowType(types []string, transient bool) WindowType {
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return TypeNormal
		case "_NET_WM_WINDOW_TYPE_DIALOG":
			return TypeDialog
		case "_NET_WM_WINDOW_TYPE_UTILITY":
			return TypeUtility
		case "_NET_WM_WINDOW_TYPE_TOOLBAR":
			return TypeToolbar
		case "_NET_WM_WINDOW_TYPE_MENU",
			"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU",
			"_NET_WM_WINDOW_TYPE_POPUP_MENU":
			return TypeMenu
		case "_NET_WM_WINDOW_TYPE_SPLASH":
			return TypeSplash
		case "_NET_WM_WINDOW_TYPE_DOCK":
			return TypeDock
		case "_NET_WM_WINDOW_TYPE_DESKTOP":
			return TypeDesktop
		case "_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return TypeNotification
		}
	}
	if len(types) > 0 {
		return TypeOther
	}
	if transient {
		return TypeDialog
	}
	return TypeNormal
}

// handlerSet is a list of subscribed handlers keyed by subscription.
type handlerSet[T any] struct {
	next int
	subs map[int]func(T)
}

func (s *handlerSet[T]) add(fn func(T)) func() {
	if s.subs == nil {
		s.subs = make(map[int]func(T))
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

func (s *handlerSet[T]) emit(v T) {
	for _, fn := range s.subs {
		fn(v)
	}
}
