package daemon

import (
	"fmt"

	"github.com/1broseidon/notitle/internal/hints"
	"github.com/1broseidon/notitle/internal/platform"
)

type fakeWindow struct {
	id        platform.WindowID
	protocol  platform.Protocol
	wtype     platform.WindowType
	desc      string
	maximized bool
	title     string
	panics    bool
}

func x11Window(id platform.WindowID) *fakeWindow {
	return &fakeWindow{
		id:    id,
		desc:  fmt.Sprintf("0x%x (window %d)", id, id),
		title: fmt.Sprintf("window %d", id),
	}
}

func (w *fakeWindow) ID() platform.WindowID             { return w.id }
func (w *fakeWindow) ClientProtocol() platform.Protocol { return w.protocol }
func (w *fakeWindow) WindowType() platform.WindowType   { return w.wtype }
func (w *fakeWindow) IsMaximized() bool                 { return w.maximized }
func (w *fakeWindow) Title() string                     { return w.title }
func (w *fakeWindow) Description() string {
	if w.panics {
		panic("description unavailable")
	}
	return w.desc
}

func (w *fakeWindow) xid() string { return fmt.Sprintf("0x%x", w.id) }

type fakeActor struct {
	window platform.Window
}

func (a *fakeActor) Window() platform.Window { return a.window }

type handlers[T any] struct {
	next int
	m    map[int]func(T)
}

func (h *handlers[T]) connect(fn func(T)) func() {
	if h.m == nil {
		h.m = make(map[int]func(T))
	}
	id := h.next
	h.next++
	h.m[id] = fn
	return func() { delete(h.m, id) }
}

func (h *handlers[T]) emit(v T) {
	for _, fn := range h.m {
		fn(v)
	}
}

type fakeHost struct {
	windows []platform.Window
	created handlers[platform.Window]
	changed handlers[platform.Actor]
	closed  handlers[platform.Window]
	actors  map[platform.WindowID]*fakeActor
}

func newFakeHost(windows ...*fakeWindow) *fakeHost {
	h := &fakeHost{actors: make(map[platform.WindowID]*fakeActor)}
	for _, w := range windows {
		h.add(w)
	}
	return h
}

func (h *fakeHost) OnWindowCreated(fn func(platform.Window)) func() { return h.created.connect(fn) }
func (h *fakeHost) OnSizeChanged(fn func(platform.Actor)) func()    { return h.changed.connect(fn) }
func (h *fakeHost) OnWindowClosed(fn func(platform.Window)) func()  { return h.closed.connect(fn) }
func (h *fakeHost) ListWindows() []platform.Window                 { return h.windows }

func (h *fakeHost) add(w *fakeWindow) {
	h.windows = append(h.windows, w)
	h.actors[w.id] = &fakeActor{window: w}
}

func (h *fakeHost) create(w *fakeWindow) {
	h.add(w)
	h.created.emit(w)
}

func (h *fakeHost) setMaximized(w *fakeWindow, maximized bool) {
	w.maximized = maximized
	h.changed.emit(h.actors[w.id])
}

func (h *fakeHost) close(w *fakeWindow) {
	for i, lw := range h.windows {
		if lw.ID() == w.id {
			h.windows = append(h.windows[:i], h.windows[i+1:]...)
			break
		}
	}
	h.closed.emit(w)
}

func (h *fakeHost) subscribers() int {
	return len(h.created.m) + len(h.changed.m) + len(h.closed.m)
}

type write struct {
	id    string
	value string
}

type fakeGateway struct {
	store  map[string]hints.Hints
	reads  map[string]int
	writes []write
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		store: make(map[string]hints.Hints),
		reads: make(map[string]int),
	}
}

// set stores the hints decoded from a raw xprop line.
func (g *fakeGateway) set(id, raw string) {
	h, err := hints.Decode(raw)
	if err != nil {
		panic(err)
	}
	g.store[id] = h
}

func (g *fakeGateway) Read(id string) (hints.Hints, bool) {
	g.reads[id]++
	h, ok := g.store[id]
	return h, ok
}

func (g *fakeGateway) Write(id string, h hints.Hints) {
	g.writes = append(g.writes, write{id: id, value: hints.Encode(h)})
	g.store[id] = h
}

func (g *fakeGateway) totalReads() int {
	n := 0
	for _, c := range g.reads {
		n += c
	}
	return n
}
