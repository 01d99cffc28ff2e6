package platform

import "regexp"

// WindowID is a platform-neutral window identity, stable for the window's lifetime.
type WindowID uint32

// Protocol is the display protocol a window's client speaks.
type Protocol int

const (
	ProtocolX11 Protocol = iota
	ProtocolWayland
)

func (p Protocol) String() string {
	switch p {
	case ProtocolX11:
		return "x11"
	case ProtocolWayland:
		return "wayland"
	default:
		return "unknown"
	}
}

// WindowType mirrors the EWMH window types the daemon cares about.
type WindowType int

const (
	TypeNormal WindowType = iota
	TypeDialog
	TypeUtility
	TypeToolbar
	TypeMenu
	TypeSplash
	TypeDock
	TypeDesktop
	TypeNotification
	TypeOther
)

func (t WindowType) String() string {
	switch t {
	case TypeNormal:
		return "normal"
	case TypeDialog:
		return "dialog"
	case TypeUtility:
		return "utility"
	case TypeToolbar:
		return "toolbar"
	case TypeMenu:
		return "menu"
	case TypeSplash:
		return "splash"
	case TypeDock:
		return "dock"
	case TypeDesktop:
		return "desktop"
	case TypeNotification:
		return "notification"
	default:
		return "other"
	}
}

// Window is a top-level window owned by the host.
type Window interface {
	ID() WindowID
	ClientProtocol() Protocol
	WindowType() WindowType
	// Description is a free-form diagnostic string; X11 hosts embed the
	// window id as a 0x-prefixed hex literal.
	Description() string
	IsMaximized() bool
	Title() string
}

// Actor is the object geometry notifications are emitted for.
type Actor interface {
	// Window returns the window behind the actor, or nil.
	Window() Window
}

// Host abstracts the window manager the daemon sits next to. Handlers are
// invoked on the daemon's event loop. Each On* method returns a func that
// disconnects the handler.
type Host interface {
	OnWindowCreated(handler func(Window)) (disconnect func())
	OnSizeChanged(handler func(Actor)) (disconnect func())
	OnWindowClosed(handler func(Window)) (disconnect func())
	ListWindows() []Window
}

var xidPattern = regexp.MustCompile(`0x[0-9a-f]+`)

// ResolveExternalID derives the identifier the property store knows the
// window by. Windows that are not X11 clients, are not of normal type, or
// whose description carries no hex id are ineligible.
func ResolveExternalID(w Window) (string, bool) {
	if w == nil {
		return "", false
	}
	if w.ClientProtocol() != ProtocolX11 || w.WindowType() != TypeNormal {
		return "", false
	}
	id := xidPattern.FindString(w.Description())
	if id == "" {
		return "", false
	}
	return id, true
}
