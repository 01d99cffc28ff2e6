package x11

import (
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

const (
	rootEventMask   = xproto.EventMaskPropertyChange
	clientEventMask = xproto.EventMaskStructureNotify | xproto.EventMaskPropertyChange
)

// WatchRoot selects property changes on the root window, which is where the
// window manager publishes _NET_CLIENT_LIST.
func (c *Connection) WatchRoot() error {
	return c.selectInput(c.Root, rootEventMask)
}

// WatchWindow selects geometry, destroy and property events on a client.
func (c *Connection) WatchWindow(windowID xproto.Window) error {
	return c.selectInput(windowID, clientEventMask)
}

func (c *Connection) selectInput(windowID xproto.Window, mask uint32) error {
	return xproto.ChangeWindowAttributesChecked(
		c.XUtil.Conn(),
		windowID,
		xproto.CwEventMask,
		[]uint32{mask},
	).Check()
}

// ClientList returns the managed client windows in mapping order.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.XUtil)
}

// IsMaximized reports whether the window is maximized in either direction.
func (c *Connection) IsMaximized(windowID xproto.Window) bool {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false
	}

	for _, state := range states {
		if state == "_NET_WM_STATE_MAXIMIZED_HORZ" || state == "_NET_WM_STATE_MAXIMIZED_VERT" {
			return true
		}
	}
	return false
}

// WindowTypes returns the _NET_WM_WINDOW_TYPE atoms in order of preference.
func (c *Connection) WindowTypes(windowID xproto.Window) []string {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return nil
	}
	return types
}

// IsTransient reports whether WM_TRANSIENT_FOR is set.
func (c *Connection) IsTransient(windowID xproto.Window) bool {
	parent, err := icccm.WmTransientForGet(c.XUtil, windowID)
	return err == nil && parent != 0
}

// Title returns _NET_WM_NAME, falling back to WM_NAME.
func (c *Connection) Title(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}
