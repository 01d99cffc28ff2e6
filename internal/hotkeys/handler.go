// Package hotkeys grabs global key sequences on the X root window.
package hotkeys

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Handler owns a set of key grabs. Key press events are not read here; the X
// event reader hands them to Handle on the event loop.
type Handler struct {
	xu       *xgbutil.XUtil
	root     xproto.Window
	logger   *slog.Logger
	bindings []binding
}

type binding struct {
	sequence string
	mods     uint16
	codes    []xproto.Keycode
	callback func()
}

var initOnce sync.Once

// NewHandler loads the keyboard mapping and returns a handler grabbing on root.
func NewHandler(xu *xgbutil.XUtil, root xproto.Window, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	initOnce.Do(func() {
		keybind.Initialize(xu)
		configureIgnoreMods(xu)
	})

	return &Handler{
		xu:     xu,
		root:   root,
		logger: logger,
	}
}

// Register grabs keySequence (for example "Mod4-Shift-t") and runs callback
// whenever it is pressed.
func (h *Handler) Register(keySequence string, callback func()) error {
	mods, codes, err := keybind.ParseString(h.xu, keySequence)
	if err != nil {
		return fmt.Errorf("parse hotkey %q: %w", keySequence, err)
	}
	for _, code := range codes {
		if err := keybind.GrabChecked(h.xu, h.root, mods, code); err != nil {
			return fmt.Errorf("grab hotkey %q: %w", keySequence, err)
		}
	}
	h.bindings = append(h.bindings, binding{
		sequence: keySequence,
		mods:     mods,
		codes:    codes,
		callback: callback,
	})
	h.logger.Info("hotkey registered", "sequence", keySequence)
	return nil
}

// Handle runs the callback bound to ev and reports whether one matched.
func (h *Handler) Handle(ev xproto.KeyPressEvent) bool {
	mods, code := keybind.DeduceKeyInfo(ev.State, ev.Detail)
	for _, b := range h.bindings {
		if b.matches(mods, code) {
			h.logger.Debug("hotkey pressed", "sequence", b.sequence)
			b.callback()
			return true
		}
	}
	return false
}

// RefreshMapping reloads the keyboard mapping after a MappingNotify.
func (h *Handler) RefreshMapping() {
	keyMap, modMap := keybind.MapsGet(h.xu)
	keybind.KeyMapSet(h.xu, keyMap)
	keybind.ModMapSet(h.xu, modMap)
}

// Close releases every grab.
func (h *Handler) Close() {
	for _, b := range h.bindings {
		for _, code := range b.codes {
			keybind.Ungrab(h.xu, h.root, b.mods, code)
		}
	}
	h.bindings = nil
}

func (b binding) matches(mods uint16, code xproto.Keycode) bool {
	if mods != b.mods {
		return false
	}
	for _, c := range b.codes {
		if c == code {
			return true
		}
	}
	return false
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	xevent.IgnoreMods = ignoreMasks(base)
}

// ignoreMasks returns every combination of the given modifier masks,
// including the empty one.
func ignoreMasks(base []uint16) []uint16 {
	unique := map[uint16]struct{}{0: {}}
	out := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		if _, ok := unique[mask]; ok {
			continue
		}
		unique[mask] = struct{}{}
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
