package hotkeys

import (
	"log/slog"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xevent"
)

func TestIgnoreMasks(t *testing.T) {
	got := ignoreMasks([]uint16{xproto.ModMaskLock, xproto.ModMask2})
	want := []uint16{
		0,
		xproto.ModMaskLock,
		xproto.ModMask2,
		xproto.ModMaskLock | xproto.ModMask2,
	}
	if len(got) != len(want) {
		t.Fatalf("ignoreMasks() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ignoreMasks() = %v, want %v", got, want)
		}
	}
}

func TestHandle(t *testing.T) {
	saved := xevent.IgnoreMods
	xevent.IgnoreMods = []uint16{0, xproto.ModMaskLock}
	defer func() { xevent.IgnoreMods = saved }()

	fired := 0
	h := &Handler{logger: slog.New(slog.DiscardHandler)}
	h.bindings = []binding{{
		sequence: "Mod4-t",
		mods:     xproto.ModMask4,
		codes:    []xproto.Keycode{28},
		callback: func() { fired++ },
	}}

	tests := []struct {
		name  string
		state uint16
		code  xproto.Keycode
		want  bool
	}{
		{"exact", xproto.ModMask4, 28, true},
		{"caps lock on", xproto.ModMask4 | xproto.ModMaskLock, 28, true},
		{"extra shift", xproto.ModMask4 | xproto.ModMaskShift, 28, false},
		{"other key", xproto.ModMask4, 29, false},
		{"no modifier", 0, 28, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := fired
			got := h.Handle(xproto.KeyPressEvent{State: tt.state, Detail: tt.code})
			if got != tt.want {
				t.Fatalf("Handle() = %v, want %v", got, tt.want)
			}
			if (fired > before) != tt.want {
				t.Fatalf("callback fired = %v, want %v", fired > before, tt.want)
			}
		})
	}
}
