package xprop

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/motif"

	"github.com/1broseidon/notitle/internal/hints"
)

// NativeGateway reads and writes _MOTIF_WM_HINTS over an existing X
// connection instead of spawning xprop.
type NativeGateway struct {
	xu     *xgbutil.XUtil
	logger *slog.Logger
}

var _ Gateway = (*NativeGateway)(nil)

// NewNativeGateway creates a gateway backed by xgbutil.
func NewNativeGateway(xu *xgbutil.XUtil, logger *slog.Logger) *NativeGateway {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &NativeGateway{xu: xu, logger: logger}
}

// ParseWindowID converts an "0x..." identifier into an X window.
func ParseWindowID(id string) (xproto.Window, error) {
	hex, ok := strings.CutPrefix(id, "0x")
	if !ok {
		return 0, fmt.Errorf("window id %q has no 0x prefix", id)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("window id %q: %w", id, err)
	}
	return xproto.Window(v), nil
}

func (g *NativeGateway) Read(id string) (hints.Hints, bool) {
	g.logger.Debug("expensive: reading motif hints", "xid", id)

	win, err := ParseWindowID(id)
	if err != nil {
		g.logger.Debug("invalid window id", "xid", id, "error", err)
		return hints.Hints{}, false
	}
	mh, err := motif.WmHintsGet(g.xu, win)
	if err != nil {
		g.logger.Debug("unreadable motif hints", "xid", id, "error", err)
		return hints.Hints{}, false
	}
	return fromMotif(mh), true
}

func (g *NativeGateway) Write(id string, h hints.Hints) {
	g.logger.Debug("expensive: updating motif hints", "xid", id, "hints", hints.Encode(h))

	win, err := ParseWindowID(id)
	if err != nil {
		g.logger.Warn("invalid window id", "xid", id, "error", err)
		return
	}
	mh := toMotif(h)
	if err := motif.WmHintsSet(g.xu, win, &mh); err != nil {
		g.logger.Warn("failed to set motif hints", "xid", id, "error", err)
	}
}

func fromMotif(mh *motif.Hints) hints.Hints {
	return hints.Hints{
		Flags:       int64(uint32(mh.Flags)),
		Functions:   int64(uint32(mh.Function)),
		Decorations: int64(uint32(mh.Decoration)),
		// The input mode is the only signed field of the property.
		InputMode: int64(int32(uint32(mh.Input))),
		Status:    int64(uint32(mh.Status)),
	}
}

func toMotif(h hints.Hints) motif.Hints {
	return motif.Hints{
		Flags:      uint(uint32(h.Flags)),
		Function:   uint(uint32(h.Functions)),
		Decoration: uint(uint32(h.Decorations)),
		Input:      uint(uint32(int32(h.InputMode))),
		Status:     uint(uint32(h.Status)),
	}
}
