//go:build linux

package main

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/notitle/internal/hotkeys"
	"github.com/1broseidon/notitle/internal/loop"
	"github.com/1broseidon/notitle/internal/platform"
	"github.com/1broseidon/notitle/internal/x11"
)

func newHost(conn *x11.Connection, l *loop.Loop, logger *slog.Logger) (closableHost, error) {
	host := platform.NewLinuxHost(conn, l, logger)
	if err := host.Start(); err != nil {
		return nil, err
	}
	return host, nil
}

// bindHotkey grabs sequence on the root window and routes it to fn through
// host. The returned func releases the grab.
func bindHotkey(host closableHost, conn *x11.Connection, sequence string, fn func(), logger *slog.Logger) (func(), error) {
	lh, ok := host.(*platform.LinuxHost)
	if !ok {
		return nil, fmt.Errorf("hotkeys need an X11 host")
	}
	keys := hotkeys.NewHandler(conn.XUtil, conn.Root, logger)
	if err := keys.Register(sequence, fn); err != nil {
		return nil, err
	}
	lh.SetKeyHandler(keys)
	return keys.Close, nil
}
