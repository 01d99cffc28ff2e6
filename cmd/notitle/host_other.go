//go:build !linux

package main

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/notitle/internal/loop"
	"github.com/1broseidon/notitle/internal/x11"
)

var errUnsupported = errors.New("the daemon is only supported on Linux")

func newHost(*x11.Connection, *loop.Loop, *slog.Logger) (closableHost, error) {
	return nil, errUnsupported
}

func bindHotkey(closableHost, *x11.Connection, string, func(), *slog.Logger) (func(), error) {
	return nil, errUnsupported
}
