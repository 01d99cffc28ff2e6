// Package runtimepath locates per-user runtime files such as the IPC socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// SocketEnv overrides the IPC socket location.
const SocketEnv = "NOTITLE_SOCKET"

const socketName = "notitle.sock"

// Dir returns XDG_RUNTIME_DIR when set, else /run/user/<uid> when it exists,
// else a private directory under /tmp which it creates.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := strconv.Itoa(os.Getuid())
	if dir := filepath.Join("/run/user", uid); isDir(dir) {
		return dir, nil
	}

	dir := filepath.Join(os.TempDir(), "notitle-runtime-"+uid)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return dir, nil
}

// SocketPath returns the daemon socket path. SocketEnv wins when set.
func SocketPath() (string, error) {
	if path := os.Getenv(SocketEnv); path != "" {
		return path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, socketName), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
