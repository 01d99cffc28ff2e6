package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/notitle/internal/config"
	"github.com/1broseidon/notitle/internal/ipc"
	"github.com/1broseidon/notitle/internal/runtimepath"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"daemon", "status", "windows", "resync", "titlebar", "watch", "reload", "config", "mcp"}

	found := make(map[string]bool)
	for _, c := range newRootCmd().Commands() {
		found[c.Name()] = true
	}
	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestParseTitleBarArgs(t *testing.T) {
	tests := []struct {
		xid, state string
		wantID     uint32
		wantShow   bool
		wantErr    string
	}{
		{"0x3a00003", "hide", 0x3a00003, false, ""},
		{"60817411", "show", 60817411, true, ""},
		{"0x0", "show", 0, false, "invalid window id"},
		{"vim", "show", 0, false, "invalid window id"},
		{"0x3a00003", "toggle", 0, false, "invalid state"},
	}
	for _, tt := range tests {
		t.Run(tt.xid+"/"+tt.state, func(t *testing.T) {
			id, show, err := parseTitleBarArgs(tt.xid, tt.state)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("parseTitleBarArgs() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTitleBarArgs() error: %v", err)
			}
			if id != tt.wantID || show != tt.wantShow {
				t.Fatalf("parseTitleBarArgs() = (%#x, %v), want (%#x, %v)", id, show, tt.wantID, tt.wantShow)
			}
		})
	}
}

func TestNewIPCServer_UsesSocketOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctl.sock")
	t.Setenv(runtimepath.SocketEnv, path)

	srv, err := newIPCServer("xprop", nil, nil, nil, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("newIPCServer() error: %v", err)
	}
	if srv.SocketPath() != path {
		t.Fatalf("SocketPath() = %q, want %q", srv.SocketPath(), path)
	}
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigValidate(t *testing.T) {
	good := writeConfig(t, "gateway: native\nlog_level: debug\n")
	out, err := runRoot(t, "--config", good, "config", "validate")
	if err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if strings.TrimSpace(out) != "config: ok" {
		t.Fatalf("output = %q", out)
	}

	bad := writeConfig(t, "gateway: dbus\n")
	if _, err := runRoot(t, "--config", bad, "config", "validate"); err == nil || !strings.Contains(err.Error(), "gateway") {
		t.Fatalf("validate error = %v, want gateway error", err)
	}
}

func TestConfigExplain(t *testing.T) {
	path := writeConfig(t, "read_failure: ignore\n")

	out, err := runRoot(t, "--config", path, "config", "explain", "read_failure")
	if err != nil {
		t.Fatalf("explain error: %v", err)
	}
	if !strings.Contains(out, "read_failure: ignore") || !strings.Contains(out, "config.yaml:1:") {
		t.Fatalf("output = %q", out)
	}

	out, err = runRoot(t, "--config", path, "config", "explain", "gateway")
	if err != nil {
		t.Fatalf("explain error: %v", err)
	}
	if !strings.Contains(out, "source: default") {
		t.Fatalf("output = %q", out)
	}
}

func TestConfigPrintDefaults(t *testing.T) {
	out, err := runRoot(t, "config", "print", "--defaults")
	if err != nil {
		t.Fatalf("print error: %v", err)
	}
	for _, want := range []string{"gateway: xprop", "read_failure: assume-title-bar", "prune_interval: 30s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintWindows(t *testing.T) {
	data := &ipc.WindowsData{Windows: []ipc.WindowInfo{
		{WindowID: 0x3a00003, XID: "0x3a00003", Title: "editor", LastWritten: "2, 0, 0, 0, 0", Original: "2, 0, 1, 0, 0"},
		{WindowID: 0x3a00004, XID: "0x3a00004", Title: "shell", TitleBar: true, Assumed: true, LastWritten: "2, 0, 1, 0, 0"},
	}}

	tests := []struct {
		format string
		want   []string
	}{
		{"table", []string{"XID", "0x3a00003  hidden", "shown (assumed)"}},
		{"yaml", []string{"0x3a00003", "title_bar: false", "assumed: true"}},
		{"json", []string{`"xid": "0x3a00003"`, `"last_written": "2, 0, 0, 0, 0"`}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printWindows(&buf, tt.format, data); err != nil {
				t.Fatalf("printWindows() error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}

	if err := printWindows(&bytes.Buffer{}, "xml", data); err == nil {
		t.Fatal("printWindows(xml) error = nil")
	}
}

func TestPrintWindows_JSONRoundTrips(t *testing.T) {
	data := &ipc.WindowsData{Windows: []ipc.WindowInfo{{XID: "0x1", TitleBar: true}}}
	var buf bytes.Buffer
	if err := printWindows(&buf, "json", data); err != nil {
		t.Fatalf("printWindows() error: %v", err)
	}
	var got ipc.WindowsData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Windows) != 1 || got.Windows[0].XID != "0x1" || !got.Windows[0].TitleBar {
		t.Fatalf("got %+v", got)
	}
}

func TestRestartRequired(t *testing.T) {
	a := config.DefaultConfig()
	b := config.DefaultConfig()
	b.LogLevel = "debug"
	if keys := restartRequired(a, b); len(keys) != 0 {
		t.Fatalf("restartRequired() = %v, want none for log_level", keys)
	}

	b.Gateway = config.GatewayNative
	b.PreserveHintFields = false
	keys := restartRequired(a, b)
	if strings.Join(keys, ",") != "gateway,preserve_hint_fields" {
		t.Fatalf("restartRequired() = %v", keys)
	}
}

func TestReloadConfig(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")
	levelVar := new(slog.LevelVar)
	logger := slog.New(slog.DiscardHandler)
	current := config.DefaultConfig()

	next := reloadConfig(logger, path, current, levelVar)
	if next.LogLevel != "debug" || levelVar.Level() != slog.LevelDebug {
		t.Fatalf("reload = %q at level %v", next.LogLevel, levelVar.Level())
	}

	if err := os.WriteFile(path, []byte("log_level: loud\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := reloadConfig(logger, path, next, levelVar); got != next {
		t.Fatal("failed reload replaced the config")
	}
	if levelVar.Level() != slog.LevelDebug {
		t.Fatalf("level = %v after failed reload", levelVar.Level())
	}
}
