package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Gateway != GatewayXprop || cfg.ReadFailure != ReadFailureAssumeTitleBar || !cfg.PreserveHintFields {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.PruneInterval.Std() != DefaultPruneInterval {
		t.Fatalf("prune_interval = %v, want %v", res.Config.PruneInterval, DefaultPruneInterval)
	}
	if len(res.Files) != 0 {
		t.Fatalf("files = %v, want none", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("log_level = %q, want info", res.Config.LogLevel)
	}
}

func TestLoadFromPath_AllKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, strings.Join([]string{
		`display: ":1"`,
		`xauthority: /tmp/xauth`,
		`gateway: native`,
		`read_failure: ignore`,
		`preserve_hint_fields: false`,
		`prune_interval: 2m`,
		`log_level: debug`,
		`log_format: json`,
		`toggle_hotkey: Mod4-Shift-t`,
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Display != ":1" || cfg.XAuthority != "/tmp/xauth" {
		t.Fatalf("display/xauthority = %q/%q", cfg.Display, cfg.XAuthority)
	}
	if cfg.Gateway != GatewayNative || cfg.ReadFailure != ReadFailureIgnore || cfg.PreserveHintFields {
		t.Fatalf("engine keys = %+v", cfg)
	}
	if cfg.PruneInterval.Std() != 2*time.Minute {
		t.Fatalf("prune_interval = %v", cfg.PruneInterval)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Fatalf("log keys = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.ToggleHotkey != "Mod4-Shift-t" {
		t.Fatalf("toggle_hotkey = %q", cfg.ToggleHotkey)
	}
}

func TestLoadFromPath_UnknownKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "gap_size: 4\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "gap_size") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
		line int
	}{
		{"gateway", "log_level: info\ngateway: dbus\n", "gateway", 2},
		{"read failure", "read_failure: retry\n", "read_failure", 1},
		{"log level", "log_level: trace\n", "log_level", 1},
		{"log format", "\n\nlog_format: xml\n", "log_format", 3},
		{"negative prune", "prune_interval: -1s\n", "prune_interval", 1},
		{"empty xprop", "xprop_command: \"\"\n", "xprop_command", 1},
		{"hotkey modifier", "toggle_hotkey: Super-t\n", "toggle_hotkey", 1},
		{"hotkey without key", "toggle_hotkey: Mod4-\n", "toggle_hotkey", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.data)

			_, err := LoadFromPath(path)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T %v", err, err)
			}
			if verr.Path != tt.path {
				t.Fatalf("path = %q, want %q", verr.Path, tt.path)
			}
			if verr.Source.Kind != SourceFile || verr.Source.Line != tt.line {
				t.Fatalf("source = %+v, want file line %d", verr.Source, tt.line)
			}
			if !strings.HasPrefix(err.Error(), path+":") {
				t.Fatalf("expected file:line:col prefix, got %v", err)
			}
		})
	}
}

func TestLoadFromPath_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "prune_interval: soon\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Fatalf("expected duration error, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(configD, "10-base.yaml"), "log_level: warning\nread_failure: ignore\n")
	writeFile(t, filepath.Join(configD, "20-override.yaml"), "log_level: error\n")

	// Main file overrides includes.
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"include:",
		"  - config.d",
		"log_level: debug",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "debug" {
		t.Fatalf("log_level = %q, want debug", res.Config.LogLevel)
	}
	if res.Config.ReadFailure != ReadFailureIgnore {
		t.Fatalf("read_failure = %q, want ignore", res.Config.ReadFailure)
	}
	if len(res.Files) != 3 {
		t.Fatalf("files = %v, want 3", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, b, "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestExplain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "gateway: native\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	value, src, err := Explain(res, "gateway")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != GatewayNative || src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("gateway = %v from %+v", value, src)
	}

	value, src, err = Explain(res, "prune_interval")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if value != "30s" || src.Kind != SourceDefault {
		t.Fatalf("prune_interval = %v from %+v", value, src)
	}

	if _, _, err := Explain(res, "layouts"); err == nil {
		t.Fatal("expected unknown path error")
	}
	for _, p := range Paths() {
		if _, _, err := Explain(res, p); err != nil {
			t.Fatalf("Explain(%q): %v", p, err)
		}
	}
}

func TestConfigMarshalsDurationAsString(t *testing.T) {
	out, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "prune_interval: 30s") {
		t.Fatalf("output = %s", out)
	}
}

func TestSaveToRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Gateway = GatewayNative
	cfg.PreserveHintFields = false
	cfg.PruneInterval = Duration(time.Minute)
	cfg.ToggleHotkey = "Mod4-Shift-t"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *res.Config != *cfg {
		t.Fatalf("loaded %+v, want %+v", res.Config, cfg)
	}
}

func TestSaveToRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Gateway = "dbus"
	if err := cfg.SaveTo(path); err == nil {
		t.Fatal("SaveTo() error = nil for invalid config")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("config written despite validation error: %v", err)
	}
}
