package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	GatewayXprop  = "xprop"
	GatewayNative = "native"

	ReadFailureAssumeTitleBar = "assume-title-bar"
	ReadFailureIgnore         = "ignore"

	DefaultPruneInterval = 30 * time.Second
)

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a string like \"30s\"")
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value.Value))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the effective daemon configuration.
type Config struct {
	Display            string   `yaml:"display,omitempty"`
	XAuthority         string   `yaml:"xauthority,omitempty"`
	Gateway            string   `yaml:"gateway"`
	XpropCommand       string   `yaml:"xprop_command"`
	ReadFailure        string   `yaml:"read_failure"`
	PreserveHintFields bool     `yaml:"preserve_hint_fields"`
	PruneInterval      Duration `yaml:"prune_interval"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"`
	// ToggleHotkey enables and disables the engine, e.g. "Mod4-Shift-t".
	ToggleHotkey       string   `yaml:"toggle_hotkey,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Gateway:            GatewayXprop,
		XpropCommand:       "xprop",
		ReadFailure:        ReadFailureAssumeTitleBar,
		PreserveHintFields: true,
		PruneInterval:      Duration(DefaultPruneInterval),
		LogLevel:           "info",
		LogFormat:          "auto",
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Gateway {
	case GatewayXprop, GatewayNative:
	default:
		return &ValidationError{Path: "gateway", Err: fmt.Errorf("gateway must be one of: xprop, native")}
	}
	if c.Gateway == GatewayXprop && strings.TrimSpace(c.XpropCommand) == "" {
		return &ValidationError{Path: "xprop_command", Err: fmt.Errorf("xprop_command is required when gateway is xprop")}
	}
	switch c.ReadFailure {
	case ReadFailureAssumeTitleBar, ReadFailureIgnore:
	default:
		return &ValidationError{Path: "read_failure", Err: fmt.Errorf("read_failure must be one of: assume-title-bar, ignore")}
	}
	if c.PruneInterval < 0 {
		return &ValidationError{Path: "prune_interval", Err: fmt.Errorf("prune_interval must be >= 0")}
	}
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	switch c.LogFormat {
	case "auto", "text", "json":
	default:
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: auto, text, json")}
	}
	if err := validateHotkey(c.ToggleHotkey); err != nil {
		return &ValidationError{Path: "toggle_hotkey", Err: err}
	}
	return nil
}

// validateHotkey checks the "Mod-Mod-key" shape. Whether the key exists is
// only known once the keyboard mapping is loaded.
func validateHotkey(seq string) error {
	if seq == "" {
		return nil
	}
	parts := strings.Split(seq, "-")
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(mod) {
		case "shift", "lock", "control", "mod1", "mod2", "mod3", "mod4", "mod5":
		default:
			return fmt.Errorf("unknown modifier %q in %q", mod, seq)
		}
	}
	if parts[len(parts)-1] == "" {
		return fmt.Errorf("hotkey %q has no key", seq)
	}
	return nil
}

// SaveTo writes the configuration to path, or the standard location when path
// is empty.
//
// Note: this marshals the effective config and will not preserve comments or
// includes from the original YAML.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
