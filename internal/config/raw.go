package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawConfig is one config file as written. Unset keys stay nil so files can
// be layered.
type RawConfig struct {
	Include IncludeList `yaml:"include"`

	Display            *string   `yaml:"display"`
	XAuthority         *string   `yaml:"xauthority"`
	Gateway            *string   `yaml:"gateway"`
	XpropCommand       *string   `yaml:"xprop_command"`
	ReadFailure        *string   `yaml:"read_failure"`
	PreserveHintFields *bool     `yaml:"preserve_hint_fields"`
	PruneInterval      *Duration `yaml:"prune_interval"`
	LogLevel           *string   `yaml:"log_level"`
	LogFormat          *string   `yaml:"log_format"`
	ToggleHotkey       *string   `yaml:"toggle_hotkey"`
}

// merge layers other over r.
func (r RawConfig) merge(other RawConfig) RawConfig {
	out := r
	out.Include = nil

	if other.Display != nil {
		out.Display = other.Display
	}
	if other.XAuthority != nil {
		out.XAuthority = other.XAuthority
	}
	if other.Gateway != nil {
		out.Gateway = other.Gateway
	}
	if other.XpropCommand != nil {
		out.XpropCommand = other.XpropCommand
	}
	if other.ReadFailure != nil {
		out.ReadFailure = other.ReadFailure
	}
	if other.PreserveHintFields != nil {
		out.PreserveHintFields = other.PreserveHintFields
	}
	if other.PruneInterval != nil {
		out.PruneInterval = other.PruneInterval
	}
	if other.LogLevel != nil {
		out.LogLevel = other.LogLevel
	}
	if other.LogFormat != nil {
		out.LogFormat = other.LogFormat
	}
	if other.ToggleHotkey != nil {
		out.ToggleHotkey = other.ToggleHotkey
	}
	return out
}
