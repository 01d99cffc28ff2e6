package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML path and its source.
//
// Supported paths:
//
//	display
//	xauthority
//	gateway
//	xprop_command
//	read_failure
//	preserve_hint_fields
//	prune_interval
//	log_level
//	log_format
//	toggle_hotkey
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

// Paths lists every path Explain accepts.
func Paths() []string {
	return []string{
		"display",
		"xauthority",
		"gateway",
		"xprop_command",
		"read_failure",
		"preserve_hint_fields",
		"prune_interval",
		"log_level",
		"log_format",
		"toggle_hotkey",
	}
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "display":
		return cfg.Display, nil
	case "xauthority":
		return cfg.XAuthority, nil
	case "gateway":
		return cfg.Gateway, nil
	case "xprop_command":
		return cfg.XpropCommand, nil
	case "read_failure":
		return cfg.ReadFailure, nil
	case "preserve_hint_fields":
		return cfg.PreserveHintFields, nil
	case "prune_interval":
		return cfg.PruneInterval.String(), nil
	case "log_level":
		return cfg.LogLevel, nil
	case "log_format":
		return cfg.LogFormat, nil
	case "toggle_hotkey":
		return cfg.ToggleHotkey, nil
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
