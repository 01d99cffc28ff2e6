package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/1broseidon/notitle/internal/config"
)

// wizardValues are the form-bound values; strings for huh, converted on apply.
type wizardValues struct {
	gateway       string
	xpropCommand  string
	readFailure   string
	preserve      bool
	pruneInterval string
	logLevel      string
	toggleHotkey  string
}

func valuesFrom(cfg *config.Config) wizardValues {
	return wizardValues{
		gateway:       cfg.Gateway,
		xpropCommand:  cfg.XpropCommand,
		readFailure:   cfg.ReadFailure,
		preserve:      cfg.PreserveHintFields,
		pruneInterval: cfg.PruneInterval.String(),
		logLevel:      cfg.LogLevel,
		toggleHotkey:  cfg.ToggleHotkey,
	}
}

// apply returns a copy of base with the form values, validated.
func (v wizardValues) apply(base *config.Config) (*config.Config, error) {
	cfg := *base
	cfg.Gateway = v.gateway
	cfg.XpropCommand = strings.TrimSpace(v.xpropCommand)
	cfg.ReadFailure = v.readFailure
	cfg.PreserveHintFields = v.preserve
	cfg.LogLevel = v.logLevel
	cfg.ToggleHotkey = strings.TrimSpace(v.toggleHotkey)

	interval, err := time.ParseDuration(strings.TrimSpace(v.pruneInterval))
	if err != nil {
		return nil, fmt.Errorf("prune interval: %w", err)
	}
	cfg.PruneInterval = config.Duration(interval)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validDuration(s string) error {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("must be >= 0")
	}
	return nil
}

func (v *wizardValues) form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("gateway").
				Title("Gateway").
				Description("How _MOTIF_WM_HINTS is read and written").
				Options(
					huh.NewOption("xprop (runs the xprop utility)", config.GatewayXprop),
					huh.NewOption("native (talks to the X server directly)", config.GatewayNative),
				).
				Value(&v.gateway),

			huh.NewInput().
				Key("xprop_command").
				Title("xprop command").
				Description("Used by the xprop gateway").
				Value(&v.xpropCommand),

			huh.NewSelect[string]().
				Key("read_failure").
				Title("Unreadable hints").
				Description("What to do when a window's hints cannot be read").
				Options(
					huh.NewOption("assume a title bar", config.ReadFailureAssumeTitleBar),
					huh.NewOption("leave the window alone", config.ReadFailureIgnore),
				).
				Value(&v.readFailure),

			huh.NewConfirm().
				Key("preserve_hint_fields").
				Title("Preserve other hint fields?").
				Description("Only the decorations field changes when enabled").
				Value(&v.preserve),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("prune_interval").
				Title("Prune interval").
				Description("How often vanished windows are dropped, e.g. 30s").
				Validate(validDuration).
				Value(&v.pruneInterval),

			huh.NewSelect[string]().
				Key("log_level").
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warning", "error")...).
				Value(&v.logLevel),

			huh.NewInput().
				Key("toggle_hotkey").
				Title("Toggle hotkey").
				Description("Enables and disables the daemon, e.g. Mod4-Shift-t. Empty for none").
				Value(&v.toggleHotkey),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

// RunWizard asks for every setting, starting from base, and returns the
// resulting config. It returns huh.ErrUserAborted when the user quits.
func RunWizard(base *config.Config) (*config.Config, error) {
	if base == nil {
		base = config.DefaultConfig()
	}
	v := valuesFrom(base)
	if err := v.form().Run(); err != nil {
		return nil, err
	}
	return v.apply(base)
}
