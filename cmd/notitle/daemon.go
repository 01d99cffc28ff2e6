package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/notitle/internal/config"
	"github.com/1broseidon/notitle/internal/daemon"
	"github.com/1broseidon/notitle/internal/ipc"
	"github.com/1broseidon/notitle/internal/logging"
	"github.com/1broseidon/notitle/internal/loop"
	"github.com/1broseidon/notitle/internal/platform"
	"github.com/1broseidon/notitle/internal/runtimepath"
	"github.com/1broseidon/notitle/internal/x11"
	"github.com/1broseidon/notitle/internal/xprop"
)

type closableHost interface {
	platform.Host
	Close()
}

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the decoration sync daemon",
		Long: "Run the decoration sync daemon in the foreground. Title bars of maximized\n" +
			"windows are hidden until the daemon exits, when every tracked window gets\n" +
			"its title bar back. SIGHUP reloads the config.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			return runDaemon(cmd.Context(), path)
		},
	}
}

func runDaemon(ctx context.Context, configPath string) error {
	res, err := loadConfigFrom(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := res.Config

	levelVar := new(slog.LevelVar)
	if err := setLevel(levelVar, cfg.LogLevel); err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogFormat, levelVar)
	logger.Info("starting notitle daemon", "version", version, "config_files", res.Files)

	session, err := x11.ResolveSessionEnv(os.Environ(), cfg.Display, cfg.XAuthority)
	if err != nil {
		return err
	}
	if err := session.Export(); err != nil {
		return fmt.Errorf("failed to export session env: %w", err)
	}
	logger.Info("using X session", "display", session.Display, "xauthority", session.XAuthority)

	conn, err := x11.NewConnection(session.Display)
	if err != nil {
		return err
	}

	l := loop.New(logger.With("component", "loop"))
	tracker := daemon.NewTracker(newGateway(cfg, session.Display, conn, logger), daemon.TrackerConfig{
		ReadFailure:    daemon.ReadFailurePolicy(cfg.ReadFailure),
		PreserveFields: cfg.PreserveHintFields,
		Logger:         logger.With("component", "tracker"),
	})

	host, err := newHost(conn, l, logger.With("component", "x11"))
	if err != nil {
		conn.Close()
		return err
	}
	defer host.Close()

	engine := daemon.NewEngine(host, tracker, l, logger.With("component", "engine"))

	// Claim the socket before touching any window.
	reloadCh := make(chan struct{}, 1)
	server, err := newIPCServer(cfg.Gateway, engine, l, reloadCh, logger.With("component", "ipc"))
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}

	if err := engine.Enable(); err != nil {
		server.Stop()
		return err
	}

	if cfg.ToggleHotkey != "" {
		release, err := bindHotkey(host, conn, cfg.ToggleHotkey, func() { toggleEngine(engine, logger) }, logger.With("component", "hotkeys"))
		if err != nil {
			logger.Warn("toggle hotkey unavailable", "sequence", cfg.ToggleHotkey, "error", err)
		} else {
			defer release()
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pruner := daemon.NewPruner(daemon.PrunerConfig{
		Interval: cfg.PruneInterval.Std(),
		Logger:   logger.With("component", "pruner"),
	}, engine, l)
	go pruner.Run(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("received SIGHUP, reloading config")
					l.Post(func() { cfg = reloadConfig(logger, configPath, cfg, levelVar) })
					continue
				}
				logger.Info("shutting down", "signal", sig.String())
				cancel()
				return
			case <-reloadCh:
				l.Post(func() { cfg = reloadConfig(logger, configPath, cfg, levelVar) })
			}
		}
	}()

	// This goroutine owns the engine from here on.
	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("event loop stopped", "error", err)
	}

	var errs []error
	if err := engine.Disable(); err != nil && !errors.Is(err, daemon.ErrNotEnabled) {
		errs = append(errs, err)
	}
	l.RunPending()
	server.Stop()
	logger.Info("daemon stopped")
	return errors.Join(errs...)
}

// newIPCServer builds the control server on the resolved socket path.
func newIPCServer(gateway string, engine *daemon.Engine, l ipc.Doer, reload chan<- struct{}, logger *slog.Logger) (*ipc.Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return ipc.NewServer(ipc.ServerConfig{
		SocketPath: socketPath,
		Engine:     engine,
		Loop:       l,
		Gateway:    gateway,
		Reload:     reload,
		Logger:     logger,
	}), nil
}

// toggleEngine flips the engine between enabled and disabled. Disabling
// restores every title bar.
func toggleEngine(engine *daemon.Engine, logger *slog.Logger) {
	var err error
	if engine.Enabled() {
		err = engine.Disable()
	} else {
		err = engine.Enable()
	}
	if err != nil {
		logger.Error("toggle failed", "error", err)
		return
	}
	logger.Info("decoration sync toggled", "enabled", engine.Enabled())
}

func newGateway(cfg *config.Config, display string, conn *x11.Connection, logger *slog.Logger) xprop.Gateway {
	logger = logger.With("component", "gateway", "gateway", cfg.Gateway)
	if cfg.Gateway == config.GatewayNative {
		return xprop.NewNativeGateway(conn.XUtil, logger)
	}
	return xprop.NewCommandGateway(xprop.CommandGatewayConfig{
		Command: cfg.XpropCommand,
		Display: display,
		Logger:  logger,
	})
}

func setLevel(levelVar *slog.LevelVar, name string) error {
	level, err := logging.ParseLevel(name)
	if err != nil {
		return err
	}
	levelVar.Set(level)
	return nil
}

// reloadConfig applies the live-reloadable settings from a fresh load and
// returns the config now in effect.
func reloadConfig(logger *slog.Logger, path string, current *config.Config, levelVar *slog.LevelVar) *config.Config {
	res, err := loadConfigFrom(path)
	if err != nil {
		logger.Error("config reload failed", "error", err)
		return current
	}
	next := res.Config
	if err := setLevel(levelVar, next.LogLevel); err != nil {
		logger.Error("config reload failed", "error", err)
		return current
	}
	if keys := restartRequired(current, next); len(keys) > 0 {
		logger.Warn("config changes take effect after a restart", "keys", keys)
	}
	logger.Info("config reloaded", "log_level", next.LogLevel)
	return next
}

// restartRequired lists the keys that differ between a and b and are only read
// at startup.
func restartRequired(a, b *config.Config) []string {
	var keys []string
	check := func(key string, changed bool) {
		if changed {
			keys = append(keys, key)
		}
	}
	check("display", a.Display != b.Display)
	check("xauthority", a.XAuthority != b.XAuthority)
	check("gateway", a.Gateway != b.Gateway)
	check("xprop_command", a.XpropCommand != b.XpropCommand)
	check("read_failure", a.ReadFailure != b.ReadFailure)
	check("preserve_hint_fields", a.PreserveHintFields != b.PreserveHintFields)
	check("prune_interval", a.PruneInterval != b.PruneInterval)
	check("log_format", a.LogFormat != b.LogFormat)
	check("toggle_hotkey", a.ToggleHotkey != b.ToggleHotkey)
	return keys
}
