// Package xprop reads and writes the _MOTIF_WM_HINTS property of X11 windows.
//
// Reads are synchronous because the caller needs the value before it can
// decide whether to track a window. Writes are fire-and-forget: the caller
// never waits for them and failures are only logged.
package xprop

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/1broseidon/notitle/internal/hints"
)

// Gateway is the only I/O boundary for decoration state.
type Gateway interface {
	// Read returns the current hints of the window, or ok == false when the
	// property could not be read or decoded.
	Read(id string) (h hints.Hints, ok bool)
	// Write sets the hints of the window without waiting for completion.
	Write(id string, h hints.Hints)
}

// Runner runs external commands. It is swapped out in tests.
type Runner interface {
	// Output runs the command to completion and returns its stdout.
	// A non-zero exit status is reported as an error.
	Output(name string, args ...string) ([]byte, error)
	// Start launches the command without waiting for it to exit.
	Start(name string, args ...string) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Logger *slog.Logger
}

var _ Runner = ExecRunner{}

func (r ExecRunner) Output(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

func (r ExecRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil && r.Logger != nil {
			r.Logger.Debug("command failed", "command", name, "error", err)
		}
	}()
	return nil
}

// DefaultCommand is the xprop binary looked up in PATH.
const DefaultCommand = "xprop"

// CommandGateway talks to the X server through the xprop utility.
type CommandGateway struct {
	command string
	display string
	runner  Runner
	logger  *slog.Logger
}

var _ Gateway = (*CommandGateway)(nil)

// CommandGatewayConfig configures a CommandGateway.
type CommandGatewayConfig struct {
	Command string // defaults to DefaultCommand
	Display string // passed as -display when set
	Runner  Runner // defaults to ExecRunner
	Logger  *slog.Logger
}

// NewCommandGateway creates a gateway that shells out to xprop.
func NewCommandGateway(cfg CommandGatewayConfig) *CommandGateway {
	command := cfg.Command
	if command == "" {
		command = DefaultCommand
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	runner := cfg.Runner
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &CommandGateway{
		command: command,
		display: cfg.Display,
		runner:  runner,
		logger:  logger,
	}
}

func (g *CommandGateway) baseArgs(id string) []string {
	var args []string
	if g.display != "" {
		args = append(args, "-display", g.display)
	}
	return append(args, "-id", id, "-f", hints.PropertyName, hints.PropertyFormat)
}

// ReadArgs returns the xprop arguments used to read the hints of id.
func (g *CommandGateway) ReadArgs(id string) []string {
	return append(g.baseArgs(id), "-notype", hints.PropertyName)
}

// WriteArgs returns the xprop arguments used to set the hints of id.
func (g *CommandGateway) WriteArgs(id string, h hints.Hints) []string {
	return append(g.baseArgs(id), "-set", hints.PropertyName, hints.Encode(h))
}

// Read runs xprop and decodes its output. Any failure yields ok == false.
func (g *CommandGateway) Read(id string) (hints.Hints, bool) {
	g.logger.Debug("expensive: reading motif hints", "xid", id)

	out, err := g.runner.Output(g.command, g.ReadArgs(id)...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			g.logger.Debug("xprop exited with error", "xid", id, "exit_code", exitErr.ExitCode())
		} else {
			g.logger.Debug("xprop failed", "xid", id, "error", err)
		}
		return hints.Hints{}, false
	}

	h, err := hints.Decode(string(out))
	if err != nil {
		g.logger.Debug("unreadable motif hints", "xid", id, "error", err)
		return hints.Hints{}, false
	}
	return h, true
}

// Write starts xprop -set and returns immediately.
func (g *CommandGateway) Write(id string, h hints.Hints) {
	g.logger.Debug("expensive: updating motif hints", "xid", id, "hints", hints.Encode(h))

	if err := g.runner.Start(g.command, g.WriteArgs(id, h)...); err != nil {
		g.logger.Warn("failed to start xprop", "xid", id, "error", fmt.Errorf("start %s: %w", g.command, err))
	}
}
