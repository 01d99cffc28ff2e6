package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/notitle/internal/ipc"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ipc.NewClient().GetStatus()
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func printStatus(w io.Writer, s *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running: %v\n", s.DaemonRunning)
	fmt.Fprintf(w, "enabled:        %v\n", s.Enabled)
	fmt.Fprintf(w, "gateway:        %s\n", s.Gateway)
	fmt.Fprintf(w, "uptime_seconds: %d\n", s.UptimeSeconds)
	fmt.Fprintf(w, "windows:        %d tracked, %d seen\n", s.Tracked, s.Seen)
	fmt.Fprintf(w, "hints:          %d reads, %d writes, %d suppressed\n", s.Reads, s.Writes, s.Suppressed)
}

func newWindowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List tracked windows and their decoration state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			data, err := ipc.NewClient().ListWindows()
			if err != nil {
				return err
			}
			return printWindows(cmd.OutOrStdout(), format, data)
		},
	}
	cmd.Flags().String("format", "table", "Output format: table, yaml, json")
	return cmd
}

func printWindows(w io.Writer, format string, data *ipc.WindowsData) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "XID\tTITLE BAR\tLAST WRITTEN\tTITLE")
		for _, win := range data.Windows {
			bar := "shown"
			if !win.TitleBar {
				bar = "hidden"
			}
			if win.Assumed {
				bar += " (assumed)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", win.XID, bar, win.LastWritten, win.Title)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (use table, yaml, or json)", format)
	}
}

func newResyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Re-check every open window against its maximized state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := ipc.NewClient().Resync()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resynced %d windows\n", data.Windows)
			return nil
		},
	}
}

func newTitleBarCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "titlebar <xid> show|hide",
		Short:     "Show or hide the title bar of one tracked window until it is next maximized or restored",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"show", "hide"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, show, err := parseTitleBarArgs(args[0], args[1])
			if err != nil {
				return err
			}
			info, err := ipc.NewClient().SetTitleBar(id, show)
			if err != nil {
				return err
			}
			return printWindows(cmd.OutOrStdout(), "table", &ipc.WindowsData{Windows: []ipc.WindowInfo{*info}})
		},
	}
}

// parseTitleBarArgs accepts a hex (0x...) or decimal window id and show/hide.
func parseTitleBarArgs(xid, state string) (uint32, bool, error) {
	id, err := strconv.ParseUint(xid, 0, 32)
	if err != nil || id == 0 {
		return 0, false, fmt.Errorf("invalid window id %q (use e.g. 0x3a00003)", xid)
	}
	switch state {
	case "show":
		return uint32(id), true, nil
	case "hide":
		return uint32(id), false, nil
	default:
		return 0, false, fmt.Errorf("invalid state %q (use show or hide)", state)
	}
}

func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the running daemon to reload its config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ipc.NewClient().Reload(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "reload requested")
			return nil
		},
	}
}
