package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "notitle:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "notitle",
		Short: "Hide window title bars while windows are maximized",
		Long: "notitle watches the X11 window manager and hides the title bar of a window\n" +
			"while it is maximized by rewriting its _MOTIF_WM_HINTS property. The title bar\n" +
			"comes back when the window is restored or the daemon stops.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Config file path (default: ~/.config/notitle/config.yaml)")

	root.AddCommand(
		newDaemonCmd(),
		newStatusCmd(),
		newWindowsCmd(),
		newResyncCmd(),
		newTitleBarCmd(),
		newWatchCmd(),
		newReloadCmd(),
		newConfigCmd(),
		newMCPCmd(),
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\nRun '%s --help' for usage", err, cmd.CommandPath())
	})
	return root
}
