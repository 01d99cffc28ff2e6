package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/notitle/internal/ipc"
	"github.com/1broseidon/notitle/internal/tui"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live view of tracked windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("watch requires an interactive terminal (stdin/stdout must be TTYs)")
			}
			interval, _ := cmd.Flags().GetDuration("interval")
			return tui.Watch(ipc.NewClient(), interval)
		},
	}
	cmd.Flags().Duration("interval", 0, "Refresh interval (default 1s)")
	return cmd
}
