package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/notitle/internal/ipc"
	"github.com/1broseidon/notitle/internal/logging"
	"github.com/1broseidon/notitle/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol integration",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: "Start the MCP server on stdio. Designed to be invoked by MCP clients,\n" +
			"for example:\n\n  claude mcp add notitle -- notitle mcp serve",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol; logs go to stderr.
			logger := logging.New(os.Stderr, logging.FormatText, new(slog.LevelVar))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return mcp.NewServer(ipc.NewClient(), logger).Run(ctx)
		},
	}

	cmd.AddCommand(serve)
	return cmd
}
