package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/notitle/internal/ipc"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, GetStatusOutput, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, GetStatusOutput{}, err
	}
	return nil, GetStatusOutput{Status: *status}, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	data, err := s.daemon.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, err
	}

	windows := make([]ipc.WindowInfo, 0, len(data.Windows))
	for _, w := range data.Windows {
		if args.TitleBar != nil && w.TitleBar != *args.TitleBar {
			continue
		}
		windows = append(windows, w)
	}
	return nil, ListWindowsOutput{Windows: windows}, nil
}

func (s *Server) handleResync(_ context.Context, _ *mcpsdk.CallToolRequest, _ ResyncInput) (*mcpsdk.CallToolResult, ResyncOutput, error) {
	data, err := s.daemon.Resync()
	if err != nil {
		return nil, ResyncOutput{}, err
	}
	s.logger.Info("resync via mcp", "windows", data.Windows)

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf("Resynced %d windows", data.Windows)},
		},
	}, ResyncOutput{Windows: data.Windows}, nil
}
