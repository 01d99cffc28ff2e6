package mcp

import "github.com/1broseidon/notitle/internal/ipc"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// GetStatusOutput is the output for the get_status tool.
type GetStatusOutput struct {
	Status ipc.StatusData `json:"status"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	// TitleBar filters by current decoration when set.
	TitleBar *bool `json:"title_bar,omitempty" jsonschema:"Only return windows whose title bar is currently shown (true) or hidden (false)"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []ipc.WindowInfo `json:"windows"`
}

// ResyncInput is the input for the resync tool.
type ResyncInput struct{}

// ResyncOutput is the output for the resync tool.
type ResyncOutput struct {
	Windows int `json:"windows"`
}
