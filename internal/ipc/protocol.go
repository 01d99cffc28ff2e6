package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType names a request. Requests and responses are single JSON
// objects terminated by a newline.
type CommandType string

const (
	CommandReload      CommandType = "RELOAD"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandResync      CommandType = "RESYNC"
	CommandSetTitleBar CommandType = "SET_TITLE_BAR"
)

// Response statuses.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData is the GET_STATUS payload.
type StatusData struct {
	DaemonRunning bool   `json:"daemon_running" yaml:"daemon_running"`
	Enabled       bool   `json:"enabled" yaml:"enabled"`
	UptimeSeconds int64  `json:"uptime_seconds" yaml:"uptime_seconds"`
	Gateway       string `json:"gateway" yaml:"gateway"`
	Seen          int    `json:"seen" yaml:"seen"`
	Tracked       int    `json:"tracked" yaml:"tracked"`
	Reads         int    `json:"reads" yaml:"reads"`
	Writes        int    `json:"writes" yaml:"writes"`
	Suppressed    int    `json:"suppressed" yaml:"suppressed"`
}

// WindowInfo describes one tracked window.
type WindowInfo struct {
	WindowID    uint32 `json:"window_id" yaml:"window_id"`
	XID         string `json:"xid" yaml:"xid"`
	Title       string `json:"title" yaml:"title"`
	TitleBar    bool   `json:"title_bar" yaml:"title_bar"`
	Assumed     bool   `json:"assumed,omitempty" yaml:"assumed,omitempty"`
	Original    string `json:"original" yaml:"original"`
	LastWritten string `json:"last_written" yaml:"last_written"`
}

// WindowsData is the LIST_WINDOWS payload.
type WindowsData struct {
	Windows []WindowInfo `json:"windows" yaml:"windows"`
}

// SetTitleBarPayload is the SET_TITLE_BAR request payload.
type SetTitleBarPayload struct {
	WindowID uint32 `json:"window_id"`
	TitleBar bool   `json:"title_bar"`
}

// ResyncData is the RESYNC payload.
type ResyncData struct {
	Windows int `json:"windows" yaml:"windows"`
}

// NewOKResponse wraps data, if any, in an OK response.
func NewOKResponse(data any) (*Response, error) {
	resp := &Response{Status: StatusOK}
	if data == nil {
		return resp, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %w", err)
	}
	resp.Data = raw
	return resp, nil
}

func NewErrorResponse(msg string) *Response {
	return &Response{Status: StatusError, Error: msg}
}

// ParseRequest decodes one request line.
func ParseRequest(line []byte) (*Request, error) {
	req := new(Request)
	if err := json.Unmarshal(line, req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: missing command")
	}
	return req, nil
}

func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
