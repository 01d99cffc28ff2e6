package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/notitle/internal/runtimepath"
)

const defaultClientTimeout = 5 * time.Second

// Client talks to a running daemon over its unix socket. Each call opens a
// fresh connection.
type Client struct {
	socketPath string
	pathErr    error
	timeout    time.Duration
}

// NewClient returns a client for the default socket. Path resolution errors
// are returned by the first call.
func NewClient() *Client {
	path, err := runtimepath.SocketPath()
	c := NewClientWithPath(path)
	c.pathErr = err
	return c
}

// NewClientWithPath returns a client for socketPath.
func NewClientWithPath(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: defaultClientTimeout}
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	if c.pathErr != nil {
		return nil, fmt.Errorf("failed to locate daemon socket: %w", c.pathErr)
	}
	if c.socketPath == "" {
		return nil, errors.New("failed to connect to daemon: no socket path (is the daemon running?)")
	}
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(c.timeout))

	// Encode terminates the message with the newline the server frames on.
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == StatusError {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

// call sends req and decodes the response payload into T.
func call[T any](c *Client, req *Request) (*T, error) {
	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return nil, fmt.Errorf("failed to parse %s data: %w", req.Command, err)
	}
	return out, nil
}

// Reload asks the daemon to reload its configuration.
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

func (c *Client) GetStatus() (*StatusData, error) {
	return call[StatusData](c, &Request{Command: CommandGetStatus})
}

// ListWindows returns the windows whose decoration the daemon manages.
func (c *Client) ListWindows() (*WindowsData, error) {
	return call[WindowsData](c, &Request{Command: CommandListWindows})
}

// Resync asks the daemon to run the sync pass over every open window again.
func (c *Client) Resync() (*ResyncData, error) {
	return call[ResyncData](c, &Request{Command: CommandResync})
}

// SetTitleBar forces the title bar of one tracked window on or off until its
// next maximize change.
func (c *Client) SetTitleBar(windowID uint32, titleBar bool) (*WindowInfo, error) {
	payload, err := json.Marshal(SetTitleBarPayload{WindowID: windowID, TitleBar: titleBar})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return call[WindowInfo](c, &Request{Command: CommandSetTitleBar, Payload: payload})
}

// Ping reports whether the daemon answers.
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
