package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/notitle/internal/daemon"
	"github.com/1broseidon/notitle/internal/hints"
	"github.com/1broseidon/notitle/internal/platform"
)

// Doer runs a function on the daemon's event loop and waits for it.
type Doer interface {
	Do(ctx context.Context, fn func()) error
}

// ErrDaemonRunning is returned by Start when another daemon owns the socket.
var ErrDaemonRunning = errors.New("daemon already running")

// ServerConfig configures a Server.
type ServerConfig struct {
	SocketPath string
	Engine     *daemon.Engine
	Loop       Doer
	Gateway    string
	// Reload receives a signal when a client asks for a config reload.
	Reload  chan<- struct{}
	Logger  *slog.Logger
	Timeout time.Duration
}

// Server handles IPC requests from clients. Engine access is serialised
// through the loop.
type Server struct {
	socketPath string
	listener   net.Listener
	engine     *daemon.Engine
	loop       Doer
	gateway    string
	reload     chan<- struct{}
	logger     *slog.Logger
	timeout    time.Duration
	startTime  time.Time

	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Server{
		socketPath: cfg.SocketPath,
		engine:     cfg.Engine,
		loop:       cfg.Loop,
		gateway:    cfg.Gateway,
		reload:     cfg.Reload,
		logger:     logger,
		timeout:    timeout,
		startTime:  time.Now(),
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections. A stale socket is replaced; a
// live one means another daemon is running.
func (s *Server) Start() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, 500*time.Millisecond); err == nil {
		conn.Close()
		return fmt.Errorf("%s: %w", s.socketPath, ErrDaemonRunning)
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("ipc server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			stopping := s.shuttingDown
			s.shutdownMu.Unlock()
			if stopping || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("ipc accept error", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(s.timeout))

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Debug("ipc read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.write(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.write(conn, s.handleCommand(req))
}

func (s *Server) write(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Debug("failed to send response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("ipc request", "command", req.Command)

	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandResync:
		return s.handleResync()
	case CommandSetTitleBar:
		return s.handleSetTitleBar(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// onLoop runs fn on the event loop with the request timeout.
func (s *Server) onLoop(fn func()) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.loop.Do(ctx, fn); err != nil {
		return fmt.Errorf("event loop busy: %w", err)
	}
	return nil
}

func (s *Server) handleReload() *Response {
	if s.reload == nil {
		return NewErrorResponse("reload not supported")
	}
	select {
	case s.reload <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	var st daemon.Status
	if err := s.onLoop(func() { st = s.engine.Status() }); err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, err := NewOKResponse(StatusData{
		DaemonRunning: true,
		Enabled:       st.Enabled,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Gateway:       s.gateway,
		Seen:          st.Stats.Seen,
		Tracked:       st.Stats.Tracked,
		Reads:         st.Stats.Reads,
		Writes:        st.Stats.Writes,
		Suppressed:    st.Stats.Suppressed,
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleListWindows() *Response {
	var windows []daemon.TrackedWindow
	if err := s.onLoop(func() { windows = s.engine.Windows() }); err != nil {
		return NewErrorResponse(err.Error())
	}

	data := WindowsData{Windows: make([]WindowInfo, 0, len(windows))}
	for _, w := range windows {
		data.Windows = append(data.Windows, windowInfo(w))
	}

	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleResync() *Response {
	var (
		n   int
		err error
	)
	if lerr := s.onLoop(func() { n, err = s.engine.Resync() }); lerr != nil {
		return NewErrorResponse(lerr.Error())
	}
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to resync: %v", err))
	}

	s.logger.Info("resync requested", "windows", n)
	resp, _ := NewOKResponse(ResyncData{Windows: n})
	return resp
}

func (s *Server) handleSetTitleBar(payload json.RawMessage) *Response {
	var p SetTitleBarPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if p.WindowID == 0 {
		return NewErrorResponse("Invalid payload: window_id is required")
	}

	var (
		tw  daemon.TrackedWindow
		err error
	)
	if lerr := s.onLoop(func() { tw, err = s.engine.SetTitleBar(platform.WindowID(p.WindowID), p.TitleBar) }); lerr != nil {
		return NewErrorResponse(lerr.Error())
	}
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to set title bar: %v", err))
	}

	resp, err := NewOKResponse(windowInfo(tw))
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func windowInfo(w daemon.TrackedWindow) WindowInfo {
	return WindowInfo{
		WindowID:    uint32(w.WindowID),
		XID:         w.ExternalID,
		Title:       w.Title,
		TitleBar:    w.TitleBar(),
		Assumed:     w.Assumed,
		Original:    hints.Encode(w.Original),
		LastWritten: hints.Encode(w.LastWritten),
	}
}

// Stop gracefully shuts down the IPC server and waits for open connections.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
