// Package tui holds the interactive terminal views: a live window monitor
// and the config wizard.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/notitle/internal/ipc"
)

// Daemon is the part of the IPC client the monitor polls.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListWindows() (*ipc.WindowsData, error)
	Resync() (*ipc.ResyncData, error)
}

var _ Daemon = (*ipc.Client)(nil)

type tickMsg time.Time

type snapshotMsg struct {
	status  *ipc.StatusData
	windows []ipc.WindowInfo
	err     error
}

type resyncMsg struct {
	windows int
	err     error
}

// watchModel is the bubbletea model for the live window monitor.
type watchModel struct {
	daemon   Daemon
	interval time.Duration

	status  *ipc.StatusData
	windows []ipc.WindowInfo
	err     error
	notice  string

	width  int
	height int
}

func newWatchModel(daemon Daemon, interval time.Duration) watchModel {
	if interval <= 0 {
		interval = time.Second
	}
	return watchModel{daemon: daemon, interval: interval}
}

// Watch runs the monitor until the user quits.
func Watch(daemon Daemon, interval time.Duration) error {
	_, err := tea.NewProgram(newWatchModel(daemon, interval), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.tick())
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) fetch() tea.Msg {
	status, err := m.daemon.GetStatus()
	if err != nil {
		return snapshotMsg{err: err}
	}
	data, err := m.daemon.ListWindows()
	if err != nil {
		return snapshotMsg{status: status, err: err}
	}
	return snapshotMsg{status: status, windows: data.Windows}
}

func (m watchModel) resync() tea.Msg {
	data, err := m.daemon.Resync()
	if err != nil {
		return resyncMsg{err: err}
	}
	return resyncMsg{windows: data.Windows}
}

// Update implements tea.Model.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			m.notice = "resyncing…"
			return m, m.resync
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tea.Batch(m.fetch, m.tick())

	case snapshotMsg:
		m.err = msg.err
		m.status = msg.status
		if msg.err == nil {
			m.windows = msg.windows
		}

	case resyncMsg:
		if msg.err != nil {
			m.notice = "resync failed: " + msg.err.Error()
			return m, nil
		}
		m.notice = fmt.Sprintf("resynced %d windows", msg.windows)
		return m, m.fetch
	}
	return m, nil
}

// View implements tea.Model.
func (m watchModel) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	connected := m.status != nil && m.err == nil
	enabled := connected && m.status.Enabled
	detail := ""
	if connected {
		detail = fmt.Sprintf("gateway:%s  up:%s  reads:%d  writes:%d  suppressed:%d",
			m.status.Gateway,
			time.Duration(m.status.UptimeSeconds)*time.Second,
			m.status.Reads, m.status.Writes, m.status.Suppressed)
	}

	var body string
	switch {
	case m.err != nil:
		body = errorStyle.Render(m.err.Error())
	case len(m.windows) == 0:
		body = dimStyle.Render("no tracked windows")
	default:
		body = renderWindows(m.windows, width)
	}
	if m.notice != "" {
		body += "\n\n" + dimStyle.Render(m.notice)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		renderStatusBar(connected, enabled, detail, width),
		"",
		body,
		"",
		renderHelpBar(width),
	)
}

const (
	xidWidth   = 12
	stateWidth = 18
	hintsWidth = 18
)

func renderWindows(windows []ipc.WindowInfo, width int) string {
	titleWidth := width - xidWidth - stateWidth - hintsWidth - 3
	if titleWidth < 10 {
		titleWidth = 10
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%-*s %-*s %-*s %-*s",
		xidWidth, "XID", stateWidth, "TITLE BAR", hintsWidth, "HINTS", titleWidth, "TITLE")))
	for _, w := range windows {
		sb.WriteByte('\n')
		fmt.Fprintf(&sb, "%-*s %s %-*s %s",
			xidWidth, w.XID,
			stateCell(w),
			hintsWidth, w.LastWritten,
			truncate(w.Title, titleWidth))
	}
	return sb.String()
}

func stateCell(w ipc.WindowInfo) string {
	label, style := "shown", shownStyle
	if !w.TitleBar {
		label, style = "hidden", hiddenStyle
	}
	if w.Assumed {
		label += " (assumed)"
		style = assumedStyle
	}
	return style.Render(fmt.Sprintf("%-*s", stateWidth, label))
}
