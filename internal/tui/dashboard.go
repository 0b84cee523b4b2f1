package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eigenwallet/swapwatch/internal/clock"
	"github.com/eigenwallet/swapwatch/internal/connhealth"
)

const (
	defaultRefreshInterval = time.Second
	logTailLimit           = 200
)

type tickMsg time.Time

type snapshotMsg Snapshot

// actionErrMsg carries a failed command result into the status line.
type actionErrMsg struct{ err error }

// DashboardModel is the single dashboard page: swap list with step progress,
// the timelock timeline for the selected swap, the daemon log tail, and the
// connection status line. Approvals render as a modal on top.
type DashboardModel struct {
	client    DataClient
	clk       clock.Clock
	countdown *connhealth.Countdown
	styles    Styles
	refresh   time.Duration

	snapshot     Snapshot
	haveSnapshot bool
	actionErr    error
	spinner      spinner.Model

	width  int
	height int

	selected      int
	showApprovals bool
	approvalIdx   int
	quitting      bool
}

// NewDashboardModel creates the dashboard page.
func NewDashboardModel(client DataClient, clk clock.Clock, skin Skin) *DashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(skin.Accent))
	return &DashboardModel{
		client:    client,
		clk:       clk,
		countdown: connhealth.NewCountdown(clk),
		styles:    NewStyles(skin),
		refresh:   defaultRefreshInterval,
		spinner:   sp,
	}
}

func (m *DashboardModel) ID() string { return "dashboard" }

func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.tickCmd(), m.spinner.Tick)
}

func (m *DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *DashboardModel) fetchCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return snapshotMsg(fetchSnapshot(client, logTailLimit))
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return nil, nil

	case tickMsg:
		// Countdown projection is deadline-based; the tick only triggers a
		// re-render plus the next fetch.
		return tea.Batch(m.fetchCmd(), m.tickCmd()), nil

	case snapshotMsg:
		m.applySnapshot(Snapshot(msg))
		return nil, nil

	case actionErrMsg:
		m.actionErr = msg.err
		return nil, nil

	case spinner.TickMsg:
		if m.haveSnapshot {
			return nil, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd, nil

	case tea.KeyMsg:
		return m.handleKey(msg), nil
	}

	return nil, nil
}

// applySnapshot installs a fresh snapshot and re-arms the retry countdown
// from the absolute deadline, superseding any previous one.
func (m *DashboardModel) applySnapshot(snap Snapshot) {
	m.snapshot = snap
	m.haveSnapshot = true

	if snap.Connection != nil && !snap.Connection.RetryDeadline.IsZero() {
		left := snap.Connection.RetryDeadline.Sub(m.clk.Now())
		if left > 0 {
			m.countdown.Arm(int64((left + time.Second - 1) / time.Second))
		} else {
			m.countdown.Disarm()
		}
	} else {
		m.countdown.Disarm()
	}

	if m.selected >= len(snap.Swaps) {
		m.selected = len(snap.Swaps) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if m.approvalIdx >= len(snap.Approvals) {
		m.approvalIdx = len(snap.Approvals) - 1
	}
	if m.approvalIdx < 0 {
		m.approvalIdx = 0
	}
	if len(snap.Approvals) == 0 {
		m.showApprovals = false
	}
}

func (m *DashboardModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.showApprovals {
		return m.handleApprovalKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return tea.Quit

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.snapshot.Swaps)-1 {
			m.selected++
		}

	case "a":
		if len(m.snapshot.Approvals) > 0 {
			m.showApprovals = true
			m.approvalIdx = 0
		}

	case "R":
		if swapID, ok := m.selectedSwapID(); ok {
			return m.resumeCmd(swapID)
		}

	case "S":
		return m.suspendCmd()
	}

	return nil
}

func (m *DashboardModel) handleApprovalKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "a", "q":
		m.showApprovals = false

	case "up", "k":
		if m.approvalIdx > 0 {
			m.approvalIdx--
		}

	case "down", "j":
		if m.approvalIdx < len(m.snapshot.Approvals)-1 {
			m.approvalIdx++
		}

	case "y":
		return m.resolveCmd(true)

	case "n":
		return m.resolveCmd(false)
	}

	return nil
}

func (m *DashboardModel) selectedSwapID() (string, bool) {
	if m.selected < 0 || m.selected >= len(m.snapshot.Swaps) {
		return "", false
	}
	return m.snapshot.Swaps[m.selected].SwapID, true
}

// resolveCmd dispatches the decision for the highlighted approval and then
// refetches so the pending set updates immediately.
func (m *DashboardModel) resolveCmd(accept bool) tea.Cmd {
	if m.approvalIdx < 0 || m.approvalIdx >= len(m.snapshot.Approvals) {
		return nil
	}
	requestID := m.snapshot.Approvals[m.approvalIdx].RequestID
	client := m.client
	m.showApprovals = len(m.snapshot.Approvals) > 1

	return tea.Batch(
		func() tea.Msg {
			if err := client.ResolveApproval(requestID, accept); err != nil {
				return actionErrMsg{err: err}
			}
			return nil
		},
		m.fetchCmd(),
	)
}

func (m *DashboardModel) resumeCmd(swapID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if err := client.ResumeSwap(swapID); err != nil {
			return actionErrMsg{err: err}
		}
		return nil
	}
}

func (m *DashboardModel) suspendCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if err := client.SuspendCurrentSwap(); err != nil {
			return actionErrMsg{err: err}
		}
		return nil
	}
}
