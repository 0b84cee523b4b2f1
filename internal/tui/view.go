package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// View renders the dashboard page.
func (m *DashboardModel) View(width, height int) string {
	if width > 0 {
		m.width = width
	}
	if height > 0 {
		m.height = height
	}
	if m.width <= 0 || m.height <= 0 {
		return "Initializing dashboard..."
	}
	if m.quitting {
		return ""
	}
	if m.height < 16 || m.width < 70 {
		return "Terminal too small. Resize to at least 70x16."
	}

	if m.showApprovals {
		return m.renderApprovalsModal()
	}

	statusLine := m.renderStatusLine()
	statusHeight := lipgloss.Height(statusLine)
	usable := m.height - statusHeight

	// Top row: swap deck on the left, selected swap's timeline on the right.
	topHeight := usable * 2 / 3
	if topHeight < 8 {
		topHeight = 8
	}
	logsHeight := usable - topHeight
	if logsHeight < 3 {
		logsHeight = 3
	}

	leftWidth := m.width * 3 / 5
	rightWidth := m.width - leftWidth - 1

	swapsDeck := m.renderSwapsDeck(leftWidth-2, topHeight-2)
	timelineDeck := m.renderTimelineDeck(rightWidth-2, topHeight-2)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Active.Width(leftWidth-2).Height(topHeight-2).Render(swapsDeck),
		" ",
		m.styles.Section.Width(rightWidth-2).Height(topHeight-2).Render(timelineDeck),
	)

	logsDeck := m.styles.Section.Width(m.width - 3).Height(logsHeight - 2).Render(m.renderLogsDeck(m.width-4, logsHeight-2))

	return lipgloss.JoinVertical(lipgloss.Left, topRow, logsDeck, statusLine)
}
