package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderApprovalsModal renders the pending approval list full-screen. Expired
// requests never reach this view; the store prunes them on read.
func (m *DashboardModel) renderApprovalsModal() string {
	title := m.styles.Title.Render("Pending Approvals")
	hint := m.styles.Dim.Render("y accept · n reject · esc close")

	lines := []string{title, ""}
	now := m.clk.Now()
	for i, req := range m.snapshot.Approvals {
		cursor := "  "
		if i == m.approvalIdx {
			cursor = m.styles.Selected.Render("> ")
		}

		expires := req.ExpiresAt.Sub(now).Round(time.Second)
		var expiry string
		if expires > 0 {
			expiry = m.styles.Dim.Render(fmt.Sprintf("expires in %s", expires))
		} else {
			expiry = m.styles.SeverityStyle("error").Render("expired")
		}

		lines = append(lines, fmt.Sprintf("%s%s  %s  %s",
			cursor, m.styles.Accent.Render(req.Kind), req.RequestID, expiry))
		if len(req.Details) > 0 && i == m.approvalIdx {
			lines = append(lines, "    "+m.styles.Dim.Render(string(req.Details)))
		}
	}

	lines = append(lines, "", hint)
	block := lipgloss.JoinVertical(lipgloss.Left, lines...)
	boxed := m.styles.Active.Render(block)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxed)
}
