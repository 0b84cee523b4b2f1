package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/eigenwallet/swapwatch/internal/connhealth"
)

// renderStatusLine draws the bottom status line: connection health with the
// live retry countdown, balance, pending approvals, and the last action error.
func (m *DashboardModel) renderStatusLine() string {
	var parts []string

	if m.snapshot.Connection != nil {
		status := connhealth.Classify(m.snapshot.Connection.Progress, m.countdown.Remaining())
		parts = append(parts, m.styles.SeverityStyle(status.Severity).Render(status.Message))
		if status.PersistentFailure {
			parts = append(parts, m.styles.SeverityStyle(connhealth.SeverityError).Render("persistent failure"))
		} else if status.ShowTroubleshooting {
			parts = append(parts, m.styles.Dim.Render("press ? for troubleshooting"))
		}
	} else {
		parts = append(parts, m.styles.Dim.Render("Waiting for daemon telemetry"))
	}

	if m.snapshot.Balance.Known {
		parts = append(parts, m.styles.Accent.Render(fmt.Sprintf("%d sat", m.snapshot.Balance.Balance)))
	}

	if n := len(m.snapshot.Approvals); n > 0 {
		parts = append(parts, m.styles.SeverityStyle(connhealth.SeverityWarning).
			Render(fmt.Sprintf("%d approval(s) pending [a]", n)))
	}

	for _, task := range m.snapshot.Background.Tasks {
		parts = append(parts, m.styles.Dim.Render(fmt.Sprintf("%s %d%%", task.Label, task.Progress)))
	}

	if m.actionErr != nil {
		parts = append(parts, m.styles.SeverityStyle(connhealth.SeverityError).Render(m.actionErr.Error()))
	} else if m.snapshot.Err != nil {
		parts = append(parts, m.styles.SeverityStyle(connhealth.SeverityError).Render(m.snapshot.Err.Error()))
	}

	line := strings.Join(parts, m.styles.Dim.Render("  │  "))
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}
