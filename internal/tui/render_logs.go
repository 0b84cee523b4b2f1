package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/eigenwallet/swapwatch/internal/logparse"
)

func (m *DashboardModel) renderLogsDeck(width, height int) string {
	title := m.styles.Title.Render("Daemon Log")

	maxRows := height - 1
	if maxRows < 1 {
		maxRows = 1
	}

	logs := m.snapshot.Logs
	if len(logs) > maxRows {
		logs = logs[len(logs)-maxRows:]
	}

	lines := []string{title}
	if len(logs) == 0 {
		lines = append(lines, m.styles.Dim.Render("No log lines yet"))
	}
	for _, entry := range logs {
		lines = append(lines, m.renderLogLine(entry, width))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *DashboardModel) renderLogLine(entry logparse.Entry, width int) string {
	sev := logparse.NormalizeSeverity(entry.Severity)
	style := m.styles.Dim
	switch sev {
	case "WARN":
		style = m.styles.SeverityStyle("warning")
	case "ERROR":
		style = m.styles.SeverityStyle("error")
	}

	stamp := ""
	if !entry.Timestamp.IsZero() {
		stamp = entry.Timestamp.Format("15:04:05") + " "
	}

	line := fmt.Sprintf("%s%s %s", stamp, style.Render(fmt.Sprintf("%-5s", sev)), entry.Message)
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}
