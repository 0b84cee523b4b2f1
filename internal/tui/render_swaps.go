package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/eigenwallet/swapwatch/internal/readmodel"
	"github.com/eigenwallet/swapwatch/internal/steps"
)

// fallbackText is shown whenever a swap's classification could not be
// derived. The raw record still renders; only the ladder is withheld.
const fallbackText = "no information to display"

func (m *DashboardModel) renderSwapsDeck(width, height int) string {
	title := m.styles.Title.Render("Swaps")

	if !m.haveSnapshot {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			m.spinner.View()+" "+m.styles.Dim.Render("Waiting for the monitor..."))
	}
	if len(m.snapshot.Swaps) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, m.styles.Dim.Render("No swaps in this session"))
	}

	maxRows := height - 1
	if maxRows < 1 {
		maxRows = 1
	}

	lines := []string{title}
	for i, view := range m.snapshot.Swaps {
		if i >= maxRows {
			lines = append(lines, m.styles.Dim.Render(fmt.Sprintf("… %d more", len(m.snapshot.Swaps)-maxRows)))
			break
		}
		lines = append(lines, m.renderSwapRow(view, i == m.selected, width))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *DashboardModel) renderSwapRow(view readmodel.SwapView, selected bool, width int) string {
	cursor := "  "
	if selected {
		cursor = m.styles.Selected.Render("> ")
	}

	id := shortID(view.SwapID)
	if selected {
		id = m.styles.Selected.Render(id)
	}

	ladder := renderStepLadder(view.Classification, view.Fallback, m.styles)
	label := swapStateLabel(view)

	row := fmt.Sprintf("%s%s  %s  %s", cursor, id, ladder, m.styles.Dim.Render(label))
	return lipgloss.NewStyle().MaxWidth(width).Render(row)
}

// renderStepLadder draws the step dots for a classification: done steps
// filled, the active step marked (or failed), remaining steps hollow.
func renderStepLadder(c *steps.Classification, fallback bool, styles Styles) string {
	if fallback || c == nil {
		return styles.Dim.Render(fallbackText)
	}

	total := steps.HappyStepCount
	pathLabel := "swap"
	if c.Path == steps.PathUnhappy {
		total = steps.UnhappyStepCount
		pathLabel = "refund"
	}

	var b strings.Builder
	for i := 0; i < total; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		switch {
		case i < c.Step:
			b.WriteString(styles.StepDone.Render("●"))
		case i == c.Step && c.IsError:
			b.WriteString(styles.StepFailed.Render("✗"))
		case i == c.Step:
			b.WriteString(styles.StepDone.Render("●"))
		default:
			b.WriteString(styles.StepPending.Render("○"))
		}
	}

	counter := fmt.Sprintf(" %s %d/%d", pathLabel, c.Step+1, total)
	if c.IsError {
		return b.String() + styles.StepFailed.Render(counter)
	}
	return b.String() + styles.Dim.Render(counter)
}

// swapStateLabel names the swap's effective state for the row.
func swapStateLabel(view readmodel.SwapView) string {
	if view.ProcessExited {
		if view.Record.Previous != nil {
			return fmt.Sprintf("%s (exited)", view.Record.Previous.Tag())
		}
		return "exited"
	}
	if view.Record.Current != nil {
		return string(view.Record.Current.Tag())
	}
	if view.Info != nil && view.Info.StateName != "" {
		return view.Info.StateName
	}
	return "unknown"
}

// shortID truncates a swap UUID for row display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
