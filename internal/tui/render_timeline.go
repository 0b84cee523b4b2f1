package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/eigenwallet/swapwatch/internal/readmodel"
	"github.com/eigenwallet/swapwatch/internal/timeline"
)

func (m *DashboardModel) renderTimelineDeck(width, height int) string {
	title := m.styles.Title.Render("Timelock Timeline")

	if !m.haveSnapshot || m.selected >= len(m.snapshot.Swaps) {
		return lipgloss.JoinVertical(lipgloss.Left, title, m.styles.Dim.Render("No swap selected"))
	}

	view := m.snapshot.Swaps[m.selected]
	if view.Timeline == nil || view.Info == nil {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			m.styles.Dim.Render("No timelock observation yet"))
	}

	chart := renderTimelineChart(view, m.styles, width, height-3)
	caption := renderTimelineCaption(*view.Timeline, m.styles)

	return lipgloss.JoinVertical(lipgloss.Left, title, chart, caption)
}

// renderTimelineChart draws one bar per timeline segment: elapsed blocks for
// segments already passed, progress into the active one, zero for segments
// still ahead. The open-ended final segment borrows the punish duration as
// its visual scale.
func renderTimelineChart(view readmodel.SwapView, styles Styles, width, height int) string {
	if height < 3 {
		height = 3
	}
	chartWidth := width
	if chartWidth < 12 {
		chartWidth = 12
	}

	pos := *view.Timeline
	segments := timeline.Segments(view.Info.CancelTimelock, view.Info.PunishTimelock)

	durations := []uint64{
		view.Info.CancelTimelock,
		view.Info.PunishTimelock,
		view.Info.PunishTimelock, // open-ended; visual scale only
	}

	bc := barchart.New(chartWidth, height,
		barchart.WithBarGap(1),
		barchart.WithNoAxis(),
	)

	for i, seg := range segments {
		elapsed := 0.0
		switch {
		case i < pos.SegmentIndex:
			elapsed = float64(durations[i])
		case i == pos.SegmentIndex:
			elapsed = float64(pos.BlocksIntoSegment)
			if elapsed == 0 {
				// Keep the active segment visible at the boundary.
				elapsed = float64(durations[i]) * 0.02
			}
		}

		bc.Push(barchart.BarData{
			Label: seg.Label[:1],
			Values: []barchart.BarValue{
				{Name: seg.Label, Value: elapsed, Style: styles.SegmentStyle(i)},
				{Name: seg.Label + " left", Value: float64(durations[i]) - elapsed, Style: styles.StepPending},
			},
		})
	}

	bc.Draw()
	return bc.View()
}

// renderTimelineCaption names the active segment and the position inside it.
func renderTimelineCaption(pos timeline.Position, styles Styles) string {
	names := [3]string{"Normal", "Refund", "Danger"}
	name := "Unknown"
	if pos.SegmentIndex >= 0 && pos.SegmentIndex < len(names) {
		name = names[pos.SegmentIndex]
	}

	var b strings.Builder
	b.WriteString(styles.SegmentTextStyle(pos.SegmentIndex).Render(name))
	if pos.SegmentDuration != nil {
		b.WriteString(styles.Dim.Render(fmt.Sprintf(": block %d of %d", pos.BlocksIntoSegment, *pos.SegmentDuration)))
	} else {
		b.WriteString(styles.Dim.Render(fmt.Sprintf(": %d blocks in", pos.BlocksIntoSegment)))
	}
	return b.String()
}
