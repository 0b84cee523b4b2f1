package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/eigenwallet/swapwatch/internal/connhealth"
)

// Styles is the compiled lipgloss style set derived from a Skin.
type Styles struct {
	skin Skin

	Title    lipgloss.Style
	Dim      lipgloss.Style
	Accent   lipgloss.Style
	Section  lipgloss.Style
	Active   lipgloss.Style
	Selected lipgloss.Style

	StepDone    lipgloss.Style
	StepPending lipgloss.Style
	StepFailed  lipgloss.Style
}

// NewStyles compiles a skin into styles.
func NewStyles(skin Skin) Styles {
	border := lipgloss.RoundedBorder()
	return Styles{
		skin:     skin,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(skin.Accent)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(skin.Dim)),
		Accent:   lipgloss.NewStyle().Foreground(lipgloss.Color(skin.Accent)),
		Section:  lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color(skin.Dim)).Padding(0, 1),
		Active:   lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color(skin.Accent)).Padding(0, 1),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(skin.Accent)),

		StepDone:    lipgloss.NewStyle().Foreground(lipgloss.Color(skin.Steps.Done)),
		StepPending: lipgloss.NewStyle().Foreground(lipgloss.Color(skin.Steps.Pending)),
		StepFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color(skin.Steps.Failed)),
	}
}

// SeverityStyle maps a connection severity onto its palette color.
func (s Styles) SeverityStyle(sev connhealth.Severity) lipgloss.Style {
	color := s.skin.Severity.Info
	switch sev {
	case connhealth.SeveritySuccess:
		color = s.skin.Severity.Success
	case connhealth.SeverityWarning:
		color = s.skin.Severity.Warning
	case connhealth.SeverityError:
		color = s.skin.Severity.Error
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// SegmentStyle maps a timeline segment index onto its palette color. The
// style doubles as bar fill, so foreground and background match.
func (s Styles) SegmentStyle(segmentIndex int) lipgloss.Style {
	color := s.skin.Timeline.Normal
	switch segmentIndex {
	case 1:
		color = s.skin.Timeline.Refund
	case 2:
		color = s.skin.Timeline.Danger
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Background(lipgloss.Color(color))
}

// SegmentTextStyle is SegmentStyle without the background, for labels.
func (s Styles) SegmentTextStyle(segmentIndex int) lipgloss.Style {
	color := s.skin.Timeline.Normal
	switch segmentIndex {
	case 1:
		color = s.skin.Timeline.Refund
	case 2:
		color = s.skin.Timeline.Danger
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
