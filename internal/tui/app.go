package tui

import tea "github.com/charmbracelet/bubbletea"

// App is the root Bubble Tea model for the dashboard client. It owns the
// terminal dimensions and forwards everything else to the active page; today
// that is the swap dashboard, with room for detail pages (per-swap history,
// troubleshooting) to register alongside it.
type App struct {
	pages  map[string]Page
	active string
	width  int
	height int
}

// NewApp wires the given pages into an app. The first page becomes the
// landing page.
func NewApp(pages ...Page) *App {
	byID := make(map[string]Page, len(pages))
	var landing string
	for i, p := range pages {
		byID[p.ID()] = p
		if i == 0 {
			landing = p.ID()
		}
	}
	return &App{
		pages:  byID,
		active: landing,
	}
}

func (a *App) Init() tea.Cmd {
	if p, ok := a.pages[a.active]; ok {
		return p.Init()
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Terminal size is app-level state; pages receive the message too so
	// they can reflow their decks.
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
	}

	p, ok := a.pages[a.active]
	if !ok {
		return a, nil
	}

	cmd, nav := p.Update(msg)

	// A page switch re-initializes the target so its first fetch fires
	// immediately instead of waiting for the next tick.
	if nav != nil {
		if _, exists := a.pages[nav.PageID]; exists {
			a.active = nav.PageID
			return a, tea.Batch(cmd, a.pages[a.active].Init())
		}
	}

	return a, cmd
}

func (a *App) View() string {
	if p, ok := a.pages[a.active]; ok {
		return p.View(a.width, a.height)
	}
	return "No active page"
}
