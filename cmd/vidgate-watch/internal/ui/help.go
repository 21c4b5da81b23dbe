package ui

import (
	"github.com/rivo/tview"
)

// createHelpPanel creates the help panel.
func (a *App) createHelpPanel() {
	a.helpView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	a.helpView.SetBorder(true).SetTitle(" Help ")

	helpText := `[yellow::b]vidgate watch - Terminal Dashboard[white]

Monitors a running vidgate instance: queue health, recent source
checks, and probe outcomes.

[yellow::b]GLOBAL NAVIGATION[white]
[cyan]1[white]            Dashboard      - Totals, queue, recent rejections
[cyan]2[white]            Checks         - Recent checks with full outcomes
[cyan]?[white]            Help           - This help screen
[cyan]q[white]            Quit           - Exit the application
[cyan]r[white]            Refresh        - Refresh current data
[cyan]Escape[white]       Dashboard      - Return to dashboard

[yellow::b]CHECKS PANEL[white]
[cyan]Up/Down[white]      Move through recent checks
[cyan]Enter[white]        Load the full outcome for the selected check

[yellow::b]CONFIGURATION[white]
The watch UI is configured via environment variables:
[cyan]VIDGATE_API_URL[white]         Server base URL (default http://localhost:9614)
[cyan]VIDGATE_API_KEY[white]         API key for /api/v1 endpoints
[cyan]VIDGATE_STATUS_REFRESH[white]  Refresh interval (default 5s)
`

	a.helpView.SetText(helpText)
}
