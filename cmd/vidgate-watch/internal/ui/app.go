// Package ui provides the terminal dashboard for watching a vidgate instance.
package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/iconidentify/vidgate/cmd/vidgate-watch/internal/client"
	"github.com/iconidentify/vidgate/cmd/vidgate-watch/internal/config"
)

// Panel represents a UI panel type.
type Panel int

const (
	PanelDashboard Panel = iota
	PanelChecks
	PanelHelp
)

// App is the watch UI application.
type App struct {
	app          *tview.Application
	pages        *tview.Pages
	cfg          *config.Config
	apiClient    *client.Client
	currentPanel Panel
	ctx          context.Context
	cancel       context.CancelFunc

	// UI components
	mainFlex      *tview.Flex
	header        *tview.TextView
	footer        *tview.TextView
	statusBar     *tview.TextView
	dashboardView *tview.Flex
	checksTable   *tview.Table
	detailView    *tview.TextView
	checksView    *tview.Flex
	helpView      *tview.TextView

	// State
	mu            sync.RWMutex
	stats         *client.Stats
	checks        []client.Check
	refreshTicker *time.Ticker
}

// NewApp creates the watch UI application.
func NewApp(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		cfg:       cfg,
		apiClient: client.NewClient(cfg.APIURL, cfg.APIKey),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupUI()
	return a, nil
}

// setupUI initializes all UI components.
func (a *App) setupUI() {
	// Header
	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.header.SetBackgroundColor(tcell.ColorDarkBlue)
	a.updateHeader()

	// Footer with keybindings
	a.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[yellow]1[white]:Dashboard [yellow]2[white]:Checks [yellow]r[white]:Refresh [yellow]?[white]:Help [yellow]q[white]:Quit")
	a.footer.SetBackgroundColor(tcell.ColorDarkBlue)

	// Status bar
	a.statusBar = tview.NewTextView().
		SetDynamicColors(true)
	a.statusBar.SetBackgroundColor(tcell.ColorDarkGreen)

	// Create panels
	a.createDashboardPanel()
	a.createChecksPanel()
	a.createHelpPanel()

	// Add panels to pages
	a.pages.AddPage("dashboard", a.dashboardView, true, true)
	a.pages.AddPage("checks", a.checksView, true, false)
	a.pages.AddPage("help", a.helpView, true, false)

	// Main layout
	a.mainFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 3, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false).
		AddItem(a.footer, 1, 0, false)

	// Global key bindings
	a.app.SetInputCapture(a.handleGlobalKeys)

	a.app.SetRoot(a.mainFlex, true)
}

// handleGlobalKeys handles global keyboard shortcuts.
func (a *App) handleGlobalKeys(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyRune:
		switch event.Rune() {
		case '1':
			a.switchPanel(PanelDashboard)
			return nil
		case '2':
			a.switchPanel(PanelChecks)
			return nil
		case '?':
			a.switchPanel(PanelHelp)
			return nil
		case 'q', 'Q':
			a.Stop()
			return nil
		case 'r', 'R':
			go a.refresh()
			return nil
		}
	case tcell.KeyEscape:
		a.switchPanel(PanelDashboard)
		return nil
	}

	return event
}

// switchPanel switches to the specified panel.
func (a *App) switchPanel(panel Panel) {
	a.currentPanel = panel

	switch panel {
	case PanelDashboard:
		a.pages.SwitchToPage("dashboard")
	case PanelChecks:
		a.pages.SwitchToPage("checks")
		a.app.SetFocus(a.checksTable)
	case PanelHelp:
		a.pages.SwitchToPage("help")
	}

	a.updateHeader()
}

// updateHeader updates the header with current panel name.
func (a *App) updateHeader() {
	var panelName string
	switch a.currentPanel {
	case PanelDashboard:
		panelName = "Dashboard"
	case PanelChecks:
		panelName = "Checks"
	case PanelHelp:
		panelName = "Help"
	}

	a.header.SetText(fmt.Sprintf("\n[white::b]vidgate watch[white] - [yellow]%s[white] | Server: [green]%s",
		panelName, a.cfg.APIURL))
}

// updateStatusBar updates the status bar with current status.
func (a *App) updateStatusBar(msg string) {
	a.app.QueueUpdateDraw(func() {
		a.statusBar.SetText(fmt.Sprintf(" %s | Last refresh: %s", msg, time.Now().Format("15:04:05")))
	})
}

// Run starts the watch UI.
func (a *App) Run() error {
	// Start background refresh
	go a.startBackgroundRefresh()

	// Initial fetch
	go a.refresh()

	return a.app.Run()
}

// Stop stops the watch UI.
func (a *App) Stop() {
	a.cancel()
	if a.refreshTicker != nil {
		a.refreshTicker.Stop()
	}
	a.app.Stop()
}

// startBackgroundRefresh starts periodic refresh.
func (a *App) startBackgroundRefresh() {
	a.refreshTicker = time.NewTicker(a.cfg.StatusRefresh)
	defer a.refreshTicker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.refreshTicker.C:
			a.refresh()
		}
	}
}

// refresh fetches current stats and recent checks from the server.
func (a *App) refresh() {
	a.updateStatusBar("Refreshing...")

	ctx, cancel := context.WithTimeout(a.ctx, 30*time.Second)
	defer cancel()

	stats, err := a.apiClient.GetStats(ctx)
	if err != nil {
		a.updateStatusBar(fmt.Sprintf("[red]Error: %v", err))
		return
	}

	checks, err := a.apiClient.ListChecks(ctx, a.cfg.ChecksLimit)
	if err != nil {
		a.updateStatusBar(fmt.Sprintf("[red]Error: %v", err))
		return
	}

	a.mu.Lock()
	a.stats = stats
	a.checks = checks
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.updateDashboard()
		a.updateChecksTable()
	})

	if stats.Queue.Failed > 0 {
		a.updateStatusBar(fmt.Sprintf("[yellow]%d failed job(s)", stats.Queue.Failed))
	} else {
		a.updateStatusBar("[green]All systems operational")
	}
}

// getState returns a snapshot of the current stats and checks.
func (a *App) getState() (*client.Stats, []client.Check) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats, a.checks
}
