package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// createDashboardPanel creates the main dashboard panel.
func (a *App) createDashboardPanel() {
	// Totals box
	totalsBox := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	totalsBox.SetBorder(true).SetTitle(" Checks ")

	// Queue box
	queueBox := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	queueBox.SetBorder(true).SetTitle(" Queue ")

	// Recent rejections box
	rejectionsBox := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	rejectionsBox.SetBorder(true).SetTitle(" Recent Rejections ")

	topRow := tview.NewFlex().
		AddItem(totalsBox, 0, 1, false).
		AddItem(queueBox, 0, 1, false)

	a.dashboardView = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, false).
		AddItem(rejectionsBox, 0, 2, false)
}

// updateDashboard updates the dashboard with current state.
func (a *App) updateDashboard() {
	stats, checks := a.getState()
	if stats == nil {
		return
	}

	if a.dashboardView.GetItemCount() < 2 {
		return
	}

	topRow := a.dashboardView.GetItem(0).(*tview.Flex)
	totalsBox := topRow.GetItem(0).(*tview.TextView)
	queueBox := topRow.GetItem(1).(*tview.TextView)
	rejectionsBox := a.dashboardView.GetItem(1).(*tview.TextView)

	// Totals
	var totals strings.Builder
	totals.WriteString(fmt.Sprintf("[white::b]Total checks:[white]  %d\n", stats.TotalChecks))
	totals.WriteString(fmt.Sprintf("[green]Valid sources:[white] %d\n", stats.ValidSources))
	rejected := stats.TotalChecks - stats.ValidSources
	if rejected > 0 {
		totals.WriteString(fmt.Sprintf("[red]Rejected:[white]      %d\n", rejected))
	}
	totalsBox.SetText(totals.String())

	// Queue
	var queue strings.Builder
	queue.WriteString(fmt.Sprintf("[white::b]Queued:[white]     %d\n", stats.Queue.Queued))
	queue.WriteString(fmt.Sprintf("[white::b]Processing:[white] %d\n", stats.Queue.Processing))
	queue.WriteString(fmt.Sprintf("[green]Completed:[white]  %d\n", stats.Queue.Completed))
	if stats.Queue.Retrying > 0 {
		queue.WriteString(fmt.Sprintf("[yellow]Retrying:[white]   %d\n", stats.Queue.Retrying))
	}
	if stats.Queue.Failed > 0 {
		queue.WriteString(fmt.Sprintf("[red]Failed:[white]     %d\n", stats.Queue.Failed))
	}
	queueBox.SetText(queue.String())

	// Recent rejections
	var rejections strings.Builder
	for _, check := range checks {
		if check.Outcome == nil || check.Outcome.Valid {
			continue
		}
		rejections.WriteString(fmt.Sprintf("[red]%s[white] %s\n    %s\n",
			check.Outcome.ErrorCode,
			check.SourceURL,
			check.Outcome.ErrorMessage,
		))
	}
	if rejections.Len() == 0 {
		rejections.WriteString("[green]No rejected sources in the recent window[white]\n")
	}
	rejectionsBox.SetText(rejections.String())
}
