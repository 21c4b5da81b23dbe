package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/iconidentify/vidgate/cmd/vidgate-watch/internal/client"
)

// createChecksPanel creates the checks table with a detail pane.
func (a *App) createChecksPanel() {
	a.checksTable = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	a.checksTable.SetBorder(true).SetTitle(" Recent Checks ")

	a.detailView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	a.detailView.SetBorder(true).SetTitle(" Detail ")

	a.checksTable.SetSelectedFunc(func(row, _ int) {
		if row < 1 {
			return
		}
		cell := a.checksTable.GetCell(row, 0)
		if cell == nil {
			return
		}
		go a.loadDetail(cell.Text)
	})

	a.checksView = tview.NewFlex().
		AddItem(a.checksTable, 0, 2, true).
		AddItem(a.detailView, 0, 1, false)
}

// updateChecksTable redraws the checks table from current state.
func (a *App) updateChecksTable() {
	_, checks := a.getState()

	a.checksTable.Clear()

	headers := []string{"CHECK", "STATUS", "RESULT", "MS", "SOURCE"}
	for col, h := range headers {
		a.checksTable.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetAttributes(tcell.AttrBold))
	}

	for i, check := range checks {
		row := i + 1
		a.checksTable.SetCell(row, 0, tview.NewTableCell(check.CheckID))
		a.checksTable.SetCell(row, 1, tview.NewTableCell(check.Status))

		result, color := resultCell(check)
		a.checksTable.SetCell(row, 2, tview.NewTableCell(result).SetTextColor(color))

		duration := ""
		if check.Outcome != nil {
			duration = fmt.Sprintf("%d", check.Outcome.DurationMs)
		}
		a.checksTable.SetCell(row, 3, tview.NewTableCell(duration))
		a.checksTable.SetCell(row, 4, tview.NewTableCell(check.SourceURL).SetExpansion(1))
	}
}

func resultCell(check client.Check) (string, tcell.Color) {
	if check.Outcome == nil {
		if check.Status == "failed" {
			return "ERROR", tcell.ColorRed
		}
		return "-", tcell.ColorGray
	}
	if check.Outcome.Valid {
		return "VALID", tcell.ColorGreen
	}
	return check.Outcome.ErrorCode, tcell.ColorRed
}

// loadDetail fetches one check and renders its full outcome.
func (a *App) loadDetail(checkID string) {
	ctx, cancel := context.WithTimeout(a.ctx, 10*time.Second)
	defer cancel()

	check, err := a.apiClient.GetCheck(ctx, checkID)
	if err != nil {
		a.app.QueueUpdateDraw(func() {
			a.detailView.SetText(fmt.Sprintf("[red]Error: %v", err))
		})
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[white::b]Check:[white]       %s\n", check.CheckID))
	b.WriteString(fmt.Sprintf("[white::b]Correlation:[white] %s\n", check.CorrelationID))
	b.WriteString(fmt.Sprintf("[white::b]Status:[white]      %s\n", check.Status))
	b.WriteString(fmt.Sprintf("[white::b]Source:[white]      %s\n\n", check.SourceURL))

	if check.Error != "" {
		b.WriteString(fmt.Sprintf("[red]%s[white]\n\n", check.Error))
	}

	if out := check.Outcome; out != nil {
		if out.Valid {
			b.WriteString("[green::b]VALID[white]\n\n")
		} else {
			b.WriteString(fmt.Sprintf("[red::b]%s[white]\n%s\n\n", out.ErrorCode, out.ErrorMessage))
		}
		if out.FinalURL != check.SourceURL && out.FinalURL != "" {
			b.WriteString(fmt.Sprintf("[white::b]Final URL:[white]    %s\n", out.FinalURL))
		}
		if out.HeadStatus != nil {
			b.WriteString(fmt.Sprintf("[white::b]HEAD status:[white]  %d\n", *out.HeadStatus))
		}
		if out.RangeStatus != nil {
			b.WriteString(fmt.Sprintf("[white::b]Range status:[white] %d\n", *out.RangeStatus))
		}
		if out.ContentType != "" {
			b.WriteString(fmt.Sprintf("[white::b]Content type:[white] %s\n", out.ContentType))
		}
		b.WriteString(fmt.Sprintf("[white::b]ftyp found:[white]   %t\n", out.HasFtyp))
		b.WriteString(fmt.Sprintf("[white::b]Duration:[white]     %dms\n", out.DurationMs))
		b.WriteString(fmt.Sprintf("[white::b]Checked at:[white]   %s\n", out.CheckedAt.Format(time.RFC3339)))
	}

	a.app.QueueUpdateDraw(func() {
		a.detailView.SetText(b.String())
	})
}
