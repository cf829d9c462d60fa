package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/tui/components"
)

const recentRunsShown = 12

func (a App) renderAutomationsTab(cw int) string {
	var ok, failed, skipped int
	for _, ws := range a.workflows {
		ok += ws.Succeeded
		failed += ws.Failed
		skipped += ws.Skipped
	}

	state := "off"
	if a.cfg.Automation.Enabled {
		state = "on"
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Automations", Value: state, Delta: fmt.Sprintf("%d workflows", len(a.workflows))},
		{Label: "Succeeded", Value: cli.FormatNumber(int64(ok))},
		{Label: "Failed", Value: cli.FormatNumber(int64(failed)), Warn: failed > 0},
		{Label: "Skipped", Value: cli.FormatNumber(int64(skipped))},
		{Label: "Failed messages", Value: cli.FormatNumber(int64(len(a.failedComms))), Warn: len(a.failedComms) > 0},
	}, cw))
	b.WriteString("\n")

	// Workflows
	var wfBody string
	if len(a.workflows) == 0 {
		wfBody = emptyLine("workflows configured")
	} else {
		rows := make([][]string, len(a.workflows))
		for i, ws := range a.workflows {
			last := "never"
			if !ws.LastRun.IsZero() {
				last = ws.LastRun.Local().Format("02 Jan 15:04")
			}
			rows[i] = []string{
				ws.Workflow,
				cli.FormatNumber(int64(ws.Succeeded)),
				cli.FormatNumber(int64(ws.Failed)),
				cli.FormatNumber(int64(ws.Skipped)),
				last,
				ws.LastError,
			}
		}
		cols := []column{
			{title: "Workflow", width: 18},
			{title: "OK", width: 5, right: true},
			{title: "Fail", width: 5, right: true},
			{title: "Skip", width: 5, right: true},
			{title: "Last run", width: 12},
			{title: "Last error"},
		}
		wfBody = renderTable(cols, rows, components.CardInnerWidth(cw), tableOpts{selected: -1})
	}
	b.WriteString(components.ContentCard("Workflows", wfBody, cw))
	b.WriteString("\n")

	widths := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		widths = []int{cw, cw}
	}

	refs := a.bookingRefs()

	// Recent runs
	var runsBody string
	if a.data == nil || len(a.data.Runs) == 0 {
		runsBody = emptyLine("runs recorded")
	} else {
		runs := a.data.Runs
		if len(runs) > recentRunsShown {
			runs = runs[:recentRunsShown]
		}
		rows := make([][]string, len(runs))
		for i, r := range runs {
			rows[i] = []string{
				r.RanAt.Local().Format("02 Jan 15:04"),
				r.Workflow,
				refs[r.BookingID],
				runMark(r.Status),
				r.Detail,
			}
		}
		cols := []column{
			{title: "When", width: 12},
			{title: "Workflow", width: 16},
			{title: "Booking", width: 12},
			{title: "", width: 1},
			{title: "Detail"},
		}
		runsBody = renderTable(cols, rows, components.CardInnerWidth(widths[0]), tableOpts{selected: -1})
	}
	runsCard := components.ContentCard("Recent runs", runsBody, widths[0])

	// Failed messages
	var commsBody string
	if len(a.failedComms) == 0 {
		commsBody = emptyLine("failed messages")
	} else {
		comms := a.failedComms
		if len(comms) > recentRunsShown {
			comms = comms[:recentRunsShown]
		}
		rows := make([][]string, len(comms))
		for i, c := range comms {
			rows[i] = []string{
				c.CreatedAt.Local().Format("02 Jan 15:04"),
				string(c.Channel),
				c.Template,
				c.Recipient,
				c.Error,
			}
		}
		cols := []column{
			{title: "When", width: 12},
			{title: "Channel", width: 8},
			{title: "Template", width: 14},
			{title: "To", width: 16},
			{title: "Error"},
		}
		commsBody = renderTable(cols, rows, components.CardInnerWidth(widths[1]), tableOpts{selected: -1})
	}
	commsCard := components.ContentCard("Failed messages", commsBody, widths[1])

	if a.isCompactLayout() {
		b.WriteString(runsCard + "\n" + commsCard)
	} else {
		b.WriteString(components.CardRow([]string{runsCard, commsCard}))
	}
	return b.String()
}

// bookingRefs maps booking IDs to references for display.
func (a App) bookingRefs() map[string]string {
	refs := make(map[string]string)
	if a.data == nil {
		return refs
	}
	for _, bk := range a.data.Bookings {
		refs[bk.ID] = bk.Reference
	}
	return refs
}

func runMark(status string) string {
	switch status {
	case model.RunSuccess:
		return "✓"
	case model.RunSkipped:
		return "-"
	default:
		return "✗"
	}
}
