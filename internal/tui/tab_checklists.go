package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/tui/components"
	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// checklistState tracks the reconciliation tab.
type checklistState struct {
	cursor   int  // selected booking
	item     int  // selected checklist item, indexes model.ChecklistItems
	openOnly bool // hide fully reconciled bookings
}

const maxBlockingShown = 5

func (a App) checklistRows() []model.ChecklistProgress {
	if !a.checklist.openOnly {
		return a.reconciliation
	}
	var out []model.ChecklistProgress
	for _, p := range a.reconciliation {
		if p.Done < p.Total {
			out = append(out, p)
		}
	}
	return out
}

func (a App) itemDone(bookingID, key string) bool {
	if a.data == nil {
		return false
	}
	return a.data.Checklists[bookingID].Done[key]
}

func (a App) updateChecklistKey(key string) (tea.Model, tea.Cmd, bool) {
	rows := a.checklistRows()
	switch key {
	case "j", "down":
		a.checklist.cursor = clamp(a.checklist.cursor+1, len(rows))
	case "k", "up":
		a.checklist.cursor = clamp(a.checklist.cursor-1, len(rows))
	case "J":
		a.checklist.item = clamp(a.checklist.item+1, len(model.ChecklistItems))
	case "K":
		a.checklist.item = clamp(a.checklist.item-1, len(model.ChecklistItems))
	case "o":
		a.checklist.openOnly = !a.checklist.openOnly
		a.checklist.cursor = 0
	case " ", "space", "enter":
		if len(rows) == 0 || a.store == nil {
			return a, nil, true
		}
		bk := rows[a.checklist.cursor].Booking
		it := model.ChecklistItems[a.checklist.item]
		done := !a.itemDone(bk.ID, it.Key)
		return a, toggleItemCmd(a.store, bk, it, done), true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func toggleItemCmd(st Store, bk model.Booking, it model.ChecklistItem, done bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := st.SetChecklistItem(ctx, bk.ID, it.Key, done); err != nil {
			return savedMsg{err: fmt.Errorf("updating checklist: %w", err)}
		}
		verb := "ticked"
		if !done {
			verb = "cleared"
		}
		return savedMsg{notice: fmt.Sprintf("%s: %s %s", bk.Reference, it.Label, verb)}
	}
}

func (a App) renderChecklistsTab(cw, contentH int) string {
	t := theme.Active
	now := a.now()

	var b strings.Builder

	// Blocking charters
	var blockBody string
	if len(a.blocking) == 0 {
		okStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
		blockBody = okStyle.Render(fmt.Sprintf("✓ Nothing blocking departures in the next %d days", blockingWindowDays))
	} else {
		refStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Bold(true)
		textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
		dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
		inner := components.CardInnerWidth(cw)
		lines := make([]string, 0, maxBlockingShown+1)
		for i, p := range a.blocking {
			if i == maxBlockingShown {
				lines = append(lines, dimStyle.Render(fmt.Sprintf("+%d more", len(a.blocking)-maxBlockingShown)))
				break
			}
			head := fmt.Sprintf("%s  %s  %s  ", p.Booking.Reference, components.Countdown(daysUntil(p.Booking.StartDate, now)), p.Booking.Boat)
			labels := make([]string, len(p.Missing))
			for j, it := range p.Missing {
				labels[j] = it.Label
			}
			missing := truncStr("missing: "+strings.Join(labels, ", "), max(inner-lipgloss.Width(head), 10))
			lines = append(lines, refStyle.Render(p.Booking.Reference)+textStyle.Render(head[len(p.Booking.Reference):])+dimStyle.Render(missing))
		}
		blockBody = strings.Join(lines, "\n")
	}
	b.WriteString(components.ContentCard(fmt.Sprintf("Blocking departures (%d)", len(a.blocking)), blockBody, cw))
	b.WriteString("\n")

	rows := a.checklistRows()
	title := fmt.Sprintf("Reconciliation (%d)", len(rows))
	if a.checklist.openOnly {
		title += " · open only"
	}

	listW, detailW := cw, cw
	if !a.isCompactLayout() {
		widths := components.LayoutRow(cw, 2)
		listW, detailW = widths[0], widths[1]
	}

	var list string
	if len(rows) == 0 {
		list = components.ContentCard(title, emptyLine("confirmed charters to reconcile"), listW)
	} else {
		tableRows := make([][]string, len(rows))
		for i, p := range rows {
			tableRows[i] = []string{
				p.Booking.Reference,
				cli.FormatDate(p.Booking.StartDate),
				p.Booking.GuestName,
				fmt.Sprintf("%d/%d", p.Done, p.Total),
			}
		}
		cols := []column{
			{title: "Ref", width: 12},
			{title: "Start", width: 11},
			{title: "Guest"},
			{title: "Done", width: 5, right: true},
		}
		maxRows := listHeight(contentH, lipgloss.Height(b.String())+5)
		list = components.ContentCard(title,
			renderTable(cols, tableRows, components.CardInnerWidth(listW), tableOpts{selected: a.checklist.cursor, maxRows: maxRows}),
			listW)
	}

	var detail string
	if len(rows) == 0 {
		detail = components.ContentCard("Checklist", emptyLine("charter selected"), detailW)
	} else {
		p := rows[a.checklist.cursor]
		detail = components.ContentCard(p.Booking.Reference+" · "+p.Booking.GuestName, a.checklistDetail(p, detailW), detailW)
	}

	if a.isCompactLayout() {
		b.WriteString(list)
		b.WriteString("\n")
		b.WriteString(detail)
	} else {
		b.WriteString(components.CardRow([]string{list, detail}))
	}
	return b.String()
}

func (a App) checklistDetail(p model.ChecklistProgress, outerW int) string {
	t := theme.Active
	inner := components.CardInnerWidth(outerW)

	groupStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	doneStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	openStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	for _, gp := range p.Groups {
		b.WriteString(components.CompletionBar(groupLabel(gp.Group), gp.Percent/100,
			fmt.Sprintf("%d/%d", gp.Done, gp.Total), 11, max(inner-26, 6)))
		b.WriteString("\n")
	}

	for i, it := range model.ChecklistItems {
		if i == 0 || model.ChecklistItems[i-1].Group != it.Group {
			b.WriteString("\n")
			b.WriteString(groupStyle.Render(groupLabel(it.Group)))
			b.WriteString("\n")
		}
		done := a.itemDone(p.Booking.ID, it.Key)
		mark := "[ ] "
		style := openStyle
		if done {
			mark = "[✓] "
			style = doneStyle
		}
		line := mark + it.Label
		if i == a.checklist.item {
			b.WriteString(selStyle.Render(fmt.Sprintf("%-*s", inner, "▸ "+line)))
		} else {
			b.WriteString(style.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("[J/K] item  [space] tick  [o] open only"))
	return b.String()
}

func groupLabel(g model.ChecklistGroup) string {
	s := string(g)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
