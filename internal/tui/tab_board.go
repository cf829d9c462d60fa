package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/tui/components"
	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// boardState tracks the charter board tab.
type boardState struct {
	cursor    int
	searching bool
	input     textinput.Model
	query     string
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "guest, email, reference or boat"
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "
	return ti
}

// boardRows is the upcoming list narrowed by the search query.
func (a App) boardRows() []model.Booking {
	return pipeline.FilterBySearch(a.upcoming, a.board.query)
}

func (a App) updateBoardKey(key string) (tea.Model, tea.Cmd, bool) {
	rows := a.boardRows()
	switch key {
	case "/":
		a.board.searching = true
		a.board.input = newSearchInput()
		a.board.input.SetValue(a.board.query)
		a.board.input.Focus()
		return a, a.board.input.Cursor.BlinkCmd(), true
	case "esc":
		a.board.query = ""
		a.board.cursor = 0
		return a, nil, true
	case "j", "down":
		a.board.cursor = clamp(a.board.cursor+1, len(rows))
		return a, nil, true
	case "k", "up":
		a.board.cursor = clamp(a.board.cursor-1, len(rows))
		return a, nil, true
	case "g":
		a.board.cursor = 0
		return a, nil, true
	case "G":
		a.board.cursor = clamp(len(rows)-1, len(rows))
		return a, nil, true
	}
	return a, nil, false
}

// updateBoardSearch handles keys while the search input is focused.
func (a App) updateBoardSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.board.query = strings.TrimSpace(a.board.input.Value())
		a.board.searching = false
		a.board.cursor = 0
		return a, nil
	case "esc":
		a.board.searching = false
		return a, nil
	}

	var cmd tea.Cmd
	a.board.input, cmd = a.board.input.Update(msg)
	return a, cmd
}

func (a App) renderBoardTab(cw, contentH int) string {
	t := theme.Active
	cur := a.currency()
	now := a.now()

	var b strings.Builder

	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Upcoming", Value: cli.FormatNumber(int64(len(a.upcoming))), Delta: fmt.Sprintf("next %dd", a.days)},
		{Label: fmt.Sprintf("Revenue (%dd)", a.days), Value: cli.FormatMoney(a.stats.Revenue, cur),
			Delta: cli.FormatDelta(a.stats.Revenue, a.prevStats.Revenue, cur) + " vs prior"},
		{Label: "Outstanding", Value: cli.FormatMoney(a.stats.Outstanding, cur)},
		{Label: "Blocked", Value: cli.FormatNumber(int64(len(a.blocking))), Delta: fmt.Sprintf("within %dd", blockingWindowDays), Warn: len(a.blocking) > 0},
	}, cw))
	b.WriteString("\n")

	statusStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)
	countStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Background).Bold(true)
	parts := make([]string, 0, 4)
	for _, s := range []model.BookingStatus{model.StatusEnquiry, model.StatusConfirmed, model.StatusCompleted, model.StatusCancelled} {
		parts = append(parts, countStyle.Render(cli.FormatNumber(int64(a.statusCounts[s])))+statusStyle.Render(" "+string(s)))
	}
	b.WriteString(statusStyle.Render(" ") + strings.Join(parts, statusStyle.Render("  ·  ")))
	b.WriteString("\n")

	if a.board.searching {
		b.WriteString(a.board.input.View())
		b.WriteString("\n")
	}

	rows := a.boardRows()
	listH := listHeight(contentH, lipgloss.Height(b.String())+5)

	listW, detailW := cw, 0
	if !a.isCompactLayout() {
		widths := components.LayoutRow(cw, 3)
		listW = widths[0] + widths[1]
		detailW = widths[2]
	}

	var list string
	if len(rows) == 0 {
		what := "upcoming charters"
		if a.board.query != "" {
			what = "charters match \"" + a.board.query + "\""
		}
		list = components.ContentCard("Upcoming charters", emptyLine(what), listW)
	} else {
		tableRows := make([][]string, len(rows))
		for i, bk := range rows {
			tableRows[i] = []string{
				bk.Reference,
				components.Countdown(daysUntil(bk.StartDate, now)),
				cli.FormatDateRange(bk.StartDate, bk.EndDate),
				bk.Boat,
				bk.GuestName,
				cli.FormatOptionalInt(bk.Guests),
				cli.FormatMoney(bk.Revenue(), cur),
				string(bk.PaymentStatus),
			}
		}
		cols := []column{
			{title: "Ref", width: 12},
			{title: "When", width: 9},
			{title: "Dates", width: 18},
			{title: "Boat", width: 12},
			{title: "Guest"},
			{title: "Pax", width: 3, right: true},
			{title: "Total", width: 10, right: true},
			{title: "Payment", width: 8},
		}
		list = components.ContentCard(
			fmt.Sprintf("Upcoming charters (%d)", len(rows)),
			renderTable(cols, tableRows, components.CardInnerWidth(listW), tableOpts{selected: a.board.cursor, maxRows: listH}),
			listW)
	}

	if detailW == 0 {
		b.WriteString(list)
		return b.String()
	}

	detail := components.ContentCard("Charter", emptyLine("charter selected"), detailW)
	if len(rows) > 0 {
		detail = components.ContentCard(rows[a.board.cursor].Reference, a.bookingDetail(rows[a.board.cursor], detailW), detailW)
	}
	b.WriteString(components.CardRow([]string{list, detail}))
	return b.String()
}

func (a App) bookingDetail(bk model.Booking, outerW int) string {
	cur := a.currency()
	pairs := [][2]string{
		{"Guest", bk.GuestName},
		{"Phone", orDash(bk.GuestPhone)},
		{"Email", orDash(bk.GuestEmail)},
		{"Boat", orDash(bk.Boat)},
		{"Dates", cli.FormatDateRange(bk.StartDate, bk.EndDate)},
		{"Nights", cli.FormatNights(bk.Nights())},
		{"Guests", cli.FormatOptionalInt(bk.Guests)},
		{"Total", cli.FormatMoney(bk.Revenue(), cur)},
		{"Paid", cli.FormatMoney(bk.AmountPaid, cur)},
		{"Balance", cli.FormatMoney(bk.Balance(), cur)},
		{"Source", orDash(bk.Source)},
	}

	var b strings.Builder
	b.WriteString(kvLines(pairs))

	var cl model.Checklist
	if a.data != nil {
		cl = a.data.Checklists[bk.ID]
	}
	p := pipeline.Progress(bk, cl)
	b.WriteString("\n\n")
	b.WriteString(components.CompletionBar("Checklist", p.Percent/100,
		fmt.Sprintf("%d/%d", p.Done, p.Total), 9, max(components.CardInnerWidth(outerW)-24, 6)))

	if bk.Notes != "" {
		t := theme.Active
		noteStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Italic(true)
		b.WriteString("\n\n")
		b.WriteString(noteStyle.Render(truncStr(bk.Notes, components.CardInnerWidth(outerW)*2)))
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
