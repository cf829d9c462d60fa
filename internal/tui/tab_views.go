package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/charterdesk/internal/dashboard"
	"github.com/theirongolddev/charterdesk/internal/tui/components"
	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jmoiron/sqlx"
)

// viewsState tracks the saved-views tab.
type viewsState struct {
	cursor  int
	running bool
	shown   string // name of the view whose result is displayed
	result  dashboard.Result
	err     error
}

type viewResultMsg struct {
	name   string
	result dashboard.Result
	err    error
}

// viewList returns saved views plus any starter view not overridden by a
// saved one.
func (a App) viewList() []dashboard.View {
	var saved []dashboard.View
	if a.views != nil {
		saved = a.views.List()
	}
	names := make(map[string]struct{}, len(saved))
	for _, v := range saved {
		names[v.Name] = struct{}{}
	}
	out := saved
	for _, v := range dashboard.Defaults() {
		if _, ok := names[v.Name]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func (a App) updateViewsKey(key string) (tea.Model, tea.Cmd, bool) {
	views := a.viewList()
	switch key {
	case "j", "down":
		a.viewTab.cursor = clamp(a.viewTab.cursor+1, len(views))
	case "k", "up":
		a.viewTab.cursor = clamp(a.viewTab.cursor-1, len(views))
	case "enter":
		if len(views) == 0 || a.store == nil || a.viewTab.running {
			return a, nil, true
		}
		a.viewTab.running = true
		return a, runViewCmd(a.store.DB(), views[a.viewTab.cursor]), true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func runViewCmd(db *sqlx.DB, v dashboard.View) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		res, err := dashboard.Run(ctx, db, v)
		return viewResultMsg{name: v.Name, result: res, err: err}
	}
}

func (a App) renderViewsTab(cw, contentH int) string {
	t := theme.Active
	views := a.viewList()

	listW, resultW := cw, cw
	if !a.isCompactLayout() {
		widths := components.LayoutRow(cw, 3)
		listW, resultW = widths[0], widths[1]+widths[2]
	}

	var listBody string
	if len(views) == 0 {
		listBody = emptyLine("views")
	} else {
		rows := make([][]string, len(views))
		for i, v := range views {
			rows[i] = []string{v.Tab, v.DisplayTitle()}
		}
		cols := []column{{title: "Tab", width: 11}, {title: "View"}}
		listBody = renderTable(cols, rows, components.CardInnerWidth(listW), tableOpts{selected: a.viewTab.cursor, maxRows: listHeight(contentH, 6)})
	}
	if a.views != nil {
		if n := len(a.views.Problems()); n > 0 {
			warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
			listBody += "\n" + warn.Render(fmt.Sprintf("%d view files failed to load", n))
		}
	}
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	listBody += "\n" + hint.Render("[enter] run")
	list := components.ContentCard("Views", listBody, listW)

	var resultBody, resultTitle string
	switch {
	case a.viewTab.running:
		resultTitle = "Running…"
		resultBody = hint.Render("Querying backend")
	case a.viewTab.err != nil:
		resultTitle = a.viewTab.shown
		resultBody = lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Render(a.viewTab.err.Error())
	case a.viewTab.shown == "":
		resultTitle = "Result"
		resultBody = hint.Render("Select a view and press enter")
	case a.viewTab.result.Empty():
		resultTitle = a.viewTab.shown
		resultBody = emptyLine("data")
	default:
		resultTitle = fmt.Sprintf("%s (%d rows)", a.viewTab.shown, len(a.viewTab.result.Rows))
		resultBody = resultTable(a.viewTab.result, components.CardInnerWidth(resultW), listHeight(contentH, 6))
	}
	result := components.ContentCard(resultTitle, resultBody, resultW)

	if a.isCompactLayout() {
		return list + "\n" + result
	}
	return components.CardRow([]string{list, result})
}

// resultTable sizes columns evenly; values are rendered with %v.
func resultTable(res dashboard.Result, innerW, maxRows int) string {
	n := len(res.Columns)
	if n == 0 {
		return emptyLine("columns")
	}
	widths := components.LayoutRow(innerW-(n-1), n)
	cols := make([]column, n)
	for i, c := range res.Columns {
		cols[i] = column{title: c, width: max(widths[i], 4)}
	}
	rows := make([][]string, len(res.Rows))
	for i, r := range res.Rows {
		cells := make([]string, len(r))
		for j, v := range r {
			cells[j] = cellString(v)
		}
		rows[i] = cells
	}
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	return renderTable(cols, rows, innerW, tableOpts{selected: -1})
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%.2f", x)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
