package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/tui/components"
	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type crmState struct {
	cursor int
}

func (a App) updateCRMKey(key string) (tea.Model, tea.Cmd, bool) {
	n := len(a.customers)
	switch key {
	case "j", "down":
		a.crm.cursor = clamp(a.crm.cursor+1, n)
	case "k", "up":
		a.crm.cursor = clamp(a.crm.cursor-1, n)
	case "g":
		a.crm.cursor = 0
	case "G":
		a.crm.cursor = clamp(n-1, n)
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) renderCRMTab(cw, contentH int) string {
	t := theme.Active
	cur := a.currency()

	var ltv, outstanding float64
	repeat := 0
	for _, cs := range a.customers {
		ltv += cs.LifetimeValue
		outstanding += cs.Outstanding
		if cs.Repeat {
			repeat++
		}
	}

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Customers", Value: cli.FormatNumber(int64(len(a.customers)))},
		{Label: "Repeat rate", Value: cli.FormatPercent(a.repeatRate), Delta: fmt.Sprintf("%d repeat guests", repeat)},
		{Label: "Lifetime value", Value: cli.FormatMoney(ltv, cur)},
		{Label: "Outstanding", Value: cli.FormatMoney(outstanding, cur), Warn: outstanding > 0},
	}, cw))
	b.WriteString("\n")

	listW, sideW := cw, cw
	if !a.isCompactLayout() {
		widths := components.LayoutRow(cw, 3)
		listW, sideW = widths[0]+widths[1], widths[2]
	}

	var list string
	if len(a.customers) == 0 {
		list = components.ContentCard("Customers", emptyLine("customers registered"), listW)
	} else {
		rows := make([][]string, len(a.customers))
		for i, cs := range a.customers {
			marker := ""
			if cs.Repeat {
				marker = "★"
			}
			rows[i] = []string{
				marker,
				cs.Customer.Name,
				cs.Customer.Email,
				cli.FormatNumber(int64(cs.Bookings)),
				cli.FormatMoney(cs.LifetimeValue, cur),
				formatDay(cs.NextCharter),
			}
		}
		cols := []column{
			{title: "", width: 1},
			{title: "Name", width: 20},
			{title: "Email"},
			{title: "Trips", width: 5, right: true},
			{title: "Value", width: 10, right: true},
			{title: "Next", width: 11},
		}
		maxRows := listHeight(contentH, lipgloss.Height(b.String())+5)
		list = components.ContentCard(fmt.Sprintf("Customers (%d)", len(a.customers)),
			renderTable(cols, rows, components.CardInnerWidth(listW), tableOpts{selected: a.crm.cursor, maxRows: maxRows}),
			listW)
	}

	var side strings.Builder
	if len(a.customers) > 0 {
		cs := a.customers[a.crm.cursor]
		side.WriteString(kvLines([][2]string{
			{"Phone", orDash(cs.Customer.Phone)},
			{"Nationality", orDash(cs.Customer.Nationality)},
			{"Charters", cli.FormatNumber(int64(cs.Bookings))},
			{"Outstanding", cli.FormatMoney(cs.Outstanding, cur)},
			{"Last charter", formatDay(cs.LastCharter)},
			{"Messages", cli.FormatNumber(int64(cs.Communications))},
			{"Marketing", yesNo(cs.Customer.MarketingOptIn)},
		}))
	} else {
		side.WriteString(emptyLine("customer selected"))
	}
	sideTitle := "Customer"
	if len(a.customers) > 0 {
		sideTitle = a.customers[a.crm.cursor].Customer.Name
	}
	detail := components.ContentCard(sideTitle, side.String(), sideW)

	var srcBody string
	if len(a.sources) == 0 {
		srcBody = emptyLine("bookings in range")
	} else {
		items := make([]components.BarItem, len(a.sources))
		for i, s := range a.sources {
			items[i] = components.BarItem{
				Label: s.Source,
				Value: s.Revenue,
				Note:  fmt.Sprintf("%s · %s won", cli.FormatMoneyShort(s.Revenue, cur), cli.FormatPercent(s.ConversionRate)),
			}
		}
		srcBody = components.HorizontalBars(items, t.Cyan, components.CardInnerWidth(sideW))
	}
	sources := components.ContentCard("Lead sources", srcBody, sideW)

	if a.isCompactLayout() {
		b.WriteString(list)
		b.WriteString("\n")
		b.WriteString(detail)
		b.WriteString("\n")
		b.WriteString(sources)
		return b.String()
	}
	b.WriteString(components.CardRow([]string{list, lipgloss.JoinVertical(lipgloss.Left, detail, sources)}))
	return b.String()
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
