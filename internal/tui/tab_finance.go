package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/tui/components"
	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// financeState tracks the finance tab.
type financeState struct {
	seasonal bool // fold months across years
}

const (
	monthsShown   = 12
	yoyYearsShown = 4
)

func (a App) updateFinanceKey(key string) (tea.Model, tea.Cmd, bool) {
	if key == "s" {
		a.finance.seasonal = !a.finance.seasonal
		return a, nil, true
	}
	return a, nil, false
}

// monthRows returns the month groups the finance tab charts: the last
// twelve month×year groups, or the seasonal profile.
func (a App) monthRows() []model.MonthlyStats {
	if a.finance.seasonal {
		return pipeline.AggregateCalendarMonths(pipeline.CountingBookings(a.bookings))
	}
	months := a.months.Months
	if len(months) > monthsShown {
		months = months[len(months)-monthsShown:]
	}
	return months
}

func (a App) renderFinanceTab(cw int) string {
	t := theme.Active
	cur := a.currency()

	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: fmt.Sprintf("Revenue (%dd)", a.days), Value: cli.FormatMoney(a.stats.Revenue, cur),
			Delta: cli.FormatDelta(a.stats.Revenue, a.prevStats.Revenue, cur)},
		{Label: "Received", Value: cli.FormatMoney(a.stats.AmountPaid, cur)},
		{Label: "Outstanding", Value: cli.FormatMoney(a.stats.Outstanding, cur), Warn: a.stats.Outstanding > 0},
		{Label: "Avg booking", Value: cli.FormatMoney(a.stats.AvgBookingValue, cur),
			Delta: cli.FormatDelta(a.stats.AvgBookingValue, a.prevStats.AvgBookingValue, cur)},
		{Label: "Per night", Value: cli.FormatMoney(a.stats.RevenuePerNight, cur),
			Delta: cli.FormatNights(a.stats.CharterNights)},
	}, cw))
	b.WriteString("\n")

	// Monthly revenue
	months := a.monthRows()
	title := "Revenue by month"
	if a.finance.seasonal {
		title = "Seasonal profile (all years)"
	}
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var chartBody string
	if len(months) == 0 {
		chartBody = emptyLine("data")
	} else {
		cols := make([]components.Column, len(months))
		for i, m := range months {
			cols[i] = components.Column{Label: m.Month.String()[:3], Value: m.Revenue}
			if !a.finance.seasonal {
				cols[i].Target = a.monthTarget(m.Year, m.Month)
			}
		}
		inner := components.CardInnerWidth(cw)
		if !a.isCompactLayout() {
			inner = components.CardInnerWidth(components.LayoutRow(cw, 2)[0])
		}
		money := func(v float64) string { return cli.FormatMoneyShort(v, cur) }
		chartBody = components.RevenueChart(cols, money, t.Accent, inner, 8)
	}
	if !a.finance.seasonal && a.months.UndatedBookings > 0 {
		chartBody += "\n" + hintStyle.Render(fmt.Sprintf("+%d undated bookings (%s) not grouped",
			a.months.UndatedBookings, cli.FormatMoney(a.months.UndatedRevenue, cur)))
	}
	chartBody += "\n" + hintStyle.Render("[s] toggle seasonal")

	var tableBody string
	if len(months) == 0 {
		tableBody = emptyLine("data")
	} else {
		rows := make([][]string, len(months))
		for i, m := range months {
			rows[i] = []string{
				m.Label(),
				cli.FormatNumber(int64(m.Bookings)),
				cli.FormatMoney(m.Revenue, cur),
				cli.FormatMoney(m.AvgBookingValue, cur),
			}
		}
		cols := []column{
			{title: "Month"},
			{title: "Trips", width: 5, right: true},
			{title: "Revenue", width: 12, right: true},
			{title: "Average", width: 11, right: true},
		}
		w := cw
		if !a.isCompactLayout() {
			w = components.LayoutRow(cw, 2)[1]
		}
		tableBody = renderTable(cols, rows, components.CardInnerWidth(w), tableOpts{selected: -1})
	}

	if a.isCompactLayout() {
		b.WriteString(components.ContentCard(title, chartBody, cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Months", tableBody, cw))
	} else {
		widths := components.LayoutRow(cw, 2)
		b.WriteString(components.CardRow([]string{
			components.ContentCard(title, chartBody, widths[0]),
			components.ContentCard("Months", tableBody, widths[1]),
		}))
	}
	b.WriteString("\n")

	// Year over year, boats and targets
	widths := components.LayoutRow(cw, 3)
	if a.isCompactLayout() {
		widths = []int{cw, cw, cw}
	}
	yoy := components.ContentCard("Year over year", a.yoyTable(components.CardInnerWidth(widths[0])), widths[0])

	var boatBody string
	if len(a.boats) == 0 {
		boatBody = emptyLine("data")
	} else {
		items := make([]components.BarItem, len(a.boats))
		for i, bs := range a.boats {
			items[i] = components.BarItem{
				Label: bs.Boat,
				Value: bs.Revenue,
				Note:  fmt.Sprintf("%s %4.0f%%", cli.FormatMoneyShort(bs.Revenue, cur), bs.SharePercent),
			}
		}
		boatBody = components.HorizontalBars(items, t.Blue, components.CardInnerWidth(widths[1]))
	}
	boats := components.ContentCard(fmt.Sprintf("Boats (%dd)", a.days), boatBody, widths[1])

	targets := components.ContentCard(fmt.Sprintf("Targets %d", a.forecast.Year), a.forecastBody(widths[2]), widths[2])

	if a.isCompactLayout() {
		b.WriteString(yoy + "\n" + boats + "\n" + targets)
	} else {
		b.WriteString(components.CardRow([]string{yoy, boats, targets}))
	}
	return b.String()
}

// yoyTable renders months down, the most recent years across. A month of
// the current year that has not happened yet renders as "·".
func (a App) yoyTable(innerW int) string {
	if a.yoy.Empty() {
		return emptyLine("data")
	}
	cur := a.currency()

	years := a.yoy.Years
	first := 0
	if len(years) > yoyYearsShown {
		first = len(years) - yoyYearsShown
	}
	years = years[first:]

	colW := max(min((innerW-4)/len(years)-1, 10), 6)
	cols := []column{{title: "", width: 3}}
	for _, y := range years {
		cols = append(cols, column{title: strconv.Itoa(y), width: colW, right: true})
	}

	rows := make([][]string, len(a.yoy.Rows))
	for i, r := range a.yoy.Rows {
		row := []string{r.Month.String()[:3]}
		for _, cell := range r.Cells[first:] {
			switch {
			case cell == nil:
				row = append(row, "·")
			case cell.Bookings == 0:
				row = append(row, "-")
			default:
				row = append(row, cli.FormatMoneyShort(cell.Revenue, cur))
			}
		}
		rows[i] = row
	}
	return renderTable(cols, rows, innerW, tableOpts{selected: -1})
}

func (a App) forecastBody(outerW int) string {
	t := theme.Active
	cur := a.currency()
	inner := components.CardInnerWidth(outerW)

	if a.forecast.Target == 0 {
		return emptyLine("targets set") + "\n" +
			lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("charterdesk targets set --month 2025-06 --revenue 40000")
	}

	var lines []string
	for _, fm := range a.forecast.Months {
		if fm.Target == 0 {
			continue
		}
		lines = append(lines, components.CompletionBar(fm.Month.String()[:3], fm.Attainment/100,
			cli.FormatMoneyShort(fm.Actual, cur), 3, max(inner-20, 6)))
	}
	totals := kvLines([][2]string{
		{"Target", cli.FormatMoney(a.forecast.Target, cur)},
		{"Actual", cli.FormatMoney(a.forecast.Actual, cur)},
		{"Projected", cli.FormatMoney(a.forecast.Projected, cur)},
		{"Gap", cli.FormatMoney(a.forecast.RemainingTo, cur)},
	})
	return strings.Join(lines, "\n") + "\n\n" + totals
}

// monthTarget returns the revenue target set for one month, or 0.
func (a App) monthTarget(year int, month time.Month) float64 {
	for _, tg := range a.data.Targets {
		if tg.Year == year && tg.Month == month {
			return tg.Revenue
		}
	}
	return 0
}
