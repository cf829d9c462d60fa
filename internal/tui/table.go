package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// column describes one table column. A zero width makes the column absorb
// whatever the fixed columns leave over.
type column struct {
	title string
	width int
	right bool
}

// tableOpts controls selection and scrolling for renderTable.
type tableOpts struct {
	selected int // -1 for no selection
	maxRows  int // 0 renders every row
}

// renderTable lays rows out in fixed-width columns inside innerW, scrolling
// so the selected row stays visible.
func renderTable(cols []column, rows [][]string, innerW int, opts tableOpts) string {
	t := theme.Active

	widths := make([]int, len(cols))
	fixed := 0
	flex := -1
	for i, c := range cols {
		widths[i] = c.width
		if c.width == 0 && flex < 0 {
			flex = i
			continue
		}
		fixed += c.width
	}
	gaps := len(cols) - 1
	if flex >= 0 {
		widths[flex] = max(innerW-fixed-gaps, 6)
	}

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	line := func(cells []string) string {
		parts := make([]string, len(cols))
		for i := range cols {
			cell := ""
			if i < len(cells) {
				cell = truncStr(cells[i], widths[i])
			}
			if cols[i].right {
				parts[i] = fmt.Sprintf("%*s", widths[i], cell)
			} else {
				parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
			}
			// fmt pads by runes; fix up cells holding wide glyphs.
			if d := widths[i] - lipgloss.Width(parts[i]); d > 0 {
				parts[i] += strings.Repeat(" ", d)
			}
		}
		return strings.Join(parts, " ")
	}

	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
	}

	var b strings.Builder
	b.WriteString(headStyle.Render(line(titles)))

	start, end := 0, len(rows)
	if opts.maxRows > 0 && len(rows) > opts.maxRows {
		if opts.selected >= opts.maxRows {
			start = opts.selected - opts.maxRows + 1
		}
		end = start + opts.maxRows
	}

	for i := start; i < end; i++ {
		b.WriteString("\n")
		if i == opts.selected {
			b.WriteString(selStyle.Render(line(rows[i])))
		} else {
			b.WriteString(rowStyle.Render(line(rows[i])))
		}
	}

	if end-start < len(rows) {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(rows))))
	}
	return b.String()
}

// emptyLine renders the placeholder shown when a card has nothing to list.
func emptyLine(what string) string {
	t := theme.Active
	return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("No " + what)
}

// kvLines renders aligned label/value pairs.
func kvLines(pairs [][2]string) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	w := 0
	for _, p := range pairs {
		w = max(w, lipgloss.Width(p[0]))
	}
	lines := make([]string, len(pairs))
	for i, p := range pairs {
		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s  ", w, p[0])) + valueStyle.Render(p[1])
	}
	return strings.Join(lines, "\n")
}

// listHeight is how many table rows fit once fixed chrome is subtracted.
func listHeight(contentH, chrome int) int {
	return max(contentH-chrome, 3)
}
