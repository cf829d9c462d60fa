package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Harbor palette, shared with the TUI's default theme.
var (
	ColorBorder    = lipgloss.Color("#2C4459")
	ColorTextDim   = lipgloss.Color("#4D6477")
	ColorTextMuted = lipgloss.Color("#8BA1B3")
	ColorText      = lipgloss.Color("#EEF4F8")
	ColorAccent    = lipgloss.Color("#4FB6B0")
	ColorGreen     = lipgloss.Color("#6FBF73")
	ColorOrange    = lipgloss.Color("#E8944A")
	ColorRed       = lipgloss.Color("#E0605A")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorTextMuted)
	moneyStyle  = lipgloss.NewStyle().Foreground(ColorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorOrange)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorTextDim)
)

// Separator is a row value that RenderTable draws as a horizontal rule.
const Separator = "---"

// Table is a bordered report table. The first LeftCols columns are
// left-aligned (default 1); the rest hold amounts and align right.
type Table struct {
	Title    string
	Headers  []string
	Rows     [][]string
	LeftCols int
}

// RenderTitle renders a report heading in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderTable renders t with box-drawing borders. Rows equal to
// []string{Separator} become rules between sections.
func RenderTable(t Table) string {
	cols := len(t.Headers)
	if cols == 0 {
		for _, row := range t.Rows {
			if !isSeparator(row) {
				cols = max(cols, len(row))
			}
		}
	}
	if cols == 0 {
		return ""
	}
	left := t.LeftCols
	if left <= 0 {
		left = 1
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i := 0; i < cols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		if !isSeparator(row) {
			measure(row)
		}
	}

	rule := func(l, mid, r string) string {
		parts := make([]string, cols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return dimStyle.Render(l+strings.Join(parts, mid)+r) + "\n"
	}
	line := func(row []string, style lipgloss.Style, aligned bool) string {
		bar := dimStyle.Render("│")
		var b strings.Builder
		b.WriteString(bar)
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if aligned && i >= left {
				cell = padLeft(cell, widths[i])
			} else {
				cell = padRight(cell, widths[i])
			}
			b.WriteString(style.Render(" " + cell + " "))
			b.WriteString(bar)
		}
		b.WriteString("\n")
		return b.String()
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(rule("╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(line(t.Headers, headerStyle, false))
		b.WriteString(rule("├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			b.WriteString(rule("├", "┼", "┤"))
			continue
		}
		b.WriteString(line(row, valueStyle, true))
	}
	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

func isSeparator(row []string) bool {
	return len(row) == 1 && row[0] == Separator
}

// RenderProgressBar renders "[████░░░░] done/total" in width cells.
func RenderProgressBar(done, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	filled := min(done*width/total, width)
	filled = max(filled, 0)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s/%s", mutedStyle.Render(bar),
		FormatNumber(int64(done)), FormatNumber(int64(total)))
}

// RenderSparkline maps values onto eight block heights, scaled to the
// peak. Negative values render as the lowest block.
func RenderSparkline(values []float64) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	peak := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}
	out := make([]rune, len(values))
	for i, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		out[i] = blocks[min(max(idx, 0), len(blocks)-1)]
	}
	return string(out)
}

// RenderHorizontalBar renders one "label ████" line scaled to maxValue.
func RenderHorizontalBar(label string, value, maxValue float64, maxWidth int) string {
	if maxValue <= 0 || value <= 0 {
		return "  " + label
	}
	n := int(math.Round(value / maxValue * float64(maxWidth)))
	return "  " + label + " " + moneyStyle.Render(strings.Repeat("█", min(n, maxWidth)))
}

// RenderEmpty renders the placeholder shown when a report has no rows.
func RenderEmpty(what string) string {
	msg := "No data"
	if what != "" {
		msg += " for " + what
	}
	return "  " + mutedStyle.Render(msg) + "\n"
}

// RenderWarning renders a single highlighted warning line.
func RenderWarning(msg string) string {
	return "  " + warnStyle.Render(msg) + "\n"
}

// RenderKeyValues renders aligned "key  value" lines, in order.
func RenderKeyValues(pairs [][2]string) string {
	keyW := 0
	for _, p := range pairs {
		keyW = max(keyW, lipgloss.Width(p[0]))
	}
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "  %s  %s\n", mutedStyle.Render(padRight(p[0], keyW)), valueStyle.Render(p[1]))
	}
	return b.String()
}

func padRight(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func padLeft(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}
