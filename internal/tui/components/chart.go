package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// BarItem is one row of a horizontal bar list.
type BarItem struct {
	Label string
	Value float64
	Note  string // rendered after the bar, e.g. a formatted amount
}

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}

	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 4) // UTF-8 block chars are up to 3 bytes
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		if idx < 0 {
			idx = 0
		}
		buf.WriteRune(blocks[idx]) //nolint:gosec // bounds checked above
	}

	return style.Render(buf.String())
}

// HorizontalBars renders one labeled bar per item, scaled to the largest
// value. Labels are truncated to a third of the width.
func HorizontalBars(items []BarItem, color lipgloss.Color, width int) string {
	if len(items) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	noteW := 0
	peak := 0.0
	for _, it := range items {
		labelW = max(labelW, lipgloss.Width(it.Label))
		noteW = max(noteW, lipgloss.Width(it.Note))
		peak = math.Max(peak, it.Value)
	}
	labelW = min(labelW, width/3)
	if peak == 0 {
		peak = 1
	}
	barMax := width - labelW - noteW - 2
	if barMax < 4 {
		barMax = 4
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	noteStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, len(items))
	for i, it := range items {
		label := it.Label
		if r := []rune(label); len(r) > labelW {
			label = string(r[:max(labelW-1, 0)]) + "…"
		}
		n := int(math.Round(it.Value / peak * float64(barMax)))
		if n < 0 {
			n = 0
		}
		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
			space.Render(" ") +
			barStyle.Render(strings.Repeat("█", n)) +
			space.Render(strings.Repeat(" ", barMax-n+1)) +
			noteStyle.Render(fmt.Sprintf("%*s", noteW, it.Note))
	}
	return strings.Join(lines, "\n")
}

// Column is one month in a RevenueChart. Target is drawn as a marker
// line across the column when positive.
type Column struct {
	Label  string
	Value  float64
	Target float64
}

// RevenueChart renders columns bottom-up over height rows, scaled to the
// larger of the peak value and the peak target. format renders the top
// axis label. Narrow widths fall back to a sparkline.
func RevenueChart(cols []Column, format func(float64) string, color lipgloss.Color, width, height int) string {
	if len(cols) == 0 {
		return ""
	}
	if format == nil {
		format = func(v float64) string { return fmt.Sprintf("%.0f", v) }
	}
	values := make([]float64, len(cols))
	peak := 0.0
	for i, c := range cols {
		values[i] = c.Value
		peak = math.Max(peak, math.Max(c.Value, c.Target))
	}
	if width < 16 || height < 3 {
		return Sparkline(values, color)
	}
	if peak == 0 {
		peak = 1
	}
	t := theme.Active

	axisW := max(lipgloss.Width(format(peak)), 1) + 1
	plotW := width - axisW - 1
	colW := plotW / len(cols)
	if colW < 2 {
		return Sparkline(values, color)
	}
	colW = min(colW, 6)
	barW := max(colW-1, 1)

	bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	hit := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	mark := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	// Eighth-block partials for the topmost cell of each bar.
	partial := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	cells := func(v float64) int {
		return int(math.Round(v / peak * float64(height*8)))
	}

	var b strings.Builder
	for row := height; row >= 1; row-- {
		label := ""
		if row == height {
			label = format(peak)
		}
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", axisW, label)))
		for _, c := range cols {
			filled := cells(c.Value) - (row-1)*8
			style := bar
			if c.Target > 0 && c.Value >= c.Target {
				style = hit
			}
			targetRow := c.Target > 0 && int(math.Ceil(c.Target/peak*float64(height))) == row
			switch {
			case filled >= 8:
				b.WriteString(style.Render(strings.Repeat("█", barW)))
			case filled > 0:
				b.WriteString(style.Render(strings.Repeat(string(partial[filled]), barW)))
			case targetRow:
				b.WriteString(mark.Render(strings.Repeat("─", barW)))
			default:
				b.WriteString(space.Render(strings.Repeat(" ", barW)))
			}
			b.WriteString(space.Render(strings.Repeat(" ", colW-barW)))
		}
		b.WriteString("\n")
	}
	b.WriteString(axis.Render(fmt.Sprintf("%*s└%s", axisW, "0", strings.Repeat("─", colW*len(cols)))))

	// Month labels, thinned so neighbours never touch.
	step := 1
	for step*colW < 4 {
		step++
	}
	var labels strings.Builder
	labels.WriteString(strings.Repeat(" ", axisW+1))
	for i := 0; i < len(cols); i += step {
		span := min(colW*step, colW*(len(cols)-i))
		cell := cols[i].Label
		if r := []rune(cell); len(r) > span-1 {
			cell = string(r[:max(span-1, 0)])
		}
		labels.WriteString(fmt.Sprintf("%-*s", span, cell))
	}
	b.WriteString("\n")
	b.WriteString(axis.Render(strings.TrimRight(labels.String(), " ")))
	return b.String()
}
