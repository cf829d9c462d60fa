package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// StatusInfo is what the bottom bar reports.
type StatusInfo struct {
	DataAge     string // how long the last load took
	Refreshing  bool
	AutoRefresh bool
	Blocking    int    // charters starting soon with open checklist items
	Notice      string // last action result or error, shown in the middle
	NoticeIsErr bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	okStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	left := base.Render(" [?]help  [q]uit")
	if info.Blocking > 0 {
		noun := "charters"
		if info.Blocking == 1 {
			noun = "charter"
		}
		left += base.Render("  ") + warn.Render(fmt.Sprintf("⚠ %d %s blocked", info.Blocking, noun))
	}

	var right strings.Builder
	switch {
	case info.Refreshing:
		right.WriteString(dim.Render("refreshing… "))
	case info.AutoRefresh:
		right.WriteString(okStyle.Render("●") + dim.Render(" auto  "))
	}
	if info.DataAge != "" {
		right.WriteString(base.Render(fmt.Sprintf("Data: %s ", info.DataAge)))
	}
	rightStr := right.String()

	middle := ""
	if info.Notice != "" {
		room := width - lipgloss.Width(left) - lipgloss.Width(rightStr) - 4
		notice := info.Notice
		if room > 0 && lipgloss.Width(notice) > room {
			notice = string([]rune(notice)[:room-1]) + "…"
		}
		if room > 0 {
			if info.NoticeIsErr {
				middle = base.Render("  ") + errStyle.Render(notice)
			} else {
				middle = base.Render("  ") + okStyle.Render(notice)
			}
		}
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(rightStr)
	if padding < 0 {
		padding = 0
	}

	return left + middle + base.Render(strings.Repeat(" ", padding)) + rightStr
}
