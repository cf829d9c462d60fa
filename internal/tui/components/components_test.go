package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestTabVisualWidth(t *testing.T) {
	for _, tab := range Tabs {
		want := len(tab.Name) + 2
		assert.Equal(t, want, TabVisualWidth(tab, true), tab.Name)
		if tab.KeyPos < 0 {
			want += 3
		}
		assert.Equal(t, want, TabVisualWidth(tab, false), tab.Name)
	}
}

func TestRenderTabBar_FillsWidth(t *testing.T) {
	bar := RenderTabBar(TabFinance, 100)
	assert.Equal(t, 1, lipgloss.Height(bar))
	assert.Equal(t, 100, lipgloss.Width(bar))
}

func TestTabIdxByKey(t *testing.T) {
	assert.Equal(t, TabBoard, TabIdxByKey('b'))
	assert.Equal(t, TabCRM, TabIdxByKey('m'))
	assert.Equal(t, TabSettings, TabIdxByKey('x'))
	assert.Equal(t, -1, TabIdxByKey('z'))
}

func TestRenderStatusBar(t *testing.T) {
	bar := RenderStatusBar(90, StatusInfo{DataAge: "0.2s", Blocking: 2, AutoRefresh: true})
	assert.Equal(t, 90, lipgloss.Width(bar))
	assert.Contains(t, bar, "2 charters blocked")
	assert.Contains(t, bar, "Data: 0.2s")
}

func TestLayoutRow_SumsToTotal(t *testing.T) {
	widths := LayoutRow(101, 4)
	assert.Equal(t, []int{26, 25, 25, 25}, widths)
	assert.Nil(t, LayoutRow(10, 0))
}

func TestHorizontalBars_ScalesToPeak(t *testing.T) {
	out := HorizontalBars([]BarItem{
		{Label: "Aurora", Value: 100, Note: "€100"},
		{Label: "Blue Pearl", Value: 50, Note: "€50"},
	}, lipgloss.Color("6"), 60)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	full := strings.Count(lines[0], "█")
	half := strings.Count(lines[1], "█")
	assert.Equal(t, full/2, half)
	assert.Empty(t, HorizontalBars(nil, lipgloss.Color("6"), 60))
}

func TestRevenueChart_TargetMarker(t *testing.T) {
	cols := []Column{
		{Label: "Jun", Value: 1500},
		{Label: "Jul", Value: 800, Target: 1400},
	}
	out := RevenueChart(cols, nil, lipgloss.Color("6"), 30, 4)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 6)
	assert.Contains(t, lines[0], "1500")
	assert.Contains(t, lines[0], "█")
	assert.Contains(t, lines[0], "─")
	assert.Contains(t, lines[5], "Jun")
	assert.Contains(t, lines[5], "Jul")

	assert.Equal(t, 1, lipgloss.Height(RevenueChart(cols, nil, lipgloss.Color("6"), 10, 4)))
	assert.Empty(t, RevenueChart(nil, nil, lipgloss.Color("6"), 30, 4))
}

func TestColorForCompletion(t *testing.T) {
	assert.NotEqual(t, ColorForCompletion(0), ColorForCompletion(1))
}

func TestCountdown(t *testing.T) {
	assert.Equal(t, "today", Countdown(0))
	assert.Equal(t, "tomorrow", Countdown(1))
	assert.Equal(t, "in 5d", Countdown(5))
	assert.Equal(t, "3d ago", Countdown(-3))
}
