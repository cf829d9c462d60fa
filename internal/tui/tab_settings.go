package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/tui/components"
	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldBusiness = iota
	settingsFieldCurrency
	settingsFieldDays
	settingsFieldTheme
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldAutomations
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message until the next edit
	saveErr error // non-nil if last save failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 40
	return ti
}

func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.settings.cursor = clamp(a.settings.cursor+1, settingsFieldCount)
	case "k", "up":
		a.settings.cursor = clamp(a.settings.cursor-1, settingsFieldCount)
	case "enter":
		m, cmd := a.settingsStartEdit()
		return m, cmd, true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false
	a.settings.saveErr = nil

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldBusiness:
		ti.Placeholder = "Blue Water Charters"
		ti.SetValue(a.cfg.Business.Name)
	case settingsFieldCurrency:
		ti.Placeholder = "EUR"
		ti.CharLimit = 3
		ti.SetValue(a.cfg.General.Currency)
	case settingsFieldDays:
		ti.Placeholder = "90"
		ti.SetValue(strconv.Itoa(a.days))
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(theme.Active.Name)
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.autoRefresh))
	case settingsFieldRefreshInterval:
		ti.Placeholder = "30 (seconds, minimum 10)"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	case settingsFieldAutomations:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.cfg.Automation.Enabled))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

var errSettingValue = errors.New("invalid value")

// settingsSave applies the edited field to the live app and persists the
// config. Invalid input leaves both untouched.
func (a *App) settingsSave() {
	val := strings.TrimSpace(a.settings.input.Value())
	cfg := a.cfg

	switch a.settings.cursor {
	case settingsFieldBusiness:
		if val == "" {
			a.settings.saveErr = fmt.Errorf("business name: %w", errSettingValue)
			return
		}
		cfg.Business.Name = val
	case settingsFieldCurrency:
		if len(val) != 3 {
			a.settings.saveErr = fmt.Errorf("currency must be a 3-letter code: %w", errSettingValue)
			return
		}
		cfg.General.Currency = strings.ToUpper(val)
	case settingsFieldDays:
		d, err := strconv.Atoi(val)
		if err != nil || d <= 0 {
			a.settings.saveErr = fmt.Errorf("days: %w", errSettingValue)
			return
		}
		cfg.General.DefaultDays = d
	case settingsFieldTheme:
		found := false
		for _, name := range theme.Names() {
			if name == val {
				found = true
				break
			}
		}
		if !found {
			a.settings.saveErr = fmt.Errorf("unknown theme %q: %w", val, errSettingValue)
			return
		}
		cfg.Appearance.Theme = val
	case settingsFieldAutoRefresh, settingsFieldAutomations:
		on, err := strconv.ParseBool(val)
		if err != nil {
			a.settings.saveErr = fmt.Errorf("expected true or false: %w", errSettingValue)
			return
		}
		if a.settings.cursor == settingsFieldAutoRefresh {
			cfg.TUI.AutoRefresh = on
		} else {
			cfg.Automation.Enabled = on
		}
	case settingsFieldRefreshInterval:
		sec, err := strconv.Atoi(val)
		if err != nil || time.Duration(sec)*time.Second < minRefresh {
			a.settings.saveErr = fmt.Errorf("interval must be at least %ds: %w", int(minRefresh.Seconds()), errSettingValue)
			return
		}
		cfg.TUI.RefreshIntervalSec = sec
	}

	if err := a.saveConfig(cfg); err != nil {
		a.settings.saveErr = err
		return
	}
	a.settings.saveErr = nil
	a.cfg = cfg

	theme.SetActive(cfg.Appearance.Theme)
	a.autoRefresh = cfg.TUI.AutoRefresh
	a.refreshInterval = time.Duration(cfg.TUI.RefreshIntervalSec) * time.Second
	if a.settings.cursor == settingsFieldDays {
		a.days = cfg.General.DefaultDays
		a.recompute()
	}
	if a.settings.cursor == settingsFieldAutomations {
		a.recompute()
	}
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	fields := [settingsFieldCount][2]string{
		{"Business name", a.cfg.Business.Name},
		{"Currency", a.currency()},
		{"Default days", strconv.Itoa(a.days)},
		{"Theme", t.Name},
		{"Auto refresh", strconv.FormatBool(a.autoRefresh)},
		{"Refresh interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
		{"Automations", strconv.FormatBool(a.cfg.Automation.Enabled)},
	}

	innerW := components.CardInnerWidth(cw)
	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f[0])))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f[0]+":"))
			value := selectedStyle.Render(f[1])
			formBody.WriteString(marker + label + value)
			used := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if pad := innerW - used; pad > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f[0]+":")))
			formBody.WriteString(valueStyle.Render(f[1]))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Not saved: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved"))
	}
	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [enter] edit  [esc] cancel"))

	bookings := 0
	if a.data != nil {
		bookings = len(a.data.Bookings)
	}
	info := kvLines([][2]string{
		{"Backend", orDash(a.cfg.Backend.Driver)},
		{"Bookings loaded", cli.FormatNumber(int64(bookings))},
		{"Customers", cli.FormatNumber(int64(len(a.customers)))},
		{"Load time", fmt.Sprintf("%.1fs", a.loadTime.Seconds())},
		{"Config file", config.ConfigPath()},
	})

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", info, cw))
	return b.String()
}
