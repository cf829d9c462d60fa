// Package tui provides the interactive Bubble Tea office dashboard.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/charterdesk/internal/automation"
	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/dashboard"
	"github.com/theirongolddev/charterdesk/internal/forms"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/tui/components"
	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/jmoiron/sqlx"
)

// Store is the backend the dashboard reads from and writes to.
type Store interface {
	pipeline.Backend
	SaveBooking(ctx context.Context, b model.Booking) (model.Booking, error)
	SetChecklistItem(ctx context.Context, bookingID, item string, done bool) error
	DB() *sqlx.DB
}

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Data     *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// ProgressMsg reports table fetch progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background data refresh completes.
type RefreshDataMsg struct {
	Data     *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

// savedMsg reports the outcome of a write made from the dashboard.
type savedMsg struct {
	notice string
	err    error
}

// Options configures NewApp.
type Options struct {
	Store     Store
	Config    config.Config
	Views     *dashboard.Registry // optional; defaults are always listed
	Days      int
	Boat      string
	NeedSetup bool

	Now        func() time.Time
	SaveConfig func(config.Config) error // defaults to config.Save
}

// App is the root Bubble Tea model.
type App struct {
	store      Store
	cfg        config.Config
	views      *dashboard.Registry
	now        func() time.Time
	saveConfig func(config.Config) error

	// Data
	data     *pipeline.LoadResult
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// Pre-computed for current filter
	bookings       []model.Booking
	stats          model.SummaryStats
	prevStats      model.SummaryStats
	statusCounts   map[model.BookingStatus]int
	upcoming       []model.Booking
	reconciliation []model.ChecklistProgress
	blocking       []model.ChecklistProgress
	customers      []model.CustomerStats
	repeatRate     float64
	sources        []model.SourceStats
	months         model.MonthlyReport
	yoy            model.YearOverYear
	boats          []model.BoatStats
	forecast       model.Forecast
	workflows      []model.WorkflowStats
	failedComms    []model.Communication

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	notice    string
	noticeErr bool

	// Filter state
	days int
	boat string

	// Per-tab state
	board     boardState
	checklist checklistState
	crm       crmState
	finance   financeState
	viewTab   viewsState
	settings  settingsState

	// First-run setup and new-enquiry forms
	setupForm   *huh.Form
	setupVals   forms.SetupValues
	needSetup   bool
	enquiryForm *huh.Form
	enquiryVals forms.EnquiryValues

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight   = 5
	blockingWindowDays = 14
	minRefresh         = 10 * time.Second
	defaultRefresh     = 30 * time.Second
	loadTimeout        = 30 * time.Second
	writeTimeout       = 10 * time.Second
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	cfg := opts.Config

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	refreshInterval := time.Duration(cfg.TUI.RefreshIntervalSec) * time.Second
	if refreshInterval < minRefresh {
		refreshInterval = defaultRefresh
	}

	days := opts.Days
	if days <= 0 {
		days = cfg.General.DefaultDays
	}
	if days <= 0 {
		days = 90
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	save := opts.SaveConfig
	if save == nil {
		save = config.Save
	}

	return App{
		store:           opts.Store,
		cfg:             cfg,
		views:           opts.Views,
		now:             now,
		saveConfig:      save,
		days:            days,
		boat:            opts.Boat,
		needSetup:       opts.NeedSetup,
		autoRefresh:     cfg.TUI.AutoRefresh,
		refreshInterval: refreshInterval,
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.store, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

func (a *App) recompute() {
	if a.data == nil {
		a.data = &pipeline.LoadResult{}
	}
	now := a.now()
	since := now.AddDate(0, 0, -a.days)

	bookings := a.data.Bookings
	if a.boat != "" {
		bookings = pipeline.FilterByBoat(bookings, a.boat)
	}
	a.bookings = bookings

	a.stats = pipeline.Aggregate(bookings, since, now)
	a.prevStats = pipeline.Aggregate(bookings, since.AddDate(0, 0, -a.days), since)

	a.statusCounts = make(map[model.BookingStatus]int)
	for _, b := range bookings {
		a.statusCounts[b.Status]++
	}

	a.upcoming = pipeline.Upcoming(bookings, now, a.days)
	a.reconciliation = pipeline.Reconciliation(bookings, a.data.Checklists)
	a.blocking = pipeline.Blocking(bookings, a.data.Checklists, now, blockingWindowDays)

	a.customers = pipeline.AggregateCustomers(a.data.Customers, a.data.Bookings, a.data.Communications, now)
	a.repeatRate = pipeline.RepeatRate(a.customers)
	a.sources = pipeline.AggregateSources(bookings, since, now)

	counting := pipeline.CountingBookings(bookings)
	a.months = pipeline.AggregateMonths(counting)
	a.yoy = pipeline.AggregateYearOverYear(counting, now)
	a.boats = pipeline.AggregateBoats(bookings, since, now)
	a.forecast = pipeline.AggregateForecast(bookings, a.data.Targets, now.Year(), now)

	a.workflows = automation.Stats(a.cfg.Automation, a.data.Runs)
	a.failedComms = nil
	for _, c := range a.data.Communications {
		if c.Status == "failed" {
			a.failedComms = append(a.failedComms, c)
		}
	}

	a.clampCursors()
}

func (a *App) clampCursors() {
	a.board.cursor = clamp(a.board.cursor, len(a.boardRows()))
	a.checklist.cursor = clamp(a.checklist.cursor, len(a.checklistRows()))
	a.checklist.item = clamp(a.checklist.item, len(model.ChecklistItems))
	a.crm.cursor = clamp(a.crm.cursor, len(a.customers))
	a.viewTab.cursor = clamp(a.viewTab.cursor, len(a.viewList()))
}

func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.enquiryForm != nil {
			a.enquiryForm = a.enquiryForm.WithWidth(min(msg.Width, 90))
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.enquiryForm != nil {
			return a, nil
		}

		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.moveCursor(-1)
			return a, nil
		case tea.MouseButtonWheelDown:
			a.moveCursor(1)
			return a, nil
		case tea.MouseButtonLeft:
			if msg.Y == 0 && msg.Action == tea.MouseActionPress {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
			return a, nil
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lastRefresh = a.now()
		a.data = msg.Data
		a.loadErr = msg.Err
		if msg.Err != nil {
			a.setNotice(fmt.Sprintf("Load failed: %v", msg.Err), true)
		}
		a.recompute()

		if a.needSetup {
			a.setupVals = forms.SetupFrom(a.cfg)
			a.setupForm = forms.Setup(&a.setupVals, theme.Names())
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && a.store != nil {
			if a.now().Sub(a.lastRefresh) >= a.refreshInterval {
				a.refreshing = true
				cmds = append(cmds, refreshDataCmd(a.store))
			}
		}
		return a, tea.Batch(cmds...)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = a.now()
		if msg.Err != nil {
			a.setNotice(fmt.Sprintf("Refresh failed: %v", msg.Err), true)
			return a, nil
		}
		if msg.Data != nil {
			a.data = msg.Data
			a.loadErr = nil
			a.loadTime = msg.LoadTime
			a.recompute()
		}
		return a, nil

	case savedMsg:
		if msg.err != nil {
			a.setNotice(msg.err.Error(), true)
			return a, nil
		}
		a.setNotice(msg.notice, false)
		if a.refreshing || a.store == nil {
			return a, nil
		}
		a.refreshing = true
		return a, refreshDataCmd(a.store)

	case viewResultMsg:
		a.viewTab.running = false
		a.viewTab.shown = msg.name
		a.viewTab.result = msg.result
		a.viewTab.err = msg.err
		return a, nil
	}

	// Forward unhandled messages (cursor blinks etc.) to an open form.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.enquiryForm != nil {
		return a.updateEnquiryForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// Open forms and text inputs intercept all keys.
	switch {
	case a.setupForm != nil:
		return a.updateSetupForm(msg)
	case a.enquiryForm != nil:
		return a.updateEnquiryForm(msg)
	case a.activeTab == components.TabSettings && a.settings.editing:
		return a.updateSettingsInput(msg)
	case a.activeTab == components.TabBoard && a.board.searching:
		return a.updateBoardSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if m, cmd, handled := a.updateTabKey(key); handled {
		return m, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if a.refreshing || a.store == nil {
			return a, nil
		}
		a.refreshing = true
		return a, refreshDataCmd(a.store)
	case "R":
		a.autoRefresh = !a.autoRefresh
		a.cfg.TUI.AutoRefresh = a.autoRefresh
		_ = a.saveConfig(a.cfg)
		return a, nil
	case "n":
		return a.openEnquiryForm()
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// updateTabKey dispatches keys the active tab owns.
func (a App) updateTabKey(key string) (tea.Model, tea.Cmd, bool) {
	switch a.activeTab {
	case components.TabBoard:
		return a.updateBoardKey(key)
	case components.TabChecklists:
		return a.updateChecklistKey(key)
	case components.TabCRM:
		return a.updateCRMKey(key)
	case components.TabFinance:
		return a.updateFinanceKey(key)
	case components.TabViews:
		return a.updateViewsKey(key)
	case components.TabSettings:
		return a.updateSettingsKey(key)
	}
	return a, nil, false
}

func (a *App) moveCursor(delta int) {
	switch a.activeTab {
	case components.TabBoard:
		a.board.cursor = clamp(a.board.cursor+delta, len(a.boardRows()))
	case components.TabChecklists:
		a.checklist.cursor = clamp(a.checklist.cursor+delta, len(a.checklistRows()))
	case components.TabCRM:
		a.crm.cursor = clamp(a.crm.cursor+delta, len(a.customers))
	case components.TabViews:
		a.viewTab.cursor = clamp(a.viewTab.cursor+delta, len(a.viewList()))
	case components.TabSettings:
		a.settings.cursor = clamp(a.settings.cursor+delta, settingsFieldCount)
	}
}

func (a *App) setNotice(s string, isErr bool) {
	a.notice = s
	a.noticeErr = isErr
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		prevDriver := a.cfg.Backend.Driver
		a.setupVals.Apply(&a.cfg)
		theme.SetActive(a.cfg.Appearance.Theme)
		if a.cfg.General.DefaultDays > 0 {
			a.days = a.cfg.General.DefaultDays
		}
		if err := a.saveConfig(a.cfg); err != nil {
			a.setNotice(fmt.Sprintf("Saving config: %v", err), true)
		} else if a.cfg.Backend.Driver != prevDriver {
			a.setNotice("Config saved; restart to switch backend", false)
		} else {
			a.setNotice("Config saved", false)
		}
		a.recompute()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) openEnquiryForm() (tea.Model, tea.Cmd) {
	if a.store == nil {
		return a, nil
	}
	a.enquiryVals = forms.EnquiryValues{}
	a.enquiryForm = forms.Enquiry(&a.enquiryVals, a.knownBoats())
	if a.width > 0 {
		a.enquiryForm = a.enquiryForm.WithWidth(min(a.width, 90))
	}
	return a, a.enquiryForm.Init()
}

func (a App) updateEnquiryForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.enquiryForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.enquiryForm = f
	}

	switch a.enquiryForm.State {
	case huh.StateCompleted:
		a.enquiryForm = nil
		e, err := a.enquiryVals.Enquiry()
		if err != nil {
			a.setNotice(err.Error(), true)
			return a, nil
		}
		b := forms.Booking(e)
		b.Currency = a.cfg.General.Currency
		return a, saveBookingCmd(a.store, b)
	case huh.StateAborted:
		a.enquiryForm = nil
		return a, nil
	}
	return a, cmd
}

// knownBoats merges the configured fleet with boats seen in bookings.
func (a App) knownBoats() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	for name := range a.cfg.Fleet.Boats {
		add(name)
	}
	if a.data != nil {
		for _, b := range a.data.Bookings {
			add(b.Boat)
		}
	}
	sort.Strings(out)
	return out
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) currency() string {
	if a.cfg.General.Currency != "" {
		return a.cfg.General.Currency
	}
	return "EUR"
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.enquiryForm != nil {
		return a.viewForm("New enquiry", a.enquiryForm.View())
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  charterdesk needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active
	w := a.width
	h := a.height

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("⚓ charterdesk"))
	b.WriteString(subtitleStyle.Render(" · " + a.cfg.Business.Name))
	b.WriteString("\n\n")

	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	if a.progressMax > 0 {
		barW := min(max(w-30, 20), 40)
		b.WriteString(subtitleStyle.Render(" Loading tables\n\n"))
		b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(fmt.Sprintf("%d", a.progress)))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(fmt.Sprintf("%d", a.progressMax)))
	} else {
		b.WriteString(subtitleStyle.Render(" Connecting to backend..."))
	}

	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewForm(title, body string) string {
	t := theme.Active
	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Render("esc to cancel")

	card := cardStyle.Render(titleStyle.Render(title) + "\n\n" + body + "\n" + hint)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("⚓ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"b c m f a v x", "Jump to tab"},
			{"← →  tab", "Previous / Next tab"},
			{"j k  g G", "Navigate lists"},
			{"J K", "Checklist items"},
		}},
		{"Actions", [][2]string{
			{"n", "New enquiry"},
			{"/", "Search the board"},
			{"space", "Tick checklist item"},
			{"o", "Open checklists only"},
			{"s", "Seasonal revenue profile"},
			{"Enter", "Run view / Edit setting"},
			{"Esc", "Back / Cancel"},
			{"r", "Refresh data"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-13s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + filter pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	filterStr := pillStyle.Render(" ") + pillAccent.Render(fmt.Sprintf("%dd", a.days))
	if a.boat != "" {
		filterStr += pillStyle.Render(" │ ") + pillAccent.Render(a.boat)
	}
	if a.board.query != "" {
		filterStr += pillStyle.Render(" │ search: ") + pillAccent.Render(a.board.query)
	}
	filterStr += pillStyle.Render(" │ " + a.cfg.Business.Name + " ")

	filterRow := lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filterStr)
	header := components.RenderTabBar(a.activeTab, w) + "\n" + filterRow

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		DataAge:     fmt.Sprintf("%.1fs", a.loadTime.Seconds()),
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
		Blocking:    len(a.blocking),
		Notice:      a.notice,
		NoticeIsErr: a.noticeErr,
	})

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch a.activeTab {
	case components.TabBoard:
		content = a.renderBoardTab(cw, contentH)
	case components.TabChecklists:
		content = a.renderChecklistsTab(cw, contentH)
	case components.TabCRM:
		content = a.renderCRMTab(cw, contentH)
	case components.TabFinance:
		content = a.renderFinanceTab(cw)
	case components.TabAutomations:
		content = a.renderAutomationsTab(cw)
	case components.TabViews:
		content = a.renderViewsTab(cw, contentH)
	case components.TabSettings:
		content = a.renderSettingsTab(cw)
	}

	// 5. Truncate + pad to exactly contentH lines, fill the background
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd starts loading in a background goroutine. It streams
// ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(be pipeline.Backend, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			if be == nil {
				sub <- DataLoadedMsg{Data: &pipeline.LoadResult{}, LoadTime: time.Since(start)}
				return
			}

			// Non-blocking send; a skipped update is caught up by the next.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()
			data, err := pipeline.Load(ctx, be, progressFn)
			sub <- DataLoadedMsg{Data: data, Err: err, LoadTime: time.Since(start)}
		}()

		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads every table in the background (no progress UI).
func refreshDataCmd(be pipeline.Backend) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		data, err := pipeline.Load(ctx, be, nil)
		return RefreshDataMsg{Data: data, Err: err, LoadTime: time.Since(start)}
	}
}

func saveBookingCmd(st Store, b model.Booking) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		saved, err := st.SaveBooking(ctx, b)
		if err != nil {
			return savedMsg{err: fmt.Errorf("saving enquiry: %w", err)}
		}
		return savedMsg{notice: fmt.Sprintf("Saved enquiry %s for %s", saved.Reference, saved.GuestName)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func daysUntil(t *time.Time, now time.Time) int {
	if t == nil {
		return 0
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(start.Sub(today).Hours() / 24)
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color
// so gaps between cards are filled.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes use the same width rules as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
