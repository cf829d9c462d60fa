package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/store"
	"github.com/theirongolddev/charterdesk/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.July, 20, 12, 0, 0, 0, time.UTC)

type toggle struct {
	bookingID, item string
	done            bool
}

type fakeStore struct {
	mu       sync.Mutex
	bookings []model.Booking
	toggles  []toggle
	saved    []model.Booking
}

func (f *fakeStore) ListBookings(context.Context) ([]model.Booking, error) {
	return f.bookings, nil
}

func (f *fakeStore) ListCustomers(context.Context) ([]model.Customer, error) { return nil, nil }

func (f *fakeStore) ListChecklists(context.Context) (map[string]model.Checklist, error) {
	return map[string]model.Checklist{}, nil
}

func (f *fakeStore) ListCommunications(context.Context, store.CommunicationFilter) ([]model.Communication, error) {
	return nil, nil
}

func (f *fakeStore) ListTargets(context.Context, int) ([]model.FinancialTarget, error) {
	return nil, nil
}

func (f *fakeStore) ListRuns(context.Context, int) ([]model.AutomationRun, error) { return nil, nil }

func (f *fakeStore) SaveBooking(_ context.Context, b model.Booking) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = "saved"
	b.Reference = "CH-2025-0099"
	f.saved = append(f.saved, b)
	return b, nil
}

func (f *fakeStore) SetChecklistItem(_ context.Context, bookingID, item string, done bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles = append(f.toggles, toggle{bookingID, item, done})
	return nil
}

func (f *fakeStore) DB() *sqlx.DB { return nil }

func day(m time.Month, d int) *time.Time {
	return model.Date(time.Date(2025, m, d, 0, 0, 0, 0, time.UTC))
}

func sampleBookings() []model.Booking {
	return []model.Booking{
		{ID: "b1", Reference: "CH-2025-0001", GuestName: "Ana", Boat: "Aurora", StartDate: day(time.June, 1),
			Total: model.Float(1000), Status: model.StatusConfirmed, PaymentStatus: model.PaymentPaid},
		{ID: "b2", Reference: "CH-2025-0002", GuestName: "Ben", Boat: "Aurora", StartDate: day(time.June, 15),
			Total: model.Float(500), Status: model.StatusCompleted, PaymentStatus: model.PaymentPaid},
		{ID: "b3", Reference: "CH-2025-0003", GuestName: "Cara", Boat: "Blue Note", StartDate: day(time.July, 1),
			Total: model.Float(800), Status: model.StatusConfirmed, PaymentStatus: model.PaymentDeposit},
	}
}

// newTestApp returns a sized, loaded app over st. saves collects persisted
// configs.
func newTestApp(t *testing.T, st *fakeStore, saves *[]config.Config) App {
	t.Helper()
	cfg := config.DefaultConfig()
	a := NewApp(Options{
		Store:  st,
		Config: cfg,
		Now:    func() time.Time { return fixedNow },
		SaveConfig: func(c config.Config) error {
			if saves != nil {
				*saves = append(*saves, c)
			}
			return nil
		},
	})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 60})
	m, _ = m.Update(DataLoadedMsg{Data: &pipeline.LoadResult{Bookings: st.bookings}, LoadTime: time.Second})
	return m.(App)
}

func press(t *testing.T, a App, keys ...string) (App, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	var m tea.Model = a
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, cmd = m.Update(msg)
	}
	return m.(App), cmd
}

func TestDataLoadedGroupsRevenueByMonth(t *testing.T) {
	a := newTestApp(t, &fakeStore{bookings: sampleBookings()}, nil)
	require.True(t, a.loaded)

	byMonth := map[time.Month]model.MonthlyStats{}
	for _, m := range a.months.Months {
		byMonth[m.Month] = m
	}
	assert.InDelta(t, 1500, byMonth[time.June].Revenue, 0.001)
	assert.Equal(t, 2, byMonth[time.June].Bookings)
	assert.InDelta(t, 750, byMonth[time.June].AvgBookingValue, 0.001)
	assert.InDelta(t, 800, byMonth[time.July].Revenue, 0.001)
	assert.Equal(t, 1, byMonth[time.July].Bookings)

	assert.Len(t, a.reconciliation, 3)
	assert.Empty(t, a.blocking, "every charter has already departed")
}

func TestTabKeysSwitchTabs(t *testing.T) {
	a := newTestApp(t, &fakeStore{}, nil)

	a, _ = press(t, a, "f")
	assert.Equal(t, components.TabFinance, a.activeTab)

	a, _ = press(t, a, "right")
	assert.Equal(t, components.TabAutomations, a.activeTab)

	a, _ = press(t, a, "x")
	assert.Equal(t, components.TabSettings, a.activeTab)

	a, _ = press(t, a, "right")
	assert.Equal(t, components.TabBoard, a.activeTab, "wraps around")
}

func TestFinanceTabEmptyShowsNoData(t *testing.T) {
	a := newTestApp(t, &fakeStore{}, nil)
	a, _ = press(t, a, "f")

	out := a.View()
	assert.Contains(t, out, "No data")
	assert.NotContains(t, out, "Jun 2025")
}

func TestEveryTabRenders(t *testing.T) {
	a := newTestApp(t, &fakeStore{bookings: sampleBookings()}, nil)
	for i := range components.Tabs {
		a.activeTab = i
		out := a.View()
		require.NotEmpty(t, out, "tab %d", i)
		lines := strings.Split(out, "\n")
		assert.LessOrEqual(t, len(lines), a.height, "tab %s overflows", components.Tabs[i].Name)
	}
}

func TestChecklistToggleWritesAndRefreshes(t *testing.T) {
	st := &fakeStore{bookings: sampleBookings()}
	a := newTestApp(t, st, nil)

	a, cmd := press(t, a, "c", " ")
	require.NotNil(t, cmd)
	msg := cmd()
	saved, ok := msg.(savedMsg)
	require.True(t, ok, "got %T", msg)
	require.NoError(t, saved.err)

	require.Len(t, st.toggles, 1)
	assert.Equal(t, "b1", st.toggles[0].bookingID)
	assert.Equal(t, model.ChecklistItems[0].Key, st.toggles[0].item)
	assert.True(t, st.toggles[0].done)

	m, refresh := a.Update(saved)
	a = m.(App)
	assert.True(t, a.refreshing)
	assert.Contains(t, a.notice, "CH-2025-0001")
	require.NotNil(t, refresh)
	_, isRefresh := refresh().(RefreshDataMsg)
	assert.True(t, isRefresh)
}

func TestSavedErrorShowsNotice(t *testing.T) {
	a := newTestApp(t, &fakeStore{}, nil)
	m, cmd := a.Update(savedMsg{err: errors.New("backend down")})
	a = m.(App)
	assert.Nil(t, cmd)
	assert.True(t, a.noticeErr)
	assert.False(t, a.refreshing)
}

func TestSettingsEditCurrency(t *testing.T) {
	var saves []config.Config
	a := newTestApp(t, &fakeStore{}, &saves)
	a, _ = press(t, a, "x", "j", "enter")
	require.True(t, a.settings.editing)

	a.settings.input.SetValue("usd")
	a, _ = press(t, a, "enter")
	assert.False(t, a.settings.editing)
	assert.True(t, a.settings.saved)
	assert.Equal(t, "USD", a.cfg.General.Currency)
	require.Len(t, saves, 1)
	assert.Equal(t, "USD", saves[0].General.Currency)
}

func TestSettingsRejectsShortInterval(t *testing.T) {
	var saves []config.Config
	a := newTestApp(t, &fakeStore{}, &saves)
	a.activeTab = components.TabSettings
	a.settings.cursor = settingsFieldRefreshInterval
	a, _ = press(t, a, "enter")

	a.settings.input.SetValue("3")
	a, _ = press(t, a, "enter")
	assert.Error(t, a.settings.saveErr)
	assert.Empty(t, saves)
	assert.Equal(t, defaultRefresh, a.refreshInterval)
}

func TestViewListIncludesDefaults(t *testing.T) {
	a := newTestApp(t, &fakeStore{}, nil)
	views := a.viewList()
	require.NotEmpty(t, views)

	m, _ := a.Update(viewResultMsg{name: views[0].Name})
	a = m.(App)
	a.activeTab = components.TabViews
	assert.Contains(t, a.View(), "No data")
}
