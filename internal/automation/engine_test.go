package automation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/messages"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/notify"
	"github.com/theirongolddev/charterdesk/internal/store"
)

type fakeStore struct {
	bookings []model.Booking
	runs     []model.AutomationRun
	comms    []model.Communication
	commErr  error
}

func (f *fakeStore) ListBookings(context.Context) ([]model.Booking, error) {
	return f.bookings, nil
}

func (f *fakeStore) CompletedRuns(context.Context) (map[string]bool, error) {
	done := make(map[string]bool)
	for _, r := range f.runs {
		if r.Status == model.RunSuccess {
			done[store.RunKey(r.Workflow, r.BookingID)] = true
		}
	}
	return done, nil
}

func (f *fakeStore) SkippedRuns(context.Context) (map[string]time.Time, error) {
	last := make(map[string]time.Time)
	for _, r := range f.runs {
		key := store.RunKey(r.Workflow, r.BookingID)
		if r.Status == model.RunSkipped && r.RanAt.After(last[key]) {
			last[key] = r.RanAt
		}
	}
	return last, nil
}

func (f *fakeStore) RecordRun(_ context.Context, r model.AutomationRun) (model.AutomationRun, error) {
	f.runs = append(f.runs, r)
	return r, nil
}

func (f *fakeStore) LogCommunication(_ context.Context, c model.Communication) (model.Communication, error) {
	if f.commErr != nil {
		return c, f.commErr
	}
	f.comms = append(f.comms, c)
	return c, nil
}

type fakeNotifier struct {
	got []notify.Notification
}

func (f *fakeNotifier) Notify(_ context.Context, n notify.Notification) error {
	f.got = append(f.got, n)
	return nil
}

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) *time.Time {
	return model.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func fixtureBookings() []model.Booking {
	return []model.Booking{
		{
			ID: "b1", Reference: "CH-2024-0001", GuestName: "Ana Silva", GuestPhone: "+30 694 123 4567",
			Boat: "Blue Horizon", StartDate: day(2024, 7, 10), EndDate: day(2024, 7, 17),
			Total: model.Float(5000), Status: model.StatusConfirmed, PaymentStatus: model.PaymentUnpaid,
			CreatedAt: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "b2", Reference: "CH-2024-0002", GuestName: "Ben Ode", GuestEmail: "ben@example.com",
			Boat: "Sea Breeze", StartDate: day(2024, 6, 5), EndDate: day(2024, 6, 12),
			Total: model.Float(8000), AmountPaid: 2000, Status: model.StatusConfirmed, PaymentStatus: model.PaymentDeposit,
			CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "b3", Reference: "CH-2024-0003", GuestName: "Cleo", Boat: "Blue Horizon",
			StartDate: day(2024, 5, 21), EndDate: day(2024, 5, 28),
			Total: model.Float(4000), AmountPaid: 4000, Status: model.StatusCompleted, PaymentStatus: model.PaymentPaid,
		},
		{
			ID: "b4", Reference: "CH-2024-0004", GuestName: "Dan", GuestPhone: "+306941111111",
			StartDate: day(2024, 6, 3), Total: model.Float(3000), Status: model.StatusCancelled, PaymentStatus: model.PaymentUnpaid,
			CreatedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "b5", Reference: "CH-2024-0005", GuestName: "Eve", GuestPhone: "+306942222222",
			StartDate: day(2024, 8, 1), Total: model.Float(6000), Status: model.StatusConfirmed, PaymentStatus: model.PaymentUnpaid,
			CreatedAt: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		},
	}
}

func newEngine(st Store, n Notifier) *Engine {
	cfg := config.DefaultConfig()
	cfg.Business.Name = "Aegean Charters"
	return New(st, n, cfg, WithClock(func() time.Time { return testNow }))
}

func TestRunOnce_QueuesDueMessages(t *testing.T) {
	st := &fakeStore{
		bookings: fixtureBookings(),
		runs: []model.AutomationRun{
			{Workflow: messages.KindBriefing, BookingID: "b2", Status: model.RunSuccess},
		},
	}
	n := &fakeNotifier{}

	report, err := newEngine(st, n).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Evaluated)
	assert.Equal(t, 2, report.Queued)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)

	require.Len(t, st.comms, 2)
	assert.Equal(t, model.ChannelWhatsApp, st.comms[0].Channel)
	assert.Equal(t, "+306941234567", st.comms[0].Recipient)
	assert.Equal(t, messages.KindDepositReminder, st.comms[0].Template)
	assert.Equal(t, StatusQueued, st.comms[0].Status)

	assert.Equal(t, model.ChannelEmail, st.comms[1].Channel)
	assert.Equal(t, messages.KindBalanceReminder, st.comms[1].Template)
	assert.Equal(t, "Balance due for CH-2024-0002", st.comms[1].Subject)
	assert.Contains(t, st.comms[1].Body, "€6,000")

	require.Len(t, n.got, 2)
	assert.True(t, strings.Contains(n.got[0].Body, "https://wa.me/306941234567?text="))

	skipped := report.Runs[len(report.Runs)-1]
	assert.Equal(t, messages.KindReviewRequest, skipped.Workflow)
	assert.Equal(t, model.RunSkipped, skipped.Status)
}

func TestRunOnce_SucceedsOncePerBooking(t *testing.T) {
	st := &fakeStore{bookings: fixtureBookings()}
	e := newEngine(st, nil)

	first, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Queued) // deposit b1, balance b2, briefing b2

	second, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Queued)
	assert.Zero(t, second.Skipped)
	assert.Zero(t, second.Evaluated)
	assert.Len(t, st.comms, 3)
}

func TestRunOnce_RecordsSkipOnceUntilBookingEdited(t *testing.T) {
	st := &fakeStore{bookings: fixtureBookings()[2:3]}
	clock := testNow
	e := New(st, nil, config.DefaultConfig(), WithClock(func() time.Time { return clock }))

	for i := 0; i < 10; i++ {
		_, err := e.RunOnce(context.Background())
		require.NoError(t, err)
		clock = clock.Add(time.Minute)
	}
	require.Len(t, st.runs, 1)
	assert.Equal(t, model.RunSkipped, st.runs[0].Status)

	st.bookings[0].GuestEmail = "cleo@example.com"
	st.bookings[0].UpdatedAt = clock
	clock = clock.Add(time.Minute)

	report, err := e.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Queued)
	require.Len(t, st.runs, 2)
	assert.Equal(t, model.RunSuccess, st.runs[1].Status)
	assert.Equal(t, model.ChannelEmail, st.comms[0].Channel)
}

func TestRunOnce_LogFailureMarksRunFailed(t *testing.T) {
	st := &fakeStore{bookings: fixtureBookings()[:1], commErr: errors.New("db down")}

	report, err := newEngine(st, nil).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, st.runs, 1)
	assert.Equal(t, model.RunFailed, st.runs[0].Status)
	assert.Equal(t, "db down", st.runs[0].Detail)
}

func TestRunOnce_Disabled(t *testing.T) {
	st := &fakeStore{bookings: fixtureBookings()}
	cfg := config.DefaultConfig()
	cfg.Automation.Enabled = false

	report, err := New(st, nil, cfg).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Evaluated)
	assert.Empty(t, st.runs)
}

func TestWorkflowDue(t *testing.T) {
	wfs := Workflows(config.DefaultConfig().Automation)
	byName := make(map[string]Workflow)
	for _, wf := range wfs {
		byName[wf.Name] = wf
	}
	bookings := fixtureBookings()

	tests := []struct {
		workflow string
		booking  int
		want     bool
	}{
		{messages.KindDepositReminder, 0, true},
		{messages.KindDepositReminder, 4, false}, // created yesterday
		{messages.KindDepositReminder, 3, false}, // cancelled
		{messages.KindBalanceReminder, 1, true},
		{messages.KindBalanceReminder, 0, false},
		{messages.KindBriefing, 1, true},
		{messages.KindBriefing, 0, false},
		{messages.KindReviewRequest, 2, true},
		{messages.KindReviewRequest, 1, false},
	}
	for _, tt := range tests {
		got := byName[tt.workflow].Due(bookings[tt.booking], testNow)
		assert.Equal(t, tt.want, got, "%s on %s", tt.workflow, bookings[tt.booking].Reference)
	}
}

func TestReviewRequest_OnlyCompletedCharters(t *testing.T) {
	var review Workflow
	for _, wf := range Workflows(config.DefaultConfig().Automation) {
		if wf.Name == messages.KindReviewRequest {
			review = wf
		}
	}
	require.NotNil(t, review.Due)

	b := fixtureBookings()[2]
	assert.True(t, review.Due(b, testNow))
	b.Status = model.StatusConfirmed
	assert.False(t, review.Due(b, testNow), "an ended charter still marked confirmed is not reviewed")
}

func TestStats(t *testing.T) {
	t1 := testNow.Add(-2 * time.Hour)
	t2 := testNow.Add(-time.Hour)
	runs := []model.AutomationRun{
		{Workflow: messages.KindDepositReminder, Status: model.RunSuccess, RanAt: t1},
		{Workflow: messages.KindDepositReminder, Status: model.RunFailed, Detail: "old", RanAt: t1},
		{Workflow: messages.KindDepositReminder, Status: model.RunFailed, Detail: "new", RanAt: t2},
		{Workflow: messages.KindReviewRequest, Status: model.RunSkipped, RanAt: t2},
	}

	stats := Stats(config.DefaultConfig().Automation, runs)
	require.Len(t, stats, 4)

	dep := stats[1]
	assert.Equal(t, messages.KindDepositReminder, dep.Workflow)
	assert.Equal(t, 1, dep.Succeeded)
	assert.Equal(t, 2, dep.Failed)
	assert.Equal(t, "new", dep.LastError)
	assert.Equal(t, t2, dep.LastRun)

	assert.Equal(t, messages.KindBalanceReminder, stats[0].Workflow)
	assert.Zero(t, stats[0].Succeeded)
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)
	b := time.Date(2024, 6, 3, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, daysBetween(a, b))
	assert.Equal(t, -2, daysBetween(b, a))
}
