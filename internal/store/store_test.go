package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/charterdesk/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustDate(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return &d
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "x")
	require.Error(t, err)
}

func TestSaveBooking_RoundTripKeepsNulls(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	saved, err := s.SaveBooking(ctx, model.Booking{
		GuestName: "Ana Ruiz",
		Boat:      "Sea Breeze",
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	require.Equal(t, "CH-2024-0001", saved.Reference)
	require.Equal(t, model.StatusEnquiry, saved.Status)

	got, err := s.GetBooking(ctx, saved.Reference)
	require.NoError(t, err)
	require.Nil(t, got.StartDate)
	require.Nil(t, got.Total)
	require.Nil(t, got.Guests)
	require.Equal(t, "Ana Ruiz", got.GuestName)
}

func TestSaveBooking_UpdatesExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b, err := s.SaveBooking(ctx, model.Booking{
		GuestName: "Tom",
		Boat:      "Aurora",
		StartDate: mustDate(t, "2024-06-01"),
		EndDate:   mustDate(t, "2024-06-08"),
		Total:     model.Float(7000),
		Guests:    model.Int(6),
	})
	require.NoError(t, err)

	b.Status = model.StatusConfirmed
	b.Total = model.Float(7500)
	_, err = s.SaveBooking(ctx, b)
	require.NoError(t, err)

	all, err := s.ListBookings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, model.StatusConfirmed, all[0].Status)
	require.InDelta(t, 7500, all[0].Revenue(), 1e-9)
	require.Equal(t, 6, all[0].GuestCount())
	require.Equal(t, 7, all[0].Nights())
}

func TestSaveBooking_DuplicateReferenceConflicts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SaveBooking(ctx, model.Booking{Reference: "CH-2024-0100", Boat: "A"})
	require.NoError(t, err)
	_, err = s.SaveBooking(ctx, model.Booking{Reference: "CH-2024-0100", Boat: "B"})
	require.True(t, errors.Is(err, ErrConflict), "got %v", err)
}

func TestSaveBooking_UnknownCustomerRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.SaveBooking(ctx, model.Booking{CustomerID: "missing", Boat: "A"})
	require.True(t, errors.Is(err, ErrReference), "got %v", err)
}

func TestRecordPayment_DerivesStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b, err := s.SaveBooking(ctx, model.Booking{Boat: "Aurora", Total: model.Float(1000)})
	require.NoError(t, err)

	b, err = s.RecordPayment(ctx, b.ID, 300)
	require.NoError(t, err)
	require.Equal(t, model.PaymentDeposit, b.PaymentStatus)
	require.InDelta(t, 700, b.Balance(), 1e-9)

	b, err = s.RecordPayment(ctx, b.ID, 700)
	require.NoError(t, err)
	require.Equal(t, model.PaymentPaid, b.PaymentStatus)

	_, err = s.RecordPayment(ctx, "nope", 10)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateBookingStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b, err := s.SaveBooking(ctx, model.Booking{Boat: "Aurora"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateBookingStatus(ctx, b.ID, model.StatusCancelled))
	require.Error(t, s.UpdateBookingStatus(ctx, b.ID, "bogus"))
	require.ErrorIs(t, s.UpdateBookingStatus(ctx, "nope", model.StatusConfirmed), ErrNotFound)
}

func TestCustomers_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c, err := s.SaveCustomer(ctx, model.Customer{Name: "Ana", Email: " Ana@Example.com "})
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", c.Email)

	_, err = s.SaveCustomer(ctx, model.Customer{Name: "Other", Email: "ana@example.com"})
	require.ErrorIs(t, err, ErrConflict)

	found, err := s.FindCustomerByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	require.Equal(t, c.ID, found.ID)

	_, err = s.GetCustomer(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestChecklist_SetAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b, err := s.SaveBooking(ctx, model.Booking{Boat: "Aurora"})
	require.NoError(t, err)

	require.NoError(t, s.SetChecklistItem(ctx, b.ID, "contract_signed", true))
	require.NoError(t, s.SetChecklistItem(ctx, b.ID, "deposit_received", true))
	require.NoError(t, s.SetChecklistItem(ctx, b.ID, "deposit_received", false))
	require.ErrorIs(t, s.SetChecklistItem(ctx, b.ID, "bogus", true), ErrUnknownItem)

	cl, err := s.GetChecklist(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, cl.Done["contract_signed"])
	require.False(t, cl.Done["deposit_received"])

	all, err := s.ListChecklists(ctx)
	require.NoError(t, err)
	require.Contains(t, all, b.ID)

	// Deleting the booking cascades to its checklist.
	require.NoError(t, s.DeleteBooking(ctx, b.ID))
	all, err = s.ListChecklists(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestCommunications_Filter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.LogCommunication(ctx, model.Communication{BookingID: "b1", Channel: model.ChannelEmail, Body: "hi"})
	require.NoError(t, err)
	_, err = s.LogCommunication(ctx, model.Communication{BookingID: "b2", Channel: model.ChannelWhatsApp, Body: "hey"})
	require.NoError(t, err)

	got, err := s.ListCommunications(ctx, CommunicationFilter{BookingID: "b2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, model.ChannelWhatsApp, got[0].Channel)
	require.Equal(t, "drafted", got[0].Status)
}

func TestTargets_Upsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SetTarget(ctx, model.FinancialTarget{Year: 2024, Month: time.June, Revenue: 10000}))
	require.NoError(t, s.SetTarget(ctx, model.FinancialTarget{Year: 2024, Month: time.June, Revenue: 12000}))
	require.NoError(t, s.SetTarget(ctx, model.FinancialTarget{Year: 2025, Month: time.June, Revenue: 9000}))
	require.Error(t, s.SetTarget(ctx, model.FinancialTarget{Year: 2024, Month: 13, Revenue: 1}))

	got, err := s.ListTargets(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.InDelta(t, 12000, got[0].Revenue, 1e-9)
}

func TestRuns_CompletedKeys(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.RecordRun(ctx, model.AutomationRun{Workflow: "review_request", BookingID: "b1", Status: model.RunSuccess})
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, model.AutomationRun{Workflow: "review_request", BookingID: "b2", Status: model.RunFailed})
	require.NoError(t, err)

	done, err := s.CompletedRuns(ctx)
	require.NoError(t, err)
	require.True(t, done[RunKey("review_request", "b1")])
	require.False(t, done[RunKey("review_request", "b2")])

	runs, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetSetting(ctx, "payment_secret_key")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetSetting(ctx, "payment_secret_key", "sk_test_1"))
	require.NoError(t, s.SetSetting(ctx, "payment_secret_key", "sk_test_2"))

	v, err := s.GetSetting(ctx, "payment_secret_key")
	require.NoError(t, err)
	require.Equal(t, "sk_test_2", v)
}

func TestSaveBooking_ReferenceSkipsDeletedAndImported(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var saved []model.Booking
	for _, guest := range []string{"Ana", "Ben", "Cleo"} {
		b, err := s.SaveBooking(ctx, model.Booking{GuestName: guest, Boat: "Aurora", StartDate: mustDate(t, "2024-07-01")})
		require.NoError(t, err)
		saved = append(saved, b)
	}
	require.NoError(t, s.DeleteBooking(ctx, saved[1].ID))

	next, err := s.SaveBooking(ctx, model.Booking{GuestName: "Dora", Boat: "Aurora", StartDate: mustDate(t, "2024-07-10")})
	require.NoError(t, err)
	require.Equal(t, "CH-2024-0004", next.Reference)

	_, err = s.SaveBooking(ctx, model.Booking{Reference: "CH-2024-0041", GuestName: "Eli", Boat: "Aurora"})
	require.NoError(t, err)
	ref, err := s.NextReference(ctx, 2024)
	require.NoError(t, err)
	require.Equal(t, "CH-2024-0042", ref)
}

func TestRuns_SkippedKeepsLatest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for _, r := range []model.AutomationRun{
		{Workflow: "review_request", BookingID: "b1", Status: model.RunSkipped, RanAt: first},
		{Workflow: "review_request", BookingID: "b1", Status: model.RunSkipped, RanAt: first.Add(time.Hour)},
		{Workflow: "review_request", BookingID: "b2", Status: model.RunFailed, RanAt: first},
	} {
		_, err := s.RecordRun(ctx, r)
		require.NoError(t, err)
	}

	skipped, err := s.SkippedRuns(ctx)
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	require.True(t, skipped[RunKey("review_request", "b1")].Equal(first.Add(time.Hour)))
}
