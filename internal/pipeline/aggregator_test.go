package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/theirongolddev/charterdesk/internal/model"
)

func mustDate(t testing.TB, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return &d
}

func booking(t testing.TB, date string, total float64, guests int) model.Booking {
	t.Helper()
	b := model.Booking{Status: model.StatusConfirmed, Total: model.Float(total), Guests: model.Int(guests)}
	if date != "" {
		b.StartDate = mustDate(t, date)
	}
	return b
}

func TestAggregateMonths_Example(t *testing.T) {
	bookings := []model.Booking{
		booking(t, "2024-06-01", 1000, 4),
		booking(t, "2024-06-15", 500, 2),
		booking(t, "2024-07-01", 800, 6),
	}

	got := AggregateMonths(bookings)
	want := []model.MonthlyStats{
		{Year: 2024, Month: time.June, Revenue: 1500, Bookings: 2, Guests: 6, AvgBookingValue: 750},
		{Year: 2024, Month: time.July, Revenue: 800, Bookings: 1, Guests: 6, AvgBookingValue: 800},
	}
	if diff := cmp.Diff(want, got.Months); diff != "" {
		t.Fatalf("AggregateMonths mismatch (-want +got):\n%s", diff)
	}
	if got.Months[0].Label() != "Jun 2024" {
		t.Errorf("Label = %q, want Jun 2024", got.Months[0].Label())
	}
}

func TestAggregateMonths_PartitionSumsToTotal(t *testing.T) {
	bookings := []model.Booking{
		booking(t, "2023-12-31", 120.25, 2),
		booking(t, "2024-01-01", 99.75, 1),
		booking(t, "2024-01-20", 400, 3),
		booking(t, "2024-08-09", 3300.10, 8),
		{StartDate: mustDate(t, "2024-08-10")}, // no total, no guests
		booking(t, "", 50, 1),
	}

	report := AggregateMonths(bookings)

	var inputTotal float64
	for _, b := range bookings {
		inputTotal += b.Revenue()
	}
	groupTotal := report.UndatedRevenue
	count := report.UndatedBookings
	for _, m := range report.Months {
		groupTotal += m.Revenue
		count += m.Bookings
	}
	if math.Abs(groupTotal-inputTotal) > 1e-9 {
		t.Fatalf("group revenue %.4f != input revenue %.4f", groupTotal, inputTotal)
	}
	if count != len(bookings) {
		t.Fatalf("group count %d != input count %d", count, len(bookings))
	}
	if report.UndatedBookings != 1 {
		t.Errorf("UndatedBookings = %d, want 1", report.UndatedBookings)
	}
}

func TestAggregateMonths_ZeroTotalsAverageIsZero(t *testing.T) {
	report := AggregateMonths([]model.Booking{{StartDate: mustDate(t, "2024-03-03")}})
	if len(report.Months) != 1 {
		t.Fatalf("Months = %d, want 1", len(report.Months))
	}
	m := report.Months[0]
	if m.AvgBookingValue != 0 || math.IsNaN(m.AvgBookingValue) {
		t.Errorf("AvgBookingValue = %v, want 0", m.AvgBookingValue)
	}
}

func TestAggregateMonths_EmptyInput(t *testing.T) {
	report := AggregateMonths(nil)
	if report.Months == nil {
		t.Fatal("Months should be an empty slice, not nil")
	}
	if !report.Empty() {
		t.Error("Empty() = false for no input")
	}
}

func TestAggregateCalendarMonths_SumsAcrossYears(t *testing.T) {
	months := AggregateCalendarMonths([]model.Booking{
		booking(t, "2023-06-10", 1000, 2),
		booking(t, "2024-06-10", 3000, 4),
		booking(t, "", 999, 1),
	})
	if len(months) != 12 {
		t.Fatalf("len = %d, want 12", len(months))
	}
	june := months[time.June-1]
	if june.Revenue != 4000 || june.Bookings != 2 || june.AvgBookingValue != 2000 {
		t.Errorf("June = %+v", june)
	}
	if months[0].AvgBookingValue != 0 {
		t.Errorf("empty January average = %v, want 0", months[0].AvgBookingValue)
	}
	if june.Label() != "Jun" {
		t.Errorf("Label = %q, want Jun", june.Label())
	}
}

func TestAggregateYearOverYear_NoFutureMonths(t *testing.T) {
	now := time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC)
	yoy := AggregateYearOverYear([]model.Booking{
		booking(t, "2023-03-01", 500, 2),
		booking(t, "2023-11-01", 700, 2),
		booking(t, "2024-06-01", 1000, 4),
		booking(t, "2024-09-01", 2000, 4), // booked ahead, still not shown
	}, now)

	if diff := cmp.Diff([]int{2023, 2024}, yoy.Years); diff != "" {
		t.Fatalf("Years mismatch (-want +got):\n%s", diff)
	}
	if len(yoy.Rows) != 12 {
		t.Fatalf("Rows = %d, want 12", len(yoy.Rows))
	}
	for _, row := range yoy.Rows {
		cur := row.Cells[1]
		if row.Month > now.Month() && cur != nil {
			t.Errorf("%s 2024 populated after current month: %+v", row.Month, cur)
		}
		if row.Month <= now.Month() && cur == nil {
			t.Errorf("%s 2024 should be populated", row.Month)
		}
		if row.Cells[0] == nil {
			t.Errorf("%s 2023 should be populated for a past year", row.Month)
		}
	}
	if got := yoy.Rows[time.June-1].Cells[1].Revenue; got != 1000 {
		t.Errorf("Jun 2024 revenue = %.2f, want 1000", got)
	}
	if got := yoy.Rows[time.November-1].Cells[0].Revenue; got != 700 {
		t.Errorf("Nov 2023 revenue = %.2f, want 700", got)
	}
	if got := yoy.Rows[time.January-1].Cells[0]; got.Revenue != 0 || got.AvgBookingValue != 0 {
		t.Errorf("Jan 2023 = %+v, want zero stats", got)
	}
}

func TestAggregateYearOverYear_Empty(t *testing.T) {
	yoy := AggregateYearOverYear(nil, time.Now())
	if !yoy.Empty() || len(yoy.Rows) != 0 {
		t.Fatalf("expected empty result, got %+v", yoy)
	}
}

func TestAggregate_Summary(t *testing.T) {
	a := booking(t, "2024-06-01", 1000, 4)
	a.EndDate = mustDate(t, "2024-06-05")
	a.AmountPaid = 400
	a.Boat = "Aurora"
	b := booking(t, "2024-06-10", 3000, 6)
	b.EndDate = mustDate(t, "2024-06-12")
	b.AmountPaid = 3000
	b.Boat = "aurora"
	c := booking(t, "2024-06-20", 5000, 2)
	c.Status = model.StatusCancelled

	s := Aggregate([]model.Booking{a, b, c}, time.Time{}, time.Time{})
	if s.TotalBookings != 2 || s.CancelledBookings != 1 {
		t.Fatalf("bookings = %d/%d", s.TotalBookings, s.CancelledBookings)
	}
	if s.Revenue != 4000 || s.Outstanding != 600 || s.AvgBookingValue != 2000 {
		t.Errorf("summary = %+v", s)
	}
	if s.CharterNights != 6 || s.ActiveBoats != 1 {
		t.Errorf("nights/boats = %d/%d", s.CharterNights, s.ActiveBoats)
	}
	if math.Abs(s.CancellationRate-1.0/3.0) > 1e-9 {
		t.Errorf("CancellationRate = %v", s.CancellationRate)
	}

	empty := Aggregate(nil, time.Time{}, time.Time{})
	if empty.AvgBookingValue != 0 || empty.CancellationRate != 0 || empty.RevenuePerNight != 0 {
		t.Errorf("empty summary has non-zero rates: %+v", empty)
	}
}

func TestAggregateBoats_ShareAndOrder(t *testing.T) {
	a := booking(t, "2024-06-01", 1000, 2)
	a.Boat = "Aurora"
	b := booking(t, "2024-06-02", 3000, 2)
	b.Boat = "Sea Breeze"

	boats := AggregateBoats([]model.Booking{a, b}, time.Time{}, time.Time{})
	if len(boats) != 2 || boats[0].Boat != "Sea Breeze" {
		t.Fatalf("boats = %+v", boats)
	}
	if boats[0].SharePercent != 75 {
		t.Errorf("SharePercent = %v, want 75", boats[0].SharePercent)
	}
}

func TestAggregateSources_Conversion(t *testing.T) {
	a := booking(t, "2024-06-01", 1000, 2)
	a.Source = "broker"
	b := booking(t, "2024-06-02", 2000, 2)
	b.Source = "broker"
	b.Status = model.StatusCancelled
	c := booking(t, "2024-06-03", 500, 2)

	src := AggregateSources([]model.Booking{a, b, c}, time.Time{}, time.Time{})
	if len(src) != 2 {
		t.Fatalf("sources = %+v", src)
	}
	if src[0].Source != "broker" || src[0].ConversionRate != 0.5 {
		t.Errorf("broker = %+v", src[0])
	}
	if src[1].Source != "direct" {
		t.Errorf("empty source should report as direct, got %q", src[1].Source)
	}
}

func TestAggregateForecast(t *testing.T) {
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	done := booking(t, "2024-05-10", 4000, 2)
	done.Status = model.StatusCompleted
	started := booking(t, "2024-06-01", 1000, 2)
	ahead := booking(t, "2024-06-20", 2000, 2)
	enquiry := booking(t, "2024-06-25", 9999, 2)
	enquiry.Status = model.StatusEnquiry

	targets := []model.FinancialTarget{
		{Year: 2024, Month: time.May, Revenue: 5000},
		{Year: 2024, Month: time.June, Revenue: 4000},
		{Year: 2023, Month: time.June, Revenue: 1},
	}

	fc := AggregateForecast([]model.Booking{done, started, ahead, enquiry}, targets, 2024, now)
	may, june := fc.Months[time.May-1], fc.Months[time.June-1]
	if may.Actual != 4000 || may.Attainment != 80 {
		t.Errorf("May = %+v", may)
	}
	if june.Actual != 1000 || june.Projected != 3000 || june.Attainment != 25 {
		t.Errorf("June = %+v", june)
	}
	if fc.Target != 9000 || fc.RemainingTo != 2000 {
		t.Errorf("totals = target %.0f remaining %.0f", fc.Target, fc.RemainingTo)
	}
	if fc.Months[0].Attainment != 0 {
		t.Errorf("January without target should have zero attainment")
	}
}

func TestFilters(t *testing.T) {
	a := booking(t, "2024-06-01", 1, 1)
	a.Boat, a.GuestName, a.Reference = "Sea Breeze", "Ana Ruiz", "CH-2024-0001"
	b := booking(t, "2024-07-01", 1, 1)
	b.Boat, b.Status = "Aurora", model.StatusCancelled
	c := booking(t, "", 1, 1)
	all := []model.Booking{a, b, c}

	if got := FilterByBoat(all, "breeze"); len(got) != 1 {
		t.Errorf("FilterByBoat = %d, want 1", len(got))
	}
	if got := FilterByStatus(all, model.StatusCancelled); len(got) != 1 {
		t.Errorf("FilterByStatus = %d, want 1", len(got))
	}
	if got := FilterBySearch(all, "ruiz"); len(got) != 1 {
		t.Errorf("FilterBySearch = %d, want 1", len(got))
	}
	since := *mustDate(t, "2024-06-15")
	if got := FilterByTime(all, since, time.Time{}); len(got) != 1 {
		t.Errorf("FilterByTime = %d, want 1 (undated dropped)", len(got))
	}
	if got := FilterByTime(all, time.Time{}, time.Time{}); len(got) != 3 {
		t.Errorf("FilterByTime with no bounds = %d, want 3", len(got))
	}
	if got := CountingBookings(all); len(got) != 2 {
		t.Errorf("CountingBookings = %d, want 2", len(got))
	}
}
