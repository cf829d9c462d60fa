// Package pipeline loads charter data and computes reporting aggregates.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/charterdesk/internal/model"
)

type monthKey struct {
	year  int
	month time.Month
}

// Aggregate computes summary statistics from bookings starting within the
// given time range. Cancelled bookings count toward the cancellation rate
// only.
func Aggregate(bookings []model.Booking, since, until time.Time) model.SummaryStats {
	filtered := FilterByTime(bookings, since, until)

	var stats model.SummaryStats
	boats := make(map[string]struct{})

	for _, b := range filtered {
		if !b.Counts() {
			stats.CancelledBookings++
			continue
		}
		stats.TotalBookings++
		stats.TotalGuests += b.GuestCount()
		stats.CharterNights += b.Nights()
		stats.Revenue += b.Revenue()
		stats.AmountPaid += b.AmountPaid
		stats.Outstanding += b.Balance()
		if b.Boat != "" {
			boats[strings.ToLower(b.Boat)] = struct{}{}
		}
	}

	stats.ActiveBoats = len(boats)

	if stats.TotalBookings > 0 {
		n := float64(stats.TotalBookings)
		stats.AvgBookingValue = stats.Revenue / n
		stats.AvgGuests = float64(stats.TotalGuests) / n
	}
	if all := stats.TotalBookings + stats.CancelledBookings; all > 0 {
		stats.CancellationRate = float64(stats.CancelledBookings) / float64(all)
	}
	if stats.CharterNights > 0 {
		stats.RevenuePerNight = stats.Revenue / float64(stats.CharterNights)
	}

	return stats
}

// AggregateMonths groups bookings by month × year of their start date and
// returns groups in chronological order. Bookings without a start date are
// tallied on the report instead of a group. Input is not filtered by status.
func AggregateMonths(bookings []model.Booking) model.MonthlyReport {
	report := model.MonthlyReport{Months: []model.MonthlyStats{}}
	groups := make(map[monthKey]*model.MonthlyStats)

	for _, b := range bookings {
		if b.StartDate == nil {
			report.UndatedBookings++
			report.UndatedRevenue += b.Revenue()
			continue
		}
		key := monthKey{year: b.StartDate.Year(), month: b.StartDate.Month()}
		ms, ok := groups[key]
		if !ok {
			ms = &model.MonthlyStats{Year: key.year, Month: key.month}
			groups[key] = ms
		}
		addBooking(ms, b)
	}

	for _, ms := range groups {
		finishMonth(ms)
		report.Months = append(report.Months, *ms)
	}
	sort.Slice(report.Months, func(i, j int) bool {
		a, b := report.Months[i], report.Months[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})

	return report
}

// AggregateCalendarMonths builds a seasonal profile: 12 rows, January to
// December, summed across every year present. Undated bookings are skipped.
func AggregateCalendarMonths(bookings []model.Booking) []model.MonthlyStats {
	months := make([]model.MonthlyStats, 12)
	for i := range months {
		months[i].Month = time.Month(i + 1)
	}
	for _, b := range bookings {
		if b.StartDate == nil {
			continue
		}
		addBooking(&months[b.StartDate.Month()-1], b)
	}
	for i := range months {
		finishMonth(&months[i])
	}
	return months
}

// AggregateYearOverYear lays out each calendar month against every year
// that has dated bookings. For now's year, months after now's month are
// left nil; all other empty months are zero-valued stats.
func AggregateYearOverYear(bookings []model.Booking, now time.Time) model.YearOverYear {
	groups := make(map[monthKey]*model.MonthlyStats)
	yearSet := make(map[int]struct{})

	for _, b := range bookings {
		if b.StartDate == nil {
			continue
		}
		key := monthKey{year: b.StartDate.Year(), month: b.StartDate.Month()}
		yearSet[key.year] = struct{}{}
		ms, ok := groups[key]
		if !ok {
			ms = &model.MonthlyStats{Year: key.year, Month: key.month}
			groups[key] = ms
		}
		addBooking(ms, b)
	}

	yoy := model.YearOverYear{Years: make([]int, 0, len(yearSet))}
	if len(yearSet) == 0 {
		return yoy
	}
	for y := range yearSet {
		yoy.Years = append(yoy.Years, y)
	}
	sort.Ints(yoy.Years)

	yoy.Rows = make([]model.YoYRow, 12)
	for i := range yoy.Rows {
		month := time.Month(i + 1)
		row := model.YoYRow{Month: month, Cells: make([]*model.MonthlyStats, len(yoy.Years))}
		for j, year := range yoy.Years {
			if year == now.Year() && month > now.Month() {
				continue
			}
			if ms, ok := groups[monthKey{year: year, month: month}]; ok {
				finishMonth(ms)
				row.Cells[j] = ms
				continue
			}
			row.Cells[j] = &model.MonthlyStats{Year: year, Month: month}
		}
		yoy.Rows[i] = row
	}

	return yoy
}

// AggregateBoats computes per-boat statistics, sorted by revenue descending.
func AggregateBoats(bookings []model.Booking, since, until time.Time) []model.BoatStats {
	filtered := FilterByTime(bookings, since, until)

	boatMap := make(map[string]*model.BoatStats)
	var totalRevenue float64

	for _, b := range filtered {
		if !b.Counts() {
			continue
		}
		name := b.Boat
		if name == "" {
			name = "(unassigned)"
		}
		bs, ok := boatMap[name]
		if !ok {
			bs = &model.BoatStats{Boat: name}
			boatMap[name] = bs
		}
		bs.Bookings++
		bs.Nights += b.Nights()
		bs.Guests += b.GuestCount()
		bs.Revenue += b.Revenue()
		totalRevenue += b.Revenue()
	}

	boats := make([]model.BoatStats, 0, len(boatMap))
	for _, bs := range boatMap {
		if totalRevenue > 0 {
			bs.SharePercent = bs.Revenue / totalRevenue * 100
		}
		if bs.Bookings > 0 {
			bs.AvgBookingValue = bs.Revenue / float64(bs.Bookings)
		}
		boats = append(boats, *bs)
	}
	sort.Slice(boats, func(i, j int) bool {
		if boats[i].Revenue != boats[j].Revenue {
			return boats[i].Revenue > boats[j].Revenue
		}
		return boats[i].Boat < boats[j].Boat
	})

	return boats
}

// AggregateSources computes per lead-source statistics. ConversionRate is
// the share of that source's bookings that were not cancelled.
func AggregateSources(bookings []model.Booking, since, until time.Time) []model.SourceStats {
	filtered := FilterByTime(bookings, since, until)

	srcMap := make(map[string]*model.SourceStats)
	totals := make(map[string]int)
	var totalRevenue float64

	for _, b := range filtered {
		name := b.Source
		if name == "" {
			name = "direct"
		}
		totals[name]++
		ss, ok := srcMap[name]
		if !ok {
			ss = &model.SourceStats{Source: name}
			srcMap[name] = ss
		}
		if !b.Counts() {
			continue
		}
		ss.Bookings++
		ss.Revenue += b.Revenue()
		totalRevenue += b.Revenue()
	}

	sources := make([]model.SourceStats, 0, len(srcMap))
	for name, ss := range srcMap {
		if totalRevenue > 0 {
			ss.SharePercent = ss.Revenue / totalRevenue * 100
		}
		if n := totals[name]; n > 0 {
			ss.ConversionRate = float64(ss.Bookings) / float64(n)
		}
		sources = append(sources, *ss)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Revenue != sources[j].Revenue {
			return sources[i].Revenue > sources[j].Revenue
		}
		return sources[i].Source < sources[j].Source
	})

	return sources
}

// AggregateForecast compares each month of year against its target.
// Actual counts completed charters and confirmed charters that already
// started; Projected adds confirmed charters still ahead of now.
func AggregateForecast(bookings []model.Booking, targets []model.FinancialTarget, year int, now time.Time) model.Forecast {
	fc := model.Forecast{Year: year, Months: make([]model.ForecastMonth, 12)}
	for i := range fc.Months {
		fc.Months[i].Month = time.Month(i + 1)
	}
	for _, t := range targets {
		if t.Year == year && t.Month >= time.January && t.Month <= time.December {
			fc.Months[t.Month-1].Target = t.Revenue
		}
	}

	for _, b := range bookings {
		if b.StartDate == nil || b.StartDate.Year() != year {
			continue
		}
		fm := &fc.Months[b.StartDate.Month()-1]
		switch {
		case b.Status == model.StatusCompleted:
			fm.Actual += b.Revenue()
		case b.Status == model.StatusConfirmed && !b.StartDate.After(now):
			fm.Actual += b.Revenue()
		case b.Status == model.StatusConfirmed:
			fm.Projected += b.Revenue()
		}
	}

	for i := range fc.Months {
		fm := &fc.Months[i]
		fm.Projected += fm.Actual
		if fm.Target > 0 {
			fm.Attainment = fm.Actual / fm.Target * 100
		}
		fc.Target += fm.Target
		fc.Actual += fm.Actual
		fc.Projected += fm.Projected
	}
	if fc.Target > 0 {
		fc.Attainment = fc.Actual / fc.Target * 100
	}
	if gap := fc.Target - fc.Projected; gap > 0 {
		fc.RemainingTo = gap
	}
	return fc
}

func addBooking(ms *model.MonthlyStats, b model.Booking) {
	ms.Revenue += b.Revenue()
	ms.Bookings++
	ms.Guests += b.GuestCount()
}

func finishMonth(ms *model.MonthlyStats) {
	ms.AvgBookingValue = 0
	if ms.Bookings > 0 {
		ms.AvgBookingValue = ms.Revenue / float64(ms.Bookings)
	}
}

// FilterByTime returns bookings whose start date falls within [since, until).
// Undated bookings are dropped whenever a bound is set.
func FilterByTime(bookings []model.Booking, since, until time.Time) []model.Booking {
	if since.IsZero() && until.IsZero() {
		return bookings
	}

	var result []model.Booking
	for _, b := range bookings {
		if b.StartDate == nil {
			continue
		}
		if !since.IsZero() && b.StartDate.Before(since) {
			continue
		}
		if !until.IsZero() && !b.StartDate.Before(until) {
			continue
		}
		result = append(result, b)
	}
	return result
}

// FilterByBoat returns bookings matching the boat substring.
func FilterByBoat(bookings []model.Booking, boat string) []model.Booking {
	if boat == "" {
		return bookings
	}
	var result []model.Booking
	for _, b := range bookings {
		if containsIgnoreCase(b.Boat, boat) {
			result = append(result, b)
		}
	}
	return result
}

// FilterByStatus returns bookings with the given status.
func FilterByStatus(bookings []model.Booking, status model.BookingStatus) []model.Booking {
	if status == "" {
		return bookings
	}
	var result []model.Booking
	for _, b := range bookings {
		if b.Status == status {
			result = append(result, b)
		}
	}
	return result
}

// FilterBySearch matches guest name, email, reference or boat.
func FilterBySearch(bookings []model.Booking, q string) []model.Booking {
	if q == "" {
		return bookings
	}
	var result []model.Booking
	for _, b := range bookings {
		if containsIgnoreCase(b.GuestName, q) || containsIgnoreCase(b.GuestEmail, q) ||
			containsIgnoreCase(b.Reference, q) || containsIgnoreCase(b.Boat, q) {
			result = append(result, b)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
