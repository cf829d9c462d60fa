package model

import (
	"strconv"
	"time"
)

// SummaryStats holds the top-level aggregate across all bookings.
type SummaryStats struct {
	TotalBookings     int `json:"total_bookings"`
	CancelledBookings int `json:"cancelled_bookings"`
	TotalGuests       int `json:"total_guests"`
	CharterNights     int `json:"charter_nights"`
	ActiveBoats       int `json:"active_boats"`

	Revenue         float64 `json:"revenue"`
	AmountPaid      float64 `json:"amount_paid"`
	Outstanding     float64 `json:"outstanding"`
	AvgBookingValue float64 `json:"avg_booking_value"`
	AvgGuests       float64 `json:"avg_guests"`

	CancellationRate float64 `json:"cancellation_rate"`
	RevenuePerNight  float64 `json:"revenue_per_night"`
}

// MonthlyStats holds metrics for one calendar month. Year is zero when the
// row is a seasonal profile summed across years.
type MonthlyStats struct {
	Year            int        `json:"year"`
	Month           time.Month `json:"month"`
	Revenue         float64    `json:"revenue"`
	Bookings        int        `json:"bookings"`
	Guests          int        `json:"guests"`
	AvgBookingValue float64    `json:"avg_booking_value"`
}

// Label renders the group key, e.g. "Jun 2024" or "Jun" for seasonal rows.
func (m MonthlyStats) Label() string {
	name := m.Month.String()[:3]
	if m.Year == 0 {
		return name
	}
	return name + " " + strconv.Itoa(m.Year)
}

// MonthlyReport is the output of month × year aggregation.
type MonthlyReport struct {
	Months []MonthlyStats `json:"months"`

	// Bookings without a start date cannot be grouped; they are tallied here.
	UndatedBookings int     `json:"undated_bookings"`
	UndatedRevenue  float64 `json:"undated_revenue"`
}

// Empty reports whether there is nothing to render.
func (r MonthlyReport) Empty() bool {
	return len(r.Months) == 0
}

// YearOverYear lays out the 12 calendar months against each year present.
type YearOverYear struct {
	Years []int    `json:"years"`
	Rows  []YoYRow `json:"rows"`
}

// YoYRow is one calendar month across all years. Cells align with
// YearOverYear.Years; a nil cell is a month that has not happened yet.
type YoYRow struct {
	Month time.Month      `json:"month"`
	Cells []*MonthlyStats `json:"cells"`
}

// Empty reports whether there is nothing to render.
func (y YearOverYear) Empty() bool {
	return len(y.Years) == 0
}

// BoatStats holds aggregated metrics for one boat.
type BoatStats struct {
	Boat            string  `json:"boat"`
	Bookings        int     `json:"bookings"`
	Nights          int     `json:"nights"`
	Guests          int     `json:"guests"`
	Revenue         float64 `json:"revenue"`
	SharePercent    float64 `json:"share_percent"`
	AvgBookingValue float64 `json:"avg_booking_value"`
}

// SourceStats holds aggregated metrics for one lead source.
type SourceStats struct {
	Source         string  `json:"source"`
	Bookings       int     `json:"bookings"`
	Revenue        float64 `json:"revenue"`
	SharePercent   float64 `json:"share_percent"`
	ConversionRate float64 `json:"conversion_rate"`
}

// ForecastMonth compares a month's target against actual and booked revenue.
type ForecastMonth struct {
	Month      time.Month `json:"month"`
	Target     float64    `json:"target"`
	Actual     float64    `json:"actual"`
	Projected  float64    `json:"projected"`
	Attainment float64    `json:"attainment"`
}

// Forecast is a year of ForecastMonth rows plus totals.
type Forecast struct {
	Year        int             `json:"year"`
	Months      []ForecastMonth `json:"months"`
	Target      float64         `json:"target"`
	Actual      float64         `json:"actual"`
	Projected   float64         `json:"projected"`
	Attainment  float64         `json:"attainment"`
	RemainingTo float64         `json:"remaining_to"`
}

// PeriodComparison holds current and previous period data for delta computation.
type PeriodComparison struct {
	Current  SummaryStats
	Previous SummaryStats
}
