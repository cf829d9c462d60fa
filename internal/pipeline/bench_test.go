package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/charterdesk/internal/model"
)

func syntheticBookings(n int) []model.Booking {
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	boats := []string{"Aurora", "Sea Breeze", "Calypso", "Nereid"}
	out := make([]model.Booking, n)
	for i := range out {
		d := start.AddDate(0, 0, i%1460)
		end := d.AddDate(0, 0, 7)
		out[i] = model.Booking{
			ID:        "b",
			Boat:      boats[i%len(boats)],
			StartDate: &d,
			EndDate:   &end,
			Total:     model.Float(float64(1000 + i%5000)),
			Guests:    model.Int(2 + i%8),
			Status:    model.StatusConfirmed,
		}
	}
	return out
}

func BenchmarkAggregateMonths(b *testing.B) {
	bookings := syntheticBookings(50_000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = AggregateMonths(bookings)
	}
}

func BenchmarkAggregateYearOverYear(b *testing.B) {
	bookings := syntheticBookings(50_000)
	now := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = AggregateYearOverYear(bookings, now)
	}
}

func BenchmarkAggregateBoats(b *testing.B) {
	bookings := syntheticBookings(50_000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = AggregateBoats(bookings, time.Time{}, time.Time{})
	}
}
