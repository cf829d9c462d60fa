package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/charterdesk/internal/model"
)

func TestAggregateCustomers(t *testing.T) {
	now := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	customers := []model.Customer{
		{ID: "c1", Name: "Ana", Email: "ana@example.com"},
		{ID: "c2", Name: "Tom", Email: "tom@example.com"},
	}

	b1 := booking(t, "2023-07-01", 5000, 4)
	b1.CustomerID = "c1"
	b2 := booking(t, "2024-08-01", 6000, 4)
	b2.GuestEmail = "ANA@example.com" // imported row, matched by email
	b3 := booking(t, "2024-05-01", 9000, 2)
	b3.CustomerID = "c2"
	b3.Status = model.StatusCancelled

	comms := []model.Communication{{CustomerID: "c1"}, {CustomerID: "c1"}, {CustomerID: "zzz"}}

	got := AggregateCustomers(customers, []model.Booking{b1, b2, b3}, comms, now)
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	ana := got[0]
	if ana.Customer.ID != "c1" || ana.Bookings != 2 || ana.LifetimeValue != 11000 || !ana.Repeat {
		t.Errorf("ana = %+v", ana)
	}
	if ana.LastCharter.Year() != 2023 || ana.NextCharter.Month() != time.August {
		t.Errorf("ana last/next = %v / %v", ana.LastCharter, ana.NextCharter)
	}
	if ana.Communications != 2 {
		t.Errorf("Communications = %d, want 2", ana.Communications)
	}
	if got[1].Bookings != 0 {
		t.Errorf("cancelled booking counted for tom: %+v", got[1])
	}
	if rate := RepeatRate(got); rate != 1 {
		t.Errorf("RepeatRate = %v, want 1", rate)
	}
	if RepeatRate(nil) != 0 {
		t.Error("RepeatRate(nil) should be 0")
	}
}
