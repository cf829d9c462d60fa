package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/charterdesk/internal/model"
)

// AggregateCustomers computes CRM stats per customer, highest lifetime
// value first. Bookings are matched by customer ID, falling back to the
// guest email for imported rows without one.
func AggregateCustomers(customers []model.Customer, bookings []model.Booking, comms []model.Communication, now time.Time) []model.CustomerStats {
	byID := make(map[string]*model.CustomerStats, len(customers))
	byEmail := make(map[string]*model.CustomerStats, len(customers))
	stats := make([]*model.CustomerStats, 0, len(customers))

	for _, c := range customers {
		cs := &model.CustomerStats{Customer: c}
		byID[c.ID] = cs
		if c.Email != "" {
			byEmail[strings.ToLower(c.Email)] = cs
		}
		stats = append(stats, cs)
	}

	today := truncateDay(now)
	for _, b := range bookings {
		cs, ok := byID[b.CustomerID]
		if !ok && b.GuestEmail != "" {
			cs, ok = byEmail[strings.ToLower(b.GuestEmail)]
		}
		if !ok || !b.Counts() {
			continue
		}
		cs.Bookings++
		cs.LifetimeValue += b.Revenue()
		cs.Outstanding += b.Balance()
		if b.StartDate == nil {
			continue
		}
		start := *b.StartDate
		if start.Before(today) {
			if start.After(cs.LastCharter) {
				cs.LastCharter = start
			}
		} else if cs.NextCharter.IsZero() || start.Before(cs.NextCharter) {
			cs.NextCharter = start
		}
	}

	for _, c := range comms {
		if cs, ok := byID[c.CustomerID]; ok {
			cs.Communications++
		}
	}

	out := make([]model.CustomerStats, 0, len(stats))
	for _, cs := range stats {
		cs.Repeat = cs.Bookings >= 2
		out = append(out, *cs)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LifetimeValue != out[j].LifetimeValue {
			return out[i].LifetimeValue > out[j].LifetimeValue
		}
		return out[i].Customer.Name < out[j].Customer.Name
	})
	return out
}

// RepeatRate is the share of customers with two or more charters.
func RepeatRate(stats []model.CustomerStats) float64 {
	var withBookings, repeat int
	for _, cs := range stats {
		if cs.Bookings > 0 {
			withBookings++
		}
		if cs.Repeat {
			repeat++
		}
	}
	if withBookings == 0 {
		return 0
	}
	return float64(repeat) / float64(withBookings)
}
