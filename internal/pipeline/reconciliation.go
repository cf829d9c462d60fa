package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/charterdesk/internal/model"
)

// Progress computes per-group and overall completion for one checklist.
// An empty group reports zero percent.
func Progress(b model.Booking, cl model.Checklist) model.ChecklistProgress {
	p := model.ChecklistProgress{Booking: b}
	groups := make(map[model.ChecklistGroup]*model.GroupProgress)
	for _, g := range model.ChecklistGroups {
		gp := &model.GroupProgress{Group: g}
		groups[g] = gp
	}

	for _, it := range model.ChecklistItems {
		gp := groups[it.Group]
		gp.Total++
		p.Total++
		if cl.Done[it.Key] {
			gp.Done++
			p.Done++
			continue
		}
		p.Missing = append(p.Missing, it)
	}

	for _, g := range model.ChecklistGroups {
		gp := groups[g]
		if gp.Total > 0 {
			gp.Percent = float64(gp.Done) / float64(gp.Total) * 100
		}
		p.Groups = append(p.Groups, *gp)
	}
	if p.Total > 0 {
		p.Percent = float64(p.Done) / float64(p.Total) * 100
	}
	return p
}

// Reconciliation returns checklist progress for every confirmed or completed
// booking, soonest charter first.
func Reconciliation(bookings []model.Booking, checklists map[string]model.Checklist) []model.ChecklistProgress {
	var out []model.ChecklistProgress
	for _, b := range bookings {
		if b.Status != model.StatusConfirmed && b.Status != model.StatusCompleted {
			continue
		}
		cl, ok := checklists[b.ID]
		if !ok {
			cl = model.NewChecklist(b.ID)
		}
		out = append(out, Progress(b, cl))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return startBefore(out[i].Booking, out[j].Booking)
	})
	return out
}

// Blocking lists confirmed charters starting within [now, now+withinDays]
// whose checklist is incomplete, soonest first. Security deposit return is
// a post-charter item and does not block departure.
func Blocking(bookings []model.Booking, checklists map[string]model.Checklist, now time.Time, withinDays int) []model.ChecklistProgress {
	today := truncateDay(now)
	horizon := today.AddDate(0, 0, withinDays)

	var out []model.ChecklistProgress
	for _, b := range bookings {
		if b.Status != model.StatusConfirmed || b.StartDate == nil {
			continue
		}
		if b.StartDate.Before(today) || b.StartDate.After(horizon) {
			continue
		}
		p := Progress(b, checklists[b.ID])
		var missing []model.ChecklistItem
		for _, it := range p.Missing {
			if it.Key != "security_deposit_returned" {
				missing = append(missing, it)
			}
		}
		if len(missing) == 0 {
			continue
		}
		p.Missing = missing
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return startBefore(out[i].Booking, out[j].Booking)
	})
	return out
}

// Upcoming returns confirmed charters starting in [now, now+days], and
// charters in progress, soonest first.
func Upcoming(bookings []model.Booking, now time.Time, days int) []model.Booking {
	today := truncateDay(now)
	horizon := today.AddDate(0, 0, days)

	var out []model.Booking
	for _, b := range bookings {
		if b.Status != model.StatusConfirmed || b.StartDate == nil {
			continue
		}
		inProgress := b.EndDate != nil && !b.StartDate.After(today) && !b.EndDate.Before(today)
		if inProgress || (!b.StartDate.Before(today) && !b.StartDate.After(horizon)) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return startBefore(out[i], out[j]) })
	return out
}

func startBefore(a, b model.Booking) bool {
	switch {
	case a.StartDate == nil:
		return false
	case b.StartDate == nil:
		return true
	}
	return a.StartDate.Before(*b.StartDate)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
