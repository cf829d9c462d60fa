package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/charterdesk/internal/model"
)

func TestProgress_Groups(t *testing.T) {
	cl := model.NewChecklist("b1")
	cl.Done["contract_signed"] = true
	cl.Done["preference_sheet"] = true
	cl.Done["deposit_received"] = true

	p := Progress(model.Booking{ID: "b1"}, cl)
	if p.Total != len(model.ChecklistItems) || p.Done != 3 {
		t.Fatalf("Done/Total = %d/%d", p.Done, p.Total)
	}
	if p.Groups[0].Group != model.GroupPreparation || p.Groups[0].Percent != 50 {
		t.Errorf("preparation = %+v", p.Groups[0])
	}
	if p.Groups[1].Percent != 25 {
		t.Errorf("payment = %+v", p.Groups[1])
	}
	if p.Groups[2].Percent != 0 {
		t.Errorf("departure = %+v", p.Groups[2])
	}
	if len(p.Missing) != p.Total-p.Done {
		t.Errorf("Missing = %d", len(p.Missing))
	}
}

func TestBlocking_WindowAndCompletion(t *testing.T) {
	now := time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)

	soon := booking(t, "2024-06-05", 1000, 2)
	soon.ID = "soon"
	later := booking(t, "2024-07-30", 1000, 2)
	later.ID = "later"
	ready := booking(t, "2024-06-03", 1000, 2)
	ready.ID = "ready"
	past := booking(t, "2024-05-20", 1000, 2)
	past.ID = "past"

	readyCL := model.NewChecklist("ready")
	for _, it := range model.ChecklistItems {
		if it.Key != "security_deposit_returned" {
			readyCL.Done[it.Key] = true
		}
	}

	got := Blocking([]model.Booking{later, soon, ready, past},
		map[string]model.Checklist{"ready": readyCL}, now, 7)
	if len(got) != 1 || got[0].Booking.ID != "soon" {
		t.Fatalf("Blocking = %+v", got)
	}
	for _, it := range got[0].Missing {
		if it.Key == "security_deposit_returned" {
			t.Error("post-charter item should not block departure")
		}
	}
}

func TestReconciliation_SkipsEnquiries(t *testing.T) {
	a := booking(t, "2024-06-05", 1, 1)
	a.ID = "a"
	b := booking(t, "2024-06-01", 1, 1)
	b.ID = "b"
	b.Status = model.StatusEnquiry
	c := booking(t, "2024-05-01", 1, 1)
	c.ID = "c"
	c.Status = model.StatusCompleted

	got := Reconciliation([]model.Booking{a, b, c}, nil)
	if len(got) != 2 || got[0].Booking.ID != "c" {
		t.Fatalf("Reconciliation = %+v", got)
	}
}

func TestUpcoming_IncludesInProgress(t *testing.T) {
	now := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	running := booking(t, "2024-06-08", 1, 1)
	running.EndDate = mustDate(t, "2024-06-12")
	next := booking(t, "2024-06-14", 1, 1)
	far := booking(t, "2024-08-01", 1, 1)

	got := Upcoming([]model.Booking{far, next, running}, now, 14)
	if len(got) != 2 || *got[0].StartDate != *running.StartDate {
		t.Fatalf("Upcoming = %+v", got)
	}
}
