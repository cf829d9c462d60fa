package model

import "time"

// ChecklistGroup groups reconciliation items by phase.
type ChecklistGroup string

// Checklist groups.
const (
	GroupPreparation ChecklistGroup = "preparation"
	GroupPayment     ChecklistGroup = "payment"
	GroupDeparture   ChecklistGroup = "departure"
)

// ChecklistItem describes one reconciliation flag.
type ChecklistItem struct {
	Key   string         `json:"key"`
	Label string         `json:"label"`
	Group ChecklistGroup `json:"group"`
}

// ChecklistItems is the fixed reconciliation catalogue, in display order.
var ChecklistItems = []ChecklistItem{
	{Key: "contract_signed", Label: "Contract signed", Group: GroupPreparation},
	{Key: "preference_sheet", Label: "Preference sheet received", Group: GroupPreparation},
	{Key: "crew_briefed", Label: "Crew briefed", Group: GroupPreparation},
	{Key: "provisioning_ordered", Label: "Provisioning ordered", Group: GroupPreparation},
	{Key: "deposit_received", Label: "Deposit received", Group: GroupPayment},
	{Key: "balance_received", Label: "Balance received", Group: GroupPayment},
	{Key: "apa_received", Label: "APA received", Group: GroupPayment},
	{Key: "security_deposit_returned", Label: "Security deposit returned", Group: GroupPayment},
	{Key: "crew_list_submitted", Label: "Crew list submitted", Group: GroupDeparture},
	{Key: "cruising_permit", Label: "Cruising permit", Group: GroupDeparture},
	{Key: "port_clearance", Label: "Port clearance", Group: GroupDeparture},
	{Key: "safety_briefing", Label: "Safety briefing", Group: GroupDeparture},
}

// ChecklistGroups lists groups in display order.
var ChecklistGroups = []ChecklistGroup{GroupPreparation, GroupPayment, GroupDeparture}

// LookupChecklistItem returns the catalogue entry for key.
func LookupChecklistItem(key string) (ChecklistItem, bool) {
	for _, it := range ChecklistItems {
		if it.Key == key {
			return it, true
		}
	}
	return ChecklistItem{}, false
}

// Checklist holds the reconciliation flags for one booking.
type Checklist struct {
	BookingID string          `json:"booking_id,omitempty"`
	Done      map[string]bool `json:"done"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewChecklist returns an empty checklist for a booking.
func NewChecklist(bookingID string) Checklist {
	return Checklist{BookingID: bookingID, Done: make(map[string]bool)}
}

// GroupProgress is completion for one checklist group.
type GroupProgress struct {
	Group   ChecklistGroup `json:"group"`
	Done    int            `json:"done"`
	Total   int            `json:"total"`
	Percent float64        `json:"percent"`
}

// ChecklistProgress summarizes a booking's reconciliation state.
type ChecklistProgress struct {
	Booking Booking         `json:"booking"`
	Groups  []GroupProgress `json:"groups"`
	Done    int             `json:"done"`
	Total   int             `json:"total"`
	Percent float64         `json:"percent"`
	Missing []ChecklistItem `json:"missing"`
}
