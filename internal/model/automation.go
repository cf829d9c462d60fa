package model

import "time"

// Automation run outcomes.
const (
	RunSuccess = "success"
	RunFailed  = "failed"
	RunSkipped = "skipped"
)

// AutomationRun records one workflow execution against a booking.
type AutomationRun struct {
	ID        string    `json:"id,omitempty"`
	Workflow  string    `json:"workflow"`
	BookingID string    `json:"booking_id,omitempty"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	RanAt     time.Time `json:"ran_at"`
}

// WorkflowStats summarizes runs for one workflow.
type WorkflowStats struct {
	Workflow  string    `json:"workflow"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
}

// FinancialTarget is a monthly revenue goal.
type FinancialTarget struct {
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Revenue float64    `json:"revenue"`
}
