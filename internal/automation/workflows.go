// Package automation runs the scheduled guest-communication workflows.
package automation

import (
	"time"

	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/messages"
	"github.com/theirongolddev/charterdesk/internal/model"
)

// reviewWindowDays bounds how far back review requests reach, so enabling
// the workflow does not message every past guest.
const reviewWindowDays = 30

// Workflow is one automated message rule.
type Workflow struct {
	Name        string
	Template    string
	Description string
	Due         func(b model.Booking, now time.Time) bool
}

// Workflows returns the enabled workflows for cfg, in a fixed order.
func Workflows(cfg config.AutomationConfig) []Workflow {
	return []Workflow{
		{
			Name:        messages.KindDepositReminder,
			Template:    messages.KindDepositReminder,
			Description: "confirmed, nothing paid after the grace period",
			Due: func(b model.Booking, now time.Time) bool {
				if b.Status != model.StatusConfirmed || b.PaymentStatus != model.PaymentUnpaid || b.Revenue() <= 0 {
					return false
				}
				if b.StartDate != nil && daysBetween(now, *b.StartDate) < 0 {
					return false
				}
				return !b.CreatedAt.IsZero() && daysBetween(b.CreatedAt, now) >= cfg.DepositReminderDays
			},
		},
		{
			Name:        messages.KindBalanceReminder,
			Template:    messages.KindBalanceReminder,
			Description: "deposit paid, balance due before embarkation",
			Due: func(b model.Booking, now time.Time) bool {
				if b.Status != model.StatusConfirmed || b.PaymentStatus != model.PaymentDeposit || b.Balance() <= 0 {
					return false
				}
				return within(b.StartDate, now, cfg.BalanceDueDays)
			},
		},
		{
			Name:        messages.KindBriefing,
			Template:    messages.KindBriefing,
			Description: "charter starts soon",
			Due: func(b model.Booking, now time.Time) bool {
				return b.Status == model.StatusConfirmed && within(b.StartDate, now, cfg.BriefingDays)
			},
		},
		{
			Name:        messages.KindReviewRequest,
			Template:    messages.KindReviewRequest,
			Description: "charter completed",
			Due: func(b model.Booking, now time.Time) bool {
				if b.Status != model.StatusCompleted {
					return false
				}
				end := b.EndDate
				if end == nil {
					end = b.StartDate
				}
				if end == nil {
					return false
				}
				since := daysBetween(*end, now)
				return since >= cfg.ReviewDelayDays && since <= cfg.ReviewDelayDays+reviewWindowDays
			},
		},
	}
}

// within reports whether start falls between today and days from now.
func within(start *time.Time, now time.Time, days int) bool {
	if start == nil {
		return false
	}
	d := daysBetween(now, *start)
	return d >= 0 && d <= days
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
