package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/charterdesk/internal/model"
)

type runRow struct {
	ID        string `db:"id"`
	Workflow  string `db:"workflow"`
	BookingID string `db:"booking_id"`
	Status    string `db:"status"`
	Detail    string `db:"detail"`
	RanAt     string `db:"ran_at"`
}

// RecordRun appends an automation run.
func (s *Store) RecordRun(ctx context.Context, r model.AutomationRun) (model.AutomationRun, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.RanAt.IsZero() {
		r.RanAt = s.now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO automation_runs (id, workflow, booking_id, status, detail, ran_at)
		VALUES (:id, :workflow, :booking_id, :status, :detail, :ran_at)`, runRow{
		ID:        r.ID,
		Workflow:  r.Workflow,
		BookingID: r.BookingID,
		Status:    r.Status,
		Detail:    r.Detail,
		RanAt:     formatTime(r.RanAt),
	})
	if err != nil {
		return r, classify("recording run", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.AutomationRun, error) {
	q := `SELECT id, workflow, booking_id, status, detail, ran_at FROM automation_runs ORDER BY ran_at DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	runs := make([]model.AutomationRun, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, model.AutomationRun{
			ID:        r.ID,
			Workflow:  r.Workflow,
			BookingID: r.BookingID,
			Status:    r.Status,
			Detail:    r.Detail,
			RanAt:     parseTime(r.RanAt),
		})
	}
	return runs, nil
}

// CompletedRuns returns the set of "workflow/bookingID" pairs that already
// ran successfully.
func (s *Store) CompletedRuns(ctx context.Context) (map[string]bool, error) {
	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT DISTINCT workflow, booking_id
		FROM automation_runs WHERE status = ?`), model.RunSuccess)
	if err != nil {
		return nil, fmt.Errorf("listing completed runs: %w", err)
	}
	done := make(map[string]bool, len(rows))
	for _, r := range rows {
		done[RunKey(r.Workflow, r.BookingID)] = true
	}
	return done, nil
}

// SkippedRuns returns, per "workflow/bookingID" pair, when it was last
// skipped.
func (s *Store) SkippedRuns(ctx context.Context) (map[string]time.Time, error) {
	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT workflow, booking_id, ran_at
		FROM automation_runs WHERE status = ?`), model.RunSkipped)
	if err != nil {
		return nil, fmt.Errorf("listing skipped runs: %w", err)
	}
	last := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		key := RunKey(r.Workflow, r.BookingID)
		if at := parseTime(r.RanAt); at.After(last[key]) {
			last[key] = at
		}
	}
	return last, nil
}

// RunKey identifies one workflow applied to one booking.
func RunKey(workflow, bookingID string) string {
	return workflow + "/" + bookingID
}
