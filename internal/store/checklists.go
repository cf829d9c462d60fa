package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/charterdesk/internal/model"
)

type checklistRow struct {
	BookingID string `db:"booking_id"`
	Item      string `db:"item"`
	Done      int    `db:"done"`
	UpdatedAt string `db:"updated_at"`
}

// ErrUnknownItem is returned when a checklist key is not in the catalogue.
var ErrUnknownItem = errors.New("store: unknown checklist item")

// SetChecklistItem marks one reconciliation item done or not done.
func (s *Store) SetChecklistItem(ctx context.Context, bookingID, item string, done bool) error {
	if _, ok := model.LookupChecklistItem(item); !ok {
		return fmt.Errorf("%w %q", ErrUnknownItem, item)
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO checklists (booking_id, item, done, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (booking_id, item) DO UPDATE SET
			done = excluded.done,
			updated_at = excluded.updated_at`),
		bookingID, item, boolInt(done), s.stamp())
	if err != nil {
		return classify("setting checklist item", err)
	}
	return nil
}

// GetChecklist returns the checklist for one booking. Items never touched
// are reported as not done.
func (s *Store) GetChecklist(ctx context.Context, bookingID string) (model.Checklist, error) {
	var rows []checklistRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT booking_id, item, done, updated_at
		FROM checklists WHERE booking_id = ?`), bookingID)
	if err != nil {
		return model.Checklist{}, fmt.Errorf("loading checklist: %w", err)
	}
	cl := model.NewChecklist(bookingID)
	for _, r := range rows {
		cl.Done[r.Item] = r.Done != 0
		if t := parseTime(r.UpdatedAt); t.After(cl.UpdatedAt) {
			cl.UpdatedAt = t
		}
	}
	return cl, nil
}

// ListChecklists returns every stored checklist keyed by booking ID.
func (s *Store) ListChecklists(ctx context.Context) (map[string]model.Checklist, error) {
	var rows []checklistRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT booking_id, item, done, updated_at FROM checklists`); err != nil {
		return nil, fmt.Errorf("listing checklists: %w", err)
	}
	result := make(map[string]model.Checklist)
	for _, r := range rows {
		cl, ok := result[r.BookingID]
		if !ok {
			cl = model.NewChecklist(r.BookingID)
		}
		cl.Done[r.Item] = r.Done != 0
		if t := parseTime(r.UpdatedAt); t.After(cl.UpdatedAt) {
			cl.UpdatedAt = t
		}
		result[r.BookingID] = cl
	}
	return result, nil
}
