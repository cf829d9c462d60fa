package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/charterdesk/internal/model"
)

type targetRow struct {
	Year    int     `db:"year"`
	Month   int     `db:"month"`
	Revenue float64 `db:"revenue"`
}

// SetTarget stores the revenue target for one month.
func (s *Store) SetTarget(ctx context.Context, t model.FinancialTarget) error {
	if t.Month < time.January || t.Month > time.December {
		return fmt.Errorf("store: invalid target month %d", t.Month)
	}
	if t.Revenue < 0 {
		return errors.New("store: target revenue must not be negative")
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO financial_targets (year, month, revenue)
		VALUES (?, ?, ?)
		ON CONFLICT (year, month) DO UPDATE SET revenue = excluded.revenue`),
		t.Year, int(t.Month), t.Revenue)
	if err != nil {
		return classify("setting target", err)
	}
	return nil
}

// ListTargets returns monthly targets, optionally restricted to one year
// (year == 0 returns all).
func (s *Store) ListTargets(ctx context.Context, year int) ([]model.FinancialTarget, error) {
	q := `SELECT year, month, revenue FROM financial_targets`
	var args []any
	if year != 0 {
		q += " WHERE year = ?"
		args = append(args, year)
	}
	q += " ORDER BY year, month"

	var rows []targetRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("listing targets: %w", err)
	}
	targets := make([]model.FinancialTarget, 0, len(rows))
	for _, r := range rows {
		targets = append(targets, model.FinancialTarget{Year: r.Year, Month: time.Month(r.Month), Revenue: r.Revenue})
	}
	return targets, nil
}
