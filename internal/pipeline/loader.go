package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/store"
)

// Backend is the read side of the relational store used by dashboards.
type Backend interface {
	ListBookings(ctx context.Context) ([]model.Booking, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	ListChecklists(ctx context.Context) (map[string]model.Checklist, error)
	ListCommunications(ctx context.Context, f store.CommunicationFilter) ([]model.Communication, error)
	ListTargets(ctx context.Context, year int) ([]model.FinancialTarget, error)
	ListRuns(ctx context.Context, limit int) ([]model.AutomationRun, error)
}

// LoadResult holds every table a dashboard needs, fetched together.
type LoadResult struct {
	Bookings       []model.Booking
	Customers      []model.Customer
	Checklists     map[string]model.Checklist
	Communications []model.Communication
	Targets        []model.FinancialTarget
	Runs           []model.AutomationRun
	LoadedAt       time.Time
}

// ProgressFunc is called during loading to report progress.
// current is the number of tables fetched so far, total is the total count.
type ProgressFunc func(current, total int)

// RecentRuns caps how many automation runs a dashboard load pulls.
const RecentRuns = 500

// Load fetches all tables concurrently. The first failure cancels the
// remaining fetches and is returned.
func Load(ctx context.Context, be Backend, progressFn ProgressFunc) (*LoadResult, error) {
	result := &LoadResult{}
	g, ctx := errgroup.WithContext(ctx)

	const total = 6
	var done atomic.Int64
	step := func() {
		n := done.Add(1)
		if progressFn != nil {
			progressFn(int(n), total)
		}
	}

	g.Go(func() error {
		rows, err := be.ListBookings(ctx)
		if err != nil {
			return fmt.Errorf("bookings: %w", err)
		}
		result.Bookings = rows
		step()
		return nil
	})
	g.Go(func() error {
		rows, err := be.ListCustomers(ctx)
		if err != nil {
			return fmt.Errorf("customers: %w", err)
		}
		result.Customers = rows
		step()
		return nil
	})
	g.Go(func() error {
		rows, err := be.ListChecklists(ctx)
		if err != nil {
			return fmt.Errorf("checklists: %w", err)
		}
		result.Checklists = rows
		step()
		return nil
	})
	g.Go(func() error {
		rows, err := be.ListCommunications(ctx, store.CommunicationFilter{})
		if err != nil {
			return fmt.Errorf("communications: %w", err)
		}
		result.Communications = rows
		step()
		return nil
	})
	g.Go(func() error {
		rows, err := be.ListTargets(ctx, 0)
		if err != nil {
			return fmt.Errorf("targets: %w", err)
		}
		result.Targets = rows
		step()
		return nil
	})
	g.Go(func() error {
		rows, err := be.ListRuns(ctx, RecentRuns)
		if err != nil {
			return fmt.Errorf("automation runs: %w", err)
		}
		result.Runs = rows
		step()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	result.LoadedAt = time.Now()
	return result, nil
}

// CountingBookings drops cancelled bookings, for revenue views.
func CountingBookings(bookings []model.Booking) []model.Booking {
	var result []model.Booking
	for _, b := range bookings {
		if b.Counts() {
			result = append(result, b)
		}
	}
	return result
}
