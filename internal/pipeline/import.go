package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/source"
	"github.com/theirongolddev/charterdesk/internal/store"
)

// BookingWriter is the store surface an import needs.
type BookingWriter interface {
	GetBooking(ctx context.Context, idOrRef string) (model.Booking, error)
	SaveBooking(ctx context.Context, b model.Booking) (model.Booking, error)
}

// ImportResult summarizes an import run.
type ImportResult struct {
	TotalFiles  int
	ParsedFiles int
	FileErrors  int
	ParseErrors int
	Created     int
	Updated     int
	Failed      int
	Warnings    []string
}

// ImportDir parses every booking file under dir with a bounded worker pool,
// then upserts the bookings by reference. With dryRun set nothing is written
// and Created/Updated report what would have happened.
func ImportDir(ctx context.Context, dir string, w BookingWriter, dryRun bool, progressFn ProgressFunc) (*ImportResult, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &ImportResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]source.ParseResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = source.ParseFile(files[idx])
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}

	wg.Wait()

	// Apply in file order so later files override earlier ones deterministically.
	for _, pr := range results {
		if pr.Err != nil {
			result.FileErrors++
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", pr.File.Name, pr.Err))
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += pr.ParseErrors
		for _, warn := range pr.Warnings {
			result.Warnings = append(result.Warnings, pr.File.Name+": "+warn)
		}

		for _, b := range pr.Bookings {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			created, err := upsertBooking(ctx, w, b, dryRun)
			if err != nil {
				result.Failed++
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s: %v", pr.File.Name, b.Reference, err))
				continue
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
	}

	return result, nil
}

func upsertBooking(ctx context.Context, w BookingWriter, b model.Booking, dryRun bool) (bool, error) {
	created := true
	if b.Reference != "" {
		existing, err := w.GetBooking(ctx, b.Reference)
		switch {
		case err == nil:
			created = false
			b.ID = existing.ID
			b.CustomerID = existing.CustomerID
			b.CreatedAt = existing.CreatedAt
		case !errors.Is(err, store.ErrNotFound):
			return false, err
		}
	}
	if dryRun {
		return created, nil
	}
	_, err := w.SaveBooking(ctx, b)
	return created, err
}
