// Package server provides the long-running charter desk service: the JSON
// API, the checkout function, realtime change events and the automation
// poller.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/charterdesk/internal/automation"
	"github.com/theirongolddev/charterdesk/internal/backend"
	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/dashboard"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/realtime"
	"github.com/theirongolddev/charterdesk/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Deps are the collaborators a Service runs against. Store is required;
// the rest are optional.
type Deps struct {
	Store      *store.Store
	Engine     *automation.Engine
	Dashboards *dashboard.Registry
	Accounts   *backend.Client
	Checkout   http.Handler
	Logger     *zap.Logger
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time          `json:"started_at"`
	LastPollAt      time.Time          `json:"last_poll_at"`
	PollIntervalSec int                `json:"poll_interval_sec"`
	PollCount       int64              `json:"poll_count"`
	Driver          string             `json:"driver"`
	Window          int                `json:"window_days"`
	Summary         model.SummaryStats `json:"summary"`
	LastError       string             `json:"last_error,omitempty"`
	Automation      bool               `json:"automation_enabled"`
	Accounts        bool               `json:"hosted_accounts"`
	Dashboards      int                `json:"dashboards"`
	realtime.Stats
}

// Service is the API server and background poller.
type Service struct {
	cfg      config.Config
	store    *store.Store
	engine   *automation.Engine
	views    *dashboard.Registry
	accounts *backend.Client
	checkout http.Handler
	hub      *realtime.Hub
	log      *zap.Logger
	now      func() time.Time
	interval time.Duration

	refreshMu sync.Mutex // serializes snapshot diffs

	mu         sync.RWMutex
	startedAt  time.Time
	lastPollAt time.Time
	pollCount  int64
	lastError  string
	summary    model.SummaryStats
	snapshots  map[string]realtime.Snapshot
}

// New returns a service. Poll interval and event buffer come from
// cfg.Server with the same floors the CLI enforces.
func New(cfg config.Config, deps Deps) *Service {
	interval := time.Duration(cfg.Server.PollIntervalSec) * time.Second
	if interval < 2*time.Second {
		interval = 60 * time.Second
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8787"
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		store:     deps.Store,
		engine:    deps.Engine,
		views:     deps.Dashboards,
		accounts:  deps.Accounts,
		checkout:  deps.Checkout,
		hub:       realtime.NewHub(cfg.Server.EventsBuffer),
		log:       log.Named("server"),
		now:       time.Now,
		interval:  interval,
		startedAt: time.Now(),
		snapshots: make(map[string]realtime.Snapshot),
	}
}

// Hub exposes the event hub, for in-process subscribers.
func (s *Service) Hub() *realtime.Hub { return s.hub }

// Run serves HTTP, polls the backend and watches dashboard files until ctx
// is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		s.pollLoop(ctx)
		return nil
	})
	if s.views != nil {
		g.Go(func() error {
			return s.views.Watch(ctx)
		})
	}

	s.log.Info("listening", zap.String("addr", s.cfg.Server.Addr), zap.Duration("poll", s.interval))
	return g.Wait()
}

func (s *Service) pollLoop(ctx context.Context) {
	// Seed snapshots so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

// pollOnce runs due automations, then publishes whatever changed.
func (s *Service) pollOnce(ctx context.Context) {
	if s.engine != nil {
		report, err := s.engine.RunOnce(ctx)
		if err != nil {
			s.log.Warn("automation pass failed", zap.Error(err))
		} else if report.Queued+report.Failed > 0 {
			s.hub.Publish(realtime.Event{
				Type:    "automation.run",
				Payload: report,
			})
		}
	}

	err := s.refresh(ctx)

	s.mu.Lock()
	s.lastPollAt = s.now()
	s.pollCount++
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("poll failed", zap.Error(err))
	}
}

// refresh reloads every table, publishes row changes since the previous
// refresh and updates the status summary.
func (s *Service) refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	data, err := pipeline.Load(ctx, s.store, nil)
	if err != nil {
		return err
	}

	now := s.now()
	since := now.AddDate(0, 0, -s.cfg.General.DefaultDays)
	summary := pipeline.Aggregate(data.Bookings, since, now)

	curr := snapshotTables(data)
	s.mu.Lock()
	prev := s.snapshots
	s.snapshots = curr
	s.summary = summary
	s.mu.Unlock()

	for _, table := range snapshotOrder {
		for _, ev := range realtime.Diff(table, prev[table], curr[table]) {
			s.hub.Publish(ev)
		}
	}
	return nil
}

// afterWrite refreshes so API writes reach stream subscribers without
// waiting for the next poll.
func (s *Service) afterWrite(ctx context.Context) {
	if err := s.refresh(ctx); err != nil {
		s.log.Warn("refresh after write failed", zap.Error(err))
	}
}

var snapshotOrder = []string{"bookings", "customers", "checklists", "communications", "automation_runs"}

func snapshotTables(data *pipeline.LoadResult) map[string]realtime.Snapshot {
	bookings := make(realtime.Snapshot, len(data.Bookings))
	for _, b := range data.Bookings {
		bookings[b.ID] = b.UpdatedAt
	}
	customers := make(realtime.Snapshot, len(data.Customers))
	for _, c := range data.Customers {
		customers[c.ID] = c.CreatedAt
	}
	checklists := make(realtime.Snapshot, len(data.Checklists))
	for id, cl := range data.Checklists {
		checklists[id] = cl.UpdatedAt
	}
	comms := make(realtime.Snapshot, len(data.Communications))
	for _, c := range data.Communications {
		comms[c.ID] = c.CreatedAt
	}
	runs := make(realtime.Snapshot, len(data.Runs))
	for _, r := range data.Runs {
		runs[r.ID] = r.RanAt
	}
	return map[string]realtime.Snapshot{
		"bookings":        bookings,
		"customers":       customers,
		"checklists":      checklists,
		"communications":  comms,
		"automation_runs": runs,
	}
}

func (s *Service) status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.interval.Seconds()),
		PollCount:       s.pollCount,
		Driver:          s.store.Driver(),
		Window:          s.cfg.General.DefaultDays,
		Summary:         s.summary,
		LastError:       s.lastError,
		Automation:      s.engine != nil && s.cfg.Automation.Enabled,
		Accounts:        s.accounts != nil,
		Stats:           s.hub.Stats(),
	}
	if s.views != nil {
		st.Dashboards = len(s.views.List())
	}
	return st
}
