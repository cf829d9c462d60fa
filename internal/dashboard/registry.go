package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrNotFound is returned for an unknown view name.
var ErrNotFound = errors.New("dashboard: view not found")

const reloadDebounce = 250 * time.Millisecond

// Registry holds the views saved in a directory, one YAML file per view.
type Registry struct {
	dir string
	log *zap.Logger

	mu       sync.RWMutex
	views    map[string]View
	problems map[string]error // file name -> load error
}

// NewRegistry returns a registry over dir. Call Load to read it.
func NewRegistry(dir string, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		dir:      dir,
		log:      log.Named("dashboard"),
		views:    make(map[string]View),
		problems: make(map[string]error),
	}
}

// Dir returns the backing directory.
func (r *Registry) Dir() string { return r.dir }

// Load (re)reads every view file. Invalid files are recorded in Problems
// and skipped; a missing directory yields an empty registry.
func (r *Registry) Load() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading dashboards dir: %w", err)
	}

	views := make(map[string]View)
	problems := make(map[string]error)
	for _, e := range entries {
		if e.IsDir() || !isViewFile(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.dir, e.Name()))
		if err != nil {
			problems[e.Name()] = err
			continue
		}
		v, err := Parse(data)
		if err != nil {
			problems[e.Name()] = err
			continue
		}
		if _, dup := views[v.Name]; dup {
			problems[e.Name()] = fmt.Errorf("%w: duplicate name %q", ErrInvalidView, v.Name)
			continue
		}
		views[v.Name] = v
	}

	r.mu.Lock()
	r.views = views
	r.problems = problems
	r.mu.Unlock()

	for file, perr := range problems {
		r.log.Warn("skipping dashboard view", zap.String("file", file), zap.Error(perr))
	}
	return nil
}

// Get returns the named view.
func (r *Registry) Get(name string) (View, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[name]
	if !ok {
		return View{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return v, nil
}

// List returns all views ordered by tab then name.
func (r *Registry) List() []View {
	r.mu.RLock()
	out := make([]View, 0, len(r.views))
	for _, v := range r.views {
		out = append(out, v)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Tab != out[j].Tab {
			return out[i].Tab < out[j].Tab
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Problems returns load errors keyed by file name.
func (r *Registry) Problems() map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]error, len(r.problems))
	for k, v := range r.problems {
		out[k] = v
	}
	return out
}

// Save validates v and writes it to <dir>/<name>.yaml.
func (r *Registry) Save(v View) error {
	if err := v.Validate(); err != nil {
		return err
	}
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding view: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("creating dashboards dir: %w", err)
	}
	path := filepath.Join(r.dir, v.Name+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // view files are not secret
		return fmt.Errorf("writing view: %w", err)
	}

	r.mu.Lock()
	r.views[v.Name] = v
	r.mu.Unlock()
	return nil
}

// Delete removes the named view file.
func (r *Registry) Delete(name string) error {
	if _, err := r.Get(name); err != nil {
		return err
	}
	for _, ext := range []string{".yaml", ".yml"} {
		err := os.Remove(filepath.Join(r.dir, name+ext))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("deleting view: %w", err)
		}
	}
	r.mu.Lock()
	delete(r.views, name)
	r.mu.Unlock()
	return nil
}

// Watch reloads the registry whenever a view file changes, until ctx is
// canceled. Bursts of events are coalesced.
func (r *Registry) Watch(ctx context.Context) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("creating dashboards dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(r.dir); err != nil {
		return fmt.Errorf("watching %s: %w", r.dir, err)
	}
	r.log.Debug("watching dashboards", zap.String("dir", r.dir))

	ticker := time.NewTicker(reloadDebounce / 2)
	defer ticker.Stop()

	var lastEvent time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isViewFile(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				lastEvent = time.Now()
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Error("dashboard watcher", zap.Error(werr))
		case <-ticker.C:
			if lastEvent.IsZero() || time.Since(lastEvent) < reloadDebounce {
				continue
			}
			lastEvent = time.Time{}
			if err := r.Load(); err != nil {
				r.log.Error("reloading dashboards", zap.Error(err))
				continue
			}
			r.log.Info("dashboards reloaded", zap.Int("views", len(r.List())))
		}
	}
}

func isViewFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	return ext == ".yaml" || ext == ".yml"
}

// Defaults returns the starter views written by setup.
func Defaults() []View {
	return []View{
		{
			Name:    "upcoming-charters",
			Title:   "Upcoming charters",
			Tab:     "board",
			Source:  "bookings",
			Columns: []string{"reference", "guest_name", "boat", "start_date", "end_date", "guests", "status", "payment_status"},
			Filters: []Filter{{Field: "status", Op: OpEq, Value: "confirmed"}, {Field: "start_date", Op: OpNotNull}},
			Sort:    []Sort{{Field: "start_date"}},
			Limit:   50,
		},
		{
			Name:       "revenue-by-boat",
			Title:      "Revenue by boat",
			Tab:        "finance",
			Source:     "bookings",
			Filters:    []Filter{{Field: "status", Op: OpNe, Value: "cancelled"}},
			GroupBy:    []string{"boat"},
			Aggregates: []Aggregate{{Func: AggCount, As: "bookings"}, {Func: AggSum, Field: "total", As: "revenue"}},
			Sort:       []Sort{{Field: "revenue", Desc: true}},
		},
		{
			Name:       "lead-sources",
			Title:      "Lead sources",
			Tab:        "crm",
			Source:     "bookings",
			GroupBy:    []string{"source", "status"},
			Aggregates: []Aggregate{{Func: AggCount, As: "bookings"}},
			Sort:       []Sort{{Field: "bookings", Desc: true}},
		},
		{
			Name:    "failed-messages",
			Title:   "Failed messages",
			Tab:     "automations",
			Source:  "communications",
			Columns: []string{"created_at", "channel", "template", "recipient", "error"},
			Filters: []Filter{{Field: "status", Op: OpEq, Value: "failed"}},
			Sort:    []Sort{{Field: "created_at", Desc: true}},
			Limit:   100,
		},
	}
}
