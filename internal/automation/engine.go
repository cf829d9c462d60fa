package automation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/messages"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/notify"
	"github.com/theirongolddev/charterdesk/internal/store"
	"github.com/theirongolddev/charterdesk/internal/validate"
)

// Store is the persistence the engine needs.
type Store interface {
	ListBookings(ctx context.Context) ([]model.Booking, error)
	CompletedRuns(ctx context.Context) (map[string]bool, error)
	SkippedRuns(ctx context.Context) (map[string]time.Time, error)
	RecordRun(ctx context.Context, r model.AutomationRun) (model.AutomationRun, error)
	LogCommunication(ctx context.Context, c model.Communication) (model.Communication, error)
}

// Notifier receives an ops alert per queued message.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

// Communication statuses written by the engine.
const (
	StatusQueued = "queued"
	StatusFailed = "failed"
)

var errNoContact = errors.New("no valid phone or email")

// Report summarizes one engine pass.
type Report struct {
	Evaluated int                   `json:"evaluated"`
	Queued    int                   `json:"queued"`
	Skipped   int                   `json:"skipped"`
	Failed    int                   `json:"failed"`
	Runs      []model.AutomationRun `json:"runs"`
}

// Engine evaluates workflows against bookings.
type Engine struct {
	store    Store
	notifier Notifier
	cfg      config.Config
	log      *zap.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine's logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log.Named("automation") }
}

// New creates an engine. notifier may be nil.
func New(st Store, notifier Notifier, cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		notifier: notifier,
		cfg:      cfg,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOnce evaluates every workflow against every booking and queues the
// messages that are due. A workflow succeeds at most once per booking and
// failed runs are retried on the next pass. A skipped run is recorded once
// and only retried after the booking is edited.
func (e *Engine) RunOnce(ctx context.Context) (Report, error) {
	var report Report
	if !e.cfg.Automation.Enabled {
		return report, nil
	}

	bookings, err := e.store.ListBookings(ctx)
	if err != nil {
		return report, fmt.Errorf("loading bookings: %w", err)
	}
	done, err := e.store.CompletedRuns(ctx)
	if err != nil {
		return report, fmt.Errorf("loading completed runs: %w", err)
	}
	skipped, err := e.store.SkippedRuns(ctx)
	if err != nil {
		return report, fmt.Errorf("loading skipped runs: %w", err)
	}

	now := e.now()
	for _, wf := range Workflows(e.cfg.Automation) {
		for _, b := range bookings {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			key := store.RunKey(wf.Name, b.ID)
			if done[key] || !wf.Due(b, now) {
				continue
			}
			if at, ok := skipped[key]; ok && !b.UpdatedAt.After(at) {
				continue
			}
			report.Evaluated++

			run := e.execute(ctx, wf, b)
			run, err := e.store.RecordRun(ctx, run)
			if err != nil {
				return report, fmt.Errorf("recording %s run: %w", wf.Name, err)
			}
			report.Runs = append(report.Runs, run)

			switch run.Status {
			case model.RunSuccess:
				report.Queued++
			case model.RunSkipped:
				report.Skipped++
			default:
				report.Failed++
			}
		}
	}

	if report.Evaluated > 0 {
		e.log.Info("automation pass complete",
			zap.Int("queued", report.Queued),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed))
	}
	return report, nil
}

func (e *Engine) execute(ctx context.Context, wf Workflow, b model.Booking) model.AutomationRun {
	run := model.AutomationRun{Workflow: wf.Name, BookingID: b.ID, RanAt: e.now().UTC()}

	channel, recipient, err := pickChannel(b)
	if err != nil {
		run.Status = model.RunSkipped
		run.Detail = err.Error()
		return run
	}

	data := messages.FromBooking(b, e.cfg.Business, e.cfg.General.Currency)
	msg, err := messages.Render(wf.Template, channel, data)
	if err != nil {
		run.Status = model.RunFailed
		run.Detail = err.Error()
		e.log.Error("rendering message", zap.String("workflow", wf.Name), zap.String("booking", b.Reference), zap.Error(err))
		return run
	}

	comm := model.Communication{
		BookingID:  b.ID,
		CustomerID: b.CustomerID,
		Channel:    channel,
		Template:   wf.Template,
		Recipient:  recipient,
		Subject:    msg.Subject,
		Body:       msg.Body,
		Status:     StatusQueued,
	}
	var link string
	if channel == model.ChannelWhatsApp {
		link, _ = messages.WhatsAppLink(recipient, msg.Body)
	}
	if _, err := e.store.LogCommunication(ctx, comm); err != nil {
		run.Status = model.RunFailed
		run.Detail = err.Error()
		e.log.Error("logging communication", zap.String("workflow", wf.Name), zap.String("booking", b.Reference), zap.Error(err))
		return run
	}

	run.Status = model.RunSuccess
	run.Detail = fmt.Sprintf("%s to %s", channel, recipient)

	if e.notifier != nil {
		n := notify.Notification{
			Subject: fmt.Sprintf("%s queued for %s", wf.Name, b.Reference),
			Body:    alertBody(b, channel, recipient, link),
		}
		if err := e.notifier.Notify(ctx, n); err != nil {
			e.log.Warn("ops notification failed", zap.String("workflow", wf.Name), zap.Error(err))
		}
	}
	return run
}

// pickChannel prefers WhatsApp when the guest phone is valid.
func pickChannel(b model.Booking) (model.Channel, string, error) {
	if validate.Phone(b.GuestPhone) {
		return model.ChannelWhatsApp, validate.NormalizePhone(b.GuestPhone), nil
	}
	if b.GuestEmail != "" && validate.Email(b.GuestEmail) {
		return model.ChannelEmail, b.GuestEmail, nil
	}
	return "", "", errNoContact
}

func alertBody(b model.Booking, channel model.Channel, recipient, link string) string {
	body := fmt.Sprintf("%s, %s\n%s: %s", b.GuestName, b.Boat, channel, recipient)
	if link != "" {
		body += "\n" + link
	}
	return body
}

// Stats summarizes runs per workflow. Every known workflow appears, even
// with no runs.
func Stats(cfg config.AutomationConfig, runs []model.AutomationRun) []model.WorkflowStats {
	byName := make(map[string]*model.WorkflowStats)
	lastErrAt := make(map[string]time.Time)
	for _, wf := range Workflows(cfg) {
		byName[wf.Name] = &model.WorkflowStats{Workflow: wf.Name}
	}
	for _, r := range runs {
		ws, ok := byName[r.Workflow]
		if !ok {
			ws = &model.WorkflowStats{Workflow: r.Workflow}
			byName[r.Workflow] = ws
		}
		switch r.Status {
		case model.RunSuccess:
			ws.Succeeded++
		case model.RunSkipped:
			ws.Skipped++
		default:
			ws.Failed++
		}
		if r.RanAt.After(ws.LastRun) {
			ws.LastRun = r.RanAt
		}
		if r.Status == model.RunFailed && !r.RanAt.Before(lastErrAt[r.Workflow]) {
			ws.LastError = r.Detail
			lastErrAt[r.Workflow] = r.RanAt
		}
	}

	out := make([]model.WorkflowStats, 0, len(byName))
	for _, ws := range byName {
		out = append(out, *ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Workflow < out[j].Workflow })
	return out
}
