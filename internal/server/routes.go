package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/theirongolddev/charterdesk/internal/automation"
	"github.com/theirongolddev/charterdesk/internal/backend"
	"github.com/theirongolddev/charterdesk/internal/dashboard"
	"github.com/theirongolddev/charterdesk/internal/forms"
	"github.com/theirongolddev/charterdesk/internal/messages"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/store"
	"github.com/theirongolddev/charterdesk/internal/validate"
)

const maxBodySize = 1 << 20

// Handler builds the HTTP router.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Handle("/stream", s.hub)

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", s.handleListBookings)
			r.Post("/", s.handleCreateBooking)
			r.Route("/{ref}", func(r chi.Router) {
				r.Get("/", s.handleGetBooking)
				r.Delete("/", s.handleDeleteBooking)
				r.Put("/status", s.handleSetStatus)
				r.Post("/payments", s.handleRecordPayment)
				r.Get("/checklist", s.handleGetChecklist)
				r.Put("/checklist/{item}", s.handleSetChecklistItem)
				r.Get("/messages/{kind}", s.handlePreviewMessage)
			})
		})

		r.Get("/customers", s.handleListCustomers)
		r.Post("/customers", s.handleRegister)
		r.Get("/customers/{id}", s.handleGetCustomer)
		r.Get("/communications", s.handleListCommunications)
		r.Get("/reconciliation", s.handleReconciliation)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", s.handleSummary)
			r.Get("/monthly", s.handleMonthly)
			r.Get("/yoy", s.handleYearOverYear)
			r.Get("/boats", s.handleBoats)
			r.Get("/sources", s.handleSources)
			r.Get("/forecast", s.handleForecast)
		})

		r.Get("/automations", s.handleAutomationStats)
		r.Post("/automations/run", s.handleRunAutomations)

		r.Get("/dashboards", s.handleListDashboards)
		r.Get("/dashboards/{name}", s.handleRunDashboard)
	})

	if s.checkout != nil {
		r.Handle("/functions/v1/create-checkout", s.checkout)
	}
	return r
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain errors to statuses. Unexpected errors are logged
// and reported without detail.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe validate.FieldErrors
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid input", Fields: fe})
	case errors.Is(err, errBadRequest), errors.Is(err, store.ErrUnknownItem),
		errors.Is(err, dashboard.ErrInvalidView), errors.Is(err, messages.ErrUnknownTemplate):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, dashboard.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, store.ErrConflict), errors.Is(err, backend.ErrAlreadyRegistered):
		writeJSON(w, http.StatusConflict, errorBody{Error: "already exists"})
	case errors.Is(err, store.ErrReference):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, backend.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "too many requests"})
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

var errBadRequest = errors.New("bad request")

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, key)
	}
	return n, nil
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	after, err := queryInt(r, "after", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.hub.Recent(int64(after)))
}

// Bookings

func (s *Service) handleListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.store.ListBookings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	bookings = pipeline.FilterByStatus(bookings, model.BookingStatus(q.Get("status")))
	bookings = pipeline.FilterByBoat(bookings, q.Get("boat"))
	bookings = pipeline.FilterBySearch(bookings, q.Get("q"))
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (s *Service) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var e validate.Enquiry
	if err := decode(r, &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := e.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	b := forms.Booking(e)
	b.Currency = s.cfg.General.Currency
	saved, err := s.store.SaveBooking(r.Context(), b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.afterWrite(r.Context())
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Service) booking(r *http.Request) (model.Booking, error) {
	return s.store.GetBooking(r.Context(), chi.URLParam(r, "ref"))
}

func (s *Service) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := s.booking(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Service) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	b, err := s.booking(r)
	if err == nil {
		err = s.store.DeleteBooking(r.Context(), b.ID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.afterWrite(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status model.BookingStatus `json:"status"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !body.Status.Valid() {
		s.writeError(w, r, validate.FieldErrors{"status": "Unknown booking status"})
		return
	}
	b, err := s.booking(r)
	if err == nil {
		err = s.store.UpdateBookingStatus(r.Context(), b.ID, body.Status)
	}
	if err == nil {
		b, err = s.store.GetBooking(r.Context(), b.ID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.afterWrite(r.Context())
	writeJSON(w, http.StatusOK, b)
}

func (s *Service) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Amount <= 0 {
		s.writeError(w, r, validate.FieldErrors{"amount": "Amount must be positive"})
		return
	}
	b, err := s.booking(r)
	if err == nil {
		b, err = s.store.RecordPayment(r.Context(), b.ID, body.Amount)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.afterWrite(r.Context())
	writeJSON(w, http.StatusOK, b)
}

func (s *Service) handleGetChecklist(w http.ResponseWriter, r *http.Request) {
	b, err := s.booking(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cl, err := s.store.GetChecklist(r.Context(), b.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pipeline.Progress(b, cl))
}

func (s *Service) handleSetChecklistItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Done bool `json:"done"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.booking(r)
	if err == nil {
		err = s.store.SetChecklistItem(r.Context(), b.ID, chi.URLParam(r, "item"), body.Done)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cl, err := s.store.GetChecklist(r.Context(), b.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.afterWrite(r.Context())
	writeJSON(w, http.StatusOK, pipeline.Progress(b, cl))
}

type messagePreview struct {
	messages.Message
	Recipient    string `json:"recipient,omitempty"`
	WhatsAppLink string `json:"whatsapp_link,omitempty"`
}

func (s *Service) handlePreviewMessage(w http.ResponseWriter, r *http.Request) {
	b, err := s.booking(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	channel := model.Channel(r.URL.Query().Get("channel"))
	if channel == "" {
		channel = model.ChannelWhatsApp
	}
	data := messages.FromBooking(b, s.cfg.Business, s.cfg.General.Currency)
	msg, err := messages.Render(chi.URLParam(r, "kind"), channel, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := messagePreview{Message: msg, Recipient: messages.Recipient(b, channel)}
	if channel == model.ChannelWhatsApp {
		// A booking without a valid phone still gets a preview, just no link.
		out.WhatsAppLink, _ = messages.WhatsAppLink(b.GuestPhone, msg.Body)
	}
	writeJSON(w, http.StatusOK, out)
}

// Customers

func (s *Service) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	data, err := pipeline.Load(r.Context(), s.store, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats := pipeline.AggregateCustomers(data.Customers, data.Bookings, data.Communications, s.now())
	writeJSON(w, http.StatusOK, map[string]any{
		"customers":   stats,
		"repeat_rate": pipeline.RepeatRate(stats),
	})
}

func (s *Service) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bookings, err := s.store.ListCustomerBookings(r.Context(), c.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": c, "bookings": bookings})
}

// handleRegister validates a signup, creates the hosted account when one is
// configured, and records the customer.
func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg validate.Registration
	if err := decode(r, &reg); err != nil {
		s.writeError(w, r, err)
		return
	}
	reg.Phone = validate.NormalizePhone(reg.Phone)
	if err := reg.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.register(r, reg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.afterWrite(r.Context())
	writeJSON(w, http.StatusCreated, c)
}

func (s *Service) register(r *http.Request, reg validate.Registration) (model.Customer, error) {
	return RegisterCustomer(r.Context(), s.store, s.accounts, reg)
}

// RegisterCustomer creates a customer record for a validated registration.
// With accounts set, the hosted auth user is created first and its ID
// becomes the customer ID. A known email is ErrConflict.
func RegisterCustomer(ctx context.Context, st *store.Store, accounts *backend.Client, reg validate.Registration) (model.Customer, error) {
	if _, err := st.FindCustomerByEmail(ctx, reg.Email); err == nil {
		return model.Customer{}, store.ErrConflict
	} else if !errors.Is(err, store.ErrNotFound) {
		return model.Customer{}, err
	}

	c := model.Customer{
		Name:           reg.Name,
		Email:          reg.Email,
		Phone:          reg.Phone,
		Nationality:    reg.Nationality,
		MarketingOptIn: reg.MarketingOptIn,
	}
	if accounts != nil {
		user, err := accounts.SignUp(ctx, backend.SignUpRequest{
			Email:    reg.Email,
			Password: reg.Password,
			Data: map[string]any{
				"name":             reg.Name,
				"phone":            reg.Phone,
				"nationality":      reg.Nationality,
				"marketing_opt_in": reg.MarketingOptIn,
			},
		})
		if err != nil {
			return model.Customer{}, err
		}
		c.ID = user.ID
	}
	return st.SaveCustomer(ctx, c)
}

func (s *Service) handleListCommunications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	comms, err := s.store.ListCommunications(r.Context(), store.CommunicationFilter{
		BookingID:  r.URL.Query().Get("booking"),
		CustomerID: r.URL.Query().Get("customer"),
		Limit:      limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comms)
}

func (s *Service) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	within, err := queryInt(r, "within", 14)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := pipeline.Load(r.Context(), s.store, nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	blocking := pipeline.Blocking(data.Bookings, data.Checklists, s.now(), within)
	if blocking == nil {
		blocking = []model.ChecklistProgress{}
	}
	writeJSON(w, http.StatusOK, blocking)
}

// Analytics

func (s *Service) bookings(r *http.Request) ([]model.Booking, error) {
	bookings, err := s.store.ListBookings(r.Context())
	if err != nil {
		return nil, err
	}
	return pipeline.FilterByBoat(bookings, r.URL.Query().Get("boat")), nil
}

// revenueBookings narrows to the requested status, or drops cancelled
// bookings when none is given, matching the summary figures.
func revenueBookings(r *http.Request, bookings []model.Booking) []model.Booking {
	if status := r.URL.Query().Get("status"); status != "" {
		return pipeline.FilterByStatus(bookings, model.BookingStatus(status))
	}
	return pipeline.CountingBookings(bookings)
}

func (s *Service) window(r *http.Request) (since, until time.Time, err error) {
	days, err := queryInt(r, "days", s.cfg.General.DefaultDays)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	until = s.now()
	return until.AddDate(0, 0, -days), until, nil
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.bookings(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	since, until, err := s.window(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	prevSince := since.Add(-until.Sub(since))
	writeJSON(w, http.StatusOK, model.PeriodComparison{
		Current:  pipeline.Aggregate(bookings, since, until),
		Previous: pipeline.Aggregate(bookings, prevSince, since),
	})
}

func (s *Service) handleMonthly(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.bookings(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bookings = revenueBookings(r, bookings)
	if r.URL.Query().Get("seasonal") != "" {
		writeJSON(w, http.StatusOK, pipeline.AggregateCalendarMonths(bookings))
		return
	}
	writeJSON(w, http.StatusOK, pipeline.AggregateMonths(bookings))
}

func (s *Service) handleYearOverYear(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.bookings(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bookings = revenueBookings(r, bookings)
	writeJSON(w, http.StatusOK, pipeline.AggregateYearOverYear(bookings, s.now()))
}

func (s *Service) handleBoats(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.bookings(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	since, until, err := s.window(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pipeline.AggregateBoats(bookings, since, until))
}

func (s *Service) handleSources(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.bookings(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	since, until, err := s.window(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pipeline.AggregateSources(bookings, since, until))
}

func (s *Service) handleForecast(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	year, err := queryInt(r, "year", now.Year())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bookings, err := s.bookings(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	targets, err := s.store.ListTargets(r.Context(), year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pipeline.AggregateForecast(bookings, targets, year, now))
}

// Automations

func (s *Service) handleAutomationStats(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), pipeline.RecentRuns)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, automation.Stats(s.cfg.Automation, runs))
}

func (s *Service) handleRunAutomations(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "automations are not configured"})
		return
	}
	report, err := s.engine.RunOnce(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.afterWrite(r.Context())
	writeJSON(w, http.StatusOK, report)
}

// Dashboards

func (s *Service) view(name string) (dashboard.View, error) {
	if s.views != nil {
		if v, err := s.views.Get(name); err == nil {
			return v, nil
		}
	}
	for _, v := range dashboard.Defaults() {
		if v.Name == name {
			return v, nil
		}
	}
	return dashboard.View{}, fmt.Errorf("%w: %s", dashboard.ErrNotFound, name)
}

func (s *Service) handleListDashboards(w http.ResponseWriter, _ *http.Request) {
	views := dashboard.Defaults()
	if s.views != nil {
		saved := s.views.List()
		seen := make(map[string]bool, len(saved))
		for _, v := range saved {
			seen[v.Name] = true
		}
		for _, v := range views {
			if !seen[v.Name] {
				saved = append(saved, v)
			}
		}
		views = saved
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Service) handleRunDashboard(w http.ResponseWriter, r *http.Request) {
	v, err := s.view(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := dashboard.Run(r.Context(), s.store.DB(), v)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
