package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/theirongolddev/charterdesk/internal/backend"
	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/dashboard"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/payment"
	"github.com/theirongolddev/charterdesk/internal/realtime"
	"github.com/theirongolddev/charterdesk/internal/store"
)

var testNow = time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, deps Deps) *Service {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	deps.Store = st
	deps.Logger = zap.NewNop()
	s := New(config.DefaultConfig(), deps)
	s.now = func() time.Time { return testNow }
	require.NoError(t, s.refresh(context.Background()))
	return s
}

func do(t *testing.T, s *Service, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func seed(t *testing.T, s *Service, b model.Booking) model.Booking {
	t.Helper()
	saved, err := s.store.SaveBooking(context.Background(), b)
	require.NoError(t, err)
	return saved
}

func date(y int, m time.Month, d int) *time.Time {
	return model.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func TestHealth(t *testing.T) {
	s := newTestService(t, Deps{})
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestCreateBooking_Validates(t *testing.T) {
	s := newTestService(t, Deps{})

	rec := do(t, s, http.MethodPost, "/v1/bookings", `{"boat":"Aurora","guest_phone":"12"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeJSON[errorBody](t, rec)
	assert.Contains(t, body.Fields, "guest_name")
	assert.Contains(t, body.Fields, "guest_phone")

	rec = do(t, s, http.MethodPost, "/v1/bookings", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBooking_PublishesInsert(t *testing.T) {
	s := newTestService(t, Deps{})

	rec := do(t, s, http.MethodPost, "/v1/bookings",
		`{"guest_name":"Ana Ruiz","guest_phone":"+34 612 345 678","boat":"Aurora","start_date":"2024-08-01","end_date":"2024-08-08","total":7000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	b := decodeJSON[model.Booking](t, rec)
	assert.True(t, strings.HasPrefix(b.Reference, "CH-"))
	assert.Equal(t, "+34612345678", b.GuestPhone)
	assert.Equal(t, "EUR", b.Currency)

	events := s.hub.Recent(0)
	require.Len(t, events, 1)
	assert.Equal(t, "bookings.insert", events[0].Type)
	assert.Equal(t, b.ID, events[0].Key)

	rec = do(t, s, http.MethodGet, "/v1/bookings/"+b.Reference, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodGet, "/v1/bookings/CH-1999-0001", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingLifecycle(t *testing.T) {
	s := newTestService(t, Deps{})
	b := seed(t, s, model.Booking{GuestName: "Tom", Boat: "Aurora", Total: model.Float(1000)})

	rec := do(t, s, http.MethodPut, "/v1/bookings/"+b.Reference+"/status", `{"status":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodPut, "/v1/bookings/"+b.Reference+"/status", `{"status":"confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusConfirmed, decodeJSON[model.Booking](t, rec).Status)

	rec = do(t, s, http.MethodPost, "/v1/bookings/"+b.Reference+"/payments", `{"amount":400}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PaymentDeposit, decodeJSON[model.Booking](t, rec).PaymentStatus)
	rec = do(t, s, http.MethodPost, "/v1/bookings/"+b.Reference+"/payments", `{"amount":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/v1/bookings/"+b.Reference+"/checklist/contract_signed", `{"done":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decodeJSON[model.ChecklistProgress](t, rec)
	assert.Equal(t, 1, p.Done)
	rec = do(t, s, http.MethodPut, "/v1/bookings/"+b.Reference+"/checklist/bogus", `{"done":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/v1/bookings/"+b.Reference, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, "/v1/bookings/"+b.Reference, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewMessage(t *testing.T) {
	s := newTestService(t, Deps{})
	b := seed(t, s, model.Booking{GuestName: "Ana Ruiz", GuestPhone: "+34612345678", Boat: "Aurora", StartDate: date(2024, 8, 1)})

	rec := do(t, s, http.MethodGet, "/v1/bookings/"+b.Reference+"/messages/confirmation", "")
	require.Equal(t, http.StatusOK, rec.Code)
	prev := decodeJSON[messagePreview](t, rec)
	assert.Contains(t, prev.Body, "Ana")
	assert.True(t, strings.HasPrefix(prev.WhatsAppLink, "https://wa.me/34612345678?text="))

	rec = do(t, s, http.MethodGet, "/v1/bookings/"+b.Reference+"/messages/nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonthlyAnalytics(t *testing.T) {
	s := newTestService(t, Deps{})
	seed(t, s, model.Booking{Boat: "A", StartDate: date(2024, 6, 1), Total: model.Float(1000)})
	seed(t, s, model.Booking{Boat: "A", StartDate: date(2024, 6, 15), Total: model.Float(500)})
	seed(t, s, model.Booking{Boat: "B", StartDate: date(2024, 7, 1), Total: model.Float(800)})
	seed(t, s, model.Booking{Boat: "B", StartDate: date(2024, 6, 20), Total: model.Float(9000), Status: model.StatusCancelled})

	rec := do(t, s, http.MethodGet, "/v1/analytics/monthly", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeJSON[model.MonthlyReport](t, rec)
	require.Len(t, report.Months, 2)
	assert.Equal(t, "Jun 2024", report.Months[0].Label())
	assert.InDelta(t, 1500, report.Months[0].Revenue, 1e-9)
	assert.InDelta(t, 750, report.Months[0].AvgBookingValue, 1e-9)
	assert.Equal(t, "Jul 2024", report.Months[1].Label())
	assert.InDelta(t, 800, report.Months[1].AvgBookingValue, 1e-9)
	assert.Equal(t, 2, report.Months[0].Bookings)

	rec = do(t, s, http.MethodGet, "/v1/analytics/monthly?seasonal=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	seasonal := decodeJSON[[]model.MonthlyStats](t, rec)
	require.Len(t, seasonal, 12)
	assert.InDelta(t, 1500, seasonal[time.June-1].Revenue, 1e-9)

	rec = do(t, s, http.MethodGet, "/v1/analytics/monthly?status=cancelled", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cancelled := decodeJSON[model.MonthlyReport](t, rec)
	require.Len(t, cancelled.Months, 1)
	assert.InDelta(t, 9000, cancelled.Months[0].Revenue, 1e-9)
}

func TestYearOverYearStopsAtCurrentMonth(t *testing.T) {
	s := newTestService(t, Deps{})
	seed(t, s, model.Booking{Boat: "A", StartDate: date(2023, 9, 1), Total: model.Float(900)})
	seed(t, s, model.Booking{Boat: "A", StartDate: date(2024, 6, 1), Total: model.Float(1000)})
	seed(t, s, model.Booking{Boat: "A", StartDate: date(2024, 6, 9), Total: model.Float(9000), Status: model.StatusCancelled})

	rec := do(t, s, http.MethodGet, "/v1/analytics/yoy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	yoy := decodeJSON[model.YearOverYear](t, rec)
	require.Equal(t, []int{2023, 2024}, yoy.Years)
	require.NotNil(t, yoy.Rows[time.June-1].Cells[1])
	assert.InDelta(t, 1000, yoy.Rows[time.June-1].Cells[1].Revenue, 1e-9)
	for _, row := range yoy.Rows {
		if row.Month > time.July {
			assert.Nil(t, row.Cells[1], row.Month.String())
			assert.NotNil(t, row.Cells[0])
		}
	}
}

func TestRegister_Local(t *testing.T) {
	s := newTestService(t, Deps{})
	body := `{"name":"Ana Ruiz","email":"ana@example.com","phone":"+34 612 345 678","password":"sailaway1","confirm_password":"sailaway1"}`

	rec := do(t, s, http.MethodPost, "/v1/customers", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decodeJSON[model.Customer](t, rec)
	assert.Equal(t, "+34612345678", c.Phone)

	rec = do(t, s, http.MethodPost, "/v1/customers", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, "/v1/customers", `{"name":"","email":"x","phone":"1","password":"a"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decodeJSON[errorBody](t, rec).Fields, 4)
}

func TestRegister_HostedAccount(t *testing.T) {
	var signups int
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		signups++
		_, _ = w.Write([]byte(`{"id":"user-1","email":"ana@example.com"}`))
	}))
	defer auth.Close()

	s := newTestService(t, Deps{Accounts: backend.NewClient(auth.URL, "anon")})
	rec := do(t, s, http.MethodPost, "/v1/customers",
		`{"name":"Ana Ruiz","email":"ana@example.com","phone":"+34612345678","password":"sailaway1","confirm_password":"sailaway1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "user-1", decodeJSON[model.Customer](t, rec).ID)
	assert.Equal(t, 1, signups)

	rec = do(t, s, http.MethodGet, "/v1/customers/user-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutRouteUsesGenericMessage(t *testing.T) {
	s := newTestService(t, Deps{})
	s.checkout = payment.NewHandler(payment.Config{
		Settings:  s.store,
		SecretKey: "payment_secret_key",
		Fallback:  func() string { return "" },
		Provider:  payment.NewProvider("http://127.0.0.1:1"),
	})

	rec := do(t, s, http.MethodPost, "/functions/v1/create-checkout", `{"amount":"lots"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, payment.GenericMessage, decodeJSON[map[string]string](t, rec)["error"])
}

func TestDashboards(t *testing.T) {
	reg := dashboard.NewRegistry(t.TempDir(), zap.NewNop())
	require.NoError(t, reg.Save(dashboard.View{
		Name:    "big-charters",
		Source:  "bookings",
		Columns: []string{"reference", "total"},
		Filters: []dashboard.Filter{{Field: "total", Op: dashboard.OpGte, Value: 5000}},
	}))
	s := newTestService(t, Deps{Dashboards: reg})
	seed(t, s, model.Booking{Boat: "Aurora", Total: model.Float(7000)})
	seed(t, s, model.Booking{Boat: "Aurora", Total: model.Float(1000)})
	seed(t, s, model.Booking{Boat: "Blue", Total: model.Float(2000)})

	rec := do(t, s, http.MethodGet, "/v1/dashboards", "")
	require.Equal(t, http.StatusOK, rec.Code)
	views := decodeJSON[[]dashboard.View](t, rec)
	assert.Len(t, views, len(dashboard.Defaults())+1)

	rec = do(t, s, http.MethodGet, "/v1/dashboards/big-charters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON[dashboard.Result](t, rec).Rows, 1)

	rec = do(t, s, http.MethodGet, "/v1/dashboards/revenue-by-boat", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON[dashboard.Result](t, rec).Rows, 2)

	rec = do(t, s, http.MethodGet, "/v1/dashboards/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPollPublishesChangesAndStatus(t *testing.T) {
	s := newTestService(t, Deps{})
	seed(t, s, model.Booking{Boat: "Aurora", StartDate: date(2024, 7, 1), Total: model.Float(1200)})

	s.pollOnce(context.Background())

	st := s.status()
	assert.Equal(t, int64(1), st.PollCount)
	assert.Empty(t, st.LastError)
	assert.Equal(t, 1, st.Summary.TotalBookings)
	assert.Equal(t, 1, st.Events)

	rec := do(t, s, http.MethodGet, "/v1/events?after=0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	events := decodeJSON[[]realtime.Event](t, rec)
	require.Len(t, events, 1)
	assert.Equal(t, realtime.ActionInsert, events[0].Action)

	rec = do(t, s, http.MethodGet, "/v1/events?after=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
