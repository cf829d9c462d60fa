package forms

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/validate"
)

func TestRegistrationValues(t *testing.T) {
	r, err := RegistrationValues{
		Name:            "  Ana Silva ",
		Email:           "Ana@Example.com",
		Phone:           "+351 912-345-678",
		Password:        "longenough",
		ConfirmPassword: "longenough",
	}.Registration()
	require.NoError(t, err)
	assert.Equal(t, "Ana Silva", r.Name)
	assert.Equal(t, "ana@example.com", r.Email)
	assert.Equal(t, "+351912345678", r.Phone)
}

func TestRegistrationValues_Invalid(t *testing.T) {
	_, err := RegistrationValues{Name: "", Email: "nope", Phone: "123", Password: "short"}.Registration()
	var fe validate.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "name")
	assert.Contains(t, fe, "email")
	assert.Contains(t, fe, "phone")
	assert.Contains(t, fe, "password")
}

func TestEnquiryValues(t *testing.T) {
	e, err := EnquiryValues{
		GuestName:  "Ben Ode",
		GuestPhone: "+44 7700 900123",
		Boat:       "Sea Breeze",
		StartDate:  "2024-06-01",
		EndDate:    "2024-06-08",
		Guests:     "6",
		Total:      "€7,000",
		Source:     "website",
	}.Enquiry()
	require.NoError(t, err)
	require.NotNil(t, e.Guests)
	assert.Equal(t, 6, *e.Guests)
	require.NotNil(t, e.Total)
	assert.Equal(t, 7000.0, *e.Total)

	b := Booking(e)
	assert.Equal(t, model.StatusEnquiry, b.Status)
	assert.Equal(t, "+447700900123", b.GuestPhone)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *b.StartDate)
	assert.Equal(t, 7, b.Nights())
}

func TestEnquiryValues_BlankOptionals(t *testing.T) {
	e, err := EnquiryValues{GuestName: "Cleo", Boat: "Blue Horizon"}.Enquiry()
	require.NoError(t, err)
	assert.Nil(t, e.Guests)
	assert.Nil(t, e.Total)
	b := Booking(e)
	assert.Nil(t, b.StartDate)
	assert.Equal(t, "", b.GuestPhone)
}

func TestEnquiryValues_Invalid(t *testing.T) {
	_, err := EnquiryValues{
		GuestName: "Dan",
		Boat:      "Sea Breeze",
		StartDate: "2024-06-10",
		EndDate:   "2024-06-01",
		Guests:    "six",
		Total:     "lots",
	}.Enquiry()
	var fe validate.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "guests")
	assert.Contains(t, fe, "total")
	assert.Contains(t, fe, "end_date")
}

func TestFieldValidators(t *testing.T) {
	assert.NoError(t, phone(true)(""))
	assert.Error(t, phone(false)(""))
	assert.NoError(t, phone(false)("+30 694 123 4567"))
	assert.NoError(t, email(true)(""))
	assert.Error(t, email(false)("a@b"))
	assert.NoError(t, date(""))
	assert.Error(t, date("01/06/2024"))
	assert.Error(t, count("-1"))
	assert.NoError(t, amount("1.500,00"))
	assert.Error(t, required("name")("  "))
}

func TestSetupRoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	v := SetupFrom(cfg)
	v.BusinessName = "Aegean Charters"
	v.Currency = "GBP"
	v.Days = 365
	v.Driver = "postgres"
	v.DSN = " postgres://localhost/charters "

	v.Apply(&cfg)
	assert.Equal(t, "Aegean Charters", cfg.Business.Name)
	assert.Equal(t, "GBP", cfg.General.Currency)
	assert.Equal(t, 365, cfg.General.DefaultDays)
	assert.Equal(t, "postgres", cfg.Backend.Driver)
	assert.Equal(t, "postgres://localhost/charters", cfg.Backend.DSN)
}

func TestFormsBuild(t *testing.T) {
	assert.NotNil(t, Registration(&RegistrationValues{}))
	assert.NotNil(t, Enquiry(&EnquiryValues{}, []string{"Blue Horizon"}))
	assert.NotNil(t, Enquiry(&EnquiryValues{}, nil))
	assert.NotNil(t, Setup(&SetupValues{}, []string{"flexoki-dark"}))
}
