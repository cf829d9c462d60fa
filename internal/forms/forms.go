// Package forms builds the interactive huh forms used by the CLI and TUI.
// Each form writes into a values struct whose conversion methods produce
// the validated request types.
package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/source"
	"github.com/theirongolddev/charterdesk/internal/validate"
)

// Lead sources offered on the enquiry form.
var LeadSources = []string{"direct", "website", "whatsapp", "broker", "referral", "repeat", "other"}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

func phone(optional bool) func(string) error {
	return func(s string) error {
		if optional && strings.TrimSpace(s) == "" {
			return nil
		}
		if !validate.Phone(s) {
			return errors.New("enter a phone number with country code, e.g. +30 694 123 4567")
		}
		return nil
	}
}

func email(optional bool) func(string) error {
	return func(s string) error {
		if optional && strings.TrimSpace(s) == "" {
			return nil
		}
		if !validate.Email(s) {
			return errors.New("enter a valid email address")
		}
		return nil
	}
}

func date(s string) error {
	if _, err := validate.OptionalDate(s); err != nil {
		return errors.New("use the format YYYY-MM-DD")
	}
	return nil
}

func count(s string) error {
	if _, err := optionalInt(s); err != nil {
		return errors.New("enter a whole number")
	}
	return nil
}

func amount(s string) error {
	if _, err := optionalAmount(s); err != nil {
		return errors.New("enter an amount such as 4500 or 4,500.00")
	}
	return nil
}

func optionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return &n, nil
}

func optionalAmount(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, ok := source.ParseAmount(s)
	if !ok || f < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return &f, nil
}

// RegistrationValues backs the customer registration form.
type RegistrationValues struct {
	Name            string
	Email           string
	Phone           string
	Nationality     string
	Password        string
	ConfirmPassword string
	MarketingOptIn  bool
}

// Registration returns the form request, validated.
func (v RegistrationValues) Registration() (validate.Registration, error) {
	r := validate.Registration{
		Name:            strings.TrimSpace(v.Name),
		Email:           strings.ToLower(strings.TrimSpace(v.Email)),
		Phone:           validate.NormalizePhone(v.Phone),
		Nationality:     strings.TrimSpace(v.Nationality),
		Password:        v.Password,
		ConfirmPassword: v.ConfirmPassword,
		MarketingOptIn:  v.MarketingOptIn,
	}
	return r, r.Validate()
}

// Registration builds the signup form.
func Registration(v *RegistrationValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Full name").Value(&v.Name).Validate(required("name")),
			huh.NewInput().Title("Email").Value(&v.Email).Validate(email(false)),
			huh.NewInput().Title("Phone / WhatsApp").
				Description("International format with country code").
				Value(&v.Phone).Validate(phone(false)),
			huh.NewInput().Title("Nationality").Value(&v.Nationality),
		),
		huh.NewGroup(
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).
				Value(&v.Password).
				Validate(func(s string) error {
					if len(s) < validate.MinPasswordLength {
						return fmt.Errorf("at least %d characters", validate.MinPasswordLength)
					}
					return nil
				}),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).
				Value(&v.ConfirmPassword).
				Validate(func(s string) error {
					if s != v.Password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
			huh.NewConfirm().Title("Send me offers and news?").Value(&v.MarketingOptIn),
		),
	).WithTheme(huh.ThemeCharm())
}

// EnquiryValues backs the booking enquiry form. Numeric fields are held as
// text so they can be left blank.
type EnquiryValues struct {
	GuestName  string
	GuestPhone string
	GuestEmail string
	Boat       string
	StartDate  string
	EndDate    string
	Guests     string
	Total      string
	Source     string
	Notes      string
}

// Enquiry returns the form request, validated.
func (v EnquiryValues) Enquiry() (validate.Enquiry, error) {
	e := validate.Enquiry{
		GuestName:  strings.TrimSpace(v.GuestName),
		GuestPhone: strings.TrimSpace(v.GuestPhone),
		GuestEmail: strings.ToLower(strings.TrimSpace(v.GuestEmail)),
		Boat:       strings.TrimSpace(v.Boat),
		StartDate:  strings.TrimSpace(v.StartDate),
		EndDate:    strings.TrimSpace(v.EndDate),
		Source:     v.Source,
		Notes:      strings.TrimSpace(v.Notes),
	}
	fe := validate.FieldErrors{}
	guests, err := optionalInt(v.Guests)
	if err != nil {
		fe["guests"] = "Enter a whole number"
	}
	e.Guests = guests
	total, err := optionalAmount(v.Total)
	if err != nil {
		fe["total"] = "Enter an amount"
	}
	e.Total = total

	if err := e.Validate(); err != nil {
		var ve validate.FieldErrors
		if errors.As(err, &ve) {
			for k, msg := range ve {
				fe[k] = msg
			}
		}
	}
	return e, fe.Err()
}

// Booking converts a validated enquiry into a new booking.
func Booking(e validate.Enquiry) model.Booking {
	start, _ := validate.OptionalDate(e.StartDate)
	end, _ := validate.OptionalDate(e.EndDate)
	phone := e.GuestPhone
	if phone != "" {
		phone = validate.NormalizePhone(phone)
	}
	return model.Booking{
		CustomerID: e.CustomerID,
		GuestName:  e.GuestName,
		GuestPhone: phone,
		GuestEmail: e.GuestEmail,
		Boat:       e.Boat,
		StartDate:  start,
		EndDate:    end,
		Guests:     e.Guests,
		Total:      e.Total,
		Source:     e.Source,
		Notes:      e.Notes,
		Status:     model.StatusEnquiry,
	}
}

// Enquiry builds the booking enquiry form. boats may be empty, in which
// case the boat is free text.
func Enquiry(v *EnquiryValues, boats []string) *huh.Form {
	var boatField huh.Field
	if len(boats) > 0 {
		if v.Boat == "" {
			v.Boat = boats[0]
		}
		boatField = huh.NewSelect[string]().Title("Boat").Options(huh.NewOptions(boats...)...).Value(&v.Boat)
	} else {
		boatField = huh.NewInput().Title("Boat").Value(&v.Boat).Validate(required("boat"))
	}
	if v.Source == "" {
		v.Source = LeadSources[0]
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Guest name").Value(&v.GuestName).Validate(required("guest name")),
			huh.NewInput().Title("Phone / WhatsApp").Value(&v.GuestPhone).Validate(phone(true)),
			huh.NewInput().Title("Email").Value(&v.GuestEmail).Validate(email(true)),
			huh.NewSelect[string]().Title("Lead source").Options(huh.NewOptions(LeadSources...)...).Value(&v.Source),
		),
		huh.NewGroup(
			boatField,
			huh.NewInput().Title("Embark date").Placeholder("YYYY-MM-DD").Value(&v.StartDate).Validate(date),
			huh.NewInput().Title("Disembark date").Placeholder("YYYY-MM-DD").Value(&v.EndDate).Validate(date),
			huh.NewInput().Title("Guests").Value(&v.Guests).Validate(count),
			huh.NewInput().Title("Charter fee").Value(&v.Total).Validate(amount),
			huh.NewText().Title("Notes").Value(&v.Notes),
		),
	).WithTheme(huh.ThemeCharm())
}
