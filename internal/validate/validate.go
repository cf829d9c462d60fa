// Package validate checks registration and booking form input.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"
)

// phonePattern accepts international numbers: optional +, no leading zero,
// 8 to 15 digits in total.
var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

// phoneSeparators are stripped before matching.
var phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// MinPasswordLength is the shortest password the registration form accepts.
const MinPasswordLength = 8

// FieldErrors maps form field names to a user-facing message.
type FieldErrors map[string]string

// Error lists every field error in a stable order.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Err returns nil when there are no field errors.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// NormalizePhone strips separators, keeping a leading +.
func NormalizePhone(phone string) string {
	return phoneSeparators.Replace(strings.TrimSpace(phone))
}

// Phone reports whether phone is a plausible international number.
func Phone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

// PhoneDigits returns just the digits of phone, as used in wa.me links.
func PhoneDigits(phone string) string {
	return strings.TrimPrefix(NormalizePhone(phone), "+")
}

// Email reports whether email is a bare address with a dotted domain.
func Email(email string) bool {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// Registration is the customer signup form.
type Registration struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Nationality     string `json:"nationality,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	MarketingOptIn  bool   `json:"marketing_opt_in"`
}

// Validate checks every field and returns all problems at once.
func (r Registration) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(r.Name) == "" {
		fe["name"] = "Name is required"
	}
	if !Email(r.Email) {
		fe["email"] = "Enter a valid email address"
	}
	if !Phone(r.Phone) {
		fe["phone"] = "Enter a valid phone number including country code"
	}
	if len(r.Password) < MinPasswordLength {
		fe["password"] = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
	} else if r.Password != r.ConfirmPassword {
		fe["confirm_password"] = "Passwords do not match"
	}
	return fe.Err()
}

// Enquiry is the booking enquiry form. Dates are YYYY-MM-DD; empty
// optional fields stay unset on the booking.
type Enquiry struct {
	CustomerID string   `json:"customer_id,omitempty"`
	GuestName  string   `json:"guest_name"`
	GuestPhone string   `json:"guest_phone,omitempty"`
	GuestEmail string   `json:"guest_email,omitempty"`
	Boat       string   `json:"boat"`
	StartDate  string   `json:"start_date,omitempty"`
	EndDate    string   `json:"end_date,omitempty"`
	Guests     *int     `json:"guests,omitempty"`
	Total      *float64 `json:"total,omitempty"`
	Source     string   `json:"source,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Validate checks the enquiry and returns all problems at once.
func (e Enquiry) Validate() error {
	fe := FieldErrors{}
	if strings.TrimSpace(e.GuestName) == "" {
		fe["guest_name"] = "Guest name is required"
	}
	if strings.TrimSpace(e.Boat) == "" {
		fe["boat"] = "Choose a boat"
	}
	if e.GuestPhone != "" && !Phone(e.GuestPhone) {
		fe["guest_phone"] = "Enter a valid phone number including country code"
	}
	if e.GuestEmail != "" && !Email(e.GuestEmail) {
		fe["guest_email"] = "Enter a valid email address"
	}

	start, startErr := OptionalDate(e.StartDate)
	if startErr != nil {
		fe["start_date"] = "Use the format YYYY-MM-DD"
	}
	end, endErr := OptionalDate(e.EndDate)
	if endErr != nil {
		fe["end_date"] = "Use the format YYYY-MM-DD"
	}
	if start != nil && end != nil && end.Before(*start) {
		fe["end_date"] = "End date must not be before start date"
	}
	if e.Guests != nil && *e.Guests < 0 {
		fe["guests"] = "Guests must not be negative"
	}
	if e.Total != nil && *e.Total < 0 {
		fe["total"] = "Total must not be negative"
	}
	return fe.Err()
}

// OptionalDate parses a YYYY-MM-DD date; an empty string is nil, nil.
func OptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
