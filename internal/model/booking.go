// Package model defines domain types for charters, customers and reporting.
package model

import "time"

// BookingStatus is the lifecycle state of a charter booking.
type BookingStatus string

// Booking statuses.
const (
	StatusEnquiry   BookingStatus = "enquiry"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusEnquiry, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks how much of a booking has been paid.
type PaymentStatus string

// Payment statuses.
const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentDeposit  PaymentStatus = "deposit"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentDeposit, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Booking is one charter. StartDate, Guests and Total may be absent in the
// backend; absent numerics count as zero.
type Booking struct {
	ID            string        `json:"id,omitempty"`
	Reference     string        `json:"reference,omitempty"`
	CustomerID    string        `json:"customer_id,omitempty"`
	GuestName     string        `json:"guest_name"`
	GuestPhone    string        `json:"guest_phone,omitempty"`
	GuestEmail    string        `json:"guest_email,omitempty"`
	Boat          string        `json:"boat"`
	StartDate     *time.Time    `json:"start_date,omitempty"`
	EndDate       *time.Time    `json:"end_date,omitempty"`
	Guests        *int          `json:"guests,omitempty"`
	Total         *float64      `json:"total,omitempty"`
	AmountPaid    float64       `json:"amount_paid"`
	Currency      string        `json:"currency,omitempty"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Source        string        `json:"source,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Revenue returns the booking total, or zero when absent.
func (b Booking) Revenue() float64 {
	if b.Total == nil {
		return 0
	}
	return *b.Total
}

// GuestCount returns the number of guests, or zero when absent.
func (b Booking) GuestCount() int {
	if b.Guests == nil {
		return 0
	}
	return *b.Guests
}

// Balance is the amount still owed on the booking.
func (b Booking) Balance() float64 {
	if b.Status == StatusCancelled || b.PaymentStatus == PaymentRefunded {
		return 0
	}
	bal := b.Revenue() - b.AmountPaid
	if bal < 0 {
		return 0
	}
	return bal
}

// Nights returns the number of nights between start and end, or zero.
func (b Booking) Nights() int {
	if b.StartDate == nil || b.EndDate == nil {
		return 0
	}
	n := int(b.EndDate.Sub(*b.StartDate).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

// Counts reports whether the booking contributes to revenue figures.
func (b Booking) Counts() bool {
	return b.Status != StatusCancelled
}

// Float returns a pointer to v, for populating nullable fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for populating nullable fields.
func Int(v int) *int { return &v }

// Date returns a pointer to t, for populating nullable fields.
func Date(t time.Time) *time.Time { return &t }
