// Package source discovers and parses booking spreadsheets for import.
package source

import "github.com/theirongolddev/charterdesk/internal/model"

// Format is the on-disk encoding of an import file.
type Format string

// Supported import formats.
const (
	FormatXLSX  Format = "xlsx"
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// RawBooking is one JSONL line in a booking export.
type RawBooking struct {
	Reference     string   `json:"reference"`
	GuestName     string   `json:"guest_name"`
	GuestPhone    string   `json:"guest_phone"`
	GuestEmail    string   `json:"guest_email"`
	Boat          string   `json:"boat"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	Guests        *int     `json:"guests"`
	Total         *float64 `json:"total"`
	AmountPaid    float64  `json:"amount_paid"`
	Currency      string   `json:"currency"`
	Status        string   `json:"status"`
	PaymentStatus string   `json:"payment_status"`
	Source        string   `json:"source"`
	Notes         string   `json:"notes"`
}

// DiscoveredFile is an import file found during directory scanning.
type DiscoveredFile struct {
	Path   string
	Name   string
	Format Format
	Size   int64
}

// ParseResult holds the bookings read from one file.
type ParseResult struct {
	File     DiscoveredFile
	Bookings []model.Booking
	// Rows that could not be turned into a booking.
	ParseErrors int
	Warnings    []string
	Err         error
}
