package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/charterdesk/internal/model"
)

type bookingRow struct {
	ID            string          `db:"id"`
	Reference     string          `db:"reference"`
	CustomerID    sql.NullString  `db:"customer_id"`
	GuestName     string          `db:"guest_name"`
	GuestPhone    string          `db:"guest_phone"`
	GuestEmail    string          `db:"guest_email"`
	Boat          string          `db:"boat"`
	StartDate     sql.NullString  `db:"start_date"`
	EndDate       sql.NullString  `db:"end_date"`
	Guests        sql.NullInt64   `db:"guests"`
	Total         sql.NullFloat64 `db:"total"`
	AmountPaid    float64         `db:"amount_paid"`
	Currency      string          `db:"currency"`
	Status        string          `db:"status"`
	PaymentStatus string          `db:"payment_status"`
	Source        string          `db:"source"`
	Notes         string          `db:"notes"`
	CreatedAt     string          `db:"created_at"`
	UpdatedAt     string          `db:"updated_at"`
}

const bookingColumns = `id, reference, customer_id, guest_name, guest_phone, guest_email, boat,
	start_date, end_date, guests, total, amount_paid, currency, status, payment_status,
	source, notes, created_at, updated_at`

func toBookingRow(b model.Booking) bookingRow {
	r := bookingRow{
		ID:            b.ID,
		Reference:     b.Reference,
		CustomerID:    sql.NullString{String: b.CustomerID, Valid: b.CustomerID != ""},
		GuestName:     b.GuestName,
		GuestPhone:    b.GuestPhone,
		GuestEmail:    b.GuestEmail,
		Boat:          b.Boat,
		AmountPaid:    b.AmountPaid,
		Currency:      b.Currency,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		Source:        b.Source,
		Notes:         b.Notes,
		CreatedAt:     formatTime(b.CreatedAt),
		UpdatedAt:     formatTime(b.UpdatedAt),
	}
	if b.StartDate != nil {
		r.StartDate = sql.NullString{String: b.StartDate.Format(dateLayout), Valid: true}
	}
	if b.EndDate != nil {
		r.EndDate = sql.NullString{String: b.EndDate.Format(dateLayout), Valid: true}
	}
	if b.Guests != nil {
		r.Guests = sql.NullInt64{Int64: int64(*b.Guests), Valid: true}
	}
	if b.Total != nil {
		r.Total = sql.NullFloat64{Float64: *b.Total, Valid: true}
	}
	return r
}

func (r bookingRow) toModel() model.Booking {
	b := model.Booking{
		ID:            r.ID,
		Reference:     r.Reference,
		CustomerID:    r.CustomerID.String,
		GuestName:     r.GuestName,
		GuestPhone:    r.GuestPhone,
		GuestEmail:    r.GuestEmail,
		Boat:          r.Boat,
		AmountPaid:    r.AmountPaid,
		Currency:      r.Currency,
		Status:        model.BookingStatus(r.Status),
		PaymentStatus: model.PaymentStatus(r.PaymentStatus),
		Source:        r.Source,
		Notes:         r.Notes,
		CreatedAt:     parseTime(r.CreatedAt),
		UpdatedAt:     parseTime(r.UpdatedAt),
	}
	if r.StartDate.Valid && r.StartDate.String != "" {
		if t, err := time.Parse(dateLayout, r.StartDate.String); err == nil {
			b.StartDate = &t
		}
	}
	if r.EndDate.Valid && r.EndDate.String != "" {
		if t, err := time.Parse(dateLayout, r.EndDate.String); err == nil {
			b.EndDate = &t
		}
	}
	if r.Guests.Valid {
		g := int(r.Guests.Int64)
		b.Guests = &g
	}
	if r.Total.Valid {
		t := r.Total.Float64
		b.Total = &t
	}
	return b
}

// SaveBooking inserts or updates a booking. A missing ID, reference,
// status or timestamp is filled in and the stored booking is returned.
func (s *Store) SaveBooking(ctx context.Context, b model.Booking) (model.Booking, error) {
	now := s.now().UTC()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = model.StatusEnquiry
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = model.PaymentUnpaid
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	if b.Reference == "" {
		year := now.Year()
		if b.StartDate != nil {
			year = b.StartDate.Year()
		}
		ref, err := s.NextReference(ctx, year)
		if err != nil {
			return b, err
		}
		b.Reference = ref
	}

	_, err := s.db.NamedExecContext(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES (:id, :reference, :customer_id, :guest_name, :guest_phone, :guest_email, :boat,
			:start_date, :end_date, :guests, :total, :amount_paid, :currency, :status, :payment_status,
			:source, :notes, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			reference = excluded.reference,
			customer_id = excluded.customer_id,
			guest_name = excluded.guest_name,
			guest_phone = excluded.guest_phone,
			guest_email = excluded.guest_email,
			boat = excluded.boat,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			guests = excluded.guests,
			total = excluded.total,
			amount_paid = excluded.amount_paid,
			currency = excluded.currency,
			status = excluded.status,
			payment_status = excluded.payment_status,
			source = excluded.source,
			notes = excluded.notes,
			updated_at = excluded.updated_at`, toBookingRow(b))
	if err != nil {
		return b, classify("saving booking", err)
	}
	return b, nil
}

// GetBooking returns a booking by ID or reference.
func (s *Store) GetBooking(ctx context.Context, idOrRef string) (model.Booking, error) {
	var r bookingRow
	err := s.db.GetContext(ctx, &r, s.db.Rebind(`SELECT `+bookingColumns+`
		FROM bookings WHERE id = ? OR reference = ?`), idOrRef, idOrRef)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("loading booking: %w", err)
	}
	return r.toModel(), nil
}

// ListBookings returns all bookings ordered by start date, undated last.
func (s *Store) ListBookings(ctx context.Context) ([]model.Booking, error) {
	var rows []bookingRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+bookingColumns+`
		FROM bookings
		ORDER BY CASE WHEN start_date IS NULL THEN 1 ELSE 0 END, start_date, reference`)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	bookings := make([]model.Booking, 0, len(rows))
	for _, r := range rows {
		bookings = append(bookings, r.toModel())
	}
	return bookings, nil
}

// ListCustomerBookings returns a customer's bookings, newest first.
func (s *Store) ListCustomerBookings(ctx context.Context, customerID string) ([]model.Booking, error) {
	var rows []bookingRow
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(`SELECT `+bookingColumns+`
		FROM bookings WHERE customer_id = ?
		ORDER BY start_date DESC`), customerID)
	if err != nil {
		return nil, fmt.Errorf("listing customer bookings: %w", err)
	}
	bookings := make([]model.Booking, 0, len(rows))
	for _, r := range rows {
		bookings = append(bookings, r.toModel())
	}
	return bookings, nil
}

// UpdateBookingStatus sets the lifecycle status of a booking.
func (s *Store) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) error {
	if !status.Valid() {
		return fmt.Errorf("store: invalid booking status %q", status)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE bookings
		SET status = ?, updated_at = ? WHERE id = ?`), string(status), s.stamp(), id)
	if err != nil {
		return classify("updating booking status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordPayment adds amount to the booking's paid total and derives the
// payment status from it.
func (s *Store) RecordPayment(ctx context.Context, id string, amount float64) (model.Booking, error) {
	if amount <= 0 {
		return model.Booking{}, fmt.Errorf("store: payment amount must be positive, got %.2f", amount)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var r bookingRow
	err = tx.GetContext(ctx, &r, tx.Rebind(`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	if err != nil {
		return model.Booking{}, fmt.Errorf("loading booking: %w", err)
	}

	b := r.toModel()
	b.AmountPaid += amount
	switch {
	case b.Total != nil && b.AmountPaid >= *b.Total:
		b.PaymentStatus = model.PaymentPaid
	default:
		b.PaymentStatus = model.PaymentDeposit
	}
	b.UpdatedAt = s.now().UTC()

	_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE bookings
		SET amount_paid = ?, payment_status = ?, updated_at = ? WHERE id = ?`),
		b.AmountPaid, string(b.PaymentStatus), formatTime(b.UpdatedAt), id)
	if err != nil {
		return model.Booking{}, classify("recording payment", err)
	}
	return b, tx.Commit()
}

// DeleteBooking removes a booking and its checklist.
func (s *Store) DeleteBooking(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM bookings WHERE id = ?"), id)
	if err != nil {
		return classify("deleting booking", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// NextReference returns the next free booking reference for a year,
// e.g. CH-2024-0007. Numbering continues after the highest existing
// suffix, so deleted or imported references are never reissued.
func (s *Store) NextReference(ctx context.Context, year int) (string, error) {
	prefix := fmt.Sprintf("CH-%04d-", year)
	var refs []string
	err := s.db.SelectContext(ctx, &refs, s.db.Rebind(
		"SELECT reference FROM bookings WHERE reference LIKE ?"), prefix+"%")
	if err != nil {
		return "", fmt.Errorf("listing references: %w", err)
	}
	highest := 0
	for _, ref := range refs {
		n, err := strconv.Atoi(strings.TrimPrefix(ref, prefix))
		if err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%04d", prefix, highest+1), nil
}
