package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/theirongolddev/charterdesk/internal/model"
)

type customerRow struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	Email          string `db:"email"`
	Phone          string `db:"phone"`
	Nationality    string `db:"nationality"`
	Notes          string `db:"notes"`
	MarketingOptIn int    `db:"marketing_opt_in"`
	CreatedAt      string `db:"created_at"`
}

const customerColumns = `id, name, email, phone, nationality, notes, marketing_opt_in, created_at`

func (r customerRow) toModel() model.Customer {
	return model.Customer{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		Phone:          r.Phone,
		Nationality:    r.Nationality,
		Notes:          r.Notes,
		MarketingOptIn: r.MarketingOptIn != 0,
		CreatedAt:      parseTime(r.CreatedAt),
	}
}

// SaveCustomer inserts or updates a customer. Emails are stored lowercased
// and must be unique; a duplicate returns ErrConflict.
func (s *Store) SaveCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))

	_, err := s.db.NamedExecContext(ctx, `INSERT INTO customers (`+customerColumns+`)
		VALUES (:id, :name, :email, :phone, :nationality, :notes, :marketing_opt_in, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			nationality = excluded.nationality,
			notes = excluded.notes,
			marketing_opt_in = excluded.marketing_opt_in`, customerRow{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Nationality:    c.Nationality,
		Notes:          c.Notes,
		MarketingOptIn: boolInt(c.MarketingOptIn),
		CreatedAt:      formatTime(c.CreatedAt),
	})
	if err != nil {
		return c, classify("saving customer", err)
	}
	return c, nil
}

// GetCustomer returns a customer by ID.
func (s *Store) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	return s.getCustomer(ctx, "id = ?", id)
}

// FindCustomerByEmail returns the customer registered with email.
func (s *Store) FindCustomerByEmail(ctx context.Context, email string) (model.Customer, error) {
	return s.getCustomer(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) getCustomer(ctx context.Context, where string, arg any) (model.Customer, error) {
	var r customerRow
	err := s.db.GetContext(ctx, &r, s.db.Rebind(`SELECT `+customerColumns+` FROM customers WHERE `+where), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Customer{}, ErrNotFound
	}
	if err != nil {
		return model.Customer{}, fmt.Errorf("loading customer: %w", err)
	}
	return r.toModel(), nil
}

// ListCustomers returns all customers ordered by name.
func (s *Store) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	var rows []customerRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+customerColumns+` FROM customers ORDER BY name`); err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	customers := make([]model.Customer, 0, len(rows))
	for _, r := range rows {
		customers = append(customers, r.toModel())
	}
	return customers, nil
}
