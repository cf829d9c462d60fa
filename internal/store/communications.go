package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/theirongolddev/charterdesk/internal/model"
)

type communicationRow struct {
	ID         string `db:"id"`
	BookingID  string `db:"booking_id"`
	CustomerID string `db:"customer_id"`
	Channel    string `db:"channel"`
	Template   string `db:"template"`
	Recipient  string `db:"recipient"`
	Subject    string `db:"subject"`
	Body       string `db:"body"`
	Status     string `db:"status"`
	Error      string `db:"error"`
	CreatedAt  string `db:"created_at"`
}

const communicationColumns = `id, booking_id, customer_id, channel, template, recipient, subject, body, status, error, created_at`

func (r communicationRow) toModel() model.Communication {
	return model.Communication{
		ID:         r.ID,
		BookingID:  r.BookingID,
		CustomerID: r.CustomerID,
		Channel:    model.Channel(r.Channel),
		Template:   r.Template,
		Recipient:  r.Recipient,
		Subject:    r.Subject,
		Body:       r.Body,
		Status:     r.Status,
		Error:      r.Error,
		CreatedAt:  parseTime(r.CreatedAt),
	}
}

// LogCommunication appends an entry to the communications log.
func (s *Store) LogCommunication(ctx context.Context, c model.Communication) (model.Communication, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	if c.Status == "" {
		c.Status = "drafted"
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO communications (`+communicationColumns+`)
		VALUES (:id, :booking_id, :customer_id, :channel, :template, :recipient, :subject, :body, :status, :error, :created_at)`,
		communicationRow{
			ID:         c.ID,
			BookingID:  c.BookingID,
			CustomerID: c.CustomerID,
			Channel:    string(c.Channel),
			Template:   c.Template,
			Recipient:  c.Recipient,
			Subject:    c.Subject,
			Body:       c.Body,
			Status:     c.Status,
			Error:      c.Error,
			CreatedAt:  formatTime(c.CreatedAt),
		})
	if err != nil {
		return c, classify("logging communication", err)
	}
	return c, nil
}

// CommunicationFilter narrows ListCommunications. Empty fields match all.
type CommunicationFilter struct {
	BookingID  string
	CustomerID string
	Limit      int
}

// ListCommunications returns log entries, newest first.
func (s *Store) ListCommunications(ctx context.Context, f CommunicationFilter) ([]model.Communication, error) {
	q := `SELECT ` + communicationColumns + ` FROM communications WHERE 1 = 1`
	var args []any
	if f.BookingID != "" {
		q += " AND booking_id = ?"
		args = append(args, f.BookingID)
	}
	if f.CustomerID != "" {
		q += " AND customer_id = ?"
		args = append(args, f.CustomerID)
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	var rows []communicationRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("listing communications: %w", err)
	}
	comms := make([]model.Communication, 0, len(rows))
	for _, r := range rows {
		comms = append(comms, r.toModel())
	}
	return comms, nil
}
