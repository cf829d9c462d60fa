package model

import "time"

// Customer is a registered charter client.
type Customer struct {
	ID             string    `json:"id,omitempty"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	Nationality    string    `json:"nationality,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	MarketingOptIn bool      `json:"marketing_opt_in"`
	CreatedAt      time.Time `json:"created_at"`
}

// Channel identifies how a message reached the customer.
type Channel string

// Message channels.
const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
	ChannelTelegram Channel = "telegram"
)

// Communication is one entry in the customer communications log.
type Communication struct {
	ID         string    `json:"id,omitempty"`
	BookingID  string    `json:"booking_id,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
	Channel    Channel   `json:"channel"`
	Template   string    `json:"template,omitempty"`
	Recipient  string    `json:"recipient,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body"`
	Status     string    `json:"status"` // drafted, sent, failed
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// CustomerStats holds CRM metrics for one customer.
type CustomerStats struct {
	Customer       Customer  `json:"customer"`
	Bookings       int       `json:"bookings"`
	LifetimeValue  float64   `json:"lifetime_value"`
	Outstanding    float64   `json:"outstanding"`
	LastCharter    time.Time `json:"last_charter"`
	NextCharter    time.Time `json:"next_charter"`
	Repeat         bool      `json:"repeat"`
	Communications int       `json:"communications"`
}
