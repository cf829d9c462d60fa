// Package messages renders customer-facing WhatsApp and email templates.
package messages

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"text/template"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/validate"
)

// Template kinds.
const (
	KindConfirmation    = "confirmation"
	KindDepositReminder = "deposit_reminder"
	KindBalanceReminder = "balance_reminder"
	KindBriefing        = "pre_charter_briefing"
	KindReviewRequest   = "review_request"
)

// ErrUnknownTemplate is returned for a kind/channel pair with no template.
var ErrUnknownTemplate = errors.New("messages: unknown template")

// Data is everything a template may reference.
type Data struct {
	GuestName  string
	FirstName  string
	Reference  string
	Boat       string
	Dates      string
	StartDate  string
	Nights     int
	Guests     string
	Total      string
	Paid       string
	Balance    string
	Business   config.BusinessConfig
	PaymentURL string
	ReviewURL  string
}

// Message is a rendered template.
type Message struct {
	Kind    string        `json:"kind"`
	Channel model.Channel `json:"channel"`
	Subject string        `json:"subject,omitempty"`
	Body    string        `json:"body"`
}

type source struct {
	subject string
	body    string
}

var sources = map[model.Channel]map[string]source{
	model.ChannelWhatsApp: {
		KindConfirmation: {body: `Hi {{.FirstName}}! 🎉 Your charter on *{{.Boat}}* is confirmed.
Ref: {{.Reference}}
Dates: {{.Dates}} ({{nights .Nights}})
Guests: {{.Guests}}
Total: {{.Total}}
{{- if .PaymentURL}}
Secure your booking here: {{.PaymentURL}}{{end}}
{{sign .Business}}`},
		KindDepositReminder: {body: `Hi {{.FirstName}}, a quick reminder that the deposit for your *{{.Boat}}* charter ({{.Dates}}) is still outstanding.
{{- if .PaymentURL}}
You can pay here: {{.PaymentURL}}{{end}}
Ref: {{.Reference}}
{{sign .Business}}`},
		KindBalanceReminder: {body: `Hi {{.FirstName}}, your charter on *{{.Boat}}* starts {{.StartDate}}. The remaining balance of *{{.Balance}}* is now due.
{{- if .PaymentURL}}
Pay securely: {{.PaymentURL}}{{end}}
Ref: {{.Reference}}
{{sign .Business}}`},
		KindBriefing: {body: `Hi {{.FirstName}}! ⛵ Only a few days until you board *{{.Boat}}* on {{.StartDate}}.
{{- if .Business.Marina}}
Meeting point: {{.Business.Marina}}{{end}}
Please bring ID for all {{.Guests}} guests and let us know any dietary needs.
{{sign .Business}}`},
		KindReviewRequest: {body: `Hi {{.FirstName}}, thank you for sailing with us on *{{.Boat}}*! We'd love to hear how it went.
{{- if .ReviewURL}}
Leave a review: {{.ReviewURL}}{{end}}
{{sign .Business}}`},
	},
	model.ChannelEmail: {
		KindConfirmation: {
			subject: `Booking confirmed: {{.Boat}}, {{.Dates}} ({{.Reference}})`,
			body: `Dear {{.GuestName}},

We are delighted to confirm your charter.

  Reference: {{.Reference}}
  Yacht:     {{.Boat}}
  Dates:     {{.Dates}} ({{nights .Nights}})
  Guests:    {{.Guests}}
  Total:     {{.Total}}
  Paid:      {{.Paid}}
  Balance:   {{.Balance}}
{{if .PaymentURL}}
To complete payment please visit {{.PaymentURL}}
{{end}}
Kind regards,
{{sign .Business}}`,
		},
		KindDepositReminder: {
			subject: `Deposit reminder for {{.Reference}}`,
			body: `Dear {{.GuestName}},

Our records show the deposit for your charter aboard {{.Boat}} ({{.Dates}}) has not yet been received.
{{if .PaymentURL}}
You can pay online at {{.PaymentURL}}
{{end}}
Kind regards,
{{sign .Business}}`,
		},
		KindBalanceReminder: {
			subject: `Balance due for {{.Reference}}`,
			body: `Dear {{.GuestName}},

Your charter aboard {{.Boat}} begins on {{.StartDate}}. The outstanding balance of {{.Balance}} is now due.
{{if .PaymentURL}}
You can pay online at {{.PaymentURL}}
{{end}}
Kind regards,
{{sign .Business}}`,
		},
		KindBriefing: {
			subject: `Your charter aboard {{.Boat}} starts {{.StartDate}}`,
			body: `Dear {{.GuestName}},

We look forward to welcoming you aboard {{.Boat}} on {{.StartDate}}.
{{if .Business.Marina}}
Meeting point: {{.Business.Marina}}
{{end}}
Please bring passports or ID for all {{.Guests}} guests and send us any dietary requirements in advance.

Kind regards,
{{sign .Business}}`,
		},
		KindReviewRequest: {
			subject: `How was your time aboard {{.Boat}}?`,
			body: `Dear {{.GuestName}},

Thank you for choosing us for your charter. We would be grateful for a few words about your experience.
{{if .ReviewURL}}
{{.ReviewURL}}
{{end}}
Kind regards,
{{sign .Business}}`,
		},
	},
}

var funcs = template.FuncMap{
	"nights": cli.FormatNights,
	"sign": func(b config.BusinessConfig) string {
		parts := []string{}
		if b.SignOff != "" {
			parts = append(parts, b.SignOff)
		}
		if b.Name != "" {
			parts = append(parts, b.Name)
		}
		if b.Phone != "" {
			parts = append(parts, b.Phone)
		}
		return strings.Join(parts, "\n")
	},
}

type compiled struct {
	subject *template.Template
	body    *template.Template
}

var templates = mustCompile()

func mustCompile() map[model.Channel]map[string]compiled {
	out := make(map[model.Channel]map[string]compiled)
	for ch, kinds := range sources {
		out[ch] = make(map[string]compiled)
		for kind, sp := range kinds {
			name := string(ch) + "/" + kind
			c := compiled{
				body: template.Must(template.New(name).Funcs(funcs).Option("missingkey=error").Parse(sp.body)),
			}
			if sp.subject != "" {
				c.subject = template.Must(template.New(name + "/subject").Funcs(funcs).Parse(sp.subject))
			}
			out[ch][kind] = c
		}
	}
	return out
}

// Kinds lists every template kind, sorted.
func Kinds() []string {
	kinds := make([]string, 0, len(sources[model.ChannelEmail]))
	for k := range sources[model.ChannelEmail] {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Render executes the template for kind on channel.
func Render(kind string, channel model.Channel, data Data) (Message, error) {
	c, ok := templates[channel][kind]
	if !ok {
		return Message{}, fmt.Errorf("%w: %s/%s", ErrUnknownTemplate, channel, kind)
	}

	msg := Message{Kind: kind, Channel: channel}
	var buf bytes.Buffer
	if err := c.body.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("rendering %s/%s: %w", channel, kind, err)
	}
	msg.Body = strings.TrimSpace(buf.String())

	if c.subject != nil {
		buf.Reset()
		if err := c.subject.Execute(&buf, data); err != nil {
			return Message{}, fmt.Errorf("rendering %s/%s subject: %w", channel, kind, err)
		}
		msg.Subject = strings.TrimSpace(buf.String())
	}
	return msg, nil
}

// FromBooking fills template data from a booking.
func FromBooking(b model.Booking, business config.BusinessConfig, currency string) Data {
	if b.Currency != "" {
		currency = b.Currency
	}
	d := Data{
		GuestName: b.GuestName,
		FirstName: firstName(b.GuestName),
		Reference: b.Reference,
		Boat:      b.Boat,
		Dates:     cli.FormatDateRange(b.StartDate, b.EndDate),
		StartDate: cli.FormatDate(b.StartDate),
		Nights:    b.Nights(),
		Guests:    cli.FormatOptionalInt(b.Guests),
		Total:     cli.FormatMoney(b.Revenue(), currency),
		Paid:      cli.FormatMoney(b.AmountPaid, currency),
		Balance:   cli.FormatMoney(b.Balance(), currency),
		Business:  business,
	}
	if d.GuestName == "" {
		d.GuestName = "Guest"
		d.FirstName = "there"
	}
	return d
}

// WhatsAppLink builds a wa.me deep link that opens a chat with body
// pre-filled. It fails when phone is not a valid international number.
func WhatsAppLink(phone, body string) (string, error) {
	if !validate.Phone(phone) {
		return "", fmt.Errorf("messages: invalid phone number %q", phone)
	}
	return "https://wa.me/" + validate.PhoneDigits(phone) + "?text=" + strings.ReplaceAll(url.QueryEscape(body), "+", "%20"), nil
}

// Recipient picks the address for channel from a booking.
func Recipient(b model.Booking, channel model.Channel) string {
	if channel == model.ChannelEmail {
		return b.GuestEmail
	}
	return b.GuestPhone
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
