package messages

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/model"
)

func sampleBooking() model.Booking {
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 8, 0, 0, 0, 0, time.UTC)
	return model.Booking{
		Reference:  "CH-2024-0007",
		GuestName:  "Ana Ruiz",
		GuestPhone: "+34 612 345 678",
		GuestEmail: "ana@example.com",
		Boat:       "Sea Breeze",
		StartDate:  &start,
		EndDate:    &end,
		Guests:     model.Int(6),
		Total:      model.Float(7000),
		AmountPaid: 2000,
		Status:     model.StatusConfirmed,
	}
}

func business() config.BusinessConfig {
	return config.BusinessConfig{Name: "Blue Horizon", SignOff: "Maria & the crew", Marina: "Port Vell, Pontoon 3"}
}

func TestRender_EveryKindOnEveryChannel(t *testing.T) {
	data := FromBooking(sampleBooking(), business(), "EUR")
	for _, kind := range Kinds() {
		for _, ch := range []model.Channel{model.ChannelWhatsApp, model.ChannelEmail} {
			msg, err := Render(kind, ch, data)
			require.NoError(t, err, "%s/%s", ch, kind)
			require.NotEmpty(t, msg.Body)
			require.Contains(t, msg.Body, "Blue Horizon")
			if ch == model.ChannelEmail {
				require.NotEmpty(t, msg.Subject, kind)
			}
		}
	}
}

func TestRender_Confirmation(t *testing.T) {
	data := FromBooking(sampleBooking(), business(), "EUR")
	data.PaymentURL = "https://pay.example/abc"

	msg, err := Render(KindConfirmation, model.ChannelEmail, data)
	require.NoError(t, err)
	require.Equal(t, "Booking confirmed: Sea Breeze, 01-08 Jun 2024 (CH-2024-0007)", msg.Subject)
	require.Contains(t, msg.Body, "Dear Ana Ruiz")
	require.Contains(t, msg.Body, "€7,000")
	require.Contains(t, msg.Body, "Balance:   €5,000")
	require.Contains(t, msg.Body, "7 nights")
	require.Contains(t, msg.Body, "https://pay.example/abc")

	wa, err := Render(KindConfirmation, model.ChannelWhatsApp, data)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(wa.Body, "Hi Ana!"))
}

func TestRender_OptionalBlocksOmitted(t *testing.T) {
	b := business()
	b.Marina = ""
	msg, err := Render(KindBriefing, model.ChannelWhatsApp, FromBooking(sampleBooking(), b, "EUR"))
	require.NoError(t, err)
	require.NotContains(t, msg.Body, "Meeting point")
}

func TestRender_NullableFields(t *testing.T) {
	msg, err := Render(KindConfirmation, model.ChannelEmail, FromBooking(model.Booking{Boat: "Aurora"}, business(), "EUR"))
	require.NoError(t, err)
	require.Contains(t, msg.Body, "Dear Guest")
	require.Contains(t, msg.Body, "Total:     €0")
}

func TestRender_Unknown(t *testing.T) {
	_, err := Render("nope", model.ChannelEmail, Data{})
	require.True(t, errors.Is(err, ErrUnknownTemplate))
	_, err = Render(KindConfirmation, model.ChannelTelegram, Data{})
	require.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestWhatsAppLink(t *testing.T) {
	link, err := WhatsAppLink("+34 612-345-678", "Hi Ana & co")
	require.NoError(t, err)
	require.Equal(t, "https://wa.me/34612345678?text=Hi%20Ana%20%26%20co", link)

	_, err = WhatsAppLink("0612", "x")
	require.Error(t, err)
}

func TestRecipient(t *testing.T) {
	b := sampleBooking()
	require.Equal(t, "ana@example.com", Recipient(b, model.ChannelEmail))
	require.Equal(t, "+34 612 345 678", Recipient(b, model.ChannelWhatsApp))
}
