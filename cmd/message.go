package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/messages"
	"github.com/theirongolddev/charterdesk/internal/model"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagChannel    string
	flagLogMessage bool
	flagPaymentURL string
	flagReviewURL  string
)

var messageCmd = &cobra.Command{
	Use:     "message <reference> <kind>",
	Aliases: []string{"msg"},
	Short:   "Render a guest message template for a booking",
	Long:    "Render a guest message template. Kinds: " + strings.Join(messages.Kinds(), ", "),
	Example: "  charterdesk message CH-2025-0042 balance_reminder --channel whatsapp --log",
	Args:    cobra.ExactArgs(2),
	RunE:    runMessage,
}

func init() {
	messageCmd.Flags().StringVarP(&flagChannel, "channel", "c", string(model.ChannelWhatsApp), "whatsapp or email")
	messageCmd.Flags().BoolVar(&flagLogMessage, "log", false, "Record the message as drafted in the communications log")
	messageCmd.Flags().StringVar(&flagPaymentURL, "payment-url", "", "Payment link to include")
	messageCmd.Flags().StringVar(&flagReviewURL, "review-url", "", "Review link to include")
	rootCmd.AddCommand(messageCmd)
}

func runMessage(cmd *cobra.Command, args []string) error {
	kind := strings.ToLower(args[1])
	if !slices.Contains(messages.Kinds(), kind) {
		return fmt.Errorf("unknown template %q (kinds: %s)", args[1], strings.Join(messages.Kinds(), ", "))
	}
	channel := model.Channel(strings.ToLower(flagChannel))
	if channel != model.ChannelWhatsApp && channel != model.ChannelEmail {
		return fmt.Errorf("channel must be whatsapp or email, got %q", flagChannel)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	b, err := findBooking(cmd, st, args[0])
	if err != nil {
		return err
	}
	data := messages.FromBooking(b, appCfg.Business, currency())
	data.PaymentURL = flagPaymentURL
	data.ReviewURL = flagReviewURL

	msg, err := messages.Render(kind, channel, data)
	if err != nil {
		return err
	}
	to := messages.Recipient(b, channel)

	printTitle(fmt.Sprintf("%s  %s via %s", b.Reference, kind, channel))
	pairs := [][2]string{{"To", orDash(to)}}
	if msg.Subject != "" {
		pairs = append(pairs, [2]string{"Subject", msg.Subject})
	}
	fmt.Print(cli.RenderKeyValues(pairs))
	fmt.Println()
	for _, line := range strings.Split(msg.Body, "\n") {
		fmt.Println("  " + line)
	}
	fmt.Println()

	if channel == model.ChannelWhatsApp {
		link, err := messages.WhatsAppLink(to, msg.Body)
		if err != nil {
			fmt.Print(cli.RenderWarning("No WhatsApp link: " + err.Error()))
		} else {
			fmt.Printf("  %s\n\n", link)
		}
	}

	if flagLogMessage {
		c, err := st.LogCommunication(cmd.Context(), model.Communication{
			BookingID:  b.ID,
			CustomerID: b.CustomerID,
			Channel:    channel,
			Template:   kind,
			Recipient:  to,
			Subject:    msg.Subject,
			Body:       msg.Body,
			Status:     "drafted",
		})
		if err != nil {
			return fmt.Errorf("logging message: %w", err)
		}
		logger.Debug("message logged", zap.String("id", c.ID), zap.String("booking", b.Reference))
		fmt.Println("  Logged as drafted.")
	}
	return nil
}
