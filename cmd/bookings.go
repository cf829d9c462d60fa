package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/forms"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/store"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagSearch   string
	flagUpcoming bool
	flagEnquiry  forms.EnquiryValues
)

var bookingsCmd = &cobra.Command{
	Use:     "bookings",
	Aliases: []string{"b"},
	Short:   "List and manage charter bookings",
	RunE:    runBookingsList,
}

var bookingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookings starting in the window",
	RunE:  runBookingsList,
}

var bookingsShowCmd = &cobra.Command{
	Use:   "show <reference>",
	Short: "Show one booking with its checklist and messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runBookingsShow,
}

var bookingsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Record a booking enquiry (interactive without --guest)",
	RunE:  runBookingsNew,
}

var bookingsStatusCmd = &cobra.Command{
	Use:       "status <reference> <enquiry|confirmed|completed|cancelled>",
	Short:     "Move a booking through its lifecycle",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"enquiry", "confirmed", "completed", "cancelled"},
	RunE:      runBookingsStatus,
}

var bookingsPayCmd = &cobra.Command{
	Use:   "pay <reference> <amount>",
	Short: "Record a payment against a booking",
	Args:  cobra.ExactArgs(2),
	RunE:  runBookingsPay,
}

func init() {
	for _, c := range []*cobra.Command{bookingsCmd, bookingsListCmd} {
		c.Flags().StringVar(&flagSearch, "search", "", "Match reference, guest, email or boat")
		c.Flags().BoolVar(&flagUpcoming, "upcoming", false, "Only charters starting from today")
	}

	f := bookingsNewCmd.Flags()
	f.StringVar(&flagEnquiry.GuestName, "guest", "", "Guest name")
	f.StringVar(&flagEnquiry.GuestPhone, "phone", "", "Guest phone with country code")
	f.StringVar(&flagEnquiry.GuestEmail, "email", "", "Guest email")
	f.StringVar(&flagEnquiry.Boat, "yacht", "", "Boat name")
	f.StringVar(&flagEnquiry.StartDate, "start", "", "Embark date YYYY-MM-DD")
	f.StringVar(&flagEnquiry.EndDate, "end", "", "Disembark date YYYY-MM-DD")
	f.StringVar(&flagEnquiry.Guests, "guests", "", "Number of guests")
	f.StringVar(&flagEnquiry.Total, "total", "", "Charter fee (default: quoted from fleet rates)")
	f.StringVar(&flagEnquiry.Source, "source", forms.LeadSources[0], "Lead source")
	f.StringVar(&flagEnquiry.Notes, "notes", "", "Notes")

	bookingsCmd.AddCommand(bookingsListCmd, bookingsShowCmd, bookingsNewCmd, bookingsStatusCmd, bookingsPayCmd)
	rootCmd.AddCommand(bookingsCmd)
}

func runBookingsList(cmd *cobra.Command, _ []string) error {
	return withData(cmd.Context(), func(_ *store.Store, data *pipeline.LoadResult) error {
		filtered, since, until, err := applyFilters(data.Bookings)
		if err != nil {
			return err
		}
		var rows []model.Booking
		if flagUpcoming {
			rows = pipeline.Upcoming(filtered, until, flagDays)
		} else {
			rows = pipeline.FilterByTime(filtered, since, until.AddDate(0, 0, flagDays))
		}
		rows = pipeline.FilterBySearch(rows, flagSearch)
		cur := currency()

		printTitle(fmt.Sprintf("BOOKINGS  %d", len(rows)))
		if len(rows) == 0 {
			fmt.Print(cli.RenderEmpty("the selected window"))
			return nil
		}

		out := make([][]string, 0, len(rows))
		for _, b := range rows {
			out = append(out, []string{
				b.Reference,
				cli.FormatDateRange(b.StartDate, b.EndDate),
				b.GuestName,
				b.Boat,
				cli.FormatOptionalInt(b.Guests),
				optionalMoney(b.Total, cur),
				cli.FormatMoney(b.AmountPaid, cur),
				string(b.Status),
				string(b.PaymentStatus),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Ref", "Dates", "Guest", "Boat", "Pax", "Total", "Paid", "Status", "Payment"},
			Rows:    out,
		}))
		return nil
	})
}

func optionalMoney(v *float64, cur string) string {
	if v == nil {
		return "-"
	}
	return cli.FormatMoney(*v, cur)
}

func runBookingsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	b, err := findBooking(cmd, st, args[0])
	if err != nil {
		return err
	}
	cl, err := st.GetChecklist(ctx, b.ID)
	if err != nil {
		return err
	}
	comms, err := st.ListCommunications(ctx, store.CommunicationFilter{BookingID: b.ID, Limit: 10})
	if err != nil {
		return err
	}
	cur := bookingCurrency(b)

	printTitle(b.Reference + "  " + b.GuestName)
	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Boat", b.Boat},
		{"Dates", cli.FormatDateRange(b.StartDate, b.EndDate)},
		{"Nights", strconv.Itoa(b.Nights())},
		{"Guests", cli.FormatOptionalInt(b.Guests)},
		{"Phone", orDash(b.GuestPhone)},
		{"Email", orDash(b.GuestEmail)},
		{"Source", orDash(b.Source)},
		{"Status", string(b.Status)},
		{"Total", optionalMoney(b.Total, cur)},
		{"Paid", cli.FormatMoney(b.AmountPaid, cur) + " (" + string(b.PaymentStatus) + ")"},
		{"Balance", cli.FormatMoney(b.Balance(), cur)},
	}))
	if b.Notes != "" {
		fmt.Printf("\n  %s\n", b.Notes)
	}
	fmt.Println()
	printChecklist(pipeline.Progress(b, cl))

	if len(comms) > 0 {
		rows := make([][]string, 0, len(comms))
		for _, c := range comms {
			rows = append(rows, []string{c.CreatedAt.Local().Format("2006-01-02 15:04"), string(c.Channel), c.Template, c.Status})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Messages",
			Headers: []string{"When", "Channel", "Template", "Status"},
			Rows:    rows,
		}))
	}
	return nil
}

// findBooking resolves a reference or ID, with a friendlier not-found.
func findBooking(cmd *cobra.Command, st *store.Store, ref string) (model.Booking, error) {
	b, err := st.GetBooking(cmd.Context(), strings.TrimSpace(ref))
	if errors.Is(err, store.ErrNotFound) {
		return b, fmt.Errorf("no booking %q", ref)
	}
	return b, err
}

func bookingCurrency(b model.Booking) string {
	if b.Currency != "" {
		return b.Currency
	}
	return currency()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runBookingsNew(cmd *cobra.Command, _ []string) error {
	v := flagEnquiry
	if v.GuestName == "" {
		form := forms.Enquiry(&v, fleetBoats())
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("  Cancelled.")
				return nil
			}
			return err
		}
	}

	e, err := v.Enquiry()
	if err != nil {
		return err
	}
	b := forms.Booking(e)
	b.Currency = currency()

	if b.Total == nil && b.StartDate != nil && b.EndDate != nil {
		if q, ok := config.QuoteCharter(appCfg, b.Boat, *b.StartDate, *b.EndDate); ok {
			b.Total = model.Float(q.Total)
			fmt.Printf("  Quoted %s for %s from fleet rates\n", cli.FormatMoney(q.Total, b.Currency), cli.FormatNights(q.Nights))
		}
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	saved, err := st.SaveBooking(cmd.Context(), b)
	if err != nil {
		return fmt.Errorf("saving booking: %w", err)
	}
	fmt.Printf("  Created %s for %s on %s\n", saved.Reference, saved.GuestName, saved.Boat)
	return nil
}

// fleetBoats returns configured boat names, sorted.
func fleetBoats() []string {
	boats := make([]string, 0, len(appCfg.Fleet.Boats))
	for name := range appCfg.Fleet.Boats {
		boats = append(boats, name)
	}
	sort.Strings(boats)
	return boats
}

func runBookingsStatus(cmd *cobra.Command, args []string) error {
	status := model.BookingStatus(strings.ToLower(args[1]))
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", args[1])
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
	if err := st.UpdateBookingStatus(cmd.Context(), b.ID, status); err != nil {
		return err
	}
	fmt.Printf("  %s: %s -> %s\n", b.Reference, b.Status, status)
	return nil
}

func runBookingsPay(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("amount must be a positive number, got %q", args[1])
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
	b, err = st.RecordPayment(cmd.Context(), b.ID, amount)
	if err != nil {
		return err
	}
	cur := bookingCurrency(b)
	fmt.Printf("  %s: received %s, paid %s, balance %s (%s)\n",
		b.Reference, cli.FormatMoney(amount, cur), cli.FormatMoney(b.AmountPaid, cur),
		cli.FormatMoney(b.Balance(), cur), b.PaymentStatus)
	return nil
}

// daysUntil counts calendar days from now to t, negative when past.
func daysUntil(t *time.Time, now time.Time) int {
	if t == nil {
		return 0
	}
	d0 := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	d1 := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(d1.Sub(d0).Hours() / 24)
}
