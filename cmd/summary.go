package cmd

import (
	"fmt"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/store"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Revenue and booking summary for the window",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	return withData(cmd.Context(), func(_ *store.Store, data *pipeline.LoadResult) error {
		if len(data.Bookings) == 0 {
			fmt.Println("\n  No bookings yet.")
			fmt.Println("  Add one with `charterdesk bookings new` or `charterdesk import <dir>`.")
			return nil
		}

		filtered, since, until, err := applyFilters(data.Bookings)
		if err != nil {
			return err
		}
		stats := pipeline.Aggregate(filtered, since, until)
		prev := pipeline.Aggregate(filtered, since.Add(-until.Sub(since)), since)
		cur := currency()

		printTitle(fmt.Sprintf("%s  Last %dd", appCfg.Business.Name, flagDays))
		if stats.TotalBookings == 0 && stats.CancelledBookings == 0 {
			fmt.Print(cli.RenderEmpty("the selected window"))
			return nil
		}

		rows := [][]string{
			{"Bookings", cli.FormatNumber(int64(stats.TotalBookings))},
			{"Cancelled", fmt.Sprintf("%s (%s)", cli.FormatNumber(int64(stats.CancelledBookings)), cli.FormatPercent(stats.CancellationRate))},
			{"Guests", cli.FormatNumber(int64(stats.TotalGuests))},
			{"Charter nights", cli.FormatNumber(int64(stats.CharterNights))},
			{"Active boats", cli.FormatNumber(int64(stats.ActiveBoats))},
			{cli.Separator},
			{"Revenue", withDelta(stats.Revenue, prev.Revenue, cur)},
			{"Received", cli.FormatMoney(stats.AmountPaid, cur)},
			{"Outstanding", cli.FormatMoney(stats.Outstanding, cur)},
			{cli.Separator},
			{"Avg booking", withDelta(stats.AvgBookingValue, prev.AvgBookingValue, cur)},
			{"Avg guests", fmt.Sprintf("%.1f", stats.AvgGuests)},
			{"Revenue/night", cli.FormatMoney(stats.RevenuePerNight, cur)},
		}

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Metric", "Value"},
			Rows:    rows,
		}))
		return nil
	})
}

// withDelta appends the change against the previous window, when there
// was one.
func withDelta(current, previous float64, cur string) string {
	s := cli.FormatMoney(current, cur)
	if previous > 0 {
		s += fmt.Sprintf("  (%s vs prev %dd)", cli.FormatDelta(current, previous, cur), flagDays)
	}
	return s
}
