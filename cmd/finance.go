package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagSeasonal      bool
	flagTargetYear    int
	flagTargetMonth   string
	flagTargetRevenue float64
)

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Revenue grouped by month",
	RunE:  runMonthly,
}

var yoyCmd = &cobra.Command{
	Use:   "yoy",
	Short: "Month-by-month revenue compared across years",
	RunE:  runYoY,
}

var boatsCmd = &cobra.Command{
	Use:   "boats",
	Short: "Revenue and utilisation per boat",
	RunE:  runBoats,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Lead sources and conversion",
	RunE:  runSources,
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Revenue against monthly targets",
	RunE:  runForecast,
}

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "Manage monthly revenue targets",
}

var targetsSetCmd = &cobra.Command{
	Use:     "set",
	Short:   "Set the revenue target for a month",
	Example: "  charterdesk targets set --month 2025-06 --revenue 40000",
	RunE:    runTargetsSet,
}

func init() {
	monthlyCmd.Flags().BoolVar(&flagSeasonal, "seasonal", false, "Fold all years into one Jan-Dec profile")
	forecastCmd.Flags().IntVar(&flagTargetYear, "year", 0, "Year to forecast (default current)")
	targetsSetCmd.Flags().StringVar(&flagTargetMonth, "month", "", "Month as YYYY-MM")
	targetsSetCmd.Flags().Float64Var(&flagTargetRevenue, "revenue", 0, "Revenue target")
	_ = targetsSetCmd.MarkFlagRequired("month")
	_ = targetsSetCmd.MarkFlagRequired("revenue")

	targetsCmd.AddCommand(targetsSetCmd)
	rootCmd.AddCommand(monthlyCmd, yoyCmd, boatsCmd, sourcesCmd, forecastCmd, targetsCmd)
}

// revenueBookings applies the boat filter and keeps the bookings that
// count toward revenue. An explicit --status replaces the default set.
func revenueBookings(bookings []model.Booking) ([]model.Booking, error) {
	filtered, _, _, err := applyFilters(bookings)
	if err != nil {
		return nil, err
	}
	if flagStatus != "" {
		return filtered, nil
	}
	return pipeline.CountingBookings(filtered), nil
}

func runMonthly(cmd *cobra.Command, _ []string) error {
	return withData(cmd.Context(), func(_ *store.Store, data *pipeline.LoadResult) error {
		bookings, err := revenueBookings(data.Bookings)
		if err != nil {
			return err
		}
		cur := currency()

		var months []model.MonthlyStats
		var report model.MonthlyReport
		title := "MONTHLY REVENUE"
		if flagSeasonal {
			months = pipeline.AggregateCalendarMonths(bookings)
			title = "SEASONAL PROFILE  All years"
		} else {
			report = pipeline.AggregateMonths(bookings)
			months = report.Months
		}

		printTitle(title)
		if len(months) == 0 {
			fmt.Print(cli.RenderEmpty(""))
			return nil
		}

		var total float64
		values := make([]float64, len(months))
		for i, m := range months {
			total += m.Revenue
			values[i] = m.Revenue
		}

		rows := make([][]string, 0, len(months)+2)
		for _, m := range months {
			share := 0.0
			if total > 0 {
				share = m.Revenue / total
			}
			rows = append(rows, []string{
				m.Label(),
				cli.FormatNumber(int64(m.Bookings)),
				cli.FormatNumber(int64(m.Guests)),
				cli.FormatMoney(m.Revenue, cur),
				cli.FormatMoney(m.AvgBookingValue, cur),
				cli.FormatPercent(share),
			})
		}
		rows = append(rows, []string{cli.Separator}, []string{"Total", "", "", cli.FormatMoney(total, cur), "", ""})

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Month", "Trips", "Guests", "Revenue", "Average", "Share"},
			Rows:    rows,
		}))
		fmt.Printf("  %s\n", cli.RenderSparkline(values))
		if report.UndatedBookings > 0 {
			fmt.Print(cli.RenderWarning(fmt.Sprintf("%d bookings without a start date (%s) are not grouped",
				report.UndatedBookings, cli.FormatMoney(report.UndatedRevenue, cur))))
		}
		return nil
	})
}

func runYoY(cmd *cobra.Command, _ []string) error {
	return withData(cmd.Context(), func(_ *store.Store, data *pipeline.LoadResult) error {
		bookings, err := revenueBookings(data.Bookings)
		if err != nil {
			return err
		}
		yoy := pipeline.AggregateYearOverYear(bookings, time.Now())
		cur := currency()

		printTitle("YEAR OVER YEAR")
		if yoy.Empty() {
			fmt.Print(cli.RenderEmpty(""))
			return nil
		}

		headers := []string{"Month"}
		for _, y := range yoy.Years {
			headers = append(headers, strconv.Itoa(y))
		}
		totals := make([]float64, len(yoy.Years))
		rows := make([][]string, 0, len(yoy.Rows)+2)
		for _, r := range yoy.Rows {
			row := []string{r.Month.String()[:3]}
			for i, cell := range r.Cells {
				switch {
				case cell == nil:
					row = append(row, "")
				case cell.Bookings == 0:
					row = append(row, "-")
				default:
					totals[i] += cell.Revenue
					row = append(row, cli.FormatMoney(cell.Revenue, cur))
				}
			}
			rows = append(rows, row)
		}
		totalRow := []string{"Total"}
		for _, t := range totals {
			totalRow = append(totalRow, cli.FormatMoney(t, cur))
		}
		rows = append(rows, []string{cli.Separator}, totalRow)

		fmt.Print(cli.RenderTable(cli.Table{Headers: headers, Rows: rows}))
		return nil
	})
}

func runBoats(cmd *cobra.Command, _ []string) error {
	return withData(cmd.Context(), func(_ *store.Store, data *pipeline.LoadResult) error {
		filtered, since, until, err := applyFilters(data.Bookings)
		if err != nil {
			return err
		}
		boats := pipeline.AggregateBoats(filtered, since, until)
		cur := currency()

		printTitle(fmt.Sprintf("BOATS  Last %dd", flagDays))
		if len(boats) == 0 {
			fmt.Print(cli.RenderEmpty("the selected window"))
			return nil
		}

		rows := make([][]string, 0, len(boats))
		for _, b := range boats {
			rows = append(rows, []string{
				b.Boat,
				cli.FormatNumber(int64(b.Bookings)),
				cli.FormatNumber(int64(b.Nights)),
				cli.FormatNumber(int64(b.Guests)),
				cli.FormatMoney(b.Revenue, cur),
				cli.FormatMoney(b.AvgBookingValue, cur),
				fmt.Sprintf("%.1f%%", b.SharePercent),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Boat", "Trips", "Nights", "Guests", "Revenue", "Average", "Share"},
			Rows:    rows,
		}))

		top := boats[0].Revenue
		for _, b := range boats {
			fmt.Println(cli.RenderHorizontalBar(fmt.Sprintf("%-16s", b.Boat), b.Revenue, top, 40))
		}
		fmt.Println()
		return nil
	})
}

func runSources(cmd *cobra.Command, _ []string) error {
	return withData(cmd.Context(), func(_ *store.Store, data *pipeline.LoadResult) error {
		filtered, since, until, err := applyFilters(data.Bookings)
		if err != nil {
			return err
		}
		sources := pipeline.AggregateSources(filtered, since, until)
		cur := currency()

		printTitle(fmt.Sprintf("LEAD SOURCES  Last %dd", flagDays))
		if len(sources) == 0 {
			fmt.Print(cli.RenderEmpty("the selected window"))
			return nil
		}

		rows := make([][]string, 0, len(sources))
		for _, s := range sources {
			rows = append(rows, []string{
				s.Source,
				cli.FormatNumber(int64(s.Bookings)),
				cli.FormatMoney(s.Revenue, cur),
				fmt.Sprintf("%.1f%%", s.SharePercent),
				cli.FormatPercent(s.ConversionRate),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Source", "Enquiries", "Revenue", "Share", "Converted"},
			Rows:    rows,
		}))
		return nil
	})
}

func runForecast(cmd *cobra.Command, _ []string) error {
	return withData(cmd.Context(), func(st *store.Store, data *pipeline.LoadResult) error {
		now := time.Now()
		year := flagTargetYear
		if year == 0 {
			year = now.Year()
		}
		targets := data.Targets
		if year != now.Year() {
			var err error
			if targets, err = st.ListTargets(cmd.Context(), year); err != nil {
				return err
			}
		}
		bookings, _, _, err := applyFilters(data.Bookings)
		if err != nil {
			return err
		}
		fc := pipeline.AggregateForecast(bookings, targets, year, now)
		cur := currency()

		printTitle(fmt.Sprintf("FORECAST  %d", year))
		if fc.Target == 0 {
			fmt.Print(cli.RenderEmpty("targets"))
			fmt.Println("  Set one with `charterdesk targets set --month 2025-06 --revenue 40000`.")
			fmt.Println()
			return nil
		}

		rows := make([][]string, 0, len(fc.Months)+2)
		for _, m := range fc.Months {
			if m.Target == 0 && m.Actual == 0 && m.Projected == 0 {
				continue
			}
			rows = append(rows, []string{
				m.Month.String()[:3],
				cli.FormatMoney(m.Target, cur),
				cli.FormatMoney(m.Actual, cur),
				cli.FormatMoney(m.Projected, cur),
				fmt.Sprintf("%.0f%%", m.Attainment),
			})
		}
		rows = append(rows, []string{cli.Separator}, []string{
			"Year",
			cli.FormatMoney(fc.Target, cur),
			cli.FormatMoney(fc.Actual, cur),
			cli.FormatMoney(fc.Projected, cur),
			fmt.Sprintf("%.0f%%", fc.Attainment),
		})
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Month", "Target", "Actual", "Projected", "Attained"},
			Rows:    rows,
		}))
		if fc.RemainingTo > 0 {
			fmt.Printf("  %s to go to reach the %d target\n\n", cli.FormatMoney(fc.RemainingTo, cur), year)
		}
		return nil
	})
}

func runTargetsSet(cmd *cobra.Command, _ []string) error {
	t, err := parseTarget(flagTargetMonth, flagTargetRevenue)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.SetTarget(cmd.Context(), t); err != nil {
		return fmt.Errorf("saving target: %w", err)
	}
	fmt.Printf("  Target for %s %d set to %s\n", t.Month, t.Year, cli.FormatMoney(t.Revenue, currency()))
	return nil
}

func parseTarget(month string, revenue float64) (model.FinancialTarget, error) {
	m, err := time.Parse("2006-01", strings.TrimSpace(month))
	if err != nil {
		return model.FinancialTarget{}, fmt.Errorf("month must be YYYY-MM, got %q", month)
	}
	if revenue < 0 {
		return model.FinancialTarget{}, fmt.Errorf("revenue must not be negative")
	}
	return model.FinancialTarget{Year: m.Year(), Month: m.Month(), Revenue: revenue}, nil
}
