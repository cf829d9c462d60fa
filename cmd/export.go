package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/theirongolddev/charterdesk/internal/export"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/store"

	"github.com/spf13/cobra"
)

var flagOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export reports as Excel workbooks",
}

var exportFinanceCmd = &cobra.Command{
	Use:   "finance",
	Short: "Monthly, year-over-year, boat and forecast sheets",
	RunE:  runExportFinance,
}

var exportViewCmd = &cobra.Command{
	Use:   "view <name>",
	Short: "One dashboard view as a workbook",
	Args:  cobra.ExactArgs(1),
	RunE:  runExportView,
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output path (default <name>-<date>.xlsx)")
	exportCmd.AddCommand(exportFinanceCmd, exportViewCmd)
	rootCmd.AddCommand(exportCmd)
}

func outputPath(name string) string {
	if flagOutput != "" {
		return flagOutput
	}
	return filepath.Clean(fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("2006-01-02")))
}

func runExportFinance(cmd *cobra.Command, _ []string) error {
	return withData(cmd.Context(), func(_ *store.Store, data *pipeline.LoadResult) error {
		bookings, err := revenueBookings(data.Bookings)
		if err != nil {
			return err
		}
		filtered, since, until, err := applyFilters(data.Bookings)
		if err != nil {
			return err
		}
		now := time.Now()
		fc := pipeline.AggregateForecast(filtered, data.Targets, now.Year(), now)

		report := export.FinanceReport{
			Currency: currency(),
			Monthly:  pipeline.AggregateMonths(bookings),
			YoY:      pipeline.AggregateYearOverYear(bookings, now),
			Boats:    pipeline.AggregateBoats(filtered, since, until),
		}
		if fc.Target > 0 {
			report.Forecast = &fc
		}

		path := outputPath("finance")
		if err := export.WriteFile(path, func(w io.Writer) error {
			return export.FinanceWorkbook(w, report)
		}); err != nil {
			return err
		}
		fmt.Printf("  Wrote %s\n", path)
		return nil
	})
}

func runExportView(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	v, err := lookupView(reg, args[0])
	if err != nil {
		return fmt.Errorf("no view %q: see `charterdesk dashboard`", args[0])
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	res, err := runView(cmd.Context(), st, v)
	if err != nil {
		return err
	}
	path := outputPath(v.Name)
	if err := export.WriteFile(path, func(w io.Writer) error {
		return export.ViewWorkbook(w, v.DisplayTitle(), res)
	}); err != nil {
		return err
	}
	fmt.Printf("  Wrote %s (%d rows)\n", path, len(res.Rows))
	return nil
}
