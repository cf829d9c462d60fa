package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/validate"

	"github.com/spf13/cobra"
)

var (
	flagQuoteStart string
	flagQuoteEnd   string
)

var quoteCmd = &cobra.Command{
	Use:     "quote <boat>",
	Short:   "Price a charter from fleet day rates",
	Example: "  charterdesk quote \"Sea Breeze\" --start 2025-06-28 --end 2025-07-05",
	Args:    cobra.ExactArgs(1),
	RunE:    runQuote,
}

func init() {
	quoteCmd.Flags().StringVar(&flagQuoteStart, "start", "", "Embark date YYYY-MM-DD")
	quoteCmd.Flags().StringVar(&flagQuoteEnd, "end", "", "Disembark date YYYY-MM-DD")
	_ = quoteCmd.MarkFlagRequired("start")
	_ = quoteCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(_ *cobra.Command, args []string) error {
	start, err := validate.OptionalDate(flagQuoteStart)
	if err != nil || start == nil {
		return fmt.Errorf("--start must be YYYY-MM-DD, got %q", flagQuoteStart)
	}
	end, err := validate.OptionalDate(flagQuoteEnd)
	if err != nil || end == nil {
		return fmt.Errorf("--end must be YYYY-MM-DD, got %q", flagQuoteEnd)
	}

	q, ok := config.QuoteCharter(appCfg, args[0], *start, *end)
	if !ok {
		if _, known := config.LookupBoat(appCfg, args[0]); !known {
			boats := fleetBoats()
			if len(boats) == 0 {
				return fmt.Errorf("no day rates configured; add [fleet.boats] entries to %s", config.ConfigPath())
			}
			return fmt.Errorf("unknown boat %q (fleet: %s)", args[0], strings.Join(boats, ", "))
		}
		return fmt.Errorf("end date must be after start date")
	}
	rate, _ := config.LookupBoat(appCfg, args[0])
	cur := currency()

	printTitle(fmt.Sprintf("QUOTE  %s  %s", q.Boat, cli.FormatDateRange(start, end)))
	rows := make([][]string, 0, len(config.DefaultSeasonMultipliers)+2)
	for _, season := range []string{config.SeasonHigh, config.SeasonShoulder, config.SeasonLow} {
		n := q.BySeason[season]
		if n == 0 {
			continue
		}
		nightly := rate.DayRate * config.SeasonMultiplier(appCfg, season)
		rows = append(rows, []string{
			season,
			cli.FormatNights(n),
			cli.FormatMoney(nightly, cur),
			cli.FormatMoney(nightly*float64(n), cur),
		})
	}
	rows = append(rows, []string{cli.Separator}, []string{"Total", cli.FormatNights(q.Nights), "", cli.FormatMoney(q.Total, cur)})
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Season", "Nights", "Per night", "Subtotal"},
		Rows:    rows,
	}))
	if rate.Capacity > 0 {
		fmt.Printf("  Up to %d guests\n\n", rate.Capacity)
	}
	return nil
}
