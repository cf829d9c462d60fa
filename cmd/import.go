package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import bookings from CSV and XLSX exports",
	Long: `Scan a directory for booking spreadsheets (.csv, .xlsx) and upsert
them by reference. Rows without a reference get a new one.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Parse and report without writing")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	start := time.Now()
	result, err := pipeline.ImportDir(cmd.Context(), args[0], st, flagDryRun, func(current, total int) {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
		}
	})
	if !flagQuiet && result != nil && result.TotalFiles > 0 {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}
	logger.Info("import finished",
		zap.String("dir", args[0]),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Duration("took", time.Since(start)))

	title := "IMPORT"
	if flagDryRun {
		title = "IMPORT  Dry run"
	}
	printTitle(title)
	if result.TotalFiles == 0 {
		fmt.Print(cli.RenderEmpty("importable files"))
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Step", "Count"},
		Rows: [][]string{
			{"Files found", cli.FormatNumber(int64(result.TotalFiles))},
			{"Files parsed", cli.FormatNumber(int64(result.ParsedFiles))},
			{"Unreadable files", cli.FormatNumber(int64(result.FileErrors))},
			{"Skipped rows", cli.FormatNumber(int64(result.ParseErrors))},
			{cli.Separator},
			{"Created", cli.FormatNumber(int64(result.Created))},
			{"Updated", cli.FormatNumber(int64(result.Updated))},
			{"Failed", cli.FormatNumber(int64(result.Failed))},
		},
	}))
	for _, w := range result.Warnings {
		fmt.Print(cli.RenderWarning(w))
	}
	return nil
}
