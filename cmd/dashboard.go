package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/dashboard"
	"github.com/theirongolddev/charterdesk/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const viewTimeout = 30 * time.Second

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"views"},
	Short:   "Saved report views",
	RunE:    runDashboardList,
}

var dashboardRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a saved view and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runDashboardRun,
}

var dashboardSaveCmd = &cobra.Command{
	Use:   "save <file.yaml>",
	Short: "Validate a view definition and add it to the dashboards directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runDashboardSave,
}

var dashboardDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a saved view",
	Args:  cobra.ExactArgs(1),
	RunE:  runDashboardDelete,
}

var dashboardSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the tables and columns views may query",
	RunE:  runDashboardSources,
}

func init() {
	dashboardCmd.AddCommand(dashboardRunCmd, dashboardSaveCmd, dashboardDeleteCmd, dashboardSourcesCmd)
	rootCmd.AddCommand(dashboardCmd)
}

// loadRegistry reads the configured dashboards directory.
func loadRegistry() (*dashboard.Registry, error) {
	reg := dashboard.NewRegistry(config.DashboardsDir(appCfg), logger)
	if err := reg.Load(); err != nil {
		return nil, err
	}
	for file, err := range reg.Problems() {
		logger.Warn("skipping invalid view", zap.String("file", file), zap.Error(err))
	}
	return reg, nil
}

// lookupView finds a saved view, falling back to the built-in defaults.
func lookupView(reg *dashboard.Registry, name string) (dashboard.View, error) {
	v, err := reg.Get(name)
	if err == nil {
		return v, nil
	}
	for _, d := range dashboard.Defaults() {
		if d.Name == name {
			return d, nil
		}
	}
	return dashboard.View{}, err
}

// writeDefaultViews saves any built-in view not already in reg.
func writeDefaultViews(reg *dashboard.Registry) (int, error) {
	written := 0
	for _, v := range dashboard.Defaults() {
		if _, err := reg.Get(v.Name); err == nil {
			continue
		}
		if err := reg.Save(v); err != nil {
			return written, fmt.Errorf("saving %s: %w", v.Name, err)
		}
		written++
	}
	return written, nil
}

func runDashboardList(_ *cobra.Command, _ []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	printTitle("DASHBOARDS  " + reg.Dir())
	saved := make(map[string]bool)
	var rows [][]string
	for _, v := range reg.List() {
		saved[v.Name] = true
		rows = append(rows, []string{v.Name, v.DisplayTitle(), v.Source, orDash(v.Tab), "saved"})
	}
	for _, v := range dashboard.Defaults() {
		if !saved[v.Name] {
			rows = append(rows, []string{v.Name, v.DisplayTitle(), v.Source, orDash(v.Tab), "built-in"})
		}
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Name", "Title", "Source", "Tab", "Origin"},
		Rows:    rows,
	}))
	for file, perr := range reg.Problems() {
		fmt.Print(cli.RenderWarning(file + ": " + perr.Error()))
	}
	return nil
}

func runDashboardRun(cmd *cobra.Command, args []string) error {
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
	printTitle(v.DisplayTitle())
	printResult(res)
	return nil
}

func runView(ctx context.Context, st *store.Store, v dashboard.View) (dashboard.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, viewTimeout)
	defer cancel()
	start := time.Now()
	res, err := dashboard.Run(ctx, st.DB(), v)
	if err != nil {
		return res, fmt.Errorf("running %s: %w", v.Name, err)
	}
	logger.Debug("view ran", zap.String("view", v.Name), zap.Int("rows", len(res.Rows)), zap.Duration("took", time.Since(start)))
	return res, nil
}

func printResult(res dashboard.Result) {
	if res.Empty() {
		fmt.Print(cli.RenderEmpty(""))
		return
	}
	rows := make([][]string, len(res.Rows))
	for i, r := range res.Rows {
		row := make([]string, len(r))
		for j, cell := range r {
			row[j] = formatCell(cell)
		}
		rows[i] = row
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: res.Columns, Rows: rows}))
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Local().Format("2006-01-02 15:04")
	case float64:
		return fmt.Sprintf("%.2f", x)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func runDashboardSave(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	v, err := dashboard.Parse(data)
	if err != nil {
		return err
	}
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	if err := reg.Save(v); err != nil {
		return err
	}
	fmt.Printf("  Saved view %s to %s\n", v.Name, reg.Dir())
	return nil
}

func runDashboardDelete(_ *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	if err := reg.Delete(args[0]); err != nil {
		if errors.Is(err, dashboard.ErrNotFound) {
			return fmt.Errorf("no saved view %q", args[0])
		}
		return err
	}
	fmt.Printf("  Deleted view %s\n", args[0])
	return nil
}

func runDashboardSources(_ *cobra.Command, _ []string) error {
	printTitle("VIEW SOURCES")
	rows := make([][]string, 0, len(dashboard.Sources()))
	for _, s := range dashboard.Sources() {
		rows = append(rows, []string{s, strings.Join(dashboard.Columns(s), ", ")})
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Source", "Columns"}, Rows: rows}))
	return nil
}
