package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/charterdesk/internal/automation"
	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/notify"
	"github.com/theirongolddev/charterdesk/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var automationsCmd = &cobra.Command{
	Use:     "automations",
	Aliases: []string{"auto"},
	Short:   "Scheduled guest message workflows",
	RunE:    runAutomationsStatus,
}

var automationsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate every workflow once and queue due messages",
	RunE:  runAutomationsRun,
}

func init() {
	automationsCmd.AddCommand(automationsRunCmd)
	rootCmd.AddCommand(automationsCmd)
}

// newNotifier fans ops alerts out to the log and, when configured, the
// Telegram chat.
func newNotifier() *notify.Dispatcher {
	channels := []notify.Channel{notify.NewLog(logger)}
	if token := config.GetTelegramToken(appCfg); token != "" && appCfg.Notify.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(token, appCfg.Notify.TelegramChatID)
		if err != nil {
			logger.Warn("telegram alerts disabled", zap.Error(err))
		} else {
			channels = append(channels, tg)
		}
	}
	return notify.NewDispatcher(channels...)
}

func newEngine(st *store.Store) *automation.Engine {
	return automation.New(st, newNotifier(), appCfg, automation.WithLogger(logger))
}

func runAutomationsRun(cmd *cobra.Command, _ []string) error {
	if !appCfg.Automation.Enabled {
		fmt.Println("  Automations are disabled. Enable them in `charterdesk config` or the TUI settings.")
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	report, err := newEngine(st).RunOnce(cmd.Context())
	if err != nil {
		return err
	}

	printTitle(fmt.Sprintf("AUTOMATIONS  %d due", report.Evaluated))
	if len(report.Runs) == 0 {
		fmt.Println("  Nothing due.")
		fmt.Println()
		return nil
	}
	rows := make([][]string, 0, len(report.Runs))
	for _, r := range report.Runs {
		rows = append(rows, []string{r.Workflow, r.BookingID, r.Status, r.Detail})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Workflow", "Booking", "Result", "Detail"},
		Rows:    rows,
	}))
	fmt.Printf("  %d queued, %d skipped, %d failed\n\n", report.Queued, report.Skipped, report.Failed)
	return nil
}

func runAutomationsStatus(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	runs, err := st.ListRuns(cmd.Context(), 500)
	if err != nil {
		return err
	}
	stats := automation.Stats(appCfg.Automation, runs)
	descriptions := make(map[string]string)
	for _, wf := range automation.Workflows(appCfg.Automation) {
		descriptions[wf.Name] = wf.Description
	}

	state := "enabled"
	if !appCfg.Automation.Enabled {
		state = "disabled"
	}
	printTitle("AUTOMATIONS  " + strings.ToUpper(state))
	rows := make([][]string, 0, len(stats))
	for _, ws := range stats {
		last := "never"
		if !ws.LastRun.IsZero() {
			last = ws.LastRun.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			ws.Workflow,
			orDash(descriptions[ws.Workflow]),
			cli.FormatNumber(int64(ws.Succeeded)),
			cli.FormatNumber(int64(ws.Skipped)),
			cli.FormatNumber(int64(ws.Failed)),
			last,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Workflow", "When", "Sent", "Skipped", "Failed", "Last run"},
		Rows:    rows,
	}))
	for _, ws := range stats {
		if ws.LastError != "" {
			fmt.Print(cli.RenderWarning(ws.Workflow + ": " + ws.LastError))
		}
	}

	failed := 0
	for _, r := range runs {
		if r.Status == model.RunFailed {
			failed++
		}
	}
	if failed > 0 {
		fmt.Printf("  %d failed runs in the last %d. They retry on the next pass.\n\n", failed, len(runs))
	}
	return nil
}
