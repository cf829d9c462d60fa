package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/charterdesk/internal/backend"
	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the database, hosted backend and integrations",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	printTitle("CHARTERDESK STATUS")

	rows := [][]string{}
	var problems []error

	st, err := openStore()
	if err != nil {
		rows = append(rows, []string{"Database", mark(false), err.Error()})
		problems = append(problems, err)
	} else {
		defer func() { _ = st.Close() }()
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Pinging %s...\n", st.Driver())
		}
		if err := st.DB().PingContext(ctx); err != nil {
			rows = append(rows, []string{"Database", mark(false), err.Error()})
			problems = append(problems, err)
		} else {
			rows = append(rows, []string{"Database", mark(true), st.Driver()})
			data, err := loadData(ctx, st)
			if err != nil {
				problems = append(problems, err)
			} else {
				rows = append(rows,
					[]string{"Bookings", "", cli.FormatNumber(int64(len(data.Bookings)))},
					[]string{"Customers", "", cli.FormatNumber(int64(len(data.Customers)))},
					[]string{"Messages logged", "", cli.FormatNumber(int64(len(data.Communications)))},
				)
			}
			_, err = st.GetSetting(ctx, appCfg.Payment.SecretSetting)
			switch {
			case err == nil:
				rows = append(rows, []string{"Payment secret", mark(true), "app_settings." + appCfg.Payment.SecretSetting})
			case config.GetPaymentSecretFallback() != "":
				rows = append(rows, []string{"Payment secret", mark(true), "environment fallback"})
			default:
				rows = append(rows, []string{"Payment secret", mark(false), "not set; checkout will fail"})
			}
		}
	}

	rows = append(rows, []string{cli.Separator})
	if client := backend.NewClient(appCfg.Backend.URL, config.GetBackendKey(appCfg)); client == nil {
		rows = append(rows, []string{"Hosted backend", "-", "not configured"})
	} else {
		status := client.Check(ctx)
		rows = append(rows,
			[]string{"Hosted auth", mark(status.AuthOK), appCfg.Backend.URL},
			[]string{"Hosted REST", mark(status.RestOK), ""},
		)
		if status.Error != nil {
			switch {
			case errors.Is(status.Error, backend.ErrUnauthorized):
				problems = append(problems, errors.New("backend key rejected: check CHARTERDESK_BACKEND_KEY"))
			case errors.Is(status.Error, backend.ErrRateLimited):
				problems = append(problems, errors.New("rate limited by the hosted backend, try again in a minute"))
			default:
				problems = append(problems, status.Error)
			}
		}
	}

	telegram := "not configured"
	if config.GetTelegramToken(appCfg) != "" && appCfg.Notify.TelegramChatID != 0 {
		telegram = fmt.Sprintf("chat %d", appCfg.Notify.TelegramChatID)
	}
	rows = append(rows,
		[]string{"Telegram alerts", "", telegram},
		[]string{"Automations", "", onOff(appCfg.Automation.Enabled)},
		[]string{"Config", "", config.ConfigPath()},
	)

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Check", "", "Detail"},
		Rows:    rows,
	}))

	warnStyle := lipgloss.NewStyle().Foreground(cli.ColorOrange)
	for _, p := range problems {
		fmt.Printf("  %s\n", warnStyle.Render(p.Error()))
	}
	fmt.Printf("  Checked at %s\n\n", time.Now().Format("3:04:05 PM"))
	return nil
}

func mark(ok bool) string {
	if ok {
		return lipgloss.NewStyle().Foreground(cli.ColorGreen).Render("✓")
	}
	return lipgloss.NewStyle().Foreground(cli.ColorRed).Render("✗")
}
