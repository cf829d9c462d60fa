package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default days: %d\n", cfg.General.DefaultDays)
	fmt.Printf("    Currency:     %s\n", cfg.General.Currency)
	fmt.Println()

	fmt.Println("  [Business]")
	fmt.Printf("    Name:     %s\n", cfg.Business.Name)
	fmt.Printf("    Email:    %s\n", orDash(cfg.Business.Email))
	fmt.Printf("    Phone:    %s\n", orDash(cfg.Business.Phone))
	fmt.Printf("    Marina:   %s\n", orDash(cfg.Business.Marina))
	fmt.Printf("    Sign-off: %s\n", orDash(cfg.Business.SignOff))
	fmt.Println()

	fmt.Println("  [Backend]")
	fmt.Printf("    Driver: %s\n", cfg.Backend.Driver)
	if os.Getenv("CHARTERDESK_DSN") != "" {
		fmt.Println("    DSN:    from CHARTERDESK_DSN")
	} else if cfg.Backend.Driver == "postgres" {
		fmt.Printf("    DSN:    %s\n", maskAPIKey(config.GetDSN(cfg)))
	} else {
		fmt.Printf("    DSN:    %s\n", orDash(config.GetDSN(cfg)))
	}
	if cfg.Backend.URL != "" {
		fmt.Printf("    URL:    %s\n", cfg.Backend.URL)
	}
	if key := config.GetBackendKey(cfg); key != "" {
		fmt.Printf("    Key:    %s\n", maskAPIKey(key))
	} else {
		fmt.Println("    Key:    not configured")
	}
	fmt.Println()

	fmt.Println("  [Payment]")
	fmt.Printf("    Provider:       %s\n", cfg.Payment.ProviderURL)
	fmt.Printf("    Secret setting: %s\n", cfg.Payment.SecretSetting)
	if config.GetPaymentSecretFallback() != "" {
		fmt.Println("    Env fallback:   set")
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Poll interval: %ds\n", cfg.Server.PollIntervalSec)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Notify]")
	if tok := config.GetTelegramToken(cfg); tok != "" {
		fmt.Printf("    Telegram token: %s\n", maskAPIKey(tok))
		fmt.Printf("    Telegram chat:  %d\n", cfg.Notify.TelegramChatID)
	} else {
		fmt.Println("    Telegram: not configured")
	}
	fmt.Println()

	a := cfg.Automation
	fmt.Println("  [Automation]")
	fmt.Printf("    Enabled:          %v\n", a.Enabled)
	fmt.Printf("    Deposit reminder: %dd after booking\n", a.DepositReminderDays)
	fmt.Printf("    Balance due:      %dd before start\n", a.BalanceDueDays)
	fmt.Printf("    Briefing:         %dd before start\n", a.BriefingDays)
	fmt.Printf("    Review request:   %dd after end\n", a.ReviewDelayDays)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:        %s\n", cfg.Appearance.Theme)
	fmt.Printf("    Auto refresh: %v every %ds\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshIntervalSec)
	fmt.Printf("    Dashboards:   %s\n", config.DashboardsDir(cfg))
	fmt.Println()

	fmt.Println("  [Fleet]")
	if len(cfg.Fleet.Boats) == 0 {
		fmt.Println("    No day rates configured")
	}
	boats := fleetBoats()
	for _, name := range boats {
		r := cfg.Fleet.Boats[name]
		line := fmt.Sprintf("    %-20s %s/day", name, cli.FormatMoney(r.DayRate, currency()))
		if r.Capacity > 0 {
			line += fmt.Sprintf(", %d guests", r.Capacity)
		}
		fmt.Println(line)
	}
	seasons := make([]string, 0, len(config.DefaultSeasonMultipliers))
	for s := range config.DefaultSeasonMultipliers {
		seasons = append(seasons, s)
	}
	sort.Strings(seasons)
	for _, s := range seasons {
		fmt.Printf("    %-20s x%.2f\n", s+" season", config.SeasonMultiplier(cfg, s))
	}
	fmt.Println()

	fmt.Println("  Run `charterdesk setup` to reconfigure.")
	return nil
}
