package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/forms"
	"github.com/theirongolddev/charterdesk/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	v := forms.SetupFrom(cfg)
	if err := forms.Setup(&v, theme.Names()).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing saved.")
			return nil
		}
		return err
	}
	v.Apply(&cfg)

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	appCfg = cfg

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())

	reg, err := loadRegistry()
	if err != nil {
		logger.Warn("dashboards not initialized", zap.Error(err))
	} else if n, err := writeDefaultViews(reg); err != nil {
		logger.Warn("writing starter dashboards", zap.Error(err))
	} else if n > 0 {
		fmt.Printf("  Wrote %d starter dashboards to %s\n", n, reg.Dir())
	}

	if dsn := config.GetDSN(cfg); dsn != "" {
		st, err := openStore()
		if err != nil {
			fmt.Printf("  Database not reachable yet: %v\n", err)
		} else {
			_ = st.Close()
			fmt.Printf("  Database ready (%s)\n", cfg.Backend.Driver)
		}
	}

	fmt.Println("  Run `charterdesk setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
