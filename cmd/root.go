// Package cmd implements the charterdesk CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	flagDays    int
	flagBoat    string
	flagStatus  string
	flagQuiet   bool
	flagVerbose bool
)

// Set in PersistentPreRunE for every command.
var (
	appCfg config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "charterdesk",
	Short: "Yacht charter operations desk",
	Long:  "Track charters, reconcile checklists, message guests and report revenue.",
	RunE:  runSummary,

	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		appCfg = cfg
		if flagDays <= 0 {
			flagDays = cfg.General.DefaultDays
		}
		if flagDays <= 0 {
			flagDays = 90
		}
		level := zapcore.WarnLevel
		if cmd.Name() == serveCmd.Name() {
			level = zapcore.InfoLevel
		}
		if flagVerbose {
			level = zapcore.DebugLevel
		}
		logger = newLogger(level)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&flagDays, "days", "n", 0, "Time window in days (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagBoat, "boat", "b", "", "Filter to boat (substring match)")
	rootCmd.PersistentFlags().StringVarP(&flagStatus, "status", "s", "", "Filter to booking status")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging to stderr")
}

func newLogger(level zapcore.Level) *zap.Logger {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	log, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// openStore connects to the configured backend.
func openStore() (*store.Store, error) {
	dsn := config.GetDSN(appCfg)
	if dsn == "" {
		return nil, errors.New("no database configured: run `charterdesk setup` or set CHARTERDESK_DSN")
	}
	st, err := store.Open(appCfg.Backend.Driver, dsn)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", zap.String("driver", st.Driver()))
	return st, nil
}

// loadData is the shared read path used by reporting commands.
func loadData(ctx context.Context, st *store.Store) (*pipeline.LoadResult, error) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Loading %s backend...\n", st.Driver())
	}
	start := time.Now()
	result, err := pipeline.Load(ctx, st, func(current, total int) {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "\r  Fetching [%d/%d]", current, total)
		}
	})
	if err != nil {
		if !flagQuiet {
			fmt.Fprintln(os.Stderr)
		}
		return nil, err
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "\r  Loaded %s bookings, %s customers    \n",
			cli.FormatNumber(int64(len(result.Bookings))),
			cli.FormatNumber(int64(len(result.Customers))))
	}
	logger.Debug("data loaded", zap.Duration("took", time.Since(start)))
	return result, nil
}

// withData opens the store, loads everything and hands both to fn.
func withData(ctx context.Context, fn func(st *store.Store, data *pipeline.LoadResult) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	data, err := loadData(ctx, st)
	if err != nil {
		return err
	}
	return fn(st, data)
}

// applyFilters returns the boat/status filtered bookings and the window.
func applyFilters(bookings []model.Booking) ([]model.Booking, time.Time, time.Time, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -flagDays)

	filtered := bookings
	if flagBoat != "" {
		filtered = pipeline.FilterByBoat(filtered, flagBoat)
	}
	if flagStatus != "" {
		status := model.BookingStatus(flagStatus)
		if !status.Valid() {
			return nil, since, now, fmt.Errorf("unknown status %q", flagStatus)
		}
		filtered = pipeline.FilterByStatus(filtered, status)
	}
	return filtered, since, now, nil
}

func currency() string {
	if appCfg.General.Currency != "" {
		return appCfg.General.Currency
	}
	return "EUR"
}

func printTitle(title string) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()
}
