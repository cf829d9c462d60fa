package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/theirongolddev/charterdesk/internal/backend"
	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/config"
	"github.com/theirongolddev/charterdesk/internal/forms"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/server"
	"github.com/theirongolddev/charterdesk/internal/store"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagRepeatOnly bool

var customersCmd = &cobra.Command{
	Use:     "customers",
	Aliases: []string{"crm"},
	Short:   "Customer list with lifetime value",
	RunE:    runCustomersList,
}

var customersRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a customer (creates a hosted account when configured)",
	RunE:  runCustomersRegister,
}

func init() {
	customersCmd.Flags().BoolVar(&flagRepeatOnly, "repeat", false, "Only customers with two or more charters")
	customersCmd.AddCommand(customersRegisterCmd)
	rootCmd.AddCommand(customersCmd)
}

func runCustomersList(cmd *cobra.Command, _ []string) error {
	return withData(cmd.Context(), func(_ *store.Store, data *pipeline.LoadResult) error {
		stats := pipeline.AggregateCustomers(data.Customers, data.Bookings, data.Communications, time.Now())
		cur := currency()

		printTitle(fmt.Sprintf("CUSTOMERS  %d  (repeat rate %s)",
			len(stats), cli.FormatPercent(pipeline.RepeatRate(stats))))
		rows := make([][]string, 0, len(stats))
		for _, cs := range stats {
			if flagRepeatOnly && !cs.Repeat {
				continue
			}
			next := "-"
			if !cs.NextCharter.IsZero() {
				next = cs.NextCharter.Format("02 Jan 2006")
			}
			rows = append(rows, []string{
				cs.Customer.Name,
				cs.Customer.Email,
				orDash(cs.Customer.Phone),
				cli.FormatNumber(int64(cs.Bookings)),
				cli.FormatMoney(cs.LifetimeValue, cur),
				cli.FormatMoney(cs.Outstanding, cur),
				next,
			})
		}
		if len(rows) == 0 {
			fmt.Print(cli.RenderEmpty("customers"))
			return nil
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Name", "Email", "Phone", "Trips", "Value", "Owed", "Next"},
			Rows:    rows,
		}))
		return nil
	})
}

func runCustomersRegister(cmd *cobra.Command, _ []string) error {
	var v forms.RegistrationValues
	if err := forms.Registration(&v).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Cancelled.")
			return nil
		}
		return err
	}
	reg, err := v.Registration()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	accounts := backend.NewClient(appCfg.Backend.URL, config.GetBackendKey(appCfg))
	if accounts == nil {
		logger.Debug("hosted accounts not configured; registering locally")
	}

	c, err := server.RegisterCustomer(cmd.Context(), st, accounts, reg)
	switch {
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("a customer with email %s is already registered", reg.Email)
	case err != nil:
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			logger.Warn("hosted signup failed", zap.Int("status", apiErr.Status), zap.String("message", apiErr.Message))
		}
		return fmt.Errorf("registering customer: %w", err)
	}
	fmt.Printf("  Registered %s <%s>\n", c.Name, c.Email)
	return nil
}
