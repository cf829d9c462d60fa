package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/charterdesk/internal/cli"
	"github.com/theirongolddev/charterdesk/internal/model"
	"github.com/theirongolddev/charterdesk/internal/pipeline"
	"github.com/theirongolddev/charterdesk/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagWithin   int
	flagClear    bool
	flagOpenOnly bool
)

var checklistCmd = &cobra.Command{
	Use:     "checklist",
	Aliases: []string{"cl"},
	Short:   "Reconciliation checklists",
	RunE:    runChecklistList,
}

var checklistShowCmd = &cobra.Command{
	Use:   "show <reference>",
	Short: "Show the checklist for one booking",
	Args:  cobra.ExactArgs(1),
	RunE:  runChecklistShow,
}

var checklistSetCmd = &cobra.Command{
	Use:   "set <reference> <item>...",
	Short: "Tick checklist items (--clear to untick)",
	Long:  "Tick checklist items. Items: " + checklistKeys(),
	Args:  cobra.MinimumNArgs(2),
	RunE:  runChecklistSet,
}

var checklistBlockingCmd = &cobra.Command{
	Use:   "blocking",
	Short: "Charters departing soon with open checklist items",
	RunE:  runChecklistBlocking,
}

func init() {
	checklistCmd.Flags().BoolVar(&flagOpenOnly, "open", false, "Hide fully reconciled charters")
	checklistSetCmd.Flags().BoolVar(&flagClear, "clear", false, "Untick instead of tick")
	checklistBlockingCmd.Flags().IntVar(&flagWithin, "within", 14, "Days ahead to look for departures")

	checklistCmd.AddCommand(checklistShowCmd, checklistSetCmd, checklistBlockingCmd)
	rootCmd.AddCommand(checklistCmd)
}

func checklistKeys() string {
	keys := make([]string, len(model.ChecklistItems))
	for i, it := range model.ChecklistItems {
		keys[i] = it.Key
	}
	return strings.Join(keys, ", ")
}

func runChecklistList(cmd *cobra.Command, _ []string) error {
	return withData(cmd.Context(), func(_ *store.Store, data *pipeline.LoadResult) error {
		filtered, _, _, err := applyFilters(data.Bookings)
		if err != nil {
			return err
		}
		progress := pipeline.Reconciliation(filtered, data.Checklists)

		printTitle("RECONCILIATION")
		rows := make([][]string, 0, len(progress))
		for _, p := range progress {
			if flagOpenOnly && p.Done == p.Total {
				continue
			}
			row := []string{p.Booking.Reference, cli.FormatDate(p.Booking.StartDate), p.Booking.GuestName}
			for _, g := range p.Groups {
				row = append(row, fmt.Sprintf("%d/%d", g.Done, g.Total))
			}
			row = append(row, cli.RenderProgressBar(p.Done, p.Total, 12))
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			fmt.Print(cli.RenderEmpty("confirmed charters"))
			return nil
		}

		headers := []string{"Ref", "Start", "Guest"}
		for _, g := range model.ChecklistGroups {
			headers = append(headers, groupTitle(g))
		}
		headers = append(headers, "Overall")
		fmt.Print(cli.RenderTable(cli.Table{Headers: headers, Rows: rows}))
		return nil
	})
}

func groupTitle(g model.ChecklistGroup) string {
	s := string(g)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func runChecklistShow(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	b, err := findBooking(cmd, st, args[0])
	if err != nil {
		return err
	}
	cl, err := st.GetChecklist(cmd.Context(), b.ID)
	if err != nil {
		return err
	}
	printTitle(b.Reference + "  " + b.GuestName)
	printChecklist(pipeline.Progress(b, cl))
	return nil
}

// printChecklist renders every item grouped, ticked or not.
func printChecklist(p model.ChecklistProgress) {
	missing := make(map[string]bool, len(p.Missing))
	for _, it := range p.Missing {
		missing[it.Key] = true
	}

	rows := make([][]string, 0, len(model.ChecklistItems)+len(p.Groups))
	for i, it := range model.ChecklistItems {
		if i > 0 && model.ChecklistItems[i-1].Group != it.Group {
			rows = append(rows, []string{cli.Separator})
		}
		mark := "✓"
		if missing[it.Key] {
			mark = " "
		}
		rows = append(rows, []string{groupTitle(it.Group), mark, it.Label, it.Key})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Checklist  %d/%d", p.Done, p.Total),
		Headers: []string{"Group", "", "Item", "Key"},
		Rows:    rows,
	}))
}

func runChecklistSet(cmd *cobra.Command, args []string) error {
	items := make([]model.ChecklistItem, 0, len(args)-1)
	for _, key := range args[1:] {
		it, ok := model.LookupChecklistItem(key)
		if !ok {
			return fmt.Errorf("unknown checklist item %q (items: %s)", key, checklistKeys())
		}
		items = append(items, it)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	b, err := findBooking(cmd, st, args[0])
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := st.SetChecklistItem(cmd.Context(), b.ID, it.Key, !flagClear); err != nil {
			return fmt.Errorf("updating %s: %w", it.Key, err)
		}
		verb := "ticked"
		if flagClear {
			verb = "cleared"
		}
		fmt.Printf("  %s: %s %s\n", b.Reference, it.Label, verb)
	}
	return nil
}

func runChecklistBlocking(cmd *cobra.Command, _ []string) error {
	return withData(cmd.Context(), func(_ *store.Store, data *pipeline.LoadResult) error {
		filtered, _, now, err := applyFilters(data.Bookings)
		if err != nil {
			return err
		}
		blocking := pipeline.Blocking(filtered, data.Checklists, now, flagWithin)

		printTitle(fmt.Sprintf("BLOCKING DEPARTURES  Next %dd", flagWithin))
		if len(blocking) == 0 {
			fmt.Println("  Nothing blocking. Every departing charter is reconciled.")
			fmt.Println()
			return nil
		}

		rows := make([][]string, 0, len(blocking))
		for _, p := range blocking {
			labels := make([]string, len(p.Missing))
			for i, it := range p.Missing {
				labels[i] = it.Label
			}
			rows = append(rows, []string{
				p.Booking.Reference,
				departsIn(p.Booking.StartDate, now),
				p.Booking.Boat,
				p.Booking.GuestName,
				strings.Join(labels, ", "),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Ref", "Departs", "Boat", "Guest", "Missing"},
			Rows:    rows,
		}))
		return nil
	})
}

func departsIn(start *time.Time, now time.Time) string {
	switch d := daysUntil(start, now); d {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return "in " + strconv.Itoa(d) + "d"
	}
}
