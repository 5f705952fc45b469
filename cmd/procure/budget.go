package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/procurement/pkg/budget"
	"mercator-hq/procurement/pkg/cli"
)

var budgetFlags struct {
	format string
}

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Inspect and maintain department budgets",
}

var budgetShowCmd = &cobra.Command{
	Use:   "show [DEPARTMENT...]",
	Short: "Show budget usage for the current period",
	Long: `Show each department's monthly limit, spend and remaining budget for the
current period. With no arguments every department is listed.

Examples:
  procure budget show
  procure budget show FIN ENG --format csv`,
	RunE: runBudgetShow,
}

var budgetRolloverCmd = &cobra.Command{
	Use:   "rollover",
	Short: "Reset ledger entries left over from earlier periods",
	Long: `Persist the start of the current budget period. Entries from an earlier
month already read as zero spend; rollover writes that reset to the ledger.

The server runs this on budget.rollover.schedule when rollover is enabled.`,
	Args: cobra.NoArgs,
	RunE: runBudgetRollover,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetShowCmd, budgetRolloverCmd)

	budgetShowCmd.Flags().StringVarP(&budgetFlags.format, "format", "f", "text", "output format: text, json, csv")
}

func runBudgetShow(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(budgetFlags.format)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return cli.NewCommandError("budget show", err)
	}
	defer a.Close()

	ids := args
	if len(ids) == 0 {
		for _, dept := range a.catalog.Departments() {
			ids = append(ids, dept.ID)
		}
	}

	snapshots := make([]budget.Snapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := a.tracker.Snapshot(cmd.Context(), id)
		if err != nil {
			return cli.NewCommandError("budget show", err)
		}
		snapshots = append(snapshots, snap)
	}

	var data any = snapshots
	if format != cli.FormatJSON {
		data = budgetTable(snapshots)
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), data)
}

func runBudgetRollover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return cli.NewCommandError("budget rollover", err)
	}
	defer a.Close()

	rolled, err := a.tracker.Rollover(cmd.Context())
	if err != nil {
		return cli.NewCommandError("budget rollover", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Rolled over %d ledger entries\n", rolled)
	return nil
}

func budgetTable(snapshots []budget.Snapshot) cli.Table {
	t := cli.Table{Headers: []string{"department", "period", "limit", "spent", "remaining"}}
	for _, s := range snapshots {
		t.Data = append(t.Data, []string{
			s.DepartmentID,
			s.Period,
			s.Limit.StringFixed(2),
			s.Spent.StringFixed(2),
			s.Remaining.StringFixed(2),
		})
	}
	return t
}
