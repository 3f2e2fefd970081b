package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/finsync/internal/ledger"
	"github.com/jask/finsync/internal/service"
	"github.com/jask/finsync/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Cash flow, category breakdown, volatility, trend and emergency fund coverage",
	Long: `Compute statistics over the ledger. Internal transfers between your own
accounts are excluded unless --include-transfers is given.

Examples:
  finsync stats
  finsync stats --from 2025-01-01 --to 2025-06-30`,
	Args: cobra.NoArgs,
	RunE: withApp(runStats),
}

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "List monthly recurring charges",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		l, err := a.store.Read(ctx)
		if err != nil {
			return err
		}
		txs := stats.ExcludeTransfers(l.Transactions)
		groups := service.DetectRecurring(txs, a.categorizer)
		if groups == nil {
			groups = []service.RecurringGroup{}
		}
		return printJSON(cmd.OutOrStdout(), groups)
	}),
}

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List transaction pairs that look like the same booking",
	Long: `List pairs with the same amount, at most a week apart and similar
descriptions. Nothing is changed; review and clean up manually.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		l, err := a.store.Read(ctx)
		if err != nil {
			return err
		}
		pairs := service.FindPossibleDuplicates(l.Transactions)
		if pairs == nil {
			pairs = []service.PossibleDuplicate{}
		}
		return printJSON(cmd.OutOrStdout(), pairs)
	}),
}

var (
	statsFrom             string
	statsTo               string
	statsIncludeTransfers bool
)

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(recurringCmd)
	rootCmd.AddCommand(duplicatesCmd)

	statsCmd.Flags().StringVar(&statsFrom, "from", "", "first day, YYYY-MM-DD")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "last day, YYYY-MM-DD")
	statsCmd.Flags().BoolVar(&statsIncludeTransfers, "include-transfers", false, "count internal transfers as income and spending")
}

func runStats(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	r, err := dateRange(statsFrom, statsTo)
	if err != nil {
		return err
	}
	l, err := a.store.Read(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), stats.Summarize(l, r, statsIncludeTransfers))
}

// dateRange builds a range from optional bounds. Both empty means no range;
// a missing bound stays open and is filled from the data.
func dateRange(from, to string) (*stats.DateRange, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	r := &stats.DateRange{}
	if from != "" {
		t, err := time.Parse(ledger.DateLayout, from)
		if err != nil {
			return nil, fmt.Errorf("--from: %w", err)
		}
		r.Start = t
	}
	if to != "" {
		t, err := time.Parse(ledger.DateLayout, to)
		if err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
		r.End = t
	}
	if from != "" && to != "" && r.End.Before(r.Start) {
		return nil, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return r, nil
}
