package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/finsync/internal/database/repository"
	"github.com/jask/finsync/internal/ledger"
)

var transactionsCmd = &cobra.Command{
	Use:     "transactions",
	Aliases: []string{"tx"},
	Short:   "List ledger transactions, newest first",
	Long: `List transactions with optional filters.

Examples:
  finsync transactions --month 2025-01 --category Groceries
  finsync tx --search netflix --limit 5`,
	Args: cobra.NoArgs,
	RunE: withApp(runTransactions),
}

var txFilters struct {
	account  string
	category string
	month    string
	search   string
	limit    int
}

func init() {
	rootCmd.AddCommand(transactionsCmd)
	f := transactionsCmd.Flags()
	f.StringVarP(&txFilters.account, "account", "a", "", "account id")
	f.StringVarP(&txFilters.category, "category", "c", "", "category")
	f.StringVarP(&txFilters.month, "month", "m", "", "calendar month, YYYY-MM")
	f.StringVarP(&txFilters.search, "search", "s", "", "substring of description or counterparty")
	f.IntVarP(&txFilters.limit, "limit", "n", 50, "maximum rows, 0 for all")
}

func runTransactions(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	f := repository.TransactionFilters{
		AccountID: txFilters.account,
		Category:  ledger.Category(txFilters.category),
		Search:    txFilters.search,
		Limit:     txFilters.limit,
	}
	if f.Category != "" && !f.Category.Valid() && f.Category != ledger.CategoryInternalTransfer {
		return fmt.Errorf("unknown category %q", txFilters.category)
	}
	if txFilters.month != "" {
		m, err := time.Parse("2006-01", txFilters.month)
		if err != nil {
			return fmt.Errorf("--month: %w", err)
		}
		f.Month = m
	}
	txs, err := repository.NewTransactionRepo(a.db).List(ctx, f)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	if txs == nil {
		txs = []ledger.Transaction{}
	}
	return printJSON(cmd.OutOrStdout(), txs)
}
