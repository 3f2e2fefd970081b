package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/finsync/internal/service"
)

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Report categories the current rules would change",
	Long: `Rerun the category rules over every stored transaction, for example after
editing the file named by classifier.rules_file, and list where the result
differs. Stored transactions are never rewritten; the new rules apply to
transactions imported or synced from now on. Internal transfers are skipped.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		svc := &service.MaintenanceService{Store: a.store, Categorizer: a.categorizer}
		proposed, err := svc.Reclassify(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), proposed)
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all accounts, transactions, balances and sync history",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if !resetConfirm {
			return fmt.Errorf("refusing to wipe the ledger without --yes")
		}
		svc := &service.MaintenanceService{Store: a.store}
		if err := svc.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		a.log.Info().Msg("ledger wiped")
		return printJSON(cmd.OutOrStdout(), map[string]bool{"reset": true})
	}),
}

var resetConfirm bool

func init() {
	rootCmd.AddCommand(reclassifyCmd)
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVar(&resetConfirm, "yes", false, "confirm deleting all data")
}
