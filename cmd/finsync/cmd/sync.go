package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/finsync/internal/bank"
	"github.com/jask/finsync/internal/bank/dkb"
	"github.com/jask/finsync/internal/ledger"
	"github.com/jask/finsync/internal/secrets"
	"github.com/jask/finsync/internal/service"
)

var syncCmd = &cobra.Command{
	Use:   "sync <institution>",
	Short: "Fetch accounts, balances and new transactions from a bank",
	Long: `Run one sync pass against an institution. Only transactions booked since the
last successful sync are fetched; anything already in the ledger is skipped.

Supported institutions:
  dkb  - DKB online banking

Example:
  finsync credentials set dkb --field cookie='...' --field xsrfToken='...'
  finsync sync dkb`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(runSync),
}

var syncHistoryCmd = &cobra.Command{
	Use:   "history [institution]",
	Short: "Show the sync audit log",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		l, err := a.store.Read(ctx)
		if err != nil {
			return err
		}
		history := l.SyncHistory
		if len(args) == 1 {
			history = nil
			for _, m := range l.SyncHistory {
				if m.InstitutionID == args[0] {
					history = append(history, m)
				}
			}
		}
		return printJSON(cmd.OutOrStdout(), history)
	}),
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncHistoryCmd)
}

func runSync(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	institution := args[0]
	adapters := map[string]bank.Adapter{
		dkb.InstitutionID: dkb.NewClient(dkb.Config{
			BaseURL:  a.cfg.DKB.BaseURL,
			MaxPages: a.cfg.DKB.MaxPages,
			Timeout:  a.cfg.DKB.Timeout,
		}),
	}
	adapter, ok := adapters[institution]
	if !ok {
		return fmt.Errorf("unsupported institution %q", institution)
	}

	data, err := secrets.FetchCredentials(institution)
	if err != nil && !errors.Is(err, secrets.ErrNotFound) {
		return fmt.Errorf("credentials: %w", err)
	}
	// Missing credentials still run the pass so the failure is audited.
	creds := bank.Credentials{Data: data}

	if a.cfg.Sync.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Sync.Timeout)
		defer cancel()
	}

	svc := service.NewSyncService(a.store, a.categorizer, adapter)
	meta := svc.Sync(ctx, institution, creds)
	if err := printJSON(cmd.OutOrStdout(), meta); err != nil {
		return err
	}
	if meta.Status != ledger.SyncSuccess {
		return fmt.Errorf("sync %s: %s", meta.Status, meta.Error)
	}
	return nil
}
