package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jask/finsync/internal/service"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import bank CSV exports",
	Long: `Import transactions from CSV exports. Rows already in the ledger are skipped;
invalid rows are reported and skipped without aborting the import.

Subcommands:
  dkb-csv  - DKB export (semicolon separated, German number format)
  anz-csv  - ANZ export without header (date, amount, description)

Examples:
  finsync import dkb-csv umsaetze.csv --account dkb_1234
  finsync import anz-csv export.csv --account "ANZ Everyday"`,
}

var importDKBCmd = &cobra.Command{
	Use:   "dkb-csv <file>",
	Short: "Import a DKB CSV export",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		svc := &service.IngestService{Store: a.store, Categorizer: a.categorizer}
		return runImport(cmd, args[0], func(r io.Reader) (service.IngestResult, error) {
			return svc.ImportDKB(ctx, r, importTarget())
		})
	}),
}

var importANZCmd = &cobra.Command{
	Use:   "anz-csv <file>",
	Short: "Import an ANZ CSV export",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		svc := &service.IngestService{Store: a.store, Categorizer: a.categorizer}
		return runImport(cmd, args[0], func(r io.Reader) (service.IngestResult, error) {
			return svc.ImportANZSimple(ctx, r, importTarget())
		})
	}),
}

var (
	importAccount  string
	importHolder   string
	importCurrency string
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importDKBCmd)
	importCmd.AddCommand(importANZCmd)

	importCmd.PersistentFlags().StringVarP(&importAccount, "account", "a", "", "existing account id, or a name for a new account")
	importCmd.PersistentFlags().StringVar(&importHolder, "holder", "", "account holder name, enables internal transfer detection")
	importCmd.PersistentFlags().StringVar(&importCurrency, "currency", "", "currency of a new account")
}

func importTarget() service.ImportTarget {
	return service.ImportTarget{
		ID:         importAccount,
		Name:       importAccount,
		HolderName: importHolder,
		Currency:   importCurrency,
	}
}

type importOutput struct {
	service.IngestResult
	InvalidRows []string `json:"invalidRows,omitempty"`
}

func runImport(cmd *cobra.Command, path string, run func(io.Reader) (service.IngestResult, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	res, err := run(f)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	out := importOutput{IngestResult: res}
	for _, e := range res.Errors {
		out.InvalidRows = append(out.InvalidRows, e.Error())
	}
	return printJSON(cmd.OutOrStdout(), out)
}
