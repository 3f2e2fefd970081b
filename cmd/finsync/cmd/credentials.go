package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jask/finsync/internal/secrets"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage stored bank credentials",
	Long: `Store or remove the opaque session credentials a bank adapter needs.
Values are kept in an encrypted per-user file, never in the config.

For DKB copy the session cookie and the xsrf token from a logged-in browser:
  finsync credentials set dkb --field cookie='...' --field xsrfToken='...'`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <institution>",
	Short: "Store credentials for an institution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(credentialFields) == 0 {
			return fmt.Errorf("at least one --field key=value is required")
		}
		if err := secrets.StoreCredentials(args[0], credentialFields); err != nil {
			return fmt.Errorf("store credentials: %w", err)
		}
		keys := make([]string, 0, len(credentialFields))
		for k := range credentialFields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return printJSON(cmd.OutOrStdout(), map[string]any{"institution": args[0], "stored": keys})
	},
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete <institution>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.DeleteCredentials(args[0]); err != nil {
			return fmt.Errorf("delete credentials: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"institution": args[0], "deleted": true})
	},
}

var credentialFields map[string]string

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsDeleteCmd)

	credentialsSetCmd.Flags().StringToStringVar(&credentialFields, "field", nil, "credential key=value, repeatable")
}
