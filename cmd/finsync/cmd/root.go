package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jask/finsync/internal/config"
	"github.com/jask/finsync/internal/database"
	"github.com/jask/finsync/internal/database/repository"
	"github.com/jask/finsync/internal/logger"
	"github.com/jask/finsync/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "finsync",
	Short: "Sync bank transactions into a local ledger and analyze them",
	Long: `finsync pulls accounts, balances and transactions from your banks into a
local sqlite ledger, categorizes them, and reports cash flow statistics.

Sources:
  - DKB online banking (session credentials stored with "credentials set")
  - DKB and ANZ CSV exports

Every command prints JSON on stdout; logs go to stderr.`,
	SilenceUsage: true,
}

var logLevel string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level from config")
}

// app bundles what every command needs. Close releases the database.
type app struct {
	cfg         config.Config
	log         zerolog.Logger
	db          *sql.DB
	store       *repository.LedgerStore
	categorizer *service.Categorizer
}

func openApp(ctx context.Context) (*app, context.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, ctx, fmt.Errorf("config: %w", err)
	}
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	log := logger.New(level, cfg.Log.Format)
	ctx = logger.WithContext(ctx, log)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, ctx, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, ctx, fmt.Errorf("open db: %w", err)
	}
	version, err := database.Migrate(db, cfg.Database.Migrations)
	if err != nil {
		db.Close()
		return nil, ctx, fmt.Errorf("migrate: %w", err)
	}

	categorizer := service.NewCategorizer()
	if cfg.Classifier.RulesFile != "" {
		if categorizer, err = service.LoadCategorizer(cfg.Classifier.RulesFile); err != nil {
			db.Close()
			return nil, ctx, fmt.Errorf("classifier: %w", err)
		}
	}

	log.Debug().Str("db", cfg.Database.Path).Uint("schema_version", version).Msg("ledger opened")
	return &app{
		cfg:         cfg,
		log:         log,
		db:          db,
		store:       repository.NewLedgerStore(db),
		categorizer: categorizer,
	}, ctx, nil
}

func (a *app) Close() error { return a.db.Close() }

// withApp opens the app for the duration of run.
func withApp(run func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, ctx, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return run(ctx, a, cmd, args)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
