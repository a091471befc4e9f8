package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"platito/internal/backend"
	"platito/internal/cli"
	"platito/internal/config"
	"platito/internal/log"
)

var (
	datasetFlag string
	backendFlag string
	dbPathFlag  string

	rootCmd = &cobra.Command{
		Use:           "platitoctl",
		Short:         "Administer a platito ledger dataset",
		Long:          `platitoctl exports, restores, resets and seeds a platito dataset and manages its exchange rates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&datasetFlag, "dataset", "", "dataset to operate on (main, testing); overrides DATASET")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", fmt.Sprintf("storage backend (%s); overrides DATA_BACKEND", strings.Join(backend.GetBackendTypeStrings(), ", ")))
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "SQLite database path; overrides SQLITE_DB_PATH")

	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(ratesCmd())
	rootCmd.AddCommand(balancesCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	if datasetFlag != "" {
		cfg.Dataset = datasetFlag
	}
	if backendFlag != "" {
		cfg.DataBackend = backendFlag
	}
	if dbPathFlag != "" {
		cfg.SQLiteDBPath = dbPathFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp opens the selected dataset. Logs go to stderr so command output
// stays clean on stdout.
func openApp(ctx context.Context) (*cli.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLoggerTo(cfg, log.ComponentCLI, os.Stderr)
	return cli.InitApp(ctx, cfg, logger)
}
