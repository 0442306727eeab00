package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dexsync/dexsync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "dexsync",
	Short: "Creature database ETL pipeline",
	Long:  "Fetches creature, species and evolution-chain documents from the remote API, normalizes them, and loads them idempotently into a local SQLite database.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
