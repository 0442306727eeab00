package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dexsync/dexsync/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bootstrap the schema and apply additive migrations",
	Long:  "Creates any missing tables and adds any columns the current schema declares but the database lacks. Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return eris.Wrap(err, "migrate: open store")
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}

		zap.L().Info("migrations complete", zap.String("path", cfg.Store.Path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
