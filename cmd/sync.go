package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dexsync/dexsync/internal/extract"
	"github.com/dexsync/dexsync/internal/pipeline"
	"github.com/dexsync/dexsync/internal/pokeapi"
	"github.com/dexsync/dexsync/internal/store"
)

var (
	syncLimit       int
	syncConcurrency int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the full extract-transform-load pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		names := cfg.Sync.Pokemon
		if syncLimit > 0 && len(names) > syncLimit {
			names = names[:syncLimit]
		}
		concurrency := cfg.Sync.Concurrency
		if syncConcurrency > 0 {
			concurrency = syncConcurrency
		}

		client := pokeapi.New(pokeapi.Options{
			BaseURL:   cfg.API.BaseURL,
			Timeout:   time.Duration(cfg.API.TimeoutSecs) * time.Second,
			RateLimit: rate.Limit(cfg.API.RateLimit),
			Burst:     cfg.API.Burst,
		})

		st, err := store.New(cfg.Store.Path)
		if err != nil {
			return eris.Wrap(err, "sync: open store")
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(extract.New(client, concurrency), st)
		result, err := p.Run(ctx, names)
		if err != nil {
			return eris.Wrap(err, "sync")
		}

		zap.L().Info("sync finished",
			zap.String("run_id", result.RunID),
			zap.Int("requested", result.Requested),
			zap.Int("fetched", result.Fetched),
			zap.Int("loaded", result.Loaded),
		)
		return nil
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncLimit, "limit", 0, "fetch at most N items from the job list")
	syncCmd.Flags().IntVar(&syncConcurrency, "concurrency", 0, "override the worker ceiling")
	rootCmd.AddCommand(syncCmd)
}
