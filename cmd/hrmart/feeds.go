package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/hrmart/internal/events"
	"github.com/groblegark/hrmart/internal/pipeline"
	"github.com/groblegark/hrmart/internal/store"
)

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "Read and validate every configured feed without touching the warehouse",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		m, err := loadModel()
		if err != nil {
			return err
		}
		source, err := newSource(ctx)
		if err != nil {
			return err
		}

		p := pipeline.New(pipeline.Options{
			Model:     m,
			Source:    source,
			Store:     store.NewMemoryStore(),
			Publisher: &events.NoopPublisher{},
			Logger:    slog.Default(),
		})

		checks, err := p.ValidateFeeds(ctx)
		if err != nil {
			return err
		}

		printFeedChecks(m, checks)
		for _, c := range checks {
			if c.Malformed > 0 {
				os.Exit(1)
			}
		}
		return nil
	},
}
