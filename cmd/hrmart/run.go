package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/hrmart/internal/idgen"
	"github.com/groblegark/hrmart/internal/model"
	"github.com/groblegark/hrmart/internal/pipeline"
	"github.com/groblegark/hrmart/internal/store"
)

var (
	runDryRun  bool
	runAsOf    string
	runWorkers int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full datamart build: dimensions, movements and snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, cleanup, err := buildPipeline(ctx, runDryRun, runAsOf, runWorkers)
		if err != nil {
			return err
		}
		defer cleanup()

		report, runErr := p.Run(ctx)
		if report != nil {
			printReport(report)
		}
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "build against an in-memory store, writing nothing")
	runCmd.Flags().StringVar(&runAsOf, "as-of", "", "snapshot grid anchor date (YYYY-MM-DD, default today)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "entity worker count (default HRMART_WORKERS)")
}

// buildPipeline assembles a pipeline from the environment and flags. The
// returned cleanup closes the store and publisher.
func buildPipeline(ctx context.Context, dryRun bool, asOfFlag string, workers int) (*pipeline.Pipeline, func(), error) {
	m, err := loadModel()
	if err != nil {
		return nil, nil, err
	}

	var asOf model.Date
	if asOfFlag != "" {
		asOf, err = model.ParseDate(asOfFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid --as-of: %w", err)
		}
	}

	var st store.Store
	if dryRun {
		st = store.NewMemoryStore()
	} else {
		st, err = openStore()
		if err != nil {
			return nil, nil, err
		}
	}

	pub, err := newPublisher()
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	source, err := newSource(ctx)
	if err != nil {
		st.Close()
		pub.Close()
		return nil, nil, err
	}

	runID, err := idgen.Generate()
	if err != nil {
		st.Close()
		pub.Close()
		return nil, nil, err
	}
	batchID, err := idgen.GenerateWithPrefix("batch-")
	if err != nil {
		st.Close()
		pub.Close()
		return nil, nil, err
	}

	if workers == 0 {
		workers = cfg.Workers
	}

	p := pipeline.New(pipeline.Options{
		Model:     m,
		Source:    source,
		Store:     st,
		Publisher: pub,
		Logger:    slog.Default(),
		RunID:     runID,
		BatchID:   batchID,
		Workers:   workers,
		AsOf:      asOf,
	})
	cleanup := func() {
		pub.Close()
		st.Close()
	}
	return p, cleanup, nil
}
