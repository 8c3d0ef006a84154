package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	snapshotAsOf    string
	snapshotWorkers int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Restate the trailing headcount snapshot grid without reloading dimensions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		p, cleanup, err := buildPipeline(ctx, false, snapshotAsOf, snapshotWorkers)
		if err != nil {
			return err
		}
		defer cleanup()

		report, runErr := p.RunSnapshots(ctx)
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
	snapshotCmd.Flags().StringVar(&snapshotAsOf, "as-of", "", "snapshot grid anchor date (YYYY-MM-DD, default today)")
	snapshotCmd.Flags().IntVar(&snapshotWorkers, "workers", 0, "entity worker count (default HRMART_WORKERS)")
}
