package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/hrmart/internal/config"
	"github.com/groblegark/hrmart/internal/events"
	"github.com/groblegark/hrmart/internal/feed"
	"github.com/groblegark/hrmart/internal/modelcfg"
	"github.com/groblegark/hrmart/internal/store"
	"github.com/groblegark/hrmart/internal/store/postgres"
	"github.com/groblegark/hrmart/internal/ui"
)

var (
	cfg        *config.Config
	jsonOutput bool
	modelPath  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "hrmart",
	Short: "Temporal dimensional-modeling engine for workforce history",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if modelPath != "" {
			cfg.ModelPath = modelPath
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "model descriptor path (default HRMART_MODEL or hrmart.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(feedsCmd)
}

// loadModel reads the configured model descriptor.
func loadModel() (*modelcfg.Model, error) {
	m, err := modelcfg.Load(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", cfg.ModelPath, err)
	}
	return m, nil
}

// openStore connects to the warehouse.
func openStore() (store.Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("HRMART_DATABASE_URL is required")
	}
	return postgres.New(cfg.DatabaseURL)
}

// newPublisher connects to NATS when configured, otherwise events are dropped.
func newPublisher() (events.Publisher, error) {
	if cfg.NATSURL == "" {
		return &events.NoopPublisher{}, nil
	}
	return events.NewNATSPublisher(cfg.NATSURL)
}

// newSource returns the feed source: S3 when a bucket is configured, the
// local feed directory otherwise.
func newSource(ctx context.Context) (feed.Source, error) {
	if cfg.FeedS3Bucket != "" {
		return feed.NewS3Source(ctx, cfg.FeedS3Bucket, cfg.FeedS3Prefix, cfg.FeedS3Region, cfg.FeedS3Endpoint)
	}
	return &feed.LocalSource{Dir: cfg.FeedDir}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
