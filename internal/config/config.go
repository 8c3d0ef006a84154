package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	DatabaseURL string // HRMART_DATABASE_URL (required for warehouse commands)
	NATSURL     string // HRMART_NATS_URL (optional, empty = no events)
	ModelPath   string // HRMART_MODEL (default "hrmart.toml")
	Workers     int    // HRMART_WORKERS (default 4)

	// Feed source settings
	FeedDir        string // HRMART_FEED_DIR (default "feeds"; used when S3 is not configured)
	FeedS3Bucket   string // HRMART_FEED_S3_BUCKET (enables S3 when set)
	FeedS3Prefix   string // HRMART_FEED_S3_PREFIX (optional key prefix)
	FeedS3Region   string // HRMART_FEED_S3_REGION (default "us-east-1")
	FeedS3Endpoint string // HRMART_FEED_S3_ENDPOINT (custom endpoint for MinIO)
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("HRMART_DATABASE_URL"),
		NATSURL:        os.Getenv("HRMART_NATS_URL"),
		ModelPath:      envOrDefault("HRMART_MODEL", "hrmart.toml"),
		FeedDir:        envOrDefault("HRMART_FEED_DIR", "feeds"),
		FeedS3Bucket:   os.Getenv("HRMART_FEED_S3_BUCKET"),
		FeedS3Prefix:   os.Getenv("HRMART_FEED_S3_PREFIX"),
		FeedS3Region:   envOrDefault("HRMART_FEED_S3_REGION", "us-east-1"),
		FeedS3Endpoint: os.Getenv("HRMART_FEED_S3_ENDPOINT"),
	}

	workersStr := envOrDefault("HRMART_WORKERS", "4")
	workers, err := strconv.Atoi(workersStr)
	if err != nil || workers < 1 {
		return nil, fmt.Errorf("HRMART_WORKERS: invalid worker count %q", workersStr)
	}
	c.Workers = workers

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
