package store

import (
	"context"

	"github.com/groblegark/hrmart/internal/model"
)

// Store defines the warehouse persistence interface.
type Store interface {
	// Dimensions. ReplaceDimension swaps all versions of businessKey in one
	// dimension for the given record set, assigning surrogate keys in order.
	ReplaceDimension(ctx context.Context, dimension, businessKey string, records []*model.DimensionRecord) error
	DimensionRecords(ctx context.Context, dimension string) ([]*model.DimensionRecord, error)
	CheckOverlaps(ctx context.Context, dimension string) ([]model.OverlapViolation, error)

	// Facts. Snapshot facts for a batch replace any earlier restatement of
	// the same grid dates.
	InsertMovementFacts(ctx context.Context, facts []*model.MovementFact) error
	ReplaceSnapshotFacts(ctx context.Context, facts []*model.SnapshotFact) error

	// Run reports
	SaveRunReport(ctx context.Context, report *model.RunReport) error
	LatestRunReport(ctx context.Context) (*model.RunReport, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
