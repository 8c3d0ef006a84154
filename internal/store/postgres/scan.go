package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/groblegark/hrmart/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanDimensionRecord scans a single row into a model.DimensionRecord.
// The row must contain columns in the order defined by dimColumns.
func scanDimensionRecord(row scannable) (*model.DimensionRecord, error) {
	var r model.DimensionRecord
	var (
		attributes []byte
		validFrom  sql.NullTime
		validTo    sql.NullTime
	)

	err := row.Scan(
		&r.SurrogateKey,
		&r.Dimension,
		&r.BusinessKey,
		&attributes,
		&r.HashDiff,
		&validFrom,
		&validTo,
		&r.IsCurrent,
		&r.Lineage,
		&r.BatchID,
		&r.LoadedAt,
	)
	if err != nil {
		return nil, err
	}

	if validFrom.Valid {
		r.ValidFrom = model.DateOf(validFrom.Time)
	}
	if validTo.Valid {
		r.ValidTo = model.DateOf(validTo.Time)
	}
	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &r.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes: %w", err)
		}
	}

	return &r, nil
}

// scanRunReport scans a single row into a model.RunReport.
// The row must contain columns in the order defined by reportColumns.
func scanRunReport(row scannable) (*model.RunReport, error) {
	var r model.RunReport
	var unresolved []byte

	err := row.Scan(
		&r.RunID,
		&r.TieBreakPolicy,
		&r.StartedAt,
		&r.FinishedAt,
		&r.Status,
		&r.Entities,
		&r.Dimensions,
		&r.Movements,
		&r.Snapshots,
		&r.MalformedRecords,
		&r.AmbiguousTiebreaks,
		&r.InvalidRescinds,
		&unresolved,
		&r.OverlapViolations,
		&r.Error,
	)
	if err != nil {
		return nil, err
	}

	if len(unresolved) > 0 {
		if err := json.Unmarshal(unresolved, &r.UnresolvedFKs); err != nil {
			return nil, fmt.Errorf("decode unresolved_fks: %w", err)
		}
	}

	return &r, nil
}
