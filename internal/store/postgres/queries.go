package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/groblegark/hrmart/internal/model"
)

// dimColumns is the column list used for SELECT statements on dim_records.
const dimColumns = `surrogate_key, dimension, business_key, attributes,
	hash_diff, valid_from, valid_to, is_current, lineage, batch_id, loaded_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queryReplaceDimension deletes every stored version of businessKey in the
// dimension and inserts the new set, writing assigned surrogate keys back
// into records. Callers run it inside a transaction so close/insert pairs
// land atomically.
func queryReplaceDimension(ctx context.Context, db executor, dimension, businessKey string, records []*model.DimensionRecord) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM dim_records WHERE dimension = $1 AND business_key = $2`,
		dimension, businessKey)
	if err != nil {
		return fmt.Errorf("delete dimension versions: %w", err)
	}

	for _, r := range records {
		row := db.QueryRowContext(ctx, `
			INSERT INTO dim_records (
				dimension, business_key, attributes, hash_diff,
				valid_from, valid_to, is_current, lineage, batch_id, loaded_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING surrogate_key`,
			dimension,
			businessKey,
			jsonbBytes(r.Attributes),
			r.HashDiff,
			r.ValidFrom.Time(),
			nullDate(r.ValidTo),
			r.IsCurrent,
			r.Lineage,
			r.BatchID,
			r.LoadedAt,
		)
		if err := row.Scan(&r.SurrogateKey); err != nil {
			return fmt.Errorf("insert dimension version: %w", err)
		}
	}
	return nil
}

func queryDimensionRecords(ctx context.Context, db executor, dimension string) ([]*model.DimensionRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+dimColumns+` FROM dim_records
		 WHERE dimension = $1
		 ORDER BY business_key, valid_from`,
		dimension)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.DimensionRecord
	for rows.Next() {
		r, err := scanDimensionRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// queryCheckOverlaps self-joins each business key's versions and reports
// every pair of intersecting validity windows. An open-ended valid_to is
// treated as unbounded.
func queryCheckOverlaps(ctx context.Context, db executor, dimension string) ([]model.OverlapViolation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT a.business_key, a.surrogate_key, b.surrogate_key
		FROM dim_records a
		JOIN dim_records b
		  ON a.dimension = b.dimension
		 AND a.business_key = b.business_key
		 AND a.surrogate_key < b.surrogate_key
		WHERE a.dimension = $1
		  AND (a.valid_to IS NULL OR a.valid_to >= b.valid_from)
		  AND (b.valid_to IS NULL OR b.valid_to >= a.valid_from)
		ORDER BY a.business_key, a.surrogate_key, b.surrogate_key`,
		dimension)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OverlapViolation
	for rows.Next() {
		v := model.OverlapViolation{Dimension: dimension}
		if err := rows.Scan(&v.BusinessKey, &v.FirstKey, &v.SecondKey); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func queryInsertMovementFacts(ctx context.Context, db executor, facts []*model.MovementFact) error {
	for _, f := range facts {
		_, err := db.ExecContext(ctx, `
			INSERT INTO fct_worker_movement (
				business_key, effective_date, date_key, movement, keys,
				unresolved, hire_count, termination_count, promotion_count,
				measures, batch_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			f.BusinessKey,
			f.EffectiveDate.Time(),
			f.DateKey,
			string(f.Movement),
			jsonbBytes(f.Keys),
			jsonbBytes(f.Unresolved),
			f.HireCount,
			f.TerminationCount,
			f.PromotionCount,
			jsonbBytes(f.Measures),
			f.BatchID,
		)
		if err != nil {
			return fmt.Errorf("insert movement fact: %w", err)
		}
	}
	return nil
}

// queryReplaceSnapshotFacts removes every snapshot row on the restated grid
// dates and inserts the regenerated set, so a rerun never leaves rows from a
// superseded restatement behind.
func queryReplaceSnapshotFacts(ctx context.Context, db executor, facts []*model.SnapshotFact) error {
	if len(facts) == 0 {
		return nil
	}

	seen := make(map[int]bool, len(facts))
	var dateKeys []int64
	for _, f := range facts {
		if !seen[f.DateKey] {
			seen[f.DateKey] = true
			dateKeys = append(dateKeys, int64(f.DateKey))
		}
	}

	_, err := db.ExecContext(ctx,
		`DELETE FROM fct_worker_snapshot WHERE date_key = ANY($1)`,
		pq.Array(dateKeys))
	if err != nil {
		return fmt.Errorf("delete restated snapshots: %w", err)
	}

	for _, f := range facts {
		_, err := db.ExecContext(ctx, `
			INSERT INTO fct_worker_snapshot (
				business_key, snapshot_date, date_key, keys,
				unresolved, headcount, batch_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.BusinessKey,
			f.SnapshotDate.Time(),
			f.DateKey,
			jsonbBytes(f.Keys),
			jsonbBytes(f.Unresolved),
			f.Headcount,
			f.BatchID,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot fact: %w", err)
		}
	}
	return nil
}

func querySaveRunReport(ctx context.Context, db executor, r *model.RunReport) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO run_reports (
			run_id, tie_break_policy, started_at, finished_at, status,
			entities, dimension_rows, movement_facts, snapshot_facts,
			malformed_records, ambiguous_tiebreaks, invalid_rescinds,
			unresolved_fks, overlap_violations, error
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, $15
		)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			status = EXCLUDED.status,
			entities = EXCLUDED.entities,
			dimension_rows = EXCLUDED.dimension_rows,
			movement_facts = EXCLUDED.movement_facts,
			snapshot_facts = EXCLUDED.snapshot_facts,
			malformed_records = EXCLUDED.malformed_records,
			ambiguous_tiebreaks = EXCLUDED.ambiguous_tiebreaks,
			invalid_rescinds = EXCLUDED.invalid_rescinds,
			unresolved_fks = EXCLUDED.unresolved_fks,
			overlap_violations = EXCLUDED.overlap_violations,
			error = EXCLUDED.error`,
		r.RunID,
		r.TieBreakPolicy,
		r.StartedAt,
		r.FinishedAt,
		string(r.Status),
		r.Entities,
		r.Dimensions,
		r.Movements,
		r.Snapshots,
		r.MalformedRecords,
		r.AmbiguousTiebreaks,
		r.InvalidRescinds,
		jsonbBytes(r.UnresolvedFKs),
		r.OverlapViolations,
		r.Error,
	)
	return err
}

const reportColumns = `run_id, tie_break_policy, started_at, finished_at, status,
	entities, dimension_rows, movement_facts, snapshot_facts,
	malformed_records, ambiguous_tiebreaks, invalid_rescinds,
	unresolved_fks, overlap_violations, error`

func queryLatestRunReport(ctx context.Context, db executor) (*model.RunReport, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM run_reports ORDER BY finished_at DESC LIMIT 1`)
	return scanRunReport(row)
}

// jsonbBytes marshals v for a JSONB column, mapping empty values to NULL.
func jsonbBytes(v any) any {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return nil
	}
	return data
}

// nullDate maps a zero (open-ended) date to SQL NULL.
func nullDate(d model.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time()
}
