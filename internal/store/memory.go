package store

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/groblegark/hrmart/internal/model"
)

// MemoryStore is an in-memory Store used by pipeline tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	nextKey int64

	// dimension -> business key -> versions
	dims      map[string]map[string][]*model.DimensionRecord
	movements []*model.MovementFact
	snapshots []*model.SnapshotFact
	reports   []*model.RunReport
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{dims: make(map[string]map[string][]*model.DimensionRecord)}
}

func (s *MemoryStore) ReplaceDimension(ctx context.Context, dimension, businessKey string, records []*model.DimensionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKey := s.dims[dimension]
	if byKey == nil {
		byKey = make(map[string][]*model.DimensionRecord)
		s.dims[dimension] = byKey
	}

	stored := make([]*model.DimensionRecord, len(records))
	for i, r := range records {
		cp := *r
		s.nextKey++
		cp.SurrogateKey = s.nextKey
		stored[i] = &cp
	}
	byKey[businessKey] = stored
	return nil
}

func (s *MemoryStore) DimensionRecords(ctx context.Context, dimension string) ([]*model.DimensionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.DimensionRecord
	for _, versions := range s.dims[dimension] {
		out = append(out, versions...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BusinessKey != out[j].BusinessKey {
			return out[i].BusinessKey < out[j].BusinessKey
		}
		return out[i].ValidFrom.Before(out[j].ValidFrom)
	})
	return out, nil
}

func (s *MemoryStore) CheckOverlaps(ctx context.Context, dimension string) ([]model.OverlapViolation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var violations []model.OverlapViolation
	keys := make([]string, 0, len(s.dims[dimension]))
	for k := range s.dims[dimension] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		versions := s.dims[dimension][key]
		for i := 0; i < len(versions); i++ {
			for j := i + 1; j < len(versions); j++ {
				if versions[i].Overlaps(*versions[j]) {
					violations = append(violations, model.OverlapViolation{
						Dimension:   dimension,
						BusinessKey: key,
						FirstKey:    versions[i].SurrogateKey,
						SecondKey:   versions[j].SurrogateKey,
					})
				}
			}
		}
	}
	return violations, nil
}

func (s *MemoryStore) InsertMovementFacts(ctx context.Context, facts []*model.MovementFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, facts...)
	return nil
}

func (s *MemoryStore) ReplaceSnapshotFacts(ctx context.Context, facts []*model.SnapshotFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := make(map[int]bool, len(facts))
	for _, f := range facts {
		replaced[f.DateKey] = true
	}
	kept := s.snapshots[:0]
	for _, f := range s.snapshots {
		if !replaced[f.DateKey] {
			kept = append(kept, f)
		}
	}
	s.snapshots = append(kept, facts...)
	return nil
}

func (s *MemoryStore) SaveRunReport(ctx context.Context, report *model.RunReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *report
	s.reports = append(s.reports, &cp)
	return nil
}

func (s *MemoryStore) LatestRunReport(ctx context.Context) (*model.RunReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reports) == 0 {
		return nil, sql.ErrNoRows
	}
	cp := *s.reports[len(s.reports)-1]
	return &cp, nil
}

// RunInTransaction on the memory store just calls fn; writes are already
// serialized by the mutex.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(s)
}

func (s *MemoryStore) Close() error {
	return nil
}

// MovementFacts returns the inserted movement facts (test helper).
func (s *MemoryStore) MovementFacts() []*model.MovementFact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.MovementFact(nil), s.movements...)
}

// SnapshotFacts returns the stored snapshot facts (test helper).
func (s *MemoryStore) SnapshotFacts() []*model.SnapshotFact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.SnapshotFact(nil), s.snapshots...)
}
