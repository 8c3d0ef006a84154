// Package fact resolves dimension surrogate keys as of an event date and
// emits movement and snapshot fact records.
package fact

import (
	"sort"

	"github.com/groblegark/hrmart/internal/model"
)

// AsOfIndex answers "which version of this dimension was true on date D"
// for every (dimension, business key) it was built over.
type AsOfIndex struct {
	byDim map[string]map[string][]*model.DimensionRecord
}

// NewAsOfIndex builds a lookup index over finalized dimension records.
// Versions are kept sorted by valid_from per business key.
func NewAsOfIndex(records []*model.DimensionRecord) *AsOfIndex {
	ix := &AsOfIndex{byDim: make(map[string]map[string][]*model.DimensionRecord)}
	for _, rec := range records {
		byKey, ok := ix.byDim[rec.Dimension]
		if !ok {
			byKey = make(map[string][]*model.DimensionRecord)
			ix.byDim[rec.Dimension] = byKey
		}
		byKey[rec.BusinessKey] = append(byKey[rec.BusinessKey], rec)
	}
	for _, byKey := range ix.byDim {
		for _, versions := range byKey {
			sort.Slice(versions, func(i, j int) bool {
				return versions[i].ValidFrom.Before(versions[j].ValidFrom)
			})
		}
	}
	return ix
}

// Resolve returns the surrogate key of the dimension version whose validity
// window contains the given date. The second result is false when no
// version covers it (a termination gap, or a date before the first
// version).
func (ix *AsOfIndex) Resolve(dimension, businessKey string, on model.Date) (int64, bool) {
	versions := ix.byDim[dimension][businessKey]
	// Versions are non-overlapping and sorted; find the last one starting
	// on or before the date and check coverage.
	idx := sort.Search(len(versions), func(i int) bool {
		return versions[i].ValidFrom.After(on)
	})
	if idx == 0 {
		return 0, false
	}
	rec := versions[idx-1]
	if !rec.Covers(on) {
		return 0, false
	}
	return rec.SurrogateKey, true
}

// Current returns the surrogate key of the dimension version flagged
// current, preferred when the lookup date is "today".
func (ix *AsOfIndex) Current(dimension, businessKey string) (int64, bool) {
	for _, rec := range ix.byDim[dimension][businessKey] {
		if rec.IsCurrent {
			return rec.SurrogateKey, true
		}
	}
	return 0, false
}

// Dimensions returns the dimension names present in the index, sorted.
func (ix *AsOfIndex) Dimensions() []string {
	names := make([]string, 0, len(ix.byDim))
	for name := range ix.byDim {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
