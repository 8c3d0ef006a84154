package model

import "time"

// DimensionRecord is one SCD2 version of an entity's attribute set for one
// dimension. The surrogate key is assigned by the sink on insert and never
// reused. For a fixed business key the validity windows are non-overlapping
// and cover the entity's active lifetime, with termination gaps explicit.
type DimensionRecord struct {
	SurrogateKey int64             `json:"surrogate_key"`
	Dimension    string            `json:"dimension"`
	BusinessKey  string            `json:"business_key"`
	Attributes   map[string]string `json:"attributes"`
	HashDiff     string            `json:"hash_diff"`
	ValidFrom    Date              `json:"valid_from"`
	ValidTo      Date              `json:"valid_to"` // zero = open-ended
	IsCurrent    bool              `json:"is_current"`
	Lineage      int               `json:"lineage"`

	// Audit columns; never part of HashDiff.
	BatchID  string    `json:"batch_id"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Covers reports whether the record's validity window contains d
// (valid_from <= d <= valid_to, open-ended upper bound included).
func (r DimensionRecord) Covers(d Date) bool {
	if d.Before(r.ValidFrom) {
		return false
	}
	return r.ValidTo.IsZero() || !d.After(r.ValidTo)
}

// Overlaps reports whether two validity windows intersect.
func (r DimensionRecord) Overlaps(o DimensionRecord) bool {
	if !r.ValidTo.IsZero() && r.ValidTo.Before(o.ValidFrom) {
		return false
	}
	if !o.ValidTo.IsZero() && o.ValidTo.Before(r.ValidFrom) {
		return false
	}
	return true
}

// OverlapViolation is one pair of dimension records for the same business
// key whose validity windows intersect. Any violation is a hard failure.
type OverlapViolation struct {
	Dimension   string `json:"dimension"`
	BusinessKey string `json:"business_key"`
	FirstKey    int64  `json:"first_key"`
	SecondKey   int64  `json:"second_key"`
}
