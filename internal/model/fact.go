package model

// MovementType classifies a worker movement event.
type MovementType string

const (
	MovementHire        MovementType = "hire"
	MovementRehire      MovementType = "rehire"
	MovementPromotion   MovementType = "promotion"
	MovementTransfer    MovementType = "transfer"
	MovementChange      MovementType = "change"
	MovementTermination MovementType = "termination"
)

// String returns the string representation of the movement type.
func (m MovementType) String() string {
	return string(m)
}

// IsValid checks whether the movement type is a known value.
func (m MovementType) IsValid() bool {
	switch m {
	case MovementHire, MovementRehire, MovementPromotion,
		MovementTransfer, MovementChange, MovementTermination:
		return true
	}
	return false
}

// MovementFact is one business event: a transition in an entity's unified
// timeline, with the surrogate key of each related dimension resolved as of
// the event's effective date. An unresolvable dimension is recorded in
// Unresolved and its key left at zero rather than failing the row.
type MovementFact struct {
	BusinessKey   string           `json:"business_key"`
	EffectiveDate Date             `json:"effective_date"`
	DateKey       int              `json:"date_key"`
	Movement      MovementType     `json:"movement"`
	Keys          map[string]int64 `json:"keys"`
	Unresolved    []string         `json:"unresolved,omitempty"`

	// Counters for aggregation; exactly one is 1 per row.
	HireCount        int `json:"hire_count"`
	TerminationCount int `json:"termination_count"`
	PromotionCount   int `json:"promotion_count"`

	// Measures are configured numeric attributes captured from the state
	// in force on the effective date. Nil when none are configured or
	// none parsed.
	Measures map[string]float64 `json:"measures,omitempty"`

	BatchID string `json:"batch_id"`
}

// SnapshotFact is one calendar-grid observation: the entity was active on
// SnapshotDate. Snapshot facts carry no load timestamp so restatement output
// depends only on its inputs.
type SnapshotFact struct {
	BusinessKey  string           `json:"business_key"`
	SnapshotDate Date             `json:"snapshot_date"`
	DateKey      int              `json:"date_key"`
	Keys         map[string]int64 `json:"keys"`
	Unresolved   []string         `json:"unresolved,omitempty"`
	Headcount    int              `json:"headcount"`
	BatchID      string           `json:"batch_id"`
}
