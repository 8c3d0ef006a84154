package model

import "time"

// RunStatus summarizes a pipeline run for operators: clean, ran-but-degraded,
// or blocked from promotion.
type RunStatus string

const (
	RunClean    RunStatus = "clean"
	RunDegraded RunStatus = "degraded"
	RunBlocked  RunStatus = "blocked"
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunClean, RunDegraded, RunBlocked:
		return true
	}
	return false
}

// RunReport is the structured summary emitted by every run, pass or fail.
type RunReport struct {
	RunID          string    `json:"run_id"`
	TieBreakPolicy string    `json:"tie_break_policy"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Status         RunStatus `json:"status"`

	Entities   int `json:"entities"`
	Dimensions int `json:"dimension_rows"`
	Movements  int `json:"movement_facts"`
	Snapshots  int `json:"snapshot_facts"`

	MalformedRecords   int            `json:"malformed_records"`
	AmbiguousTiebreaks int            `json:"ambiguous_tiebreaks"`
	InvalidRescinds    int            `json:"invalid_rescinds"`
	UnresolvedFKs      map[string]int `json:"unresolved_fks"` // per dimension
	OverlapViolations  int            `json:"overlap_violations"`

	// Blocked runs carry the blocking error's message.
	Error string `json:"error,omitempty"`
}

// TotalUnresolved sums the unresolved FK counters across dimensions.
func (r *RunReport) TotalUnresolved() int {
	var n int
	for _, c := range r.UnresolvedFKs {
		n += c
	}
	return n
}

// Degraded reports whether the run tolerated any per-record or per-entity
// errors.
func (r *RunReport) Degraded() bool {
	return r.MalformedRecords > 0 || r.AmbiguousTiebreaks > 0 ||
		r.InvalidRescinds > 0 || r.TotalUnresolved() > 0
}
