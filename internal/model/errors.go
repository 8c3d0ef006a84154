package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the engine's failure taxonomy. Typed errors below wrap
// these so callers can match with errors.Is.
var (
	ErrMalformedRecord             = errors.New("malformed record")
	ErrAmbiguousTiebreak           = errors.New("ambiguous tiebreak")
	ErrInvalidRescind              = errors.New("invalid rescind")
	ErrUnresolvedForeignKey        = errors.New("unresolved foreign key")
	ErrResolutionThresholdExceeded = errors.New("resolution threshold exceeded")
	ErrScd2OverlapDetected         = errors.New("scd2 overlap detected")
)

// MalformedRecordError reports a raw record that could not be normalized.
// Per-record: the record is skipped and counted, the run continues.
type MalformedRecordError struct {
	Feed   FeedID
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("feed %s line %d: %s", e.Feed, e.Line, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// AmbiguousTiebreakError reports two same-day events with equal entry
// timestamps and no sequence discriminator. Per-entity: resolution fails
// closed for that entity's feed rather than guessing.
type AmbiguousTiebreakError struct {
	Feed           FeedID
	BusinessKey    string
	EffectiveDate  Date
	EntryTimestamp time.Time
}

func (e *AmbiguousTiebreakError) Error() string {
	return fmt.Sprintf("feed %s entity %s: two events on %s at %s without sequence numbers",
		e.Feed, e.BusinessKey, e.EffectiveDate, e.EntryTimestamp.Format(time.RFC3339))
}

func (e *AmbiguousTiebreakError) Unwrap() error { return ErrAmbiguousTiebreak }

// InvalidRescindError reports a rehire date that is not strictly after its
// matching termination date. Handled softly: the termination is treated as a
// straight rescind with no gap, logged and counted for audit.
type InvalidRescindError struct {
	BusinessKey string
	Termination Date
	Rehire      Date
}

func (e *InvalidRescindError) Error() string {
	return fmt.Sprintf("entity %s: rehire %s not after termination %s",
		e.BusinessKey, e.Rehire, e.Termination)
}

func (e *InvalidRescindError) Unwrap() error { return ErrInvalidRescind }

// ThresholdError reports an aggregate FK resolution failure rate above the
// configured tolerance. Pipeline-level: the run is blocked.
type ThresholdError struct {
	Unresolved int
	Total      int
	Tolerance  float64
}

func (e *ThresholdError) Rate() float64 {
	if e.Total == 0 {
		return 0
	}
	return float64(e.Unresolved) / float64(e.Total)
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("unresolved foreign keys: %d of %d (%.2f%%) exceeds tolerance %.2f%%",
		e.Unresolved, e.Total, e.Rate()*100, e.Tolerance*100)
}

func (e *ThresholdError) Unwrap() error { return ErrResolutionThresholdExceeded }

// OverlapError reports SCD2 overlap violations found by the post-load audit.
// Pipeline-level: always a hard failure, never auto-corrected.
type OverlapError struct {
	Violations []OverlapViolation
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("scd2 overlap check: %d violation(s)", len(e.Violations))
}

func (e *OverlapError) Unwrap() error { return ErrScd2OverlapDetected }
