package model

import (
	"errors"
	"testing"
	"time"
)

func TestLifecycleState_IsValid(t *testing.T) {
	for _, tc := range []struct {
		state LifecycleState
		want  bool
	}{
		{StateActive, true},
		{StateTerminated, true},
		{StateGap, true},
		{StateRehired, true},
		{LifecycleState(""), false},
		{LifecycleState("fired"), false},
	} {
		if got := tc.state.IsValid(); got != tc.want {
			t.Errorf("LifecycleState(%q).IsValid() = %v, want %v", tc.state, got, tc.want)
		}
	}
}

func TestMovementType_IsValid(t *testing.T) {
	for _, tc := range []struct {
		typ  MovementType
		want bool
	}{
		{MovementHire, true},
		{MovementRehire, true},
		{MovementPromotion, true},
		{MovementTransfer, true},
		{MovementChange, true},
		{MovementTermination, true},
		{MovementType("demotion"), false},
		{MovementType(""), false},
	} {
		if got := tc.typ.IsValid(); got != tc.want {
			t.Errorf("MovementType(%q).IsValid() = %v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestDimensionRecord_Covers(t *testing.T) {
	rec := DimensionRecord{
		ValidFrom: NewDate(2024, time.January, 1),
		ValidTo:   NewDate(2024, time.January, 30),
	}
	open := DimensionRecord{
		ValidFrom: NewDate(2024, time.January, 31),
	}

	for _, tc := range []struct {
		rec  DimensionRecord
		on   Date
		want bool
	}{
		{rec, NewDate(2023, time.December, 31), false},
		{rec, NewDate(2024, time.January, 1), true},
		{rec, NewDate(2024, time.January, 30), true},
		{rec, NewDate(2024, time.January, 31), false},
		{open, NewDate(2024, time.January, 31), true},
		{open, NewDate(2030, time.June, 15), true},
		{open, NewDate(2024, time.January, 30), false},
	} {
		if got := tc.rec.Covers(tc.on); got != tc.want {
			t.Errorf("Covers(%s) = %v, want %v", tc.on, got, tc.want)
		}
	}
}

func TestDimensionRecord_Overlaps(t *testing.T) {
	jan := DimensionRecord{ValidFrom: NewDate(2024, time.January, 1), ValidTo: NewDate(2024, time.January, 31)}
	feb := DimensionRecord{ValidFrom: NewDate(2024, time.February, 1), ValidTo: NewDate(2024, time.February, 29)}
	midJan := DimensionRecord{ValidFrom: NewDate(2024, time.January, 15)} // open-ended

	if jan.Overlaps(feb) {
		t.Error("adjacent windows reported as overlapping")
	}
	if !jan.Overlaps(midJan) {
		t.Error("open-ended window starting mid-January should overlap January")
	}
	if !midJan.Overlaps(feb) {
		t.Error("open-ended window should overlap February")
	}
}

func TestErrorTaxonomy_Unwrap(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want error
	}{
		{&MalformedRecordError{Feed: "INT0095E", Line: 3, Reason: "missing business key"}, ErrMalformedRecord},
		{&AmbiguousTiebreakError{Feed: "INT0098", BusinessKey: "E1001"}, ErrAmbiguousTiebreak},
		{&InvalidRescindError{BusinessKey: "E1001"}, ErrInvalidRescind},
		{&ThresholdError{Unresolved: 5, Total: 100, Tolerance: 0.01}, ErrResolutionThresholdExceeded},
		{&OverlapError{}, ErrScd2OverlapDetected},
	} {
		if !errors.Is(tc.err, tc.want) {
			t.Errorf("%T does not unwrap to %v", tc.err, tc.want)
		}
	}
}

func TestThresholdError_Rate(t *testing.T) {
	err := &ThresholdError{Unresolved: 3, Total: 200, Tolerance: 0.01}
	if got := err.Rate(); got != 0.015 {
		t.Errorf("Rate() = %v, want 0.015", got)
	}
	empty := &ThresholdError{}
	if got := empty.Rate(); got != 0 {
		t.Errorf("Rate() on empty = %v, want 0", got)
	}
}

func TestRunReport_Degraded(t *testing.T) {
	clean := &RunReport{}
	if clean.Degraded() {
		t.Error("empty report reported degraded")
	}
	degraded := &RunReport{UnresolvedFKs: map[string]int{"worker": 2}}
	if !degraded.Degraded() {
		t.Error("report with unresolved FKs not degraded")
	}
	if degraded.TotalUnresolved() != 2 {
		t.Errorf("TotalUnresolved = %d, want 2", degraded.TotalUnresolved())
	}
}
