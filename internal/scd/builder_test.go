package scd

import (
	"testing"
	"time"

	"github.com/groblegark/hrmart/internal/model"
)

func date(s string) model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newBuilder() *Builder {
	return &Builder{
		Dimension: "job",
		Tracked:   []string{"job_profile_id", "job_title"},
		BatchID:   "run-test",
		LoadedAt:  time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC),
	}
}

// Simple promotion: job A from day 1 through day 30, job B from day 31
// onward. Two records, the first closed at day 30, the second open-ended
// and current.
func TestBuild_SimplePromotion(t *testing.T) {
	tl := model.UnifiedTimeline{
		BusinessKey: "E1",
		Segments: []model.Segment{
			{From: date("2024-01-01"), To: date("2024-01-31"), Attributes: map[string]string{"job_profile_id": "A"}},
			{From: date("2024-01-31"), Attributes: map[string]string{"job_profile_id": "B"}},
		},
	}

	records := newBuilder().Build(tl)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first, second := records[0], records[1]
	if first.ValidFrom.String() != "2024-01-01" || first.ValidTo.String() != "2024-01-30" || first.IsCurrent {
		t.Errorf("first = [%s, %s] current=%v", first.ValidFrom, first.ValidTo, first.IsCurrent)
	}
	if second.ValidFrom.String() != "2024-01-31" || !second.ValidTo.IsZero() || !second.IsCurrent {
		t.Errorf("second = [%s, %s] current=%v", second.ValidFrom, second.ValidTo, second.IsCurrent)
	}
	if first.HashDiff == second.HashDiff {
		t.Error("distinct jobs produced equal hashes")
	}
	if first.BatchID != "run-test" {
		t.Errorf("BatchID = %q", first.BatchID)
	}
}

func TestBuild_UnchangedHashExtendsVersion(t *testing.T) {
	tl := model.UnifiedTimeline{
		BusinessKey: "E1",
		Segments: []model.Segment{
			{From: date("2024-01-01"), To: date("2024-02-01"), Attributes: map[string]string{"job_profile_id": "A", "base_pay": "70000"}},
			// Compensation changed but the job dimension's tracked subset did not.
			{From: date("2024-02-01"), Attributes: map[string]string{"job_profile_id": "A", "base_pay": "75000"}},
		},
	}

	records := newBuilder().Build(tl)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (untracked change must not version)", len(records))
	}
	rec := records[0]
	if !rec.ValidTo.IsZero() || !rec.IsCurrent {
		t.Errorf("record = [%s, %s] current=%v, want open-ended current", rec.ValidFrom, rec.ValidTo, rec.IsCurrent)
	}
	if _, ok := rec.Attributes["base_pay"]; ok {
		t.Error("untracked attribute copied onto dimension record")
	}
}

func TestBuild_GapEndsCoverageAndNewLineage(t *testing.T) {
	tl := model.UnifiedTimeline{
		BusinessKey: "E1",
		Segments: []model.Segment{
			{From: date("2024-01-01"), To: date("2024-02-19"), Attributes: map[string]string{"job_profile_id": "A"}},
			{From: date("2024-02-19"), To: date("2024-03-20"), Gap: true},
			{From: date("2024-03-20"), Attributes: map[string]string{"job_profile_id": "A"}, Lineage: 1},
		},
	}

	records := newBuilder().Build(tl)
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (gap forces a new lineage even with equal hash)", len(records))
	}

	closed, reopened := records[0], records[1]
	if closed.ValidTo.String() != "2024-02-18" || closed.IsCurrent {
		t.Errorf("pre-gap record = [%s, %s] current=%v", closed.ValidFrom, closed.ValidTo, closed.IsCurrent)
	}
	if reopened.ValidFrom.String() != "2024-03-20" || !reopened.IsCurrent {
		t.Errorf("post-gap record = [%s, %s] current=%v", reopened.ValidFrom, reopened.ValidTo, reopened.IsCurrent)
	}
	if reopened.Lineage != 1 {
		t.Errorf("post-gap lineage = %d, want 1 (new lineage, not a reopening)", reopened.Lineage)
	}
	// No record covers the gap.
	for _, r := range records {
		if r.Covers(date("2024-03-01")) {
			t.Errorf("record [%s, %s] covers the gap", r.ValidFrom, r.ValidTo)
		}
	}
}

func TestBuild_TerminatedTimelineHasNoCurrentRecord(t *testing.T) {
	tl := model.UnifiedTimeline{
		BusinessKey: "E1",
		Segments: []model.Segment{
			{From: date("2024-01-01"), To: date("2024-02-19"), Attributes: map[string]string{"job_profile_id": "A"}},
		},
	}
	records := newBuilder().Build(tl)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].IsCurrent {
		t.Error("terminated entity still has a current record")
	}
	if records[0].ValidTo.String() != "2024-02-18" {
		t.Errorf("ValidTo = %s, want 2024-02-18", records[0].ValidTo)
	}
}

// The close/insert pair is applied as a unit inside Build, so the version
// set it returns can never overlap and carries at most one current record.
func TestBuild_NoOverlapSingleCurrent(t *testing.T) {
	tl := model.UnifiedTimeline{
		BusinessKey: "E1",
		Segments: []model.Segment{
			{From: date("2024-01-01"), To: date("2024-01-15"), Attributes: map[string]string{"job_profile_id": "A"}},
			{From: date("2024-01-15"), To: date("2024-01-16"), Attributes: map[string]string{"job_profile_id": "B"}}, // one-day state
			{From: date("2024-01-16"), To: date("2024-02-19"), Attributes: map[string]string{"job_profile_id": "C"}},
			{From: date("2024-02-19"), To: date("2024-03-20"), Gap: true},
			{From: date("2024-03-20"), Attributes: map[string]string{"job_profile_id": "C"}, Lineage: 1},
		},
	}

	records := newBuilder().Build(tl)
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	var current int
	for i, a := range records {
		if a.IsCurrent {
			current++
		}
		for _, b := range records[i+1:] {
			if a.Overlaps(*b) {
				t.Errorf("overlap: [%s, %s] and [%s, %s]", a.ValidFrom, a.ValidTo, b.ValidFrom, b.ValidTo)
			}
		}
	}
	if current != 1 {
		t.Errorf("current records = %d, want exactly 1", current)
	}

	// One-day state survives as a one-day version.
	oneDay := records[1]
	if !oneDay.ValidFrom.Equal(oneDay.ValidTo) {
		t.Errorf("one-day version = [%s, %s]", oneDay.ValidFrom, oneDay.ValidTo)
	}
}
