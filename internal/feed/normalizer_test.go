package feed

import (
	"errors"
	"testing"
	"time"

	"github.com/groblegark/hrmart/internal/model"
)

var jobSchema = model.FeedSchema{
	Feed:                "INT0095E",
	BusinessKeyField:    "employee_id",
	EffectiveDateField:  "effective_date",
	EntryTimestampField: "entry_moment",
	SequenceField:       "sequence_number",
	AttributeFields:     []string{"job_profile_id", "job_title", "grade_id"},
}

func TestNormalize(t *testing.T) {
	rec := model.RawRecord{
		Feed: "INT0095E",
		Line: 2,
		Fields: map[string]string{
			"employee_id":     "E1001",
			"effective_date":  "2024-03-15",
			"entry_moment":    "2024-03-14 09:30:00",
			"sequence_number": "3",
			"job_profile_id":  "JP-200",
			"job_title":       "Senior Analyst",
			"grade_id":        "G5",
			"audit_user":      "loader", // not in schema, dropped
		},
	}

	ev, err := Normalize(rec, jobSchema)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ev.BusinessKey != "E1001" {
		t.Errorf("BusinessKey = %q", ev.BusinessKey)
	}
	if ev.EffectiveDate.String() != "2024-03-15" {
		t.Errorf("EffectiveDate = %s", ev.EffectiveDate)
	}
	want := time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC)
	if !ev.EntryTimestamp.Equal(want) {
		t.Errorf("EntryTimestamp = %s, want %s", ev.EntryTimestamp, want)
	}
	if !ev.HasSequence || ev.SequenceNumber != 3 {
		t.Errorf("sequence = (%v, %d), want (true, 3)", ev.HasSequence, ev.SequenceNumber)
	}
	if len(ev.Attributes) != 3 {
		t.Errorf("Attributes = %v, want 3 schema fields only", ev.Attributes)
	}
	if ev.Attr("job_title") != "Senior Analyst" {
		t.Errorf("job_title = %q", ev.Attr("job_title"))
	}
}

func TestNormalize_Malformed(t *testing.T) {
	for _, tc := range []struct {
		name   string
		fields map[string]string
	}{
		{"missing business key", map[string]string{"effective_date": "2024-01-01"}},
		{"blank business key", map[string]string{"employee_id": "  ", "effective_date": "2024-01-01"}},
		{"missing effective date", map[string]string{"employee_id": "E1"}},
		{"unparsable effective date", map[string]string{"employee_id": "E1", "effective_date": "15/03/2024"}},
		{"unparsable sequence", map[string]string{"employee_id": "E1", "effective_date": "2024-01-01", "sequence_number": "x"}},
		{"unparsable entry timestamp", map[string]string{"employee_id": "E1", "effective_date": "2024-01-01", "entry_moment": "bogus"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(model.RawRecord{Feed: "INT0095E", Line: 7, Fields: tc.fields}, jobSchema)
			if err == nil {
				t.Fatal("Normalize accepted malformed record")
			}
			if !errors.Is(err, model.ErrMalformedRecord) {
				t.Errorf("error = %v, want ErrMalformedRecord", err)
			}
			var mre *model.MalformedRecordError
			if !errors.As(err, &mre) || mre.Line != 7 {
				t.Errorf("error = %#v, want MalformedRecordError at line 7", err)
			}
		})
	}
}

func TestNormalize_MissingEntryTimestampFallsBack(t *testing.T) {
	ev, err := Normalize(model.RawRecord{
		Feed:   "INT0095E",
		Line:   2,
		Fields: map[string]string{"employee_id": "E1", "effective_date": "2024-05-01"},
	}, jobSchema)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !ev.EntryTimestamp.Equal(ev.EffectiveDate.Time()) {
		t.Errorf("EntryTimestamp = %s, want effective date midnight", ev.EntryTimestamp)
	}
	if ev.HasSequence {
		t.Error("HasSequence = true for record without sequence")
	}
}
