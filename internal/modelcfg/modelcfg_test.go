package modelcfg

import (
	"strings"
	"testing"
)

const validDescriptor = `
tie_break_policy = "max-entry/v1"
fk_tolerance = 0.02
action_field = "action"

[snapshot]
trailing_months = 6

[movement]
promotion_fields = ["grade_id", "job_profile_id"]
transfer_fields = ["sup_org_id"]
termination_actions = ["Termination"]
rehire_actions = ["Rehire"]
measure_fields = ["base_pay"]

[[feed]]
id = "INT0095E"
path = "worker_job.csv"
format = "csv"
business_key = "employee_id"
effective_date = "effective_date"
entry_timestamp = "entry_moment"
sequence = "sequence_number"
attributes = ["action", "job_profile_id", "job_title", "grade_id"]

[[feed]]
id = "INT0098"
path = "worker_compensation.jsonl"
format = "jsonl"
business_key = "employee_id"
effective_date = "effective_date"
entry_timestamp = "entry_moment"
sequence = "sequence_number"
attributes = ["base_pay", "comp_grade"]

[[dimension]]
name = "job"
tracked = ["job_profile_id", "job_title", "grade_id"]

[[dimension]]
name = "compensation"
tracked = ["base_pay", "comp_grade"]
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(validDescriptor))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.TieBreakPolicy != "max-entry/v1" {
		t.Errorf("TieBreakPolicy = %q", m.TieBreakPolicy)
	}
	if m.FKTolerance != 0.02 {
		t.Errorf("FKTolerance = %v", m.FKTolerance)
	}
	if m.Snapshot.TrailingMonths != 6 {
		t.Errorf("TrailingMonths = %d", m.Snapshot.TrailingMonths)
	}
	if len(m.Feeds) != 2 || len(m.Dimensions) != 2 {
		t.Fatalf("feeds=%d dims=%d", len(m.Feeds), len(m.Dimensions))
	}
	if len(m.Movement.MeasureFields) != 1 || m.Movement.MeasureFields[0] != "base_pay" {
		t.Errorf("MeasureFields = %v", m.Movement.MeasureFields)
	}

	schema := m.Feeds[0].Schema()
	if schema.Feed != "INT0095E" || schema.BusinessKeyField != "employee_id" {
		t.Errorf("schema = %+v", schema)
	}
	if got := m.DimensionNames(); got[0] != "job" || got[1] != "compensation" {
		t.Errorf("DimensionNames = %v", got)
	}
}

func TestParse_Defaults(t *testing.T) {
	minimal := `
tie_break_policy = "max-entry/v1"

[[feed]]
id = "INT0095E"
path = "worker_job.csv"
format = "csv"
business_key = "employee_id"
effective_date = "effective_date"

[[dimension]]
name = "job"
tracked = ["job_profile_id"]
`
	m, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.FKTolerance != DefaultFKTolerance {
		t.Errorf("FKTolerance = %v, want default", m.FKTolerance)
	}
	if m.Snapshot.TrailingMonths != DefaultTrailingMonths {
		t.Errorf("TrailingMonths = %d, want default", m.Snapshot.TrailingMonths)
	}
	if m.ActionField != DefaultActionField {
		t.Errorf("ActionField = %q, want default", m.ActionField)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{"missing policy", func(s string) string {
			return strings.Replace(s, `tie_break_policy = "max-entry/v1"`, "", 1)
		}, "tie_break_policy"},
		{"bad format", func(s string) string {
			return strings.Replace(s, `format = "csv"`, `format = "parquet"`, 1)
		}, "unsupported format"},
		{"duplicate feed", func(s string) string {
			return strings.Replace(s, `id = "INT0098"`, `id = "INT0095E"`, 1)
		}, "duplicate feed"},
		{"tolerance out of range", func(s string) string {
			return strings.Replace(s, "fk_tolerance = 0.02", "fk_tolerance = 1.5", 1)
		}, "out of range"},
		{"dimension without tracked", func(s string) string {
			return strings.Replace(s, `tracked = ["base_pay", "comp_grade"]`, `tracked = []`, 1)
		}, "tracked"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.mutate(validDescriptor)))
			if err == nil {
				t.Fatal("Parse accepted invalid descriptor")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}
