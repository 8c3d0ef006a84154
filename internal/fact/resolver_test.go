package fact

import (
	"testing"

	"github.com/groblegark/hrmart/internal/model"
)

func date(s string) model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dimRec(dim, key string, sk int64, from, to string, current bool) *model.DimensionRecord {
	rec := &model.DimensionRecord{
		Dimension:    dim,
		BusinessKey:  key,
		SurrogateKey: sk,
		ValidFrom:    date(from),
		IsCurrent:    current,
	}
	if to != "" {
		rec.ValidTo = date(to)
	}
	return rec
}

func testIndex() *AsOfIndex {
	return NewAsOfIndex([]*model.DimensionRecord{
		dimRec("worker", "E1", 101, "2024-01-01", "2024-01-30", false),
		dimRec("worker", "E1", 102, "2024-01-31", "", true),
		dimRec("job", "E1", 201, "2024-01-01", "2024-02-18", false),
		// Deliberate dimension gap: no job version for 2024-02-19 .. 2024-03-19.
		dimRec("job", "E1", 202, "2024-03-20", "", true),
	})
}

func TestAsOfIndex_Resolve(t *testing.T) {
	ix := testIndex()
	for _, tc := range []struct {
		dim     string
		on      string
		wantKey int64
		wantOK  bool
	}{
		{"worker", "2024-01-01", 101, true},
		{"worker", "2024-01-30", 101, true},
		{"worker", "2024-01-31", 102, true},
		{"worker", "2030-12-31", 102, true}, // open-ended
		{"worker", "2023-12-31", 0, false},  // before first version
		{"job", "2024-02-18", 201, true},
		{"job", "2024-03-01", 0, false}, // inside the gap
		{"job", "2024-03-20", 202, true},
	} {
		key, ok := ix.Resolve(tc.dim, "E1", date(tc.on))
		if key != tc.wantKey || ok != tc.wantOK {
			t.Errorf("Resolve(%s, E1, %s) = (%d, %v), want (%d, %v)",
				tc.dim, tc.on, key, ok, tc.wantKey, tc.wantOK)
		}
	}
}

func TestAsOfIndex_UnknownKeyAndDimension(t *testing.T) {
	ix := testIndex()
	if _, ok := ix.Resolve("worker", "E999", date("2024-01-15")); ok {
		t.Error("resolved a business key that has no versions")
	}
	if _, ok := ix.Resolve("location", "E1", date("2024-01-15")); ok {
		t.Error("resolved an unknown dimension")
	}
}

func TestAsOfIndex_Current(t *testing.T) {
	ix := testIndex()
	key, ok := ix.Current("worker", "E1")
	if !ok || key != 102 {
		t.Errorf("Current(worker, E1) = (%d, %v), want (102, true)", key, ok)
	}
	if _, ok := ix.Current("worker", "E999"); ok {
		t.Error("Current found a record for an unknown key")
	}
}

func TestAsOfIndex_Dimensions(t *testing.T) {
	got := testIndex().Dimensions()
	if len(got) != 2 || got[0] != "job" || got[1] != "worker" {
		t.Errorf("Dimensions() = %v, want [job worker]", got)
	}
}

// With fully populated dimensions every lookup resolves; punching a window
// out of one dimension produces exactly the expected number of failures.
func TestAsOfIndex_CompletenessAndDeliberateGap(t *testing.T) {
	full := NewAsOfIndex([]*model.DimensionRecord{
		dimRec("worker", "E1", 1, "2024-01-01", "", true),
		dimRec("job", "E1", 2, "2024-01-01", "", true),
	})
	gapped := testIndex()

	lookupDates := []string{"2024-01-15", "2024-02-25", "2024-03-05", "2024-04-01"}

	var fullMisses, gappedMisses int
	for _, p := range lookupDates {
		for _, dim := range []string{"worker", "job"} {
			if _, ok := full.Resolve(dim, "E1", date(p)); !ok {
				fullMisses++
			}
			if _, ok := gapped.Resolve(dim, "E1", date(p)); !ok {
				gappedMisses++
			}
		}
	}
	if fullMisses != 0 {
		t.Errorf("fully populated index missed %d lookups", fullMisses)
	}
	// Exactly the two job lookups inside 2024-02-19..2024-03-19.
	if gappedMisses != 2 {
		t.Errorf("gapped index missed %d lookups, want exactly 2", gappedMisses)
	}
}
