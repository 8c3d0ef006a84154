package timeline

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/groblegark/hrmart/internal/model"
)

func TestResolve_LatestEntryWins(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(2 * time.Hour)

	correction := ev("INT0095E", "E1", "2024-03-10", t2, 1)
	correction.Attributes["job_title"] = "Senior Analyst"
	original := ev("INT0095E", "E1", "2024-03-10", t1, 1)
	original.Attributes["job_title"] = "Analyst"

	tl := Build([]model.ChangeEvent{original, correction})[0]
	resolved, err := Resolve(tl)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resolved.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(resolved.Events))
	}
	if got := resolved.Events[0].Attr("job_title"); got != "Senior Analyst" {
		t.Errorf("winner = %q, want the corrected submission", got)
	}
}

// Same-day correction: two events on day 10, entry timestamps T1 < T2,
// sequence numbers 5 and 3, both resubmitted at T2. The lower sequence wins.
func TestResolve_SameDayCorrection(t *testing.T) {
	t2 := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	a := ev("INT0095E", "E1", "2024-03-10", t2, 5)
	a.Attributes["grade_id"] = "G4"
	b := ev("INT0095E", "E1", "2024-03-10", t2, 3)
	b.Attributes["grade_id"] = "G5"

	tl := Build([]model.ChangeEvent{a, b})[0]
	resolved, err := Resolve(tl)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := resolved.Events[0].SequenceNumber; got != 3 {
		t.Errorf("winning sequence = %d, want 3", got)
	}
	if got := resolved.Events[0].Attr("grade_id"); got != "G5" {
		t.Errorf("winner grade = %q, want G5", got)
	}
}

func TestResolve_DeterministicUnderShuffle(t *testing.T) {
	t1 := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	base := []model.ChangeEvent{
		ev("INT0095E", "E1", "2024-03-10", t1, 5),
		ev("INT0095E", "E1", "2024-03-10", t1, 3),
		ev("INT0095E", "E1", "2024-03-10", t1.Add(-time.Hour), 1),
		ev("INT0095E", "E1", "2024-03-12", t1, 2),
	}

	rng := rand.New(rand.NewSource(7))
	var wantSeqs []int
	for trial := 0; trial < 25; trial++ {
		shuffled := append([]model.ChangeEvent(nil), base...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		resolved, err := Resolve(Build(shuffled)[0])
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		seqs := make([]int, len(resolved.Events))
		for i, e := range resolved.Events {
			seqs[i] = e.SequenceNumber
		}
		if trial == 0 {
			wantSeqs = seqs
			continue
		}
		for i := range seqs {
			if seqs[i] != wantSeqs[i] {
				t.Fatalf("trial %d: resolution depends on input order: %v vs %v", trial, seqs, wantSeqs)
			}
		}
	}
	if len(wantSeqs) != 2 || wantSeqs[0] != 3 || wantSeqs[1] != 2 {
		t.Errorf("resolved sequences = %v, want [3 2]", wantSeqs)
	}
}

func TestResolve_AmbiguousWithoutSequence(t *testing.T) {
	t1 := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	a := ev("INT0095E", "E1", "2024-03-10", t1, 0)
	a.HasSequence = false
	b := ev("INT0095E", "E1", "2024-03-10", t1, 0)
	b.HasSequence = false

	_, err := Resolve(Build([]model.ChangeEvent{a, b})[0])
	if err == nil {
		t.Fatal("Resolve guessed on an undecidable tie")
	}
	if !errors.Is(err, model.ErrAmbiguousTiebreak) {
		t.Errorf("error = %v, want ErrAmbiguousTiebreak", err)
	}
	var ate *model.AmbiguousTiebreakError
	if !errors.As(err, &ate) || ate.BusinessKey != "E1" {
		t.Errorf("error = %#v, want AmbiguousTiebreakError for E1", err)
	}
}

// Two same-day events tying on entry timestamp AND sequence number carry no
// discriminator at all; picking one by input order would make the surviving
// attributes order-dependent.
func TestResolve_EqualSequenceOnTieIsAmbiguous(t *testing.T) {
	t1 := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	a := ev("INT0095E", "E1", "2024-03-10", t1, 2)
	a.Attributes["grade_id"] = "G4"
	b := ev("INT0095E", "E1", "2024-03-10", t1, 2)
	b.Attributes["grade_id"] = "G9"

	for _, order := range [][]model.ChangeEvent{{a, b}, {b, a}} {
		_, err := Resolve(Build(order)[0])
		if err == nil {
			t.Fatal("Resolve guessed on an undecidable tie")
		}
		if !errors.Is(err, model.ErrAmbiguousTiebreak) {
			t.Errorf("error = %v, want ErrAmbiguousTiebreak", err)
		}
	}
}

func TestResolve_MixedSequencePresenceOnTieIsAmbiguous(t *testing.T) {
	t1 := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	a := ev("INT0095E", "E1", "2024-03-10", t1, 4)
	b := ev("INT0095E", "E1", "2024-03-10", t1, 0)
	b.HasSequence = false

	_, err := Resolve(Build([]model.ChangeEvent{a, b})[0])
	if !errors.Is(err, model.ErrAmbiguousTiebreak) {
		t.Errorf("error = %v, want ErrAmbiguousTiebreak", err)
	}
}

func TestResolve_DifferentTimestampsNeedNoSequence(t *testing.T) {
	t1 := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	a := ev("INT0095E", "E1", "2024-03-10", t1, 0)
	a.HasSequence = false
	b := ev("INT0095E", "E1", "2024-03-10", t1.Add(time.Minute), 0)
	b.HasSequence = false

	resolved, err := Resolve(Build([]model.ChangeEvent{a, b})[0])
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !resolved.Events[0].EntryTimestamp.Equal(t1.Add(time.Minute)) {
		t.Error("latest entry timestamp did not win")
	}
}
