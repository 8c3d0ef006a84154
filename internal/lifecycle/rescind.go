// Package lifecycle applies termination and rehire events to an entity's
// unified timeline, closing it, opening explicit gaps, or starting a new
// dimension lineage after a rehire.
package lifecycle

import (
	"log/slog"
	"sort"

	"github.com/groblegark/hrmart/internal/model"
)

// EventType classifies a lifecycle event.
type EventType string

const (
	EventTermination EventType = "termination"
	EventRehire      EventType = "rehire"
)

// Event is one termination or rehire, effective on Date.
type Event struct {
	Type EventType
	Date model.Date
}

// Outcome summarizes what Apply did to one entity.
type Outcome struct {
	State           model.LifecycleState
	InvalidRescinds []model.InvalidRescindError
	// RehireDates are the dates on which a new lineage begins.
	RehireDates []model.Date
}

// Apply walks an entity's lifecycle events in date order and reshapes the
// unified timeline accordingly:
//
//   - a termination with no later rehire closes the timeline the day before
//     the termination date and the entity ends Terminated;
//   - a termination matched by a rehire strictly after it produces an
//     explicit Gap segment [termination, rehire) and the segments from the
//     rehire onward start a new lineage;
//   - a rehire not strictly after its termination is an invalid rescind:
//     the termination is dropped (straight rescind, no gap), a warning is
//     logged and the case is counted for audit. Matching runs in both
//     directions, so a rehire dated before its termination is flagged the
//     same way a same-day one is.
func Apply(tl model.UnifiedTimeline, events []Event, logger *slog.Logger) (model.UnifiedTimeline, Outcome) {
	outcome := Outcome{State: model.StateActive}
	if len(tl.Segments) == 0 {
		return tl, outcome
	}

	sorted := append([]Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		// A same-day termination+rehire pair is an invalid rescind; keep
		// the termination first so it is the one inspected.
		return sorted[i].Type == EventTermination && sorted[j].Type == EventRehire
	})

	lineage := 0
	out := tl.Segments
	opening := tl.Segments[0].From
	used := make([]bool, len(sorted))

	for i := 0; i < len(sorted); i++ {
		e := sorted[i]
		if e.Type != EventTermination {
			// A rehire with no termination to pair with opens nothing; the
			// hire is already represented by the feed timeline itself.
			continue
		}

		rehire, hasRehire := matchRehire(sorted, used, i, opening)
		if hasRehire && !rehire.After(e.Date) {
			ir := model.InvalidRescindError{
				BusinessKey: tl.BusinessKey,
				Termination: e.Date,
				Rehire:      rehire,
			}
			outcome.InvalidRescinds = append(outcome.InvalidRescinds, ir)
			if logger != nil {
				logger.Warn("invalid rescind, treating as straight rescind",
					"entity", tl.BusinessKey,
					"termination", e.Date.String(),
					"rehire", rehire.String())
			}
			// Straight rescind: the termination never happened.
			continue
		}

		if !hasRehire {
			out = truncate(out, e.Date)
			outcome.State = model.StateTerminated
			break
		}

		out = insertGap(out, e.Date, rehire)
		lineage++
		relineage(out, rehire, lineage)
		outcome.RehireDates = append(outcome.RehireDates, rehire)
		outcome.State = model.StateRehired
	}

	return model.UnifiedTimeline{BusinessKey: tl.BusinessKey, Segments: out}, outcome
}

// matchRehire pairs the termination at index i with the nearest unmatched
// rehire: the first one after it in event order, or failing that the closest
// one before it. A rehire on the opening coverage boundary re-enters the
// population rather than rescinding anything, so it is never a candidate.
func matchRehire(sorted []Event, used []bool, i int, opening model.Date) (model.Date, bool) {
	for j := i + 1; j < len(sorted); j++ {
		if sorted[j].Type == EventRehire && !used[j] {
			used[j] = true
			return sorted[j].Date, true
		}
	}
	for j := i - 1; j >= 0; j-- {
		if sorted[j].Type == EventRehire && !used[j] && sorted[j].Date.After(opening) {
			used[j] = true
			return sorted[j].Date, true
		}
	}
	return model.Date{}, false
}

// truncate drops everything from the termination date on, closing the last
// surviving segment the day before it.
func truncate(segments []model.Segment, term model.Date) []model.Segment {
	var out []model.Segment
	for _, s := range segments {
		if !s.From.Before(term) {
			continue
		}
		if s.To.IsZero() || s.To.After(term) {
			s.To = term
		}
		out = append(out, s)
	}
	return out
}

// insertGap closes active coverage at term, inserts an explicit Gap segment
// [term, rehire), and clips any segment overlapping the gap so coverage
// resumes exactly at the rehire date.
func insertGap(segments []model.Segment, term, rehire model.Date) []model.Segment {
	var out []model.Segment
	var resumed map[string]string

	for _, s := range segments {
		switch {
		case !s.To.IsZero() && !s.To.After(term):
			// Entirely before the gap.
			out = append(out, s)
		case !s.From.Before(rehire):
			// Entirely after the gap.
			out = append(out, s)
		default:
			// Overlaps the gap; split around it.
			if s.From.Before(term) {
				left := s
				left.To = term
				out = append(out, left)
			}
			if s.To.IsZero() || s.To.After(rehire) {
				right := s
				right.From = rehire
				out = append(out, right)
			} else if resumed == nil {
				// The attribute state in force when the gap closed; used
				// only if no segment survives at the rehire date.
				resumed = s.Attributes
			}
		}
	}

	gap := model.Segment{From: term, To: rehire, Gap: true}

	// Find the insert position to keep segments ordered by From.
	idx := sort.Search(len(out), func(i int) bool {
		return out[i].From.After(term) || out[i].From.Equal(term)
	})
	out = append(out, model.Segment{})
	copy(out[idx+1:], out[idx:])
	out[idx] = gap

	// If the gap swallowed all trailing coverage, resume at the rehire date
	// with the last known attribute state.
	if idx == len(out)-1 && resumed != nil {
		out = append(out, model.Segment{From: rehire, Attributes: resumed})
	}
	return out
}

// relineage stamps the new lineage number on every non-gap segment from the
// rehire date onward.
func relineage(segments []model.Segment, rehire model.Date, lineage int) {
	for i := range segments {
		if !segments[i].Gap && !segments[i].From.Before(rehire) {
			segments[i].Lineage = lineage
		}
	}
}
