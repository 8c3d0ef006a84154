// Package temporal merges per-feed timelines describing facets of the same
// entity into one unified attribute timeline using interval overlap.
package temporal

import (
	"sort"

	"github.com/groblegark/hrmart/internal/model"
)

// Join produces a unified timeline for one entity from its resolved per-feed
// timelines. Segment boundaries are the union of all feeds' effective dates;
// between adjacent boundaries each feed contributes its most-recently
// effective event (an as-of lookup), and the payloads are merged in the
// order the timelines are given, later feeds overriding shared field names.
//
// A feed with no record active in a sub-interval simply contributes no
// fields there; the segment is kept with the other feeds' attributes. The
// final segment is open-ended. One-day segments arising from boundary
// disagreements between feeds are preserved, never coalesced: they are a
// real, if brief, distinct state.
func Join(businessKey string, feeds []model.Timeline) model.UnifiedTimeline {
	boundaries := boundaryUnion(feeds)
	if len(boundaries) == 0 {
		return model.UnifiedTimeline{BusinessKey: businessKey}
	}

	segments := make([]model.Segment, 0, len(boundaries))
	for i, from := range boundaries {
		var to model.Date
		if i+1 < len(boundaries) {
			to = boundaries[i+1]
		}

		attrs := make(map[string]string)
		populated := false
		for _, tl := range feeds {
			if ev, ok := asOf(tl, from); ok {
				for k, v := range ev.Attributes {
					attrs[k] = v
				}
				populated = true
			}
		}
		// Nothing active yet: boundaries before the first event of every
		// feed cannot occur (boundaries come from the events themselves),
		// but guard anyway.
		if !populated {
			continue
		}
		segments = append(segments, model.Segment{From: from, To: to, Attributes: attrs})
	}

	return model.UnifiedTimeline{BusinessKey: businessKey, Segments: segments}
}

// boundaryUnion collects the sorted, de-duplicated set of effective dates
// across all input timelines.
func boundaryUnion(feeds []model.Timeline) []model.Date {
	seen := make(map[int]model.Date)
	for _, tl := range feeds {
		for _, ev := range tl.Events {
			seen[ev.EffectiveDate.Key()] = ev.EffectiveDate
		}
	}

	keys := make([]int, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	dates := make([]model.Date, len(keys))
	for i, k := range keys {
		dates[i] = seen[k]
	}
	return dates
}

// asOf returns the latest event in a resolved timeline whose effective date
// is on or before d.
func asOf(tl model.Timeline, d model.Date) (model.ChangeEvent, bool) {
	// Events are sorted ascending by effective date and unique per date
	// after tie-break resolution.
	idx := sort.Search(len(tl.Events), func(i int) bool {
		return tl.Events[i].EffectiveDate.After(d)
	})
	if idx == 0 {
		return model.ChangeEvent{}, false
	}
	return tl.Events[idx-1], true
}
