// Package timeline groups normalized change events into per-entity
// timelines and collapses competing same-day submissions down to one
// authoritative event per (entity, effective date).
package timeline

import (
	"sort"

	"github.com/groblegark/hrmart/internal/model"
)

// Build groups events by (feed, business key) and sorts each group by
// (effective_date asc, entry_timestamp desc, sequence_number asc). The
// resulting timelines are returned in a deterministic order regardless of
// input order.
func Build(events []model.ChangeEvent) []model.Timeline {
	type groupKey struct {
		feed model.FeedID
		key  string
	}

	groups := make(map[groupKey][]model.ChangeEvent)
	for _, ev := range events {
		k := groupKey{feed: ev.Feed, key: ev.BusinessKey}
		groups[k] = append(groups[k], ev)
	}

	timelines := make([]model.Timeline, 0, len(groups))
	for k, evs := range groups {
		sortEvents(evs)
		timelines = append(timelines, model.Timeline{
			Feed:        k.feed,
			BusinessKey: k.key,
			Events:      evs,
		})
	}

	sort.Slice(timelines, func(i, j int) bool {
		if timelines[i].Feed != timelines[j].Feed {
			return timelines[i].Feed < timelines[j].Feed
		}
		return timelines[i].BusinessKey < timelines[j].BusinessKey
	})
	return timelines
}

func sortEvents(evs []model.ChangeEvent) {
	sort.SliceStable(evs, func(i, j int) bool {
		a, b := evs[i], evs[j]
		if !a.EffectiveDate.Equal(b.EffectiveDate) {
			return a.EffectiveDate.Before(b.EffectiveDate)
		}
		if !a.EntryTimestamp.Equal(b.EntryTimestamp) {
			return a.EntryTimestamp.After(b.EntryTimestamp)
		}
		return a.SequenceNumber < b.SequenceNumber
	})
}
