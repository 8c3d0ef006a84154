// Package restate replays unified timelines across a calendar grid and
// emits point-in-time headcount snapshot facts.
package restate

import (
	"sort"
	"time"

	"github.com/groblegark/hrmart/internal/fact"
	"github.com/groblegark/hrmart/internal/model"
)

// MonthEnds returns the month-end dates for the trailing months window
// ending at the month containing until, oldest first.
func MonthEnds(until model.Date, months int) []model.Date {
	if months <= 0 {
		return nil
	}
	y, m, _ := until.Time().Date()

	dates := make([]model.Date, 0, months)
	for i := months - 1; i >= 0; i-- {
		d := time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		dates = append(dates, model.MonthEnd(d.Year(), d.Month()))
	}
	return dates
}

// Generator produces snapshot facts for a configured grid of dates.
type Generator struct {
	Index      *fact.AsOfIndex
	Dimensions []string
	BatchID    string
}

// Snapshots emits one fact per (entity, grid date) where the entity's
// unified timeline is active on that date. The generator is a pure function
// of its inputs: output is sorted by (date, business key), carries no
// wall-clock values, and contains no duplicates, so re-running it over the
// same timelines and grid yields an identical fact set.
func (g *Generator) Snapshots(timelines []model.UnifiedTimeline, grid []model.Date) []*model.SnapshotFact {
	ordered := append([]model.UnifiedTimeline(nil), timelines...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].BusinessKey < ordered[j].BusinessKey
	})

	var facts []*model.SnapshotFact
	for _, d := range grid {
		for _, tl := range ordered {
			if !tl.ActiveOn(d) {
				continue
			}
			f := &model.SnapshotFact{
				BusinessKey:  tl.BusinessKey,
				SnapshotDate: d,
				DateKey:      d.Key(),
				Keys:         make(map[string]int64, len(g.Dimensions)),
				Headcount:    1,
				BatchID:      g.BatchID,
			}
			for _, dim := range g.Dimensions {
				key, ok := g.Index.Resolve(dim, tl.BusinessKey, d)
				if !ok {
					f.Unresolved = append(f.Unresolved, dim)
					continue
				}
				f.Keys[dim] = key
			}
			sort.Strings(f.Unresolved)
			facts = append(facts, f)
		}
	}
	return facts
}
