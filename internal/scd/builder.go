package scd

import (
	"time"

	"github.com/groblegark/hrmart/internal/model"
)

// Builder emits SCD2 records for one dimension. Tracked names the attribute
// subset that participates in hashing; everything else on a segment is
// carried on the record but never versions it.
type Builder struct {
	Dimension string
	Tracked   []string
	BatchID   string
	LoadedAt  time.Time
}

// Build walks a unified timeline and returns the dimension's version set for
// that entity. A new version opens when the content hash changes, when a new
// lineage begins (rehire after a gap), or on the first segment; the previous
// version is closed in the same step, so the returned set never overlaps.
// Gap segments emit nothing: the gap is represented by the absence of a
// covering record.
//
// Callers persist the returned set atomically per entity; a close without
// its paired insert must never be observable.
func (b *Builder) Build(tl model.UnifiedTimeline) []*model.DimensionRecord {
	var (
		records  []*model.DimensionRecord
		current  *model.DimensionRecord
		prevHash string
	)

	closeCurrent := func(to model.Date) {
		if current != nil {
			current.ValidTo = to.AddDays(-1)
			current.IsCurrent = false
			current = nil
		}
	}

	for _, seg := range tl.Segments {
		if seg.Gap {
			closeCurrent(seg.From)
			prevHash = ""
			continue
		}

		hash := HashDiff(seg.Attributes, b.Tracked)
		if current != nil && hash == prevHash && seg.Lineage == current.Lineage {
			// Same content: extend the open version across this segment.
			if seg.To.IsZero() {
				current.ValidTo = model.Date{}
			} else {
				current.ValidTo = seg.To.AddDays(-1)
			}
			continue
		}

		closeCurrent(seg.From)

		rec := &model.DimensionRecord{
			Dimension:   b.Dimension,
			BusinessKey: tl.BusinessKey,
			Attributes:  copyTracked(seg.Attributes, b.Tracked),
			HashDiff:    hash,
			ValidFrom:   seg.From,
			IsCurrent:   true,
			Lineage:     seg.Lineage,
			BatchID:     b.BatchID,
			LoadedAt:    b.LoadedAt,
		}
		if !seg.To.IsZero() {
			rec.ValidTo = seg.To.AddDays(-1)
		}
		records = append(records, rec)
		current = rec
		prevHash = hash
	}

	// Only an open-ended final version stays current; a timeline closed by
	// a termination leaves no current record for this business key.
	if len(records) > 0 {
		last := records[len(records)-1]
		if !last.ValidTo.IsZero() {
			last.IsCurrent = false
		}
	}
	return records
}

func copyTracked(attrs map[string]string, tracked []string) map[string]string {
	out := make(map[string]string, len(tracked))
	for _, name := range tracked {
		if v, ok := attrs[name]; ok {
			out[name] = v
		}
	}
	return out
}
