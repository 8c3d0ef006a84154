package model

// Timeline is the ordered sequence of ChangeEvents for one business key
// within one feed, sorted by (effective_date, entry_timestamp desc,
// sequence_number asc). After tie-break resolution exactly one event
// survives per effective date.
type Timeline struct {
	Feed        FeedID
	BusinessKey string
	Events      []ChangeEvent
}

// Segment is one validity interval [From, To) of a unified timeline with the
// merged attribute set in force during it. A zero To means open-ended. A Gap
// segment carries no attributes and marks a period with no assignment
// (between a termination and a rehire).
type Segment struct {
	From       Date
	To         Date
	Attributes map[string]string
	Gap        bool
	// Lineage distinguishes dimension lineages for the same business key:
	// a rehire after a gap starts a new lineage rather than resurrecting
	// the old one.
	Lineage int
}

// Contains reports whether the segment's interval covers the given date.
func (s Segment) Contains(d Date) bool {
	if d.Before(s.From) {
		return false
	}
	return s.To.IsZero() || d.Before(s.To)
}

// UnifiedTimeline is the temporal join of one entity's per-feed timelines:
// contiguous, non-overlapping segments ordered by From, with gaps explicit.
type UnifiedTimeline struct {
	BusinessKey string
	Segments    []Segment
}

// ActiveOn reports whether the entity has a non-gap segment covering d.
func (u UnifiedTimeline) ActiveOn(d Date) bool {
	for _, s := range u.Segments {
		if !s.Gap && s.Contains(d) {
			return true
		}
	}
	return false
}

// SegmentAt returns the segment covering d, if any.
func (u UnifiedTimeline) SegmentAt(d Date) (Segment, bool) {
	for _, s := range u.Segments {
		if s.Contains(d) {
			return s, true
		}
	}
	return Segment{}, false
}
