package fact

import (
	"sort"
	"strconv"

	"github.com/groblegark/hrmart/internal/lifecycle"
	"github.com/groblegark/hrmart/internal/model"
)

// Classifier decides which movement a segment transition represents by
// comparing attribute fields between the old and new state.
type Classifier struct {
	// PromotionFields version a worker upward when changed (grade, job
	// profile); TransferFields mark organizational moves.
	PromotionFields []string
	TransferFields  []string
}

// Classify returns the movement type for a transition from prev to next.
// Promotion takes precedence over transfer when both field groups change,
// matching how the source system records a promotion with a simultaneous
// org move.
func (c Classifier) Classify(prev, next map[string]string) model.MovementType {
	for _, f := range c.PromotionFields {
		if prev[f] != next[f] {
			return model.MovementPromotion
		}
	}
	for _, f := range c.TransferFields {
		if prev[f] != next[f] {
			return model.MovementTransfer
		}
	}
	return model.MovementChange
}

// Builder emits movement facts from unified timelines with every related
// dimension's surrogate key resolved as of the event date.
type Builder struct {
	Index      *AsOfIndex
	Classifier Classifier
	Dimensions []string
	// Measures are numeric attribute fields copied onto each fact from
	// the segment state in force on the effective date.
	Measures []string
	BatchID  string
}

// Movements walks an entity's post-lifecycle timeline and emits one fact
// per transition: a hire (or rehire) for the opening segment of each
// lineage, a termination when coverage closes into a gap or ends, and a
// classified movement for every attribute change in between. An
// unresolvable dimension reference is recorded on the fact and counted, not
// raised.
func (b *Builder) Movements(tl model.UnifiedTimeline, outcome lifecycle.Outcome) []*model.MovementFact {
	var facts []*model.MovementFact

	var prev *model.Segment
	for i := range tl.Segments {
		seg := tl.Segments[i]
		if seg.Gap {
			// The termination fact carries the state in force when
			// coverage closed.
			var closed map[string]string
			if prev != nil {
				closed = prev.Attributes
			}
			facts = append(facts, b.fact(tl.BusinessKey, seg.From, model.MovementTermination, seg.From.AddDays(-1), closed))
			prev = nil
			continue
		}

		switch {
		case prev == nil && seg.Lineage == 0:
			facts = append(facts, b.fact(tl.BusinessKey, seg.From, model.MovementHire, seg.From, seg.Attributes))
		case prev == nil:
			facts = append(facts, b.fact(tl.BusinessKey, seg.From, model.MovementRehire, seg.From, seg.Attributes))
		default:
			movement := b.Classifier.Classify(prev.Attributes, seg.Attributes)
			facts = append(facts, b.fact(tl.BusinessKey, seg.From, movement, seg.From, seg.Attributes))
		}
		prev = &tl.Segments[i]
	}

	// A timeline closed without a gap ended in a terminal termination.
	if outcome.State == model.StateTerminated && len(tl.Segments) > 0 {
		last := tl.Segments[len(tl.Segments)-1]
		if !last.Gap && !last.To.IsZero() {
			facts = append(facts, b.fact(tl.BusinessKey, last.To, model.MovementTermination, last.To.AddDays(-1), last.Attributes))
		}
	}

	for _, f := range facts {
		switch f.Movement {
		case model.MovementHire, model.MovementRehire:
			f.HireCount = 1
		case model.MovementTermination:
			f.TerminationCount = 1
		case model.MovementPromotion:
			f.PromotionCount = 1
		}
	}
	return facts
}

// fact builds one movement fact, resolving each dimension as of resolveOn.
// Termination facts resolve against the day before the termination, the
// last day the closed version was true. Configured measure fields are
// parsed out of attrs; values that are absent or not numeric are skipped.
func (b *Builder) fact(businessKey string, effective model.Date, movement model.MovementType, resolveOn model.Date, attrs map[string]string) *model.MovementFact {
	f := &model.MovementFact{
		BusinessKey:   businessKey,
		EffectiveDate: effective,
		DateKey:       effective.Key(),
		Movement:      movement,
		Keys:          make(map[string]int64, len(b.Dimensions)),
		BatchID:       b.BatchID,
	}
	for _, dim := range b.Dimensions {
		key, ok := b.Index.Resolve(dim, businessKey, resolveOn)
		if !ok {
			f.Unresolved = append(f.Unresolved, dim)
			continue
		}
		f.Keys[dim] = key
	}
	sort.Strings(f.Unresolved)
	for _, field := range b.Measures {
		v, err := strconv.ParseFloat(attrs[field], 64)
		if err != nil {
			continue
		}
		if f.Measures == nil {
			f.Measures = make(map[string]float64, len(b.Measures))
		}
		f.Measures[field] = v
	}
	return f
}
