package timeline

import (
	"github.com/groblegark/hrmart/internal/model"
)

// PolicyID names the tie-break policy implemented by Resolve. It is recorded
// on every run report so behavior changes stay traceable.
const PolicyID = "max-entry/v1"

// Resolve collapses a sorted timeline so exactly one authoritative event
// survives per effective date: the event with the latest entry timestamp,
// ties broken by the lowest sequence number. Tied events that cannot be
// separated, either because a sequence number is missing or because the
// sequence numbers are equal, fail closed with AmbiguousTiebreakError
// rather than guessing; guessing risks corrupting dimension history.
func Resolve(tl model.Timeline) (model.Timeline, error) {
	if len(tl.Events) == 0 {
		return tl, nil
	}

	resolved := make([]model.ChangeEvent, 0, len(tl.Events))
	i := 0
	for i < len(tl.Events) {
		j := i + 1
		for j < len(tl.Events) && tl.Events[j].EffectiveDate.Equal(tl.Events[i].EffectiveDate) {
			j++
		}

		winner, err := pick(tl.Events[i:j])
		if err != nil {
			return model.Timeline{}, err
		}
		resolved = append(resolved, winner)
		i = j
	}

	return model.Timeline{Feed: tl.Feed, BusinessKey: tl.BusinessKey, Events: resolved}, nil
}

// pick selects the authoritative event among same-day candidates. The slice
// is already ordered (entry desc, sequence asc), so the winner is the first
// element; the scan below only verifies the tie is decidable.
func pick(candidates []model.ChangeEvent) (model.ChangeEvent, error) {
	winner := candidates[0]
	for _, c := range candidates[1:] {
		if !c.EntryTimestamp.Equal(winner.EntryTimestamp) {
			break
		}
		if !winner.HasSequence || !c.HasSequence || c.SequenceNumber == winner.SequenceNumber {
			return model.ChangeEvent{}, &model.AmbiguousTiebreakError{
				Feed:           winner.Feed,
				BusinessKey:    winner.BusinessKey,
				EffectiveDate:  winner.EffectiveDate,
				EntryTimestamp: winner.EntryTimestamp,
			}
		}
	}
	return winner, nil
}
