package session

import (
	"github.com/syh52/lexicon-srs/internal/domain"
)

// Restore replays a persisted choice history against a freshly
// constructed session, bringing it to the recorded resume point.
//
// Replay is tolerant of reordering: plans regenerated on another device
// may sequence items differently, so instead of demanding positional
// alignment the replay resolves each current item against the recorded
// choice for that item ID and stops at the first item with no record;
// that item becomes the resume point. The session adopts the persisted
// identity so subsequent saves keep updating the same state.
func Restore(state *domain.SessionState, fresh *StudySession) error {
	if state == nil || fresh == nil {
		return domain.ErrValidation
	}

	byItem := make(map[string]domain.ChoiceRecord, len(state.ChoiceHistory))
	for _, record := range state.ChoiceHistory {
		if _, seen := byItem[record.ItemID]; !seen {
			byItem[record.ItemID] = record
		}
	}

	for {
		current := fresh.CurrentCard()
		if current == nil {
			break
		}
		record, ok := byItem[current.ItemID]
		if !ok {
			break
		}
		if _, err := fresh.SubmitChoice(record.Choice, record.Timestamp); err != nil {
			return err
		}
	}

	fresh.id = state.SessionID
	fresh.startTime = state.StartTime
	if state.LastUpdateTime.After(fresh.lastUpdate) {
		fresh.lastUpdate = state.LastUpdateTime
	}

	// Unknown counts cannot be reconstructed from the history (it only
	// records resolving choices), so carry the persisted counters for
	// the choices already replayed.
	for choice, n := range state.ChoiceCounts {
		if n > fresh.counts[choice] {
			fresh.counts[choice] = n
		}
	}

	return nil
}
