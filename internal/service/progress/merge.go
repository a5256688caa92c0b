package progress

import (
	"sort"

	"github.com/syh52/lexicon-srs/internal/domain"
)

// Merge reconciles two independently-evolved copies of session progress
// into one consistent state.
//
// The copy with the higher completed count becomes the base; the other
// history is unioned in by item ID with first occurrence winning, then
// the merged history is re-sorted by timestamp and the counters are
// recomputed from it. Because choice histories are append-only and the
// union is monotonic in history length, Merge is idempotent
// (Merge(x,x) == x) and order-insensitive up to timestamp ordering,
// which makes it safe to run repeatedly and concurrently with new local
// writes.
func Merge(a, b *domain.SessionState) *domain.SessionState {
	if a == nil {
		return b.Clone()
	}
	if b == nil {
		return a.Clone()
	}

	base, other := a, b
	if b.CompletedCount > a.CompletedCount {
		base, other = b, a
	}

	merged := base.Clone()

	seen := make(map[string]bool, len(base.ChoiceHistory))
	for _, record := range base.ChoiceHistory {
		seen[record.ItemID] = true
	}
	for _, record := range other.ChoiceHistory {
		if !seen[record.ItemID] {
			seen[record.ItemID] = true
			merged.ChoiceHistory = append(merged.ChoiceHistory, record)
		}
	}

	sort.SliceStable(merged.ChoiceHistory, func(i, j int) bool {
		return merged.ChoiceHistory[i].Timestamp.Before(merged.ChoiceHistory[j].Timestamp)
	})

	merged.CompletedCount = len(merged.ChoiceHistory)
	merged.IsCompleted = len(merged.ItemSequence) > 0 &&
		merged.CompletedCount >= len(merged.ItemSequence)

	// Know/Hint counters are derivable from the merged history. Unknown
	// submissions leave no history records, so the larger counter wins.
	counts := make(map[domain.Choice]int, 3)
	for _, record := range merged.ChoiceHistory {
		counts[record.Choice]++
	}
	unknown := base.ChoiceCounts[domain.ChoiceUnknown]
	if other.ChoiceCounts[domain.ChoiceUnknown] > unknown {
		unknown = other.ChoiceCounts[domain.ChoiceUnknown]
	}
	if unknown > 0 {
		counts[domain.ChoiceUnknown] = unknown
	}
	merged.ChoiceCounts = counts

	if other.LastUpdateTime.After(merged.LastUpdateTime) {
		merged.LastUpdateTime = other.LastUpdateTime
	}

	return merged
}
