package progress_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/service/progress"
)

func TestMergeNilSides(t *testing.T) {
	t.Parallel()

	state := stateAt(uuid.New(), "cet4", 2, baseTime)

	assert.Equal(t, state.CompletedCount, progress.Merge(state, nil).CompletedCount)
	assert.Equal(t, state.CompletedCount, progress.Merge(nil, state).CompletedCount)
}

func TestMergeIdempotent(t *testing.T) {
	t.Parallel()

	state := stateAt(uuid.New(), "cet4", 4, baseTime)
	merged := progress.Merge(state, state)

	assert.Equal(t, state.SessionID, merged.SessionID)
	assert.Equal(t, state.CompletedCount, merged.CompletedCount)
	assert.Equal(t, state.ChoiceHistory, merged.ChoiceHistory)
}

func TestMergeCommutative(t *testing.T) {
	t.Parallel()

	learnerID := uuid.New()
	a := stateAt(learnerID, "cet4", 3, baseTime.Add(5*time.Minute))
	b := a.Clone()
	b.ChoiceHistory = append(b.ChoiceHistory, domain.ChoiceRecord{
		ItemID:    itemID(5),
		Choice:    domain.ChoiceHint,
		Timestamp: baseTime.Add(9 * time.Minute),
	})
	b.CompletedCount = 4
	b.LastUpdateTime = baseTime.Add(9 * time.Minute)

	ab := progress.Merge(a, b)
	ba := progress.Merge(b, a)

	assert.Equal(t, ab.CompletedCount, ba.CompletedCount)
	assert.Equal(t, ab.ChoiceHistory, ba.ChoiceHistory)
	assert.Equal(t, ab.LastUpdateTime, ba.LastUpdateTime)
}

func TestMergeUnionsDistinctItems(t *testing.T) {
	t.Parallel()

	learnerID := uuid.New()
	shared := stateAt(learnerID, "cet4", 2, baseTime)

	a := shared.Clone()
	a.ChoiceHistory = append(a.ChoiceHistory, domain.ChoiceRecord{
		ItemID:    itemID(2),
		Choice:    domain.ChoiceKnow,
		Timestamp: baseTime.Add(3 * time.Minute),
	})
	a.CompletedCount = 3

	b := shared.Clone()
	b.ChoiceHistory = append(b.ChoiceHistory, domain.ChoiceRecord{
		ItemID:    itemID(3),
		Choice:    domain.ChoiceHint,
		Timestamp: baseTime.Add(2 * time.Minute),
	})
	b.CompletedCount = 3

	merged := progress.Merge(a, b)

	require.Len(t, merged.ChoiceHistory, 4)
	assert.Equal(t, 4, merged.CompletedCount, "count recomputed from merged history")

	// History re-sorted by timestamp: b's record at +2m precedes a's at +3m.
	assert.Equal(t, itemID(3), merged.ChoiceHistory[2].ItemID)
	assert.Equal(t, itemID(2), merged.ChoiceHistory[3].ItemID)
}

func TestMergeFirstOccurrenceWinsPerItem(t *testing.T) {
	t.Parallel()

	learnerID := uuid.New()
	a := stateAt(learnerID, "cet4", 3, baseTime)

	b := a.Clone()
	b.ChoiceHistory[1].Choice = domain.ChoiceHint // conflicting choice for same item
	b.CompletedCount = 2
	b.ChoiceHistory = b.ChoiceHistory[:2]

	merged := progress.Merge(a, b)

	require.Len(t, merged.ChoiceHistory, 3)
	assert.Equal(t, domain.ChoiceKnow, merged.ChoiceHistory[1].Choice,
		"base side's record kept when both recorded the same item")
}

func TestMergeRecomputesCompletion(t *testing.T) {
	t.Parallel()

	learnerID := uuid.New()
	a := stateAt(learnerID, "cet4", 9, baseTime)
	a.ItemSequence = a.ItemSequence[:10]

	b := a.Clone()
	b.ChoiceHistory = append(b.ChoiceHistory, domain.ChoiceRecord{
		ItemID:    itemID(9),
		Choice:    domain.ChoiceKnow,
		Timestamp: baseTime.Add(time.Hour),
	})
	b.CompletedCount = 10
	b.LastUpdateTime = baseTime.Add(time.Hour)

	merged := progress.Merge(a, b)

	assert.Equal(t, 10, merged.CompletedCount)
	assert.True(t, merged.IsCompleted, "full history marks the session completed")
	assert.Equal(t, b.LastUpdateTime, merged.LastUpdateTime)
}

func TestMergeKeepsLargerUnknownCount(t *testing.T) {
	t.Parallel()

	learnerID := uuid.New()
	a := stateAt(learnerID, "cet4", 2, baseTime)
	a.ChoiceCounts[domain.ChoiceUnknown] = 4

	b := a.Clone()
	b.ChoiceCounts[domain.ChoiceUnknown] = 1

	merged := progress.Merge(a, b)
	assert.Equal(t, 4, merged.ChoiceCounts[domain.ChoiceUnknown])
}
