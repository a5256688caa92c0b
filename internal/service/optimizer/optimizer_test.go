package optimizer_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/service/optimizer"
)

var analysisStart = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

// sessionWith builds one finished-or-not session of n graded choices,
// knownRatio of them Know and the rest Hint, lasting the given duration.
func sessionWith(day int, n int, known int, completed bool, duration time.Duration) *domain.SessionState {
	start := analysisStart.AddDate(0, 0, day)
	history := make([]domain.ChoiceRecord, n)
	sequence := make([]string, n)
	for i := range history {
		choice := domain.ChoiceHint
		if i < known {
			choice = domain.ChoiceKnow
		}
		id := fmt.Sprintf("d%d-item-%02d", day, i)
		sequence[i] = id
		history[i] = domain.ChoiceRecord{
			ItemID:    id,
			Choice:    choice,
			Timestamp: start.Add(time.Duration(i) * time.Second),
		}
	}
	return &domain.SessionState{
		SessionID:      uuid.New(),
		LearnerID:      uuid.New(),
		CatalogID:      "cet4",
		ItemSequence:   sequence,
		CompletedCount: n,
		ChoiceHistory:  history,
		ChoiceCounts:   map[domain.Choice]int{},
		StartTime:      start,
		LastUpdateTime: start.Add(duration),
		IsCompleted:    completed,
	}
}

// reviewCards marks every item of the given sessions as pre-existing so
// its choices grade the review category.
func reviewCards(states ...*domain.SessionState) map[string]*domain.Card {
	cards := make(map[string]*domain.Card)
	for _, s := range states {
		for _, r := range s.ChoiceHistory {
			cards[r.ItemID] = &domain.Card{
				ItemID:    r.ItemID,
				CreatedAt: s.StartTime.AddDate(0, 0, -30),
			}
		}
	}
	return cards
}

func targets() domain.StudyTargets {
	return domain.StudyTargets{DailyNewCount: 10, DailyReviewCount: 20, DailyTotal: 30}
}

func TestNoSessionsNoRecommendations(t *testing.T) {
	t.Parallel()

	a := optimizer.NewAnalyzer(nil)
	m, recs := a.Analyze(nil, nil, targets())
	assert.Zero(t, m.SessionCount)
	assert.Empty(t, recs)
}

func TestLowConfidenceSuppressesRecommendations(t *testing.T) {
	t.Parallel()

	// One short failed session: a clear reduce-load signal, but far too
	// little data to act on.
	states := []*domain.SessionState{sessionWith(0, 4, 4, false, 5*time.Minute)}

	a := optimizer.NewAnalyzer(nil)
	m, recs := a.Analyze(states, reviewCards(states...), targets())
	assert.Less(t, m.Confidence, 70)
	assert.Empty(t, recs, "noisy single-session data must not adjust targets")
}

func TestLowCompletionReducesDailyLoad(t *testing.T) {
	t.Parallel()

	var states []*domain.SessionState
	for day := 0; day < 8; day++ {
		states = append(states, sessionWith(day, 20, 20, day < 2, 40*time.Minute))
	}

	a := optimizer.NewAnalyzer(nil)
	m, recs := a.Analyze(states, reviewCards(states...), targets())
	require.GreaterOrEqual(t, m.Confidence, 70)
	assert.InDelta(t, 0.25, m.CompletionRate, 0.001)

	require.NotEmpty(t, recs)
	rec := recs[0]
	assert.Less(t, rec.Targets.DailyTotal, 30, "daily total reduced")
	assert.LessOrEqual(t, rec.Targets.DailyReviewCount, rec.Targets.DailyTotal)
	assert.GreaterOrEqual(t, rec.Confidence, 70)
}

func TestStrongHistoryRaisesLoad(t *testing.T) {
	t.Parallel()

	var states []*domain.SessionState
	for day := 0; day < 8; day++ {
		states = append(states, sessionWith(day, 20, 20, true, 10*time.Minute))
	}

	a := optimizer.NewAnalyzer(nil)
	m, recs := a.Analyze(states, reviewCards(states...), targets())
	require.GreaterOrEqual(t, m.Confidence, 70)
	assert.Equal(t, 1.0, m.CompletionRate)

	require.Len(t, recs, 1)
	assert.Greater(t, recs[0].Targets.DailyTotal, 30, "quick reliable sessions grow the load")
	assert.Greater(t, recs[0].Targets.DailyNewCount, 10)
}

func TestWeakNewRecallReducesNewCount(t *testing.T) {
	t.Parallel()

	var states []*domain.SessionState
	for day := 0; day < 8; day++ {
		// Half the items graded Know, half Hint: 50% unaided success.
		states = append(states, sessionWith(day, 20, 10, true, 25*time.Minute))
	}

	// No cards at all: every item counts as new in its session.
	a := optimizer.NewAnalyzer(nil)
	m, recs := a.Analyze(states, nil, targets())
	require.GreaterOrEqual(t, m.Confidence, 70)
	assert.InDelta(t, 0.5, m.NewSuccessRate, 0.001)
	assert.Equal(t, 160, m.NewSampleSize)
	assert.Zero(t, m.ReviewSampleSize)

	require.Len(t, recs, 1)
	assert.Less(t, recs[0].Targets.DailyNewCount, 10)
	assert.Equal(t, 30, recs[0].Targets.DailyTotal, "total untouched")
}

func TestWeakReviewRecallShiftsSlots(t *testing.T) {
	t.Parallel()

	var states []*domain.SessionState
	for day := 0; day < 8; day++ {
		states = append(states, sessionWith(day, 20, 10, true, 25*time.Minute))
	}

	a := optimizer.NewAnalyzer(nil)
	m, recs := a.Analyze(states, reviewCards(states...), targets())
	require.GreaterOrEqual(t, m.Confidence, 70)
	assert.InDelta(t, 0.5, m.ReviewSuccessRate, 0.001)

	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Less(t, rec.Targets.DailyNewCount, 10)
	assert.Greater(t, rec.Targets.DailyReviewCount, 20, "slots move from new to review")
	assert.Equal(t, 30, rec.Targets.DailyNewCount+rec.Targets.DailyReviewCount,
		"combined category targets preserved")
}

func TestMetricsAverageDuration(t *testing.T) {
	t.Parallel()

	states := []*domain.SessionState{
		sessionWith(0, 5, 5, true, 10*time.Minute),
		sessionWith(1, 5, 5, true, 20*time.Minute),
	}

	a := optimizer.NewAnalyzer(nil)
	m, _ := a.Analyze(states, reviewCards(states...), targets())
	assert.Equal(t, 15*time.Minute, m.AverageSessionDuration)
}
