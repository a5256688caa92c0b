package srs_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/domain/srs"
)

func TestNewCardDefaults(t *testing.T) {
	t.Parallel()
	svc := srs.NewService(nil)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	learnerID := uuid.New()

	card := svc.NewCard(learnerID, "apple", now)

	assert.Equal(t, learnerID, card.LearnerID)
	assert.Equal(t, "apple", card.ItemID)
	assert.Equal(t, 0, card.Repetitions)
	assert.Equal(t, 2.5, card.EaseFactor)
	assert.Equal(t, 0, card.IntervalDays)
	assert.Equal(t, now, card.NextReviewAt)
	assert.Equal(t, domain.CardStatusNew, card.Status)
	assert.Nil(t, card.LastReviewAt)
	assert.True(t, svc.IsDue(card, now), "new card must be due immediately")
}

// TestConsecutiveKnowSequence verifies that a new card answered Know
// four times, one day apart, produces intervals [1, 6, >6, >previous].
func TestConsecutiveKnowSequence(t *testing.T) {
	t.Parallel()
	svc := srs.NewService(nil)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	card := svc.NewCard(uuid.New(), "apple", now)

	var intervals []int
	for i := 0; i < 4; i++ {
		now = now.AddDate(0, 0, 1)
		card = svc.ProcessReview(card, domain.ChoiceKnow, now)
		intervals = append(intervals, card.IntervalDays)
	}

	require.Len(t, intervals, 4)
	assert.Equal(t, 1, intervals[0])
	assert.Equal(t, 6, intervals[1])
	assert.Greater(t, intervals[2], 6)
	assert.Greater(t, intervals[3], intervals[2])
}

// TestUnknownThenKnow verifies that choices [Unknown, Know] yield
// repetitions [0, 1] and intervals [1, 1].
func TestUnknownThenKnow(t *testing.T) {
	t.Parallel()
	svc := srs.NewService(nil)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	card := svc.NewCard(uuid.New(), "apple", now)

	card = svc.ProcessReview(card, domain.ChoiceUnknown, now)
	assert.Equal(t, 0, card.Repetitions)
	assert.Equal(t, 1, card.IntervalDays)

	now = now.AddDate(0, 0, 1)
	card = svc.ProcessReview(card, domain.ChoiceKnow, now)
	assert.Equal(t, 1, card.Repetitions)
	assert.Equal(t, 1, card.IntervalDays)
}

// TestEaseFactorNeverBelowFloor drives a card through a hostile choice
// sequence and asserts the 1.3 floor invariant holds throughout.
func TestEaseFactorNeverBelowFloor(t *testing.T) {
	t.Parallel()
	svc := srs.NewService(nil)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	card := svc.NewCard(uuid.New(), "apple", now)
	sequence := []domain.Choice{
		domain.ChoiceHint, domain.ChoiceHint, domain.ChoiceHint,
		domain.ChoiceUnknown, domain.ChoiceHint, domain.ChoiceHint,
		domain.ChoiceHint, domain.ChoiceHint, domain.ChoiceUnknown,
		domain.ChoiceHint, domain.ChoiceHint, domain.ChoiceKnow,
	}

	for i, choice := range sequence {
		now = now.AddDate(0, 0, 1)
		card = svc.ProcessReview(card, choice, now)
		require.GreaterOrEqual(t, card.EaseFactor, 1.3,
			"ease factor fell below floor after choice %d (%s)", i, choice)
	}
}

// TestHintHybridSemantics pins the intentional hybrid: Hint increments
// repetitions like a successful recall while lowering the ease factor.
func TestHintHybridSemantics(t *testing.T) {
	t.Parallel()
	svc := srs.NewService(nil)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	card := svc.NewCard(uuid.New(), "apple", now)
	before := card.EaseFactor

	card = svc.ProcessReview(card, domain.ChoiceHint, now)

	assert.Equal(t, 1, card.Repetitions, "Hint counts as recalled")
	assert.Less(t, card.EaseFactor, before, "Hint lowers the ease factor")
}

func TestStatusDerivation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		repetitions int
		expected    domain.CardStatus
	}{
		{0, domain.CardStatusNew},
		{1, domain.CardStatusLearning},
		{2, domain.CardStatusLearning},
		{3, domain.CardStatusReview},
		{5, domain.CardStatusReview},
		{6, domain.CardStatusMastered},
		{12, domain.CardStatusMastered},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, domain.StatusFromRepetitions(tc.repetitions),
			"repetitions=%d", tc.repetitions)
	}
}

// TestStatusTracksRepetitionsThroughReviews verifies the status stays a
// pure function of repetitions across a long mixed review run.
func TestStatusTracksRepetitionsThroughReviews(t *testing.T) {
	t.Parallel()
	svc := srs.NewService(nil)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	card := svc.NewCard(uuid.New(), "apple", now)
	sequence := []domain.Choice{
		domain.ChoiceKnow, domain.ChoiceKnow, domain.ChoiceKnow,
		domain.ChoiceUnknown, domain.ChoiceKnow, domain.ChoiceHint,
		domain.ChoiceKnow, domain.ChoiceKnow, domain.ChoiceKnow,
		domain.ChoiceKnow,
	}

	for _, choice := range sequence {
		now = now.AddDate(0, 0, 1)
		card = svc.ProcessReview(card, choice, now)
		require.Equal(t, domain.StatusFromRepetitions(card.Repetitions), card.Status)
	}
	assert.Equal(t, domain.CardStatusMastered, card.Status)
}

// TestIntervalsNonDecreasingUnderKnow: for consecutive Know choices the
// interval never shrinks, and strictly grows once repetitions >= 3.
func TestIntervalsNonDecreasingUnderKnow(t *testing.T) {
	t.Parallel()
	svc := srs.NewService(nil)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	card := svc.NewCard(uuid.New(), "apple", now)
	prev := 0
	for i := 0; i < 10; i++ {
		now = now.AddDate(0, 0, card.IntervalDays)
		card = svc.ProcessReview(card, domain.ChoiceKnow, now)
		require.GreaterOrEqual(t, card.IntervalDays, prev, "interval shrank at repetition %d", card.Repetitions)
		if card.Repetitions >= 3 {
			require.Greater(t, card.IntervalDays, prev, "interval stalled at repetition %d", card.Repetitions)
		}
		prev = card.IntervalDays
	}
}

func TestIsDue(t *testing.T) {
	t.Parallel()
	svc := srs.NewService(nil)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	card := &domain.Card{ItemID: "apple", NextReviewAt: now}

	assert.True(t, svc.IsDue(card, now), "due exactly at NextReviewAt")
	assert.True(t, svc.IsDue(card, now.Add(time.Hour)))
	assert.False(t, svc.IsDue(card, now.Add(-time.Minute)))
}
