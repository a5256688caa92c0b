package session_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/domain/srs"
	"github.com/syh52/lexicon-srs/internal/session"
)

func newPlan(learnerID uuid.UUID, itemIDs ...string) *domain.DailyPlan {
	return &domain.DailyPlan{
		LearnerID:    learnerID,
		CatalogID:    "cet4",
		Date:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ItemIDs:      itemIDs,
		ChoiceCounts: make(map[domain.Choice]int),
	}
}

func TestSessionServesPlanOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	scheduler := srs.NewService(nil)
	s := session.New(newPlan(uuid.New(), "a", "b", "c"), nil, scheduler, now)

	for _, want := range []string{"a", "b", "c"} {
		current := s.CurrentCard()
		require.NotNil(t, current)
		assert.Equal(t, want, current.ItemID)
		_, err := s.SubmitChoice(domain.ChoiceKnow, now)
		require.NoError(t, err)
	}

	assert.Nil(t, s.CurrentCard())
	assert.True(t, s.IsCompleted())
}

// TestUnknownRecyclesToRepeatQueue verifies that a 5-item session
// where item 3 is answered Unknown once and later Know takes 6 choices
// total, completes all 5 items, and item 3 is completed exactly once.
func TestUnknownRecyclesToRepeatQueue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	scheduler := srs.NewService(nil)
	s := session.New(newPlan(uuid.New(), "w1", "w2", "w3", "w4", "w5"), nil, scheduler, now)

	submissions := 0
	submit := func(choice domain.Choice) {
		now = now.Add(time.Minute)
		_, err := s.SubmitChoice(choice, now)
		require.NoError(t, err)
		submissions++
	}

	submit(domain.ChoiceKnow) // w1
	submit(domain.ChoiceKnow) // w2
	submit(domain.ChoiceUnknown)
	require.Equal(t, "w4", s.CurrentCard().ItemID, "w3 moved to the repeat queue")
	submit(domain.ChoiceKnow) // w4
	submit(domain.ChoiceKnow) // w5

	// Primary exhausted; w3 resurfaces from the repeat queue.
	require.Equal(t, "w3", s.CurrentCard().ItemID)
	submit(domain.ChoiceKnow)

	assert.True(t, s.IsCompleted())
	assert.Equal(t, 6, submissions)

	stats := s.Stats()
	assert.Equal(t, 5, stats.Total, "repeat entries are not double-counted")
	assert.Equal(t, 5, stats.Completed)
	assert.Equal(t, 0, stats.Remaining)
	assert.Equal(t, 5, stats.ChoiceCounts[domain.ChoiceKnow])
	assert.Equal(t, 1, stats.ChoiceCounts[domain.ChoiceUnknown])

	appearances := 0
	for _, card := range s.CompletedCards() {
		if card.ItemID == "w3" {
			appearances++
		}
	}
	assert.Equal(t, 1, appearances, "w3 appears in completed exactly once")
}

func TestRepeatedUnknownKeepsCycling(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	scheduler := srs.NewService(nil)
	s := session.New(newPlan(uuid.New(), "a", "b"), nil, scheduler, now)

	_, err := s.SubmitChoice(domain.ChoiceUnknown, now) // a -> repeat
	require.NoError(t, err)
	_, err = s.SubmitChoice(domain.ChoiceUnknown, now) // b -> repeat
	require.NoError(t, err)

	// Repeat queue cycles in insertion order until resolved.
	require.Equal(t, "a", s.CurrentCard().ItemID)
	_, err = s.SubmitChoice(domain.ChoiceUnknown, now) // a -> tail again
	require.NoError(t, err)
	require.Equal(t, "b", s.CurrentCard().ItemID)
	_, err = s.SubmitChoice(domain.ChoiceHint, now) // b resolved
	require.NoError(t, err)
	require.Equal(t, "a", s.CurrentCard().ItemID)
	_, err = s.SubmitChoice(domain.ChoiceKnow, now) // a resolved
	require.NoError(t, err)

	assert.True(t, s.IsCompleted())
	assert.Equal(t, 2, s.Stats().Completed)
}

func TestSubmitAfterCompletion(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	scheduler := srs.NewService(nil)
	s := session.New(newPlan(uuid.New(), "a"), nil, scheduler, now)

	_, err := s.SubmitChoice(domain.ChoiceKnow, now)
	require.NoError(t, err)

	_, err = s.SubmitChoice(domain.ChoiceKnow, now)
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)
}

func TestInvalidChoiceRejected(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := session.New(newPlan(uuid.New(), "a"), nil, srs.NewService(nil), now)

	_, err := s.SubmitChoice(domain.Choice("shrug"), now)
	assert.ErrorIs(t, err, domain.ErrInvalidChoice)
}

func TestExistingCardsCarryTheirState(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	learnerID := uuid.New()
	scheduler := srs.NewService(nil)

	seasoned := scheduler.NewCard(learnerID, "a", now.AddDate(0, 0, -30))
	for i := 0; i < 3; i++ {
		seasoned = scheduler.ProcessReview(seasoned, domain.ChoiceKnow, now.AddDate(0, 0, -20+i))
	}

	s := session.New(newPlan(learnerID, "a", "b"),
		map[string]*domain.Card{"a": seasoned}, scheduler, now)

	current := s.CurrentCard()
	require.Equal(t, "a", current.ItemID)
	assert.Equal(t, 3, current.Repetitions)

	// The session works on a copy; the caller's card is untouched.
	_, err := s.SubmitChoice(domain.ChoiceKnow, now)
	require.NoError(t, err)
	assert.Equal(t, 3, seasoned.Repetitions)
}

func TestStateSnapshot(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	learnerID := uuid.New()
	s := session.New(newPlan(learnerID, "a", "b", "c"), nil, srs.NewService(nil), now)

	_, err := s.SubmitChoice(domain.ChoiceKnow, now.Add(time.Minute))
	require.NoError(t, err)
	_, err = s.SubmitChoice(domain.ChoiceUnknown, now.Add(2*time.Minute))
	require.NoError(t, err)

	state := s.State()
	assert.Equal(t, s.ID(), state.SessionID)
	assert.Equal(t, learnerID, state.LearnerID)
	assert.Equal(t, "cet4", state.CatalogID)
	assert.Equal(t, []string{"a", "b", "c"}, state.ItemSequence)
	assert.Equal(t, 1, state.CompletedCount)
	require.Len(t, state.ChoiceHistory, 1, "history records resolved items only")
	assert.Equal(t, "a", state.ChoiceHistory[0].ItemID)
	assert.Equal(t, 1, state.ChoiceCounts[domain.ChoiceUnknown])
	assert.Equal(t, now, state.StartTime)
	assert.Equal(t, now.Add(2*time.Minute), state.LastUpdateTime)
	assert.False(t, state.IsCompleted)
	require.NoError(t, state.Validate())
}
