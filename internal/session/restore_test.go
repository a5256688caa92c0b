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

func TestRestoreReplaysToResumePoint(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	learnerID := uuid.New()
	scheduler := srs.NewService(nil)

	// First device: complete two of four items.
	original := session.New(newPlan(learnerID, "a", "b", "c", "d"), nil, scheduler, now)
	_, err := original.SubmitChoice(domain.ChoiceKnow, now.Add(time.Minute))
	require.NoError(t, err)
	_, err = original.SubmitChoice(domain.ChoiceHint, now.Add(2*time.Minute))
	require.NoError(t, err)
	state := original.State()

	// Second device: fresh session over the same plan.
	fresh := session.New(newPlan(learnerID, "a", "b", "c", "d"), nil, scheduler, now.Add(time.Hour))
	require.NoError(t, session.Restore(state, fresh))

	assert.Equal(t, state.SessionID, fresh.ID(), "restored session keeps the persisted identity")
	require.NotNil(t, fresh.CurrentCard())
	assert.Equal(t, "c", fresh.CurrentCard().ItemID)
	assert.Equal(t, 2, fresh.Stats().Completed)
}

// TestRestoreToleratesReordering: a plan regenerated elsewhere may order
// items differently; replay stops at the first item without a recorded
// choice instead of requiring positional alignment.
func TestRestoreToleratesReordering(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	learnerID := uuid.New()
	scheduler := srs.NewService(nil)

	state := &domain.SessionState{
		SessionID:      uuid.New(),
		LearnerID:      learnerID,
		CatalogID:      "cet4",
		ItemSequence:   []string{"a", "b", "c"},
		CompletedCount: 2,
		ChoiceHistory: []domain.ChoiceRecord{
			{ItemID: "a", Choice: domain.ChoiceKnow, Timestamp: now.Add(time.Minute)},
			{ItemID: "c", Choice: domain.ChoiceKnow, Timestamp: now.Add(2 * time.Minute)},
		},
		StartTime:      now,
		LastUpdateTime: now.Add(2 * time.Minute),
	}

	// Reordered plan: c first. It has a record, so it replays; b has
	// none and becomes the resume point even though a also has a record.
	fresh := session.New(newPlan(learnerID, "c", "b", "a"), nil, scheduler, now.Add(time.Hour))
	require.NoError(t, session.Restore(state, fresh))

	require.NotNil(t, fresh.CurrentCard())
	assert.Equal(t, "b", fresh.CurrentCard().ItemID)
	assert.Equal(t, 1, fresh.Stats().Completed)
}

func TestRestoreCompletedState(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	learnerID := uuid.New()
	scheduler := srs.NewService(nil)

	original := session.New(newPlan(learnerID, "a", "b"), nil, scheduler, now)
	_, err := original.SubmitChoice(domain.ChoiceKnow, now)
	require.NoError(t, err)
	_, err = original.SubmitChoice(domain.ChoiceKnow, now)
	require.NoError(t, err)
	state := original.State()
	require.True(t, state.IsCompleted)

	fresh := session.New(newPlan(learnerID, "a", "b"), nil, scheduler, now)
	require.NoError(t, session.Restore(state, fresh))

	assert.True(t, fresh.IsCompleted())
	assert.Nil(t, fresh.CurrentCard())
}

func TestRestoreNilArguments(t *testing.T) {
	t.Parallel()

	now := time.Now()
	fresh := session.New(newPlan(uuid.New(), "a"), nil, srs.NewService(nil), now)

	assert.ErrorIs(t, session.Restore(nil, fresh), domain.ErrValidation)
	assert.ErrorIs(t, session.Restore(&domain.SessionState{}, nil), domain.ErrValidation)
}

func TestManagerLifecycle(t *testing.T) {
	t.Parallel()

	now := time.Now()
	learnerID := uuid.New()
	m := session.NewManager()

	_, ok := m.Get(learnerID, "cet4")
	assert.False(t, ok)

	s := session.New(newPlan(learnerID, "a"), nil, srs.NewService(nil), now)
	m.Put(s)

	got, ok := m.Get(learnerID, "cet4")
	require.True(t, ok)
	assert.Same(t, s, got)

	m.Delete(learnerID, "cet4")
	_, ok = m.Get(learnerID, "cet4")
	assert.False(t, ok)
}
