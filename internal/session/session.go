// Package session implements the in-memory study session runtime: the
// traversal of one day's plan, including the same-day relearning loop
// for items the learner marked Unknown. A session is single-writer,
// one process mutating it at a time, so it carries no locking; the
// multi-day scheduling applied per choice lives in the srs package.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/domain/srs"
)

// Stats summarizes a session's progress. Total counts every distinct
// plan item exactly once; re-entries into the repeat queue do not
// inflate it.
type Stats struct {
	Total        int                   `json:"total"`
	Completed    int                   `json:"completed"`
	Remaining    int                   `json:"remaining"`
	ChoiceCounts map[domain.Choice]int `json:"choice_counts"`
}

// StudySession sequences one sitting's items. Items are served from the
// primary queue in plan order; an Unknown choice recycles the item to
// the tail of the repeat queue, where it keeps resurfacing until its
// first non-Unknown choice resolves it into the completed list.
type StudySession struct {
	id        uuid.UUID
	learnerID uuid.UUID
	catalogID string

	sequence  []string
	primary   []*domain.Card
	repeat    []*domain.Card
	completed []*domain.Card

	history []domain.ChoiceRecord
	counts  map[domain.Choice]int

	startTime  time.Time
	lastUpdate time.Time

	scheduler srs.Service
}

// New creates a session over the plan's item order. Items the learner
// has studied before use their persisted card; first encounters get a
// fresh card from the scheduler.
func New(plan *domain.DailyPlan, cards map[string]*domain.Card, scheduler srs.Service, now time.Time) *StudySession {
	if scheduler == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency.
		panic("scheduler cannot be nil")
	}

	s := &StudySession{
		id:         uuid.New(),
		learnerID:  plan.LearnerID,
		catalogID:  plan.CatalogID,
		sequence:   append([]string(nil), plan.ItemIDs...),
		counts:     make(map[domain.Choice]int),
		startTime:  now,
		lastUpdate: now,
		scheduler:  scheduler,
	}

	for _, itemID := range plan.ItemIDs {
		card, ok := cards[itemID]
		if !ok {
			card = scheduler.NewCard(plan.LearnerID, itemID, now)
		}
		copied := *card
		s.primary = append(s.primary, &copied)
	}

	return s
}

// ID returns the session's unique identifier.
func (s *StudySession) ID() uuid.UUID { return s.id }

// CurrentCard returns the card the learner should answer next: the head
// of the primary queue, then the head of the repeat queue, then nil when
// the session is finished.
func (s *StudySession) CurrentCard() *domain.Card {
	if len(s.primary) > 0 {
		return s.primary[0]
	}
	if len(s.repeat) > 0 {
		return s.repeat[0]
	}
	return nil
}

// SubmitChoice applies the learner's choice to the current card and
// advances the session. It returns the card's updated scheduling state.
// Returns domain.ErrSessionCompleted when both queues are empty.
func (s *StudySession) SubmitChoice(choice domain.Choice, now time.Time) (*domain.Card, error) {
	if !choice.IsValid() {
		return nil, domain.ErrInvalidChoice
	}

	current := s.CurrentCard()
	if current == nil {
		return nil, domain.ErrSessionCompleted
	}

	updated := s.scheduler.ProcessReview(current, choice, now)

	// Remove from whichever queue held it.
	if len(s.primary) > 0 && s.primary[0] == current {
		s.primary = s.primary[1:]
	} else {
		s.repeat = s.repeat[1:]
	}

	s.counts[choice]++
	s.lastUpdate = now

	if choice == domain.ChoiceUnknown {
		// Resurfaces later in this same sitting. Not recorded in the
		// choice history: history entries mark resolved items only.
		s.repeat = append(s.repeat, updated)
		return updated, nil
	}

	// First non-Unknown choice resolves the item for the session; it
	// never re-enters circulation even if a later real-life review fails.
	s.completed = append(s.completed, updated)
	s.history = append(s.history, domain.ChoiceRecord{
		ItemID:    updated.ItemID,
		Choice:    choice,
		Timestamp: now,
	})
	return updated, nil
}

// IsCompleted reports whether every item has been resolved.
func (s *StudySession) IsCompleted() bool {
	return len(s.primary) == 0 && len(s.repeat) == 0
}

// Stats returns the session's progress counters.
func (s *StudySession) Stats() Stats {
	counts := make(map[domain.Choice]int, len(s.counts))
	for k, v := range s.counts {
		counts[k] = v
	}
	return Stats{
		Total:        len(s.sequence),
		Completed:    len(s.completed),
		Remaining:    len(s.sequence) - len(s.completed),
		ChoiceCounts: counts,
	}
}

// CompletedCards returns the resolved cards in completion order.
func (s *StudySession) CompletedCards() []*domain.Card {
	return append([]*domain.Card(nil), s.completed...)
}

// State snapshots the session into its durable form.
func (s *StudySession) State() *domain.SessionState {
	counts := make(map[domain.Choice]int, len(s.counts))
	for k, v := range s.counts {
		counts[k] = v
	}
	return &domain.SessionState{
		SessionID:      s.id,
		LearnerID:      s.learnerID,
		CatalogID:      s.catalogID,
		ItemSequence:   append([]string(nil), s.sequence...),
		CompletedCount: len(s.completed),
		ChoiceHistory:  append([]domain.ChoiceRecord(nil), s.history...),
		ChoiceCounts:   counts,
		StartTime:      s.startTime,
		LastUpdateTime: s.lastUpdate,
		IsCompleted:    s.IsCompleted(),
	}
}
