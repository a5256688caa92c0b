package domain

import (
	"time"

	"github.com/google/uuid"
)

// SessionTTL is how long session state remains resumable after the
// session started. Older state is treated as expired: neither resumed
// nor merged.
const SessionTTL = 24 * time.Hour

// ChoiceRecord is one entry in a session's append-only choice history.
// A record is appended when an item is resolved for the session, that is
// on its first non-Unknown choice, so item IDs are unique within a
// history and the history length always equals CompletedCount.
type ChoiceRecord struct {
	ItemID    string    `json:"item_id"`
	Choice    Choice    `json:"choice"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionState is the durable record of progress through one daily plan.
// It is written after every submitted choice and reconciled across
// devices by the progress service.
type SessionState struct {
	SessionID      uuid.UUID      `json:"session_id"`
	LearnerID      uuid.UUID      `json:"learner_id"`
	CatalogID      string         `json:"catalog_id"`
	ItemSequence   []string       `json:"item_sequence"`
	CompletedCount int            `json:"completed_count"`
	ChoiceHistory  []ChoiceRecord `json:"choice_history"`
	ChoiceCounts   map[Choice]int `json:"choice_counts"`
	StartTime      time.Time      `json:"start_time"`
	LastUpdateTime time.Time      `json:"last_update_time"`
	IsCompleted    bool           `json:"is_completed"`
}

// Validate checks if the SessionState has valid data.
func (s *SessionState) Validate() error {
	if s.SessionID == uuid.Nil {
		return ErrValidation
	}
	if s.LearnerID == uuid.Nil {
		return ErrEmptyLearnerID
	}
	if s.CatalogID == "" {
		return ErrEmptyCatalogID
	}
	if s.CompletedCount != len(s.ChoiceHistory) {
		return ErrValidation
	}
	return nil
}

// IsExpired reports whether the state's TTL has elapsed at the given time.
func (s *SessionState) IsExpired(now time.Time) bool {
	return now.Sub(s.StartTime) > SessionTTL
}

// Clone returns a deep copy of the state. Merge and reconciliation work
// on copies so concurrent local writes never observe partial mutation.
func (s *SessionState) Clone() *SessionState {
	out := *s
	out.ItemSequence = append([]string(nil), s.ItemSequence...)
	out.ChoiceHistory = append([]ChoiceRecord(nil), s.ChoiceHistory...)
	out.ChoiceCounts = make(map[Choice]int, len(s.ChoiceCounts))
	for k, v := range s.ChoiceCounts {
		out.ChoiceCounts[k] = v
	}
	return &out
}
