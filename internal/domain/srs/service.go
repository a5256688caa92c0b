// Package srs implements the per-item review scheduling algorithm: an
// SM-2 variant driven by the learner's Know/Hint/Unknown choices. The
// package is pure: no I/O, no clocks of its own, no failure modes.
package srs

import (
	"time"

	"github.com/google/uuid"

	"github.com/syh52/lexicon-srs/internal/domain"
)

// Service defines the interface for SRS algorithm operations.
type Service interface {
	// NewCard creates the initial scheduling state for an item the
	// learner has just encountered. The card is due immediately.
	NewCard(learnerID uuid.UUID, itemID string, now time.Time) *domain.Card

	// ProcessReview computes the card's next scheduling state from a
	// review choice. The input card is not modified. ProcessReview cannot
	// fail: out-of-range inputs are clamped.
	ProcessReview(card *domain.Card, choice domain.Choice, now time.Time) *domain.Card

	// IsDue reports whether the card is due for review at the given time.
	IsDue(card *domain.Card, now time.Time) bool

	// MasteryLevel maps the card to a 0-100 mastery score.
	MasteryLevel(card *domain.Card) float64
}

// defaultService implements Service using the configured Params.
type defaultService struct {
	params *Params
}

// Verify interface compliance at compile time.
var _ Service = (*defaultService)(nil)

// NewService creates a new SRS service with the given parameters.
// If params is nil, default parameters are used.
func NewService(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{params: params}
}

// NewCard implements Service.NewCard.
func (s *defaultService) NewCard(learnerID uuid.UUID, itemID string, now time.Time) *domain.Card {
	return &domain.Card{
		LearnerID:    learnerID,
		ItemID:       itemID,
		Repetitions:  0,
		EaseFactor:   s.params.DefaultEaseFactor,
		IntervalDays: 0,
		NextReviewAt: now,
		Status:       domain.CardStatusNew,
		CreatedAt:    now,
	}
}

// ProcessReview implements Service.ProcessReview.
func (s *defaultService) ProcessReview(card *domain.Card, choice domain.Choice, now time.Time) *domain.Card {
	return calculateNextCard(card, choice, now, s.params)
}

// IsDue implements Service.IsDue.
func (s *defaultService) IsDue(card *domain.Card, now time.Time) bool {
	return !now.Before(card.NextReviewAt)
}

// MasteryLevel implements Service.MasteryLevel.
func (s *defaultService) MasteryLevel(card *domain.Card) float64 {
	return calculateMasteryLevel(card, s.params)
}
