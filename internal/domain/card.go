package domain

import (
	"time"

	"github.com/google/uuid"
)

// CardStatus describes how far along the learning curve a card is.
// It is always a pure function of the repetition count; the stored value
// exists only for convenience and can be re-derived at any time.
type CardStatus string

// Possible card status values.
const (
	CardStatusNew      CardStatus = "new"
	CardStatusLearning CardStatus = "learning"
	CardStatusReview   CardStatus = "review"
	CardStatusMastered CardStatus = "mastered"
)

// StatusFromRepetitions derives the card status from the number of
// consecutive successful repetitions.
func StatusFromRepetitions(repetitions int) CardStatus {
	switch {
	case repetitions <= 0:
		return CardStatusNew
	case repetitions <= 2:
		return CardStatusLearning
	case repetitions <= 5:
		return CardStatusReview
	default:
		return CardStatusMastered
	}
}

// Card tracks one vocabulary item's scheduling state for one learner.
// It is mutated only by the srs scheduler, which returns updated copies
// rather than modifying cards in place.
type Card struct {
	LearnerID    uuid.UUID  `json:"learner_id"`
	ItemID       string     `json:"item_id"`
	Repetitions  int        `json:"repetitions"`
	EaseFactor   float64    `json:"ease_factor"`
	IntervalDays int        `json:"interval_days"`
	FailureCount int        `json:"failure_count"`
	NextReviewAt time.Time  `json:"next_review_at"`
	LastReviewAt *time.Time `json:"last_review_at,omitempty"`
	Status       CardStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ItemID == "" {
		return ErrEmptyItemID
	}
	if c.Repetitions < 0 {
		return ErrValidation
	}
	if c.IntervalDays < 0 {
		return ErrValidation
	}
	return nil
}

// CatalogItem is one vocabulary entry from the read-only catalog provider.
// The engine never writes catalog data; it only selects from it.
type CatalogItem struct {
	ID         string    `json:"id"`
	CatalogID  string    `json:"catalog_id"`
	Term       string    `json:"term"`
	Definition string    `json:"definition"`
	CreatedAt  time.Time `json:"created_at"`
}
