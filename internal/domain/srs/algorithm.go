package srs

import (
	"math"
	"time"

	"github.com/syh52/lexicon-srs/internal/domain"
)

// calculateNewEaseFactor applies the SM-2 ease adjustment for a successful
// recall with the given quality score.
//
// The adjustment is 0.1 - (5-q)*(0.08 + (5-q)*0.02): quality 5 raises the
// ease factor by 0.1, quality 3 lowers it by 0.14. The result is clamped
// to params.MinEaseFactor so intervals can never shrink below the floor
// growth rate. Failed recalls never reach this function; their ease
// factor is left unchanged.
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	q := float64(quality)
	newEF := currentEF + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}
	return newEF
}

// calculateNewInterval determines the next interval in days after a
// successful recall.
//
// The first two repetitions use fixed intervals (1 and 6 days). From the
// third repetition on, the previous interval is multiplied by the newly
// computed ease factor, not the pre-update one. Intentional; do not
// "correct" to the canonical SM-2 ordering without product sign-off.
func calculateNewInterval(previousInterval, repetitions int, newEF float64, params *Params) int {
	switch repetitions {
	case 1:
		return params.FirstInterval
	case 2:
		return params.SecondInterval
	default:
		if previousInterval < 1 {
			previousInterval = 1
		}
		return int(math.Round(float64(previousInterval) * newEF))
	}
}

// calculateNextCard computes the full post-review card state. It follows
// the immutable update pattern: the input card is never modified and a
// fresh copy is returned.
//
// Out-of-range inputs are clamped rather than rejected; the scheduler
// must never interrupt an active study session.
func calculateNextCard(card *domain.Card, choice domain.Choice, now time.Time, params *Params) *domain.Card {
	next := *card

	quality, ok := params.QualityByChoice[choice]
	if !ok {
		// Unrecognized choices are treated as failed recalls.
		quality = params.QualityByChoice[domain.ChoiceUnknown]
	}

	// Defensive clamping of persisted state that may have been written by
	// an older client.
	if next.EaseFactor < params.MinEaseFactor {
		next.EaseFactor = params.MinEaseFactor
	}
	if next.Repetitions < 0 {
		next.Repetitions = 0
	}
	if next.IntervalDays < 0 {
		next.IntervalDays = 0
	}

	if quality >= params.RecallThreshold {
		next.Repetitions++
		next.EaseFactor = calculateNewEaseFactor(next.EaseFactor, quality, params)
		next.IntervalDays = calculateNewInterval(card.IntervalDays, next.Repetitions, next.EaseFactor, params)
	} else {
		next.Repetitions = 0
		next.IntervalDays = params.LapseInterval
		next.FailureCount++
	}

	next.NextReviewAt = now.AddDate(0, 0, next.IntervalDays)
	reviewed := now
	next.LastReviewAt = &reviewed
	next.Status = domain.StatusFromRepetitions(next.Repetitions)

	return &next
}

// calculateMasteryLevel maps a card to a 0-100 mastery score: a base
// value per status plus a bonus proportional to how far the ease factor
// sits above the floor, capped at 100.
func calculateMasteryLevel(card *domain.Card, params *Params) float64 {
	base := params.MasteryBase[card.Status]
	bonus := (card.EaseFactor - params.MinEaseFactor) * params.MasteryEaseBonus
	if bonus < 0 {
		bonus = 0
	}
	level := base + bonus
	if level > 100 {
		level = 100
	}
	return level
}
