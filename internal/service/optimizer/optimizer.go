// Package optimizer analyzes recent session history and proposes
// adjusted study targets. It is a pure analytics layer: it never
// mutates cards or session state, only suggests configuration for the
// next plan generation.
package optimizer

import (
	"log/slog"
	"math"
	"time"

	"github.com/syh52/lexicon-srs/internal/domain"
)

// Tuning constants. Recommendations below the confidence threshold are
// suppressed so a single noisy session cannot oscillate the targets.
const (
	confidenceThreshold = 70

	completionLowWater  = 0.5
	completionHighWater = 0.9
	successLowWater     = 0.6
	shortSessionCutoff  = 15 * time.Minute

	// minCategorySample is the least number of graded items in a
	// category before its success rate is trusted at all.
	minCategorySample = 10

	loadReductionFactor = 0.75
	loadGrowthFactor    = 1.2
)

// Metrics summarizes the analyzed session window.
type Metrics struct {
	SessionCount           int
	CompletionRate         float64
	AverageSessionDuration time.Duration

	// Success is unaided recall: a Know choice. Hint resolves the item
	// for the session but signals difficulty, so it does not count here.
	NewSuccessRate    float64
	ReviewSuccessRate float64
	NewSampleSize     int
	ReviewSampleSize  int

	// Confidence in [0,100], grown by session count and graded volume.
	Confidence int
}

// Recommendation is one proposed target adjustment.
type Recommendation struct {
	Targets    domain.StudyTargets
	Reason     string
	Confidence int
}

// Analyzer computes metrics and recommendations from persisted history.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer. A nil logger falls back to the
// default slog logger.
func NewAnalyzer(log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{logger: log.With(slog.String("component", "plan_optimizer"))}
}

// Analyze inspects the most recent session states together with the
// learner's current card population and returns summary metrics plus
// zero or more target recommendations. States are expected newest-last;
// order does not affect the result.
func (a *Analyzer) Analyze(states []*domain.SessionState, cards map[string]*domain.Card, current domain.StudyTargets) (Metrics, []Recommendation) {
	m := a.computeMetrics(states, cards)
	if m.SessionCount == 0 {
		return m, nil
	}

	recs := a.recommend(m, current)
	a.logger.Debug("analyzed session history",
		slog.Int("sessions", m.SessionCount),
		slog.Float64("completion_rate", m.CompletionRate),
		slog.Int("confidence", m.Confidence),
		slog.Int("recommendations", len(recs)))
	return m, recs
}

func (a *Analyzer) computeMetrics(states []*domain.SessionState, cards map[string]*domain.Card) Metrics {
	var m Metrics
	var completedSessions int
	var totalDuration time.Duration
	var newKnown, reviewKnown int

	for _, state := range states {
		if state == nil {
			continue
		}
		m.SessionCount++
		if state.IsCompleted {
			completedSessions++
		}
		if state.LastUpdateTime.After(state.StartTime) {
			totalDuration += state.LastUpdateTime.Sub(state.StartTime)
		}

		for _, record := range state.ChoiceHistory {
			known := record.Choice == domain.ChoiceKnow
			if isNewInSession(cards[record.ItemID], state.StartTime) {
				m.NewSampleSize++
				if known {
					newKnown++
				}
			} else {
				m.ReviewSampleSize++
				if known {
					reviewKnown++
				}
			}
		}
	}

	if m.SessionCount == 0 {
		return m
	}

	m.CompletionRate = float64(completedSessions) / float64(m.SessionCount)
	m.AverageSessionDuration = totalDuration / time.Duration(m.SessionCount)
	if m.NewSampleSize > 0 {
		m.NewSuccessRate = float64(newKnown) / float64(m.NewSampleSize)
	}
	if m.ReviewSampleSize > 0 {
		m.ReviewSuccessRate = float64(reviewKnown) / float64(m.ReviewSampleSize)
	}

	graded := m.NewSampleSize + m.ReviewSampleSize
	confidence := m.SessionCount*12 + graded/4
	if confidence > 100 {
		confidence = 100
	}
	m.Confidence = confidence
	return m
}

// isNewInSession reports whether the item was first encountered during
// that session. A card created at or after the session start had no
// prior scheduling state, so its choice grades a new item.
func isNewInSession(card *domain.Card, sessionStart time.Time) bool {
	if card == nil {
		return true
	}
	return !card.CreatedAt.Before(sessionStart)
}

func (a *Analyzer) recommend(m Metrics, current domain.StudyTargets) []Recommendation {
	if m.Confidence < confidenceThreshold {
		return nil
	}

	var recs []Recommendation

	if m.CompletionRate < completionLowWater {
		t := current
		t.DailyTotal = scaleDown(current.DailyTotal, loadReductionFactor, 1)
		t.DailyNewCount = scaleDown(current.DailyNewCount, loadReductionFactor, 0)
		if t.DailyReviewCount > t.DailyTotal {
			t.DailyReviewCount = t.DailyTotal
		}
		recs = append(recs, Recommendation{
			Targets:    t,
			Reason:     "fewer than half of recent sessions were completed; reduce the daily load",
			Confidence: m.Confidence,
		})
	} else if m.CompletionRate >= completionHighWater && m.AverageSessionDuration > 0 && m.AverageSessionDuration < shortSessionCutoff {
		t := current
		t.DailyTotal = scaleUp(current.DailyTotal, loadGrowthFactor)
		t.DailyNewCount = scaleUp(current.DailyNewCount, loadGrowthFactor)
		recs = append(recs, Recommendation{
			Targets:    t,
			Reason:     "sessions complete quickly and reliably; room to raise the daily load",
			Confidence: m.Confidence,
		})
	}

	if m.NewSampleSize >= minCategorySample && m.NewSuccessRate < successLowWater {
		t := current
		t.DailyNewCount = scaleDown(current.DailyNewCount, loadReductionFactor, 1)
		recs = append(recs, Recommendation{
			Targets:    t,
			Reason:     "new items are frequently missed or hinted; introduce fewer per day",
			Confidence: m.Confidence,
		})
	}

	if m.ReviewSampleSize >= minCategorySample && m.ReviewSuccessRate < successLowWater {
		// Keep the total steady but shift slots from new items toward
		// reviews so struggling material resurfaces sooner.
		t := current
		t.DailyNewCount = scaleDown(current.DailyNewCount, loadReductionFactor, 0)
		t.DailyReviewCount = current.DailyReviewCount + (current.DailyNewCount - t.DailyNewCount)
		recs = append(recs, Recommendation{
			Targets:    t,
			Reason:     "review recall is weak; shift daily slots from new items to reviews",
			Confidence: m.Confidence,
		})
	}

	return recs
}

func scaleDown(v int, factor float64, floor int) int {
	scaled := int(math.Round(float64(v) * factor))
	if scaled < floor {
		return floor
	}
	return scaled
}

func scaleUp(v int, factor float64) int {
	scaled := int(math.Round(float64(v) * factor))
	if scaled <= v {
		return v + 1
	}
	return scaled
}
