package srs

import (
	"github.com/syh52/lexicon-srs/internal/domain"
)

// Params defines all configurable parameters for the SRS algorithm.
type Params struct {
	// Core limits
	MinEaseFactor     float64
	DefaultEaseFactor float64

	// Quality score assigned to each review choice. Quality >= RecallThreshold
	// counts as a successful recall.
	QualityByChoice map[domain.Choice]int
	RecallThreshold int

	// Fixed intervals for the first two successful repetitions and for a lapse.
	FirstInterval  int
	SecondInterval int
	LapseInterval  int

	// Mastery scoring
	MasteryBase      map[domain.CardStatus]float64
	MasteryEaseBonus float64
}

// ParamsConfig allows overriding the default parameters when creating a
// new Params instance. Zero values leave the default in place.
type ParamsConfig struct {
	MinEaseFactor     float64
	DefaultEaseFactor float64
	FirstInterval     int
	SecondInterval    int
	LapseInterval     int
	MasteryEaseBonus  float64
}

// NewDefaultParams creates a new Params instance with default values.
// The quality mapping (Know=5, Hint=3, Unknown=1) is fixed: Hint sits
// exactly at the recall threshold, so it increments repetitions while
// still pulling the ease factor down.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:     1.3,
		DefaultEaseFactor: 2.5,

		QualityByChoice: map[domain.Choice]int{
			domain.ChoiceKnow:    5,
			domain.ChoiceHint:    3,
			domain.ChoiceUnknown: 1,
		},
		RecallThreshold: 3,

		FirstInterval:  1,
		SecondInterval: 6,
		LapseInterval:  1,

		MasteryBase: map[domain.CardStatus]float64{
			domain.CardStatusNew:      0,
			domain.CardStatusLearning: 25,
			domain.CardStatusReview:   60,
			domain.CardStatusMastered: 100,
		},
		MasteryEaseBonus: 20,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.DefaultEaseFactor > 0 {
		params.DefaultEaseFactor = config.DefaultEaseFactor
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.LapseInterval > 0 {
		params.LapseInterval = config.LapseInterval
	}
	if config.MasteryEaseBonus > 0 {
		params.MasteryEaseBonus = config.MasteryEaseBonus
	}

	return params
}
