package domain

import (
	"time"

	"github.com/google/uuid"
)

// StudyTargets configures how many items the daily plan should select.
// All fields are validated at the plan-generation boundary; negative
// counts are rejected before any scheduling work occurs.
type StudyTargets struct {
	DailyNewCount    int `json:"daily_new_count"    mapstructure:"daily_new_count"    validate:"min=0"`
	DailyReviewCount int `json:"daily_review_count" mapstructure:"daily_review_count" validate:"min=0"`
	DailyTotal       int `json:"daily_total"        mapstructure:"daily_total"        validate:"min=1"`
}

// DefaultStudyTargets returns the targets used when a learner has no
// personalized configuration yet.
func DefaultStudyTargets() StudyTargets {
	return StudyTargets{
		DailyNewCount:    10,
		DailyReviewCount: 20,
		DailyTotal:       30,
	}
}

// DailyPlan is the ordered set of items selected for one day's study.
// A plan is created once per (learner, catalog) per calendar day and is
// superseded, not deleted, the next day.
type DailyPlan struct {
	LearnerID      uuid.UUID      `json:"learner_id"`
	CatalogID      string         `json:"catalog_id"`
	Date           time.Time      `json:"date"`
	ItemIDs        []string       `json:"item_ids"`
	NewCount       int            `json:"new_count"`
	ReviewCount    int            `json:"review_count"`
	CompletedCount int            `json:"completed_count"`
	ChoiceCounts   map[Choice]int `json:"choice_counts"`
	IsCompleted    bool           `json:"is_completed"`
}

// Total returns the number of items selected for the plan.
func (p *DailyPlan) Total() int {
	return len(p.ItemIDs)
}
