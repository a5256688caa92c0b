// Package planner implements daily plan generation: selecting and
// ordering today's study items from the catalog, the learner's card
// population, and the configured targets.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/platform/logger"
	"github.com/syh52/lexicon-srs/internal/store"
)

// Priority score bases per candidate class. Review classes always
// outrank new items so a backlog is cleared before fresh material is
// introduced.
const (
	overdueBase   = 1000.0
	reviewDueBase = 500.0
	newBase       = 100.0

	// newJitterSpan bounds the random jitter added to new-item scores so
	// the unseen portion of the catalog is not studied in a fixed order
	// across days.
	newJitterSpan = 50.0
)

// catalogPageSize is how many items one catalog request fetches.
const catalogPageSize = 200

// Generator builds daily plans. It is stateless apart from its
// dependencies; Generate is a pure function of its inputs and the
// injected jitter source.
type Generator struct {
	catalog  store.CatalogProvider
	validate *validator.Validate
	jitter   func() float64
	logger   *slog.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithJitter replaces the jitter source. Tests inject a deterministic
// function here.
func WithJitter(fn func() float64) Option {
	return func(g *Generator) { g.jitter = fn }
}

// NewGenerator creates a plan generator over the given catalog provider.
func NewGenerator(catalog store.CatalogProvider, log *slog.Logger, opts ...Option) *Generator {
	if catalog == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency.
		panic("catalog cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	g := &Generator{
		catalog:  catalog,
		validate: validator.New(),
		jitter:   func() float64 { return rand.Float64() * newJitterSpan },
		logger:   log.With(slog.String("component", "plan_generator")),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// candidate is one catalog item under consideration, with its priority
// score. Higher scores are studied first.
type candidate struct {
	itemID string
	score  float64
	isNew  bool
}

// Generate selects and orders today's items. cards is the learner's
// existing card set keyed by item ID; items absent from it are new.
// A catalog too small to fill the targets yields a smaller plan, which
// is not an error.
func (g *Generator) Generate(
	ctx context.Context,
	learnerID uuid.UUID,
	catalogID string,
	cards map[string]*domain.Card,
	targets domain.StudyTargets,
	now time.Time,
) (*domain.DailyPlan, error) {
	log := logger.FromContextOrDefault(ctx, g.logger)

	if learnerID == uuid.Nil {
		return nil, domain.ErrEmptyLearnerID
	}
	if catalogID == "" {
		return nil, domain.ErrEmptyCatalogID
	}
	if err := g.validate.Struct(targets); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTargets, verrs)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTargets, err)
	}

	items, err := g.fetchAllItems(ctx, catalogID)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", catalogID, err)
	}

	reviews, news := g.classify(items, cards, now)

	// Review slots first: Overdue items outscore ReviewDue items, so one
	// descending sort covers the "Overdue first" rule.
	sortByScore(reviews)
	if len(reviews) > targets.DailyReviewCount {
		reviews = reviews[:targets.DailyReviewCount]
	}

	// Remaining slots go to new items: bounded first by the daily new
	// target, and when review supply falls short of its target, the
	// leftover slots open up to any further new items. The net bound is
	// therefore the open slot count.
	sortByScore(news)
	slots := targets.DailyTotal - len(reviews)
	if slots < 0 {
		slots = 0
	}
	if slots > len(news) {
		slots = len(news)
	}
	news = news[:slots]

	selected := append(append([]candidate(nil), reviews...), news...)
	sortByScore(selected)

	plan := &domain.DailyPlan{
		LearnerID:    learnerID,
		CatalogID:    catalogID,
		Date:         now.Truncate(24 * time.Hour),
		ItemIDs:      make([]string, 0, len(selected)),
		NewCount:     len(news),
		ReviewCount:  len(reviews),
		ChoiceCounts: make(map[domain.Choice]int),
	}
	for _, c := range selected {
		plan.ItemIDs = append(plan.ItemIDs, c.itemID)
	}

	log.Debug("generated daily plan",
		slog.String("learner_id", learnerID.String()),
		slog.String("catalog_id", catalogID),
		slog.Int("review_count", plan.ReviewCount),
		slog.Int("new_count", plan.NewCount))

	return plan, nil
}

// classify buckets every catalog item: mastered and not-yet-due cards
// are excluded, due cards split into overdue vs review-due, and items
// without a card are new.
func (g *Generator) classify(items []domain.CatalogItem, cards map[string]*domain.Card, now time.Time) (reviews, news []candidate) {
	for _, item := range items {
		card, ok := cards[item.ID]
		if !ok {
			news = append(news, candidate{
				itemID: item.ID,
				score:  newBase + g.jitter(),
				isNew:  true,
			})
			continue
		}

		if card.Status == domain.CardStatusMastered {
			continue
		}
		if now.Before(card.NextReviewAt) {
			continue
		}

		overdueDays := int(now.Sub(card.NextReviewAt).Hours() / 24)
		if overdueDays > 1 {
			reviews = append(reviews, candidate{
				itemID: item.ID,
				score:  overdueBase + float64(overdueDays)*10 + float64(card.FailureCount)*0.2,
			})
			continue
		}

		daysSinceReview := 0
		if card.LastReviewAt != nil {
			daysSinceReview = int(now.Sub(*card.LastReviewAt).Hours() / 24)
		}
		reviews = append(reviews, candidate{
			itemID: item.ID,
			score:  reviewDueBase + float64(daysSinceReview)*5 + float64(card.FailureCount)*0.1,
		})
	}
	return reviews, news
}

func (g *Generator) fetchAllItems(ctx context.Context, catalogID string) ([]domain.CatalogItem, error) {
	var all []domain.CatalogItem
	for offset := 0; ; offset += catalogPageSize {
		page, err := g.catalog.GetItems(ctx, catalogID, catalogPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < catalogPageSize {
			return all, nil
		}
	}
}

func sortByScore(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].score != cs[j].score {
			return cs[i].score > cs[j].score
		}
		return cs[i].itemID < cs[j].itemID
	})
}
