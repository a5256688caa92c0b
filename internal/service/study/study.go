// Package study is the engine's facade: it wires plan generation, the
// session runtime, card persistence, and progress persistence into the
// operations callers actually invoke. All orchestration state lives in
// explicitly constructed services passed in here; nothing is global.
package study

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/domain/srs"
	"github.com/syh52/lexicon-srs/internal/platform/logger"
	"github.com/syh52/lexicon-srs/internal/service/cards"
	"github.com/syh52/lexicon-srs/internal/service/optimizer"
	"github.com/syh52/lexicon-srs/internal/service/planner"
	"github.com/syh52/lexicon-srs/internal/service/progress"
	"github.com/syh52/lexicon-srs/internal/session"
	"github.com/syh52/lexicon-srs/internal/store"
)

// Service exposes the engine's operations over one learner-facing API.
type Service struct {
	planner   *planner.Generator
	sessions  *session.Manager
	cards     *cards.Service
	progress  *progress.Service
	analyzer  *optimizer.Analyzer
	scheduler srs.Service
	clock     store.Clock
	logger    *slog.Logger
}

// historyWindow is how many archived sessions feed target analysis.
const historyWindow = 20

// NewService wires the study facade.
func NewService(
	gen *planner.Generator,
	sessions *session.Manager,
	cardSvc *cards.Service,
	progressSvc *progress.Service,
	analyzer *optimizer.Analyzer,
	scheduler srs.Service,
	clock store.Clock,
	log *slog.Logger,
) *Service {
	if gen == nil || sessions == nil || cardSvc == nil || progressSvc == nil || scheduler == nil {
		// ALLOW-PANIC: Constructor enforcing required dependencies.
		panic("study service dependencies cannot be nil")
	}
	if analyzer == nil {
		analyzer = optimizer.NewAnalyzer(log)
	}
	if clock == nil {
		clock = store.SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		planner:   gen,
		sessions:  sessions,
		cards:     cardSvc,
		progress:  progressSvc,
		analyzer:  analyzer,
		scheduler: scheduler,
		clock:     clock,
		logger:    log.With(slog.String("component", "study_service")),
	}
}

// GenerateDailyPlan selects and orders today's items for the learner.
func (s *Service) GenerateDailyPlan(ctx context.Context, learnerID uuid.UUID, catalogID string, targets domain.StudyTargets) (*domain.DailyPlan, error) {
	cardSet, err := s.cards.LoadSet(ctx, learnerID, catalogID)
	if err != nil {
		return nil, err
	}
	return s.planner.Generate(ctx, learnerID, catalogID, cardSet, targets, s.clock.Now())
}

// CreateSession starts a new sitting over the plan, replacing any live
// session for the pair, and persists its initial state.
func (s *Service) CreateSession(ctx context.Context, plan *domain.DailyPlan) (*session.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if plan == nil {
		return nil, domain.ErrValidation
	}

	cardSet, err := s.cards.LoadSet(ctx, plan.LearnerID, plan.CatalogID)
	if err != nil {
		return nil, err
	}

	sess := session.New(plan, cardSet, s.scheduler, s.clock.Now())
	s.sessions.Put(sess)

	if err := s.progress.Save(ctx, sess.State()); err != nil {
		return nil, err
	}

	log.Info("session created",
		slog.String("session_id", sess.ID().String()),
		slog.String("catalog_id", plan.CatalogID),
		slog.Int("items", plan.Total()))
	return sess, nil
}

// ResumeSession returns the pair's active session: the live in-process
// one if it exists, otherwise one rebuilt from persisted progress.
// Returns nil without error when there is nothing to resume.
func (s *Service) ResumeSession(ctx context.Context, learnerID uuid.UUID, catalogID string) (*session.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if sess, ok := s.sessions.Get(learnerID, catalogID); ok {
		return sess, nil
	}

	state, err := s.progress.Load(ctx, learnerID, catalogID)
	if err != nil {
		return nil, err
	}
	if state == nil || state.IsCompleted {
		return nil, nil
	}

	cardSet, err := s.cards.LoadSet(ctx, learnerID, catalogID)
	if err != nil {
		return nil, err
	}

	// Rebuild the sitting over the persisted plan snapshot and replay
	// the recorded choices up to the resume point.
	plan := &domain.DailyPlan{
		LearnerID: learnerID,
		CatalogID: catalogID,
		ItemIDs:   state.ItemSequence,
	}
	fresh := session.New(plan, cardSet, s.scheduler, state.StartTime)
	if err := session.Restore(state, fresh); err != nil {
		return nil, err
	}
	s.sessions.Put(fresh)

	log.Info("session resumed",
		slog.String("session_id", fresh.ID().String()),
		slog.String("catalog_id", catalogID),
		slog.Int("completed", state.CompletedCount),
		slog.Int("total", len(state.ItemSequence)))
	return fresh, nil
}

// CurrentCard returns the next card of the pair's active session, or nil
// when no session is active or the session is finished.
func (s *Service) CurrentCard(learnerID uuid.UUID, catalogID string) *domain.Card {
	sess, ok := s.sessions.Get(learnerID, catalogID)
	if !ok {
		return nil
	}
	return sess.CurrentCard()
}

// SubmitChoice applies the learner's choice to the active session's
// current card, persists the updated card and session state, and returns
// the updated card with the session's progress counters.
func (s *Service) SubmitChoice(ctx context.Context, learnerID uuid.UUID, catalogID string, choice domain.Choice) (*domain.Card, session.Stats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sess, ok := s.sessions.Get(learnerID, catalogID)
	if !ok {
		return nil, session.Stats{}, domain.ErrSessionExpired
	}

	now := s.clock.Now()
	updated, err := sess.SubmitChoice(choice, now)
	if err != nil {
		return nil, sess.Stats(), err
	}

	// Persist the card first so scheduling state survives even if the
	// session state write is lost; both writes are local-first and never
	// interrupt the sitting.
	cardSet, err := s.cards.LoadSet(ctx, learnerID, catalogID)
	if err != nil {
		log.Warn("failed to load card set for persistence",
			slog.String("error", err.Error()))
		cardSet = map[string]*domain.Card{}
	}
	if err := s.cards.SaveCard(ctx, catalogID, cardSet, updated); err != nil {
		log.Warn("failed to persist updated card",
			slog.String("item_id", updated.ItemID),
			slog.String("error", err.Error()))
	}

	if err := s.progress.Save(ctx, sess.State()); err != nil {
		log.Warn("failed to persist session state",
			slog.String("error", err.Error()))
	}

	if sess.IsCompleted() {
		s.progress.Archive(ctx, sess.State())
		if err := s.progress.Clear(ctx, learnerID, catalogID); err != nil {
			log.Warn("failed to clear completed session state",
				slog.String("error", err.Error()))
		}
		s.sessions.Delete(learnerID, catalogID)
		log.Info("session completed",
			slog.String("session_id", sess.ID().String()),
			slog.String("catalog_id", catalogID))
	}

	return updated, sess.Stats(), nil
}

// LoadProgress returns the persisted session state for the pair, nil
// when none exists.
func (s *Service) LoadProgress(ctx context.Context, learnerID uuid.UUID, catalogID string) (*domain.SessionState, error) {
	return s.progress.Load(ctx, learnerID, catalogID)
}

// SaveProgress persists an externally held session state.
func (s *Service) SaveProgress(ctx context.Context, state *domain.SessionState) error {
	return s.progress.Save(ctx, state)
}

// ClearProgress removes the pair's persisted state and drops any live
// session. Used for explicit resets.
func (s *Service) ClearProgress(ctx context.Context, learnerID uuid.UUID, catalogID string) error {
	s.sessions.Delete(learnerID, catalogID)
	return s.progress.Clear(ctx, learnerID, catalogID)
}

// RecommendTargets analyzes the pair's archived sessions against the
// current card population and returns summary metrics plus any
// confident target adjustments.
func (s *Service) RecommendTargets(ctx context.Context, learnerID uuid.UUID, catalogID string, current domain.StudyTargets) (optimizer.Metrics, []optimizer.Recommendation, error) {
	history, err := s.progress.LoadRecent(ctx, learnerID, catalogID, historyWindow)
	if err != nil {
		return optimizer.Metrics{}, nil, err
	}
	cardSet, err := s.cards.LoadSet(ctx, learnerID, catalogID)
	if err != nil {
		return optimizer.Metrics{}, nil, err
	}
	metrics, recs := s.analyzer.Analyze(history, cardSet, current)
	return metrics, recs, nil
}
