// Package api provides HTTP handlers for the engine's operations.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/syh52/lexicon-srs/internal/api/shared"
	"github.com/syh52/lexicon-srs/internal/domain"
	"github.com/syh52/lexicon-srs/internal/platform/logger"
	"github.com/syh52/lexicon-srs/internal/service/study"
	"github.com/syh52/lexicon-srs/internal/session"
)

// TargetsRequest carries optional study target overrides. Missing
// fields fall back to the server's configured defaults.
type TargetsRequest struct {
	DailyNewCount    *int `json:"daily_new_count"`
	DailyReviewCount *int `json:"daily_review_count"`
	DailyTotal       *int `json:"daily_total"`
}

// PlanRequest is the request body for plan and session creation.
type PlanRequest struct {
	LearnerID string          `json:"learner_id"`
	CatalogID string          `json:"catalog_id"`
	Targets   *TargetsRequest `json:"targets"`
}

// ChoiceRequest is the request body for submitting a choice.
type ChoiceRequest struct {
	Choice string `json:"choice"`
}

// CardResponse represents the scheduling state returned for a card.
type CardResponse struct {
	ItemID       string     `json:"item_id"`
	Repetitions  int        `json:"repetitions"`
	EaseFactor   float64    `json:"ease_factor"`
	IntervalDays int        `json:"interval_days"`
	NextReviewAt time.Time  `json:"next_review_at"`
	LastReviewAt *time.Time `json:"last_review_at,omitempty"`
	Status       string     `json:"status"`
}

// PlanResponse represents a generated daily plan.
type PlanResponse struct {
	LearnerID   string   `json:"learner_id"`
	CatalogID   string   `json:"catalog_id"`
	Date        string   `json:"date"`
	ItemIDs     []string `json:"item_ids"`
	NewCount    int      `json:"new_count"`
	ReviewCount int      `json:"review_count"`
}

// SessionResponse represents the state of a sitting.
type SessionResponse struct {
	SessionID   string        `json:"session_id"`
	Stats       session.Stats `json:"stats"`
	IsCompleted bool          `json:"is_completed"`
	CurrentCard *CardResponse `json:"current_card,omitempty"`
}

// SubmitResponse pairs the updated card with the session's counters.
type SubmitResponse struct {
	Card        CardResponse  `json:"card"`
	Stats       session.Stats `json:"stats"`
	IsCompleted bool          `json:"is_completed"`
}

// StudyHandler handles study-related HTTP requests.
type StudyHandler struct {
	study    *study.Service
	defaults domain.StudyTargets
	logger   *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studySvc *study.Service, defaults domain.StudyTargets, log *slog.Logger) *StudyHandler {
	if studySvc == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency.
		panic("study service cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &StudyHandler{
		study:    studySvc,
		defaults: defaults,
		logger:   log.With(slog.String("component", "study_handler")),
	}
}

// Routes mounts the handler's endpoints on the router.
func (h *StudyHandler) Routes(r chi.Router) {
	r.Post("/plans", h.GeneratePlan)
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{learnerID}/{catalogID}", func(r chi.Router) {
		r.Get("/", h.ResumeSession)
		r.Get("/current", h.CurrentCard)
		r.Post("/choices", h.SubmitChoice)
	})
	r.Route("/progress/{learnerID}/{catalogID}", func(r chi.Router) {
		r.Get("/", h.GetProgress)
		r.Put("/", h.SaveProgress)
		r.Delete("/", h.ClearProgress)
		r.Get("/recommendations", h.Recommendations)
	})
}

// GeneratePlan handles POST /plans requests.
func (h *StudyHandler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	req, learnerID, ok := h.decodePlanRequest(w, r)
	if !ok {
		return
	}

	plan, err := h.study.GenerateDailyPlan(r.Context(), learnerID, req.CatalogID, h.targetsFrom(req.Targets))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, planToResponse(plan))
}

// CreateSession handles POST /sessions requests: it generates today's
// plan and opens a sitting over it in one step.
func (h *StudyHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	req, learnerID, ok := h.decodePlanRequest(w, r)
	if !ok {
		return
	}

	plan, err := h.study.GenerateDailyPlan(r.Context(), learnerID, req.CatalogID, h.targetsFrom(req.Targets))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	sess, err := h.study.CreateSession(r.Context(), plan)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, sessionToResponse(sess))
}

// ResumeSession handles GET /sessions/{learnerID}/{catalogID} requests.
// Responds 204 when there is nothing to resume.
func (h *StudyHandler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	learnerID, catalogID, ok := h.pairParams(w, r)
	if !ok {
		return
	}

	sess, err := h.study.ResumeSession(r.Context(), learnerID, catalogID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if sess == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(sess))
}

// CurrentCard handles GET /sessions/{learnerID}/{catalogID}/current
// requests. Responds 204 when no card is pending.
func (h *StudyHandler) CurrentCard(w http.ResponseWriter, r *http.Request) {
	learnerID, catalogID, ok := h.pairParams(w, r)
	if !ok {
		return
	}

	card := h.study.CurrentCard(learnerID, catalogID)
	if card == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// SubmitChoice handles POST /sessions/{learnerID}/{catalogID}/choices
// requests.
func (h *StudyHandler) SubmitChoice(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	learnerID, catalogID, ok := h.pairParams(w, r)
	if !ok {
		return
	}

	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	choice := domain.Choice(req.Choice)
	card, stats, err := h.study.SubmitChoice(r.Context(), learnerID, catalogID, choice)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("choice submitted",
		slog.String("item_id", card.ItemID),
		slog.String("choice", string(choice)),
		slog.Int("completed", stats.Completed))
	shared.RespondWithJSON(w, r, http.StatusOK, SubmitResponse{
		Card:        *cardToResponse(card),
		Stats:       stats,
		IsCompleted: stats.Remaining == 0,
	})
}

// GetProgress handles GET /progress/{learnerID}/{catalogID} requests.
// Responds 204 when no persisted state exists.
func (h *StudyHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	learnerID, catalogID, ok := h.pairParams(w, r)
	if !ok {
		return
	}

	state, err := h.study.LoadProgress(r.Context(), learnerID, catalogID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if state == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, state)
}

// SaveProgress handles PUT /progress/{learnerID}/{catalogID} requests.
// It accepts a session state recorded elsewhere, for clients that
// studied offline and push their state on reconnect.
func (h *StudyHandler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	learnerID, catalogID, ok := h.pairParams(w, r)
	if !ok {
		return
	}

	var state domain.SessionState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if state.LearnerID != learnerID || state.CatalogID != catalogID {
		shared.RespondWithError(w, r, http.StatusBadRequest, "State does not match URL parameters")
		return
	}

	if err := h.study.SaveProgress(r.Context(), &state); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearProgress handles DELETE /progress/{learnerID}/{catalogID}
// requests.
func (h *StudyHandler) ClearProgress(w http.ResponseWriter, r *http.Request) {
	learnerID, catalogID, ok := h.pairParams(w, r)
	if !ok {
		return
	}

	if err := h.study.ClearProgress(r.Context(), learnerID, catalogID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Recommendations handles
// GET /progress/{learnerID}/{catalogID}/recommendations requests.
func (h *StudyHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	learnerID, catalogID, ok := h.pairParams(w, r)
	if !ok {
		return
	}

	metrics, recs, err := h.study.RecommendTargets(r.Context(), learnerID, catalogID, h.defaults)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"metrics":         metrics,
		"recommendations": recs,
	})
}

func (h *StudyHandler) decodePlanRequest(w http.ResponseWriter, r *http.Request) (PlanRequest, uuid.UUID, bool) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return req, uuid.Nil, false
	}
	learnerID, err := uuid.Parse(req.LearnerID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid learner ID")
		return req, uuid.Nil, false
	}
	return req, learnerID, true
}

func (h *StudyHandler) pairParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	learnerID, err := uuid.Parse(chi.URLParam(r, "learnerID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid learner ID")
		return uuid.Nil, "", false
	}
	catalogID := chi.URLParam(r, "catalogID")
	if catalogID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Catalog ID is required")
		return uuid.Nil, "", false
	}
	return learnerID, catalogID, true
}

func (h *StudyHandler) targetsFrom(req *TargetsRequest) domain.StudyTargets {
	targets := h.defaults
	if req == nil {
		return targets
	}
	if req.DailyNewCount != nil {
		targets.DailyNewCount = *req.DailyNewCount
	}
	if req.DailyReviewCount != nil {
		targets.DailyReviewCount = *req.DailyReviewCount
	}
	if req.DailyTotal != nil {
		targets.DailyTotal = *req.DailyTotal
	}
	return targets
}

func cardToResponse(card *domain.Card) *CardResponse {
	return &CardResponse{
		ItemID:       card.ItemID,
		Repetitions:  card.Repetitions,
		EaseFactor:   card.EaseFactor,
		IntervalDays: card.IntervalDays,
		NextReviewAt: card.NextReviewAt,
		LastReviewAt: card.LastReviewAt,
		Status:       string(card.Status),
	}
}

func planToResponse(plan *domain.DailyPlan) PlanResponse {
	return PlanResponse{
		LearnerID:   plan.LearnerID.String(),
		CatalogID:   plan.CatalogID,
		Date:        plan.Date.Format("2006-01-02"),
		ItemIDs:     plan.ItemIDs,
		NewCount:    plan.NewCount,
		ReviewCount: plan.ReviewCount,
	}
}

func sessionToResponse(sess *session.StudySession) SessionResponse {
	resp := SessionResponse{
		SessionID:   sess.ID().String(),
		Stats:       sess.Stats(),
		IsCompleted: sess.IsCompleted(),
	}
	if card := sess.CurrentCard(); card != nil {
		resp.CurrentCard = cardToResponse(card)
	}
	return resp
}
