package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/localmarket/internal/domain"
	"github.com/msomdec/localmarket/internal/service"
	"github.com/msomdec/localmarket/internal/view"
)

// ReputationHandler serves reviews and reputation reads.
type ReputationHandler struct {
	reputation *service.ReputationService
	feed       *service.ScoreFeed
}

// NewReputationHandler creates a new ReputationHandler.
func NewReputationHandler(reputation *service.ReputationService, feed *service.ScoreFeed) *ReputationHandler {
	return &ReputationHandler{reputation: reputation, feed: feed}
}

// HandleReview records a review from the caller about the account in the path.
// POST /api/v1/users/{id}/review
// Request:  {"item_id":"...","is_positive":true,"evaluation_points":["..."]}
// Response: {"review_id":"...","target_user_id":"...","new_temperature":36.6}
func (h *ReputationHandler) HandleReview(w http.ResponseWriter, r *http.Request) {
	reviewer := AccountFromContext(r.Context())
	if reviewer == nil {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials.")
		return
	}

	var req struct {
		ItemID           string   `json:"item_id"`
		IsPositive       *bool    `json:"is_positive"`
		EvaluationPoints []string `json:"evaluation_points"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.IsPositive == nil {
		writeError(w, http.StatusUnprocessableEntity, "is_positive is required.")
		return
	}

	targetID := r.PathValue("id")
	review, score, err := h.reputation.SubmitReview(r.Context(), service.ReviewInput{
		ReviewerID: reviewer.ID,
		TargetID:   targetID,
		Positive:   *req.IsPositive,
		Tags:       req.EvaluationPoints,
		ListingRef: req.ItemID,
	})
	if err != nil {
		writeServiceError(w, r, "submit review", err)
		return
	}

	writeJSON(w, http.StatusOK, ReviewResponse{
		ReviewID:       review.ID,
		TargetUserID:   targetID,
		NewTemperature: score.Float64(),
	})
}

// HandleManner returns the current score and positive tag counts.
// GET /api/v1/users/{id}/manner
func (h *ReputationHandler) HandleManner(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reputation.GetReputation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, "get reputation", err)
		return
	}
	writeJSON(w, http.StatusOK, toMannerResponse(rep))
}

// HandleMannerLive streams score changes as datastar patches until the client
// goes away.
// GET /api/v1/users/{id}/manner/live
func (h *ReputationHandler) HandleMannerLive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Subscribe before the first read so no commit falls in between.
	updates, cancel := h.feed.Subscribe(id)
	defer cancel()

	rep, err := h.reputation.GetReputation(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get reputation", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	patch := func(score domain.Score) error {
		if err := sse.PatchElementTempl(
			view.ReputationBadge(id, score),
			datastar.WithSelectorID(view.BadgeID(id)),
		); err != nil {
			return err
		}
		return sse.MarshalAndPatchSignals(map[string]any{"manner": score.Float64()})
	}

	if err := patch(rep.Score); err != nil {
		slog.DebugContext(r.Context(), "live manner stream closed", "account_id", id, "error", err)
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			// The notice may be older than a later commit; send what is stored.
			score, err := h.reputation.CurrentScore(r.Context(), id)
			if err != nil {
				slog.WarnContext(r.Context(), "reload score for live stream", "account_id", id, "error", err)
				return
			}
			if err := patch(score); err != nil {
				slog.DebugContext(r.Context(), "live manner stream closed", "account_id", id, "error", err)
				return
			}
		}
	}
}

// HandleProfile renders the public profile page.
// GET /users/{id}
func (h *ReputationHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reputation.GetReputation(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "get reputation", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.ProfilePage(rep).Render(r.Context(), w); err != nil {
		slog.ErrorContext(r.Context(), "render profile", "error", err)
	}
}
