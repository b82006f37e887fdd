package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/respond"
	"github.com/sakif/recipe-mate/internal/service"
)

// ReviewHandler serves /api/review.
type ReviewHandler struct {
	reviews *service.ReviewService
	rs      *respond.Responder
	logger  *slog.Logger
}

func NewReviewHandler(reviews *service.ReviewService, rs *respond.Responder, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, rs: rs, logger: logger}
}

type reviewCreatedResponse struct {
	Status string        `json:"status"`
	Review *model.Review `json:"review"`
}

// HandleCreate adds the caller's review to ?recipe=.
//
// HTTP: POST /api/review?recipe=<id>
func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	var req model.ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	review, err := h.reviews.Create(r.Context(), id, r.URL.Query().Get("recipe"), req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusCreated, reviewCreatedResponse{Status: "success", Review: review})
}

// HandleSummary returns the rating histogram and recent reviews of ?recipe=.
//
// HTTP: GET /api/review?recipe=<id>&limit=
func (h *ReviewHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.rs.Error(w, r, apperror.ValidationFailed("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}
	summary, err := h.reviews.Summary(r.Context(), r.URL.Query().Get("recipe"), limit)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, summary)
}

// HandleGet returns the resolved review.
//
// HTTP: GET /api/review/{reviewId}
func (h *ReviewHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	review, err := resolved[model.Review](r, "reviewId")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, review)
}

// HandleUpdate merges the body into the resolved review.
//
// HTTP: PUT /api/review/{reviewId}
func (h *ReviewHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	review, err := resolved[model.Review](r, "reviewId")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	var req model.ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	updated, err := h.reviews.Update(r.Context(), review, req)
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, reviewCreatedResponse{Status: "success", Review: updated})
}

// HandleDelete removes the resolved review.
//
// HTTP: DELETE /api/review/{reviewId}
func (h *ReviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	review, err := resolved[model.Review](r, "reviewId")
	if err != nil {
		h.rs.Error(w, r, err)
		return
	}
	if err := h.reviews.Delete(r.Context(), review); err != nil {
		h.rs.Error(w, r, err)
		return
	}
	h.rs.JSON(w, http.StatusOK, success())
}
