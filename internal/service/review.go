package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/auth"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/rating"
	"github.com/sakif/recipe-mate/internal/repository"
	"github.com/sakif/recipe-mate/internal/validate"
)

// Ratings is the part of *rating.Aggregator the review service uses.
type Ratings interface {
	Schedule(ctx context.Context, recipeID string)
	Summary(ctx context.Context, recipeID string, limit int) (*model.ReviewSummary, error)
}

var _ Ratings = (*rating.Aggregator)(nil)

// ReviewService writes reviews and keeps the parent recipe's rating in step:
// every successful create, update and delete schedules a recompute.
type ReviewService struct {
	reviews   repository.ReviewRepository
	recipes   repository.RecipeRepository
	ratings   Ratings
	validator *validate.Validator
	logger    *slog.Logger
}

func NewReviewService(
	reviews repository.ReviewRepository,
	recipes repository.RecipeRepository,
	ratings Ratings,
	validator *validate.Validator,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		recipes:   recipes,
		ratings:   ratings,
		validator: validator,
		logger:    logger,
	}
}

// Get loads a review; it backs the {reviewId} route parameter.
func (s *ReviewService) Get(ctx context.Context, id string) (*model.Review, error) {
	r, err := s.reviews.GetReviewByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Missing("No such review found")
		}
		return nil, fmt.Errorf("service/review: loading %s: %w", id, err)
	}
	return r, nil
}

// Create adds the caller's review to recipeID.
func (s *ReviewService) Create(ctx context.Context, id auth.Identity, recipeID string, req model.ReviewRequest) (*model.Review, error) {
	if strings.TrimSpace(recipeID) == "" {
		return nil, apperror.ValidationFailed("recipe", "Invalid request")
	}
	req = s.clean(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	review := &model.Review{
		Rating:   req.Rating,
		Comments: escape(req.Comments),
		RecipeID: recipeID,
		AuthorID: id.UserID(),
	}
	if review.Blank() {
		return nil, blankReview()
	}
	if err := s.requireRecipe(ctx, recipeID); err != nil {
		return nil, err
	}

	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("service/review: storing review: %w", err)
	}
	s.logger.Info("review created",
		slog.String("id", review.ID),
		slog.String("recipeId", recipeID),
	)

	s.ratings.Schedule(ctx, recipeID)
	return review, nil
}

// Update merges req into review. The result must still carry a rating or
// a comment.
func (s *ReviewService) Update(ctx context.Context, review *model.Review, req model.ReviewRequest) (*model.Review, error) {
	req = s.clean(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	updated := *review
	if req.Rating != nil {
		updated.Rating = req.Rating
	}
	if req.Comments != nil {
		updated.Comments = escape(req.Comments)
	}
	if updated.Blank() {
		return nil, blankReview()
	}

	if err := s.reviews.UpdateReview(ctx, &updated); err != nil {
		return nil, fmt.Errorf("service/review: updating %s: %w", review.ID, err)
	}
	s.logger.Info("review updated", slog.String("id", review.ID))

	s.ratings.Schedule(ctx, review.RecipeID)
	return &updated, nil
}

// Delete removes review.
func (s *ReviewService) Delete(ctx context.Context, review *model.Review) error {
	if err := s.reviews.DeleteReview(ctx, review.ID); err != nil {
		return fmt.Errorf("service/review: deleting %s: %w", review.ID, err)
	}
	s.logger.Info("review deleted", slog.String("id", review.ID))

	s.ratings.Schedule(ctx, review.RecipeID)
	return nil
}

// Summary returns the rating histogram and latest full reviews of
// recipeID. A non-positive limit takes the default.
func (s *ReviewService) Summary(ctx context.Context, recipeID string, limit int) (*model.ReviewSummary, error) {
	if strings.TrimSpace(recipeID) == "" {
		return nil, apperror.ValidationFailed("recipe", "Invalid request")
	}
	if err := s.requireRecipe(ctx, recipeID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = rating.DefaultRecentLimit
	}
	summary, err := s.ratings.Summary(ctx, recipeID, limit)
	if err != nil {
		return nil, fmt.Errorf("service/review: summarising %s: %w", recipeID, err)
	}
	return summary, nil
}

func (s *ReviewService) requireRecipe(ctx context.Context, recipeID string) error {
	if _, err := s.recipes.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Missing("No such recipe found")
		}
		return fmt.Errorf("service/review: loading recipe %s: %w", recipeID, err)
	}
	return nil
}

// clean trims the comment before validation.
func (s *ReviewService) clean(req model.ReviewRequest) model.ReviewRequest {
	if req.Comments != nil {
		c := strings.TrimSpace(*req.Comments)
		req.Comments = &c
	}
	return req
}

func escape(comments *string) *string {
	if comments == nil {
		return nil
	}
	e := html.EscapeString(*comments)
	return &e
}

func blankReview() error {
	return apperror.ValidationFailed("review", "Blank review error - no rating, no comments")
}
