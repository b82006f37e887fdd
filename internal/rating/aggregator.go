package rating

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/worker"
)

// Store is the persistence the aggregator needs.
type Store interface {
	// ListRecipeReviews returns every review of the recipe joined with its
	// author's name, in no particular order.
	ListRecipeReviews(ctx context.Context, recipeID string) ([]model.AuthoredReview, error)
	// SetRecipeRating overwrites the recipe's cached rating.
	SetRecipeRating(ctx context.Context, recipeID string, rating float64) error
}

// Scheduler queues background work; *worker.Pool satisfies it.
type Scheduler interface {
	Submit(ctx context.Context, t worker.Task) error
}

// Aggregator keeps Recipe.Rating consistent with the recipe's reviews and
// answers the per-recipe review queries.
type Aggregator struct {
	store  Store
	tasks  Scheduler
	logger *slog.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(store Store, tasks Scheduler, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: store, tasks: tasks, logger: logger}
}

// Recompute writes the current mean rating onto the recipe and returns it.
// Running it twice with no review change in between yields the same value.
func (a *Aggregator) Recompute(ctx context.Context, recipeID string) (float64, error) {
	reviews, err := a.store.ListRecipeReviews(ctx, recipeID)
	if err != nil {
		return 0, fmt.Errorf("loading reviews of recipe %s: %w", recipeID, err)
	}

	mean := Mean(plain(reviews))
	if err := a.store.SetRecipeRating(ctx, recipeID, mean); err != nil {
		return 0, fmt.Errorf("saving rating of recipe %s: %w", recipeID, err)
	}

	a.logger.Info("recipe rating recomputed",
		slog.String("recipeId", recipeID),
		slog.Float64("rating", mean),
		slog.Int("reviews", len(reviews)),
	)
	return mean, nil
}

// Schedule queues a Recompute for recipeID and returns without waiting for
// it. Concurrent schedules for the same recipe are not coalesced; the last
// one to finish wins.
func (a *Aggregator) Schedule(ctx context.Context, recipeID string) {
	err := a.tasks.Submit(ctx, worker.Task{
		Name: "recompute-rating:" + recipeID,
		Run: func(ctx context.Context) error {
			_, err := a.Recompute(ctx, recipeID)
			return err
		},
	})
	if err != nil {
		a.logger.Error("could not schedule rating recompute",
			slog.String("recipeId", recipeID),
			slog.String("error", err.Error()),
		)
	}
}

// Histogram counts the recipe's reviews per rating value 1..5.
func (a *Aggregator) Histogram(ctx context.Context, recipeID string) (map[int]int, error) {
	reviews, err := a.store.ListRecipeReviews(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("loading reviews of recipe %s: %w", recipeID, err)
	}
	return BuildHistogram(plain(reviews)), nil
}

// RecentReviews returns the recipe's latest reviews that carry both a rating
// and a comment.
func (a *Aggregator) RecentReviews(ctx context.Context, recipeID string, limit int) ([]model.RecentReview, error) {
	reviews, err := a.store.ListRecipeReviews(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("loading reviews of recipe %s: %w", recipeID, err)
	}
	return MostRecent(reviews, limit), nil
}

// Summary answers Histogram and RecentReviews from a single read.
func (a *Aggregator) Summary(ctx context.Context, recipeID string, limit int) (*model.ReviewSummary, error) {
	reviews, err := a.store.ListRecipeReviews(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("loading reviews of recipe %s: %w", recipeID, err)
	}
	return &model.ReviewSummary{
		Histogram: BuildHistogram(plain(reviews)),
		Reviews:   MostRecent(reviews, limit),
	}, nil
}
