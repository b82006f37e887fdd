package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/model"
)

// recordingRatings counts Schedule calls per recipe.
type recordingRatings struct {
	mu        sync.Mutex
	scheduled map[string]int
}

func (r *recordingRatings) Schedule(_ context.Context, recipeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduled == nil {
		r.scheduled = map[string]int{}
	}
	r.scheduled[recipeID]++
}

func (r *recordingRatings) Summary(context.Context, string, int) (*model.ReviewSummary, error) {
	return &model.ReviewSummary{}, nil
}

func TestReviewCreate_RecomputesRating(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "Asha", "asha@example.com")
	critic := env.signUp(t, "Ravi", "ravi@example.com")
	r := env.createRecipe(t, owner, "Aloo")

	_, err := env.reviews.Create(ctx, identity(critic), r.ID, model.ReviewRequest{Rating: ptr(4)})
	require.NoError(t, err)
	second, err := env.reviews.Create(ctx, identity(owner), r.ID, model.ReviewRequest{Rating: ptr(2), Comments: ptr("ok")})
	require.NoError(t, err)
	_, err = env.reviews.Create(ctx, identity(owner), r.ID, model.ReviewRequest{Comments: ptr("no stars")})
	require.NoError(t, err)

	got, err := env.recipes.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Rating, "comment-only reviews do not count")

	_, err = env.reviews.Update(ctx, second, model.ReviewRequest{Rating: ptr(5)})
	require.NoError(t, err)
	got, err = env.recipes.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, got.Rating)

	require.NoError(t, env.reviews.Delete(ctx, second))
	got, err = env.recipes.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Rating)
}

func TestReviewCreate_Rejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "Asha", "asha@example.com")
	r := env.createRecipe(t, owner, "Aloo")

	tests := []struct {
		name     string
		recipeID string
		req      model.ReviewRequest
		status   int
		want     string
	}{
		{"blank", r.ID, model.ReviewRequest{}, 400, "Blank review error - no rating, no comments"},
		{"whitespace comment", r.ID, model.ReviewRequest{Comments: ptr("   ")}, 400, "comments"},
		{"rating too high", r.ID, model.ReviewRequest{Rating: ptr(6)}, 400, "rating"},
		{"unknown recipe", "nope", model.ReviewRequest{Rating: ptr(3)}, 404, "No such recipe found"},
		{"no recipe id", "", model.ReviewRequest{Rating: ptr(3)}, 400, "Invalid request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.reviews.Create(ctx, identity(owner), tt.recipeID, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.status, apperror.StatusOf(err))
			assert.Contains(t, apperror.MessageOf(err), tt.want)
		})
	}
}

func TestReviewCreate_EscapesComments(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "Asha", "asha@example.com")
	r := env.createRecipe(t, owner, "Aloo")

	rev, err := env.reviews.Create(context.Background(), identity(owner), r.ID,
		model.ReviewRequest{Comments: ptr("  <b>tasty</b>  ")})
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;tasty&lt;/b&gt;", *rev.Comments)
}

func TestReviewService_SchedulesOnEveryWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "Asha", "asha@example.com")
	r := env.createRecipe(t, owner, "Aloo")

	ratings := &recordingRatings{}
	reviews := NewReviewService(env.db, env.db, ratings, env.reviews.validator, env.reviews.logger)

	rev, err := reviews.Create(ctx, identity(owner), r.ID, model.ReviewRequest{Rating: ptr(3)})
	require.NoError(t, err)
	_, err = reviews.Update(ctx, rev, model.ReviewRequest{Comments: ptr("fine")})
	require.NoError(t, err)

	// A failed write schedules nothing.
	_, err = reviews.Update(ctx, rev, model.ReviewRequest{Rating: ptr(0)})
	require.Error(t, err)

	require.NoError(t, reviews.Delete(ctx, rev))
	assert.Equal(t, 3, ratings.scheduled[r.ID])
}

func TestReviewUpdate_CannotBlank(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "Asha", "asha@example.com")
	r := env.createRecipe(t, owner, "Aloo")

	rev, err := env.reviews.Create(context.Background(), identity(owner), r.ID, model.ReviewRequest{Comments: ptr("nice")})
	require.NoError(t, err)

	_, err = env.reviews.Update(context.Background(), rev, model.ReviewRequest{Comments: ptr("")})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.StatusOf(err))
}

func TestReviewGet(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.reviews.Get(context.Background(), "missing")
	assert.Equal(t, "No such review found", apperror.MessageOf(err))
}

func TestReviewSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signUp(t, "Asha", "asha@example.com")
	r := env.createRecipe(t, owner, "Aloo")

	for _, req := range []model.ReviewRequest{
		{Rating: ptr(5), Comments: ptr("great")},
		{Rating: ptr(5)},
		{Rating: ptr(2), Comments: ptr("meh")},
		{Comments: ptr("looks nice")},
	} {
		_, err := env.reviews.Create(ctx, identity(owner), r.ID, req)
		require.NoError(t, err)
	}

	summary, err := env.reviews.Summary(ctx, r.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 0, 2: 1, 3: 0, 4: 0, 5: 2}, summary.Histogram)
	require.Len(t, summary.Reviews, 2, "only reviews with both a rating and a comment")
	assert.Equal(t, "Asha", summary.Reviews[0].Author.FirstName)

	_, err = env.reviews.Summary(ctx, "missing", 0)
	assert.Equal(t, 404, apperror.StatusOf(err))
}
