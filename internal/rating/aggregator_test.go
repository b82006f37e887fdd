package rating

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/worker"
)

type memStore struct {
	mu      sync.Mutex
	reviews map[string][]model.AuthoredReview
	ratings map[string]float64
	writes  int
	listErr error
}

func newMemStore() *memStore {
	return &memStore{
		reviews: map[string][]model.AuthoredReview{},
		ratings: map[string]float64{},
	}
}

func (m *memStore) add(recipeID string, rating int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[recipeID] = append(m.reviews[recipeID], model.AuthoredReview{
		Review: model.Review{RecipeID: recipeID, Rating: ptr(rating)},
	})
}

func (m *memStore) ListRecipeReviews(_ context.Context, recipeID string) ([]model.AuthoredReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]model.AuthoredReview(nil), m.reviews[recipeID]...), nil
}

func (m *memStore) SetRecipeRating(_ context.Context, recipeID string, rating float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[recipeID] = rating
	m.writes++
	return nil
}

func (m *memStore) rating(recipeID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ratings[recipeID]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecompute_IsIdempotent(t *testing.T) {
	store := newMemStore()
	store.add("r1", 4)
	store.add("r1", 2)
	agg := NewAggregator(store, nil, discardLogger())

	first, err := agg.Recompute(context.Background(), "r1")
	require.NoError(t, err)
	second, err := agg.Recompute(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, 3.0, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 3.0, store.rating("r1"))
}

func TestRecompute_NoReviewsIsZero(t *testing.T) {
	store := newMemStore()
	agg := NewAggregator(store, nil, discardLogger())

	got, err := agg.Recompute(context.Background(), "empty")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestRecompute_StoreError(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("disk gone")
	agg := NewAggregator(store, nil, discardLogger())

	_, err := agg.Recompute(context.Background(), "r1")
	assert.Error(t, err)
	assert.Equal(t, 0, store.writes)
}

func TestSchedule_RunsInBackground(t *testing.T) {
	store := newMemStore()
	store.add("r1", 5)
	store.add("r1", 4)

	pool := worker.NewPool(worker.Config{Workers: 1}, discardLogger())
	pool.Start()
	agg := NewAggregator(store, pool, discardLogger())

	agg.Schedule(context.Background(), "r1")
	pool.Stop()

	assert.Equal(t, 4.5, store.rating("r1"))
	assert.Equal(t, int64(1), pool.Completed())
}

func TestSchedule_FailureIsCounted(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("locked")

	pool := worker.NewPool(worker.Config{Workers: 1}, discardLogger())
	pool.Start()
	agg := NewAggregator(store, pool, discardLogger())

	agg.Schedule(context.Background(), "r1")
	pool.Stop()

	assert.Equal(t, int64(1), pool.Failures())
}

func TestSummary(t *testing.T) {
	store := newMemStore()
	store.add("r1", 5)
	store.add("r1", 5)
	store.add("r1", 1)
	agg := NewAggregator(store, nil, discardLogger())

	summary, err := agg.Summary(context.Background(), "r1", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Histogram[5])
	assert.Equal(t, 1, summary.Histogram[1])
	assert.Empty(t, summary.Reviews, "reviews without comments are not in the feed")
}
