package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/respond"
)

func newTestResponder() *respond.Responder {
	return respond.New(false, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolve(t *testing.T) {
	calls := 0
	load := func(_ context.Context, id string) (*model.Recipe, error) {
		calls++
		if id != "r1" {
			return nil, apperror.Missing("No such recipe found")
		}
		return &model.Recipe{ID: "r1", Name: "Dal"}, nil
	}

	rs := newTestResponder()
	r := chi.NewRouter()
	r.With(Resolve(rs, "recipeId", load), Resolve(rs, "recipeId", load)).
		Get("/recipes/{recipeId}", func(w http.ResponseWriter, r *http.Request) {
			recipe, ok := Resolved[model.Recipe](r.Context())
			assert.True(t, ok)
			_, _ = w.Write([]byte(recipe.Name))
		})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes/r1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Dal", w.Body.String())
	assert.Equal(t, 1, calls, "entity must be loaded once per request")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No such recipe found")
}

func TestResolved_TypesDoNotCollide(t *testing.T) {
	ctx := WithResolved(context.Background(), &model.Recipe{ID: "r1"})

	_, ok := Resolved[model.Review](ctx)
	assert.False(t, ok)

	recipe, ok := Resolved[model.Recipe](ctx)
	assert.True(t, ok)
	assert.Equal(t, "r1", recipe.ID)
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, newTestResponder(), 1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
		r.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A different client has its own bucket.
	r := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
	r.RemoteAddr = "10.0.0.2:5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
