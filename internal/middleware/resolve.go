package middleware

// OWNERSHIP RESOLVER:
// Routes such as PUT /api/recipe/{recipeId} need the target recipe twice:
// once for the ownership check and once in the handler. Resolve loads it a
// single time, before either runs, and stores it in the request context
// keyed by its Go type. Later steps read it back with Resolved.
//
//	r.With(middleware.Resolve(rs, "recipeId", recipes.GetByID)).
//	    With(auth.RequireRecipeOwner(rs)).
//	    Put("/{recipeId}", h.HandleUpdate)

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/respond"
)

// Loader fetches an entity by id. It must return an apperror NotFound when
// the id matches nothing.
type Loader[T any] func(ctx context.Context, id string) (*T, error)

// resolvedKey is a distinct context key per entity type.
type resolvedKey[T any] struct{}

// Resolve loads the entity named by the URL parameter param and attaches it
// to the request context. A request that already carries an entity of type T
// is passed through untouched.
func Resolve[T any](rs *respond.Responder, param string, load Loader[T]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := Resolved[T](r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			id := chi.URLParam(r, param)
			if id == "" {
				rs.Error(w, r, apperror.ValidationFailed(param, param+" is required"))
				return
			}

			entity, err := load(r.Context(), id)
			if err != nil {
				rs.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithResolved(r.Context(), entity)))
		})
	}
}

// WithResolved stores entity in ctx.
func WithResolved[T any](ctx context.Context, entity *T) context.Context {
	return context.WithValue(ctx, resolvedKey[T]{}, entity)
}

// Resolved returns the entity of type T attached by Resolve.
func Resolved[T any](ctx context.Context) (*T, bool) {
	entity, ok := ctx.Value(resolvedKey[T]{}).(*T)
	return entity, ok && entity != nil
}
