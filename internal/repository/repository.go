// Package repository declares the persistence contracts the services depend
// on. The sqlite subpackage is the only implementation; services and tests
// program against these interfaces.
package repository

import (
	"context"
	"time"

	"github.com/sakif/recipe-mate/internal/model"
)

// ListOptions is an offset/limit window.
type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository stores accounts. Emails are unique; a duplicate surfaces as
// apperror.ErrConflict.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error

	// SetPassword stores a new digest and clears any pending reset token.
	SetPassword(ctx context.Context, id, digest string) error
	SetResetToken(ctx context.Context, id, digest string, expires time.Time) error

	// Members are users with role 0, the only accounts admins manage.
	GetMemberByID(ctx context.Context, id string) (*model.User, error)
	ListMembers(ctx context.Context, opts ListOptions) ([]model.User, error)
	CountMembers(ctx context.Context) (int, error)
}

// RecipeRepository stores recipes and the saved-by relation. Recipes are
// returned with Owner and SavedBy populated.
type RecipeRepository interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *model.Recipe) error
	// DeleteRecipe removes the recipe with its saves and reviews.
	DeleteRecipe(ctx context.Context, id string) error

	// ListRecipes orders by rating desc, then name asc.
	ListRecipes(ctx context.Context, opts ListOptions) ([]model.Recipe, error)
	CountRecipes(ctx context.Context) (int, error)
	// ListRecipesByUser orders by rating desc, then updatedAt desc.
	ListRecipesByUser(ctx context.Context, userID string) ([]model.Recipe, error)
	ListSavedRecipes(ctx context.Context, userID string) ([]model.Recipe, error)
	// RecipeRatingsByUser returns the cached rating of each of the user's recipes.
	RecipeRatingsByUser(ctx context.Context, userID string) ([]float64, error)
	// SearchRecipes matches name case-insensitively, newest first.
	SearchRecipes(ctx context.Context, name string, limit int) ([]model.RecipeName, error)

	// ToggleSave flips whether userID saved the recipe and reports the new state.
	ToggleSave(ctx context.Context, recipeID, userID string) (bool, error)
	SetRecipeRating(ctx context.Context, id string, rating float64) error
}

// ReviewRepository stores reviews.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review *model.Review) error
	GetReviewByID(ctx context.Context, id string) (*model.Review, error)
	UpdateReview(ctx context.Context, review *model.Review) error
	DeleteReview(ctx context.Context, id string) error
	ListRecipeReviews(ctx context.Context, recipeID string) ([]model.AuthoredReview, error)
}
