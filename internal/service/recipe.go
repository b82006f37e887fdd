package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/asset"
	"github.com/sakif/recipe-mate/internal/auth"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/pagination"
	"github.com/sakif/recipe-mate/internal/repository"
	"github.com/sakif/recipe-mate/internal/validate"
)

const (
	// SearchLimit caps the name search.
	SearchLimit = 6

	noRecipes = "No recipe data available"
)

// RecipeService owns recipe writes and their photo assets.
//
// A recipe and its photo live in two systems that cannot share a
// transaction. The rules are:
//   - the photo is uploaded first; if the recipe cannot be stored the new
//     asset is deleted again
//   - a replaced photo is released only after the update is stored
//   - on delete, a failure to release the asset is logged, not returned
type RecipeService struct {
	recipes   repository.RecipeRepository
	assets    asset.Host
	validator *validate.Validator
	logger    *slog.Logger
}

func NewRecipeService(recipes repository.RecipeRepository, assets asset.Host, validator *validate.Validator, logger *slog.Logger) *RecipeService {
	return &RecipeService{
		recipes:   recipes,
		assets:    assets,
		validator: validator,
		logger:    logger,
	}
}

// Get loads a recipe with its owner. It is the loader behind the
// {recipeId} route parameter.
func (s *RecipeService) Get(ctx context.Context, id string) (*model.Recipe, error) {
	r, err := s.recipes.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Missing("No such recipe found")
		}
		return nil, fmt.Errorf("service/recipe: loading %s: %w", id, err)
	}
	return r, nil
}

// Create stores a new recipe with its photo.
//
// A regular user always creates recipes for themselves. An admin creates
// them on behalf of the user named in req.CreatedBy, which must be set and
// is not checked against the user table.
func (s *RecipeService) Create(ctx context.Context, id auth.Identity, req model.RecipeRequest, photo *asset.Upload) (*model.Recipe, error) {
	creator, err := creatorFor(id, req)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if !req.Complete() {
		return nil, apperror.ValidationFailed("recipe", "Fields are missing, pls provide all fields")
	}
	if err := asset.ValidateUpload(photo); err != nil {
		return nil, err
	}

	recipe := &model.Recipe{CreatedBy: creator}
	req.Apply(recipe)

	recipe.Photo, err = s.storePhoto(ctx, photo)
	if err != nil {
		return nil, err
	}

	if err := s.recipes.CreateRecipe(ctx, recipe); err != nil {
		s.release(ctx, recipe.Photo.PublicID, "recipe create failed")
		return nil, fmt.Errorf("service/recipe: storing recipe: %w", err)
	}

	s.logger.Info("recipe created",
		slog.String("id", recipe.ID),
		slog.String("createdBy", recipe.CreatedBy),
	)
	return recipe, nil
}

func creatorFor(id auth.Identity, req model.RecipeRequest) (string, error) {
	if !id.IsAdmin() {
		return id.UserID(), nil
	}
	if createdBy := strings.TrimSpace(req.CreatedBy); createdBy != "" {
		return createdBy, nil
	}
	return "", apperror.ValidationFailed("createdBy", "Recipe creator details are missing")
}

// Update applies a partial update to recipe. photo may be nil.
func (s *RecipeService) Update(ctx context.Context, recipe *model.Recipe, req model.RecipeRequest, photo *asset.Upload) (*model.Recipe, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	updated := *recipe
	req.Apply(&updated)

	replaced := photo != nil
	if replaced {
		if err := asset.ValidateUpload(photo); err != nil {
			return nil, err
		}
		p, err := s.storePhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		updated.Photo = p
	}

	if err := s.recipes.UpdateRecipe(ctx, &updated); err != nil {
		if replaced {
			s.release(ctx, updated.Photo.PublicID, "recipe update failed")
		}
		return nil, fmt.Errorf("service/recipe: updating %s: %w", recipe.ID, err)
	}

	if replaced && recipe.Photo.PublicID != "" {
		s.release(ctx, recipe.Photo.PublicID, "photo replaced")
	}

	s.logger.Info("recipe updated", slog.String("id", recipe.ID))
	return &updated, nil
}

// Delete removes the recipe and releases its photo concurrently. Only the
// recipe delete can fail the call; a failed recipe delete does not cancel the
// photo release.
func (s *RecipeService) Delete(ctx context.Context, recipe *model.Recipe) error {
	var g errgroup.Group
	g.Go(func() error {
		if err := s.recipes.DeleteRecipe(ctx, recipe.ID); err != nil {
			return fmt.Errorf("service/recipe: deleting %s: %w", recipe.ID, err)
		}
		return nil
	})
	g.Go(func() error {
		if recipe.Photo.PublicID == "" {
			return nil
		}
		if err := s.assets.Delete(ctx, recipe.Photo.PublicID); err != nil {
			s.logger.Error("could not release recipe photo",
				slog.String("id", recipe.ID),
				slog.String("publicId", recipe.Photo.PublicID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("recipe deleted", slog.String("id", recipe.ID))
	return nil
}

// List returns one page of all recipes, best rated first.
func (s *RecipeService) List(ctx context.Context, p pagination.Params) (*pagination.Page[model.Recipe], error) {
	g, gctx := errgroup.WithContext(ctx)
	var (
		items []model.Recipe
		total int
	)
	g.Go(func() (err error) {
		items, err = s.recipes.ListRecipes(gctx, repository.ListOptions{Limit: p.Limit, Offset: p.Offset()})
		return err
	})
	g.Go(func() (err error) {
		total, err = s.recipes.CountRecipes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service/recipe: listing: %w", err)
	}
	return pagination.Result(items, total, noRecipes)
}

// ByUser returns one page of the recipes userID created.
func (s *RecipeService) ByUser(ctx context.Context, userID string, p pagination.Params) (*pagination.Page[model.Recipe], error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.ValidationFailed("user", "Invalid request")
	}
	all, err := s.recipes.ListRecipesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/recipe: listing recipes of %s: %w", userID, err)
	}
	return window(all, p)
}

// Saved returns one page of the recipes the caller has saved.
func (s *RecipeService) Saved(ctx context.Context, id auth.Identity, p pagination.Params) (*pagination.Page[model.Recipe], error) {
	all, err := s.recipes.ListSavedRecipes(ctx, id.UserID())
	if err != nil {
		return nil, fmt.Errorf("service/recipe: listing saved recipes of %s: %w", id.UserID(), err)
	}
	return window(all, p)
}

// window pages an already-loaded listing.
func window(all []model.Recipe, p pagination.Params) (*pagination.Page[model.Recipe], error) {
	items := []model.Recipe{}
	if off := p.Offset(); off < len(all) {
		items = all[off:min(off+p.Limit, len(all))]
	}
	return pagination.Result(items, len(all), noRecipes)
}

// ToggleSave flips whether the caller has saved recipe and reports the new
// state.
func (s *RecipeService) ToggleSave(ctx context.Context, recipe *model.Recipe, id auth.Identity) (bool, error) {
	saved, err := s.recipes.ToggleSave(ctx, recipe.ID, id.UserID())
	if err != nil {
		return false, fmt.Errorf("service/recipe: toggling save of %s: %w", recipe.ID, err)
	}
	return saved, nil
}

// Search finds recipes by a case-insensitive name fragment.
func (s *RecipeService) Search(ctx context.Context, name string) ([]model.RecipeName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "Invalid request")
	}
	hits, err := s.recipes.SearchRecipes(ctx, name, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("service/recipe: searching %q: %w", name, err)
	}
	return hits, nil
}

// storePhoto uploads photo and derives its variants. If the variants
// cannot be made the upload is released again.
func (s *RecipeService) storePhoto(ctx context.Context, photo *asset.Upload) (model.Photo, error) {
	a, err := s.assets.Upload(ctx, *photo)
	if err != nil {
		return model.Photo{}, fmt.Errorf("service/recipe: uploading photo: %w", err)
	}

	urls, err := s.assets.Transform(ctx, a, asset.DefaultVariants)
	if err != nil {
		s.release(ctx, a.PublicID, "photo transform failed")
		return model.Photo{}, fmt.Errorf("service/recipe: transforming photo: %w", err)
	}

	return model.Photo{
		ContentType: photo.ContentType,
		Filename:    photo.Filename,
		AssetID:     a.AssetID,
		PublicID:    a.PublicID,
		URL:         a.SecureURL,
		Square:      urls[asset.VariantSquare],
		Thumbnail:   urls[asset.VariantThumbnail],
	}, nil
}

// release deletes an asset that is no longer referenced. It outlives the
// request's cancellation and only logs failures.
func (s *RecipeService) release(ctx context.Context, publicID, reason string) {
	if publicID == "" {
		return
	}
	if err := s.assets.Delete(context.WithoutCancel(ctx), publicID); err != nil {
		s.logger.Error("could not release photo",
			slog.String("publicId", publicID),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("photo released",
		slog.String("publicId", publicID),
		slog.String("reason", reason),
	)
}
